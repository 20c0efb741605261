package cli

// Error codes for structured error responses.
// These codes are stable and can be relied upon by agents.
const (
	// Workspace errors
	ErrWorkspaceNotFound = "WORKSPACE_NOT_FOUND"
	ErrConfigInvalid     = "CONFIG_INVALID"

	// Schema errors
	ErrSchemaNotFound  = "SCHEMA_NOT_FOUND"
	ErrSchemaNotLoaded = "SCHEMA_NOT_LOADED"
	ErrTypeNotFound    = "TYPE_NOT_FOUND"

	// Corpus errors
	ErrSectionNotFound  = "SECTION_NOT_FOUND"
	ErrKeyNotFound      = "KEY_NOT_FOUND"
	ErrRegistryNotFound = "REGISTRY_NOT_FOUND"
	ErrRuleNotFound     = "RULE_NOT_FOUND"

	// File errors
	ErrFileNotFound   = "FILE_NOT_FOUND"
	ErrFileReadError  = "FILE_READ_ERROR"
	ErrFileWriteError = "FILE_WRITE_ERROR"

	// Database errors
	ErrDatabaseError  = "DATABASE_ERROR"
	ErrDatabaseLocked = "DATABASE_LOCKED"

	// Input errors
	ErrInvalidInput = "INVALID_INPUT"

	// General errors
	ErrInternal = "INTERNAL_ERROR"
)
