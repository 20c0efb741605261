package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aidanlsb/iniref/internal/atomicfile"
	"github.com/aidanlsb/iniref/internal/check"
	"github.com/aidanlsb/iniref/internal/engine"
)

// Export writes snap and diags to a fresh database at path. The database is
// built in a temporary file and renamed into place, so readers never see a
// partial export. Only one export per path may run at a time.
func Export(ctx context.Context, path string, snap engine.Snapshot, diags map[string][]check.Diagnostic) (*Stats, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	lock, err := acquireLock(path + ".lock")
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	tmp, err := atomicfile.TempPath(path)
	if err != nil {
		return nil, err
	}

	stats, err := writeExport(ctx, tmp, snap, diags)
	if err != nil {
		_ = os.Remove(tmp)
		return nil, err
	}
	if err := atomicfile.Commit(tmp, path); err != nil {
		return nil, err
	}
	return stats, nil
}

func writeExport(ctx context.Context, path string, snap engine.Snapshot, diags map[string][]check.Diagnostic) (*Stats, error) {
	s, err := create(path)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	if err := s.WriteSnapshot(ctx, snap, diags); err != nil {
		return nil, fmt.Errorf("failed to write export: %w", err)
	}
	return s.Stats()
}

type exportLock struct {
	file *os.File
}

func acquireLock(lockPath string) (*exportLock, error) {
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open export lock: %w", err)
	}
	if err := lockFileExclusiveNonBlocking(f); err != nil {
		f.Close()
		if isWouldBlockError(err) {
			return nil, ErrExportLocked
		}
		return nil, fmt.Errorf("failed to acquire export lock: %w", err)
	}
	return &exportLock{file: f}, nil
}

func (l *exportLock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockErr := unlockFile(l.file)
	closeErr := l.file.Close()
	if unlockErr != nil {
		return unlockErr
	}
	return closeErr
}
