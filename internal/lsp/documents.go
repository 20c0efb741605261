package lsp

import (
	"sort"
	"sync"
)

// DocumentManager tracks open documents and their content.
type DocumentManager struct {
	mu        sync.RWMutex
	documents map[string]*Document
}

// Document represents an open document in the editor.
type Document struct {
	URI     string
	Path    string // workspace-relative engine key
	Content string
	Version int
}

// NewDocumentManager creates a new document manager.
func NewDocumentManager() *DocumentManager {
	return &DocumentManager{
		documents: make(map[string]*Document),
	}
}

// Open registers a newly opened document.
func (dm *DocumentManager) Open(uri, path, content string, version int) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	dm.documents[uri] = &Document{
		URI:     uri,
		Path:    path,
		Content: content,
		Version: version,
	}
}

// Update replaces the content of an open document (full sync). Stale
// versions are ignored. It reports whether the document was updated.
func (dm *DocumentManager) Update(uri, content string, version int) bool {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	doc, ok := dm.documents[uri]
	if !ok || (version != 0 && version < doc.Version) {
		return false
	}
	doc.Content = content
	doc.Version = version
	return true
}

// Close removes a document from tracking.
func (dm *DocumentManager) Close(uri string) (*Document, bool) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	doc, ok := dm.documents[uri]
	delete(dm.documents, uri)
	return doc, ok
}

// Get returns a copy of an open document.
func (dm *DocumentManager) Get(uri string) (Document, bool) {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	doc, ok := dm.documents[uri]
	if !ok {
		return Document{}, false
	}
	return *doc, true
}

// All returns copies of all open documents, sorted by URI.
func (dm *DocumentManager) All() []Document {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	docs := make([]Document, 0, len(dm.documents))
	for _, doc := range dm.documents {
		docs = append(docs, *doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].URI < docs[j].URI })
	return docs
}
