package workspace

import (
	"fmt"
	"sync"
)

// Workspace tracks the full text of every open document plus the session's
// initialization flag. The HTTP host serves requests concurrently, so all
// access is serialized behind one mutex; a change followed by a diagnostic
// read must observe the just-written text.
type Workspace struct {
	mu          sync.Mutex
	initialized bool
	documents   map[string]string
}

// NewWorkspace returns an empty workspace.
func NewWorkspace() *Workspace {
	return &Workspace{documents: map[string]string{}}
}

// SetInitialized marks the initialize handshake as done. The transition is
// one-way; there is no way to revert it.
func (w *Workspace) SetInitialized() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.initialized = true
}

func (w *Workspace) IsInitialized() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.initialized
}

// AddDocument inserts or overwrites the document for uri. Re-opening an
// already open uri is allowed; the last text wins.
func (w *Workspace) AddDocument(uri, text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.documents[uri] = text
}

// ChangeDocument replaces the full text of an open document. Only
// full-document sync is supported, so text is the complete new content.
func (w *Workspace) ChangeDocument(uri, text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.documents[uri]; !ok {
		return fmt.Errorf("document not found: %s", uri)
	}
	w.documents[uri] = text
	return nil
}

// RemoveDocument forgets a closed document.
func (w *Workspace) RemoveDocument(uri string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.documents, uri)
}

// Document returns the current text of an open document.
func (w *Workspace) Document(uri string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	text, ok := w.documents[uri]
	return text, ok
}

// Documents returns a snapshot of all open documents.
func (w *Workspace) Documents() map[string]string {
	w.mu.Lock()
	defer w.mu.Unlock()
	snapshot := make(map[string]string, len(w.documents))
	for uri, text := range w.documents {
		snapshot[uri] = text
	}
	return snapshot
}
