package editor

import (
	"sync"

	"github.com/atotto/clipboard"
)

// Clipboard moves plain text in and out of the editor.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// SystemClipboard talks to the OS clipboard.
type SystemClipboard struct{}

func (SystemClipboard) ReadAll() (string, error) {
	return clipboard.ReadAll()
}

func (SystemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}

// MemoryClipboard keeps the clipboard in process. Used by tests and when no
// system clipboard is available.
type MemoryClipboard struct {
	mu   sync.Mutex
	text string
}

func (m *MemoryClipboard) ReadAll() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

func (m *MemoryClipboard) WriteAll(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	return nil
}

// DefaultClipboard returns the system clipboard when one is usable and an
// in-memory one otherwise.
func DefaultClipboard() Clipboard {
	if clipboard.Unsupported {
		return &MemoryClipboard{}
	}
	return SystemClipboard{}
}
