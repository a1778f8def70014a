package invoice

import (
	"fmt"
	"io"
	"os"
)

// Storage defines the interface for uploaded document storage
type Storage interface {
	// Save stores a document and returns the name to retrieve it with
	Save(filename string, data []byte) (string, error)

	// Get retrieves a stored document
	Get(name string) ([]byte, error)

	// Delete removes a stored document
	Delete(name string) error
}

// LocalStorage keeps documents in a directory. Names are resolved inside the
// directory only, so a name can never reach a file outside of it.
type LocalStorage struct {
	root *os.Root
}

// NewLocalStorage creates the directory if needed and opens it
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	root, err := os.OpenRoot(basePath)
	if err != nil {
		return nil, fmt.Errorf("opening storage directory: %w", err)
	}
	return &LocalStorage{root: root}, nil
}

// Save writes the document under the given name
func (l *LocalStorage) Save(filename string, data []byte) (string, error) {
	f, err := l.root.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("writing file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing file: %w", err)
	}
	return filename, nil
}

// Get reads a stored document
func (l *LocalStorage) Get(name string) ([]byte, error) {
	f, err := l.root.Open(name)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Delete removes a stored document
func (l *LocalStorage) Delete(name string) error {
	if err := l.root.Remove(name); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

// Close releases the storage directory
func (l *LocalStorage) Close() error {
	return l.root.Close()
}
