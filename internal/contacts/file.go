package contacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Document is the on-disk shape of the contact book. Settings is opaque
// frontend state carried through load/save untouched.
type Document struct {
	Contacts map[string]Contact     `json:"contacts"`
	Aliases  map[string]string      `json:"aliases"`
	Settings map[string]interface{} `json:"settings,omitempty"`
}

// FileStore persists a Document as a JSON file. Writes go through a temp
// file and rename so readers never observe a partial document.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string { return s.path }

// Load reads the document from disk. A missing file yields an empty
// document, not an error.
func (s *FileStore) Load() (*Document, error) {
	doc := &Document{
		Contacts: make(map[string]Contact),
		Aliases:  make(map[string]string),
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return nil, fmt.Errorf("read contacts file: %w", err)
	}

	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("parse contacts file: %w", err)
	}
	if doc.Contacts == nil {
		doc.Contacts = make(map[string]Contact)
	}
	if doc.Aliases == nil {
		doc.Aliases = make(map[string]string)
	}
	return doc, nil
}

// Save writes the document atomically with 0600 permissions.
func (s *FileStore) Save(doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal contacts: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create contacts dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".contacts-*.json")
	if err != nil {
		return fmt.Errorf("create temp contacts file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write contacts: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close contacts file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod contacts file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace contacts file: %w", err)
	}
	return nil
}
