// Package library defines the diagram spec file-system abstraction.
package library

import "time"

// SpecFile is lightweight metadata for one spec file in the library.
type SpecFile struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is the interface for spec library file operations.
type Provider interface {
	// List returns metadata for every .json spec under dir (relative to the
	// library root).
	List(dir string) ([]SpecFile, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to root).
	Delete(path string) error
	// Move renames oldPath to newPath (both relative to root).
	Move(oldPath, newPath string) error
}
