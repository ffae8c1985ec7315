// Package backend selects and constructs the persistence backend from
// configuration.
package backend

import (
	"context"

	"envelopes/internal/storage"
)

// Type names a persistence backend.
type Type string

const (
	MemoryBackend Type = "memory"
	SQLiteBackend Type = "sqlite"
)

func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, SQLiteBackend:
		return true
	}
	return false
}

// Config carries the backend selection and its settings.
type Config struct {
	Type         Type
	SQLiteDBPath string
}

// Factory builds repositories from backend configuration.
type Factory interface {
	CreateRepository(ctx context.Context, config Config) (storage.Repository, error)
}
