package repository

import (
	"ambulancewatch/internal/model"

	"github.com/pkg/errors"
)

var (
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already registered")
)

// UserRepository defines the interface for account data operations.
type UserRepository interface {
	// Create operations
	// Insert returns ErrDuplicateUsername or ErrDuplicateEmail when either is taken.
	Insert(u *model.User) (int64, error)

	// Read operations
	GetByUsername(username string) (*model.User, error)
	GetTotalCount() (int, error)
}

// AlertRepository defines the interface for fired alert records.
type AlertRepository interface {
	// Create operations
	Insert(e *model.AlertEvent) (int64, error)

	// Read operations
	GetRecent(limit int) ([]model.AlertEvent, error)
	GetTotalCount() (int, error)
}
