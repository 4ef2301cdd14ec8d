package storage

import (
	"context"

	"github.com/openshelf/bookswap/pkg/models"
)

// UserStore defines the interface for managing swap participants.
type UserStore interface {
	// GetUser retrieves a user by their ID.
	GetUser(ctx context.Context, userID string) (*models.User, error)

	// CreateUser creates a new user record.
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)

	// DeleteUser deletes a user record.
	DeleteUser(ctx context.Context, userID string) error

	// ListUsers retrieves all users.
	ListUsers(ctx context.Context) ([]models.User, error)
}
