package auth

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// RecordStore is the remote persistence collaborator the auth core
// consumes. Lookup misses return a not-found error (see IsNotFound)
// distinct from infrastructure failures.
type RecordStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	FindByReferralCode(ctx context.Context, code string) (*User, error)
	Insert(ctx context.Context, record *User) (*User, error)
	// Update applies the non-zero fields of record to the stored row.
	Update(ctx context.Context, id string, record *User) (*User, error)
	// ReferralCodeExists reports whether code is held by any principal
	// with an unexpired window.
	ReferralCodeExists(ctx context.Context, code string) (bool, error)
	// TrackSuccessfulLogin stamps the login time and resets the attempt
	// counter, which a partial non-zero update cannot zero out.
	TrackSuccessfulLogin(ctx context.Context, id string) error
}

// Identity holds the attributes of an authenticated identity
type Identity interface {
	ID() string
	Username() string
	Email() string
	Role() UserRole
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
