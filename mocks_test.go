package auth_test

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	auth "github.com/meridianvest/go-auth"
	"github.com/stretchr/testify/mock"
)

// MockRecordStore implements auth.RecordStore
type MockRecordStore struct {
	mock.Mock
}

func (m *MockRecordStore) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	return userArg(args.Get(0)), args.Error(1)
}

func (m *MockRecordStore) FindByUsername(ctx context.Context, username string) (*auth.User, error) {
	args := m.Called(ctx, username)
	return userArg(args.Get(0)), args.Error(1)
}

func (m *MockRecordStore) FindByID(ctx context.Context, id string) (*auth.User, error) {
	args := m.Called(ctx, id)
	return userArg(args.Get(0)), args.Error(1)
}

func (m *MockRecordStore) FindByReferralCode(ctx context.Context, code string) (*auth.User, error) {
	args := m.Called(ctx, code)
	return userArg(args.Get(0)), args.Error(1)
}

func (m *MockRecordStore) Insert(ctx context.Context, record *auth.User) (*auth.User, error) {
	args := m.Called(ctx, record)
	return userArg(args.Get(0)), args.Error(1)
}

func (m *MockRecordStore) Update(ctx context.Context, id string, record *auth.User) (*auth.User, error) {
	args := m.Called(ctx, id, record)
	return userArg(args.Get(0)), args.Error(1)
}

func (m *MockRecordStore) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockRecordStore) TrackSuccessfulLogin(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func userArg(v any) *auth.User {
	if v == nil {
		return nil
	}
	return v.(*auth.User)
}

func notFoundErr(msg string) error {
	return goerrors.New(msg, goerrors.CategoryNotFound).
		WithCode(goerrors.CodeNotFound)
}

// capturingSink records activity events for assertions.
type capturingSink struct {
	events []auth.ActivityEvent
}

func (c *capturingSink) Record(ctx context.Context, evt auth.ActivityEvent) error {
	c.events = append(c.events, evt)
	return nil
}

func (c *capturingSink) has(eventType auth.ActivityEventType) bool {
	for _, evt := range c.events {
		if evt.EventType == eventType {
			return true
		}
	}
	return false
}

type silentLogger struct{}

func (silentLogger) Debug(string, ...any) {}
func (silentLogger) Info(string, ...any)  {}
func (silentLogger) Error(string, ...any) {}
