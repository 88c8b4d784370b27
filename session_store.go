package auth

import (
	"context"
	"encoding/json"
)

// SessionScope is one of the two key-value persistence layers a session
// lives in: a durable scope surviving restarts and a transient scope
// bound to the process lifetime. Absent entries surface as the typed
// not-found value, never as an infrastructure error.
type SessionScope interface {
	Get(ctx context.Context) ([]byte, error)
	Set(ctx context.Context, value []byte) error
	Delete(ctx context.Context) error
}

// SessionStore keeps the durable and transient scopes consistent. All
// reads and writes of either scope go through it; no other component
// touches the scopes directly.
type SessionStore struct {
	durable   SessionScope
	transient SessionScope
	logger    Logger
}

// SessionStoreOption customizes the store.
type SessionStoreOption func(*SessionStore)

// WithSessionStoreLogger overrides the store's logger.
func WithSessionStoreLogger(l Logger) SessionStoreOption {
	return func(s *SessionStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSessionStore builds a store over the two scopes.
func NewSessionStore(durable, transient SessionScope, opts ...SessionStoreOption) *SessionStore {
	s := &SessionStore{
		durable:   durable,
		transient: transient,
		logger:    defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Save writes the session to both scopes. A durable write failure is an
// infrastructure error; the transient scope is still attempted so the
// two cannot silently drift.
func (s *SessionStore) Save(ctx context.Context, session *SessionObject) error {
	if session == nil {
		return s.Clear(ctx)
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return WrapInfrastructure(err, "failed to encode session")
	}

	durableErr := s.durable.Set(ctx, payload)
	transientErr := s.transient.Set(ctx, payload)

	if durableErr != nil {
		return WrapInfrastructure(durableErr, "failed to persist session to durable scope")
	}
	if transientErr != nil {
		return WrapInfrastructure(transientErr, "failed to persist session to transient scope")
	}
	return nil
}

// Load returns the stored session, preferring the durable scope and
// falling back to the transient one. ErrSessionNotFound when neither
// scope holds an entry.
func (s *SessionStore) Load(ctx context.Context) (*SessionObject, error) {
	payload, err := s.durable.Get(ctx)
	if err != nil {
		if !IsNotFound(err) {
			return nil, WrapInfrastructure(err, "failed to read session from durable scope")
		}
		if payload, err = s.transient.Get(ctx); err != nil {
			if IsNotFound(err) {
				return nil, ErrSessionNotFound
			}
			return nil, WrapInfrastructure(err, "failed to read session from transient scope")
		}
	}

	session := &SessionObject{}
	if err := json.Unmarshal(payload, session); err != nil {
		// A corrupt entry is unrecoverable; drop it rather than hand
		// callers a half-decoded session.
		if clearErr := s.Clear(ctx); clearErr != nil {
			s.logger.Error("failed to clear corrupt session: %v", clearErr)
		}
		return nil, WrapInfrastructure(err, "failed to decode stored session")
	}
	return session, nil
}

// Clear removes the session from both scopes. Idempotent: clearing an
// absent session is not an error.
func (s *SessionStore) Clear(ctx context.Context) error {
	durableErr := s.durable.Delete(ctx)
	transientErr := s.transient.Delete(ctx)

	if durableErr != nil && !IsNotFound(durableErr) {
		return WrapInfrastructure(durableErr, "failed to clear durable session scope")
	}
	if transientErr != nil && !IsNotFound(transientErr) {
		return WrapInfrastructure(transientErr, "failed to clear transient session scope")
	}
	return nil
}
