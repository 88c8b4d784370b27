package auth

import (
	"context"
	"strings"
	"sync"
	"time"
)

// AuthState is the orchestrator's lifecycle state.
type AuthState string

const (
	StateUnauthenticated AuthState = "unauthenticated"
	StateAuthenticating  AuthState = "authenticating"
	StateAuthenticated   AuthState = "authenticated"
	StateError           AuthState = "error"
)

// MaxLoginAttempts is the maximum number of attempts a user gets
// in a period
var MaxLoginAttempts = 5

// CoolDownPeriod is the period in which we enforce a cool down
var CoolDownPeriod = "24h"

// ReferralBonusAmount is credited to a referrer per attributed signup.
var ReferralBonusAmount = 25.0

// LoginResult is the outcome surfaced to the UI layer. Success is false
// for both unknown identifiers and wrong passwords; the two are not
// distinguishable from this result.
type LoginResult struct {
	Success        bool
	RedirectTarget string
}

// Orchestrator coordinates login, signup, logout and session refresh,
// composing the credential verifier, identifier generator, role policy
// and session store. A generation counter invalidates in-flight
// round-trips when a logout arrives first, so late responses cannot
// resurrect a cleared session.
type Orchestrator struct {
	mu      sync.Mutex
	state   AuthState
	session *SessionObject
	gen     uint64

	store    RecordStore
	sessions *SessionStore
	codes    *CodeGenerator
	logger   Logger
	sink     ActivitySink
	notifier Notifier
	now      func() time.Time
}

// OrchestratorOption customizes the orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithLogger overrides the orchestrator's logger.
func WithLogger(l Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithActivitySink sets the sink receiving audit events.
func WithActivitySink(sink ActivitySink) OrchestratorOption {
	return func(o *Orchestrator) {
		o.sink = normalizeActivitySink(sink)
	}
}

// WithNotifier sets the fire-and-forget notification channel.
func WithNotifier(n Notifier) OrchestratorOption {
	return func(o *Orchestrator) {
		o.notifier = normalizeNotifier(n)
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		if clock != nil {
			o.now = clock
		}
	}
}

// WithCodeGenerator overrides the referral code generator.
func WithCodeGenerator(g *CodeGenerator) OrchestratorOption {
	return func(o *Orchestrator) {
		if g != nil {
			o.codes = g
		}
	}
}

// NewOrchestrator builds an orchestrator over the record store and
// session store. The referral generator defaults to one backed by the
// store's availability check.
func NewOrchestrator(store RecordStore, sessions *SessionStore, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		state:    StateUnauthenticated,
		store:    store,
		sessions: sessions,
		logger:   defLogger{},
		sink:     noopActivitySink{},
		notifier: noopNotifier{},
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.codes == nil {
		o.codes = NewCodeGenerator(store.ReferralCodeExists)
	}
	return o
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() AuthState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Current returns a snapshot of the cached session, or nil.
func (o *Orchestrator) Current() *SessionObject {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session.Clone()
}

// Bootstrap loads any persisted session on process start. The state is
// authenticating while the load runs, then authenticated when a cached
// session exists, unauthenticated otherwise. A loaded session is
// opportunistically refreshed.
func (o *Orchestrator) Bootstrap(ctx context.Context) {
	g := o.beginAuth()

	session, err := o.sessions.Load(ctx)
	if err != nil {
		if !IsNotFound(err) {
			o.logger.Error("failed to load persisted session: %v", err)
		}
		o.settle(g, StateUnauthenticated)
		return
	}

	o.commitSession(ctx, g, session, false)

	if err := o.Refresh(ctx); err != nil {
		o.logger.Error("bootstrap refresh failed: %v", err)
	}
}

// Login resolves the identifier by email first, then by username, and
// verifies the password. Unknown identifier and wrong password return
// the same unsuccessful result with a nil error. On success the session
// is written to both scopes and the redirect target is the role's
// default route.
func (o *Orchestrator) Login(ctx context.Context, identifier, password string) (LoginResult, error) {
	g := o.beginAuth()

	user, err := o.resolveIdentifier(ctx, identifier)
	if err != nil {
		if IsNotFound(err) {
			o.recordLoginFailure(ctx, g, identifier)
			return LoginResult{}, nil
		}
		o.settle(g, StateError)
		return LoginResult{}, WrapInfrastructure(err, "failed to resolve login identifier")
	}

	if user.LoginAttemptAt != nil {
		expired, err := IsOutsideThresholdPeriod(*user.LoginAttemptAt, CoolDownPeriod)
		if err != nil {
			o.settle(g, StateError)
			return LoginResult{}, WrapInfrastructure(err, "failed to calculate login attempt cooldown")
		}
		if expired {
			user.LoginAttempts = 0
		}
	}

	if user.LoginAttempts > MaxLoginAttempts {
		o.settle(g, StateUnauthenticated)
		return LoginResult{}, ErrTooManyLoginAttempts
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if IsInfrastructureError(err) {
			o.settle(g, StateError)
			return LoginResult{}, err
		}
		o.trackAttemptedLogin(ctx, user)
		o.recordLoginFailure(ctx, g, identifier)
		return LoginResult{}, nil
	}

	session := NewSessionFromUser(user)
	redirect := session.DefaultRoute()

	if !o.commitSession(ctx, g, session, true) {
		// A logout won the race; the cleared session stays cleared.
		o.logger.Info("discarding stale login response for user %s", user.ID)
		return LoginResult{}, nil
	}

	o.trackSuccessfulLogin(ctx, user)
	o.record(ctx, ActivityEventLoginSuccess, user.ID, user.Role, nil)

	return LoginResult{Success: true, RedirectTarget: redirect}, nil
}

// Signup creates a new principal. The email must not already resolve;
// numeric fields start at zero; the initial referral code is best-effort
// and its failure never aborts the signup. The created principal's
// session is written and the principal returned.
func (o *Orchestrator) Signup(ctx context.Context, input SignupInput) (*User, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	g := o.beginAuth()

	if _, err := o.store.FindByEmail(ctx, input.Email); err == nil {
		o.settle(g, StateUnauthenticated)
		return nil, ErrDuplicateEmail
	} else if !IsNotFound(err) {
		o.settle(g, StateError)
		return nil, WrapInfrastructure(err, "failed to check email availability")
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		o.settle(g, StateUnauthenticated)
		return nil, err
	}

	id := GenerateUserID()
	if input.UseHashID {
		if derived, err := UserIDFromEmail(input.Email); err == nil {
			id = derived
		}
	}

	user := &User{
		ID:           id,
		Role:         RoleUser,
		Email:        input.Email,
		Name:         input.Name,
		Username:     getUsername(input.Username, input.Email),
		Phone:        input.Phone,
		Avatar:       input.Avatar,
		PasswordHash: hash,
	}

	if rc, err := o.codes.Generate(ctx, user.Username); err != nil {
		// Reissuable later; the principal is still created.
		o.logger.Error("initial referral code generation failed: %v", err)
	} else {
		user.ReferralCode = &rc.Code
		user.ReferralCodeIssuedAt = &rc.IssuedAt
		user.ReferralCodeExpiresAt = &rc.ExpiresAt
	}

	var referrer *User
	if input.ReferredBy != "" {
		if ref, err := o.store.FindByReferralCode(ctx, input.ReferredBy); err != nil {
			o.logger.Info("ignoring unknown referral code %s", input.ReferredBy)
		} else if !ref.HasActiveReferralCode(o.now()) {
			o.logger.Info("ignoring expired referral code %s", input.ReferredBy)
		} else {
			referrer = ref
			user.ReferredBy = &input.ReferredBy
			user.ReferralLevel = ref.ReferralLevel + 1
		}
	}

	created, err := o.store.Insert(ctx, user)
	if err != nil {
		o.settle(g, StateError)
		return nil, WrapInfrastructure(err, "failed to create user")
	}

	if referrer != nil {
		if _, err := o.CreditReferral(ctx, input.ReferredBy); err != nil {
			o.logger.Error("failed to credit referral %s: %v", input.ReferredBy, err)
		}
	}

	o.commitSession(ctx, g, NewSessionFromUser(created), true)
	o.record(ctx, ActivityEventSignup, created.ID, created.Role, nil)
	o.notifyAsync(ctx, Notification{
		Kind:   NotificationWelcome,
		UserID: created.ID,
		Email:  created.Email,
		Name:   created.Name,
	})

	return created, nil
}

// Logout clears the session in both storage scopes and resets the
// in-memory state. Idempotent. Any in-flight login round-trip started
// before this call is invalidated and its late response discarded.
func (o *Orchestrator) Logout(ctx context.Context) error {
	o.mu.Lock()
	o.gen++
	hadSession := o.session
	o.session = nil
	o.state = StateUnauthenticated
	err := o.sessions.Clear(ctx)
	o.mu.Unlock()

	if hadSession != nil {
		o.record(ctx, ActivityEventLogout, hadSession.UserID, hadSession.Role, nil)
	}
	return err
}

// Refresh re-fetches the canonical principal for the cached session and
// overwrites the cache. A store or network failure keeps the existing
// session; it is never treated as a logout. A principal that no longer
// exists does clear the session.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	o.mu.Lock()
	cached := o.session
	g := o.gen
	o.mu.Unlock()

	if cached == nil {
		return nil
	}

	user, err := o.store.FindByID(ctx, cached.UserID)
	if err != nil {
		if IsNotFound(err) {
			return o.Logout(ctx)
		}
		o.logger.Error("session refresh failed, keeping cached session: %v", err)
		return nil
	}

	if o.commitSession(ctx, g, NewSessionFromUser(user), true) {
		o.record(ctx, ActivityEventSessionRefreshed, user.ID, user.Role, nil)
	}
	return nil
}

// UpdateLocal merges partial fields into the in-memory and persisted
// session without contacting the record store. Meant for optimistic UI
// updates after the store has independently confirmed a write.
func (o *Orchestrator) UpdateLocal(ctx context.Context, patch SessionPatch) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session == nil {
		return ErrSessionNotFound
	}

	o.session.apply(patch)
	return o.sessions.Save(ctx, o.session)
}

// CreditReferral resolves an active referral code to its owner and
// credits the referral count and bonus. Expired codes are rejected.
func (o *Orchestrator) CreditReferral(ctx context.Context, code string) (*User, error) {
	owner, err := o.store.FindByReferralCode(ctx, code)
	if err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, WrapInfrastructure(err, "failed to resolve referral code")
	}

	if !owner.HasActiveReferralCode(o.now()) {
		return nil, ErrReferralCodeExpired
	}

	patch := &User{
		ReferralCount: owner.ReferralCount + 1,
		ReferralBonus: owner.ReferralBonus + ReferralBonusAmount,
	}
	updated, err := o.store.Update(ctx, owner.ID, patch)
	if err != nil {
		return nil, WrapInfrastructure(err, "failed to credit referral")
	}

	o.record(ctx, ActivityEventReferralCredited, owner.ID, owner.Role, map[string]any{
		"code": code,
	})
	o.notifyAsync(ctx, Notification{
		Kind:   NotificationReferralCredited,
		UserID: owner.ID,
		Email:  owner.Email,
		Name:   owner.Name,
	})

	return updated, nil
}

// ReissueReferralCode issues a fresh code with a new validity window for
// the given principal, replacing any previous code.
func (o *Orchestrator) ReissueReferralCode(ctx context.Context, userID string) (ReferralCode, error) {
	user, err := o.store.FindByID(ctx, userID)
	if err != nil {
		if IsNotFound(err) {
			return ReferralCode{}, err
		}
		return ReferralCode{}, WrapInfrastructure(err, "failed to load user for code reissue")
	}

	rc, err := o.codes.Generate(ctx, user.Username)
	if err != nil {
		return ReferralCode{}, err
	}

	patch := &User{
		ReferralCode:          &rc.Code,
		ReferralCodeIssuedAt:  &rc.IssuedAt,
		ReferralCodeExpiresAt: &rc.ExpiresAt,
	}
	if _, err := o.store.Update(ctx, user.ID, patch); err != nil {
		return ReferralCode{}, WrapInfrastructure(err, "failed to persist reissued referral code")
	}

	o.record(ctx, ActivityEventReferralReissued, user.ID, user.Role, map[string]any{
		"expires_at": rc.ExpiresAt,
	})

	return rc, nil
}

func (o *Orchestrator) resolveIdentifier(ctx context.Context, identifier string) (*User, error) {
	user, err := o.store.FindByEmail(ctx, identifier)
	if err == nil {
		return user, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}
	return o.store.FindByUsername(ctx, identifier)
}

// beginAuth marks the start of an authentication round-trip and returns
// the generation it belongs to.
func (o *Orchestrator) beginAuth() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = StateAuthenticating
	return o.gen
}

// settle moves to the given state unless a newer generation superseded
// the round-trip.
func (o *Orchestrator) settle(g uint64, state AuthState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if g != o.gen {
		return
	}
	o.state = state
}

// commitSession installs the session if the round-trip's generation is
// still current, optionally persisting to both scopes. Returns false
// when the response arrived stale.
func (o *Orchestrator) commitSession(ctx context.Context, g uint64, session *SessionObject, persist bool) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if g != o.gen {
		return false
	}

	o.session = session
	o.state = StateAuthenticated

	if persist {
		if err := o.sessions.Save(ctx, session); err != nil {
			o.logger.Error("failed to persist session: %v", err)
		}
	}
	return true
}

func (o *Orchestrator) recordLoginFailure(ctx context.Context, g uint64, identifier string) {
	o.settle(g, StateUnauthenticated)
	o.record(ctx, ActivityEventLoginFailure, "", "", map[string]any{
		"identifier": identifier,
	})
}

func (o *Orchestrator) trackAttemptedLogin(ctx context.Context, user *User) {
	now := o.now()
	patch := &User{
		LoginAttempts:  user.LoginAttempts + 1,
		LoginAttemptAt: &now,
	}
	if _, err := o.store.Update(ctx, user.ID, patch); err != nil {
		o.logger.Error("failed to track login attempt: %v", err)
	}
}

func (o *Orchestrator) trackSuccessfulLogin(ctx context.Context, user *User) {
	if err := o.store.TrackSuccessfulLogin(ctx, user.ID); err != nil {
		o.logger.Error("failed to track successful login: %v", err)
	}
}

func (o *Orchestrator) record(ctx context.Context, event ActivityEventType, userID string, role UserRole, meta map[string]any) {
	evt := ActivityEvent{
		EventType:  event,
		UserID:     userID,
		Role:       role,
		Metadata:   meta,
		OccurredAt: o.now(),
	}
	if err := o.sink.Record(ctx, evt); err != nil {
		o.logger.Error("failed to record activity event %s: %v", event, err)
	}
}

// notifyAsync dispatches fire-and-forget; no auth operation awaits
// delivery confirmation.
func (o *Orchestrator) notifyAsync(ctx context.Context, n Notification) {
	go func() {
		if err := o.notifier.Notify(context.WithoutCancel(ctx), n); err != nil {
			o.logger.Error("failed to dispatch %s notification: %v", n.Kind, err)
		}
	}()
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}
