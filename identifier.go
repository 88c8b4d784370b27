package auth

import (
	"context"
	"crypto/rand"
	"io"
	"strings"
	"time"

	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

const (
	// ReferralCodeLength is the fixed code length.
	ReferralCodeLength = 8
	// ReferralCodeAlphabet excludes visually confusable characters:
	// no 0/O, no 1/I.
	ReferralCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	// ReferralCodeMaxAttempts bounds the uniqueness retry loop.
	ReferralCodeMaxAttempts = 12
	// DefaultReferralWindowDays is the validity window when the caller
	// does not specify one.
	DefaultReferralWindowDays = 30

	referralPrefixLength = 2
	referralPrefixFiller = "X"
)

// GenerateUserID produces a sortable, collision-resistant id combining a
// monotonic time component with randomness. Collisions are treated as
// negligible; the store's uniqueness constraint is the final backstop.
func GenerateUserID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.New().String()
}

// UserIDFromEmail derives a deterministic id from the email address.
func UserIDFromEmail(email string) (string, error) {
	id, err := hashid.NewUUID(email)
	if err != nil {
		return "", WrapInfrastructure(err, "failed to derive user id from email")
	}
	return id.String(), nil
}

// ExistsFunc answers whether a referral code is already taken. The check
// is advisory under concurrency; the record store's own constraint is the
// authoritative backstop against races.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// ReferralCode is a short, time-bounded code used to attribute signups
// to a referring principal.
type ReferralCode struct {
	Code      string    `json:"code"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Active reports whether the code is valid strictly before its expiry.
func (rc ReferralCode) Active(at time.Time) bool {
	return at.Before(rc.ExpiresAt)
}

// CodeGenerator issues referral codes with a bounded uniqueness loop.
type CodeGenerator struct {
	exists     ExistsFunc
	windowDays int
	now        func() time.Time
	random     io.Reader
}

// CodeGeneratorOption customizes code generation.
type CodeGeneratorOption func(*CodeGenerator)

// WithCodeWindowDays overrides the validity window.
func WithCodeWindowDays(days int) CodeGeneratorOption {
	return func(g *CodeGenerator) {
		if days > 0 {
			g.windowDays = days
		}
	}
}

// WithCodeClock injects a custom clock (useful for tests).
func WithCodeClock(clock func() time.Time) CodeGeneratorOption {
	return func(g *CodeGenerator) {
		if clock != nil {
			g.now = clock
		}
	}
}

// WithCodeRandom overrides the randomness source.
func WithCodeRandom(r io.Reader) CodeGeneratorOption {
	return func(g *CodeGenerator) {
		if r != nil {
			g.random = r
		}
	}
}

// NewCodeGenerator returns a generator backed by the given existence
// predicate.
func NewCodeGenerator(exists ExistsFunc, opts ...CodeGeneratorOption) *CodeGenerator {
	g := &CodeGenerator{
		exists:     exists,
		windowDays: DefaultReferralWindowDays,
		now:        time.Now,
		random:     rand.Reader,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Generate issues a fresh referral code. The seed hint contributes a
// two character prefix; the remainder is random. Each candidate is
// checked against the existence predicate, retrying with a fresh suffix
// up to ReferralCodeMaxAttempts before failing with
// ErrReferralCodeExhausted. A colliding code is never returned.
func (g *CodeGenerator) Generate(ctx context.Context, seedHint string) (ReferralCode, error) {
	prefix := codePrefix(seedHint)

	for attempt := 0; attempt < ReferralCodeMaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ReferralCode{}, WrapInfrastructure(ctx.Err(), "context cancelled during code generation")
		default:
		}

		suffix, err := g.randomCodeChars(ReferralCodeLength - len(prefix))
		if err != nil {
			return ReferralCode{}, err
		}
		code := prefix + suffix

		taken, err := g.exists(ctx, code)
		if err != nil {
			return ReferralCode{}, WrapInfrastructure(err, "failed to check referral code availability")
		}
		if taken {
			continue
		}

		issued := g.now()
		return ReferralCode{
			Code:      code,
			IssuedAt:  issued,
			ExpiresAt: issued.AddDate(0, 0, g.windowDays),
		}, nil
	}

	return ReferralCode{}, ErrReferralCodeExhausted
}

func (g *CodeGenerator) randomCodeChars(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(g.random, buf); err != nil {
		return "", WrapInfrastructure(err, "failed to read randomness for referral code")
	}

	out := make([]byte, n)
	for i, b := range buf {
		// alphabet length is 32 so masking keeps the draw uniform
		out[i] = ReferralCodeAlphabet[int(b)&31]
	}
	return string(out), nil
}

// codePrefix sanitizes the seed hint to the code alphabet, uppercased,
// right-padded with the filler when shorter than the prefix length.
func codePrefix(seedHint string) string {
	upper := strings.ToUpper(seedHint)

	var b strings.Builder
	for _, r := range upper {
		if b.Len() == referralPrefixLength {
			break
		}
		if strings.ContainsRune(ReferralCodeAlphabet, r) {
			b.WriteRune(r)
		}
	}

	prefix := b.String()
	for len(prefix) < referralPrefixLength {
		prefix += referralPrefixFiller
	}
	return prefix
}
