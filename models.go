package auth

import (
	"time"

	"github.com/uptrace/bun"
)

// User is the principal model. IDs are time-sortable UUIDv7 strings so
// the store's primary index keeps insertion order.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID           string   `bun:"id,pk" json:"id,omitempty"`
	Role         UserRole `bun:"user_role,notnull" json:"user_role,omitempty"`
	Name         string   `bun:"name,notnull" json:"name,omitempty"`
	Username     string   `bun:"username,unique,nullzero" json:"username,omitempty"`
	Email        string   `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone        string   `bun:"phone_number" json:"phone_number,omitempty"`
	Avatar       string   `bun:"avatar" json:"avatar,omitempty"`
	PasswordHash string   `bun:"password_hash" json:"-"`

	Balance       float64 `bun:"balance" json:"balance"`
	Bonus         float64 `bun:"bonus" json:"bonus"`
	ReferralCount int     `bun:"referral_count" json:"referral_count"`
	ReferralBonus float64 `bun:"referral_bonus" json:"referral_bonus"`

	ReferralCode          *string    `bun:"referral_code,nullzero" json:"referral_code,omitempty"`
	ReferralCodeIssuedAt  *time.Time `bun:"referral_code_issued_at,nullzero" json:"referral_code_issued_at,omitempty"`
	ReferralCodeExpiresAt *time.Time `bun:"referral_code_expires_at,nullzero" json:"referral_code_expires_at,omitempty"`
	ReferredBy            *string    `bun:"referred_by,nullzero" json:"referred_by,omitempty"`
	ReferralLevel         int        `bun:"referral_level" json:"referral_level,omitempty"`

	LoginAttempts  int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at,nullzero" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time `bun:"loggedin_at,nullzero" json:"loggedin_at,omitempty"`

	Metadata  map[string]any `bun:"metadata" json:"metadata,omitempty"`
	CreatedAt *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt *time.Time     `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// HasActiveReferralCode reports whether the user's code is set and its
// window has not elapsed at the given instant.
func (u *User) HasActiveReferralCode(at time.Time) bool {
	if u == nil || u.ReferralCode == nil || *u.ReferralCode == "" {
		return false
	}
	if u.ReferralCodeExpiresAt == nil {
		return false
	}
	return at.Before(*u.ReferralCodeExpiresAt)
}

// AddMetadata will append information to a metadata attribute
func (u *User) AddMetadata(key string, val any) *User {
	if u.Metadata == nil {
		u.Metadata = make(map[string]any)
	}
	u.Metadata[key] = val
	return u
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleUser
	}

	if record.ID == "" {
		record.ID = GenerateUserID()
	}
}
