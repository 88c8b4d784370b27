package auth

import (
	"fmt"
)

// SessionObject is the reduced, password-free projection of a principal
// cached for the current client. The type carries no password field at
// all, so no serialization path can leak one.
type SessionObject struct {
	UserID        string   `json:"user_id"`
	Email         string   `json:"email"`
	Name          string   `json:"name"`
	Username      string   `json:"username,omitempty"`
	Role          UserRole `json:"role"`
	Balance       float64  `json:"balance"`
	Bonus         float64  `json:"bonus"`
	ReferralCount int      `json:"referral_count"`
	Avatar        string   `json:"avatar,omitempty"`
}

// NewSessionFromUser projects a principal into its session form. The
// password hash never crosses this boundary.
func NewSessionFromUser(user *User) *SessionObject {
	if user == nil {
		return nil
	}
	return &SessionObject{
		UserID:        user.ID,
		Email:         user.Email,
		Name:          user.Name,
		Username:      user.Username,
		Role:          user.Role,
		Balance:       user.Balance,
		Bonus:         user.Bonus,
		ReferralCount: user.ReferralCount,
		Avatar:        user.Avatar,
	}
}

func (s *SessionObject) GetUserID() string {
	return s.UserID
}

// HasRole checks if the session holds exactly the given role.
func (s *SessionObject) HasRole(role UserRole) bool {
	return s.Role == role
}

// IsAtLeast checks if the session's role is at least the minimum
// required role. Unknown persisted roles compare below every valid role.
func (s *SessionObject) IsAtLeast(minRole UserRole) bool {
	return s.Role.IsAtLeast(minRole)
}

// Can checks the session role's permission set.
func (s *SessionObject) Can(permission Permission) bool {
	return s.Role.Can(permission)
}

// DefaultRoute returns the landing route for the session's role.
func (s *SessionObject) DefaultRoute() string {
	return s.Role.DefaultRoute()
}

// Clone returns a copy so callers can hold a snapshot without racing
// store mutations.
func (s *SessionObject) Clone() *SessionObject {
	if s == nil {
		return nil
	}
	dup := *s
	return &dup
}

// SessionPatch carries partial session updates for optimistic local
// merges; nil fields are left untouched.
type SessionPatch struct {
	Name          *string  `json:"name,omitempty"`
	Username      *string  `json:"username,omitempty"`
	Avatar        *string  `json:"avatar,omitempty"`
	Balance       *float64 `json:"balance,omitempty"`
	Bonus         *float64 `json:"bonus,omitempty"`
	ReferralCount *int     `json:"referral_count,omitempty"`
}

func (s *SessionObject) apply(patch SessionPatch) {
	if patch.Name != nil {
		s.Name = *patch.Name
	}
	if patch.Username != nil {
		s.Username = *patch.Username
	}
	if patch.Avatar != nil {
		s.Avatar = *patch.Avatar
	}
	if patch.Balance != nil {
		s.Balance = *patch.Balance
	}
	if patch.Bonus != nil {
		s.Bonus = *patch.Bonus
	}
	if patch.ReferralCount != nil {
		s.ReferralCount = *patch.ReferralCount
	}
}

func (s SessionObject) String() string {
	return fmt.Sprintf(
		"user=%s email=%s role=%s balance=%.2f referrals=%d",
		s.UserID,
		s.Email,
		s.Role,
		s.Balance,
		s.ReferralCount,
	)
}
