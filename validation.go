package auth

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/nyaruka/phonenumbers"
)

// SignupInput carries the fields a new principal is created from.
type SignupInput struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Name       string `json:"name"`
	Username   string `json:"username,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
	ReferredBy string `json:"referred_by,omitempty"`
	// UseHashID derives the user id deterministically from the email
	// instead of generating a fresh one.
	UseHashID bool `json:"-"`
}

// Validate checks the signup payload before any store round-trip.
func (in SignupInput) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Password, validation.Required, validation.Length(8, 0)),
		validation.Field(&in.Name, validation.Required),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid signup input").
			WithCode(goerrors.CodeBadRequest)
	}

	if in.Phone != "" {
		if err := validatePhone(in.Phone); err != nil {
			return err
		}
	}
	return nil
}

func validatePhone(phone string) error {
	parsed, err := phonenumbers.Parse(phone, "")
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid phone number").
			WithCode(goerrors.CodeBadRequest)
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return goerrors.New("invalid phone number", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}
	return nil
}
