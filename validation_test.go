package auth_test

import (
	"testing"

	auth "github.com/meridianvest/go-auth"
	"github.com/stretchr/testify/assert"
)

func TestSignupInputValidate(t *testing.T) {
	valid := auth.SignupInput{
		Email:    "peggy@example.com",
		Password: "long-enough-pass",
		Name:     "Peggy Flores",
	}

	tests := []struct {
		name    string
		mutate  func(*auth.SignupInput)
		wantErr bool
	}{
		{name: "valid input", mutate: func(*auth.SignupInput) {}},
		{name: "missing email", mutate: func(in *auth.SignupInput) { in.Email = "" }, wantErr: true},
		{name: "malformed email", mutate: func(in *auth.SignupInput) { in.Email = "not-an-email" }, wantErr: true},
		{name: "missing password", mutate: func(in *auth.SignupInput) { in.Password = "" }, wantErr: true},
		{name: "short password", mutate: func(in *auth.SignupInput) { in.Password = "short12" }, wantErr: true},
		{name: "missing name", mutate: func(in *auth.SignupInput) { in.Name = "" }, wantErr: true},
		{name: "valid phone", mutate: func(in *auth.SignupInput) { in.Phone = "+14155552671" }},
		{name: "invalid phone", mutate: func(in *auth.SignupInput) { in.Phone = "+1555" }, wantErr: true},
		{name: "phone without country code", mutate: func(in *auth.SignupInput) { in.Phone = "4155552671" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			err := in.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
