package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validSignup() *SignupRequest {
	return &SignupRequest{
		Email:           "new-user@example.com",
		Password:        "passw0rd",
		ConfirmPassword: "passw0rd",
		Name:            "New User",
	}
}

func TestSignupRequestValidate(t *testing.T) {
	assert.NoError(t, validSignup().Validate())

	tests := []struct {
		name   string
		mutate func(req *SignupRequest)
	}{
		{"missing email", func(req *SignupRequest) { req.Email = "" }},
		{"malformed email", func(req *SignupRequest) { req.Email = "nope" }},
		{"short password", func(req *SignupRequest) { req.Password = "a1"; req.ConfirmPassword = "a1" }},
		{"password without digit", func(req *SignupRequest) { req.Password = "password"; req.ConfirmPassword = "password" }},
		{"password without letter", func(req *SignupRequest) { req.Password = "12345678"; req.ConfirmPassword = "12345678" }},
		{"confirm mismatch", func(req *SignupRequest) { req.ConfirmPassword = "passw0rd2" }},
		{"missing name", func(req *SignupRequest) { req.Name = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validSignup()
			tt.mutate(req)
			assert.Error(t, req.Validate())
		})
	}
}
