package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email    string `json:"email" validate:"loose_email"`
	Phone    string `json:"phone" validate:"omitempty,phone"`
	Code     string `json:"code" validate:"otp" msg:"code must have six digits"`
	Age      int    `json:"age" validate:"gte=18"`
	Password string `json:"password" validate:"min=6"`
	Confirm  string `json:"confirmPassword" validate:"eqfield=Password"`
}

func valid() sample {
	return sample{
		Email:    "jane@example.org",
		Phone:    "+14155550100",
		Code:     "123456",
		Age:      30,
		Password: "secret1",
		Confirm:  "secret1",
	}
}

func TestStruct_Valid(t *testing.T) {
	s := valid()
	require.NoError(t, Struct(&s))
}

func TestStruct_Messages(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*sample)
		field   string
		summary string
	}{
		{"bad email", func(s *sample) { s.Email = "jane@example" }, "email", "please enter a valid email address"},
		{"bad phone", func(s *sample) { s.Phone = "0123" }, "phone", "please enter a valid phone number"},
		{"custom msg", func(s *sample) { s.Code = "12345" }, "code", "code must have six digits"},
		{"underage", func(s *sample) { s.Age = 17 }, "age", "age must be at least 18"},
		{"short password", func(s *sample) { s.Password, s.Confirm = "abc", "abc" }, "password", "password must be at least 6 characters"},
		{"mismatch", func(s *sample) { s.Confirm = "other1" }, "confirmPassword", "confirmPassword must match password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(&s)
			err := Struct(&s)
			require.Error(t, err)

			var verr *Error
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.summary, verr.Error())
			assert.Contains(t, verr.Fields(), tt.field)
			assert.True(t, verr.Validation())
		})
	}
}

func TestPatterns(t *testing.T) {
	assert.True(t, Email("a@b.co"))
	assert.False(t, Email("a b@c.d"))
	assert.False(t, Email("a@b"))

	assert.True(t, Phone("14155550100"))
	assert.True(t, Phone("+447700900123"))
	assert.False(t, Phone("+0123456"))
	assert.False(t, Phone("+1234567890123456"))

	assert.True(t, OTP("000000"))
	assert.False(t, OTP("12345"))
	assert.False(t, OTP("12345a"))
	assert.False(t, OTP("1234567"))
}

func TestStructExcept(t *testing.T) {
	s := valid()
	s.Code = ""
	require.Error(t, Struct(s))
	assert.NoError(t, StructExcept(s, "Code"))

	s.Age = 17
	err := StructExcept(s, "Code")
	require.Error(t, err)
	assert.Equal(t, "age must be at least 18", err.Error())
}
