package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	Email  string `validate:"required,email"`
	Name   string `validate:"required,min=2,max=50"`
	Status string `validate:"omitempty,oneof=draft planned"`
}

func TestValidateStructPasses(t *testing.T) {
	errs := ValidateStruct(samplePayload{Email: "a@b.com", Name: "Jo"})
	assert.Nil(t, errs)
}

func TestValidateStructCollectsFieldErrors(t *testing.T) {
	errs := ValidateStruct(samplePayload{Email: "nope", Name: "x", Status: "archived"})
	require.Len(t, errs, 3)

	byField := map[string]string{}
	for _, fe := range errs {
		byField[fe.Field] = fe.Message
	}
	assert.Equal(t, "must be a valid email address", byField["email"])
	assert.Equal(t, "must be at least 2 characters", byField["name"])
	assert.Equal(t, "must be one of: draft planned", byField["status"])
}

func TestValidateStructRequired(t *testing.T) {
	errs := ValidateStruct(samplePayload{})
	require.Len(t, errs, 2)
	assert.Equal(t, "is required", errs[0].Message)
}
