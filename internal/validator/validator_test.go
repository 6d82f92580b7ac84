package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierr "iva-service/internal/errors"
)

type closeRequest struct {
	CompanyCUIT string `validate:"required"`
	Period      string `validate:"required,period"`
}

func TestValidateRequest(t *testing.T) {
	require.NoError(t, ValidateRequest(&closeRequest{CompanyCUIT: "30-1", Period: "2024-03"}))

	err := ValidateRequest(&closeRequest{CompanyCUIT: "30-1", Period: "2024-13"})
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
	assert.Contains(t, err.Error(), "Period")

	err = ValidateRequest(&closeRequest{})
	assert.Contains(t, err.Error(), "(2 problems)")
}

func TestIsPeriod(t *testing.T) {
	assert.True(t, IsPeriod("2024-01"))
	assert.True(t, IsPeriod("1999-12"))
	assert.False(t, IsPeriod("2024-00"))
	assert.False(t, IsPeriod("03/2024"))
	assert.False(t, IsPeriod(""))
}
