package vmerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorNames(t *testing.T) {
	testCases := []struct {
		err  error
		code string
		name string
	}{
		{ErrInvalidOpcode, "V1", "InvalidOpcode"},
		{ErrInvalidAddress, "V2", "InvalidAddress"},
		{ErrInputExhausted, "V3", "InputExhausted"},
		{ErrChannelClosed, "V4", "ChannelClosed"},
		{ErrNetworkStopped, "N1", "NetworkStopped"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, GetErrorCode(tc.err))
			assert.Equal(t, tc.name, GetErrorName(tc.err))
			assert.Equal(t, tc.code+"_"+tc.name, GetErrorCodeWithName(tc.err))
		})
	}
}

func TestWrappedErrorNames(t *testing.T) {
	inner := fmt.Errorf("%w (opcode=42 pc=7)", ErrInvalidOpcode)
	outer := fmt.Errorf("amplifier 3: %w", inner)

	assert.True(t, errors.Is(outer, ErrInvalidOpcode))
	assert.Equal(t, "InvalidOpcode", GetErrorName(outer))
	assert.Equal(t, "V1", GetErrorCode(outer))
	assert.Equal(t, "No Error", GetErrorName(nil))
	assert.Equal(t, "Opcode descriptor is not in the instruction table or carries an unknown parameter mode.", GetErrorDesc(outer))
}

func TestUnknownError(t *testing.T) {
	err := errors.New("plain failure")
	assert.Equal(t, "plain failure", GetErrorName(err))
	assert.Equal(t, "", GetErrorCode(err))
	assert.Equal(t, "DESC NOT SET", GetErrorDesc(err))
	assert.Equal(t, "", GetErrorDesc(nil))
}
