package vmerrors

import (
	"errors"
	"strings"
)

// Machine (V) Errors
var (
	ErrInvalidOpcode   = errors.New("V1|InvalidOpcode: Opcode descriptor is not in the instruction table or carries an unknown parameter mode.")
	ErrInvalidAddress  = errors.New("V2|InvalidAddress: Resolved address is negative or an immediate parameter was used as a write target.")
	ErrInputExhausted  = errors.New("V3|InputExhausted: Input driver has no more values to supply.")
	ErrChannelClosed   = errors.New("V4|ChannelClosed: Channel endpoint is disconnected.")
	ErrInvalidProgram  = errors.New("C1|InvalidProgram: Program text is not a comma-separated list of base-10 integers.")
	ErrUnknownProgram  = errors.New("C2|UnknownProgram: Program is neither an embedded sample nor a readable file.")
	ErrInvalidConfig   = errors.New("C3|InvalidConfig: Configuration value is out of range.")
	ErrNoPhaseSettings = errors.New("P1|NoPhaseSettings: Amplifier chain needs at least one phase setting.")
	ErrNoSignal        = errors.New("P2|NoSignal: Amplifier chain halted without producing a signal.")
)

// Network (N) Errors
var (
	ErrNetworkStopped = errors.New("N1|NetworkStopped: Network simulation finished; no further packets are delivered.")
	ErrNoNATPacket    = errors.New("N2|NoNATPacket: Network halted before the NAT produced an answer.")
)

var catalogue = []error{
	ErrInvalidOpcode,
	ErrInvalidAddress,
	ErrInputExhausted,
	ErrChannelClosed,
	ErrInvalidProgram,
	ErrUnknownProgram,
	ErrInvalidConfig,
	ErrNoPhaseSettings,
	ErrNoSignal,
	ErrNetworkStopped,
	ErrNoNATPacket,
}

// Lookup returns the catalogue sentinel wrapped by err, or err itself
// when it wraps none of them.
func Lookup(err error) error {
	for _, sentinel := range catalogue {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return err
}

// GetErrorName extracts the error name from the error message.
func GetErrorName(err error) string {
	if err == nil {
		return "No Error"
	}
	errStr := Lookup(err).Error()
	if !strings.Contains(errStr, "|") || !strings.Contains(errStr, ":") {
		return errStr
	}
	parts := strings.SplitN(errStr, "|", 2)
	if len(parts) < 2 {
		return errStr
	}
	nameParts := strings.SplitN(parts[1], ":", 2)
	return strings.TrimSpace(nameParts[0])
}

// GetErrorCode extracts the error code from the error message.
func GetErrorCode(err error) string {
	if err == nil {
		return ""
	}
	errStr := Lookup(err).Error()
	if !strings.Contains(errStr, "|") {
		return ""
	}
	parts := strings.SplitN(errStr, "|", 2)
	return strings.TrimSpace(parts[0])
}

// GetErrorCodeWithName returns the error code and name in the format "Code_ErrorName".
func GetErrorCodeWithName(err error) string {
	code := GetErrorCode(err)
	name := GetErrorName(err)
	if code == "" || name == "" {
		return ""
	}
	return code + "_" + name
}

// GetErrorDesc extracts the error description from the error message.
func GetErrorDesc(err error) string {
	if err == nil {
		return ""
	}
	parts := strings.SplitN(Lookup(err).Error(), ":", 2)
	if len(parts) < 2 {
		return "DESC NOT SET"
	}
	return strings.TrimSpace(parts[1])
}
