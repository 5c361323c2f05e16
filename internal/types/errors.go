package types

import (
	"errors"
	"fmt"
)

// Fault classifies a handler failure. The router reports the class alongside
// the message so the popup can route locked-wallet errors to the unlock
// prompt instead of a generic banner.
type Fault string

const (
	FaultInvalidCredentials Fault = "invalid_credentials"
	FaultWalletLocked       Fault = "wallet_locked"
	FaultUnauthorized       Fault = "unauthorized"
	FaultUserRejected       Fault = "user_rejected"
	FaultUnsupportedMethod  Fault = "unsupported_method"
	FaultValidation         Fault = "validation"
	FaultEngine             Fault = "engine_failure"
	FaultStore              Fault = "store_failure"
	FaultNotFound           Fault = "not_found"
	FaultInternal           Fault = "internal"
)

// WalletError is the internal failure type carried between components.
// It never crosses the DApp boundary directly; see ToRPCError.
type WalletError struct {
	Fault   Fault
	Message string
}

func (e *WalletError) Error() string { return e.Message }

// NewError builds a classified error.
func NewError(fault Fault, format string, args ...interface{}) *WalletError {
	return &WalletError{Fault: fault, Message: fmt.Sprintf(format, args...)}
}

// FaultOf extracts the fault class, defaulting to FaultInternal.
func FaultOf(err error) Fault {
	var we *WalletError
	if errors.As(err, &we) {
		return we.Fault
	}
	var re *RPCError
	if errors.As(err, &re) {
		return re.fault()
	}
	return FaultInternal
}

// RPC error codes exposed to DApps. 4xxx values follow the provider
// convention the original extension used; -32602 is the JSON-RPC invalid
// params code.
const (
	CodeUserRejected      = 4001
	CodeUnauthorized      = 4100
	CodeUnsupportedMethod = 4200
	CodeDisconnected      = 4900
	CodeInvalidParams     = -32602
)

// RPCError is the normalized numeric-coded failure shape crossing the
// DApp-facing boundary. Third-party pages never observe internal shapes.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// NewRPCError builds an RPC-boundary error.
func NewRPCError(code int, format string, args ...interface{}) *RPCError {
	return &RPCError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ToRPCError normalizes any internal failure into the numeric code space.
// Timeout-based and explicit rejections map to the same code on purpose:
// either way the privileged action did not happen.
func ToRPCError(err error) *RPCError {
	var re *RPCError
	if errors.As(err, &re) {
		return re
	}
	var we *WalletError
	if errors.As(err, &we) {
		switch we.Fault {
		case FaultUserRejected:
			return &RPCError{Code: CodeUserRejected, Message: we.Message}
		case FaultUnauthorized, FaultWalletLocked, FaultInvalidCredentials:
			return &RPCError{Code: CodeUnauthorized, Message: we.Message}
		case FaultUnsupportedMethod:
			return &RPCError{Code: CodeUnsupportedMethod, Message: we.Message}
		case FaultValidation:
			return &RPCError{Code: CodeInvalidParams, Message: we.Message}
		}
	}
	return &RPCError{Code: CodeDisconnected, Message: err.Error()}
}

func (e *RPCError) fault() Fault {
	switch e.Code {
	case CodeUserRejected:
		return FaultUserRejected
	case CodeUnauthorized:
		return FaultUnauthorized
	case CodeUnsupportedMethod:
		return FaultUnsupportedMethod
	case CodeInvalidParams:
		return FaultValidation
	default:
		return FaultEngine
	}
}
