package types

import (
	"errors"
	"fmt"
	"strings"
)

// Common SDK errors
var (
	// Parameter validation errors
	ErrNilRPC           = errors.New("rpc client is nil")
	ErrNilAPI           = errors.New("api client is nil")
	ErrNilSigner        = errors.New("signer is nil")
	ErrZeroAmount       = errors.New("amount must be greater than 0")
	ErrInvalidPercent   = errors.New("percent must be in (0, 100]")
	ErrInvalidPublicKey = errors.New("invalid public key")
	ErrInvalidPrivKey   = errors.New("invalid private key")
	ErrNoInstructions   = errors.New("requires at least one instruction")
	ErrNoTransactions   = errors.New("requires at least one transaction")
	ErrNoWalletChecked  = errors.New("no wallet checked")

	// Session errors
	ErrNotLoggedIn    = errors.New("not logged in")
	ErrNoProject      = errors.New("no current project")
	ErrProjectExpired = errors.New("project expired")

	// Account errors
	ErrAccountNotFound = errors.New("account not found")
	ErrMintNotFound    = errors.New("mint account not found")
	ErrATANotFound     = errors.New("associated token account not found")
	ErrMarketNotFound  = errors.New("market not found")
	ErrMarketExists    = errors.New("market already exists")

	// Workflow errors
	ErrSimulateFirst           = errors.New("please simulate first")
	ErrTokenAmountInsufficient = errors.New("token amount is insufficient, set a smaller SOL amount")

	// Transaction errors
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrTransactionFailed   = errors.New("transaction failed")
	ErrSimulationFailed    = errors.New("simulation failed")
	ErrConfirmationTimeout = errors.New("confirmation timeout")
	ErrSigningFailed       = errors.New("signing failed")
)

// RPCError wraps RPC failures with operation context.
type RPCError struct {
	Op  string
	Err error
}

func (e RPCError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e RPCError) Unwrap() error {
	return e.Err
}

// ValidationError represents input validation failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) ValidationError {
	return ValidationError{Field: field, Message: message}
}

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api %s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("api %s: status %d: %s", e.Op, e.Status, e.Message)
}

// Temporary reports whether the request may succeed when repeated.
func (e *APIError) Temporary() bool {
	return e.Status == 429 || e.Status >= 500
}

// EventError is a push notification that reported failure.
type EventError struct {
	Tag     string
	Message string
}

func (e *EventError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s failed", e.Tag)
	}
	return fmt.Sprintf("%s failed: %s", e.Tag, e.Message)
}

// ProgramError represents on-chain program execution errors.
type ProgramError struct {
	Program string
	Code    int
	Message string
	Logs    []string
}

func (e ProgramError) Error() string {
	return fmt.Sprintf("program %s error [%d]: %s", e.Program, e.Code, e.Message)
}

// SimulationError contains simulation failure details.
type SimulationError struct {
	Err  interface{}
	Logs []string
}

func (e SimulationError) Error() string {
	return fmt.Sprintf("simulation failed: %v", e.Err)
}

// splTokenErrors mirrors spl_token::error::TokenError.
var splTokenErrors = []string{
	"Lamport balance below rent-exempt threshold",
	"Insufficient funds",
	"Invalid Mint",
	"Account not associated with this Mint",
	"Owner does not match",
	"Fixed supply",
	"Already in use",
	"Invalid number of provided signers",
	"Invalid number of required signers",
	"State is unititialized",
	"Instruction does not support native tokens",
	"Non-native account can only be closed if its balance is zero",
	"Invalid instruction",
	"State is invalid for requested operation",
	"Operation overflowed",
	"Account does not support specified authority type",
	"This token mint cannot freeze accounts",
	"Account is frozen",
	"The provided decimals value different from the Mint decimals",
	"Instruction does not support non-native tokens",
}

// ParseTokenError converts an SPL token program error code to a friendly error.
func ParseTokenError(code int) error {
	if code >= 0 && code < len(splTokenErrors) {
		return &ProgramError{
			Program: "spl_token",
			Code:    code,
			Message: splTokenErrors[code],
		}
	}
	return fmt.Errorf("spl_token error code %d", code)
}

// ParseSimulationError extracts error details from simulation result.
func ParseSimulationError(errVal interface{}, logs []string) error {
	if errVal == nil {
		return nil
	}

	if errMap, ok := errVal.(map[string]interface{}); ok {
		if instErr, exists := errMap["InstructionError"]; exists {
			if errSlice, ok := instErr.([]interface{}); ok && len(errSlice) >= 2 {
				if customErr, ok := errSlice[1].(map[string]interface{}); ok {
					if code, exists := customErr["Custom"]; exists {
						if codeNum, ok := code.(float64); ok {
							codeInt := int(codeNum)
							program := failingProgram(logs)
							msg := fmt.Sprintf("error code %d", codeInt)
							if program == "spl_token" && codeInt < len(splTokenErrors) {
								msg = splTokenErrors[codeInt]
							}
							return &ProgramError{
								Program: program,
								Code:    codeInt,
								Message: msg,
								Logs:    logs,
							}
						}
					}
				}
			}
		}
	}

	return &SimulationError{Err: errVal, Logs: logs}
}

// failingProgram finds the last program that reported failure in the logs.
func failingProgram(logs []string) string {
	for i := len(logs) - 1; i >= 0; i-- {
		line := logs[i]
		if !strings.HasPrefix(line, "Program ") || !strings.Contains(line, " failed") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		switch fields[1] {
		case "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA":
			return "spl_token"
		case "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s":
			return "token_metadata"
		default:
			return fields[1]
		}
	}
	return ""
}

// IsRetryableError checks if an error is retryable.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrSimulationFailed) {
		return true
	}
	var progErr *ProgramError
	if errors.As(err, &progErr) {
		return false
	}
	var valErr ValidationError
	if errors.As(err, &valErr) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return true
}
