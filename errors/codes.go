package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Configuration errors
const (
	// ErrCodeInvalidOptions indicates provider options could not be resolved.
	ErrCodeInvalidOptions ErrorCode = "INVALID_OPTIONS"
	// ErrCodeInitializeFailed indicates a provider's initialize hook returned an error.
	ErrCodeInitializeFailed ErrorCode = "INITIALIZE_FAILED"
	// ErrCodeInvalidConfig indicates the loaded service configuration is invalid.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
)

// Registry errors
const (
	// ErrCodeNotRegistered indicates no factory is registered under a provider name.
	ErrCodeNotRegistered ErrorCode = "NOT_REGISTERED"
	// ErrCodeAlreadyInitialized indicates the dispatcher was initialized twice.
	ErrCodeAlreadyInitialized ErrorCode = "ALREADY_INITIALIZED"
)

// Input errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeExternalService indicates a vendor-side failure (script load, runtime evaluation).
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

var configurationCodes = map[ErrorCode]bool{
	ErrCodeInvalidOptions:   true,
	ErrCodeInitializeFailed: true,
	ErrCodeInvalidConfig:    true,
	ErrCodeMissingField:     true,
}

// IsConfigurationCode reports whether code belongs to the fail-fast
// configuration class raised at construction time.
func IsConfigurationCode(code ErrorCode) bool {
	return configurationCodes[code]
}
