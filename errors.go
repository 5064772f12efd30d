package nativecheckout

// ErrorType groups handoff failures by where they originate.
type ErrorType string

const (
	InvalidMessage  ErrorType = "invalid_message"  // Malformed or incomplete channel payload.
	ProcessingError ErrorType = "processing_error" // Setup or collaborator failure on our side.
	TransportError  ErrorType = "transport_error"  // Channel construction or delivery failure.
	CheckoutError   ErrorType = "checkout_error"   // Business failure reported by the native app.
)

// ErrorCode is a machine-readable identifier for the specific failure.
type ErrorCode string

const (
	DetectionFailed      ErrorCode = "detection_failed"       // Probe send or response failed.
	TransportUnavailable ErrorCode = "transport_unavailable"  // No channel could be constructed.
	OrderCreateFailed    ErrorCode = "order_create_failed"    // Caller order factory failed.
	TokenIssueFailed     ErrorCode = "token_issue_failed"     // Access token issuance failed.
	PageURLFailed        ErrorCode = "page_url_failed"        // Caller page-URL factory failed.
	NavigationFailed     ErrorCode = "navigation_failed"      // Top-level navigation was refused.
	NativeCheckoutFailed ErrorCode = "native_checkout_failed" // on_error event from the native app.
	InvalidPayload       ErrorCode = "invalid_payload"        // Message payload failed validation.
)

// Error is the structured error value handed to caller callbacks and
// returned by session operations.
type Error struct {
	Type    ErrorType `json:"type"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Param   *string   `json:"param,omitempty"`

	cause error `json:"-"`
}

// Error makes *Error satisfy the stdlib error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

type errorOption func(*Error)

// WithOffendingParam sets the JSON path for the field that triggered the error.
func WithOffendingParam(jsonPath string) errorOption {
	return func(er *Error) {
		er.Param = &jsonPath
	}
}

// WithCause attaches the underlying error for unwrapping.
func WithCause(err error) errorOption {
	return func(er *Error) {
		er.cause = err
	}
}

// NewInvalidMessageError builds an error for malformed channel payloads.
func NewInvalidMessageError(message string, opts ...errorOption) *Error {
	return newError(InvalidMessage, InvalidPayload, message, opts...)
}

// NewProcessingError builds an error for failures in our own setup path.
func NewProcessingError(code ErrorCode, message string, opts ...errorOption) *Error {
	return newError(ProcessingError, code, message, opts...)
}

// NewTransportError builds an error for channel-level failures.
func NewTransportError(code ErrorCode, message string, opts ...errorOption) *Error {
	return newError(TransportError, code, message, opts...)
}

// NewCheckoutError wraps a business failure reported by the native app.
func NewCheckoutError(message string, opts ...errorOption) *Error {
	return newError(CheckoutError, NativeCheckoutFailed, message, opts...)
}

// newError builds a typed error value.
func newError(typ ErrorType, code ErrorCode, message string, opts ...errorOption) *Error {
	errPayload := &Error{
		Type:    typ,
		Code:    code,
		Message: message,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(errPayload)
	}
	return errPayload
}
