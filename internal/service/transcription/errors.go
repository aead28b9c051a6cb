package transcription

import "fmt"

// ErrorKind classifies a request failure by pipeline stage. The external
// envelope carries only a message; kinds drive logging and status mapping.
type ErrorKind int

const (
	// KindInput marks a missing or invalid request field. No external
	// calls were made.
	KindInput ErrorKind = iota
	// KindSecurity marks a URL denied by the SSRF validator.
	KindSecurity
	// KindDownload marks a network failure, non-success status, or
	// timeout while fetching media.
	KindDownload
	// KindEngine marks a transcription engine failure.
	KindEngine
	// KindInternal marks any other unexpected failure.
	KindInternal
)

// String returns the stage name for logging.
func (k ErrorKind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindSecurity:
		return "security"
	case KindDownload:
		return "download"
	case KindEngine:
		return "engine"
	default:
		return "internal"
	}
}

// RequestError is the tagged failure produced at each component boundary
// and translated exactly once, at the HTTP edge, into the error envelope.
type RequestError struct {
	Kind ErrorKind
	// Message is the client-facing text. It must not leak internal
	// paths or infrastructure details.
	Message string
	// Err is the underlying cause, logged server-side only.
	Err error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func inputError(message string) *RequestError {
	return &RequestError{Kind: KindInput, Message: message}
}

func securityError(message string) *RequestError {
	return &RequestError{Kind: KindSecurity, Message: message}
}

func downloadError(err error) *RequestError {
	return &RequestError{Kind: KindDownload, Message: "failed to download audio", Err: err}
}

func engineError(err error) *RequestError {
	return &RequestError{Kind: KindEngine, Message: "transcription failed", Err: err}
}
