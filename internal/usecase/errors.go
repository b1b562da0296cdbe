package usecase

import "errors"

// Domain failure taxonomy. Handlers map these to HTTP statuses; anything not
// in this taxonomy is internal and its text never reaches a client.
var (
	// ErrConflict reports an enrollment against an already-taken username or
	// email.
	ErrConflict = errors.New("username or email already registered")

	// ErrInvalidCredentials covers both an unknown username and a wrong
	// password. The message is deliberately identical for the two cases so a
	// caller cannot probe which usernames exist.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrFaceMismatch reports a signin whose fresh embedding was too far from
	// the enrolled one. Distinct from ErrInvalidCredentials: the password has
	// already been verified by this point.
	ErrFaceMismatch = errors.New("face verification failed")
)

// BadInputError marks a request the client can fix: a missing field or an
// upload that is not a decodable image.
type BadInputError struct {
	Msg string
	Err error
}

// Error implements the error interface.
func (e *BadInputError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

// Unwrap returns the underlying error.
func (e *BadInputError) Unwrap() error {
	return e.Err
}

// FaceProcessingError carries the embedder's human-readable failure reason
// (no face found, multiple faces, model-side rejection).
type FaceProcessingError struct {
	Reason string
}

// Error implements the error interface.
func (e *FaceProcessingError) Error() string {
	return "face processing error: " + e.Reason
}
