package util

type Error struct {
	Message string
}

func (err *Error) Error() string {
	return err.Message
}

var (
	// client supplied a request without a required query parameter
	ErrMissingParameter = &Error{Message: "missing required parameter"}

	// origin or key-exchange transport failures
	ErrFetch    = &Error{Message: "upstream fetch failed"}
	ErrExchange = &Error{Message: "key exchange failed"}

	ErrDerivation   = &Error{Message: "failed to derive key"}
	ErrDecryption   = &Error{Message: "failed to decrypt segment"}
	ErrKeyNotFound  = &Error{Message: "key not found"}
	ErrBodyTooLarge = &Error{Message: "upstream body exceeds size limit"}
)
