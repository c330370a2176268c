package gateway

import "fmt"

// RemoteError is a non-2xx response from the charging-platform backend.
// Message carries the server-provided error message when the body had
// one, otherwise a generic per-operation fallback.
type RemoteError struct {
	Status  int
	Op      string
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// remoteErr builds a RemoteError from a response body. Error bodies are
// expected to be JSON objects with a "message" field; anything else
// falls back to "Failed to <op>".
func remoteErr(op string, status int, body []byte) *RemoteError {
	msg := extractMessage(body)
	if msg == "" {
		msg = fmt.Sprintf("Failed to %s", op)
	}
	return &RemoteError{Status: status, Op: op, Message: msg}
}
