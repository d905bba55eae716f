package connection

import "fmt"

// ConnectError reports that a connect procedure gave up: every attempt
// permitted by the retry strategy failed.
type ConnectError struct {
	// Attempts is how many connection attempts were made.
	Attempts int
	// LastErr is the failure of the final attempt.
	LastErr error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connection failed after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *ConnectError) Unwrap() error {
	return e.LastErr
}
