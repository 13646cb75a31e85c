package api

import (
	"fmt"
	"strings"
)

// ValidationError rejects input before any request is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NetworkError is a transport failure: no HTTP response was obtained.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerError is a non-success HTTP status. Message is the server's detail
// text, or the raw body when the body was not JSON.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return e.Message
}

// ParseError is a success status whose body was not the expected JSON.
// Like a ServerError it carries the raw body text as its message.
type ParseError struct {
	Message string
	Body    string
	Err     error
}

func (e *ParseError) Error() string {
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidateRepo trims repo and rejects a blank name.
func ValidateRepo(repo string) (string, error) {
	trimmed := strings.TrimSpace(repo)
	if trimmed == "" {
		return "", &ValidationError{
			Field:   "repo",
			Message: "Enter a repository name (e.g. my-repo)",
		}
	}
	return trimmed, nil
}

func statusMessage(code int) string {
	return fmt.Sprintf("HTTP %d", code)
}
