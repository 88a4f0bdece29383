package api

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// NetworkError is any failed backend call: transport failures and non-2xx responses.
type NetworkError struct {
	Op         string
	StatusCode int                 // 0 when the request never got a response
	Message    string              // server supplied "message", if any
	Fields     map[string][]string // server supplied validation "errors", if any
	Err        error
}

func (e *NetworkError) Error() string {
	switch {
	case e.StatusCode == 0 && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// UserMessage is the most useful text to show a person: the server's message,
// otherwise its field errors, otherwise an empty string.
func (e *NetworkError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Fields) == 0 {
		return ""
	}

	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var msgs []string
	for _, field := range fields {
		msgs = append(msgs, e.Fields[field]...)
	}
	return strings.Join(msgs, " ")
}

// IsUnauthorized reports whether the backend rejected the bearer token.
func (e *NetworkError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}
