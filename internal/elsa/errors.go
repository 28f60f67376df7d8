package elsa

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx response from the Elsa API.
type APIError struct {
	StatusCode int
	Status     string // e.g. "404 Not Found"
	Body       string
}

func (e *APIError) Error() string {
	detail := e.Body
	if detail == "" {
		detail = statusText(e)
	}
	return fmt.Sprintf("Elsa API %d: %s", e.StatusCode, detail)
}

func statusText(e *APIError) string {
	// resp.Status carries the code as a prefix; strip it to keep the text only.
	if text := strings.TrimSpace(strings.TrimPrefix(e.Status, fmt.Sprintf("%d", e.StatusCode))); text != "" {
		return text
	}
	return http.StatusText(e.StatusCode)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
