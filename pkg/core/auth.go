package core

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"
)

// minTokenLength is the smallest accepted authentication token.
const minTokenLength = 16

// weakTokenWords mark a configured token as guessable.
var weakTokenWords = []string{
	"password", "secret", "token", "admin", "test", "default",
	"12345", "123456", "password123", "secret123", "admin123",
}

// SecureCompareString compares two strings in constant time.
func SecureCompareString(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// ValidateAuthToken rejects empty, short, and guessable tokens at startup,
// before any client gets to present one.
func ValidateAuthToken(token string) error {
	if token == "" {
		return NewError(ErrInvalidParameter, "Authentication token cannot be empty").
			WithGuidance("Provide a valid authentication token.")
	}
	if len(token) < minTokenLength {
		return NewError(ErrInvalidParameter, "Authentication token is too short").
			WithGuidance(fmt.Sprintf("Use a token of at least %d characters.", minTokenLength))
	}

	lower := strings.ToLower(token)
	for _, weak := range weakTokenWords {
		if strings.Contains(lower, weak) {
			return NewError(ErrInvalidParameter, "Authentication token appears to be weak").
				WithGuidance("Use a randomly generated token.")
		}
	}
	return nil
}

// AuthResult is the outcome of an authentication check.
type AuthResult struct {
	Authorized bool
	Error      string
	Duration   time.Duration
}

// denied builds a failed AuthResult carrying the elapsed time.
func denied(start time.Time, reason string) AuthResult {
	return AuthResult{Error: reason, Duration: time.Since(start)}
}

// AuthenticateBearer checks an Authorization header against the expected
// bearer token. A fixed delay on every outcome blunts timing attacks.
func AuthenticateBearer(authHeader, expectedToken string) AuthResult {
	start := time.Now()
	defer time.Sleep(1 * time.Millisecond)

	if authHeader == "" {
		return denied(start, "Missing Authorization header")
	}
	scheme, token, found := strings.Cut(authHeader, " ")
	if !found || scheme != "Bearer" {
		return denied(start, "Invalid Authorization header format")
	}
	if !SecureCompareString(token, expectedToken) {
		return denied(start, "Invalid bearer token")
	}
	return AuthResult{Authorized: true, Duration: time.Since(start)}
}

// AuthenticateBasic checks basic auth credentials against the expected
// "username:password" pair.
func AuthenticateBasic(username, password, expectedCredentials string) AuthResult {
	start := time.Now()
	defer time.Sleep(1 * time.Millisecond)

	if username == "" || password == "" {
		return denied(start, "Missing basic auth credentials")
	}
	if !SecureCompareString(username+":"+password, expectedCredentials) {
		return denied(start, "Invalid basic auth credentials")
	}
	return AuthResult{Authorized: true, Duration: time.Since(start)}
}
