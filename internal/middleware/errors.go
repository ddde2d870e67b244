package middleware

import (
	"encoding/json"
	"net/http"

	"jobboard/internal/domain"
)

// Canonical gate responses.
const (
	MsgNoToken            = "Unauthorized: No token provided"
	MsgInvalidTokenFormat = "Unauthorized: Invalid token format"
	MsgInvalidOrExpired   = "Unauthorized: Invalid or expired token"
	MsgNotAuthenticated   = "Unauthorized: User not authenticated"
	MsgRoleCheckFailed    = "InternalError: Failed to verify role"
	MsgForbidden          = "Forbidden: insufficient privileges."
	MsgInternal           = "InternalError: Something went wrong"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// WriteError writes {"error": message} with status.
func WriteError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorBody{Error: message})
}

// StatusFor maps a tagged error to its HTTP status and caller-facing
// message. The cause is never part of the message.
func StatusFor(err error) (int, string) {
	switch domain.KindOf(err) {
	case domain.KindMissingToken:
		return http.StatusUnauthorized, MsgNoToken
	case domain.KindInvalidTokenFormat:
		return http.StatusUnauthorized, MsgInvalidTokenFormat
	case domain.KindMalformedToken, domain.KindInvalidOrExpired:
		return http.StatusUnauthorized, MsgInvalidOrExpired
	case domain.KindUnauthenticated, domain.KindProfileNotFound:
		return http.StatusUnauthorized, MsgNotAuthenticated
	case domain.KindStoreError:
		return http.StatusInternalServerError, MsgRoleCheckFailed
	case domain.KindForbidden:
		return http.StatusForbidden, MsgForbidden
	default:
		// SecretsNotInitialized, SecretMissing, ClientConstruction, unknown.
		return http.StatusInternalServerError, MsgInternal
	}
}

// WriteDomainError writes the response StatusFor chooses.
func WriteDomainError(w http.ResponseWriter, err error) {
	status, msg := StatusFor(err)
	WriteError(w, status, msg)
}
