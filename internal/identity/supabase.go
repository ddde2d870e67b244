package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"jobboard/internal/domain"
)

const defaultVerifyTimeout = 5 * time.Second

// SupabaseVerifier asks the Supabase auth service who a token belongs to.
type SupabaseVerifier struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

// NewSupabaseVerifier creates a verifier for the project at baseURL.
func NewSupabaseVerifier(baseURL, anonKey string, timeout time.Duration) *SupabaseVerifier {
	if timeout <= 0 {
		timeout = defaultVerifyTimeout
	}
	return &SupabaseVerifier{
		baseURL:    strings.TrimRight(baseURL, "/"),
		anonKey:    anonKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type supabaseUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Verify calls GET /auth/v1/user with the token. Any non-200 answer, a
// transport failure, or a timeout is reported as InvalidOrExpired.
func (v *SupabaseVerifier) Verify(ctx context.Context, token string) (domain.Principal, error) {
	const op = "identity.supabase"
	if err := CheckTokenShape(token); err != nil {
		return domain.Principal{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return domain.Principal{}, domain.E(domain.KindInvalidOrExpired, op, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", v.anonKey)
	req.Header.Set("Accept", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return domain.Principal{}, domain.E(domain.KindInvalidOrExpired, op, fmt.Errorf("call auth service: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return domain.Principal{}, domain.E(domain.KindInvalidOrExpired, op, fmt.Errorf("auth service returned %d", resp.StatusCode))
	}

	var u supabaseUser
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&u); err != nil {
		return domain.Principal{}, domain.E(domain.KindInvalidOrExpired, op, fmt.Errorf("decode user: %w", err))
	}
	if u.ID == "" {
		return domain.Principal{}, domain.E(domain.KindInvalidOrExpired, op, errors.New("no user for token"))
	}
	return domain.Principal{ID: u.ID, Email: u.Email}, nil
}
