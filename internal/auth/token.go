package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/henrykey/kone-elevator-sub000/internal/constants"
)

// AuthError reports a failed token acquisition: unreachable endpoint or
// rejected credentials. It is never retried at this layer.
type AuthError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Message, e.Err)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("auth: %s (status %d)", e.Message, e.StatusCode)
	}
	return "auth: " + e.Message
}

func (e *AuthError) Unwrap() error { return e.Err }

// Token is a cached access token with its refresh deadline already
// pulled in by the safety margin.
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (t *Token) Valid() bool {
	return t != nil && t.AccessToken != "" && time.Now().Before(t.ExpiresAt)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// TokenManager acquires OAuth2 client-credentials tokens and caches them
// through a pluggable store keyed by client id.
type TokenManager struct {
	clientID     string
	clientSecret string
	endpoint     string
	scope        string
	store        CacheStore
	httpClient   *http.Client

	// now is swappable for tests
	now func() time.Time
}

func NewTokenManager(clientID, clientSecret, endpoint, scope string, store CacheStore) *TokenManager {
	if store == nil {
		store = NewMemoryStore()
	}
	return &TokenManager{
		clientID:     clientID,
		clientSecret: clientSecret,
		endpoint:     endpoint,
		scope:        scope,
		store:        store,
		httpClient:   &http.Client{Timeout: constants.TokenHTTPTimeout},
		now:          time.Now,
	}
}

// AccessToken returns a token valid for at least the safety margin. A
// cached token inside its validity window is returned without any
// network call.
func (m *TokenManager) AccessToken(ctx context.Context) (string, error) {
	if tok, ok := m.store.Get(m.clientID); ok && tok.Valid() {
		return tok.AccessToken, nil
	}

	tok, err := m.fetch(ctx)
	if err != nil {
		return "", err
	}

	m.store.Put(m.clientID, tok)
	return tok.AccessToken, nil
}

func (m *TokenManager) fetch(ctx context.Context) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("scope", m.scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &AuthError{Message: "building token request", Err: err}
	}
	req.SetBasicAuth(m.clientID, m.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, &AuthError{Message: "token endpoint unreachable", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &AuthError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("token endpoint rejected credentials: %s", strings.TrimSpace(string(body))),
		}
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, &AuthError{Message: "decoding token response", Err: err}
	}
	if tr.AccessToken == "" {
		return nil, &AuthError{Message: "token response missing access_token"}
	}

	expiresAt := m.now().Add(time.Duration(tr.ExpiresIn)*time.Second - constants.TokenSafetyMargin)
	return &Token{AccessToken: tr.AccessToken, ExpiresAt: expiresAt}, nil
}
