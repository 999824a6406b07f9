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

	"github.com/golang-jwt/jwt/v5"

	"github.com/placemaking/walletpass/internal/config"
	"github.com/placemaking/walletpass/internal/metrics"
)

const (
	jwtBearerGrant    = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	assertionLifetime = time.Hour
	opTokenExchange   = "token.exchange"
)

// Token is an OAuth access token and the moment it stops being valid.
type Token struct {
	AccessToken string    `json:"access_token"`
	Expiry      time.Time `json:"expiry"`
}

// ExchangeError is returned when the token endpoint rejects the assertion.
type ExchangeError struct {
	Status int
	Body   string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("failed to get Google OAuth token: %d %s - %s", e.Status, http.StatusText(e.Status), e.Body)
}

// TokenIssuer exchanges a signed service-account assertion for an access token.
type TokenIssuer struct {
	signer     *Signer
	tokenURL   string
	scope      string
	httpClient *http.Client
	now        func() time.Time
}

// NewTokenIssuer builds an issuer for the configured service account.
func NewTokenIssuer(cfg config.Wallet, httpClient *http.Client) (*TokenIssuer, error) {
	signer, err := NewSigner(cfg.ServiceAccountEmail, cfg.PrivateKey)
	if err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.UpstreamTimeout}
	}
	return &TokenIssuer{
		signer:     signer,
		tokenURL:   cfg.TokenURL,
		scope:      cfg.Scope,
		httpClient: httpClient,
		now:        time.Now,
	}, nil
}

// Scope is the OAuth scope every token from this issuer carries.
func (i *TokenIssuer) Scope() string {
	return i.scope
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// Exchange performs one network round trip to the token endpoint.
func (i *TokenIssuer) Exchange(ctx context.Context) (Token, error) {
	now := i.now()
	assertion, err := i.signer.Sign(jwt.MapClaims{
		"scope": i.scope,
		"aud":   i.tokenURL,
		"iat":   now.Unix(),
		"exp":   now.Add(assertionLifetime).Unix(),
	})
	if err != nil {
		return Token{}, err
	}

	form := url.Values{}
	form.Set("grant_type", jwtBearerGrant)
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := i.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstream(opTokenExchange, 0)
		return Token{}, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()
	metrics.RecordUpstream(opTokenExchange, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Token{}, &ExchangeError{Status: resp.StatusCode, Body: string(body)}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return Token{}, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return Token{}, fmt.Errorf("token response carried no access_token")
	}

	lifetime := time.Duration(tr.ExpiresIn) * time.Second
	if lifetime <= 0 {
		lifetime = assertionLifetime
	}
	return Token{AccessToken: tr.AccessToken, Expiry: now.Add(lifetime)}, nil
}
