// Mix - Mobile-first Dating Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mix

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/zitadel/oidc/v3/pkg/client/rp"
	"github.com/zitadel/oidc/v3/pkg/oidc"

	"github.com/tomtom215/mix/internal/logging"
	"github.com/tomtom215/mix/internal/metrics"
)

var (
	// ErrGoogleDisabled is returned when no Google client id is configured.
	ErrGoogleDisabled = errors.New("google sign-in is not configured")

	// ErrVerifierUnavailable is returned while the JWKS circuit is open.
	ErrVerifierUnavailable = errors.New("google key service unavailable")

	errUpstreamStatus = errors.New("upstream returned server error")
)

// Issuers Google puts in the iss claim. Both forms are in use.
var googleIssuers = []string{"https://accounts.google.com", "accounts.google.com"}

// GoogleIdentity is the verified subset of a Google ID token.
type GoogleIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// GoogleVerifierConfig configures NewGoogleVerifier.
type GoogleVerifierConfig struct {
	ClientID string
	Issuer   string
	JWKSURL  string

	// HTTPClient is used for JWKS fetches; its transport is wrapped by the
	// circuit breaker.
	HTTPClient *http.Client

	// BreakerFailures is the consecutive JWKS failure count that opens the
	// circuit. Defaults to 5.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// GoogleVerifier validates Google Identity Services credentials (ID tokens)
// against the configured client id.
type GoogleVerifier struct {
	clientID  string
	verifiers []*rp.IDTokenVerifier
	breaker   *gobreaker.CircuitBreaker[*http.Response]
}

// NewGoogleVerifier returns a verifier. With an empty client id every call
// fails with ErrGoogleDisabled.
func NewGoogleVerifier(cfg GoogleVerifierConfig) *GoogleVerifier {
	v := &GoogleVerifier{clientID: cfg.ClientID}
	if cfg.ClientID == "" {
		return v
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	base := cfg.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: 10 * time.Second}
	}

	v.breaker = newJWKSBreaker("google-jwks", cfg.BreakerFailures, cfg.BreakerTimeout)
	next := base.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	client := *base
	client.Transport = &breakerTransport{next: next, breaker: v.breaker}

	keySet := rp.NewRemoteKeySet(&client, cfg.JWKSURL)

	issuers := googleIssuers
	if cfg.Issuer != "" && cfg.Issuer != googleIssuers[0] {
		issuers = []string{cfg.Issuer}
	}
	for _, iss := range issuers {
		v.verifiers = append(v.verifiers, rp.NewIDTokenVerifier(iss, cfg.ClientID, keySet))
	}
	return v
}

// Enabled reports whether a client id is configured.
func (v *GoogleVerifier) Enabled() bool {
	return v.clientID != ""
}

// ClientID returns the OAuth client id the SPA should use.
func (v *GoogleVerifier) ClientID() string {
	return v.clientID
}

// Verify checks signature, issuer, audience and expiry of credential.
func (v *GoogleVerifier) Verify(ctx context.Context, credential string) (*GoogleIdentity, error) {
	if !v.Enabled() {
		return nil, ErrGoogleDisabled
	}
	if credential == "" {
		return nil, fmt.Errorf("%w: empty credential", ErrInvalidCredentials)
	}

	var lastErr error
	for _, verifier := range v.verifiers {
		claims, err := rp.VerifyIDToken[*oidc.IDTokenClaims](ctx, credential, verifier)
		if err == nil {
			return &GoogleIdentity{
				Subject:       claims.Subject,
				Email:         claims.Email,
				EmailVerified: bool(claims.EmailVerified),
				Name:          claims.Name,
				Picture:       claims.Picture,
			}, nil
		}
		lastErr = err
		if !errors.Is(err, oidc.ErrIssuerInvalid) {
			break
		}
	}

	if v.breaker.State() == gobreaker.StateOpen {
		return nil, ErrVerifierUnavailable
	}
	logging.Ctx(ctx).Debug().Err(lastErr).Msg("Google credential rejected")
	return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, lastErr)
}

// breakerTransport sends JWKS fetches through the circuit breaker. Transport
// errors and 5xx responses count as failures.
type breakerTransport struct {
	next    http.RoundTripper
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

func (t *breakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.breaker.Execute(func() (*http.Response, error) {
		resp, err := t.next.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, errUpstreamStatus
		}
		return resp, nil
	})
	if errors.Is(err, errUpstreamStatus) {
		return resp, nil
	}
	return resp, err
}

func newJWKSBreaker(name string, failures uint32, timeout time.Duration) *gobreaker.CircuitBreaker[*http.Response] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))

	return gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
}
