package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/data-collector/internal/domain"
	"github.com/spec-kit/data-collector/internal/observability"
	apperrors "github.com/spec-kit/data-collector/pkg/util/errorutil"
)

const maxTokenResponseBytes = 1 << 20

// TokenEndpoint describes the authorization server.
type TokenEndpoint struct {
	URL     string
	Scope   string
	Timeout time.Duration
}

// TokenManager obtains access tokens with the client-credentials grant and
// keeps the latest one in its store. Only a successful exchange replaces the
// stored token; a failed one leaves the previous value in place.
type TokenManager struct {
	creds    domain.Credentials
	endpoint TokenEndpoint
	client   *http.Client
	store    TokenStore
	logger   *zap.Logger
	metrics  *observability.Metrics
	now      func() time.Time
}

// TokenManagerOption customizes a TokenManager.
type TokenManagerOption func(*TokenManager)

// WithHTTPClient overrides the HTTP client used for the exchange.
func WithHTTPClient(client *http.Client) TokenManagerOption {
	return func(tm *TokenManager) { tm.client = client }
}

// WithMetrics records exchanges on m.
func WithMetrics(m *observability.Metrics) TokenManagerOption {
	return func(tm *TokenManager) { tm.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) TokenManagerOption {
	return func(tm *TokenManager) { tm.now = now }
}

// NewTokenManager builds a new manager.
func NewTokenManager(creds domain.Credentials, endpoint TokenEndpoint, store TokenStore, logger *zap.Logger, opts ...TokenManagerOption) *TokenManager {
	if endpoint.Timeout <= 0 {
		endpoint.Timeout = 10 * time.Second
	}
	if store == nil {
		store = NewMemoryTokenStore()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	tm := &TokenManager{
		creds:    creds,
		endpoint: endpoint,
		client:   &http.Client{},
		store:    store,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(tm)
	}
	return tm
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}

// Obtain performs one client-credentials exchange and stores the resulting token.
func (tm *TokenManager) Obtain(ctx context.Context) (domain.AccessToken, error) {
	if !tm.creds.Complete() {
		tm.metrics.RecordTokenRequest("unconfigured")
		return domain.AccessToken{}, apperrors.NewConfigurationError("FT_CLIENT_ID and FT_CLIENT_SECRET must be set")
	}

	ctx, cancel := context.WithTimeout(ctx, tm.endpoint.Timeout)
	defer cancel()

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", tm.creds.ClientID)
	form.Set("client_secret", tm.creds.ClientSecret)
	form.Set("scope", tm.endpoint.Scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tm.endpoint.URL, strings.NewReader(form.Encode()))
	if err != nil {
		tm.metrics.RecordTokenRequest("error")
		return domain.AccessToken{}, apperrors.NewAuthError("build token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := tm.client.Do(req)
	if err != nil {
		tm.metrics.RecordTokenRequest("transport_error")
		tm.logger.Warn("token request failed", zap.Error(err))
		return domain.AccessToken{}, apperrors.NewAuthError("token request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponseBytes))
	if err != nil {
		tm.metrics.RecordTokenRequest("transport_error")
		return domain.AccessToken{}, apperrors.NewAuthError("read token response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		tm.metrics.RecordTokenRequest("rejected")
		tm.logger.Warn("token endpoint rejected credentials",
			zap.Int("status", resp.StatusCode),
			zap.String("body", apperrors.Excerpt(body)))
		var cause error
		if text := apperrors.Excerpt(body); text != "" {
			cause = errors.New(text)
		}
		return domain.AccessToken{}, apperrors.NewAuthError(
			fmt.Sprintf("token endpoint returned status %d", resp.StatusCode), cause)
	}

	var payload tokenResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		tm.metrics.RecordTokenRequest("malformed")
		return domain.AccessToken{}, apperrors.NewAuthError("decode token response", err)
	}
	if payload.AccessToken == "" {
		tm.metrics.RecordTokenRequest("malformed")
		return domain.AccessToken{}, apperrors.NewAuthError("token response has no access_token", nil)
	}

	token := domain.AccessToken{Value: payload.AccessToken, ObtainedAt: tm.now()}
	if err := tm.store.Save(ctx, token); err != nil {
		tm.metrics.RecordTokenRequest("store_error")
		return domain.AccessToken{}, apperrors.NewAuthError("store access token", err)
	}

	tm.metrics.RecordTokenRequest("success")
	tm.logger.Info("access token obtained", tm.tokenFields(token, payload)...)
	return token, nil
}

// Current returns the stored token, if any. Store failures are logged and
// reported as an absent token so callers fall back to a fresh exchange.
func (tm *TokenManager) Current(ctx context.Context) (domain.AccessToken, bool) {
	token, ok, err := tm.store.Load(ctx)
	if err != nil {
		tm.logger.Warn("load access token", zap.Error(err))
		return domain.AccessToken{}, false
	}
	return token, ok
}

// Warmup performs the best-effort exchange at startup. Failures are logged only.
func (tm *TokenManager) Warmup(ctx context.Context) {
	if !tm.creds.Complete() {
		tm.logger.Error("FT_CLIENT_ID and FT_CLIENT_SECRET are not set; searches will fail until configured")
		return
	}
	if _, err := tm.Obtain(ctx); err != nil {
		tm.logger.Warn("initial token exchange failed; retrying on first search", zap.Error(err))
	}
}

func (tm *TokenManager) tokenFields(token domain.AccessToken, payload tokenResponse) []zap.Field {
	fields := []zap.Field{
		zap.Time("obtained_at", token.ObtainedAt),
		zap.String("scope", payload.Scope),
	}
	if payload.ExpiresIn > 0 {
		fields = append(fields, zap.Int("expires_in", payload.ExpiresIn))
	}
	if info, ok := InspectToken(token.Value); ok && !info.ExpiresAt.IsZero() {
		fields = append(fields, zap.Time("token_exp", info.ExpiresAt))
	}
	return fields
}
