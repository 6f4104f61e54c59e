package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/data-collector/internal/domain"
	"github.com/spec-kit/data-collector/internal/events"
	"github.com/spec-kit/data-collector/internal/observability"
	apperrors "github.com/spec-kit/data-collector/pkg/util/errorutil"
)

const maxSearchResponseBytes = 8 << 20

// TokenProvider supplies bearer tokens for search calls.
type TokenProvider interface {
	Current(ctx context.Context) (domain.AccessToken, bool)
	Obtain(ctx context.Context) (domain.AccessToken, error)
}

// SearchEndpoint describes the offers search API.
type SearchEndpoint struct {
	URL     string
	Timeout time.Duration
}

// SearchDependencies bundles collaborators for the search service.
type SearchDependencies struct {
	Tokens     TokenProvider
	HTTPClient *http.Client
	Cache      *ResultCache
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// SearchService runs one search per call: validate, ensure a token, query the
// offers endpoint and, on a 401, refresh the token and retry exactly once.
type SearchService struct {
	tokens     TokenProvider
	endpoint   SearchEndpoint
	client     *http.Client
	cache      *ResultCache
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewSearchService builds the service.
func NewSearchService(endpoint SearchEndpoint, deps SearchDependencies) *SearchService {
	if endpoint.Timeout <= 0 {
		endpoint.Timeout = 20 * time.Second
	}
	client := deps.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchService{
		tokens:     deps.Tokens,
		endpoint:   endpoint,
		client:     client,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		now:        time.Now,
	}
}

type requestIDKey struct{}

// WithRequestID attaches a correlation id used in logs and events.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the correlation id set by WithRequestID.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// Search returns the listings matching filter, in upstream order. An empty,
// non-nil slice means the endpoint reported no matching offers.
func (s *SearchService) Search(ctx context.Context, filter domain.SearchFilter) ([]domain.JobListing, error) {
	start := s.now()
	requestID, ok := RequestIDFromContext(ctx)
	if !ok {
		requestID = uuid.NewString()
	}
	logger := s.logger.With(zap.String("request_id", requestID))

	filter = filter.Normalize()
	if problems := filter.Validate(); len(problems) > 0 {
		details := make(map[string]any, len(problems))
		for field, problem := range problems {
			details[field] = problem
		}
		err := apperrors.NewValidationError("invalid search filter", details)
		s.finish(ctx, logger, requestID, filter, domain.SearchOutcomeInvalid, 0, err, start, false)
		return nil, err
	}

	if cached, ok := s.cache.Get(filter); ok {
		s.finish(ctx, logger, requestID, filter, outcomeFor(cached), len(cached), nil, start, true)
		return cached, nil
	}

	token, ok := s.tokens.Current(ctx)
	if !ok {
		logger.Debug("no access token; obtaining one before searching")
		var err error
		token, err = s.tokens.Obtain(ctx)
		if err != nil {
			s.finish(ctx, logger, requestID, filter, domain.SearchOutcomeAuthFailed, 0, err, start, false)
			return nil, err
		}
	}

	query := buildSearchQuery(filter)
	status, body, err := s.send(ctx, query, token)
	if err == nil && status == http.StatusUnauthorized {
		logger.Info("search rejected with 401; refreshing access token")
		token = s.refresh(ctx, logger, requestID, token)
		status, body, err = s.send(ctx, query, token)
	}
	if err != nil {
		searchErr := apperrors.NewSearchError("search request failed", nil, err)
		s.finish(ctx, logger, requestID, filter, domain.SearchOutcomeError, 0, searchErr, start, false)
		return nil, searchErr
	}

	listings, err := interpretSearchResponse(status, body)
	if err != nil {
		logger.Error("search endpoint error", zap.Int("status", status), zap.String("body", apperrors.Excerpt(body)))
		s.finish(ctx, logger, requestID, filter, domain.SearchOutcomeError, 0, err, start, false)
		return nil, err
	}

	s.cache.Set(filter, listings)
	s.finish(ctx, logger, requestID, filter, outcomeFor(listings), len(listings), nil, start, false)
	return listings, nil
}

// refresh forces one token exchange. On failure the previous token is reused
// for the single retry.
func (s *SearchService) refresh(ctx context.Context, logger *zap.Logger, requestID string, previous domain.AccessToken) domain.AccessToken {
	refreshed, err := s.tokens.Obtain(ctx)
	payload := events.TokenRefreshedPayload{Succeeded: err == nil}
	if err != nil {
		payload.Error = err.Error()
		logger.Warn("token refresh failed; retrying with previous token", zap.Error(err))
		refreshed = previous
	}
	s.publish(ctx, events.EventTokenRefreshed, requestID, payload)
	return refreshed
}

func (s *SearchService) send(ctx context.Context, query url.Values, token domain.AccessToken) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.endpoint.Timeout)
	defer cancel()

	target, err := url.Parse(s.endpoint.URL)
	if err != nil {
		return 0, nil, fmt.Errorf("parse search url: %w", err)
	}
	target.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token.Value)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.metrics.RecordUpstreamSearch(0)
		return 0, nil, err
	}
	defer resp.Body.Close()

	s.metrics.RecordUpstreamSearch(resp.StatusCode)
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSearchResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read search response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func buildSearchQuery(filter domain.SearchFilter) url.Values {
	query := url.Values{}
	query.Set("typeContrat", string(filter.ContractType))
	query.Set("range", filter.Range())
	query.Set("motsCles", filter.Keyword)
	if filter.Department != "" {
		query.Set("departement", filter.Department)
	}
	return query
}

func interpretSearchResponse(status int, body []byte) ([]domain.JobListing, error) {
	if status == http.StatusNoContent {
		return []domain.JobListing{}, nil
	}
	if status < 200 || status >= 300 {
		var cause error
		if text := apperrors.Excerpt(body); text != "" {
			cause = errors.New(text)
		}
		return nil, apperrors.NewSearchError(
			fmt.Sprintf("search endpoint returned status %d", status),
			map[string]any{"status": status},
			cause)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return []domain.JobListing{}, nil
	}
	var payload searchResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperrors.NewSearchError("decode search response", nil, err)
	}

	listings := make([]domain.JobListing, 0, len(payload.Resultats))
	for _, offer := range payload.Resultats {
		listings = append(listings, offer.toListing())
	}
	return listings, nil
}

func outcomeFor(listings []domain.JobListing) domain.SearchOutcome {
	if len(listings) == 0 {
		return domain.SearchOutcomeEmpty
	}
	return domain.SearchOutcomeDone
}

func (s *SearchService) finish(ctx context.Context, logger *zap.Logger, requestID string, filter domain.SearchFilter,
	outcome domain.SearchOutcome, count int, err error, start time.Time, cached bool) {
	duration := s.now().Sub(start)
	s.metrics.RecordSearch(string(outcome))

	fields := []zap.Field{
		zap.String("outcome", string(outcome)),
		zap.String("keyword", filter.Keyword),
		zap.String("contract", string(filter.ContractType)),
		zap.Int("limit", filter.Limit),
		zap.Int("results", count),
		zap.Duration("duration", duration),
		zap.Bool("cached", cached),
	}
	payload := events.SearchFinishedPayload{
		Filter:      filter,
		Outcome:     outcome,
		ResultCount: count,
		Duration:    duration,
		Cached:      cached,
	}
	eventType := events.EventSearchCompleted
	if err != nil {
		eventType = events.EventSearchFailed
		payload.Error = err.Error()
		logger.Info("search failed", append(fields, zap.Error(err))...)
	} else {
		logger.Info("search completed", fields...)
	}
	s.publish(ctx, eventType, requestID, payload)
}

func (s *SearchService) publish(ctx context.Context, eventType events.EventType, requestID string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		RequestID: requestID,
		Timestamp: s.now(),
		Payload:   payload,
	})
}
