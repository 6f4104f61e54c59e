package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/data-collector/internal/domain"
	"github.com/spec-kit/data-collector/internal/events"
	"github.com/spec-kit/data-collector/internal/repository"
	apperrors "github.com/spec-kit/data-collector/pkg/util/errorutil"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// HistoryService records finished searches from dispatcher events.
// A nil repository disables recording and listing.
type HistoryService struct {
	repo       repository.SearchHistoryRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewHistoryService creates the service.
func NewHistoryService(repo repository.SearchHistoryRepository, dispatcher events.Dispatcher, logger *zap.Logger) *HistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryService{
		repo:       repo,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Enabled reports whether searches are persisted.
func (h *HistoryService) Enabled() bool {
	return h != nil && h.repo != nil
}

// RegisterHandlers subscribes to search events.
func (h *HistoryService) RegisterHandlers() {
	if !h.Enabled() || h.dispatcher == nil {
		return
	}
	h.dispatcher.Subscribe(events.EventSearchCompleted, h.handleSearchFinished)
	h.dispatcher.Subscribe(events.EventSearchFailed, h.handleSearchFinished)
	h.dispatcher.Subscribe(events.EventTokenRefreshed, h.handleTokenRefreshed)
}

func (h *HistoryService) handleSearchFinished(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.SearchFinishedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}

	record := &domain.SearchRecord{
		RequestID:    event.RequestID,
		Keyword:      payload.Filter.Keyword,
		ContractType: payload.Filter.ContractType,
		Limit:        payload.Filter.Limit,
		Outcome:      payload.Outcome,
		ResultCount:  payload.ResultCount,
		DurationMS:   payload.Duration.Milliseconds(),
	}
	if payload.Filter.Department != "" {
		dept := payload.Filter.Department
		record.Department = &dept
	}
	if payload.Error != "" {
		msg := payload.Error
		record.ErrorMessage = &msg
	}

	if err := h.repo.Create(ctx, record); err != nil {
		return fmt.Errorf("record search %s: %w", event.RequestID, err)
	}
	return nil
}

func (h *HistoryService) handleTokenRefreshed(_ context.Context, event events.Event) error {
	h.logger.Info("TokenRefreshed", zap.String("request_id", event.RequestID), zap.Any("payload", event.Payload))
	return nil
}

// ListRecent returns the latest recorded searches, newest first.
func (h *HistoryService) ListRecent(ctx context.Context, limit int) ([]domain.SearchRecord, error) {
	if !h.Enabled() {
		return nil, apperrors.NewServiceUnavailable("search history is disabled")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	records, err := h.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return records, nil
}

// Prune deletes records older than retention.
func (h *HistoryService) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if !h.Enabled() || retention <= 0 {
		return 0, nil
	}
	cutoff := h.now().Add(-retention)
	deleted, err := h.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	h.logger.Info("search history pruned", zap.Int64("deleted", deleted), zap.Time("cutoff", cutoff))
	return deleted, nil
}
