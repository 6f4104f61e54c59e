package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/data-collector/internal/api/dto"
	"github.com/spec-kit/data-collector/internal/domain"
	apperrors "github.com/spec-kit/data-collector/pkg/util/errorutil"
)

// HistoryLister returns recorded searches, newest first.
type HistoryLister interface {
	ListRecent(ctx context.Context, limit int) ([]domain.SearchRecord, error)
}

// HistoryHandler serves the search history.
type HistoryHandler struct {
	history HistoryLister
}

// NewHistoryHandler constructs handler.
func NewHistoryHandler(history HistoryLister) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// Recent GET /api/searches/recent.
func (h *HistoryHandler) Recent(c *fiber.Ctx) error {
	limit, err := parseOptionalInt(c.Query("limit"))
	if err != nil {
		return apperrors.NewValidationError("invalid limit", map[string]any{"limit": "must be a number"})
	}
	records, err := h.history.ListRecent(c.UserContext(), limit)
	if err != nil {
		return err
	}
	items := make([]dto.SearchRecordResponse, 0, len(records))
	for _, record := range records {
		items = append(items, dto.NewSearchRecordResponse(record))
	}
	return c.JSON(fiber.Map{"data": items})
}
