package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/data-collector/internal/api/dto"
	"github.com/spec-kit/data-collector/internal/domain"
	apperrors "github.com/spec-kit/data-collector/pkg/util/errorutil"
)

// OfferSearcher runs one offers search.
type OfferSearcher interface {
	Search(ctx context.Context, filter domain.SearchFilter) ([]domain.JobListing, error)
}

// SearchHandler exposes the search executor to the page.
type SearchHandler struct {
	searcher OfferSearcher
}

// NewSearchHandler constructs handler.
func NewSearchHandler(searcher OfferSearcher) *SearchHandler {
	return &SearchHandler{searcher: searcher}
}

// Search GET /api/offers/search.
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	limit, err := parseOptionalInt(c.Query("limit"))
	if err != nil {
		return apperrors.NewValidationError("invalid search filter", map[string]any{"limit": "must be a number"})
	}
	filter := domain.SearchFilter{
		Keyword:      c.Query("keyword"),
		Department:   c.Query("department"),
		ContractType: domain.ContractType(c.Query("contract")),
		Limit:        limit,
	}

	listings, err := h.searcher.Search(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSearchResponse(listings)})
}

func parseOptionalInt(val string) (int, error) {
	val = strings.TrimSpace(val)
	if val == "" {
		return 0, nil
	}
	return strconv.Atoi(val)
}
