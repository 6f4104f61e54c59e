package dto

import (
	"time"

	"github.com/spec-kit/data-collector/internal/domain"
)

// MissingContractLabel is shown when an offer carries no contract label.
const MissingContractLabel = "N/A"

// OfferResponse is one job offer card.
type OfferResponse struct {
	Title             string  `json:"title"`
	CompanyName       *string `json:"company_name"`
	Location          *string `json:"location"`
	ContractTypeLabel string  `json:"contract_type_label"`
	OriginalURL       *string `json:"original_url"`
}

// SearchResponse wraps the listings of one search.
type SearchResponse struct {
	Count  int             `json:"count"`
	Offers []OfferResponse `json:"offers"`
}

// SearchRecordResponse is one entry of the search history.
type SearchRecordResponse struct {
	ID           string               `json:"id"`
	RequestID    string               `json:"request_id"`
	Keyword      string               `json:"keyword"`
	Department   *string              `json:"department"`
	ContractType domain.ContractType  `json:"contract_type"`
	Limit        int                  `json:"limit"`
	Outcome      domain.SearchOutcome `json:"outcome"`
	ResultCount  int                  `json:"result_count"`
	ErrorMessage *string              `json:"error_message"`
	DurationMS   int64                `json:"duration_ms"`
	CreatedAt    time.Time            `json:"created_at"`
}

// NewSearchResponse converts listings, keeping upstream order.
func NewSearchResponse(listings []domain.JobListing) SearchResponse {
	offers := make([]OfferResponse, 0, len(listings))
	for _, listing := range listings {
		label := listing.ContractTypeLabel
		if label == "" {
			label = MissingContractLabel
		}
		offers = append(offers, OfferResponse{
			Title:             listing.Title,
			CompanyName:       listing.CompanyName,
			Location:          listing.Location,
			ContractTypeLabel: label,
			OriginalURL:       listing.OriginalURL,
		})
	}
	return SearchResponse{Count: len(offers), Offers: offers}
}

// NewSearchRecordResponse converts a history row.
func NewSearchRecordResponse(record domain.SearchRecord) SearchRecordResponse {
	return SearchRecordResponse{
		ID:           record.ID,
		RequestID:    record.RequestID,
		Keyword:      record.Keyword,
		Department:   record.Department,
		ContractType: record.ContractType,
		Limit:        record.Limit,
		Outcome:      record.Outcome,
		ResultCount:  record.ResultCount,
		ErrorMessage: record.ErrorMessage,
		DurationMS:   record.DurationMS,
		CreatedAt:    record.CreatedAt,
	}
}
