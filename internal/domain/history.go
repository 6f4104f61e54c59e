package domain

import "time"

// SearchRecord is one recorded search invocation.
type SearchRecord struct {
	ID           string
	RequestID    string
	Keyword      string
	Department   *string
	ContractType ContractType
	Limit        int
	Outcome      SearchOutcome
	ResultCount  int
	ErrorMessage *string
	DurationMS   int64
	CreatedAt    time.Time
}
