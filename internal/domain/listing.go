package domain

// JobListing is the projection of one offer returned by the search endpoint.
// Optional fields are nil when the upstream element omits them.
type JobListing struct {
	Title             string
	CompanyName       *string
	Location          *string
	ContractTypeLabel string
	OriginalURL       *string
}

// SearchOutcome names the terminal state of one search invocation.
type SearchOutcome string

const (
	SearchOutcomeInvalid    SearchOutcome = "invalid"
	SearchOutcomeAuthFailed SearchOutcome = "auth_failed"
	SearchOutcomeDone       SearchOutcome = "done"
	SearchOutcomeEmpty      SearchOutcome = "empty"
	SearchOutcomeError      SearchOutcome = "error"
)
