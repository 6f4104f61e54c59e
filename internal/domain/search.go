package domain

import (
	"fmt"
	"strings"
)

// ContractType enumerates the contract filters offered to the user.
type ContractType string

const (
	ContractCDI ContractType = "CDI"
	ContractCDD ContractType = "CDD"
	ContractMIS ContractType = "MIS"
)

// ContractTypes lists the selectable contract types in display order.
var ContractTypes = []ContractType{ContractCDI, ContractCDD, ContractMIS}

// Label returns the user-facing name of the contract type.
func (c ContractType) Label() string {
	if c == ContractMIS {
		return "Intérim"
	}
	return string(c)
}

// Valid reports whether c is one of the supported contract types.
func (c ContractType) Valid() bool {
	for _, known := range ContractTypes {
		if c == known {
			return true
		}
	}
	return false
}

// ResultLimits lists the allowed result counts.
var ResultLimits = []int{10, 20, 30}

const (
	DefaultContractType = ContractCDI
	DefaultLimit        = 10
)

// SearchFilter holds the user input for one search.
type SearchFilter struct {
	Keyword      string
	Department   string
	ContractType ContractType
	Limit        int
}

// Normalize trims text fields and applies defaults for unset selectors.
func (f SearchFilter) Normalize() SearchFilter {
	f.Keyword = strings.TrimSpace(f.Keyword)
	f.Department = strings.TrimSpace(f.Department)
	if f.ContractType == "" {
		f.ContractType = DefaultContractType
	}
	f.ContractType = ContractType(strings.ToUpper(string(f.ContractType)))
	if f.Limit == 0 {
		f.Limit = DefaultLimit
	}
	return f
}

// Validate returns a map of field problems, empty when the filter is usable.
func (f SearchFilter) Validate() map[string]string {
	problems := map[string]string{}
	if f.Keyword == "" {
		problems["keyword"] = "required"
	}
	if !f.ContractType.Valid() {
		problems["contract"] = fmt.Sprintf("must be one of %v", ContractTypes)
	}
	if !validLimit(f.Limit) {
		problems["limit"] = fmt.Sprintf("must be one of %v", ResultLimits)
	}
	return problems
}

// Range renders the zero-based inclusive range parameter for Limit results.
func (f SearchFilter) Range() string {
	return fmt.Sprintf("0-%d", f.Limit-1)
}

// CacheKey identifies equivalent normalized filters. The keyword keeps its
// case because it is sent upstream as typed.
func (f SearchFilter) CacheKey() string {
	return strings.Join([]string{
		f.Keyword,
		f.Department,
		string(f.ContractType),
		fmt.Sprint(f.Limit),
	}, "|")
}

func validLimit(limit int) bool {
	for _, allowed := range ResultLimits {
		if limit == allowed {
			return true
		}
	}
	return false
}
