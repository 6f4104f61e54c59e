package handlers

import (
	"bytes"
	_ "embed"
	"html/template"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/data-collector/internal/domain"
)

//go:embed templates/index.html
var indexTemplate string

type contractOption struct {
	Value    domain.ContractType
	Label    string
	Selected bool
}

type pageData struct {
	Title     string
	Contracts []contractOption
	Limits    []int
	Default   int
}

// PageHandler renders the search page.
type PageHandler struct {
	page []byte
}

// NewPageHandler renders the page once; it has no per-request state.
func NewPageHandler(title string) (*PageHandler, error) {
	tmpl, err := template.New("index").Parse(indexTemplate)
	if err != nil {
		return nil, err
	}

	data := pageData{Title: title, Limits: domain.ResultLimits, Default: domain.DefaultLimit}
	for _, contract := range domain.ContractTypes {
		data.Contracts = append(data.Contracts, contractOption{
			Value:    contract,
			Label:    contract.Label(),
			Selected: contract == domain.DefaultContractType,
		})
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return &PageHandler{page: buf.Bytes()}, nil
}

// Index GET /.
func (h *PageHandler) Index(c *fiber.Ctx) error {
	c.Type("html", "utf-8")
	return c.Send(h.page)
}
