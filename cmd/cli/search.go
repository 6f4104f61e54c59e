package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/spec-kit/data-collector/internal/api/dto"
	"github.com/spec-kit/data-collector/internal/auth"
	"github.com/spec-kit/data-collector/internal/config"
	"github.com/spec-kit/data-collector/internal/domain"
	"github.com/spec-kit/data-collector/internal/observability"
	"github.com/spec-kit/data-collector/internal/service"
	apperrors "github.com/spec-kit/data-collector/pkg/util/errorutil"
)

type searcher interface {
	Search(ctx context.Context, filter domain.SearchFilter) ([]domain.JobListing, error)
}

// searcherFactory builds the executor; tests replace it.
type searcherFactory func() (searcher, func(), error)

func newSearcher() (searcher, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := observability.NewCLILogger(cfg.Logger)
	if err != nil {
		return nil, nil, err
	}

	client := &http.Client{}
	creds := domain.Credentials{ClientID: cfg.FranceTravail.ClientID, ClientSecret: cfg.FranceTravail.ClientSecret}
	tokens := auth.NewTokenManager(creds, auth.TokenEndpoint{
		URL:     cfg.FranceTravail.AuthURL,
		Scope:   cfg.FranceTravail.Scope,
		Timeout: cfg.FranceTravail.AuthTimeout(),
	}, auth.NewMemoryTokenStore(), logger, auth.WithHTTPClient(client))

	svc := service.NewSearchService(service.SearchEndpoint{
		URL:     cfg.FranceTravail.SearchURL,
		Timeout: cfg.FranceTravail.SearchTimeout(),
	}, service.SearchDependencies{
		Tokens:     tokens,
		HTTPClient: client,
		Logger:     logger,
	})
	return svc, func() { _ = logger.Sync() }, nil
}

func newSearchCmd(build searcherFactory) *cobra.Command {
	var (
		filter   domain.SearchFilter
		contract string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search job offers by keyword, department and contract type",
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "text" && output != "json" {
				return fmt.Errorf("--output must be text or json")
			}
			filter.ContractType = domain.ContractType(contract)

			svc, cleanup, err := build()
			if err != nil {
				return err
			}
			defer cleanup()

			listings, err := svc.Search(cmd.Context(), filter)
			if err != nil {
				return userMessage(err)
			}
			if output == "json" {
				return renderJSON(cmd.OutOrStdout(), listings)
			}
			renderText(cmd.OutOrStdout(), listings)
			return nil
		},
	}

	cmd.Flags().StringVarP(&filter.Keyword, "keyword", "k", "", "Métier recherché or ROME code (required)")
	cmd.Flags().StringVarP(&filter.Department, "department", "d", "", "Département, e.g. 75")
	cmd.Flags().StringVarP(&contract, "contract", "c", string(domain.DefaultContractType), "Contract type: CDI, CDD or MIS")
	cmd.Flags().IntVarP(&filter.Limit, "limit", "n", domain.DefaultLimit, "Number of results: 10, 20 or 30")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text|json")
	return cmd
}

// userMessage turns a search failure into the notification shown to the user.
func userMessage(err error) error {
	switch {
	case apperrors.IsValidation(err):
		return fmt.Errorf("Veuillez entrer un métier ou un code ROME. (%w)", err)
	case apperrors.IsAuth(err), apperrors.IsConfiguration(err):
		return fmt.Errorf("Erreur d'authentification avec l'API. (%w)", err)
	default:
		return fmt.Errorf("Erreur lors de la communication avec l'API : %w", err)
	}
}

func renderJSON(w io.Writer, listings []domain.JobListing) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(dto.NewSearchResponse(listings))
}

func renderText(w io.Writer, listings []domain.JobListing) {
	if len(listings) == 0 {
		fmt.Fprintln(w, "Aucune offre trouvée pour cette recherche.")
		return
	}
	fmt.Fprintf(w, "%d offres trouvées.\n", len(listings))
	for _, offer := range dto.NewSearchResponse(listings).Offers {
		fmt.Fprintln(w)
		fmt.Fprintln(w, offer.Title)
		if offer.CompanyName != nil {
			fmt.Fprintf(w, "  Entreprise : %s\n", *offer.CompanyName)
		}
		if offer.Location != nil {
			fmt.Fprintf(w, "  Lieu : %s\n", *offer.Location)
		}
		fmt.Fprintf(w, "  [%s]\n", offer.ContractTypeLabel)
		if offer.OriginalURL != nil {
			fmt.Fprintf(w, "  Voir l'offre originale : %s\n", *offer.OriginalURL)
		}
	}
}
