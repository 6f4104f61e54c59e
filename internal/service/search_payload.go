package service

import (
	"strings"

	"github.com/spec-kit/data-collector/internal/domain"
)

// searchResponse mirrors the body of GET /offres/search.
type searchResponse struct {
	Resultats []offerPayload `json:"resultats"`
}

// offerPayload keeps only the fields rendered on a card.
type offerPayload struct {
	Intitule           string             `json:"intitule"`
	Entreprise         *entreprisePayload `json:"entreprise"`
	LieuTravail        *lieuPayload       `json:"lieuTravail"`
	TypeContratLibelle string             `json:"typeContratLibelle"`
	OrigineOffre       *originePayload    `json:"origineOffre"`
}

type entreprisePayload struct {
	Nom string `json:"nom"`
}

type lieuPayload struct {
	Libelle string `json:"libelle"`
}

type originePayload struct {
	URLOrigine string `json:"urlOrigine"`
}

func (o offerPayload) toListing() domain.JobListing {
	listing := domain.JobListing{
		Title:             o.Intitule,
		ContractTypeLabel: o.TypeContratLibelle,
	}
	if o.Entreprise != nil {
		listing.CompanyName = optional(o.Entreprise.Nom)
	}
	if o.LieuTravail != nil {
		listing.Location = optional(o.LieuTravail.Libelle)
	}
	if o.OrigineOffre != nil {
		listing.OriginalURL = optional(o.OrigineOffre.URLOrigine)
	}
	return listing
}

func optional(val string) *string {
	if strings.TrimSpace(val) == "" {
		return nil
	}
	return &val
}
