package api

import "github.com/radake/polihub/shared/domain"

type PoliticianRequest struct {
	Name     string `json:"name" validate:"required,max=128"`
	Party    string `json:"party" validate:"max=128"`
	County   string `json:"county" validate:"max=32"`
	Position string `json:"position" validate:"required,max=64"`
}

type PoliticianListResponse struct {
	Politicians []domain.Politician `json:"politicians"`
}
