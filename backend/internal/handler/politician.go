package handler

import (
	"net/http"

	"github.com/radake/polihub/shared/api"
	"github.com/radake/polihub/shared/domain"
	"github.com/radake/polihub/shared/utils"
)

func (h *Handler) ListPoliticians(w http.ResponseWriter, r *http.Request) {
	politicians, err := h.politician.List(r.Context())
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if politicians == nil {
		politicians = []domain.Politician{}
	}
	writeJSON(w, api.PoliticianListResponse{Politicians: politicians})
}

func (h *Handler) CreatePolitician(w http.ResponseWriter, r *http.Request) {
	var body api.PoliticianRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	p, err := h.politician.Create(r.Context(), politicianFrom(body))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) UpdatePolitician(w http.ResponseWriter, r *http.Request) {
	id, err := parseIdParam(r, "politicianId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	var body api.PoliticianRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	p := politicianFrom(body)
	p.Id = id
	updated, err := h.politician.Update(r.Context(), p)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, updated)
}

func (h *Handler) DeletePolitician(w http.ResponseWriter, r *http.Request) {
	id, err := parseIdParam(r, "politicianId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.politician.Delete(r.Context(), id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func politicianFrom(body api.PoliticianRequest) domain.Politician {
	return domain.Politician{
		Name:     body.Name,
		Party:    body.Party,
		County:   body.County,
		Position: body.Position,
	}
}
