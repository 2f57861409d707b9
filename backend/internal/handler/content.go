package handler

import (
	"net/http"

	"github.com/radake/polihub/shared/api"
	"github.com/radake/polihub/shared/domain"
	"github.com/radake/polihub/shared/utils"
)

// CreatePost answers 201 for accepted content and 202 for content held for review.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFrom(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	var body api.CreatePostRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	result, err := h.content.Submit(r.Context(), identity.UserId, domain.Submission{
		Kind:     body.Kind,
		ParentId: body.ParentId,
		Body:     body.Body,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	status := http.StatusCreated
	if result.Verdict.Action == domain.ActionHold {
		status = http.StatusAccepted
	}
	utils.WriteJSON(w, status, api.CreatePostResponse{Post: result.Post, Verdict: result.Verdict, Flag: result.Flag})
}

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := parseIdParam(r, "postId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	post, html, err := h.content.Post(r.Context(), id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, api.PostResponse{
		Id:        post.Id,
		UserId:    post.UserId,
		Kind:      post.Kind,
		ParentId:  post.ParentId,
		Body:      post.Body,
		BodyHTML:  html,
		CreatedAt: post.CreatedAt,
	})
}

func (h *Handler) FlagPost(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFrom(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	id, err := parseIdParam(r, "postId")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	var body api.FlagPostRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	flag, err := h.content.Report(r.Context(), identity.UserId, id, body.Reason)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, flag)
}
