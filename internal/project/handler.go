package project

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	userentity "github.com/ovaphlow/pitchfork/service-construction-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-construction-go/pkg/utilities"
)

type Handler struct {
	svc    *ProjectService
	logger *zap.SugaredLogger
}

func NewHandler(svc *ProjectService, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Create handles POST /projects.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request, u *userentity.User) {
	var in Input
	if err := utilities.DecodeJSON(r, &in); err != nil {
		utilities.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		utilities.WriteValidationError(w, err)
		return
	}
	p, err := h.svc.Create(r.Context(), in)
	switch {
	case errors.Is(err, ErrClientNotFound):
		utilities.WriteError(w, http.StatusBadRequest, "Client not found")
		return
	case err != nil:
		h.internal(w, "create project", err)
		return
	}
	h.logger.Infow("project created", "id", p.ID, "client_id", p.ClientID, "by", u.ID)
	utilities.WriteJSON(w, http.StatusCreated, p)
}

// List handles GET /projects.
func (h *Handler) List(w http.ResponseWriter, r *http.Request, _ *userentity.User) {
	page, err := utilities.ParsePage(r)
	if err != nil {
		utilities.WriteValidationError(w, err)
		return
	}
	clientID, err := utilities.OptionalQueryID(r, "client_id")
	if err != nil {
		utilities.WriteValidationError(w, err)
		return
	}
	ps, err := h.svc.List(r.Context(), page, clientID)
	if err != nil {
		h.internal(w, "list projects", err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, ps)
}

// Get handles GET /projects/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request, _ *userentity.User) {
	id, err := utilities.PathID(r, "id")
	if err != nil {
		utilities.WriteValidationError(w, err)
		return
	}
	p, err := h.svc.GetWithClient(r.Context(), id)
	switch {
	case errors.Is(err, ErrNotFound):
		utilities.WriteError(w, http.StatusNotFound, "Project not found")
		return
	case err != nil:
		h.internal(w, "get project", err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, p)
}

// Update handles PUT /projects/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request, u *userentity.User) {
	id, err := utilities.PathID(r, "id")
	if err != nil {
		utilities.WriteValidationError(w, err)
		return
	}
	var in Patch
	if err := utilities.DecodeJSON(r, &in); err != nil {
		utilities.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		utilities.WriteValidationError(w, err)
		return
	}
	p, err := h.svc.Update(r.Context(), id, in)
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrClientNotFound):
		utilities.WriteError(w, http.StatusNotFound, "Project not found or invalid client_id")
		return
	case err != nil:
		h.internal(w, "update project", err)
		return
	}
	h.logger.Infow("project updated", "id", p.ID, "by", u.ID)
	utilities.WriteJSON(w, http.StatusOK, p)
}

// Delete handles DELETE /projects/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request, u *userentity.User) {
	id, err := utilities.PathID(r, "id")
	if err != nil {
		utilities.WriteValidationError(w, err)
		return
	}
	err = h.svc.Delete(r.Context(), id)
	switch {
	case errors.Is(err, ErrNotFound):
		utilities.WriteError(w, http.StatusNotFound, "Project not found")
		return
	case err != nil:
		h.internal(w, "delete project", err)
		return
	}
	h.logger.Infow("project deleted", "id", id, "by", u.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) internal(w http.ResponseWriter, op string, err error) {
	h.logger.Errorw(op+" failed", "err", err)
	utilities.WriteError(w, http.StatusInternalServerError, "internal error")
}
