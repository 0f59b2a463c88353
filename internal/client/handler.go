package client

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	userentity "github.com/ovaphlow/pitchfork/service-construction-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-construction-go/pkg/utilities"
)

type Handler struct {
	svc    *ClientService
	logger *zap.SugaredLogger
}

func NewHandler(svc *ClientService, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Create handles POST /clients.
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
	c, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.internal(w, "create client", err)
		return
	}
	h.logger.Infow("client created", "id", c.ID, "by", u.ID)
	utilities.WriteJSON(w, http.StatusCreated, c)
}

// List handles GET /clients.
func (h *Handler) List(w http.ResponseWriter, r *http.Request, _ *userentity.User) {
	page, err := utilities.ParsePage(r)
	if err != nil {
		utilities.WriteValidationError(w, err)
		return
	}
	cs, err := h.svc.List(r.Context(), page)
	if err != nil {
		h.internal(w, "list clients", err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, cs)
}

// Get handles GET /clients/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request, _ *userentity.User) {
	id, err := utilities.PathID(r, "id")
	if err != nil {
		utilities.WriteValidationError(w, err)
		return
	}
	c, err := h.svc.GetWithProjects(r.Context(), id)
	if err != nil {
		h.fail(w, "get client", err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, c)
}

// Update handles PUT /clients/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request, u *userentity.User) {
	id, err := utilities.PathID(r, "id")
	if err != nil {
		utilities.WriteValidationError(w, err)
		return
	}
	var p Patch
	if err := utilities.DecodeJSON(r, &p); err != nil {
		utilities.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	p.Normalize()
	if err := p.Validate(); err != nil {
		utilities.WriteValidationError(w, err)
		return
	}
	c, err := h.svc.Update(r.Context(), id, p)
	if err != nil {
		h.fail(w, "update client", err)
		return
	}
	h.logger.Infow("client updated", "id", c.ID, "by", u.ID)
	utilities.WriteJSON(w, http.StatusOK, c)
}

// Delete handles DELETE /clients/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request, u *userentity.User) {
	id, err := utilities.PathID(r, "id")
	if err != nil {
		utilities.WriteValidationError(w, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.fail(w, "delete client", err)
		return
	}
	h.logger.Infow("client deleted", "id", id, "by", u.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ErrNotFound) {
		utilities.WriteError(w, http.StatusNotFound, "Client not found")
		return
	}
	h.internal(w, op, err)
}

func (h *Handler) internal(w http.ResponseWriter, op string, err error) {
	h.logger.Errorw(op+" failed", "err", err)
	utilities.WriteError(w, http.StatusInternalServerError, "internal error")
}
