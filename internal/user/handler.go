package user

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-construction-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-construction-go/pkg/utilities"
)

// Handler exposes admin endpoints for account management.
type Handler struct {
	svc    *UserService
	logger *zap.SugaredLogger
}

func NewHandler(svc *UserService, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Patch handles PATCH /users/{id}.
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request, admin *entity.User) {
	id, err := utilities.PathID(r, "id")
	if err != nil {
		utilities.WriteValidationError(w, err)
		return
	}
	var req Patch
	if err := utilities.DecodeJSON(r, &req); err != nil {
		h.logger.Debugw("invalid user patch payload", "err", err)
		utilities.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := req.Validate(); err != nil {
		utilities.WriteValidationError(w, err)
		return
	}
	u, err := h.svc.Patch(r.Context(), id, req)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			utilities.WriteError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Warnw("user patch failed", "id", id, "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.logger.Infow("user updated", "id", u.ID, "by", admin.ID,
		"password_changed", req.Password != nil, "is_active", u.IsActive, "is_admin", u.IsAdmin)
	utilities.WriteJSON(w, http.StatusOK, u)
}
