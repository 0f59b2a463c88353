package auth

import (
	"errors"
	"mime"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-construction-go/internal/metrics"
	"github.com/ovaphlow/pitchfork/service-construction-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-construction-go/pkg/utilities"
)

type Handler struct {
	svc     *Service
	metrics *metrics.Metrics
	logger  *zap.SugaredLogger
}

func NewHandler(svc *Service, m *metrics.Metrics, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, metrics: m, logger: logger}
}

// Login handles POST /auth/login. It accepts the OAuth2 password form
// (username, password) or a JSON body (email, password).
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	creds, err := readCredentials(r)
	if err != nil {
		h.metrics.RecordAuthAttempt("login", "invalid_payload")
		utilities.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := creds.Validate(); err != nil {
		h.metrics.RecordAuthAttempt("login", "invalid_payload")
		utilities.WriteValidationError(w, err)
		return
	}
	tok, err := h.svc.Login(r.Context(), creds)
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		h.metrics.RecordAuthAttempt("login", "invalid_credentials")
		h.logger.Infow("login rejected", "email", creds.Email)
		unauthorized(w, "Incorrect email or password")
		return
	case err != nil:
		h.metrics.RecordAuthAttempt("login", "error")
		h.logger.Errorw("login failed", "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.metrics.RecordAuthAttempt("login", "success")
	utilities.WriteJSON(w, http.StatusOK, tok)
}

func readCredentials(r *http.Request) (Credentials, error) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mt {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return Credentials{}, err
		}
		return Credentials{Email: r.PostFormValue("username"), Password: r.PostFormValue("password")}, nil
	default:
		var c Credentials
		err := utilities.DecodeJSON(r, &c)
		return c, err
	}
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request, admin *entity.User) {
	var in Registration
	if err := utilities.DecodeJSON(r, &in); err != nil {
		utilities.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		h.metrics.RecordAuthAttempt("register", "invalid_payload")
		utilities.WriteValidationError(w, err)
		return
	}
	u, err := h.svc.Register(r.Context(), in)
	switch {
	case errors.Is(err, ErrEmailTaken):
		h.metrics.RecordAuthAttempt("register", "email_taken")
		utilities.WriteError(w, http.StatusBadRequest, "Email already registered")
		return
	case err != nil:
		h.metrics.RecordAuthAttempt("register", "error")
		h.logger.Errorw("register failed", "err", err)
		utilities.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.metrics.RecordAuthAttempt("register", "success")
	h.logger.Infow("user registered", "id", u.ID, "is_admin", u.IsAdmin, "by", admin.ID)
	utilities.WriteJSON(w, http.StatusCreated, u)
}

// Me handles GET /auth/me.
func (h *Handler) Me(w http.ResponseWriter, _ *http.Request, u *entity.User) {
	utilities.WriteJSON(w, http.StatusOK, u)
}
