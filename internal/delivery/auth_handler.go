package delivery

import (
	"encoding/json"
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/portfolio-admin/internal/ports"
)

const maxLoginBody = 4 << 10

type AuthHandler struct {
	auth ports.AuthService
	log  *logger.ZapLogger
}

func NewAuthHandler(auth ports.AuthService, log *logger.ZapLogger) *AuthHandler {
	return &AuthHandler{
		auth: auth,
		log:  log,
	}
}

// POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json", err.Error())
		return
	}

	token, err := h.auth.Login(r.Context(), req.Password)
	if err != nil {
		h.log.Log(logger.LogEntry{
			Level:   "warn",
			Message: "admin login rejected",
			Fields:  map[string]any{"remote": r.RemoteAddr},
		})
		writeError(w, http.StatusUnauthorized, "invalid password", "")
		return
	}

	h.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "admin login",
		Fields:  map[string]any{"remote": r.RemoteAddr},
	})

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
