package auth

import (
	"encoding/json"
	"net/http"

	"github.com/DevSheroz/glori82-admin/internal/common"
)

// Handler exposes authentication endpoints.
type Handler struct {
	Service *Service
}

type loginRequest struct {
	UserName   string `json:"user_name" validate:"required"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"remember_me"`
}

// Login verifies credentials and returns an access token.
func (h Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON payload", nil)
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		common.RenderError(w, err)
		return
	}

	result, err := h.Service.Login(r.Context(), req.UserName, req.Password, req.RememberMe)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

// Me returns the authenticated user's profile.
func (h Handler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := common.SessionFromContext(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized", nil)
		return
	}
	user, err := h.Service.Me(r.Context(), session.UserID)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": user})
}
