package handler

import (
	"encoding/json"
	"net/http"

	"mnemosyne-server/internal/domain"
	"mnemosyne-server/internal/middleware"
	"mnemosyne-server/internal/service"
	"mnemosyne-server/pkg/response"

	"github.com/go-playground/validator/v10"
)

type AuthHandler struct {
	sessions  *service.SessionService
	validator *validator.Validate
}

func NewAuthHandler(sessions *service.SessionService) *AuthHandler {
	return &AuthHandler{
		sessions:  sessions,
		validator: validator.New(),
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	loginResp, err := h.sessions.Login(&req)
	if err != nil {
		if err == service.ErrInvalidCredentials {
			response.Unauthorized(w, err.Error())
			return
		}
		response.InternalError(w, err.Error())
		return
	}

	response.Success(w, loginResp)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	login := middleware.GetUserID(r)
	if login == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	h.sessions.Logout(login)

	response.Success(w, map[string]string{
		"message": "Logged out successfully",
	})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	login := middleware.GetUserID(r)
	if login == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	session, err := h.sessions.Get(login)
	if err != nil {
		response.Unauthorized(w, "session expired, please login again")
		return
	}

	response.Success(w, session.User)
}
