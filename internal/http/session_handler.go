package http

import (
	"encoding/json"
	"net/http"

	"github.com/fjod/go_storefront/internal/service"
)

type SessionHandler struct {
	storefront *service.Storefront
}

func NewSessionHandler(storefront *service.Storefront) *SessionHandler {
	return &SessionHandler{storefront: storefront}
}

type LoginRequestDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponseDTO struct {
	Token string `json:"token"`
	User  string `json:"user"`
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}

	session, err := h.storefront.Login(req.Username, req.Password)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, LoginResponseDTO{
		Token: session.Token,
		User:  session.User,
	})
}
