package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xelth-com/saisun/internal/users"
	"github.com/xelth-com/saisun/internal/utils"
	"github.com/xelth-com/saisun/internal/websocket"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// login handles user login
func (r *Router) login(w http.ResponseWriter, req *http.Request) {
	var loginReq LoginRequest
	if err := json.NewDecoder(req.Body).Decode(&loginReq); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	user, err := r.svc.Users.Authenticate(req.Context(), loginReq.Username, loginReq.Password)
	if errors.Is(err, users.ErrInvalidCredentials) {
		r.svc.Log.Warn("login rejected", "username", loginReq.Username)
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		r.respondErr(w, req, err)
		return
	}

	accessToken, refreshToken, err := utils.GenerateTokens(user, r.svc.JWTSecret)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate tokens")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tokens": map[string]string{
			"accessToken":  accessToken,
			"refreshToken": refreshToken,
		},
		"user": user,
	})
}

// serveWs upgrades the connection after checking the token passed as a
// query parameter, since browsers cannot set headers on websocket requests.
func (r *Router) serveWs(w http.ResponseWriter, req *http.Request) {
	if r.svc.Hub == nil {
		respondError(w, http.StatusServiceUnavailable, "Live updates disabled")
		return
	}
	claims, err := utils.ValidateToken(req.URL.Query().Get("token"), r.svc.JWTSecret)
	if err != nil || claims["type"] == "refresh" {
		respondError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	websocket.ServeWs(r.svc.Hub, w, req)
}
