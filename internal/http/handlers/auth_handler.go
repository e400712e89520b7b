// README: Token endpoint exchanging username/password for a signed access token.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	users  UserService
	issuer TokenIssuer
}

func NewAuthHandler(users UserService, issuer TokenIssuer) *AuthHandler {
	return &AuthHandler{users: users, issuer: issuer}
}

type tokenReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResp struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (h *AuthHandler) Token(c *gin.Context) {
	var req tokenReq
	if !bindJSON(c, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(c, http.StatusBadRequest, "missing fields")
		return
	}
	u, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	token, exp, err := h.issuer.Issue(u.ID.String(), u.Role())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, tokenResp{AccessToken: token, TokenType: "Bearer", ExpiresAt: exp})
}
