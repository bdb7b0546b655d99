package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"catalog-admin/internal/auth"
)

type AuthHandler struct {
	svc *auth.Service
}

func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type signInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /v1/auth/signin
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	user, err := h.svc.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sign in failed"})
		return
	}

	if err := auth.StoreIdentity(c, user.Email); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not persist session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"email": user.Email})
}

// POST /v1/auth/signout
func (h *AuthHandler) SignOut(c *gin.Context) {
	if err := auth.ClearIdentity(c); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not clear session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}
