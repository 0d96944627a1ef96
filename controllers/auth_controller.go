package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fintrack_backend/services"
)

// AuthController handles registration and login.
type AuthController struct {
	auth *services.AuthService
}

// NewAuthController creates a new auth controller.
func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

// Register creates a new account
// POST /api/v1/auth/register
func (ac *AuthController) Register(c *gin.Context) {
	var input services.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result, err := ac.auth.Register(c.Request.Context(), input)
	if err != nil {
		failErr(c, err)
		return
	}
	created(c, result)
}

// Login authenticates a user
// POST /api/v1/auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var input services.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result, err := ac.auth.Login(c.Request.Context(), input)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, result)
}
