package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"almoxarifado_backend/internal/models"
	"almoxarifado_backend/internal/services"
	"almoxarifado_backend/pkg/utils"
)

// AuthHandler holds the auth service.
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// Register handles account creation.
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	user, err := h.authService.RegisterUser(req)
	if err != nil {
		utils.LogError(err, "Register: Error from authService.RegisterUser")
		if errors.Is(err, services.ErrUsernameExists) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict,
				"Username already exists.", err.Error()))
			return
		}
		respondInternal(c, "Failed to register user.")
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Login authenticates a user and issues tokens.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	response, err := h.authService.LoginUser(req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized,
				"Invalid username or password.", ""))
		case errors.Is(err, services.ErrUserInactive):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden,
				"Account is disabled.", ""))
		default:
			utils.LogError(err, "Login: Error from authService.LoginUser")
			respondInternal(c, "Failed to log in.")
		}
		return
	}
	c.JSON(http.StatusOK, response)
}

// Profile returns the authenticated user's account.
func (h *AuthHandler) Profile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.authService.GetUserProfile(userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound,
				"User not found.", ""))
			return
		}
		utils.LogError(err, "Profile: Error from authService.GetUserProfile for userID "+utils.Int64ToStr(userID))
		respondInternal(c, "Failed to fetch profile.")
		return
	}
	c.JSON(http.StatusOK, user)
}
