package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"almoxarifado_backend/pkg/utils"
)

// pathID parses an int64 path parameter, responding with 400 on failure.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := utils.StrToInt64(c.Param(name))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest,
			"Invalid "+name+" parameter", err.Error()))
		return 0, false
	}
	return id, true
}

// currentUserID reads the authenticated user id placed by AuthMiddleware.
func currentUserID(c *gin.Context) (int64, bool) {
	value, exists := c.Get("userID")
	if !exists {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized,
			"Authentication required", ""))
		return 0, false
	}
	userID, ok := value.(int64)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError,
			"Invalid user id in context", ""))
		return 0, false
	}
	return userID, true
}

func respondInternal(c *gin.Context, message string) {
	utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError,
		utils.ErrCodeInternalServerError, message, "Internal error"))
}
