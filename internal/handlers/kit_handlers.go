package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"almoxarifado_backend/internal/models"
	"almoxarifado_backend/internal/services"
	"almoxarifado_backend/pkg/utils"
)

// KitHandler holds the kit service.
type KitHandler struct {
	kitService services.KitService
}

// NewKitHandler creates a new KitHandler.
func NewKitHandler(ks services.KitService) *KitHandler {
	return &KitHandler{kitService: ks}
}

// CreateKit creates a kit with its lines at the site.
func (h *KitHandler) CreateKit(c *gin.Context) {
	siteID, ok := pathID(c, "site_id")
	if !ok {
		return
	}
	var kit models.Kit
	if err := c.ShouldBindJSON(&kit); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	kit.SiteID = siteID

	if err := h.kitService.CreateKit(&kit); err != nil {
		if errors.Is(err, services.ErrEmptyKitName) || errors.Is(err, services.ErrInvalidKitLines) {
			utils.RespondValidationFailed(c, err.Error())
			return
		}
		utils.LogError(err, "CreateKit: Error from kitService.CreateKit")
		respondInternal(c, "Failed to create kit.")
		return
	}
	c.JSON(http.StatusCreated, kit)
}

// UpdateKit updates a kit and replaces its whole line set.
func (h *KitHandler) UpdateKit(c *gin.Context) {
	kitID, ok := pathID(c, "kit_id")
	if !ok {
		return
	}
	var kit models.Kit
	if err := c.ShouldBindJSON(&kit); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	kit.ID = kitID

	if err := h.kitService.UpdateKit(&kit); err != nil {
		switch {
		case errors.Is(err, services.ErrKitNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound,
				"Kit not found.", ""))
		case errors.Is(err, services.ErrEmptyKitName), errors.Is(err, services.ErrInvalidKitLines):
			utils.RespondValidationFailed(c, err.Error())
		default:
			utils.LogError(err, "UpdateKit: Error from kitService.UpdateKit")
			respondInternal(c, "Failed to update kit.")
		}
		return
	}
	c.JSON(http.StatusOK, kit)
}

// DeleteKit removes a kit and its lines.
func (h *KitHandler) DeleteKit(c *gin.Context) {
	kitID, ok := pathID(c, "kit_id")
	if !ok {
		return
	}

	if err := h.kitService.DeleteKit(kitID); err != nil {
		if errors.Is(err, services.ErrKitNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound,
				"Kit not found.", ""))
			return
		}
		utils.LogError(err, "DeleteKit: Error from kitService.DeleteKit")
		respondInternal(c, "Failed to delete kit.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Kit deleted"})
}

// GetKitByID fetches a kit with its lines.
func (h *KitHandler) GetKitByID(c *gin.Context) {
	kitID, ok := pathID(c, "kit_id")
	if !ok {
		return
	}

	kit, err := h.kitService.GetKitByID(kitID)
	if err != nil {
		if errors.Is(err, services.ErrKitNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound,
				"Kit not found.", ""))
			return
		}
		utils.LogError(err, "GetKitByID: Error from kitService.GetKitByID")
		respondInternal(c, "Failed to fetch kit.")
		return
	}
	c.JSON(http.StatusOK, kit)
}

// GetKits lists the site's kits.
func (h *KitHandler) GetKits(c *gin.Context) {
	siteID, ok := pathID(c, "site_id")
	if !ok {
		return
	}

	kits, err := h.kitService.GetKitsBySite(siteID)
	if err != nil {
		utils.LogError(err, "GetKits: Error from kitService.GetKitsBySite")
		respondInternal(c, "Failed to fetch kits.")
		return
	}
	c.JSON(http.StatusOK, kits)
}
