package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"almoxarifado_backend/internal/models"
	"almoxarifado_backend/internal/services"
	"almoxarifado_backend/pkg/utils"
)

// MovementHandler holds the movement service.
type MovementHandler struct {
	movementService services.MovementService
}

// NewMovementHandler creates a new MovementHandler.
func NewMovementHandler(ms services.MovementService) *MovementHandler {
	return &MovementHandler{movementService: ms}
}

// RecordMovement records an Entrada or Saída at the site.
func (h *MovementHandler) RecordMovement(c *gin.Context) {
	siteID, ok := pathID(c, "site_id")
	if !ok {
		return
	}
	var req services.RecordMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	record, err := h.movementService.RecordMovement(siteID, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidMovementKind),
			errors.Is(err, services.ErrInvalidQuantity):
			utils.RespondValidationFailed(c, err.Error())
		case errors.Is(err, services.ErrMaterialNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound,
				"Material not found.", ""))
		default:
			utils.LogError(err, "RecordMovement: Error from movementService.RecordMovement")
			respondInternal(c, "Failed to record movement.")
		}
		return
	}
	c.JSON(http.StatusCreated, record)
}

// ReverseMovement undoes a direct movement once.
func (h *MovementHandler) ReverseMovement(c *gin.Context) {
	siteID, ok := pathID(c, "site_id")
	if !ok {
		return
	}
	movementID, ok := pathID(c, "movement_id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	reversal, err := h.movementService.ReverseMovement(siteID, movementID, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMovementNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound,
				"Movement not found.", ""))
		case errors.Is(err, services.ErrAlreadyReversed):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict,
				"Movement already reversed.", ""))
		case errors.Is(err, services.ErrNotReversible):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict,
				"Movement cannot be reversed.", err.Error()))
		default:
			utils.LogError(err, "ReverseMovement: Error from movementService.ReverseMovement")
			respondInternal(c, "Failed to reverse movement.")
		}
		return
	}
	c.JSON(http.StatusCreated, reversal)
}

// GetHistory lists the site's movements newest first, with optional date,
// kind and limit filters.
func (h *MovementHandler) GetHistory(c *gin.Context) {
	siteID, ok := pathID(c, "site_id")
	if !ok {
		return
	}

	var filters models.HistoryFilters
	if value := c.Query("start_date"); value != "" {
		startDate, err := utils.ParseDate(value)
		if err != nil {
			utils.RespondValidationFailed(c, "invalid start_date: "+err.Error())
			return
		}
		filters.StartDate = &startDate
	}
	if value := c.Query("end_date"); value != "" {
		endDate, err := utils.ParseDate(value)
		if err != nil {
			utils.RespondValidationFailed(c, "invalid end_date: "+err.Error())
			return
		}
		filters.EndDate = &endDate
	}
	for _, kind := range c.QueryArray("kind") {
		filters.Kinds = append(filters.Kinds, models.MovementKind(kind))
	}
	if value := c.Query("limit"); value != "" {
		limit, err := strconv.Atoi(value)
		if err != nil || limit <= 0 {
			utils.RespondValidationFailed(c, "invalid limit")
			return
		}
		filters.Limit = &limit
	}

	records, err := h.movementService.GetHistory(siteID, filters)
	if err != nil {
		utils.LogError(err, "GetHistory: Error from movementService.GetHistory")
		respondInternal(c, "Failed to fetch movement history.")
		return
	}
	c.JSON(http.StatusOK, records)
}

// GetBalance returns the site's current balance for one material.
func (h *MovementHandler) GetBalance(c *gin.Context) {
	siteID, ok := pathID(c, "site_id")
	if !ok {
		return
	}
	materialID, ok := pathID(c, "material_id")
	if !ok {
		return
	}

	balance, err := h.movementService.GetBalance(materialID, siteID)
	if err != nil {
		utils.LogError(err, "GetBalance: Error from movementService.GetBalance")
		respondInternal(c, "Failed to fetch balance.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"material_id": materialID,
		"site_id":     siteID,
		"quantity":    balance,
	})
}
