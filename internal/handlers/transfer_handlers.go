package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"almoxarifado_backend/internal/models"
	"almoxarifado_backend/internal/repositories"
	"almoxarifado_backend/internal/services"
	"almoxarifado_backend/pkg/utils"
)

// TransferHandler holds the transfer service.
type TransferHandler struct {
	transferService services.TransferService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(ts services.TransferService) *TransferHandler {
	return &TransferHandler{transferService: ts}
}

// RequestTransfer opens a cross-site request with the site as destination.
func (h *TransferHandler) RequestTransfer(c *gin.Context) {
	siteID, ok := pathID(c, "site_id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.RequestTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	transfer, err := h.transferService.RequestTransfer(siteID, userID, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidTransferKind),
			errors.Is(err, services.ErrInvalidQuantity),
			errors.Is(err, services.ErrSameSiteTransfer):
			utils.RespondValidationFailed(c, err.Error())
		case errors.Is(err, services.ErrSiteNotFound), errors.Is(err, services.ErrMaterialNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound,
				err.Error(), ""))
		default:
			utils.LogError(err, "RequestTransfer: Error from transferService.RequestTransfer")
			respondInternal(c, "Failed to request transfer.")
		}
		return
	}
	c.JSON(http.StatusCreated, transfer)
}

// ResolveTransfer moves a pending request to Aprovada, Recusada or Cancelada.
func (h *TransferHandler) ResolveTransfer(c *gin.Context) {
	siteID, ok := pathID(c, "site_id")
	if !ok {
		return
	}
	transferID, ok := pathID(c, "transfer_id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		Status models.TransferStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	transfer, err := h.transferService.ResolveTransfer(siteID, userID, transferID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidResolution):
			utils.RespondValidationFailed(c, err.Error())
		case errors.Is(err, services.ErrTransferNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound,
				"Transfer not found.", ""))
		case errors.Is(err, services.ErrTransferResolved):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict,
				"Transfer already resolved.", ""))
		case errors.Is(err, services.ErrNotTransferParty),
			errors.Is(err, services.ErrCancelNotRequester),
			errors.Is(err, services.ErrApproveNotOriginSite):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden,
				err.Error(), ""))
		default:
			utils.LogError(err, "ResolveTransfer: Error from transferService.ResolveTransfer")
			respondInternal(c, "Failed to resolve transfer.")
		}
		return
	}
	c.JSON(http.StatusOK, transfer)
}

// GetPending lists the site's pending requests. The role query selects
// received (default) or sent.
func (h *TransferHandler) GetPending(c *gin.Context) {
	siteID, ok := pathID(c, "site_id")
	if !ok {
		return
	}
	role := repositories.RoleReceived
	if c.Query("role") == string(repositories.RoleSent) {
		role = repositories.RoleSent
	}

	transfers, err := h.transferService.GetPending(siteID, role)
	if err != nil {
		utils.LogError(err, "GetPending: Error from transferService.GetPending")
		respondInternal(c, "Failed to fetch pending transfers.")
		return
	}
	c.JSON(http.StatusOK, transfers)
}

// GetTransferHistory lists the site's resolved requests.
func (h *TransferHandler) GetTransferHistory(c *gin.Context) {
	siteID, ok := pathID(c, "site_id")
	if !ok {
		return
	}

	transfers, err := h.transferService.GetHistory(siteID)
	if err != nil {
		utils.LogError(err, "GetTransferHistory: Error from transferService.GetHistory")
		respondInternal(c, "Failed to fetch transfer history.")
		return
	}
	c.JSON(http.StatusOK, transfers)
}

// GetLoanBalances returns the site's outstanding loan lines, split into
// credits (owed to it) and debts (owed by it).
func (h *TransferHandler) GetLoanBalances(c *gin.Context) {
	siteID, ok := pathID(c, "site_id")
	if !ok {
		return
	}

	balances, err := h.transferService.ComputeLoanBalances(siteID)
	if err != nil {
		utils.LogError(err, "GetLoanBalances: Error from transferService.ComputeLoanBalances")
		respondInternal(c, "Failed to compute loan balances.")
		return
	}
	c.JSON(http.StatusOK, balances)
}
