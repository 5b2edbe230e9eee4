package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"almoxarifado_backend/internal/models"
	"almoxarifado_backend/internal/repositories"
	"almoxarifado_backend/internal/services"
	"almoxarifado_backend/pkg/utils"
)

// MaterialHandler holds the catalog service.
type MaterialHandler struct {
	catalogService services.CatalogService
}

// NewMaterialHandler creates a new MaterialHandler.
func NewMaterialHandler(cs services.CatalogService) *MaterialHandler {
	return &MaterialHandler{catalogService: cs}
}

// CreateMaterial handles the creation of a new catalog material.
func (h *MaterialHandler) CreateMaterial(c *gin.Context) {
	var material models.Material
	if err := c.ShouldBindJSON(&material); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	if err := h.catalogService.CreateMaterial(&material); err != nil {
		switch {
		case errors.Is(err, services.ErrDuplicateCode):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict,
				"Material code already exists.", err.Error()))
		case errors.Is(err, services.ErrEmptyCode):
			utils.RespondValidationFailed(c, err.Error())
		default:
			utils.LogError(err, "CreateMaterial: Error from catalogService.CreateMaterial")
			respondInternal(c, "Failed to create material.")
		}
		return
	}
	c.JSON(http.StatusCreated, material)
}

// UpdateMaterial handles a full update of a catalog material.
func (h *MaterialHandler) UpdateMaterial(c *gin.Context) {
	materialID, ok := pathID(c, "material_id")
	if !ok {
		return
	}
	var material models.Material
	if err := c.ShouldBindJSON(&material); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	material.ID = materialID

	if err := h.catalogService.UpdateMaterial(&material); err != nil {
		switch {
		case errors.Is(err, services.ErrMaterialNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound,
				"Material not found.", ""))
		case errors.Is(err, services.ErrDuplicateCode):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict,
				"Material code already exists.", err.Error()))
		case errors.Is(err, services.ErrEmptyCode):
			utils.RespondValidationFailed(c, err.Error())
		default:
			utils.LogError(err, "UpdateMaterial: Error from catalogService.UpdateMaterial")
			respondInternal(c, "Failed to update material.")
		}
		return
	}
	c.JSON(http.StatusOK, material)
}

// DeleteMaterials handles bulk deletion by id list.
func (h *MaterialHandler) DeleteMaterials(c *gin.Context) {
	var req struct {
		MaterialIDs []int64 `json:"material_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	deleted, err := h.catalogService.DeleteMaterials(req.MaterialIDs)
	if err != nil {
		utils.LogError(err, "DeleteMaterials: Error from catalogService.DeleteMaterials")
		respondInternal(c, "Failed to delete materials.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// GetMaterialByID fetches one catalog material.
func (h *MaterialHandler) GetMaterialByID(c *gin.Context) {
	materialID, ok := pathID(c, "material_id")
	if !ok {
		return
	}

	material, err := h.catalogService.GetMaterialByID(materialID)
	if err != nil {
		if errors.Is(err, services.ErrMaterialNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound,
				"Material not found.", ""))
			return
		}
		utils.LogError(err, "GetMaterialByID: Error from catalogService.GetMaterialByID")
		respondInternal(c, "Failed to fetch material.")
		return
	}
	c.JSON(http.StatusOK, material)
}

// GetMaterials lists the catalog with the site's balances joined in.
func (h *MaterialHandler) GetMaterials(c *gin.Context) {
	siteID, ok := pathID(c, "site_id")
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	if page <= 0 {
		page = 1
	}
	filters := repositories.MaterialFilters{
		Description: c.Query("description"),
		Category:    c.Query("category"),
	}

	result, err := h.catalogService.GetMaterials(siteID, filters, page, pageSize)
	if err != nil {
		utils.LogError(err, "GetMaterials: Error from catalogService.GetMaterials")
		respondInternal(c, "Failed to fetch materials.")
		return
	}
	c.JSON(http.StatusOK, result)
}

// ImportMaterials handles a batch catalog import with per-row outcomes.
func (h *MaterialHandler) ImportMaterials(c *gin.Context) {
	var rows []models.MaterialImportRow
	if err := c.ShouldBindJSON(&rows); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	outcomes := h.catalogService.ImportMaterials(rows)
	c.JSON(http.StatusOK, gin.H{"results": outcomes})
}

// GetCategories lists distinct material categories.
func (h *MaterialHandler) GetCategories(c *gin.Context) {
	categories, err := h.catalogService.ListCategories()
	if err != nil {
		utils.LogError(err, "GetCategories: Error from catalogService.ListCategories")
		respondInternal(c, "Failed to fetch categories.")
		return
	}
	c.JSON(http.StatusOK, categories)
}

// GetUnits lists distinct material units.
func (h *MaterialHandler) GetUnits(c *gin.Context) {
	units, err := h.catalogService.ListUnits()
	if err != nil {
		utils.LogError(err, "GetUnits: Error from catalogService.ListUnits")
		respondInternal(c, "Failed to fetch units.")
		return
	}
	c.JSON(http.StatusOK, units)
}

// GetSite fetches one site.
func (h *MaterialHandler) GetSite(c *gin.Context) {
	siteID, ok := pathID(c, "site_id")
	if !ok {
		return
	}

	site, err := h.catalogService.GetSite(siteID)
	if err != nil {
		if errors.Is(err, services.ErrSiteNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound,
				"Site not found.", ""))
			return
		}
		utils.LogError(err, "GetSite: Error from catalogService.GetSite")
		respondInternal(c, "Failed to fetch site.")
		return
	}
	c.JSON(http.StatusOK, site)
}

// GetOtherSites lists every site except the current one, for transfer
// destination pickers.
func (h *MaterialHandler) GetOtherSites(c *gin.Context) {
	siteID, ok := pathID(c, "site_id")
	if !ok {
		return
	}

	sites, err := h.catalogService.ListOtherSites(siteID)
	if err != nil {
		utils.LogError(err, "GetOtherSites: Error from catalogService.ListOtherSites")
		respondInternal(c, "Failed to fetch sites.")
		return
	}
	c.JSON(http.StatusOK, sites)
}
