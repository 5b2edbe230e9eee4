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

// PlanningHandler holds the planning service.
type PlanningHandler struct {
	planningService services.PlanningService
}

// NewPlanningHandler creates a new PlanningHandler.
func NewPlanningHandler(ps services.PlanningService) *PlanningHandler {
	return &PlanningHandler{planningService: ps}
}

// ImportSchedule reconciles the site schedule with the uploaded rows and
// returns the diff.
func (h *PlanningHandler) ImportSchedule(c *gin.Context) {
	siteID, ok := pathID(c, "site_id")
	if !ok {
		return
	}
	var rows []models.TaskImportRow
	if err := c.ShouldBindJSON(&rows); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	diff, err := h.planningService.ImportSchedule(siteID, rows)
	if err != nil {
		utils.LogError(err, "ImportSchedule: Error from planningService.ImportSchedule")
		respondInternal(c, "Failed to import schedule.")
		return
	}
	c.JSON(http.StatusOK, diff)
}

// GetTasks lists the site's schedule.
func (h *PlanningHandler) GetTasks(c *gin.Context) {
	siteID, ok := pathID(c, "site_id")
	if !ok {
		return
	}

	tasks, err := h.planningService.GetTasks(siteID)
	if err != nil {
		utils.LogError(err, "GetTasks: Error from planningService.GetTasks")
		respondInternal(c, "Failed to fetch tasks.")
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// LinkKit ties one kit to a task.
func (h *PlanningHandler) LinkKit(c *gin.Context) {
	taskID, ok := pathID(c, "task_id")
	if !ok {
		return
	}
	var req services.LinkKitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	req.TaskID = taskID

	link, err := h.planningService.LinkKit(req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAlreadyLinked):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict,
				"Kit already linked to this task.", ""))
		case errors.Is(err, services.ErrInvalidKitCount):
			utils.RespondValidationFailed(c, err.Error())
		default:
			utils.LogError(err, "LinkKit: Error from planningService.LinkKit")
			respondInternal(c, "Failed to link kit.")
		}
		return
	}
	c.JSON(http.StatusCreated, link)
}

// BatchLinkTasks links one kit to several tasks, reporting per-task outcomes.
func (h *PlanningHandler) BatchLinkTasks(c *gin.Context) {
	kitID, ok := pathID(c, "kit_id")
	if !ok {
		return
	}
	var reqs []services.TaskLinkRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	outcomes := h.planningService.BatchLinkTasks(kitID, reqs)
	c.JSON(http.StatusOK, gin.H{"results": outcomes})
}

// UnlinkKit removes a task-kit link.
func (h *PlanningHandler) UnlinkKit(c *gin.Context) {
	linkID, ok := pathID(c, "link_id")
	if !ok {
		return
	}

	if err := h.planningService.UnlinkKit(linkID); err != nil {
		if errors.Is(err, services.ErrLinkNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound,
				"Link not found.", ""))
			return
		}
		utils.LogError(err, "UnlinkKit: Error from planningService.UnlinkKit")
		respondInternal(c, "Failed to unlink kit.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Link removed"})
}

// GetTaskLinks lists a task's linked kits.
func (h *PlanningHandler) GetTaskLinks(c *gin.Context) {
	taskID, ok := pathID(c, "task_id")
	if !ok {
		return
	}

	links, err := h.planningService.GetLinksByTask(taskID)
	if err != nil {
		utils.LogError(err, "GetTaskLinks: Error from planningService.GetLinksByTask")
		respondInternal(c, "Failed to fetch links.")
		return
	}
	c.JSON(http.StatusOK, links)
}

// GenerateAssemblyRequests runs the assembly generator for the site.
func (h *PlanningHandler) GenerateAssemblyRequests(c *gin.Context) {
	siteID, ok := pathID(c, "site_id")
	if !ok {
		return
	}

	aheadDays, _ := strconv.Atoi(c.DefaultQuery("ahead_days", "0"))
	created, err := h.planningService.GenerateAssemblyRequests(siteID, aheadDays)
	if err != nil {
		utils.LogError(err, "GenerateAssemblyRequests: Error from planningService.GenerateAssemblyRequests")
		respondInternal(c, "Failed to generate assembly requests.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created})
}

// GetAssemblyRequests lists the site's assembly requests.
func (h *PlanningHandler) GetAssemblyRequests(c *gin.Context) {
	siteID, ok := pathID(c, "site_id")
	if !ok {
		return
	}

	requests, err := h.planningService.GetAssemblyRequests(siteID)
	if err != nil {
		utils.LogError(err, "GetAssemblyRequests: Error from planningService.GetAssemblyRequests")
		respondInternal(c, "Failed to fetch assembly requests.")
		return
	}
	c.JSON(http.StatusOK, requests)
}

// UpdateAssemblyStatus moves an assembly request through its lifecycle.
func (h *PlanningHandler) UpdateAssemblyStatus(c *gin.Context) {
	requestID, ok := pathID(c, "request_id")
	if !ok {
		return
	}
	var req struct {
		Status models.AssemblyStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	if err := h.planningService.UpdateAssemblyStatus(requestID, req.Status); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidStatusValue):
			utils.RespondValidationFailed(c, err.Error())
		case errors.Is(err, services.ErrRequestNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound,
				"Assembly request not found.", ""))
		default:
			utils.LogError(err, "UpdateAssemblyStatus: Error from planningService.UpdateAssemblyStatus")
			respondInternal(c, "Failed to update assembly request.")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Status updated"})
}

// GeneratePurchaseNotifications runs the purchase generator for the site.
func (h *PlanningHandler) GeneratePurchaseNotifications(c *gin.Context) {
	siteID, ok := pathID(c, "site_id")
	if !ok {
		return
	}

	safetyMarginDays, _ := strconv.Atoi(c.DefaultQuery("safety_margin_days", "0"))
	created, err := h.planningService.GeneratePurchaseNotifications(siteID, safetyMarginDays)
	if err != nil {
		utils.LogError(err, "GeneratePurchaseNotifications: Error from planningService.GeneratePurchaseNotifications")
		respondInternal(c, "Failed to generate purchase notifications.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created})
}

// GetPurchaseNotifications lists the site's notifications by status,
// Pendente by default.
func (h *PlanningHandler) GetPurchaseNotifications(c *gin.Context) {
	siteID, ok := pathID(c, "site_id")
	if !ok {
		return
	}
	status := models.PurchasePending
	if value := c.Query("status"); value != "" {
		status = models.PurchaseStatus(value)
		if !status.Valid() {
			utils.RespondValidationFailed(c, "unknown status value")
			return
		}
	}

	notifications, err := h.planningService.GetPurchaseNotifications(siteID, status)
	if err != nil {
		utils.LogError(err, "GetPurchaseNotifications: Error from planningService.GetPurchaseNotifications")
		respondInternal(c, "Failed to fetch purchase notifications.")
		return
	}
	c.JSON(http.StatusOK, notifications)
}

// UpdatePurchaseStatus moves a purchase notification between Pendente and
// Solicitado.
func (h *PlanningHandler) UpdatePurchaseStatus(c *gin.Context) {
	notificationID, ok := pathID(c, "notification_id")
	if !ok {
		return
	}
	var req struct {
		Status models.PurchaseStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	if err := h.planningService.UpdatePurchaseStatus(notificationID, req.Status); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidStatusValue):
			utils.RespondValidationFailed(c, err.Error())
		case errors.Is(err, services.ErrNotificationMissing):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound,
				"Purchase notification not found.", ""))
		default:
			utils.LogError(err, "UpdatePurchaseStatus: Error from planningService.UpdatePurchaseStatus")
			respondInternal(c, "Failed to update purchase notification.")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Status updated"})
}

// UpsertLeadTime saves the purchase lead time for a category.
func (h *PlanningHandler) UpsertLeadTime(c *gin.Context) {
	var leadTime models.PurchaseLeadTime
	if err := c.ShouldBindJSON(&leadTime); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	if err := h.planningService.UpsertLeadTime(&leadTime); err != nil {
		if errors.Is(err, services.ErrInvalidLeadTime) {
			utils.RespondValidationFailed(c, err.Error())
			return
		}
		utils.LogError(err, "UpsertLeadTime: Error from planningService.UpsertLeadTime")
		respondInternal(c, "Failed to save lead time.")
		return
	}
	c.JSON(http.StatusOK, leadTime)
}

// DeleteLeadTime removes a category lead time.
func (h *PlanningHandler) DeleteLeadTime(c *gin.Context) {
	leadTimeID, ok := pathID(c, "lead_time_id")
	if !ok {
		return
	}

	if err := h.planningService.DeleteLeadTime(leadTimeID); err != nil {
		if errors.Is(err, services.ErrLeadTimeNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound,
				"Lead time not found.", ""))
			return
		}
		utils.LogError(err, "DeleteLeadTime: Error from planningService.DeleteLeadTime")
		respondInternal(c, "Failed to delete lead time.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Lead time removed"})
}

// GetLeadTimes lists every configured lead time.
func (h *PlanningHandler) GetLeadTimes(c *gin.Context) {
	leadTimes, err := h.planningService.ListLeadTimes()
	if err != nil {
		utils.LogError(err, "GetLeadTimes: Error from planningService.ListLeadTimes")
		respondInternal(c, "Failed to fetch lead times.")
		return
	}
	c.JSON(http.StatusOK, leadTimes)
}
