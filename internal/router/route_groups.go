package router

import (
	"github.com/gin-gonic/gin"

	"almoxarifado_backend/internal/handlers"
)

// SetupCatalogRoutes sets up the shared material catalog routes.
func SetupCatalogRoutes(authenticatedGroup *gin.RouterGroup, materialHandler *handlers.MaterialHandler) {
	materialRoutes := authenticatedGroup.Group("/materials")
	{
		materialRoutes.POST("", materialHandler.CreateMaterial)
		materialRoutes.POST("/import", materialHandler.ImportMaterials)
		materialRoutes.POST("/batch-delete", materialHandler.DeleteMaterials)
		materialRoutes.GET("/categories", materialHandler.GetCategories)
		materialRoutes.GET("/units", materialHandler.GetUnits)
		materialRoutes.GET("/:material_id", materialHandler.GetMaterialByID)
		materialRoutes.PUT("/:material_id", materialHandler.UpdateMaterial)
	}
}

// SetupSiteRoutes sets up everything scoped to one site: stock, movements,
// transfers, schedule and notifications.
func SetupSiteRoutes(
	authenticatedGroup *gin.RouterGroup,
	materialHandler *handlers.MaterialHandler,
	movementHandler *handlers.MovementHandler,
	transferHandler *handlers.TransferHandler,
	kitHandler *handlers.KitHandler,
	planningHandler *handlers.PlanningHandler,
) {
	siteRoutes := authenticatedGroup.Group("/sites/:site_id")
	{
		siteRoutes.GET("", materialHandler.GetSite)
		siteRoutes.GET("/others", materialHandler.GetOtherSites)
		siteRoutes.GET("/materials", materialHandler.GetMaterials)
		siteRoutes.GET("/materials/:material_id/balance", movementHandler.GetBalance)

		siteRoutes.POST("/movements", movementHandler.RecordMovement)
		siteRoutes.GET("/movements", movementHandler.GetHistory)
		siteRoutes.POST("/movements/:movement_id/reverse", movementHandler.ReverseMovement)

		siteRoutes.POST("/transfers", transferHandler.RequestTransfer)
		siteRoutes.PATCH("/transfers/:transfer_id", transferHandler.ResolveTransfer)
		siteRoutes.GET("/transfers/pending", transferHandler.GetPending)
		siteRoutes.GET("/transfers/history", transferHandler.GetTransferHistory)
		siteRoutes.GET("/loan-balances", transferHandler.GetLoanBalances)

		siteRoutes.POST("/kits", kitHandler.CreateKit)
		siteRoutes.GET("/kits", kitHandler.GetKits)

		siteRoutes.POST("/schedule/import", planningHandler.ImportSchedule)
		siteRoutes.GET("/tasks", planningHandler.GetTasks)

		siteRoutes.POST("/assembly-requests/generate", planningHandler.GenerateAssemblyRequests)
		siteRoutes.GET("/assembly-requests", planningHandler.GetAssemblyRequests)
		siteRoutes.POST("/purchase-notifications/generate", planningHandler.GeneratePurchaseNotifications)
		siteRoutes.GET("/purchase-notifications", planningHandler.GetPurchaseNotifications)
	}
}

// SetupKitRoutes sets up the site-independent kit routes.
func SetupKitRoutes(authenticatedGroup *gin.RouterGroup, kitHandler *handlers.KitHandler) {
	kitRoutes := authenticatedGroup.Group("/kits")
	{
		kitRoutes.GET("/:kit_id", kitHandler.GetKitByID)
		kitRoutes.PUT("/:kit_id", kitHandler.UpdateKit)
		kitRoutes.DELETE("/:kit_id", kitHandler.DeleteKit)
	}
}

// SetupPlanningRoutes sets up kit-task linkage, notification status updates
// and lead time configuration.
func SetupPlanningRoutes(authenticatedGroup *gin.RouterGroup, planningHandler *handlers.PlanningHandler) {
	taskRoutes := authenticatedGroup.Group("/tasks/:task_id")
	{
		taskRoutes.POST("/kits", planningHandler.LinkKit)
		taskRoutes.GET("/kits", planningHandler.GetTaskLinks)
	}

	authenticatedGroup.POST("/kits/:kit_id/links/batch", planningHandler.BatchLinkTasks)

	authenticatedGroup.DELETE("/kit-links/:link_id", planningHandler.UnlinkKit)
	authenticatedGroup.PATCH("/assembly-requests/:request_id/status", planningHandler.UpdateAssemblyStatus)
	authenticatedGroup.PATCH("/purchase-notifications/:notification_id/status", planningHandler.UpdatePurchaseStatus)

	leadTimeRoutes := authenticatedGroup.Group("/lead-times")
	{
		leadTimeRoutes.GET("", planningHandler.GetLeadTimes)
		leadTimeRoutes.POST("", planningHandler.UpsertLeadTime)
		leadTimeRoutes.DELETE("/:lead_time_id", planningHandler.DeleteLeadTime)
	}
}
