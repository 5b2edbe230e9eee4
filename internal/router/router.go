package router

import (
	"database/sql"

	"github.com/gin-gonic/gin"

	"almoxarifado_backend/internal/handlers"
	"almoxarifado_backend/internal/middleware"
	"almoxarifado_backend/internal/repositories"
	"almoxarifado_backend/internal/services"
)

// Setup wires repositories, services and handlers, and registers all
// application routes.
func Setup(engine *gin.Engine, db, readDB *sql.DB) {
	txRunner := repositories.NewTxRunner(db)

	authRepo := repositories.NewAuthRepository(db)
	materialRepo := repositories.NewMaterialRepository(db, readDB)
	siteRepo := repositories.NewSiteRepository(readDB)
	stockRepo := repositories.NewStockRepository(db)
	movementRepo := repositories.NewMovementRepository(db)
	transferRepo := repositories.NewTransferRepository(db, readDB)
	kitRepo := repositories.NewKitRepository(db, readDB)
	taskRepo := repositories.NewTaskRepository(db)
	linkRepo := repositories.NewTaskKitLinkRepository(db, readDB)
	assemblyRepo := repositories.NewAssemblyRepository(db, readDB)
	purchaseRepo := repositories.NewPurchaseNotificationRepository(db, readDB)
	leadTimeRepo := repositories.NewLeadTimeRepository(db, readDB)

	authService := services.NewAuthService(authRepo)
	catalogService := services.NewCatalogService(materialRepo, siteRepo, txRunner)
	movementService := services.NewMovementService(movementRepo, stockRepo, materialRepo, txRunner)
	transferService := services.NewTransferService(transferRepo, movementRepo, stockRepo, materialRepo, siteRepo, txRunner)
	kitService := services.NewKitService(kitRepo, txRunner)
	planningService := services.NewPlanningService(taskRepo, linkRepo, kitRepo, assemblyRepo, purchaseRepo, leadTimeRepo, txRunner)

	authHandler := handlers.NewAuthHandler(authService)
	materialHandler := handlers.NewMaterialHandler(catalogService)
	movementHandler := handlers.NewMovementHandler(movementService)
	transferHandler := handlers.NewTransferHandler(transferService)
	kitHandler := handlers.NewKitHandler(kitService)
	planningHandler := handlers.NewPlanningHandler(planningService)

	apiV1 := engine.Group("/api/v1")

	publicAuth := apiV1.Group("/auth")
	{
		publicAuth.POST("/register", authHandler.Register)
		publicAuth.POST("/login", authHandler.Login)
	}

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		authenticated.GET("/auth/me", authHandler.Profile)

		SetupCatalogRoutes(authenticated, materialHandler)
		SetupSiteRoutes(authenticated, materialHandler, movementHandler, transferHandler, kitHandler, planningHandler)
		SetupKitRoutes(authenticated, kitHandler)
		SetupPlanningRoutes(authenticated, planningHandler)
	}
}
