package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"rental-system/internal/repositories"
	"rental-system/internal/services"
	"rental-system/pkg/middleware"
	"rental-system/pkg/service"
)

// InitRouter собирает все зависимости и регистрирует маршруты API.
func InitRouter(e *echo.Echo, dbConn *pgxpool.Pool, redisClient *redis.Client, jwtSvc service.JWTService, logger *zap.Logger) {
	logger.Info("InitRouter: начало создания маршрутов")

	api := e.Group("/api")
	authMW := middleware.NewAuthMiddleware(jwtSvc, logger)

	// --- РЕПОЗИТОРИИ ---
	txManager := repositories.NewTxManager(dbConn)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)
	equipmentRepo := repositories.NewEquipmentRepository(dbConn, logger)
	cartRepo := repositories.NewCartRepository(dbConn, logger)
	rentalRepo := repositories.NewRentalRepository(dbConn, logger)
	profileRepo := repositories.NewUserProfileRepository(dbConn, logger)
	reportRepo := repositories.NewReportRepository(dbConn, logger)
	catalogRepo := repositories.NewCatalogRepository(dbConn, logger)

	// --- СЕРВИСЫ ---
	authService := services.NewAuthService(txManager, profileRepo, jwtSvc, logger)
	equipmentService := services.NewEquipmentService(equipmentRepo, cacheRepo, logger)
	cartService := services.NewCartService(cartRepo, equipmentRepo, logger)
	rentalService := services.NewRentalService(txManager, rentalRepo, equipmentRepo, cartRepo, cacheRepo, logger)
	profileService := services.NewProfileService(txManager, profileRepo, logger)
	reportService := services.NewReportService(reportRepo, logger)
	catalogService := services.NewCatalogService(catalogRepo, logger)

	// --- МАРШРУТЫ ---
	RUN_AUTH_ROUTER(api, authService, logger)
	RUN_EQUIPMENT_ROUTER(api, equipmentService, authMW, logger)
	RUN_CART_ROUTER(api, cartService, rentalService, authMW, logger)
	RUN_RENTAL_ROUTER(api, rentalService, authMW, logger)
	RUN_PROFILE_ROUTER(api, profileService, authMW, logger)
	RUN_REPORT_ROUTER(api, reportService, authMW, logger)
	RUN_CATALOG_ROUTER(api, catalogService, logger)

	logger.Info("InitRouter: маршруты зарегистрированы")
}
