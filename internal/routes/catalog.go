package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"rental-system/internal/controllers"
	"rental-system/internal/services"
)

func RUN_CATALOG_ROUTER(api *echo.Group, catalogService services.CatalogServiceInterface, logger *zap.Logger) {
	catalogCtrl := controllers.NewCatalogController(catalogService, logger)

	api.GET("/categories", catalogCtrl.GetCategories)
	api.GET("/brands", catalogCtrl.GetBrands)
}
