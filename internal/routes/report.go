package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"rental-system/internal/controllers"
	"rental-system/internal/services"
	"rental-system/pkg/middleware"
)

func RUN_REPORT_ROUTER(api *echo.Group, reportService services.ReportServiceInterface, authMW *middleware.AuthMiddleware, logger *zap.Logger) {
	reportCtrl := controllers.NewReportController(reportService, logger)

	api.GET("/reports/rentals", reportCtrl.GetRentalsReport, authMW.Auth)
}
