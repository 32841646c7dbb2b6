package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"rental-system/internal/controllers"
	"rental-system/internal/services"
	"rental-system/pkg/middleware"
)

func RUN_EQUIPMENT_ROUTER(api *echo.Group, equipmentService services.EquipmentServiceInterface, authMW *middleware.AuthMiddleware, logger *zap.Logger) {
	equipmentCtrl := controllers.NewEquipmentController(equipmentService, logger)

	// Каталог открыт всем; для вошедших роль влияет на видимость.
	api.GET("/equipment", equipmentCtrl.GetEquipments, authMW.OptionalAuth)
	api.GET("/equipment/:id", equipmentCtrl.FindEquipment, authMW.OptionalAuth)

	api.POST("/equipment", equipmentCtrl.CreateEquipment, authMW.Auth)
	api.PUT("/equipment/:id", equipmentCtrl.UpdateEquipment, authMW.Auth)
	api.PATCH("/equipment/:id/approve", equipmentCtrl.ApproveEquipment, authMW.Auth)
	api.PATCH("/equipment/:id/reject", equipmentCtrl.RejectEquipment, authMW.Auth)
	api.PATCH("/equipment/:id/status", equipmentCtrl.SetEquipmentStatus, authMW.Auth)
}
