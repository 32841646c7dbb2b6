package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"rental-system/internal/controllers"
	"rental-system/internal/services"
	"rental-system/pkg/middleware"
)

func RUN_PROFILE_ROUTER(api *echo.Group, profileService services.ProfileServiceInterface, authMW *middleware.AuthMiddleware, logger *zap.Logger) {
	profileCtrl := controllers.NewProfileController(profileService, logger)

	api.GET("/profile", profileCtrl.GetProfile, authMW.Auth)
	api.PUT("/profile", profileCtrl.UpdateProfile, authMW.Auth)
	api.GET("/profile/history", profileCtrl.GetProfileHistory, authMW.Auth)
}
