package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"rental-system/internal/controllers"
	"rental-system/internal/services"
	"rental-system/pkg/middleware"
)

func RUN_CART_ROUTER(api *echo.Group, cartService services.CartServiceInterface, rentalService services.RentalServiceInterface, authMW *middleware.AuthMiddleware, logger *zap.Logger) {
	cartCtrl := controllers.NewCartController(cartService, logger)
	rentalCtrl := controllers.NewRentalController(rentalService, logger)

	// Корзина работает и для анонимных сессий (X-Session-ID).
	api.GET("/cart", cartCtrl.GetCart, authMW.OptionalAuth)
	api.POST("/cart", cartCtrl.AddToCart, authMW.OptionalAuth)
	api.DELETE("/cart", cartCtrl.ClearCart, authMW.OptionalAuth)
	api.DELETE("/cart/:equipmentId", cartCtrl.RemoveFromCart, authMW.OptionalAuth)

	// Оформление — только для вошедших.
	api.POST("/cart/:equipmentId/checkout", rentalCtrl.Checkout, authMW.Auth)
}
