package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"rental-system/internal/controllers"
	"rental-system/internal/services"
	"rental-system/pkg/middleware"
)

func RUN_RENTAL_ROUTER(api *echo.Group, rentalService services.RentalServiceInterface, authMW *middleware.AuthMiddleware, logger *zap.Logger) {
	rentalCtrl := controllers.NewRentalController(rentalService, logger)

	api.GET("/quote", rentalCtrl.QuotePrice)

	api.GET("/rentals", rentalCtrl.GetRentals, authMW.Auth)
	api.GET("/rentals/:id", rentalCtrl.FindRental, authMW.Auth)
	api.GET("/rentals/number/:number", rentalCtrl.FindRentalByNumber, authMW.Auth)
	api.PATCH("/rentals/:id/status", rentalCtrl.TransitionStatus, authMW.Auth)
	api.POST("/rentals/:id/cancel", rentalCtrl.CancelRental, authMW.Auth)
	api.PATCH("/rentals/:id/payment-status", rentalCtrl.SetPaymentStatus, authMW.Auth)
}
