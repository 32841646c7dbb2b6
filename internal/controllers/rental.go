package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"rental-system/internal/dto"
	"rental-system/internal/services"
	apperrors "rental-system/pkg/errors"
	"rental-system/pkg/utils"
)

type RentalController struct {
	rentalService services.RentalServiceInterface
	logger        *zap.Logger
}

func NewRentalController(rentalService services.RentalServiceInterface, logger *zap.Logger) *RentalController {
	return &RentalController{rentalService: rentalService, logger: logger}
}

func (c *RentalController) QuotePrice(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	equipmentID, err := strconv.ParseUint(ctx.QueryParam("equipment_id"), 10, 64)
	if err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Неверный equipment_id", err, nil),
			c.logger,
		)
	}

	res, err := c.rentalService.QuotePrice(reqCtx, equipmentID, ctx.QueryParam("start_date"), ctx.QueryParam("end_date"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Стоимость аренды рассчитана", http.StatusOK)
}

func (c *RentalController) Checkout(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	equipmentID, err := parseIDParam(ctx, "equipmentId")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	// Оформление доступно только вошедшим, поэтому корзина — по email.
	claims, err := utils.GetClaimsFromContext(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var d dto.CheckoutDTO
	if err := ctx.Bind(&d); err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат данных", err, nil), c.logger)
	}
	if err := ctx.Validate(&d); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.rentalService.Checkout(reqCtx, claims.Email, equipmentID, d)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Аренда успешно оформлена", http.StatusCreated)
}

func (c *RentalController) GetRentals(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	list, total, err := c.rentalService.GetRentals(reqCtx, filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, list, "Список аренд успешно получен", http.StatusOK, total)
}

func (c *RentalController) FindRental(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.rentalService.FindRental(reqCtx, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Аренда успешно найдена", http.StatusOK)
}

func (c *RentalController) FindRentalByNumber(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	number := ctx.Param("number")
	if number == "" {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Не указан номер аренды", nil, nil),
			c.logger,
		)
	}

	res, err := c.rentalService.FindRentalByNumber(reqCtx, number)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Аренда успешно найдена", http.StatusOK)
}

func (c *RentalController) TransitionStatus(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var d dto.TransitionRentalStatusDTO
	if err := ctx.Bind(&d); err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат данных", err, nil), c.logger)
	}
	if err := ctx.Validate(&d); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.rentalService.TransitionStatus(reqCtx, id, d)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Статус аренды обновлен", http.StatusOK)
}

func (c *RentalController) CancelRental(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var d dto.CancelRentalDTO
	if err := ctx.Bind(&d); err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат данных", err, nil), c.logger)
	}
	if err := ctx.Validate(&d); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.rentalService.CancelOwn(reqCtx, id, d)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Аренда отменена", http.StatusOK)
}

func (c *RentalController) SetPaymentStatus(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var d dto.SetPaymentStatusDTO
	if err := ctx.Bind(&d); err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат данных", err, nil), c.logger)
	}
	if err := ctx.Validate(&d); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.rentalService.SetPaymentStatus(reqCtx, id, d)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Статус оплаты обновлен", http.StatusOK)
}
