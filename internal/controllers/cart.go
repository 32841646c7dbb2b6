package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"rental-system/internal/dto"
	"rental-system/internal/services"
	apperrors "rental-system/pkg/errors"
	"rental-system/pkg/utils"
)

const sessionHeader = "X-Session-ID"

type CartController struct {
	cartService services.CartServiceInterface
	logger      *zap.Logger
}

func NewCartController(cartService services.CartServiceInterface, logger *zap.Logger) *CartController {
	return &CartController{cartService: cartService, logger: logger}
}

// resolveSessionID определяет идентификатор корзины: у вошедшего
// пользователя это его email (корзина следует за аккаунтом), у анонима —
// заголовок X-Session-ID. Если заголовка нет, генерируется новый uuid
// и возвращается клиенту в том же заголовке.
func (c *CartController) resolveSessionID(ctx echo.Context) string {
	if claims := utils.ClaimsOrNil(ctx.Request().Context()); claims != nil {
		return claims.Email
	}

	sessionID := ctx.Request().Header.Get(sessionHeader)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	ctx.Response().Header().Set(sessionHeader, sessionID)
	return sessionID
}

func (c *CartController) GetCart(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	sessionID := c.resolveSessionID(ctx)

	res, err := c.cartService.ListHolds(reqCtx, sessionID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Корзина успешно получена", http.StatusOK)
}

func (c *CartController) AddToCart(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	sessionID := c.resolveSessionID(ctx)

	var d dto.AddToCartDTO
	if err := ctx.Bind(&d); err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат данных", err, nil), c.logger)
	}
	if err := ctx.Validate(&d); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.cartService.AddHold(reqCtx, sessionID, d)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Позиция добавлена в корзину", http.StatusCreated)
}

func (c *CartController) RemoveFromCart(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	sessionID := c.resolveSessionID(ctx)

	equipmentID, err := parseIDParam(ctx, "equipmentId")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.cartService.RemoveHold(reqCtx, sessionID, equipmentID); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Позиция удалена из корзины", http.StatusOK)
}

func (c *CartController) ClearCart(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	sessionID := c.resolveSessionID(ctx)

	if err := c.cartService.ClearCart(reqCtx, sessionID); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Корзина очищена", http.StatusOK)
}
