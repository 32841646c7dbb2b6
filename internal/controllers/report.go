package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"rental-system/internal/services"
	"rental-system/pkg/utils"
)

type ReportController struct {
	reportService services.ReportServiceInterface
	logger        *zap.Logger
}

func NewReportController(reportService services.ReportServiceInterface, logger *zap.Logger) *ReportController {
	return &ReportController{reportService: reportService, logger: logger}
}

// GetRentalsReport отдает сводный отчет по арендам. По умолчанию JSON,
// при format=xlsx — книга Excel потоком в ответ.
func (c *ReportController) GetRentalsReport(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	filter, err := services.ParseReportFilter(
		ctx.QueryParam("from"),
		ctx.QueryParam("to"),
		ctx.QueryParam("status"),
		ctx.QueryParam("payment_status"),
	)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if ctx.QueryParam("format") != "xlsx" {
		items, err := c.reportService.GetRentalsReport(reqCtx, filter)
		if err != nil {
			return utils.ErrorResponse(ctx, err, c.logger)
		}
		return utils.SuccessResponse(ctx, items, "Отчет по арендам сформирован", http.StatusOK)
	}

	f, err := c.reportService.GetRentalsReportXLSX(reqCtx, filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	defer f.Close()

	filename := fmt.Sprintf("rentals_report_%s.xlsx", time.Now().Format("20060102_150405"))
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	ctx.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Response().WriteHeader(http.StatusOK)

	if err := f.Write(ctx.Response().Writer); err != nil {
		c.logger.Error("ошибка отправки отчета", zap.Error(err))
		return err
	}
	return nil
}
