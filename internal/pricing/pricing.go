package pricing

import (
	"time"

	apperrors "rental-system/pkg/errors"
)

// Тарифный план, выбранный по длительности аренды.
const (
	TierDaily   = "daily"
	TierWeekly  = "weekly"
	TierMonthly = "monthly"
)

// Страховой сбор — фиксированные 5% от стоимости аренды.
const InsuranceRate = 0.05

// RateCard — тарифная карта единицы техники. Недельная и месячная ставки
// опциональны: если не заданы, соответствующий тариф не участвует в выборе.
type RateCard struct {
	DailyRate     float64
	WeeklyRate    *float64
	MonthlyRate   *float64
	MinRentalDays int
}

// Quote — результат расчета: эффективная ставка за день, выбранный тариф
// и стоимость аренды без сборов.
type Quote struct {
	TotalDays          int     `json:"total_days"`
	Tier               string  `json:"tier"`
	EffectiveDailyRate float64 `json:"effective_daily_rate"`
	Subtotal           float64 `json:"subtotal"`
}

// Charges — сборы, начисляемые при оформлении (не при расчете оценки).
type Charges struct {
	DeliveryFee  float64 `json:"delivery_fee"`
	InsuranceFee float64 `json:"insurance_fee"`
	Discount     float64 `json:"discount"`
	Total        float64 `json:"total"`
}

// TotalDays считает календарные дни аренды включительно по обеим границам:
// аренда с 1-го по 3-е — это 3 дня.
func TotalDays(startDate, endDate time.Time) int {
	start := truncateToDate(startDate)
	end := truncateToDate(endDate)
	return int(end.Sub(start).Hours()/24) + 1
}

// CalculateQuote — чистая функция расчета стоимости аренды по тарифной
// карте и диапазону дат. Используется и для оценки в корзине, и для
// итоговой суммы, фиксируемой на аренде при оформлении: две цифры
// не должны расходиться никогда.
//
// Выбор тарифа, строго в этом порядке:
//  1. месячная ставка задана и дней >= 30 -> monthly, ставка/30 в день;
//  2. недельная ставка задана и дней >= 7 -> weekly, ставка/7 в день;
//  3. иначе -> daily.
func CalculateQuote(card RateCard, startDate, endDate time.Time) (*Quote, error) {
	start := truncateToDate(startDate)
	end := truncateToDate(endDate)

	if start.After(end) {
		return nil, apperrors.ErrInvalidDateRange
	}

	totalDays := TotalDays(start, end)

	minDays := card.MinRentalDays
	if minDays < 1 {
		minDays = 1
	}
	if totalDays < minDays {
		return nil, apperrors.ErrBelowMinimumDuration
	}

	quote := &Quote{TotalDays: totalDays}

	switch {
	case card.MonthlyRate != nil && totalDays >= 30:
		quote.Tier = TierMonthly
		quote.EffectiveDailyRate = *card.MonthlyRate / 30
	case card.WeeklyRate != nil && totalDays >= 7:
		quote.Tier = TierWeekly
		quote.EffectiveDailyRate = *card.WeeklyRate / 7
	default:
		quote.Tier = TierDaily
		quote.EffectiveDailyRate = card.DailyRate
	}

	quote.Subtotal = quote.EffectiveDailyRate * float64(totalDays)

	return quote, nil
}

// CalculateCharges начисляет сборы поверх стоимости аренды. Вызывается
// только при оформлении: оценка в корзине показывает чистый subtotal.
func CalculateCharges(subtotal, deliveryFee, discount float64) Charges {
	insuranceFee := subtotal * InsuranceRate
	return Charges{
		DeliveryFee:  deliveryFee,
		InsuranceFee: insuranceFee,
		Discount:     discount,
		Total:        subtotal + insuranceFee + deliveryFee - discount,
	}
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
