package domain

import "github.com/shopspring/decimal"

// PiecesPerUnit: сколько физических штук в одной продаваемой единице.
const PiecesPerUnit = 4

var (
	hundred        = decimal.NewFromInt(100)
	piecesPerUnitD = decimal.NewFromInt(PiecesPerUnit)
)

// Pieces переводит единицы продажи в штуки.
func Pieces(units int64) int64 {
	return units * PiecesPerUnit
}

// LineTotal возвращает qty × PiecesPerUnit × price для одной позиции.
func LineTotal(qty int64, price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(qty)).Mul(piecesPerUnitD)
}

// MoneyScale: сколько знаков после запятой хранится у денежных сумм и скидок.
const MoneyScale = 2

// ValidScale сообщает, укладывается ли значение в MoneyScale знаков без округления.
func ValidScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale))
}

// ValidDiscount проверяет 0 <= percent <= 100.
func ValidDiscount(percent decimal.Decimal) bool {
	return !percent.IsNegative() && !percent.GreaterThan(hundred)
}

// DiscountedPrice применяет скидку к прайсовой цене и округляет до копеек.
func DiscountedPrice(list, percent decimal.Decimal) decimal.Decimal {
	if percent.IsZero() {
		return list
	}
	factor := hundred.Sub(percent).Div(hundred)
	return list.Mul(factor).Round(2)
}

// OriginalPrice восстанавливает цену до скидки: final / (1 - percent/100).
// При скидке 100% цена не восстановима, второй результат false.
func OriginalPrice(final, percent decimal.Decimal) (decimal.Decimal, bool) {
	if percent.IsZero() {
		return final, true
	}
	if !ValidDiscount(percent) || percent.Equal(hundred) {
		return decimal.Zero, false
	}
	factor := hundred.Sub(percent).Div(hundred)
	return final.Div(factor), true
}
