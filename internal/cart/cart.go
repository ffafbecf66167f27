// Package cart собирает выбранные варианты в строки корзины, сгруппированные по номеру модели.
package cart

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/wholesale/internal/domain"
)

// Pick: выбранный вариант (модель + цвет) с количеством в единицах.
type Pick struct {
	ProductID   string
	ModelNo     string
	Color       string
	Description string
	Quantity    int64
	// Price: итоговая цена за штуку (уже со скидкой).
	Price           decimal.Decimal
	DiscountPercent decimal.Decimal
}

// Variant: цветовой вариант внутри строки корзины.
type Variant struct {
	ProductID string
	Color     string
	Quantity  int64
	Price     decimal.Decimal
}

// Line объединяет все цвета одной модели в строке корзины.
type Line struct {
	ModelNo         string
	Description     string
	Variants        []Variant
	DiscountPercent decimal.Decimal
	TotalQty        int64
	TotalPrice      decimal.Decimal
	Composition     string
}

// Summary: итог корзины.
type Summary struct {
	Amount decimal.Decimal
	Units  int64
	Pieces int64
}

// Add вливает пачку выбранных вариантов в корзину.
// Строка определяется моделью и скидкой: та же модель с другой скидкой идёт отдельной строкой.
// Затронутые строки поднимаются в начало в порядке пачки, остальные сохраняют порядок.
// Пачка без положительных количеств ничего не меняет.
func Add(cart []Line, picks []Pick) []Line {
	var (
		order []string
		byKey = make(map[string][]Pick)
	)
	for _, p := range picks {
		if p.Quantity <= 0 {
			continue
		}
		key := lineKey(p.ModelNo, p.DiscountPercent)
		if _, seen := byKey[key]; !seen {
			order = append(order, key)
		}
		byKey[key] = append(byKey[key], p)
	}
	if len(order) == 0 {
		return cart
	}

	existing := make(map[string]Line, len(cart))
	for _, line := range cart {
		existing[line.key()] = line
	}

	result := make([]Line, 0, len(cart)+len(order))
	touched := make(map[string]struct{}, len(order))
	for _, key := range order {
		line, ok := existing[key]
		if !ok {
			first := byKey[key][0]
			line = Line{
				ModelNo:         first.ModelNo,
				Description:     first.Description,
				DiscountPercent: first.DiscountPercent,
			}
		}
		result = append(result, merge(line, byKey[key]))
		touched[key] = struct{}{}
	}
	for _, line := range cart {
		if _, ok := touched[line.key()]; ok {
			continue
		}
		result = append(result, line)
	}
	return result
}

func lineKey(modelNo string, discount decimal.Decimal) string {
	return modelNo + "@" + discount.String()
}

func (l Line) key() string {
	return lineKey(l.ModelNo, l.DiscountPercent)
}

// merge суммирует количества по ProductID. Новые варианты добавляются в конец строки.
func merge(line Line, picks []Pick) Line {
	variants := make([]Variant, len(line.Variants), len(line.Variants)+len(picks))
	copy(variants, line.Variants)

	index := make(map[string]int, len(variants))
	for i, v := range variants {
		index[v.ProductID] = i
	}
	for _, p := range picks {
		if i, ok := index[p.ProductID]; ok {
			variants[i].Quantity += p.Quantity
			variants[i].Price = p.Price
			continue
		}
		index[p.ProductID] = len(variants)
		variants = append(variants, Variant{
			ProductID: p.ProductID,
			Color:     p.Color,
			Quantity:  p.Quantity,
			Price:     p.Price,
		})
	}

	line.Variants = variants
	return recompute(line)
}

func recompute(line Line) Line {
	line.TotalQty = 0
	line.TotalPrice = decimal.Zero
	parts := make([]string, 0, len(line.Variants))
	for _, v := range line.Variants {
		line.TotalQty += v.Quantity
		line.TotalPrice = line.TotalPrice.Add(domain.LineTotal(v.Quantity, v.Price))
		parts = append(parts, fmt.Sprintf("%d (%s)", domain.Pieces(v.Quantity), v.Color))
	}
	line.Composition = strings.Join(parts, " + ")
	return line
}

// Edit убирает строки модели из корзины (по одной на скидку) и возвращает выбор,
// из которого они были собраны. Add(rest, picks) восстанавливает строки без изменений.
func Edit(cart []Line, modelNo string) ([]Line, []Pick) {
	rest := make([]Line, 0, len(cart))
	var picks []Pick
	for _, line := range cart {
		if line.ModelNo != modelNo {
			rest = append(rest, line)
			continue
		}
		for _, v := range line.Variants {
			picks = append(picks, Pick{
				ProductID:       v.ProductID,
				ModelNo:         line.ModelNo,
				Color:           v.Color,
				Description:     line.Description,
				Quantity:        v.Quantity,
				Price:           v.Price,
				DiscountPercent: line.DiscountPercent,
			})
		}
	}
	return rest, picks
}

// Remove удаляет строки модели из корзины.
func Remove(cart []Line, modelNo string) []Line {
	rest, _ := Edit(cart, modelNo)
	return rest
}

// Totals считает итог корзины.
func Totals(cart []Line) Summary {
	totals := Summary{Amount: decimal.Zero}
	for _, line := range cart {
		totals.Amount = totals.Amount.Add(line.TotalPrice)
		totals.Units += line.TotalQty
	}
	totals.Pieces = domain.Pieces(totals.Units)
	return totals
}

// Items разворачивает корзину в позиции заказа: одна позиция на вариант.
func Items(cart []Line) []domain.OrderItem {
	var items []domain.OrderItem
	for _, line := range cart {
		for _, v := range line.Variants {
			items = append(items, domain.OrderItem{
				ProductID:       v.ProductID,
				Quantity:        v.Quantity,
				Price:           v.Price,
				DiscountPercent: line.DiscountPercent,
				ModelNo:         line.ModelNo,
				Color:           v.Color,
				Description:     line.Description,
			})
		}
	}
	return items
}
