// Package invoice строит печатный снимок заказа. Пакет чистый и ничего не сохраняет.
package invoice

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/wholesale/internal/domain"
)

// Group описывает строку накладной, то есть одну модель с одной скидкой.
type Group struct {
	ModelNo         string
	Description     string
	DiscountPercent decimal.Decimal
	// Price: цена за штуку после скидки (по первой позиции группы).
	Price decimal.Decimal
	// OriginalPrice заполнена, только если OriginalPriceKnown.
	OriginalPrice      decimal.Decimal
	OriginalPriceKnown bool
	TotalQty           int64
	TotalPieces        int64
	TotalPrice         decimal.Decimal
	Composition        string
}

// Party: реквизиты клиента для шапки накладной.
type Party struct {
	ID      string
	Code    string
	Name    string
	Phone   string
	Phone2  string
	Address string
}

// Invoice: снимок заказа для внешнего рендера.
type Invoice struct {
	OrderID      string
	Number       int64
	CreatedAt    time.Time
	Customer     Party
	UserID       string
	UserName     string
	Groups       []Group
	TotalQty     int64
	TotalPieces  int64
	Subtotal     decimal.Decimal
	Deposit      decimal.Decimal
	RemainingDue decimal.Decimal
}

type groupKey struct {
	modelNo  string
	discount string
}

// GroupLines группирует позиции по (ModelNo, DiscountPercent) в порядке первого появления.
func GroupLines(items []domain.OrderItem) []Group {
	var (
		groups []Group
		parts  [][]string
		index  = make(map[groupKey]int)
	)

	for _, item := range items {
		key := groupKey{modelNo: item.ModelNo, discount: item.DiscountPercent.String()}
		i, ok := index[key]
		if !ok {
			original, known := domain.OriginalPrice(item.Price, item.DiscountPercent)
			if known {
				original = original.Round(2)
			}
			groups = append(groups, Group{
				ModelNo:            item.ModelNo,
				Description:        item.Description,
				DiscountPercent:    item.DiscountPercent,
				Price:              item.Price,
				OriginalPrice:      original,
				OriginalPriceKnown: known,
				TotalPrice:         decimal.Zero,
			})
			parts = append(parts, nil)
			i = len(groups) - 1
			index[key] = i
		}

		g := &groups[i]
		g.TotalQty += item.Quantity
		g.TotalPieces += domain.Pieces(item.Quantity)
		g.TotalPrice = g.TotalPrice.Add(item.Total())
		parts[i] = append(parts[i], fmt.Sprintf("%d (%s)", domain.Pieces(item.Quantity), item.Color))
	}

	for i := range groups {
		groups[i].Composition = strings.Join(parts[i], " + ")
	}
	return groups
}

// Build собирает накладную из заказа с заполненными снимками товаров.
func Build(order domain.Order, customer domain.Customer, user domain.User) Invoice {
	groups := GroupLines(order.Items)

	inv := Invoice{
		OrderID:   order.ID,
		Number:    order.Number,
		CreatedAt: order.CreatedAt,
		Customer: Party{
			ID:      customer.ID,
			Code:    customer.Code,
			Name:    customer.Name,
			Phone:   customer.Phone,
			Phone2:  customer.Phone2,
			Address: customer.Address,
		},
		UserID:       order.UserID,
		UserName:     user.Name,
		Groups:       groups,
		Subtotal:     decimal.Zero,
		Deposit:      order.Deposit,
		RemainingDue: order.RemainingDue(),
	}
	for _, g := range groups {
		inv.TotalQty += g.TotalQty
		inv.TotalPieces += g.TotalPieces
		inv.Subtotal = inv.Subtotal.Add(g.TotalPrice)
	}
	return inv
}
