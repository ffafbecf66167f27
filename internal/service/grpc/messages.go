package grpcsvc

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/wholesale/internal/cart"
	"github.com/vladislavdragonenkov/wholesale/internal/domain"
	"github.com/vladislavdragonenkov/wholesale/internal/invoice"
	"github.com/vladislavdragonenkov/wholesale/internal/ledger"
	"github.com/vladislavdragonenkov/wholesale/internal/reporting"
	"github.com/vladislavdragonenkov/wholesale/internal/service/sales"
)

// Variant: цвет модели в корзине.
type Variant struct {
	ProductID string          `json:"product_id"`
	Color     string          `json:"color"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// CartLine: модель в корзине со всеми цветами.
type CartLine struct {
	ModelNo         string          `json:"model_no"`
	Description     string          `json:"description"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Variants        []Variant       `json:"variants"`
}

// Pick: выбор товара, который сервер сам сворачивает в корзину.
type Pick struct {
	ProductID       string          `json:"product_id"`
	ModelNo         string          `json:"model_no"`
	Color           string          `json:"color"`
	Description     string          `json:"description"`
	Quantity        int64           `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

type CreateOrderRequest struct {
	CustomerID string     `json:"customer_id"`
	UserID     string     `json:"user_id,omitempty"`
	Lines      []CartLine `json:"lines,omitempty"`
	Picks      []Pick     `json:"picks,omitempty"`
	// Total: итог корзины на клиенте, сверяется с пересчётом.
	Total   *decimal.Decimal `json:"total,omitempty"`
	Deposit decimal.Decimal  `json:"deposit"`
	SafeID  string           `json:"safe_id,omitempty"`
}

type OrderItem struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id"`
	ModelNo         string          `json:"model_no"`
	Color           string          `json:"color"`
	Description     string          `json:"description"`
	Quantity        int64           `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

type Order struct {
	ID           string          `json:"id"`
	Number       int64           `json:"number"`
	CustomerID   string          `json:"customer_id"`
	UserID       string          `json:"user_id"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Deposit      decimal.Decimal `json:"deposit"`
	RemainingDue decimal.Decimal `json:"remaining_due"`
	Items        []OrderItem     `json:"items"`
	CreatedAt    time.Time       `json:"created_at"`
}

type OrderResponse struct {
	Order Order `json:"order"`
}

type GetOrderRequest struct {
	OrderID string `json:"order_id"`
}

type ListOrdersRequest struct {
	CustomerID string `json:"customer_id"`
	PageSize   int    `json:"page_size,omitempty"`
}

type ListOrdersResponse struct {
	Orders []Order `json:"orders"`
}

type RecordPaymentRequest struct {
	CustomerID string          `json:"customer_id"`
	SafeID     string          `json:"safe_id"`
	UserID     string          `json:"user_id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note,omitempty"`
}

type Payment struct {
	ID         string          `json:"id"`
	CustomerID string          `json:"customer_id"`
	SafeID     string          `json:"safe_id"`
	UserID     string          `json:"user_id"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

type PaymentResponse struct {
	Payment Payment `json:"payment"`
}

type GetPaymentRequest struct {
	PaymentID string `json:"payment_id"`
}

type InvoiceGroup struct {
	ModelNo            string          `json:"model_no"`
	Description        string          `json:"description"`
	DiscountPercent    decimal.Decimal `json:"discount_percent"`
	Price              decimal.Decimal `json:"price"`
	OriginalPrice      decimal.Decimal `json:"original_price"`
	OriginalPriceKnown bool            `json:"original_price_known"`
	TotalQty           int64           `json:"total_qty"`
	TotalPieces        int64           `json:"total_pieces"`
	TotalPrice         decimal.Decimal `json:"total_price"`
	Composition        string          `json:"composition"`
}

type Customer struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Phone2  string `json:"phone2,omitempty"`
	Address string `json:"address,omitempty"`
}

// Invoice: снимок накладной; формат печати определяет внешний рендер.
type Invoice struct {
	OrderID      string          `json:"order_id"`
	Number       int64           `json:"number"`
	CreatedAt    time.Time       `json:"created_at"`
	Customer     Customer        `json:"customer"`
	UserID       string          `json:"user_id"`
	UserName     string          `json:"user_name"`
	Groups       []InvoiceGroup  `json:"groups"`
	TotalQty     int64           `json:"total_qty"`
	TotalPieces  int64           `json:"total_pieces"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Deposit      decimal.Decimal `json:"deposit"`
	RemainingDue decimal.Decimal `json:"remaining_due"`
}

type InvoiceResponse struct {
	Invoice Invoice `json:"invoice"`
}

type CustomerBalanceRequest struct {
	CustomerID string `json:"customer_id"`
}

type CustomerBalanceResponse struct {
	CustomerID   string          `json:"customer_id"`
	Orders       int             `json:"orders"`
	TotalOrdered decimal.Decimal `json:"total_ordered"`
	Deposits     decimal.Decimal `json:"deposits"`
	Payments     decimal.Decimal `json:"payments"`
	Outstanding  decimal.Decimal `json:"outstanding"`
}

type SearchRequest struct {
	Term  string `json:"term"`
	Limit int    `json:"limit,omitempty"`
}

type Product struct {
	ID          string          `json:"id"`
	ModelNo     string          `json:"model_no"`
	Color       string          `json:"color"`
	Description string          `json:"description"`
	Material    string          `json:"material,omitempty"`
	Price       decimal.Decimal `json:"price"`
	StockQty    int64           `json:"stock_qty"`
	Status      string          `json:"status"`
}

type SearchProductsResponse struct {
	Products []Product `json:"products"`
}

type CustomersResponse struct {
	Customers []Customer `json:"customers"`
}

type SafeBalanceRequest struct {
	SafeID string     `json:"safe_id"`
	AsOf   *time.Time `json:"as_of,omitempty"`
}

type SafeBalanceResponse struct {
	SafeID  string          `json:"safe_id"`
	Balance decimal.Decimal `json:"balance"`
}

type SafeMovement struct {
	ID          string          `json:"id"`
	SafeID      string          `json:"safe_id"`
	Amount      decimal.Decimal `json:"amount"`
	Source      string          `json:"source"`
	ReferenceID string          `json:"reference_id"`
	CreatedAt   time.Time       `json:"created_at"`
	Balance     decimal.Decimal `json:"balance"`
}

type SafeHistoryRequest struct {
	SafeID string `json:"safe_id"`
}

type SafeHistoryResponse struct {
	Movements []SafeMovement `json:"movements"`
}

type MovementOriginRequest struct {
	MovementID string `json:"movement_id"`
}

type MovementOriginResponse struct {
	Movement SafeMovement `json:"movement"`
	Source   string       `json:"source"`
	Order    *Order       `json:"order,omitempty"`
	Payment  *Payment     `json:"payment,omitempty"`
}

type ListSafesRequest struct{}

type SafeSummary struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

type ListSafesResponse struct {
	Safes []SafeSummary `json:"safes"`
}

// PeriodRequest задаёт полуинтервал [From, To).
type PeriodRequest struct {
	SafeID string    `json:"safe_id,omitempty"`
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`
}

type EmployeeSales struct {
	UserID   string          `json:"user_id"`
	UserName string          `json:"user_name"`
	Orders   int             `json:"orders"`
	Units    int64           `json:"units"`
	Pieces   int64           `json:"pieces"`
	Amount   decimal.Decimal `json:"amount"`
	Deposits decimal.Decimal `json:"deposits"`
}

type EmployeeSalesResponse struct {
	Rows []EmployeeSales `json:"rows"`
}

type ProductMovement struct {
	ProductID  string          `json:"product_id"`
	ModelNo    string          `json:"model_no"`
	Color      string          `json:"color"`
	UnitsSold  int64           `json:"units_sold"`
	PiecesSold int64           `json:"pieces_sold"`
	Revenue    decimal.Decimal `json:"revenue"`
	StockQty   int64           `json:"stock_qty"`
}

type InventoryMovementResponse struct {
	Rows []ProductMovement `json:"rows"`
}

type DailyBalance struct {
	Day     time.Time       `json:"day"`
	Opening decimal.Decimal `json:"opening"`
	Inflow  decimal.Decimal `json:"inflow"`
	Closing decimal.Decimal `json:"closing"`
}

type SafeBalanceHistoryResponse struct {
	Days []DailyBalance `json:"days"`
}

func toCart(lines []CartLine, picks []Pick) []cart.Line {
	result := make([]cart.Line, 0, len(lines))
	for _, l := range lines {
		line := cart.Line{
			ModelNo:         l.ModelNo,
			Description:     l.Description,
			DiscountPercent: l.DiscountPercent,
		}
		for _, v := range l.Variants {
			line.Variants = append(line.Variants, cart.Variant{
				ProductID: v.ProductID,
				Color:     v.Color,
				Quantity:  v.Quantity,
				Price:     v.Price,
			})
		}
		result = append(result, line)
	}
	if len(picks) == 0 {
		return result
	}

	batch := make([]cart.Pick, 0, len(picks))
	for _, p := range picks {
		batch = append(batch, cart.Pick{
			ProductID:       p.ProductID,
			ModelNo:         p.ModelNo,
			Color:           p.Color,
			Description:     p.Description,
			Quantity:        p.Quantity,
			Price:           p.Price,
			DiscountPercent: p.DiscountPercent,
		})
	}
	return cart.Add(result, batch)
}

func toOrder(order domain.Order) Order {
	items := make([]OrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItem{
			ID:              item.ID,
			ProductID:       item.ProductID,
			ModelNo:         item.ModelNo,
			Color:           item.Color,
			Description:     item.Description,
			Quantity:        item.Quantity,
			Price:           item.Price,
			DiscountPercent: item.DiscountPercent,
		})
	}
	return Order{
		ID:           order.ID,
		Number:       order.Number,
		CustomerID:   order.CustomerID,
		UserID:       order.UserID,
		TotalAmount:  order.TotalAmount,
		Deposit:      order.Deposit,
		RemainingDue: order.RemainingDue(),
		Items:        items,
		CreatedAt:    order.CreatedAt,
	}
}

func toPayment(p domain.Payment) Payment {
	return Payment{
		ID:         p.ID,
		CustomerID: p.CustomerID,
		SafeID:     p.SafeID,
		UserID:     p.UserID,
		Amount:     p.Amount,
		Note:       p.Note,
		CreatedAt:  p.CreatedAt,
	}
}

func toCustomer(c domain.Customer) Customer {
	return Customer{ID: c.ID, Code: c.Code, Name: c.Name, Phone: c.Phone, Phone2: c.Phone2, Address: c.Address}
}

func toCustomers(list []domain.Customer) []Customer {
	result := make([]Customer, 0, len(list))
	for _, c := range list {
		result = append(result, toCustomer(c))
	}
	return result
}

func toProduct(p domain.Product) Product {
	return Product{
		ID:          p.ID,
		ModelNo:     p.ModelNo,
		Color:       p.Color,
		Description: p.Description,
		Material:    p.Material,
		Price:       p.Price,
		StockQty:    p.StockQty,
		Status:      string(p.Status),
	}
}

func toMovement(m domain.SafeMovement, balance decimal.Decimal) SafeMovement {
	return SafeMovement{
		ID:          m.ID,
		SafeID:      m.SafeID,
		Amount:      m.Amount,
		Source:      string(m.Source),
		ReferenceID: m.ReferenceID,
		CreatedAt:   m.CreatedAt,
		Balance:     balance,
	}
}

// ToInvoice переводит снимок накладной в JSON-представление.
func ToInvoice(inv invoice.Invoice) Invoice {
	groups := make([]InvoiceGroup, 0, len(inv.Groups))
	for _, g := range inv.Groups {
		groups = append(groups, InvoiceGroup{
			ModelNo:            g.ModelNo,
			Description:        g.Description,
			DiscountPercent:    g.DiscountPercent,
			Price:              g.Price,
			OriginalPrice:      g.OriginalPrice,
			OriginalPriceKnown: g.OriginalPriceKnown,
			TotalQty:           g.TotalQty,
			TotalPieces:        g.TotalPieces,
			TotalPrice:         g.TotalPrice,
			Composition:        g.Composition,
		})
	}
	return Invoice{
		OrderID:   inv.OrderID,
		Number:    inv.Number,
		CreatedAt: inv.CreatedAt,
		Customer: Customer{
			ID:      inv.Customer.ID,
			Code:    inv.Customer.Code,
			Name:    inv.Customer.Name,
			Phone:   inv.Customer.Phone,
			Phone2:  inv.Customer.Phone2,
			Address: inv.Customer.Address,
		},
		UserID:       inv.UserID,
		UserName:     inv.UserName,
		Groups:       groups,
		TotalQty:     inv.TotalQty,
		TotalPieces:  inv.TotalPieces,
		Subtotal:     inv.Subtotal,
		Deposit:      inv.Deposit,
		RemainingDue: inv.RemainingDue,
	}
}

func toStatement(st sales.Statement) *CustomerBalanceResponse {
	return &CustomerBalanceResponse{
		CustomerID:   st.CustomerID,
		Orders:       st.Orders,
		TotalOrdered: st.TotalOrdered,
		Deposits:     st.Deposits,
		Payments:     st.Payments,
		Outstanding:  st.Outstanding,
	}
}

func toOrigin(m domain.SafeMovement, origin ledger.Origin) *MovementOriginResponse {
	resp := &MovementOriginResponse{
		Movement: toMovement(m, decimal.Zero),
		Source:   string(origin.Source),
	}
	if origin.Order != nil {
		o := toOrder(*origin.Order)
		resp.Order = &o
	}
	if origin.Payment != nil {
		p := toPayment(*origin.Payment)
		resp.Payment = &p
	}
	return resp
}

func toEmployeeSales(rows []reporting.EmployeeSales) []EmployeeSales {
	result := make([]EmployeeSales, 0, len(rows))
	for _, r := range rows {
		result = append(result, EmployeeSales(r))
	}
	return result
}

func toProductMovements(rows []reporting.ProductMovement) []ProductMovement {
	result := make([]ProductMovement, 0, len(rows))
	for _, r := range rows {
		result = append(result, ProductMovement(r))
	}
	return result
}

func toDailyBalances(rows []reporting.DailyBalance) []DailyBalance {
	result := make([]DailyBalance, 0, len(rows))
	for _, r := range rows {
		result = append(result, DailyBalance(r))
	}
	return result
}
