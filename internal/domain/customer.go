package domain

import (
	"strings"
	"time"
)

// Customer: покупатель (магазин или частное лицо).
type Customer struct {
	ID        string
	Code      string
	Name      string
	Phone     string
	Phone2    string
	Address   string
	CreatedAt time.Time
}

// Validate проверяет обязательные поля клиента.
func (c *Customer) Validate() []error {
	if strings.TrimSpace(c.Name) == "" {
		return []error{ErrCustomerNameRequired}
	}
	return nil
}

// User: сотрудник, оформляющий заказы и принимающий оплату.
type User struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
