package domain

import (
	"errors"
	"fmt"
)

// Категории ошибок. Каждая конкретная ошибка ниже относится ровно к одной категории
// (ErrNotFound дополнительно помечает отсутствующие ссылки), проверка через errors.Is.
var (
	// ErrValidation: входные данные нарушают правила домена, транзакция не открывалась.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound: запрошенная сущность отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrConflict: операция противоречит текущему состоянию (например, остаток закрытой модели).
	ErrConflict = errors.New("conflict")
	// ErrStorage: сбой хранилища или коммита; всё откатено.
	ErrStorage = errors.New("storage failure")
)

// kindError несёт сообщение и набор категорий, к которым относится ошибка.
type kindError struct {
	msg   string
	kinds []error
}

func (e *kindError) Error() string   { return e.msg }
func (e *kindError) Unwrap() []error { return e.kinds }

func newError(msg string, kinds ...error) error {
	return &kindError{msg: msg, kinds: kinds}
}

var (
	// Ошибка отсутствующего идентификатора клиента.
	ErrCustomerRequired = newError("customer_id is required", ErrValidation)
	// Ошибка отсутствующего идентификатора сотрудника.
	ErrUserRequired = newError("user_id is required", ErrValidation)
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrItemsRequired = newError("order must contain at least one item", ErrValidation)
	// Ошибка позиции без товара.
	ErrProductRequired = newError("item product_id is required", ErrValidation)
	// Ошибка при некорректном количестве (<= 0).
	ErrItemQtyInvalid = newError("item quantity must be greater than zero", ErrValidation)
	// Ошибка, если цена позиции отрицательная.
	ErrItemPriceInvalid = newError("item price must be non-negative", ErrValidation)
	// Скидка вне диапазона [0, 100].
	ErrDiscountOutOfRange = newError("discount percent must be within [0, 100]", ErrValidation)
	// Сумма заказа не совпадает с суммой позиций.
	ErrAmountMismatch = newError("order total does not match items sum", ErrValidation)
	// Итог, присланный клиентом, не совпадает с пересчитанным на сервере.
	ErrTotalMismatch = newError("submitted total does not match recomputed total", ErrValidation)
	// Сумма или скидка с точностью мельче копейки.
	ErrAmountScale = newError("amount must have at most 2 decimal places", ErrValidation)
	// Период отчёта длиннее допустимого.
	ErrPeriodTooLong = newError("report period is too long", ErrValidation)
	// Отрицательный задаток.
	ErrDepositNegative = newError("deposit must be non-negative", ErrValidation)
	// Касса обязательна для платежа и для задатка больше нуля.
	ErrSafeRequired = newError("safe_id is required", ErrValidation)
	// Сумма платежа должна быть положительной.
	ErrPaymentAmountInvalid = newError("payment amount must be greater than zero", ErrValidation)
	// Поля справочников.
	ErrModelNoRequired      = newError("model number is required", ErrValidation)
	ErrColorRequired        = newError("color is required", ErrValidation)
	ErrProductPriceInvalid  = newError("product price must be non-negative", ErrValidation)
	ErrProductStatusInvalid = newError("product status must be open or closed", ErrValidation)
	ErrCustomerNameRequired = newError("customer name is required", ErrValidation)
	ErrSafeNameRequired     = newError("safe name is required", ErrValidation)
	ErrUserNameRequired     = newError("user name is required", ErrValidation)

	// Ссылки на несуществующие сущности при записи.
	ErrCustomerNotFound = newError("customer not found", ErrValidation, ErrNotFound)
	ErrProductNotFound  = newError("product not found", ErrValidation, ErrNotFound)
	ErrSafeNotFound     = newError("safe not found", ErrValidation, ErrNotFound)
	ErrUserNotFound     = newError("user not found", ErrValidation, ErrNotFound)

	// ErrOrderNotFound возвращается, если заказ не найден.
	ErrOrderNotFound = newError("order not found", ErrNotFound)
	// ErrPaymentNotFound возвращается, если платёж не найден.
	ErrPaymentNotFound = newError("payment not found", ErrNotFound)
	// ErrMovementNotFound: движение по кассе не найдено.
	ErrMovementNotFound = newError("safe movement not found", ErrNotFound)

	// ErrInsufficientStock: закрытая модель ушла бы в отрицательный остаток.
	ErrInsufficientStock = newError("insufficient stock for closed product", ErrConflict)
	// ErrDuplicate: нарушено ограничение уникальности (модель+цвет, код клиента, имя кассы).
	ErrDuplicate = newError("entity already exists", ErrConflict)

	// ErrOutboxPublish: ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// StorageError оборачивает ошибку драйвера в категорию ErrStorage.
func StorageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// InsufficientStockError уточняет, какая модель не прошла проверку остатка.
func InsufficientStockError(modelNo, color string, stock int64, requested int64) error {
	return fmt.Errorf("%w: %s/%s stock=%d requested=%d", ErrInsufficientStock, modelNo, color, stock, requested)
}

// IsValidation сообщает, относится ли ошибка к нарушению входных правил.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsNotFound сообщает, что ошибка описывает отсутствующую сущность.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict сообщает о конфликте с текущим состоянием.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsStorage сообщает о сбое хранилища.
func IsStorage(err error) bool { return errors.Is(err, ErrStorage) }
