package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/wholesale/internal/domain"
	"github.com/vladislavdragonenkov/wholesale/internal/textfold"
)

type customerRepository struct {
	s *Store
}

func (r *customerRepository) CreateCustomer(_ context.Context, customer domain.Customer) (domain.Customer, error) {
	if errs := customer.Validate(); len(errs) > 0 {
		return domain.Customer{}, errs[0]
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if customer.ID == "" {
		customer.ID = uuid.NewString()
	}
	if _, exists := r.s.customers[customer.ID]; exists {
		return domain.Customer{}, domain.ErrDuplicate
	}
	if code := strings.TrimSpace(customer.Code); code != "" {
		for _, existing := range r.s.customers {
			if existing.Code == code {
				return domain.Customer{}, domain.ErrDuplicate
			}
		}
		customer.Code = code
	}
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = time.Now().UTC()
	}

	r.s.customers[customer.ID] = customer
	return customer, nil
}

func (r *customerRepository) GetCustomer(_ context.Context, id string) (domain.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	customer, ok := r.s.customers[id]
	if !ok {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	return customer, nil
}

func (r *customerRepository) ListCustomers(_ context.Context, limit int) ([]domain.Customer, error) {
	return r.filter(limit, func(domain.Customer) bool { return true }), nil
}

// SearchCustomers сравнивает свёрнутые имя, телефоны и код клиента.
func (r *customerRepository) SearchCustomers(_ context.Context, term string, limit int) ([]domain.Customer, error) {
	folded := textfold.Fold(term)
	if folded == "" {
		return []domain.Customer{}, nil
	}
	return r.filter(limit, func(c domain.Customer) bool {
		return strings.Contains(textfold.Key(c.Name, c.Phone, c.Phone2, c.Code), folded)
	}), nil
}

func (r *customerRepository) filter(limit int, match func(domain.Customer) bool) []domain.Customer {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]domain.Customer, 0)
	for _, customer := range r.s.customers {
		if match(customer) {
			result = append(result, customer)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

type userRepository struct {
	s *Store
}

func (r *userRepository) CreateUser(_ context.Context, user domain.User) (domain.User, error) {
	if strings.TrimSpace(user.Name) == "" {
		return domain.User{}, domain.ErrUserNameRequired
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if _, exists := r.s.users[user.ID]; exists {
		return domain.User{}, domain.ErrDuplicate
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	r.s.users[user.ID] = user
	return user, nil
}

func (r *userRepository) GetUser(_ context.Context, id string) (domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (r *userRepository) ListUsers(context.Context) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]domain.User, 0, len(r.s.users))
	for _, user := range r.s.users {
		result = append(result, user)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

var (
	_ domain.CustomerRepository = (*customerRepository)(nil)
	_ domain.UserRepository     = (*userRepository)(nil)
)
