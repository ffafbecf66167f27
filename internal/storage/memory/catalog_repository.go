package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/wholesale/internal/domain"
)

type catalogRepository struct {
	s *Store
}

func productKey(modelNo, color string) string {
	return strings.ToLower(strings.TrimSpace(modelNo)) + "\x00" + strings.ToLower(strings.TrimSpace(color))
}

// CreateProduct заводит вариант модели; пара (ModelNo, Color) уникальна.
func (r *catalogRepository) CreateProduct(_ context.Context, product domain.Product) (domain.Product, error) {
	if errs := product.Validate(); len(errs) > 0 {
		return domain.Product{}, errs[0]
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := productKey(product.ModelNo, product.Color)
	if _, exists := r.s.productKeys[key]; exists {
		return domain.Product{}, domain.ErrDuplicate
	}
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	if _, exists := r.s.products[product.ID]; exists {
		return domain.Product{}, domain.ErrDuplicate
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	product.UpdatedAt = product.CreatedAt

	r.s.products[product.ID] = product
	r.s.productKeys[key] = product.ID
	return product, nil
}

func (r *catalogRepository) GetProduct(_ context.Context, id string) (domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	product, ok := r.s.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

func (r *catalogRepository) GetProducts(_ context.Context, ids []string) (map[string]domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make(map[string]domain.Product, len(ids))
	for _, id := range ids {
		if product, ok := r.s.products[id]; ok {
			result[id] = product
		}
	}
	return result, nil
}

// SearchByModel ищет подстроку в номере модели без учёта регистра.
func (r *catalogRepository) SearchByModel(_ context.Context, term string, limit int) ([]domain.Product, error) {
	term = strings.ToLower(strings.TrimSpace(term))

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]domain.Product, 0)
	for _, product := range r.s.products {
		if strings.Contains(strings.ToLower(product.ModelNo), term) {
			result = append(result, product)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].ModelNo != result[j].ModelNo {
			return result[i].ModelNo < result[j].ModelNo
		}
		return result[i].Color < result[j].Color
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

var _ domain.CatalogRepository = (*catalogRepository)(nil)
