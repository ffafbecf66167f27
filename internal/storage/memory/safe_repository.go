package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/wholesale/internal/domain"
)

type safeRepository struct {
	s *Store
}

// CreateSafe заводит кассу; имя уникально.
func (r *safeRepository) CreateSafe(_ context.Context, safe domain.Safe) (domain.Safe, error) {
	safe.Name = strings.TrimSpace(safe.Name)
	if safe.Name == "" {
		return domain.Safe{}, domain.ErrSafeNameRequired
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.safes {
		if existing.Name == safe.Name {
			return domain.Safe{}, domain.ErrDuplicate
		}
	}
	if safe.ID == "" {
		safe.ID = uuid.NewString()
	}
	if _, exists := r.s.safes[safe.ID]; exists {
		return domain.Safe{}, domain.ErrDuplicate
	}
	if safe.CreatedAt.IsZero() {
		safe.CreatedAt = time.Now().UTC()
	}
	r.s.safes[safe.ID] = safe
	return safe, nil
}

func (r *safeRepository) GetSafe(_ context.Context, id string) (domain.Safe, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	safe, ok := r.s.safes[id]
	if !ok {
		return domain.Safe{}, domain.ErrSafeNotFound
	}
	return safe, nil
}

func (r *safeRepository) ListSafes(context.Context) ([]domain.Safe, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]domain.Safe, 0, len(r.s.safes))
	for _, safe := range r.s.safes {
		result = append(result, safe)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Movements возвращает движения кассы по возрастанию времени; при равном времени в порядке записи.
func (r *safeRepository) Movements(_ context.Context, safeID string) ([]domain.SafeMovement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]domain.SafeMovement, 0)
	for _, m := range r.s.movements {
		if m.SafeID == safeID {
			result = append(result, m)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (r *safeRepository) GetMovement(_ context.Context, id string) (domain.SafeMovement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, m := range r.s.movements {
		if m.ID == id {
			return m, nil
		}
	}
	return domain.SafeMovement{}, domain.ErrMovementNotFound
}

var _ domain.SafeRepository = (*safeRepository)(nil)
