package memory

import (
	"sort"
	"sync"
	"time"

	"leadform-telegram-bot/internal/domain"
)

// LeadRepo — in-memory двойник SQLite-хранилища с той же семантикой
// upsert по телефону. Используется в тестах.
type LeadRepo struct {
	mu      sync.RWMutex
	byID    map[int64]*domain.Lead
	byPhone map[string]int64
	nextID  int64
}

func NewLeadRepo() *LeadRepo {
	return &LeadRepo{
		byID:    make(map[int64]*domain.Lead),
		byPhone: make(map[string]int64),
		nextID:  1,
	}
}

func (r *LeadRepo) SaveLead(lead domain.Lead) (int64, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	if lead.UpdatedAt.IsZero() {
		lead.UpdatedAt = now
	}

	if id, ok := r.byPhone[lead.Phone]; ok {
		existing := r.byID[id]
		createdAt := existing.CreatedAt
		dupCount := existing.DuplicateCount + 1
		lead.ID = id
		lead.CreatedAt = createdAt
		lead.DuplicateCount = dupCount
		r.byID[id] = &lead
		return id, true, nil
	}

	lead.ID = r.nextID
	r.nextID++
	lead.DuplicateCount = 0
	r.byID[lead.ID] = &lead
	r.byPhone[lead.Phone] = lead.ID
	return lead.ID, false, nil
}

func (r *LeadRepo) Stats() (domain.Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var s domain.Stats
	for _, lead := range r.byID {
		s.Total++
		switch lead.Status {
		case domain.StatusHot:
			s.Hot++
		case domain.StatusWarm:
			s.Warm++
		case domain.StatusCold:
			s.Cold++
		}
	}
	return s, nil
}

func (r *LeadRepo) Export(start, end time.Time) ([]domain.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	startDay := start.UTC().Truncate(24 * time.Hour)
	endDay := end.UTC().Truncate(24 * time.Hour)
	var out []domain.Lead
	for _, lead := range r.byID {
		day := lead.CreatedAt.UTC().Truncate(24 * time.Hour)
		if day.Before(startDay) || day.After(endDay) {
			continue
		}
		out = append(out, *lead)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *LeadRepo) ListChatIDsByStatus(status domain.Status) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := map[int64]struct{}{}
	ids := make([]int64, 0, len(r.byID))
	for _, lead := range r.byID {
		if lead.Status != status {
			continue
		}
		if _, ok := seen[lead.ChatID]; ok {
			continue
		}
		seen[lead.ChatID] = struct{}{}
		ids = append(ids, lead.ChatID)
	}
	return ids, nil
}

// Get возвращает заявку по id (только для проверок в тестах).
func (r *LeadRepo) Get(id int64) (domain.Lead, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lead, ok := r.byID[id]
	if !ok {
		return domain.Lead{}, false
	}
	return *lead, true
}
