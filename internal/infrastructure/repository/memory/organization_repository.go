package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mitchell28/masterleague/internal/domain/organization"
)

type OrganizationRepository struct {
	mu    sync.RWMutex
	items []organization.Organization
}

func NewOrganizationRepository(items []organization.Organization) *OrganizationRepository {
	out := append([]organization.Organization(nil), items...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return &OrganizationRepository{items: out}
}

func (r *OrganizationRepository) List(_ context.Context) ([]organization.Organization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]organization.Organization, 0, len(r.items))
	out = append(out, r.items...)
	return out, nil
}
