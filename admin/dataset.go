package admin

import (
	"context"
	"sync"

	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rpupo63/portfolio-backend/storage"
)

// Dataset owns the admin project list stored under storage.KeyProjects.
// Writers go through Update so load-modify-save cycles do not interleave.
type Dataset struct {
	kv storage.KV
	mu sync.Mutex
}

func NewDataset(kv storage.KV) *Dataset {
	return &Dataset{kv: kv}
}

// Load returns the stored projects, or an empty list when nothing is stored.
func (d *Dataset) Load(ctx context.Context) ([]models.AdminProject, error) {
	var projects []models.AdminProject
	if _, err := storage.GetJSON(ctx, d.kv, storage.KeyProjects, &projects); err != nil {
		return nil, err
	}
	if projects == nil {
		projects = []models.AdminProject{}
	}
	return projects, nil
}

// Update loads the list, hands it to fn and saves what fn returns. Nothing is
// written when fn fails.
func (d *Dataset) Update(ctx context.Context, fn func([]models.AdminProject) ([]models.AdminProject, error)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	current, err := d.Load(ctx)
	if err != nil {
		return err
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	return d.save(ctx, next)
}

func (d *Dataset) save(ctx context.Context, projects []models.AdminProject) error {
	if projects == nil {
		projects = []models.AdminProject{}
	}
	return storage.SetJSON(ctx, d.kv, storage.KeyProjects, projects)
}
