package admin

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultPage    = 1
	DefaultPerPage = 10
)

// Filter narrows a list request.
type Filter struct {
	Q        string
	Category string
	Featured *bool
}

// ListParams mirrors the admin framework's list request.
type ListParams struct {
	Page      int
	PerPage   int
	SortField string
	SortOrder string
	Filter    Filter
}

type ListResult struct {
	Data  []models.AdminProject `json:"data"`
	Total int                   `json:"total"`
}

// Provider is the CRUD surface the admin dashboard talks to.
type Provider struct {
	dataset *Dataset
	media   MediaEncoder
	now     func() time.Time
	newID   func() string
	logger  zerolog.Logger
}

type Option func(*Provider)

func WithMediaEncoder(m MediaEncoder) Option {
	return func(p *Provider) {
		p.media = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		p.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(p *Provider) {
		p.newID = newID
	}
}

func NewProvider(dataset *Dataset, opts ...Option) *Provider {
	p := &Provider{
		dataset: dataset,
		media:   DataURIEncoder{},
		now:     time.Now,
		newID:   uuid.NewString,
		logger:  log.With().Str("component", "adminProvider").Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetList filters, sorts and pages the dataset. Total counts every match.
func (p *Provider) GetList(ctx context.Context, params ListParams) (ListResult, error) {
	projects, err := p.dataset.Load(ctx)
	if err != nil {
		return ListResult{}, err
	}

	matched := make([]models.AdminProject, 0, len(projects))
	for _, project := range projects {
		if params.Filter.matches(project) {
			matched = append(matched, project)
		}
	}

	sortProjects(matched, params.SortField, params.SortOrder)

	page, perPage := params.Page, params.PerPage
	if page < 1 {
		page = DefaultPage
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	start := min((page-1)*perPage, len(matched))
	end := min(page*perPage, len(matched))

	return ListResult{Data: matched[start:end], Total: len(matched)}, nil
}

func (f Filter) matches(p models.AdminProject) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Featured != nil && p.Featured != *f.Featured {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Q)); q != "" {
		if strings.Contains(strings.ToLower(p.Title), q) || strings.Contains(strings.ToLower(p.Description), q) {
			return true
		}
		for _, tag := range p.Tags {
			if strings.Contains(strings.ToLower(tag), q) {
				return true
			}
		}
		return false
	}
	return true
}

func sortProjects(projects []models.AdminProject, field, order string) {
	var less func(a, b models.AdminProject) bool
	switch field {
	case "id":
		less = func(a, b models.AdminProject) bool { return lessID(a.ID, b.ID) }
	case "title":
		less = func(a, b models.AdminProject) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) }
	case "date", "projectDate":
		less = func(a, b models.AdminProject) bool { return a.Date < b.Date }
	case "createdAt":
		less = func(a, b models.AdminProject) bool { return a.CreatedAt.Before(b.CreatedAt) }
	default:
		return
	}

	desc := strings.EqualFold(order, "DESC")
	sort.SliceStable(projects, func(i, j int) bool {
		if desc {
			return less(projects[j], projects[i])
		}
		return less(projects[i], projects[j])
	})
}

// lessID compares ids numerically when both are numbers.
func lessID(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}

func (p *Provider) GetOne(ctx context.Context, id string) (*models.AdminProject, error) {
	projects, err := p.dataset.Load(ctx)
	if err != nil {
		return nil, err
	}
	if idx := indexOf(projects, id); idx >= 0 {
		return &projects[idx], nil
	}
	return nil, errs.NewNotFound("project " + id)
}

// GetMany returns the projects with the given ids, skipping unknown ones.
func (p *Provider) GetMany(ctx context.Context, ids []string) ([]models.AdminProject, error) {
	projects, err := p.dataset.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.AdminProject{}
	for _, id := range ids {
		if idx := indexOf(projects, id); idx >= 0 {
			out = append(out, projects[idx])
		}
	}
	return out, nil
}

// Create stores a new project with a fresh id.
func (p *Provider) Create(ctx context.Context, in ProjectInput) (*models.AdminProject, error) {
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return nil, errs.NewMissingRequiredFieldError("title")
	}

	now := p.now()
	project := models.AdminProject{Tags: []string{}, CreatedAt: now, UpdatedAt: now}
	if err := p.apply(ctx, &project, in); err != nil {
		return nil, err
	}

	err := p.dataset.Update(ctx, func(projects []models.AdminProject) ([]models.AdminProject, error) {
		project.ID = p.newID()
		for indexOf(projects, project.ID) >= 0 {
			project.ID = p.newID()
		}
		return append(projects, project), nil
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info().Str("id", project.ID).Str("title", project.Title).Msg("Created project")
	return &project, nil
}

// Update merges in into the project with id.
func (p *Provider) Update(ctx context.Context, id string, in ProjectInput) (*models.AdminProject, error) {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, errs.NewMissingRequiredFieldError("title")
	}

	// Media is encoded before taking the dataset lock; uploads can be slow.
	var staged models.AdminProject
	if err := p.applyMedia(ctx, &staged, in); err != nil {
		return nil, err
	}

	var updated models.AdminProject
	err := p.dataset.Update(ctx, func(projects []models.AdminProject) ([]models.AdminProject, error) {
		idx := indexOf(projects, id)
		if idx < 0 {
			return nil, errs.NewNotFound("project " + id)
		}
		project := projects[idx]
		applyFields(&project, in)
		copyMedia(&project, staged, in)
		project.ID = id
		project.UpdatedAt = p.now()
		projects[idx] = project
		updated = project
		return projects, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes and returns the project with id.
func (p *Provider) Delete(ctx context.Context, id string) (*models.AdminProject, error) {
	var removed models.AdminProject
	err := p.dataset.Update(ctx, func(projects []models.AdminProject) ([]models.AdminProject, error) {
		idx := indexOf(projects, id)
		if idx < 0 {
			return nil, errs.NewNotFound("project " + id)
		}
		removed = projects[idx]
		return append(projects[:idx], projects[idx+1:]...), nil
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info().Str("id", id).Msg("Deleted project")
	return &removed, nil
}

// DeleteMany removes every listed project and returns the ids actually removed.
func (p *Provider) DeleteMany(ctx context.Context, ids []string) ([]string, error) {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	removed := []string{}
	err := p.dataset.Update(ctx, func(projects []models.AdminProject) ([]models.AdminProject, error) {
		kept := projects[:0]
		for _, project := range projects {
			if drop[project.ID] {
				removed = append(removed, project.ID)
				continue
			}
			kept = append(kept, project)
		}
		return kept, nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (p *Provider) apply(ctx context.Context, project *models.AdminProject, in ProjectInput) error {
	applyFields(project, in)
	return p.applyMedia(ctx, project, in)
}

func applyFields(project *models.AdminProject, in ProjectInput) {
	if in.Title != nil {
		project.Title = *in.Title
	}
	if in.Description != nil {
		project.Description = *in.Description
	}
	if in.Category != nil {
		project.Category = *in.Category
	}
	if in.Date != nil {
		project.Date = *in.Date
	}
	if in.Featured != nil {
		project.Featured = *in.Featured
	}
	if in.ExternalOnly != nil {
		project.ExternalOnly = *in.ExternalOnly
	}
	if in.ProjectURL != nil {
		project.ProjectURL = *in.ProjectURL
	}
	if in.GithubURL != nil {
		project.GithubURL = *in.GithubURL
	}
	if in.Tags != nil {
		project.Tags = append([]string{}, *in.Tags...)
	}
}

// applyMedia resolves every media field present in in onto project.
func (p *Provider) applyMedia(ctx context.Context, project *models.AdminProject, in ProjectInput) error {
	for field, m := range in.media() {
		if m == nil {
			continue
		}
		value := m.URL
		if m.Upload != nil {
			if err := CheckSize(field, *m.Upload); err != nil {
				return err
			}
			encoded, err := p.media.Encode(ctx, field, *m.Upload)
			if err != nil {
				return err
			}
			value = encoded
		}
		setMedia(project, field, value)
	}
	return nil
}

func copyMedia(dst *models.AdminProject, staged models.AdminProject, in ProjectInput) {
	if in.Image != nil {
		dst.Image = staged.Image
	}
	if in.Thumb != nil {
		dst.Thumb = staged.Thumb
	}
	if in.Video != nil {
		dst.Video = staged.Video
	}
}

func setMedia(project *models.AdminProject, field, value string) {
	switch field {
	case "image":
		project.Image = value
	case "thumb":
		project.Thumb = value
	case "video":
		project.Video = value
	}
}

func indexOf(projects []models.AdminProject, id string) int {
	for i, p := range projects {
		if p.ID == id {
			return i
		}
	}
	return -1
}
