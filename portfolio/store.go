package portfolio

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rpupo63/portfolio-backend/admin"
	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rpupo63/portfolio-backend/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

//go:embed seed.json
var seedJSON []byte

// Seed returns the built-in entries used when nothing has been persisted yet.
func Seed() ([]models.PortfolioEntry, error) {
	var entries []models.PortfolioEntry
	if err := json.Unmarshal(seedJSON, &entries); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return entries, nil
}

// Store is the canonical list of portfolio entries. Every mutation writes the
// whole collection back under storage.KeyPortfolio, except after a completed
// sync: the admin dataset is then the source of truth and mutations go there.
type Store struct {
	kv      storage.KV
	dataset *admin.Dataset
	logger  zerolog.Logger
	now    func() time.Time
	seed   []models.PortfolioEntry

	mu      sync.RWMutex
	entries []models.PortfolioEntry
	nextID  int
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithDataset shares the admin dataset, and its lock, with the store.
func WithDataset(d *admin.Dataset) Option {
	return func(s *Store) {
		s.dataset = d
	}
}

// WithSeed replaces the built-in seed list.
func WithSeed(entries []models.PortfolioEntry) Option {
	return func(s *Store) {
		s.seed = cloneAll(entries)
	}
}

// New loads the persisted collection, falling back to the seed list.
func New(ctx context.Context, kv storage.KV, opts ...Option) (*Store, error) {
	s := &Store{
		kv:     kv,
		logger: log.With().Str("component", "portfolioStore").Logger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.dataset == nil {
		s.dataset = admin.NewDataset(kv)
	}

	var persisted []models.PortfolioEntry
	found, err := storage.GetJSON(ctx, kv, storage.KeyPortfolio, &persisted)
	if err != nil {
		return nil, err
	}

	switch {
	case found:
		s.entries = persisted
		s.logger.Info().Int("count", len(persisted)).Msg("Loaded persisted portfolio")
	case s.seed != nil:
		s.entries = s.seed
	default:
		if s.entries, err = Seed(); err != nil {
			return nil, err
		}
		s.logger.Info().Int("count", len(s.entries)).Msg("Using seed portfolio")
	}
	if s.entries == nil {
		s.entries = []models.PortfolioEntry{}
	}
	s.nextID = maxID(s.entries) + 1

	return s, nil
}

// NextID is the id the next Create will assign.
func (s *Store) NextID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextID
}

// Entries returns the store's own collection, ignoring any synced admin dataset.
func (s *Store) Entries(_ context.Context) ([]models.PortfolioEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.entries), nil
}

// GetAll returns every entry. Once a sync has been marked complete the admin
// dataset is the source of truth and is served in portfolio shape.
func (s *Store) GetAll(ctx context.Context) []models.PortfolioEntry {
	if synced := s.syncedView(ctx); synced != nil {
		return synced
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.entries)
}

// GetByID returns nil when no entry has id.
func (s *Store) GetByID(ctx context.Context, id int) *models.PortfolioEntry {
	for _, e := range s.GetAll(ctx) {
		if e.ID == id {
			return &e
		}
	}
	return nil
}

func (s *Store) GetByCategory(ctx context.Context, category models.Category) []models.PortfolioEntry {
	return filter(s.GetAll(ctx), func(e models.PortfolioEntry) bool { return e.Category == category })
}

func (s *Store) GetFeatured(ctx context.Context) []models.PortfolioEntry {
	return filter(s.GetAll(ctx), func(e models.PortfolioEntry) bool { return e.Featured })
}

// Create assigns the next id and stamps both timestamps.
func (s *Store) Create(ctx context.Context, in EntryInput) (*models.PortfolioEntry, error) {
	var created models.PortfolioEntry
	handled, err := s.mutateSynced(ctx, func(projects []models.AdminProject, entries []models.PortfolioEntry) ([]models.AdminProject, error) {
		created = in.entry(maxID(entries)+1, s.now())
		return append(projects, models.AdminFromPortfolio(created)), nil
	})
	if handled {
		if err != nil {
			return nil, err
		}
		s.logger.Info().Int("id", created.ID).Str("title", created.Title).Msg("Created portfolio entry in admin dataset")
		return cloneEntry(created), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := in.entry(s.nextID, s.now())
	next := append(cloneAll(s.entries), entry)
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	s.nextID++

	s.logger.Info().Int("id", entry.ID).Str("title", entry.Title).Msg("Created portfolio entry")
	return cloneEntry(entry), nil
}

// Update merges patch into the entry with id. It returns nil, nil when id is unknown.
func (s *Store) Update(ctx context.Context, id int, patch EntryPatch) (*models.PortfolioEntry, error) {
	return s.update(ctx, id, patch.apply)
}

// ToggleFeatured flips the featured flag. It returns nil, nil when id is unknown.
func (s *Store) ToggleFeatured(ctx context.Context, id int) (*models.PortfolioEntry, error) {
	return s.update(ctx, id, func(e *models.PortfolioEntry) {
		e.Featured = !e.Featured
	})
}

func (s *Store) update(ctx context.Context, id int, mutate func(*models.PortfolioEntry)) (*models.PortfolioEntry, error) {
	var updated models.PortfolioEntry
	handled, err := s.mutateSynced(ctx, func(projects []models.AdminProject, entries []models.PortfolioEntry) ([]models.AdminProject, error) {
		idx := indexOf(entries, id)
		if idx < 0 {
			return nil, errUnknownEntry
		}
		updated = *cloneEntry(entries[idx])
		s.restamp(&updated, entries[idx], mutate)
		projects[idx] = models.ApplyPortfolio(projects[idx], updated)
		return projects, nil
	})
	if handled {
		if errors.Is(err, errUnknownEntry) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return cloneEntry(updated), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOf(s.entries, id)
	if idx < 0 {
		return nil, nil
	}

	next := cloneAll(s.entries)
	s.restamp(&next[idx], s.entries[idx], mutate)

	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	return cloneEntry(next[idx]), nil
}

// restamp applies mutate to e, keeping the identity and creation time of orig.
func (s *Store) restamp(e *models.PortfolioEntry, orig models.PortfolioEntry, mutate func(*models.PortfolioEntry)) {
	mutate(e)
	e.ID = orig.ID
	e.CreatedAt = orig.CreatedAt
	e.UpdatedAt = s.now()
}

// Delete reports whether an entry was removed.
func (s *Store) Delete(ctx context.Context, id int) (bool, error) {
	handled, err := s.mutateSynced(ctx, func(projects []models.AdminProject, entries []models.PortfolioEntry) ([]models.AdminProject, error) {
		idx := indexOf(entries, id)
		if idx < 0 {
			return nil, errUnknownEntry
		}
		return append(projects[:idx], projects[idx+1:]...), nil
	})
	if handled {
		if errors.Is(err, errUnknownEntry) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		s.logger.Info().Int("id", id).Msg("Deleted portfolio entry from admin dataset")
		return true, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOf(s.entries, id)
	if idx < 0 {
		return false, nil
	}

	next := make([]models.PortfolioEntry, 0, len(s.entries)-1)
	next = append(next, cloneAll(s.entries[:idx])...)
	next = append(next, cloneAll(s.entries[idx+1:])...)
	if err := s.commit(ctx, next); err != nil {
		return false, err
	}

	s.logger.Info().Int("id", id).Msg("Deleted portfolio entry")
	return true, nil
}

// ExportData renders the collection GetAll serves as indented JSON.
func (s *Store) ExportData(ctx context.Context) ([]byte, error) {
	return json.MarshalIndent(s.GetAll(ctx), "", "  ")
}

// ImportData replaces the collection with data. Malformed JSON is returned as an
// error; a payload that is not a list is rejected with false. Either way the
// current collection is left untouched. Imports are refused while the admin
// dataset is the source of truth.
func (s *Store) ImportData(ctx context.Context, data []byte) (bool, error) {
	if s.syncedView(ctx) != nil {
		return false, errs.NewSyncActiveError()
	}
	if !json.Valid(data) {
		var raw any
		return false, errs.NewInvalidJSONError(json.Unmarshal(data, &raw))
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '[' {
		return false, nil
	}

	var entries []models.PortfolioEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return false, errs.NewInvalidJSONError(err)
	}
	if entries == nil {
		entries = []models.PortfolioEntry{}
	}
	seen := make(map[int]bool, len(entries))
	for _, e := range entries {
		if seen[e.ID] {
			return false, errs.NewInvalidFieldError("id", "duplicate id "+strconv.Itoa(e.ID))
		}
		seen[e.ID] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.commit(ctx, entries); err != nil {
		return false, err
	}
	s.nextID = maxID(entries) + 1

	s.logger.Info().Int("count", len(entries)).Int("nextID", s.nextID).Msg("Imported portfolio")
	return true, nil
}

// commit persists next and only then makes it the live collection.
func (s *Store) commit(ctx context.Context, next []models.PortfolioEntry) error {
	if err := storage.SetJSON(ctx, s.kv, storage.KeyPortfolio, next); err != nil {
		s.logger.Error().Err(err).Msg("Failed to persist portfolio")
		return err
	}
	s.entries = next
	return nil
}

var (
	errLocalView    = errors.New("admin dataset is not the source of truth")
	errUnknownEntry = errors.New("unknown portfolio entry")
)

func (s *Store) synced(ctx context.Context) bool {
	var status models.SyncStatus
	found, err := storage.GetJSON(ctx, s.kv, storage.KeySyncStatus, &status)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Ignoring unreadable sync status")
		return false
	}
	return found && status.Synced
}

func (s *Store) syncedView(ctx context.Context) []models.PortfolioEntry {
	if !s.synced(ctx) {
		return nil
	}
	projects, err := s.dataset.Load(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Synced admin dataset unreadable, serving local portfolio")
		return nil
	}
	if len(projects) == 0 {
		return nil
	}
	return fromAdmin(projects)
}

// mutateSynced runs fn against the admin dataset when GetAll serves it.
// entries[i] is projects[i] in portfolio shape. handled is false when the
// store's own collection is the one to change.
func (s *Store) mutateSynced(ctx context.Context, fn func(projects []models.AdminProject, entries []models.PortfolioEntry) ([]models.AdminProject, error)) (handled bool, err error) {
	if !s.synced(ctx) {
		return false, nil
	}
	err = s.dataset.Update(ctx, func(projects []models.AdminProject) ([]models.AdminProject, error) {
		if len(projects) == 0 {
			return nil, errLocalView
		}
		entries := fromAdmin(projects)
		pinIDs(projects, entries)
		return fn(projects, entries)
	})
	if errors.Is(err, errLocalView) {
		return false, nil
	}
	return true, err
}

// pinIDs records the derived portfolio id on admin records that have no
// numeric id or source id, so later removals do not renumber them.
func pinIDs(projects []models.AdminProject, entries []models.PortfolioEntry) {
	for i := range projects {
		if _, err := strconv.Atoi(projects[i].ID); err == nil || projects[i].SourceID != nil {
			continue
		}
		id := entries[i].ID
		projects[i].SourceID = &id
	}
}

// fromAdmin converts admin records back to portfolio entries. A record keeps
// its numeric id, or failing that its source id; the rest get fresh ids above
// the highest one in use.
func fromAdmin(projects []models.AdminProject) []models.PortfolioEntry {
	ids := make([]int, len(projects))
	used := make(map[int]bool, len(projects))
	highest := 0

	for i, p := range projects {
		var candidates []int
		if n, err := strconv.Atoi(p.ID); err == nil {
			candidates = append(candidates, n)
		}
		if p.SourceID != nil {
			candidates = append(candidates, *p.SourceID)
		}
		for _, c := range candidates {
			if c > 0 && !used[c] {
				ids[i] = c
				used[c] = true
				highest = max(highest, c)
				break
			}
		}
	}

	next := highest + 1
	out := make([]models.PortfolioEntry, len(projects))
	for i, p := range projects {
		if ids[i] == 0 {
			ids[i] = next
			next++
		}
		out[i] = models.PortfolioFromAdmin(p, ids[i])
	}
	return out
}

func maxID(entries []models.PortfolioEntry) int {
	highest := 0
	for _, e := range entries {
		highest = max(highest, e.ID)
	}
	return highest
}

func indexOf(entries []models.PortfolioEntry, id int) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func filter(entries []models.PortfolioEntry, keep func(models.PortfolioEntry) bool) []models.PortfolioEntry {
	out := []models.PortfolioEntry{}
	for _, e := range entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func cloneEntry(e models.PortfolioEntry) *models.PortfolioEntry {
	if e.Technologies != nil {
		e.Technologies = append(make([]string, 0, len(e.Technologies)), e.Technologies...)
	}
	return &e
}

func cloneAll(entries []models.PortfolioEntry) []models.PortfolioEntry {
	out := make([]models.PortfolioEntry, len(entries))
	for i, e := range entries {
		out[i] = *cloneEntry(e)
	}
	return out
}
