package syncbridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rpupo63/portfolio-backend/admin"
	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rpupo63/portfolio-backend/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Source yields the portfolio entries to migrate.
type Source interface {
	Entries(ctx context.Context) ([]models.PortfolioEntry, error)
}

// Options select how duplicates are resolved. At most one may be set.
type Options struct {
	SkipDuplicates  bool `json:"skipDuplicates"`
	MergeDuplicates bool `json:"mergeDuplicates"`
}

type Result struct {
	Success    bool        `json:"success"`
	Synced     int         `json:"synced"`
	Skipped    int         `json:"skipped"`
	Merged     int         `json:"merged"`
	Errors     []string    `json:"errors"`
	Duplicates []Duplicate `json:"duplicates"`
}

// Bridge copies portfolio entries into the admin dataset and marks the admin
// dataset as the source of truth.
type Bridge struct {
	source  Source
	dataset *admin.Dataset
	kv      storage.KV
	now     func() time.Time
	newID   func() string
	logger  zerolog.Logger
	group   singleflight.Group
}

type Option func(*Bridge)

func WithClock(now func() time.Time) Option {
	return func(b *Bridge) {
		b.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(b *Bridge) {
		b.newID = newID
	}
}

func New(source Source, dataset *admin.Dataset, kv storage.KV, opts ...Option) *Bridge {
	b := &Bridge{
		source:  source,
		dataset: dataset,
		kv:      kv,
		now:     time.Now,
		newID:   uuid.NewString,
		logger:  log.With().Str("component", "syncBridge").Logger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Sync runs one migration. Failures are reported in the result, never returned.
// Concurrent calls with the same options share a single run.
func (b *Bridge) Sync(ctx context.Context, opts Options) Result {
	key := fmt.Sprintf("skip=%t,merge=%t", opts.SkipDuplicates, opts.MergeDuplicates)
	v, _, _ := b.group.Do(key, func() (any, error) {
		return b.sync(ctx, opts), nil
	})
	return v.(Result)
}

func (b *Bridge) sync(ctx context.Context, opts Options) (res Result) {
	res = Result{Errors: []string{}, Duplicates: []Duplicate{}}

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().Interface("panic", r).Msg("Sync panicked")
			res = failed(res, fmt.Sprintf("sync aborted: %v", r))
		}
	}()

	if opts.SkipDuplicates && opts.MergeDuplicates {
		res.Errors = append(res.Errors, errs.NewSyncConflictError().Error())
		return res
	}

	entries, err := b.source.Entries(ctx)
	if err != nil {
		return failed(res, message(err))
	}

	incoming := make([]models.AdminProject, 0, len(entries))
	for _, p := range TransformAll(entries) {
		if problems := Validate(p); len(problems) > 0 {
			res.Errors = append(res.Errors, problems...)
			continue
		}
		incoming = append(incoming, p)
	}

	var total int
	err = b.dataset.Update(ctx, func(existing []models.AdminProject) ([]models.AdminProject, error) {
		matches := detect(incoming, existing)
		matched := make(map[int][]int, len(matches))
		for _, m := range matches {
			res.Duplicates = append(res.Duplicates, m.Duplicate)
			matched[m.incoming] = append(matched[m.incoming], m.existing)
		}

		now := b.now()
		used := make(map[string]bool, len(existing)+len(incoming))
		for _, p := range existing {
			used[p.ID] = true
		}

		next := existing
		for i, p := range incoming {
			targets, dup := matched[i]
			switch {
			case dup && opts.SkipDuplicates:
				res.Skipped++
				continue
			case dup && opts.MergeDuplicates:
				for _, j := range targets {
					if backfill(&next[j], p) {
						next[j].UpdatedAt = now
					}
				}
				res.Merged++
				continue
			}

			if used[p.ID] {
				p.ID = b.newID()
				for used[p.ID] {
					p.ID = b.newID()
				}
			}
			used[p.ID] = true
			next = append(next, p)
			res.Synced++
		}

		total = len(next)
		return next, nil
	})
	if err != nil {
		return failed(res, message(err))
	}

	status := models.SyncStatus{Synced: true, ProjectCount: total, SyncDate: b.now()}
	if err := storage.SetJSON(ctx, b.kv, storage.KeySyncStatus, status); err != nil {
		b.logger.Error().Err(err).Msg("Admin dataset written but sync marker was not")
		return failed(res, message(err))
	}

	res.Success = true
	b.logger.Info().
		Int("synced", res.Synced).
		Int("skipped", res.Skipped).
		Int("merged", res.Merged).
		Int("invalid", len(res.Errors)).
		Int("projectCount", total).
		Msg("Portfolio synced to admin dataset")
	return res
}

// message keeps the underlying cause of storage errors visible to the caller.
func message(err error) string {
	var apiErr *errs.ApiErr
	if errors.As(err, &apiErr) {
		return apiErr.GetFullError()
	}
	return err.Error()
}

// failed reports an aborted run. Nothing was written, so no record counts as
// synced, skipped or merged.
func failed(res Result, msg string) Result {
	res.Success = false
	res.Synced = 0
	res.Skipped = 0
	res.Merged = 0
	res.Errors = append(res.Errors, msg)
	return res
}

// Preview reports the duplicates and validation problems a sync would hit
// without writing anything.
func (b *Bridge) Preview(ctx context.Context) ([]Duplicate, []string, error) {
	entries, err := b.source.Entries(ctx)
	if err != nil {
		return nil, nil, err
	}
	existing, err := b.dataset.Load(ctx)
	if err != nil {
		return nil, nil, err
	}

	problems := []string{}
	incoming := make([]models.AdminProject, 0, len(entries))
	for _, p := range TransformAll(entries) {
		if msgs := Validate(p); len(msgs) > 0 {
			problems = append(problems, msgs...)
			continue
		}
		incoming = append(incoming, p)
	}
	return DetectDuplicates(incoming, existing), problems, nil
}

// Status returns the stored sync marker, or the zero value before any sync.
func (b *Bridge) Status(ctx context.Context) (models.SyncStatus, error) {
	var status models.SyncStatus
	if _, err := storage.GetJSON(ctx, b.kv, storage.KeySyncStatus, &status); err != nil {
		return models.SyncStatus{}, err
	}
	return status, nil
}

// Reset removes the sync marker so the portfolio store serves its own list again.
func (b *Bridge) Reset(ctx context.Context) error {
	if err := b.kv.Delete(ctx, storage.KeySyncStatus); err != nil {
		return errs.NewStorageError("delete", storage.KeySyncStatus, err)
	}
	b.logger.Info().Msg("Sync marker cleared")
	return nil
}
