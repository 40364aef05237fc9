package portfolio

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rpupo63/portfolio-backend/admin"
	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rpupo63/portfolio-backend/storage"
	"github.com/rpupo63/portfolio-backend/syncbridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time {
	c.now = c.now.Add(time.Minute)
	return c.now
}

func newTestStore(t *testing.T, kv storage.KV, seed ...models.PortfolioEntry) (*Store, *clock) {
	t.Helper()
	c := &clock{now: t0}
	if seed == nil {
		seed = []models.PortfolioEntry{}
	}
	s, err := New(context.Background(), kv, WithClock(c.Now), WithSeed(seed))
	require.NoError(t, err)
	return s, c
}

func input(title string) EntryInput {
	return EntryInput{
		Category:     models.CategoryImage,
		Title:        title,
		Description:  title + " description",
		Technologies: []string{"Go"},
		ProjectDate:  "2024-01-01",
	}
}

func TestSeedDecodes(t *testing.T) {
	entries, err := Seed()
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	seen := map[int]bool{}
	for _, e := range entries {
		assert.False(t, seen[e.ID], "duplicate seed id %d", e.ID)
		seen[e.ID] = true
		assert.True(t, e.Category.Valid(), "seed %d has category %q", e.ID, e.Category)
	}
}

func TestNewUsesSeedThenPersisted(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()

	s, err := New(ctx, kv)
	require.NoError(t, err)
	seed, _ := Seed()
	assert.Len(t, s.GetAll(ctx), len(seed))
	assert.Equal(t, maxID(seed)+1, s.NextID())

	_, found, _ := kv.Get(ctx, storage.KeyPortfolio)
	assert.False(t, found, "seed is not written until the first mutation")

	_, err = s.Create(ctx, input("Persisted"))
	require.NoError(t, err)

	reloaded, err := New(ctx, kv)
	require.NoError(t, err)
	assert.Len(t, reloaded.GetAll(ctx), len(seed)+1)
	assert.Equal(t, s.NextID(), reloaded.NextID())
}

func TestNewRejectsCorruptedPersistedValue(t *testing.T) {
	kv := storage.NewMemory()
	require.NoError(t, kv.Set(context.Background(), storage.KeyPortfolio, "{oops"))

	_, err := New(context.Background(), kv)
	assert.True(t, errs.IsCorruptedValueError(err))
}

func TestCreateAssignsIncreasingUniqueIDs(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, storage.NewMemory(), models.PortfolioEntry{ID: 41, Title: "existing"})

	last := 41
	seen := map[int]bool{41: true}
	for i := 0; i < 5; i++ {
		e, err := s.Create(ctx, input("entry"))
		require.NoError(t, err)
		assert.Greater(t, e.ID, last)
		assert.False(t, seen[e.ID])
		seen[e.ID] = true
		last = e.ID
	}
	assert.Equal(t, 47, s.NextID())
}

func TestCreateStampsTimestampsAndPersists(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	s, _ := newTestStore(t, kv)

	e, err := s.Create(ctx, input("Foo"))
	require.NoError(t, err)
	assert.Equal(t, 1, e.ID)
	assert.Equal(t, t0.Add(time.Minute), e.CreatedAt)
	assert.Equal(t, e.CreatedAt, e.UpdatedAt)

	var stored []models.PortfolioEntry
	found, err := storage.GetJSON(ctx, kv, storage.KeyPortfolio, &stored)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, stored, 1)
	assert.Equal(t, "Foo", stored[0].Title)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("merges fields and restamps updatedAt", func(t *testing.T) {
		s, _ := newTestStore(t, storage.NewMemory())
		created, err := s.Create(ctx, input("Foo"))
		require.NoError(t, err)

		title := "Bar"
		updated, err := s.Update(ctx, created.ID, EntryPatch{Title: &title})
		require.NoError(t, err)
		require.NotNil(t, updated)

		assert.Equal(t, "Bar", updated.Title)
		assert.Equal(t, created.Description, updated.Description)
		assert.Equal(t, created.CreatedAt, updated.CreatedAt)
		assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	})

	t.Run("unknown id leaves the collection unchanged", func(t *testing.T) {
		s, _ := newTestStore(t, storage.NewMemory())
		_, err := s.Create(ctx, input("Foo"))
		require.NoError(t, err)
		before := s.GetAll(ctx)

		title := "nope"
		updated, err := s.Update(ctx, 999, EntryPatch{Title: &title})
		require.NoError(t, err)
		assert.Nil(t, updated)
		assert.Equal(t, before, s.GetAll(ctx))
	})
}

func TestToggleFeatured(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, storage.NewMemory())
	e, err := s.Create(ctx, input("Foo"))
	require.NoError(t, err)

	toggled, err := s.ToggleFeatured(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Featured)
	assert.Len(t, s.GetFeatured(ctx), 1)

	toggled, err = s.ToggleFeatured(ctx, e.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Featured)
	assert.Empty(t, s.GetFeatured(ctx))

	missing, err := s.ToggleFeatured(ctx, 12345)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, storage.NewMemory())
	a, _ := s.Create(ctx, input("A"))
	_, _ = s.Create(ctx, input("B"))

	removed, err := s.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Nil(t, s.GetByID(ctx, a.ID))
	assert.Len(t, s.GetAll(ctx), 1)

	removed, err = s.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Len(t, s.GetAll(ctx), 1)
}

func TestFilters(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, storage.NewMemory())

	video := input("Reel")
	video.Category = models.CategoryVideo
	video.Featured = true
	_, _ = s.Create(ctx, video)
	_, _ = s.Create(ctx, input("Poster"))

	assert.Len(t, s.GetByCategory(ctx, models.CategoryVideo), 1)
	assert.Len(t, s.GetByCategory(ctx, models.CategoryImage), 1)
	assert.Empty(t, s.GetByCategory(ctx, models.Category3D))
	require.Len(t, s.GetFeatured(ctx), 1)
	assert.Equal(t, "Reel", s.GetFeatured(ctx)[0].Title)
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, storage.NewMemory())
	for _, title := range []string{"A", "B", "C"} {
		_, err := s.Create(ctx, input(title))
		require.NoError(t, err)
	}
	_, _ = s.Delete(ctx, 2)
	before := s.GetAll(ctx)

	exported, err := s.ExportData(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(exported), "\n  {", "export is indented")

	other, _ := newTestStore(t, storage.NewMemory())
	ok, err := other.ImportData(ctx, exported)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, before, other.GetAll(ctx))
	assert.Equal(t, 4, other.NextID())
}

func TestImportRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("non-list payload", func(t *testing.T) {
		s, _ := newTestStore(t, storage.NewMemory())
		_, _ = s.Create(ctx, input("Keep"))

		ok, err := s.ImportData(ctx, []byte(`{"id": 1}`))
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Len(t, s.GetAll(ctx), 1)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		s, _ := newTestStore(t, storage.NewMemory())
		_, _ = s.Create(ctx, input("Keep"))

		ok, err := s.ImportData(ctx, []byte(`[{"id": 1,`))
		assert.False(t, ok)
		assert.True(t, errs.IsInvalidJSONError(err))
		assert.Len(t, s.GetAll(ctx), 1)
	})

	t.Run("duplicate ids", func(t *testing.T) {
		s, _ := newTestStore(t, storage.NewMemory())
		ok, err := s.ImportData(ctx, []byte(`[{"id": 1}, {"id": 1}]`))
		assert.False(t, ok)
		assert.Error(t, err)
	})

	t.Run("empty list", func(t *testing.T) {
		s, _ := newTestStore(t, storage.NewMemory())
		_, _ = s.Create(ctx, input("Gone"))

		ok, err := s.ImportData(ctx, []byte(`[]`))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, s.GetAll(ctx))
		assert.Equal(t, 1, s.NextID())
	})
}

type flakyKV struct {
	*storage.Memory
	fail bool
}

func (f *flakyKV) Set(ctx context.Context, key, value string) error {
	if f.fail {
		return errors.New("quota exceeded")
	}
	return f.Memory.Set(ctx, key, value)
}

func TestFailedPersistRollsBack(t *testing.T) {
	ctx := context.Background()
	kv := &flakyKV{Memory: storage.NewMemory()}
	s, _ := newTestStore(t, kv)
	e, err := s.Create(ctx, input("Stable"))
	require.NoError(t, err)

	kv.fail = true

	_, err = s.Create(ctx, input("Lost"))
	assert.True(t, errs.IsStorageError(err))
	assert.Equal(t, 2, s.NextID())

	removed, err := s.Delete(ctx, e.ID)
	assert.Error(t, err)
	assert.False(t, removed)

	title := "Changed"
	_, err = s.Update(ctx, e.ID, EntryPatch{Title: &title})
	assert.Error(t, err)

	all := s.GetAll(ctx)
	require.Len(t, all, 1)
	assert.Equal(t, "Stable", all[0].Title)
}

func TestGetAllPrefersSyncedAdminDataset(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	s, _ := newTestStore(t, kv)
	_, _ = s.Create(ctx, input("Local"))

	source := 9
	projects := []models.AdminProject{
		{ID: "3", Title: "Numeric", Category: "image", Date: "2024-01-01", Tags: []string{"Go"}},
		{ID: "b7e0", Title: "From sync", Category: "video", SourceID: &source},
		{ID: "c1a2", Title: "Dashboard only", Category: "3d", Featured: true},
		{ID: "3", Title: "Clashing id", Category: "image"},
	}
	require.NoError(t, storage.SetJSON(ctx, kv, storage.KeyProjects, projects))

	assert.Equal(t, "Local", s.GetAll(ctx)[0].Title, "no marker, local list is served")

	require.NoError(t, storage.SetJSON(ctx, kv, storage.KeySyncStatus, models.SyncStatus{Synced: true, ProjectCount: 4}))

	all := s.GetAll(ctx)
	require.Len(t, all, 4)
	assert.Equal(t, 3, all[0].ID)
	assert.Equal(t, []string{"Go"}, all[0].Technologies)
	assert.Equal(t, "2024-01-01", all[0].ProjectDate)
	assert.Equal(t, 9, all[1].ID)
	assert.Equal(t, 10, all[2].ID)
	assert.Equal(t, 11, all[3].ID)

	require.NotNil(t, s.GetByID(ctx, 9))
	assert.Equal(t, "From sync", s.GetByID(ctx, 9).Title)
	assert.Len(t, s.GetFeatured(ctx), 1)

	entries, err := s.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "Entries ignores the synced view")
}

func TestGetAllFallsBackWhenSyncedDatasetIsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	s, _ := newTestStore(t, kv)
	_, _ = s.Create(ctx, input("Local"))

	require.NoError(t, storage.SetJSON(ctx, kv, storage.KeySyncStatus, models.SyncStatus{Synced: true}))
	require.NoError(t, kv.Set(ctx, storage.KeyProjects, "[]"))

	all := s.GetAll(ctx)
	require.Len(t, all, 1)
	assert.Equal(t, "Local", all[0].Title)
}

func TestReturnedEntriesDoNotAlias(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, storage.NewMemory())
	e, _ := s.Create(ctx, input("Foo"))

	e.Technologies[0] = "mutated"
	got := s.GetByID(ctx, e.ID)
	assert.Equal(t, []string{"Go"}, got.Technologies)
}

func TestEntryInputValidate(t *testing.T) {
	assert.NoError(t, input("ok").Validate())

	bad := input("")
	assert.ErrorIs(t, bad.Validate(), errs.ErrMissingRequiredField)

	cat := input("x")
	cat.Category = "audio"
	assert.Error(t, cat.Validate())

	date := input("x")
	date.ProjectDate = "01/02/2024"
	assert.Error(t, date.Validate())

	var patch EntryPatch
	require.NoError(t, json.Unmarshal([]byte(`{"projectDate":"2024-13-01"}`), &patch))
	assert.Error(t, patch.Validate())
}

func newSyncedStore(t *testing.T) (*Store, *admin.Dataset) {
	t.Helper()
	ctx := context.Background()
	kv := storage.NewMemory()
	ds := admin.NewDataset(kv)

	c := &clock{now: t0}
	first, second := input("Foo"), input("Qux")
	first.Description = "Bar baz"
	s, err := New(ctx, kv, WithClock(c.Now), WithDataset(ds), WithSeed([]models.PortfolioEntry{
		first.entry(1, t0),
		second.entry(2, t0),
	}))
	require.NoError(t, err)

	res := syncbridge.New(s, ds, kv).Sync(ctx, syncbridge.Options{})
	require.True(t, res.Success, res.Errors)
	require.Equal(t, 2, res.Synced)
	return s, ds
}

func TestMutationsAfterSyncAreVisible(t *testing.T) {
	ctx := context.Background()

	t.Run("delete then get returns absent", func(t *testing.T) {
		s, ds := newSyncedStore(t)

		removed, err := s.Delete(ctx, 1)
		require.NoError(t, err)
		assert.True(t, removed)
		assert.Nil(t, s.GetByID(ctx, 1))
		assert.Len(t, s.GetAll(ctx), 1)

		projects, err := ds.Load(ctx)
		require.NoError(t, err)
		assert.Len(t, projects, 1)

		removed, err = s.Delete(ctx, 1)
		require.NoError(t, err)
		assert.False(t, removed)
	})

	t.Run("update then get returns the change", func(t *testing.T) {
		s, _ := newSyncedStore(t)
		title := "Renamed"

		updated, err := s.Update(ctx, 2, EntryPatch{Title: &title})
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, "Renamed", updated.Title)
		assert.Equal(t, "Renamed", s.GetByID(ctx, 2).Title)
		assert.Equal(t, t0, s.GetByID(ctx, 2).CreatedAt)

		missing, err := s.Update(ctx, 99, EntryPatch{Title: &title})
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("toggle featured then filter", func(t *testing.T) {
		s, _ := newSyncedStore(t)

		toggled, err := s.ToggleFeatured(ctx, 1)
		require.NoError(t, err)
		assert.True(t, toggled.Featured)

		featured := s.GetFeatured(ctx)
		require.Len(t, featured, 1)
		assert.Equal(t, 1, featured[0].ID)
	})

	t.Run("create then get returns the new entry", func(t *testing.T) {
		s, _ := newSyncedStore(t)

		created, err := s.Create(ctx, input("Fresh"))
		require.NoError(t, err)
		assert.Equal(t, 3, created.ID)

		got := s.GetByID(ctx, created.ID)
		require.NotNil(t, got)
		assert.Equal(t, "Fresh", got.Title)
		assert.Len(t, s.GetAll(ctx), 3)

		entries, err := s.Entries(ctx)
		require.NoError(t, err)
		assert.Len(t, entries, 2, "the store's own list is untouched")
	})

	t.Run("import is refused", func(t *testing.T) {
		s, _ := newSyncedStore(t)

		ok, err := s.ImportData(ctx, []byte(`[]`))
		assert.False(t, ok)
		assert.ErrorIs(t, err, errs.ErrSyncActive)
		assert.Equal(t, 409, errs.StatusCode(err))
	})
}

func TestSyncedRemovalsKeepDerivedIDs(t *testing.T) {
	ctx := context.Background()
	s, ds := newSyncedStore(t)

	require.NoError(t, ds.Update(ctx, func(projects []models.AdminProject) ([]models.AdminProject, error) {
		return append(projects, models.AdminProject{ID: "c1a2", Title: "Dashboard only", Category: "3d", Tags: []string{}}), nil
	}))
	require.NotNil(t, s.GetByID(ctx, 3))

	removed, err := s.Delete(ctx, 2)
	require.NoError(t, err)
	require.True(t, removed)

	got := s.GetByID(ctx, 3)
	require.NotNil(t, got)
	assert.Equal(t, "Dashboard only", got.Title)
}
