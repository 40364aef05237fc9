package admin

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rpupo63/portfolio-backend/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return "p" + strconv.Itoa(n)
	}
}

func newTestProvider(t *testing.T, projects ...models.AdminProject) (*Provider, storage.KV) {
	t.Helper()
	kv := storage.NewMemory()
	ds := NewDataset(kv)
	if projects != nil {
		require.NoError(t, storage.SetJSON(context.Background(), kv, storage.KeyProjects, projects))
	}
	p := NewProvider(ds, WithClock(func() time.Time { return t0 }), WithIDGenerator(sequentialIDs()))
	return p, kv
}

func str(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func fixtures() []models.AdminProject {
	return []models.AdminProject{
		{ID: "10", Title: "Zeta", Category: "image", Date: "2023-02-01", Tags: []string{"Go"}, CreatedAt: t0.Add(3 * time.Hour)},
		{ID: "2", Title: "alpha", Category: "video", Date: "2024-06-01", Featured: true, Tags: []string{"Blender"}, CreatedAt: t0.Add(time.Hour)},
		{ID: "3", Title: "Mid", Description: "a rendered scene", Category: "3d", Date: "2022-01-01", Tags: []string{}, CreatedAt: t0.Add(2 * time.Hour)},
	}
}

func ids(projects []models.AdminProject) []string {
	out := make([]string, len(projects))
	for i, p := range projects {
		out[i] = p.ID
	}
	return out
}

func TestGetListEmptyDataset(t *testing.T) {
	p, _ := newTestProvider(t)

	res, err := p.GetList(context.Background(), ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
	assert.NotNil(t, res.Data)
	assert.Empty(t, res.Data)
}

func TestGetListSorts(t *testing.T) {
	p, _ := newTestProvider(t, fixtures()...)
	ctx := context.Background()

	cases := []struct {
		field, order string
		want         []string
	}{
		{"id", "ASC", []string{"2", "3", "10"}},
		{"id", "DESC", []string{"10", "3", "2"}},
		{"title", "ASC", []string{"2", "3", "10"}},
		{"date", "DESC", []string{"2", "10", "3"}},
		{"createdAt", "ASC", []string{"2", "3", "10"}},
		{"", "", []string{"10", "2", "3"}},
	}
	for _, tc := range cases {
		t.Run(tc.field+"_"+tc.order, func(t *testing.T) {
			res, err := p.GetList(ctx, ListParams{SortField: tc.field, SortOrder: tc.order})
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids(res.Data))
		})
	}
}

func TestGetListFiltersAndPages(t *testing.T) {
	p, _ := newTestProvider(t, fixtures()...)
	ctx := context.Background()

	res, err := p.GetList(ctx, ListParams{Filter: Filter{Q: "blender"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, ids(res.Data))

	res, err = p.GetList(ctx, ListParams{Filter: Filter{Q: "RENDERED"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, ids(res.Data))

	res, err = p.GetList(ctx, ListParams{Filter: Filter{Category: "image"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"10"}, ids(res.Data))

	res, err = p.GetList(ctx, ListParams{Filter: Filter{Featured: boolPtr(false)}})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)

	res, err = p.GetList(ctx, ListParams{Page: 2, PerPage: 2, SortField: "id", SortOrder: "ASC"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, []string{"10"}, ids(res.Data))

	res, err = p.GetList(ctx, ListParams{Page: 5, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Empty(t, res.Data)
}

func TestGetOneAndMany(t *testing.T) {
	p, _ := newTestProvider(t, fixtures()...)
	ctx := context.Background()

	one, err := p.GetOne(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, "Mid", one.Title)

	_, err = p.GetOne(ctx, "missing")
	assert.True(t, errs.IsNotFound(err))
	assert.Equal(t, 404, errs.StatusCode(err))

	many, err := p.GetMany(ctx, []string{"3", "nope", "10"})
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "10"}, ids(many))
}

func TestCreate(t *testing.T) {
	p, kv := newTestProvider(t)
	ctx := context.Background()

	tags := ParseTags("Go, React ,")
	created, err := p.Create(ctx, ProjectInput{
		Title:    str("New"),
		Category: str("image"),
		Image:    &MediaField{URL: "https://cdn.example.com/a.png"},
		Tags:     &tags,
	})
	require.NoError(t, err)
	assert.Equal(t, "p1", created.ID)
	assert.Equal(t, []string{"Go", "React"}, created.Tags)
	assert.Equal(t, "https://cdn.example.com/a.png", created.Image)
	assert.Equal(t, t0, created.CreatedAt)
	assert.Equal(t, t0, created.UpdatedAt)

	raw, found, err := kv.Get(ctx, storage.KeyProjects)
	require.NoError(t, err)
	require.True(t, found)
	var stored []models.AdminProject
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, []string{"p1"}, ids(stored))

	plain, err := p.Create(ctx, ProjectInput{Title: str("No tags")})
	require.NoError(t, err)
	assert.NotNil(t, plain.Tags)
	assert.Empty(t, plain.Tags)
}

func TestCreateRequiresTitle(t *testing.T) {
	p, kv := newTestProvider(t)
	ctx := context.Background()

	_, err := p.Create(ctx, ProjectInput{Title: str("  ")})
	assert.ErrorIs(t, err, errs.ErrMissingRequiredField)

	_, found, _ := kv.Get(ctx, storage.KeyProjects)
	assert.False(t, found)
}

func TestCreateSkipsCollidingIDs(t *testing.T) {
	p, _ := newTestProvider(t, models.AdminProject{ID: "p1", Title: "Existing", Tags: []string{}})

	created, err := p.Create(context.Background(), ProjectInput{Title: str("Second")})
	require.NoError(t, err)
	assert.Equal(t, "p2", created.ID)
}

func TestUpdateMergesFields(t *testing.T) {
	p, _ := newTestProvider(t, fixtures()...)
	ctx := context.Background()

	updated, err := p.Update(ctx, "3", ProjectInput{Featured: boolPtr(true), Thumb: &MediaField{URL: "t.png"}})
	require.NoError(t, err)
	assert.Equal(t, "Mid", updated.Title)
	assert.True(t, updated.Featured)
	assert.Equal(t, "t.png", updated.Thumb)
	assert.Equal(t, t0, updated.UpdatedAt)

	got, err := p.GetOne(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, *updated, *got)

	_, err = p.Update(ctx, "missing", ProjectInput{Title: str("x")})
	assert.True(t, errs.IsNotFound(err))
}

func TestDelete(t *testing.T) {
	p, _ := newTestProvider(t, fixtures()...)
	ctx := context.Background()

	removed, err := p.Delete(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "alpha", removed.Title)

	res, err := p.GetList(ctx, ListParams{})
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "3"}, ids(res.Data))

	_, err = p.Delete(ctx, "2")
	assert.True(t, errs.IsNotFound(err))
}

func TestDeleteMany(t *testing.T) {
	p, _ := newTestProvider(t, fixtures()...)
	ctx := context.Background()

	removed, err := p.DeleteMany(ctx, []string{"10", "ghost", "3"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"10", "3"}, removed)

	res, err := p.GetList(ctx, ListParams{})
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, ids(res.Data))
}

func TestUploadsAreEncodedAndCapped(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	created, err := p.Create(ctx, ProjectInput{
		Title: str("With image"),
		Image: &MediaField{Upload: &Upload{Filename: "a.png", ContentType: "image/png", Data: []byte("png")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,cG5n", created.Image)

	big := &Upload{Filename: "big.png", Data: make([]byte, MaxImageBytes+1)}
	_, err = p.Create(ctx, ProjectInput{Title: str("Too big"), Image: &MediaField{Upload: big}})
	assert.True(t, errs.IsMediaTooLargeError(err))
	assert.Equal(t, 413, errs.StatusCode(err))

	video := &Upload{Filename: "clip.mp4", ContentType: "video/mp4", Data: make([]byte, MaxImageBytes+1)}
	created, err = p.Create(ctx, ProjectInput{Title: str("Video"), Video: &MediaField{Upload: video}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(created.Video, "data:video/mp4;base64,"))
}

func TestProjectInputDecoding(t *testing.T) {
	var in ProjectInput
	require.NoError(t, json.Unmarshal([]byte(`{
		"title": "T",
		"tags": "a, b",
		"image": {"src": "https://x/y.png"},
		"thumb": "https://x/t.png"
	}`), &in))
	assert.Equal(t, TagList{"a", "b"}, *in.Tags)
	assert.Equal(t, "https://x/y.png", in.Image.URL)
	assert.Equal(t, "https://x/t.png", in.Thumb.URL)
	assert.Nil(t, in.Video)

	require.NoError(t, json.Unmarshal([]byte(`{"tags": [" c ", ""]}`), &in))
	assert.Equal(t, TagList{"c"}, *in.Tags)

	assert.Error(t, json.Unmarshal([]byte(`{"tags": 5}`), &in))
}
