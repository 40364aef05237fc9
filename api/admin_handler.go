package api

import (
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/portfolio-backend/admin"
	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// maxMultipartBody fits one video and two images plus form overhead.
const maxMultipartBody = admin.MaxVideoBytes + 2*admin.MaxImageBytes + 1<<20

var mediaFields = []string{"image", "thumb", "video"}

type adminHandler struct {
	responder Responder
	logger    zerolog.Logger
	provider  *admin.Provider
}

func newAdminHandler(provider *admin.Provider) adminHandler {
	logger := log.With().Str("handlerName", "adminHandler").Logger()

	return adminHandler{
		responder: NewResponder(logger),
		logger:    logger,
		provider:  provider,
	}
}

func splitIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func listParams(r *http.Request) (admin.ListParams, error) {
	q := r.URL.Query()
	params := admin.ListParams{
		SortField: q.Get("sort"),
		SortOrder: strings.ToUpper(q.Get("order")),
		Filter: admin.Filter{
			Q:        q.Get("q"),
			Category: q.Get("category"),
		},
	}

	for _, p := range []struct {
		name string
		dest *int
	}{{"page", &params.Page}, {"perPage", &params.PerPage}} {
		if raw := q.Get(p.name); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return params, errs.NewInvalidFieldError(p.name, "must be an integer")
			}
			*p.dest = n
		}
	}

	if raw := q.Get("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			return params, errs.NewInvalidFieldError("featured", "must be a boolean")
		}
		params.Filter.Featured = &featured
	}
	return params, nil
}

// listProjects serves the admin list view
// @Summary List admin projects
// @Tags Admin
// @Produce json
// @Param page query int false "1-based page"
// @Param perPage query int false "page size, default 10"
// @Param sort query string false "id, title, date or createdAt"
// @Param order query string false "ASC or DESC"
// @Param q query string false "search title, description and tags"
// @Param ids query string false "comma separated ids, returns exactly those"
// @Success 200 {object} admin.ListResult
// @Router /admin/projects [get]
func (h adminHandler) listProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if raw := r.URL.Query().Get("ids"); raw != "" {
			projects, err := h.provider.GetMany(ctx, splitIDs(raw))
			if err != nil {
				h.responder.WriteError(w, err)
				return
			}
			w.Header().Set("X-Total-Count", strconv.Itoa(len(projects)))
			h.responder.WriteJSON(w, admin.ListResult{Data: projects, Total: len(projects)})
			return
		}

		params, err := listParams(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		result, err := h.provider.GetList(ctx, params)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		w.Header().Set("X-Total-Count", strconv.Itoa(result.Total))
		h.responder.WriteJSON(w, result)
	}
}

func (h adminHandler) getProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		project, err := h.provider.GetOne(r.Context(), chi.URLParam(r, "projectID"))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, project)
	}
}

// createProject adds a project from JSON or a multipart form
// @Summary Create admin project
// @Tags Admin
// @Accept json,mpfd
// @Produce json
// @Success 201 {object} models.AdminProject
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse "Upload above the size cap"
// @Router /admin/projects [post]
func (h adminHandler) createProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := h.readInput(w, r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, err := h.provider.Create(r.Context(), in)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSONStatus(w, http.StatusCreated, project)
	}
}

func (h adminHandler) updateProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := h.readInput(w, r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, err := h.provider.Update(r.Context(), chi.URLParam(r, "projectID"), in)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, project)
	}
}

func (h adminHandler) deleteProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		project, err := h.provider.Delete(r.Context(), chi.URLParam(r, "projectID"))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, project)
	}
}

func (h adminHandler) deleteProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids := splitIDs(r.URL.Query().Get("ids"))
		if len(ids) == 0 {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("ids"))
			return
		}

		removed, err := h.provider.DeleteMany(r.Context(), ids)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, DeleteManyResponse{Data: removed})
	}
}

func (h adminHandler) readInput(w http.ResponseWriter, r *http.Request) (admin.ProjectInput, error) {
	var in admin.ProjectInput

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		err := decodeJSON(w, r, &in)
		return in, err
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBody)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return in, bodyReadError(err, maxMultipartBody)
	}
	defer r.MultipartForm.RemoveAll()

	form := r.MultipartForm
	text := func(name string) *string {
		if values, ok := form.Value[name]; ok && len(values) > 0 {
			return &values[0]
		}
		return nil
	}

	in.Title = text("title")
	in.Description = text("description")
	in.Category = text("category")
	in.Date = text("date")
	in.ProjectURL = text("projectUrl")
	in.GithubURL = text("githubUrl")

	for _, f := range []struct {
		name string
		dest **bool
	}{{"featured", &in.Featured}, {"externalOnly", &in.ExternalOnly}} {
		if raw := text(f.name); raw != nil {
			v, err := strconv.ParseBool(*raw)
			if err != nil {
				return in, errs.NewInvalidFieldError(f.name, "must be a boolean")
			}
			*f.dest = &v
		}
	}

	if values, ok := form.Value["tags"]; ok {
		tags := admin.TagList{}
		for _, v := range values {
			tags = append(tags, admin.ParseTags(v)...)
		}
		in.Tags = &tags
	}

	for _, field := range mediaFields {
		media, err := mediaFromForm(form, field)
		if err != nil {
			return in, err
		}
		switch field {
		case "image":
			in.Image = media
		case "thumb":
			in.Thumb = media
		case "video":
			in.Video = media
		}
	}
	return in, nil
}

// mediaFromForm prefers an uploaded file over a URL value for the same field.
func mediaFromForm(form *multipart.Form, field string) (*admin.MediaField, error) {
	if files := form.File[field]; len(files) > 0 {
		fh := files[0]
		if limit := admin.MediaLimit(field); fh.Size > limit {
			return nil, errs.NewMediaTooLargeError(field, fh.Size, limit)
		}

		f, err := fh.Open()
		if err != nil {
			return nil, errs.NewMalformedPayloadError(field, err)
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return nil, errs.NewMalformedPayloadError(field, err)
		}
		return &admin.MediaField{Upload: &admin.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		}}, nil
	}

	if values, ok := form.Value[field]; ok && len(values) > 0 {
		return &admin.MediaField{URL: values[0]}, nil
	}
	return nil, nil
}
