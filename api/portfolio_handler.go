package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rpupo63/portfolio-backend/portfolio"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type portfolioHandler struct {
	responder Responder
	logger    zerolog.Logger
	store     *portfolio.Store
}

func newPortfolioHandler(store *portfolio.Store) portfolioHandler {
	logger := log.With().Str("handlerName", "portfolioHandler").Logger()

	return portfolioHandler{
		responder: NewResponder(logger),
		logger:    logger,
		store:     store,
	}
}

func entryID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "entryID")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, errs.NewInvalidFieldError("entryID", "must be a positive integer")
	}
	return id, nil
}

// listEntries returns the public portfolio
// @Summary List portfolio entries
// @Tags Portfolio
// @Produce json
// @Param category query string false "image, video or 3d"
// @Param featured query bool false "only featured entries"
// @Success 200 {array} PortfolioEntryResponse
// @Router /portfolio [get]
func (h portfolioHandler) listEntries() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		entries := h.store.GetAll(ctx)
		if raw := r.URL.Query().Get("category"); raw != "" {
			category := models.Category(raw)
			if !category.Valid() {
				h.responder.WriteError(w, errs.NewInvalidFieldError("category", "must be one of image, video, 3d"))
				return
			}
			entries = h.store.GetByCategory(ctx, category)
		}

		if raw := r.URL.Query().Get("featured"); raw != "" {
			featured, err := strconv.ParseBool(raw)
			if err != nil {
				h.responder.WriteError(w, errs.NewInvalidFieldError("featured", "must be a boolean"))
				return
			}
			if featured {
				kept := entries[:0]
				for _, e := range entries {
					if e.Featured {
						kept = append(kept, e)
					}
				}
				entries = kept
			}
		}

		h.responder.WriteJSON(w, entryResponses(entries))
	}
}

// getEntry returns one entry
// @Summary Get portfolio entry
// @Tags Portfolio
// @Produce json
// @Param entryID path int true "Entry ID"
// @Success 200 {object} PortfolioEntryResponse
// @Failure 404 {object} ErrorResponse
// @Router /portfolio/{entryID} [get]
func (h portfolioHandler) getEntry() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := entryID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		entry := h.store.GetByID(r.Context(), id)
		if entry == nil {
			h.responder.WriteError(w, errs.NewNotFoundError("portfolio entry not found"))
			return
		}

		h.responder.WriteJSON(w, entryResponse(*entry))
	}
}

// createEntry adds an entry
// @Summary Create portfolio entry
// @Tags Portfolio
// @Accept json
// @Produce json
// @Param entry body portfolio.EntryInput true "Entry data"
// @Success 201 {object} models.PortfolioEntry
// @Failure 400 {object} ErrorResponse
// @Router /portfolio [post]
func (h portfolioHandler) createEntry() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in portfolio.EntryInput
		if err := decodeJSON(w, r, &in); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if err := in.Validate(); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		entry, err := h.store.Create(r.Context(), in)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSONStatus(w, http.StatusCreated, entry)
	}
}

// updateEntry merges fields into an entry
// @Summary Update portfolio entry
// @Tags Portfolio
// @Accept json
// @Produce json
// @Param entryID path int true "Entry ID"
// @Param entry body portfolio.EntryPatch true "Fields to change"
// @Success 200 {object} models.PortfolioEntry
// @Failure 404 {object} ErrorResponse
// @Router /portfolio/{entryID} [put]
func (h portfolioHandler) updateEntry() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := entryID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var patch portfolio.EntryPatch
		if err := decodeJSON(w, r, &patch); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if err := patch.Validate(); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		entry, err := h.store.Update(r.Context(), id, patch)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if entry == nil {
			h.responder.WriteError(w, errs.NewNotFoundError("portfolio entry not found"))
			return
		}

		h.responder.WriteJSON(w, entry)
	}
}

func (h portfolioHandler) toggleFeatured() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := entryID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		entry, err := h.store.ToggleFeatured(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if entry == nil {
			h.responder.WriteError(w, errs.NewNotFoundError("portfolio entry not found"))
			return
		}

		h.responder.WriteJSON(w, entry)
	}
}

// deleteEntry removes an entry
// @Summary Delete portfolio entry
// @Tags Portfolio
// @Param entryID path int true "Entry ID"
// @Success 200 {object} StatusResponse
// @Failure 404 {object} ErrorResponse
// @Router /portfolio/{entryID} [delete]
func (h portfolioHandler) deleteEntry() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := entryID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		deleted, err := h.store.Delete(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if !deleted {
			h.responder.WriteError(w, errs.NewNotFoundError("portfolio entry not found"))
			return
		}

		h.responder.WriteJSON(w, StatusResponse{Status: "success", Message: "portfolio entry deleted successfully"})
	}
}

func (h portfolioHandler) exportEntries() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := h.store.ExportData(r.Context())
		if err != nil {
			h.responder.WriteError(w, errs.NewInternalErrorWithCause("failed to export portfolio", err))
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="portfolio.json"`)
		if _, err := w.Write(data); err != nil {
			h.logger.Error().Err(err).Msg("error writing export")
		}
	}
}

// importEntries replaces the portfolio with an exported array
// @Summary Import portfolio
// @Tags Portfolio
// @Accept json
// @Produce json
// @Success 200 {object} ImportResponse
// @Failure 400 {object} ErrorResponse "Malformed JSON or not a list"
// @Router /portfolio/import [post]
func (h portfolioHandler) importEntries() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
		if err != nil {
			h.responder.WriteError(w, bodyReadError(err, maxJSONBody))
			return
		}

		ok, err := h.store.ImportData(ctx, data)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if !ok {
			h.responder.WriteError(w, errs.NewNotAListError("portfolio import"))
			return
		}

		entries, err := h.store.Entries(ctx)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, ImportResponse{Status: "success", Count: len(entries)})
	}
}
