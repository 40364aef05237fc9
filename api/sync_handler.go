package api

import (
	"net/http"

	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/syncbridge"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type syncHandler struct {
	responder Responder
	logger    zerolog.Logger
	bridge    *syncbridge.Bridge
}

func newSyncHandler(bridge *syncbridge.Bridge) syncHandler {
	logger := log.With().Str("handlerName", "syncHandler").Logger()

	return syncHandler{
		responder: NewResponder(logger),
		logger:    logger,
		bridge:    bridge,
	}
}

// runSync migrates the portfolio into the admin dataset
// @Summary Sync portfolio to admin
// @Tags Sync
// @Accept json
// @Produce json
// @Param options body syncbridge.Options false "Duplicate policy"
// @Success 200 {object} syncbridge.Result
// @Failure 400 {object} ErrorResponse "Both policies selected"
// @Failure 500 {object} syncbridge.Result "Sync failed"
// @Router /admin/sync [post]
func (h syncHandler) runSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var opts syncbridge.Options
		if r.ContentLength != 0 {
			if err := decodeJSON(w, r, &opts); err != nil {
				h.responder.WriteError(w, err)
				return
			}
		}
		if opts.SkipDuplicates && opts.MergeDuplicates {
			h.responder.WriteError(w, errs.NewSyncConflictError())
			return
		}

		result := h.bridge.Sync(r.Context(), opts)
		status := http.StatusOK
		if !result.Success {
			status = http.StatusInternalServerError
		}
		h.responder.WriteJSONStatus(w, status, result)
	}
}

func (h syncHandler) getStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := h.bridge.Status(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, status)
	}
}

func (h syncHandler) previewDuplicates() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		duplicates, problems, err := h.bridge.Preview(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, PreviewResponse{Duplicates: duplicates, Errors: problems})
	}
}

func (h syncHandler) resetStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.bridge.Reset(r.Context()); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, StatusResponse{Status: "success", Message: "sync marker cleared"})
	}
}
