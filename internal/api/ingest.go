package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/navigatorhq/navigator/internal/ingest"
	"github.com/navigatorhq/navigator/internal/log"
)

// Ingestor runs document ingestion for a storage trigger.
type Ingestor interface {
	Process(ctx context.Context, trigger ingest.Trigger) (ingest.Report, error)
}

// ingestHandler handles POST /api/v1/ingest.
type ingestHandler struct {
	ingestor Ingestor
	logger   log.Logger
}

func (h *ingestHandler) run(w http.ResponseWriter, r *http.Request) {
	var trigger ingest.Trigger
	if err := json.NewDecoder(r.Body).Decode(&trigger); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body", h.logger)
		return
	}
	if trigger.Key == "" {
		writeError(w, http.StatusBadRequest, "missing_key", "key is required", h.logger)
		return
	}

	report, err := h.ingestor.Process(r.Context(), trigger)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrTextTooShort), errors.Is(err, ingest.ErrExtraction):
			writeError(w, http.StatusBadRequest, "unprocessable_document", err.Error(), h.logger)
		default:
			h.logger.Error("ingestion failed",
				"bucket", trigger.Bucket,
				"key", trigger.Key,
				"error", err)
			writeError(w, http.StatusInternalServerError, "ingestion_failed", "document could not be indexed", h.logger)
		}
		return
	}

	writeJSON(w, http.StatusOK, report, h.logger)
}
