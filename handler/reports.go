package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/Alirezastar2/utmkit-sub001/report"
	"github.com/Alirezastar2/utmkit-sub001/store"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// GenerateReport handles POST /api/reports/{reportID}/generate. The
// response body is the computed ReportData; rendering it to HTML or PDF is
// the caller's concern.
func (h *Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opCtx(r)
	defer cancel()

	reportID := mux.Vars(r)["reportID"]

	data, err := h.aggregator.GenerateScheduled(ctx, reportID, time.Now().UTC())
	if err == store.ErrNotFound {
		SendJSONError(w, http.StatusNotFound, errors.New("report not found"), "")
		return
	} else if errors.Is(err, report.ErrUnknownFrequency) {
		SendJSONError(w, http.StatusBadRequest, err, "")
		return
	} else if err != nil {
		log.Error().Err(err).Str("report_id", reportID).Msg("Failed to generate report")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to generate report")
		return
	}

	SendJSONSuccess(w, http.StatusOK, data)
}
