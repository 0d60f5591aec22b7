package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/xelth-com/saisun/internal/middleware"
	"github.com/xelth-com/saisun/internal/session"
	"github.com/xelth-com/saisun/internal/websocket"
)

// SaveRequest commits the values entered for one management id.
type SaveRequest struct {
	ManagementID string                   `json:"managementId"`
	Sizes        []string                 `json:"sizes"`
	RequestID    string                   `json:"requestId"`
	Inputs       map[string]session.Input `json:"inputs"`
}

func (r *Router) templateFields(w http.ResponseWriter, req *http.Request) {
	genre := mux.Vars(req)["genre"]
	fields, err := r.svc.Templates.ResolveFields(req.Context(), genre)
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"genre": genre, "fields": fields})
}

// measurementForm runs selection and review for ?id= and the optional
// comma separated ?sizes=.
func (r *Router) measurementForm(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	id := strings.TrimSpace(q.Get("id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}
	s, forms, err := r.svc.Recorder.Open(req.Context(), id, splitList(q["sizes"]))
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"state":  s.State().String(),
		"fields": s.Fields(),
		"forms":  forms,
	})
}

func (r *Router) saveMeasurements(w http.ResponseWriter, req *http.Request) {
	var body SaveRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if strings.TrimSpace(body.ManagementID) == "" {
		respondError(w, http.StatusBadRequest, "managementId is required")
		return
	}
	sizes := body.Sizes
	if len(sizes) == 0 {
		for size := range body.Inputs {
			sizes = append(sizes, size)
		}
		sort.Strings(sizes)
	}
	if len(sizes) == 0 {
		respondError(w, http.StatusBadRequest, "No sizes given")
		return
	}

	s, _, err := r.svc.Recorder.Open(req.Context(), body.ManagementID, sizes)
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	for size, in := range body.Inputs {
		if err := s.Enter(size, in); err != nil {
			r.respondErr(w, req, err)
			return
		}
	}
	res, err := s.Commit(req.Context(), body.RequestID)
	if len(res.Committed) > 0 {
		r.publish(websocket.EventMeasurementSaved, map[string]interface{}{
			"managementId": body.ManagementID,
			"committed":    res.Committed,
			"by":           middleware.Username(req.Context()),
		})
		r.publish(websocket.EventCatalogUpdated, map[string]interface{}{"removed": res.Committed})
	}
	if err != nil {
		var ce *session.CommitError
		if errors.As(err, &ce) {
			r.respondPartialCommit(w, req, body.ManagementID, err, ce)
			return
		}
		r.respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusCreated, res)
}

// respondPartialCommit reports a failed commit together with the sizes of
// managementID still pending in the catalog, so the client can resubmit
// exactly those.
func (r *Router) respondPartialCommit(w http.ResponseWriter, req *http.Request, managementID string, err error, ce *session.CommitError) {
	status := statusFor(err)
	r.svc.Log.Error("measurement commit failed", "managementId", managementID,
		"committed", len(ce.Committed), "failed", ce.Failed, "error", err)
	out := commitErrorBody(err, ce)
	pending, perr := r.svc.Catalog.Sizes(req.Context(), managementID)
	if perr != nil {
		r.svc.Log.Warn("pending sizes unavailable", "managementId", managementID, "error", perr)
	} else {
		out["pending"] = pending
	}
	respondJSON(w, status, out)
}

// archive moves records older than ?days= (default retention) to the
// archive table.
func (r *Router) archive(w http.ResponseWriter, req *http.Request) {
	days := r.svc.RetentionDays
	if v := req.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "days must be a non-negative integer")
			return
		}
		days = n
	}
	moved, err := r.svc.Archiver.ArchiveOlderThan(req.Context(), days)
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	payload := map[string]interface{}{
		"moved":  moved,
		"days":   days,
		"cutoff": r.svc.Archiver.Cutoff(days).Format("2006-01-02"),
	}
	if moved > 0 {
		r.publish(websocket.EventArchived, payload)
	}
	respondJSON(w, http.StatusOK, payload)
}

// splitList flattens repeated and comma separated query values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
