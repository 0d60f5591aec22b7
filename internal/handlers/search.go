package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/xelth-com/saisun/internal/artifacts"
	"github.com/xelth-com/saisun/internal/export"
	"github.com/xelth-com/saisun/internal/search"
)

func filtersFrom(req *http.Request) search.Filters {
	q := req.URL.Query()
	return search.Filters{
		Brands:        splitList(q["brand"]),
		ManagementIDs: splitList(q["id"]),
		Sizes:         splitList(q["size"]),
		Genre:         strings.TrimSpace(q.Get("genre")),
		Keyword:       strings.TrimSpace(q.Get("q")),
	}
}

func (r *Router) search(w http.ResponseWriter, req *http.Request) {
	res, err := r.svc.Search.Search(req.Context(), filtersFrom(req))
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// export renders the search result as csv, xlsx or pdf. With save=true the
// file goes to the artifact store and its location is returned instead.
func (r *Router) export(w http.ResponseWriter, req *http.Request) {
	format, err := export.ParseFormat(req.URL.Query().Get("format"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	save, _ := strconv.ParseBool(req.URL.Query().Get("save"))
	if save && r.svc.Artifacts == nil {
		respondError(w, http.StatusBadRequest, "Artifact storage not configured")
		return
	}

	res, err := r.svc.Search.Search(req.Context(), filtersFrom(req))
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	var buf bytes.Buffer
	if err := r.svc.Renderer.Render(&buf, format, res); err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to render export: %v", err))
		return
	}

	now := r.svc.Now()
	name := "measurements_" + now.Format("20060102_150405") + format.Extension()
	if save {
		obj, err := r.svc.Artifacts.Put(req.Context(), artifacts.NewKey("exports", name, now), format.ContentType(), buf.Bytes())
		if err != nil {
			r.svc.Log.Error("artifact upload failed", "error", err)
			respondError(w, http.StatusBadGateway, "Failed to store export")
			return
		}
		respondJSON(w, http.StatusCreated, obj)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

func (r *Router) getReference(w http.ResponseWriter, req *http.Request) {
	if r.svc.Reference == nil {
		respondError(w, http.StatusNotFound, "Reference standards not configured")
		return
	}
	q := req.URL.Query()
	ref, ok, err := r.svc.Reference.Lookup(req.Context(), q.Get("id"), q.Get("size"))
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, "No reference standard")
		return
	}
	respondJSON(w, http.StatusOK, ref)
}

func (r *Router) importReference(w http.ResponseWriter, req *http.Request) {
	if r.svc.Reference == nil {
		respondError(w, http.StatusNotFound, "Reference standards not configured")
		return
	}
	sheet, ok := r.readUpload(w, req)
	if !ok {
		return
	}
	standards, err := sheet.ReferenceStandards()
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	n, err := r.svc.Reference.Import(req.Context(), standards)
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"imported": n})
}
