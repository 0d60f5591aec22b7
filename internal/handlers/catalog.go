package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/xelth-com/saisun/internal/catalog"
	"github.com/xelth-com/saisun/internal/export"
	"github.com/xelth-com/saisun/internal/importer"
	"github.com/xelth-com/saisun/internal/models"
	"github.com/xelth-com/saisun/internal/websocket"
)

const maxUploadSize = 32 << 20

// listCatalog returns pending entries, optionally narrowed by brand and id.
func (r *Router) listCatalog(w http.ResponseWriter, req *http.Request) {
	entries, err := r.filteredEntries(req)
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

func (r *Router) listBrands(w http.ResponseWriter, req *http.Request) {
	brands, err := r.svc.Catalog.Brands(req.Context())
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, brands)
}

func (r *Router) listManagementIDs(w http.ResponseWriter, req *http.Request) {
	ids, err := r.svc.Catalog.ManagementIDs(req.Context(), mux.Vars(req)["brand"])
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, ids)
}

func (r *Router) listSizes(w http.ResponseWriter, req *http.Request) {
	sizes, err := r.svc.Catalog.Sizes(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, sizes)
}

// importCatalog accepts a multipart "file" (.csv or .xlsx) of listings.
func (r *Router) importCatalog(w http.ResponseWriter, req *http.Request) {
	sheet, ok := r.readUpload(w, req)
	if !ok {
		return
	}
	rows, err := sheet.ImportRows()
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	r.storeListings(w, req, rows)
}

func (r *Router) importOdoo(w http.ResponseWriter, req *http.Request) {
	if r.svc.Odoo == nil {
		respondError(w, http.StatusServiceUnavailable, "Odoo import not configured")
		return
	}
	rows, err := r.svc.Odoo.Fetch(req.Context())
	if err != nil {
		r.svc.Log.Error("odoo fetch failed", "error", err)
		respondError(w, http.StatusBadGateway, fmt.Sprintf("Odoo fetch failed: %v", err))
		return
	}
	r.storeListings(w, req, rows)
}

func (r *Router) storeListings(w http.ResponseWriter, req *http.Request, rows []models.ImportRow) {
	res, err := r.svc.Catalog.Import(req.Context(), catalog.Expand(rows))
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	r.publish(websocket.EventCatalogUpdated, res)
	respondJSON(w, http.StatusOK, res)
}

// catalogLabels renders a QR tag sheet for pending entries.
func (r *Router) catalogLabels(w http.ResponseWriter, req *http.Request) {
	entries, err := r.filteredEntries(req)
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	if len(entries) == 0 {
		respondError(w, http.StatusNotFound, "No pending entries")
		return
	}
	cfg := r.svc.Labels
	cfg.FontPath = r.svc.Renderer.FontPath

	var buf bytes.Buffer
	if err := export.WriteLabelsPDF(&buf, entries, cfg); err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to generate PDF: %v", err))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=\"labels.pdf\"")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

func (r *Router) filteredEntries(req *http.Request) ([]models.CatalogEntry, error) {
	q := req.URL.Query()
	brand, id := strings.TrimSpace(q.Get("brand")), strings.TrimSpace(q.Get("id"))
	var (
		entries []models.CatalogEntry
		err     error
	)
	if id != "" {
		entries, err = r.svc.Catalog.Entries(req.Context(), id)
	} else {
		entries, err = r.svc.Catalog.All(req.Context())
	}
	if err != nil || brand == "" {
		return entries, err
	}
	out := entries[:0:0]
	for _, e := range entries {
		if e.Brand == brand {
			out = append(out, e)
		}
	}
	return out, nil
}

// readUpload parses the multipart "file" field. It writes the error
// response itself and reports whether parsing succeeded.
func (r *Router) readUpload(w http.ResponseWriter, req *http.Request) (importer.Sheet, bool) {
	req.Body = http.MaxBytesReader(w, req.Body, maxUploadSize)
	file, header, err := req.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing upload field \"file\"")
		return importer.Sheet{}, false
	}
	defer file.Close()

	sheet, err := importer.ReadFile(header.Filename, file)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return importer.Sheet{}, false
	}
	return sheet, true
}
