package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/agroscan/liquidaciones-ocr-service/internal/auth"
	"github.com/agroscan/liquidaciones-ocr-service/internal/db"
	"github.com/agroscan/liquidaciones-ocr-service/internal/extract"
	"github.com/agroscan/liquidaciones-ocr-service/internal/models"
	"github.com/agroscan/liquidaciones-ocr-service/internal/ocr"
	"github.com/agroscan/liquidaciones-ocr-service/internal/services"
	"github.com/agroscan/liquidaciones-ocr-service/internal/storage"
)

const (
	MaxUploadSize = 10 * 1024 * 1024 // 10MB
	Version       = "1.2.0"
)

// Handler handles HTTP requests for document processing
type Handler struct {
	config    *models.Config
	validator *services.RecordValidator
}

// NewHandler creates a new API handler
func NewHandler(config *models.Config) *Handler {
	return &Handler{
		config:    config,
		validator: services.NewRecordValidator(),
	}
}

// SetupRoutes configures the HTTP routes
func (h *Handler) SetupRoutes() *mux.Router {
	router := mux.NewRouter()

	// Main endpoints
	router.HandleFunc("/api/process-document", h.ProcessDocument).Methods("POST")
	router.HandleFunc("/api/documents", h.GetDocuments).Methods("GET")

	// Document CRUD
	router.HandleFunc("/api/document/{id}", h.GetDocument).Methods("GET")
	router.HandleFunc("/api/document/{id}", h.UpdateDocument).Methods("PUT")
	router.HandleFunc("/api/document/{id}", h.DeleteDocument).Methods("DELETE")

	// Re-run extraction over the stored OCR text
	router.HandleFunc("/api/document/{id}/reextract", h.ReextractDocument).Methods("POST")

	// Statistics
	router.HandleFunc("/api/stats", h.GetStats).Methods("GET")

	// Health check
	router.HandleFunc("/health", h.Health).Methods("GET")

	return router
}

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status      string            `json:"status"`
	Version     string            `json:"version"`
	Timestamp   string            `json:"timestamp"`
	Uptime      string            `json:"uptime"`
	Memory      MemoryStats       `json:"memory"`
	ImageMagick ServiceStatus     `json:"imageMagick"`
	Database    ServiceStatus     `json:"database"`
	Storage     ServiceStatus     `json:"storage"`
	OCR         map[string]string `json:"ocr"`
}

// MemoryStats represents memory usage statistics
type MemoryStats struct {
	Allocated string `json:"allocated"`
	Total     string `json:"total"`
	System    string `json:"system"`
}

// ServiceStatus represents the status of a service dependency
type ServiceStatus struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

var startTime = time.Now()

// Health endpoint for monitoring
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	imageMagickStatus := h.checkImageMagick()
	databaseStatus := h.checkDatabase()
	storageStatus := h.checkStorage()

	response := HealthResponse{
		Status:    "healthy",
		Version:   Version,
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(startTime).String(),
		Memory: MemoryStats{
			Allocated: fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024),
			Total:     fmt.Sprintf("%.2f MB", float64(m.TotalAlloc)/1024/1024),
			System:    fmt.Sprintf("%.2f MB", float64(m.Sys)/1024/1024),
		},
		ImageMagick: imageMagickStatus,
		Database:    databaseStatus,
		Storage:     storageStatus,
		OCR: map[string]string{
			"defaultProvider": h.config.OCR.DefaultProvider,
		},
	}

	if !databaseStatus.Available {
		response.Status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(response)
}

// checkImageMagick verifies ImageMagick is available
func (h *Handler) checkImageMagick() ServiceStatus {
	cmd := exec.Command("convert", "-version")
	output, err := cmd.CombinedOutput()

	if err != nil {
		return ServiceStatus{
			Available: false,
			Error:     "imagemagick not found or not executable",
		}
	}

	version := "unknown"
	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 {
		version = strings.TrimSpace(lines[0])
	}

	return ServiceStatus{
		Available: true,
		Version:   version,
	}
}

// checkDatabase verifies PostgreSQL connection
func (h *Handler) checkDatabase() ServiceStatus {
	if db.Pool == nil {
		return ServiceStatus{
			Available: false,
			Error:     "database pool not initialized",
		}
	}
	return ServiceStatus{
		Available: true,
		Version:   "PostgreSQL",
	}
}

// checkStorage verifies MinIO connection
func (h *Handler) checkStorage() ServiceStatus {
	if storage.Client == nil {
		return ServiceStatus{
			Available: false,
			Error:     "storage client not initialized",
		}
	}
	return ServiceStatus{
		Available: true,
		Version:   "MinIO S3",
	}
}

// ProcessDocument runs the full pipeline on one uploaded scan:
// preprocess, OCR, extract, validate, store.
func (h *Handler) ProcessDocument(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	requestStart := time.Now()

	claims, err := auth.GetClaimsFromContext(ctx)
	if err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized: "+err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		h.sendError(w, http.StatusBadRequest, "File too large or invalid form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		file, header, err = r.FormFile("image")
		if err != nil {
			h.sendError(w, http.StatusBadRequest, "No file provided (use 'file' or 'image' field)")
			return
		}
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "Failed to read file")
		return
	}

	tipo := r.FormValue("tipo")
	if tipo == "" {
		tipo = models.TipoLiquidacion
	}
	if tipo != models.TipoFactura && tipo != models.TipoLiquidacion {
		h.sendError(w, http.StatusBadRequest, "tipo must be 'factura' or 'liquidacion'")
		return
	}

	req := models.ProcessRequest{
		Tipo:        tipo,
		Provider:    r.FormValue("provider"),
		CoeConocido: r.FormValue("coeConocido"),
	}
	if by := r.FormValue("biasYear"); by != "" {
		if year, err := strconv.Atoi(by); err == nil {
			req.BiasYear = year
		}
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	// Upload original scan to MinIO (if configured)
	var objectKey string
	if storage.Client != nil {
		objectKey, err = storage.UploadScan(ctx, tipo, bytes.NewReader(imageData), int64(len(imageData)), contentType)
		if err != nil {
			// Log but don't fail - scan storage is optional
			log.Printf("Warning: failed to upload scan to MinIO: %v", err)
		}
	}

	provider, err := ocr.NewProvider(req.Provider, h.config.OCR)
	if err != nil {
		h.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	preprocessor := ocr.NewPreprocessor()
	enhanced := preprocessor.Enhance(imageData)

	ocrStart := time.Now()
	rawText, err := provider.ExtractText(ctx, enhanced, contentType)
	ocrDuration := time.Since(ocrStart).Seconds()
	if err != nil {
		json.NewEncoder(w).Encode(models.ProcessResponse{
			Success:       false,
			Error:         fmt.Sprintf("OCR failed: %v", err),
			TotalDuration: time.Since(requestStart).Seconds(),
		})
		return
	}

	doc := h.extractDocument(rawText, req)
	doc.ObjectKey = objectKey

	// Persist (if configured)
	if db.Pool != nil {
		row, err := db.SaveDocument(ctx, doc, claims.UserID, "pendiente")
		if err != nil {
			log.Printf("Warning: failed to save document to DB: %v", err)
		} else {
			doc.ID = row.ID.String()
		}
	}

	response := map[string]interface{}{
		"success":       true,
		"document":      doc,
		"validation":    h.validateDocument(doc),
		"provider":      provider.Name(),
		"ocrDuration":   ocrDuration,
		"totalDuration": time.Since(requestStart).Seconds(),
		"saved_to_db":   doc.ID != "",
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// extractDocument runs the field extraction engine over raw OCR text.
func (h *Handler) extractDocument(rawText string, req models.ProcessRequest) *models.Document {
	opts := h.extractOptions(req)

	doc := &models.Document{
		ID:          "",
		Tipo:        req.Tipo,
		RawText:     rawText,
		ProcessedAt: time.Now(),
	}
	switch req.Tipo {
	case models.TipoFactura:
		rec := extract.ExtractInvoice(rawText, opts)
		doc.Factura = &rec
	default:
		rec := extract.ExtractSettlement(rawText, opts)
		doc.Liquidacion = &rec
	}
	return doc
}

// extractOptions maps service config and per-request hints onto the
// extraction engine's options.
func (h *Handler) extractOptions(req models.ProcessRequest) extract.Options {
	cfg := h.config.Extraction

	opts := extract.Options{
		KnownCOE: req.CoeConocido,
		BiasYear: req.BiasYear,
		TaxRate:  cfg.TaxRate,
	}
	if cfg.WindowChars > 0 || len(cfg.SkipUnits) > 0 {
		opts.Window = extract.DefaultAmountWindow
		if cfg.WindowChars > 0 {
			opts.Window.Chars = cfg.WindowChars
		}
		if len(cfg.SkipUnits) > 0 {
			opts.Window.SkipUnits = cfg.SkipUnits
		}
	}
	if cfg.Locale == "us" {
		opts.Locale = extract.LocaleUS
	}
	return opts
}

// validateDocument runs the cross-field validator for the record type.
func (h *Handler) validateDocument(doc *models.Document) *services.ValidationResult {
	switch {
	case doc.Factura != nil:
		return h.validator.ValidateInvoice(doc.Factura)
	case doc.Liquidacion != nil:
		return h.validator.ValidateSettlement(doc.Liquidacion)
	default:
		return nil
	}
}

// GetDocuments returns the most recent documents
func (h *Handler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()

	if _, err := auth.GetClaimsFromContext(ctx); err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	tipo := r.URL.Query().Get("tipo")
	if tipo != "" && tipo != models.TipoFactura && tipo != models.TipoLiquidacion {
		h.sendError(w, http.StatusBadRequest, "tipo must be 'factura' or 'liquidacion'")
		return
	}

	docs, err := db.GetDocuments(ctx, tipo, 100)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get documents: %v", err))
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":   true,
		"documents": docs,
		"count":     len(docs),
	})
}

// GetDocument returns a single document with a presigned scan URL
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	if _, err := auth.GetClaimsFromContext(ctx); err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	documentID := mux.Vars(r)["id"]
	if _, err := uuid.Parse(documentID); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	doc, err := db.GetDocumentByID(ctx, documentID)
	if err != nil {
		h.sendError(w, http.StatusNotFound, "document not found")
		return
	}

	scanURL := ""
	if doc.ObjectKey != "" && storage.Client != nil {
		if presignedURL, err := storage.GetPresignedURL(ctx, doc.ObjectKey); err == nil {
			scanURL = presignedURL
		}
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":  true,
		"document": doc,
		"scanUrl":  scanURL,
	})
}

// UpdateDocument applies manual corrections
func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	if _, err := auth.GetClaimsFromContext(ctx); err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	documentID := mux.Vars(r)["id"]

	var updates map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	allowed := map[string]bool{
		"record_json": true,
		"estado":      true,
		"tipo":        true,
	}
	filtered := make(map[string]interface{})
	for k, v := range updates {
		if allowed[k] {
			filtered[k] = v
		}
	}

	if len(filtered) == 0 {
		h.sendError(w, http.StatusBadRequest, "no valid fields to update")
		return
	}

	if err := db.UpdateDocument(ctx, documentID, filtered); err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to update document")
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "document updated",
	})
}

// DeleteDocument removes a document and its stored scan
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	if _, err := auth.GetClaimsFromContext(ctx); err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	documentID := mux.Vars(r)["id"]

	if storage.Client != nil {
		doc, err := db.GetDocumentByID(ctx, documentID)
		if err == nil && doc.ObjectKey != "" {
			// Delete scan (ignore errors)
			_ = storage.DeleteScan(ctx, doc.ObjectKey)
		}
	}

	if err := db.DeleteDocument(ctx, documentID); err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to delete document")
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "document deleted",
	})
}

// ReextractDocument re-runs field extraction over the stored OCR text.
// Useful after calibration changes, without paying for OCR again.
func (h *Handler) ReextractDocument(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	if _, err := auth.GetClaimsFromContext(ctx); err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	documentID := mux.Vars(r)["id"]

	row, err := db.GetDocumentByID(ctx, documentID)
	if err != nil {
		h.sendError(w, http.StatusNotFound, "document not found")
		return
	}
	if row.RawText == "" {
		h.sendError(w, http.StatusConflict, "document has no stored OCR text")
		return
	}

	var req models.ProcessRequest
	if r.Body != nil {
		// Hints are optional on re-extraction
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	req.Tipo = row.Tipo

	doc := h.extractDocument(row.RawText, req)

	record, err := json.Marshal(documentRecord(doc))
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to serialize record")
		return
	}
	if err := db.UpdateDocument(ctx, documentID, map[string]interface{}{
		"record_json": string(record),
	}); err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to update document")
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":    true,
		"document":   doc,
		"validation": h.validateDocument(doc),
	})
}

// GetStats returns monthly statistics
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	if _, err := auth.GetClaimsFromContext(ctx); err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	stats, err := db.GetMonthlyStats(ctx)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"stats":   stats,
	})
}

// documentRecord returns whichever record the document carries.
func documentRecord(doc *models.Document) interface{} {
	if doc.Factura != nil {
		return doc.Factura
	}
	return doc.Liquidacion
}

// sendError writes a JSON error response
func (h *Handler) sendError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
