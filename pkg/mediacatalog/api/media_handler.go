package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/media-catalog/pkg/mediacatalog"
)

const (
	// DefaultMaxUploadBytes bounds the multipart body of a poster upload
	DefaultMaxUploadBytes = 10 << 20

	// PosterField is the multipart field carrying the poster image
	PosterField = "med_image"

	genericServerError = "Generic Server Error!"
)

// ErrorResponse is the body of a 400 response
type ErrorResponse struct {
	Errors []mediacatalog.FieldError `json:"errors"`
}

// MediaHandler handles HTTP requests for the media catalog
type MediaHandler struct {
	service        mediacatalog.Service
	maxUploadBytes int64
}

// HandlerOption configures a MediaHandler
type HandlerOption func(*MediaHandler)

// WithMaxUploadBytes limits the size of poster uploads
func WithMaxUploadBytes(n int64) HandlerOption {
	return func(h *MediaHandler) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(service mediacatalog.Service, opts ...HandlerOption) *MediaHandler {
	h := &MediaHandler{
		service:        service,
		maxUploadBytes: DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the routes for media entries and their reviews
func (h *MediaHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListMedia)
	r.Post("/", h.CreateMedia)
	r.Get("/{id}", h.GetMedia)
	r.Put("/{id}", h.UpdateMedia)
	r.Delete("/{id}", h.DeleteMedia)

	r.Post("/{id}/upload", h.UploadPoster)

	r.Get("/{id}/reviews", h.ListReviews)
	r.Post("/{id}/reviews", h.AddReview)
	r.Get("/{id}/reviews/{reviewId}", h.GetReview)
	r.Put("/{id}/reviews/{reviewId}", h.UpdateReview)
	r.Delete("/{id}/reviews/{reviewId}", h.DeleteReview)

	return r
}

// ListMedia lists entries, optionally filtered by the category query parameter
func (h *MediaHandler) ListMedia(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	c, err := h.service.ListMedia(r.Context(), category)
	if err != nil {
		respondError(w, r, "Failed to list media", err)
		return
	}
	render.JSON(w, r, c)
}

// GetMedia returns one entry
func (h *MediaHandler) GetMedia(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, err := h.service.GetMedia(r.Context(), id)
	if err != nil {
		respondError(w, r, "Failed to get media", err, "id", id)
		return
	}
	render.JSON(w, r, entry)
}

// CreateMedia adds an entry. The response carries no body.
func (h *MediaHandler) CreateMedia(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		respondError(w, r, "Invalid request body", err)
		return
	}

	entry, err := h.service.CreateMedia(r.Context(), fields)
	if err != nil {
		respondError(w, r, "Failed to create media", err)
		return
	}

	slog.Info("Media created", "id", entry.ID)
	w.WriteHeader(http.StatusCreated)
}

// UpdateMedia merges the body into an entry and returns the whole collection
func (h *MediaHandler) UpdateMedia(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	fields, err := decodeFields(r)
	if err != nil {
		respondError(w, r, "Invalid request body", err)
		return
	}

	c, err := h.service.UpdateMedia(r.Context(), id, fields)
	if err != nil {
		respondError(w, r, "Failed to update media", err, "id", id)
		return
	}

	slog.Info("Media updated", "id", id)
	render.JSON(w, r, c)
}

// DeleteMedia removes an entry and returns the remaining collection
func (h *MediaHandler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := h.service.DeleteMedia(r.Context(), id)
	if err != nil {
		respondError(w, r, "Failed to delete media", err, "id", id)
		return
	}

	slog.Info("Media deleted", "id", id)
	render.JSON(w, r, c)
}

// UploadPoster stores the uploaded image and records its URL on the entry
func (h *MediaHandler) UploadPoster(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// An unknown entry is reported before the form is inspected
	if _, err := h.service.GetMedia(r.Context(), id); err != nil {
		respondError(w, r, "Failed to upload poster", err, "id", id)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		slog.Error("Failed to parse multipart form", "id", id, "error", err)
		respondValidation(w, r, mediacatalog.FieldError{Param: PosterField, Msg: "Invalid multipart form", Location: "body"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(PosterField)
	if err != nil {
		slog.Warn("Poster file missing", "id", id, "error", err)
		respondValidation(w, r, mediacatalog.FieldError{Param: PosterField, Msg: "Image is required!", Location: "body"})
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	var body io.Reader = file
	if mimeType == "" || mimeType == "application/octet-stream" {
		// Sniff the first bytes and put them back in front of the stream
		head := make([]byte, 512)
		n, _ := io.ReadFull(file, head)
		mimeType = http.DetectContentType(head[:n])
		body = io.MultiReader(bytes.NewReader(head[:n]), file)
	}

	c, err := h.service.UploadPoster(r.Context(), id, body, mediacatalog.UploadPosterRequest{
		FileName: header.Filename,
		MimeType: mimeType,
	})
	if err != nil {
		respondError(w, r, "Failed to upload poster", err, "id", id)
		return
	}

	render.JSON(w, r, c)
}

// ListReviews returns the reviews of an entry
func (h *MediaHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	reviews, err := h.service.ListReviews(r.Context(), id)
	if err != nil {
		respondError(w, r, "Failed to list reviews", err, "id", id)
		return
	}
	render.JSON(w, r, reviews)
}

// GetReview returns one review of an entry
func (h *MediaHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	id, reviewID := chi.URLParam(r, "id"), chi.URLParam(r, "reviewId")
	review, err := h.service.GetReview(r.Context(), id, reviewID)
	if err != nil {
		respondError(w, r, "Failed to get review", err, "id", id, "review_id", reviewID)
		return
	}
	render.JSON(w, r, review)
}

// AddReview appends a review and returns the whole collection
func (h *MediaHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	fields, err := decodeFields(r)
	if err != nil {
		respondError(w, r, "Invalid request body", err)
		return
	}

	c, err := h.service.AddReview(r.Context(), id, fields)
	if err != nil {
		respondError(w, r, "Failed to add review", err, "id", id)
		return
	}

	slog.Info("Review added", "id", id)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, c)
}

// UpdateReview merges the body into a review and returns the whole collection
func (h *MediaHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	id, reviewID := chi.URLParam(r, "id"), chi.URLParam(r, "reviewId")
	fields, err := decodeFields(r)
	if err != nil {
		respondError(w, r, "Invalid request body", err)
		return
	}

	c, err := h.service.UpdateReview(r.Context(), id, reviewID, fields)
	if err != nil {
		respondError(w, r, "Failed to update review", err, "id", id, "review_id", reviewID)
		return
	}

	slog.Info("Review updated", "id", id, "review_id", reviewID)
	render.JSON(w, r, c)
}

// DeleteReview removes a review and returns the whole collection
func (h *MediaHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, reviewID := chi.URLParam(r, "id"), chi.URLParam(r, "reviewId")
	c, err := h.service.DeleteReview(r.Context(), id, reviewID)
	if err != nil {
		respondError(w, r, "Failed to delete review", err, "id", id, "review_id", reviewID)
		return
	}

	slog.Info("Review deleted", "id", id, "review_id", reviewID)
	render.JSON(w, r, c)
}

// decodeFields reads a JSON object body. An empty body decodes as no fields
// so the required-field check reports what is missing.
func decodeFields(r *http.Request) (mediacatalog.Fields, error) {
	fields := mediacatalog.Fields{}
	err := json.NewDecoder(r.Body).Decode(&fields)
	if err == nil || errors.Is(err, io.EOF) {
		return fields, nil
	}
	return nil, &mediacatalog.ValidationError{Fields: []mediacatalog.FieldError{{
		Param:    "body",
		Msg:      "Request body must be a JSON object",
		Location: "body",
	}}}
}

// respondError maps a service failure to its HTTP response. Lookup failures
// get a bare status, anything unrecognized a generic 500.
func respondError(w http.ResponseWriter, r *http.Request, msg string, err error, args ...any) {
	var validationErr *mediacatalog.ValidationError
	switch {
	case errors.As(err, &validationErr):
		slog.Warn(msg, append(args, "error", err)...)
		respondValidation(w, r, validationErr.Fields...)
	case errors.Is(err, mediacatalog.ErrNotFound):
		slog.Warn(msg, append(args, "error", err)...)
		w.WriteHeader(http.StatusNotFound)
	default:
		slog.Error(msg, append(args, "error", err)...)
		http.Error(w, genericServerError, http.StatusInternalServerError)
	}
}

func respondValidation(w http.ResponseWriter, r *http.Request, fields ...mediacatalog.FieldError) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, ErrorResponse{Errors: fields})
}
