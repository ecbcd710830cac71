package images

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"

	"github.com/JaimeStill/image-lab/pkg/handlers"
	"github.com/JaimeStill/image-lab/pkg/routes"
	"github.com/google/uuid"
)

// Handler provides HTTP endpoints for image management.
type Handler struct {
	sys           System
	logger        *slog.Logger
	maxUploadSize int64
}

// NewHandler creates a new images HTTP handler.
func NewHandler(sys System, logger *slog.Logger, maxUploadSize int64) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "images"),
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route configuration for image endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/images",
		Tags:        []string{"Images"},
		Description: "Image upload, transformation and retrieval",
		Schemas:     Spec.Schemas(),
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, OpenAPI: Spec.List},
			{Method: "POST", Pattern: "", Handler: h.Create, OpenAPI: Spec.Create},
			{Method: "GET", Pattern: "/{id}", Handler: h.Show, OpenAPI: Spec.Show},
			{Method: "PUT", Pattern: "/{id}", Handler: h.Replace, OpenAPI: Spec.Replace},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete, OpenAPI: Spec.Delete},
			{Method: "GET", Pattern: "/{id}/representation", Handler: h.Representation, OpenAPI: Spec.Representation},
			{Method: "GET", Pattern: "/{id}/download", Handler: h.Download, OpenAPI: Spec.Download},
			{Method: "PUT", Pattern: "/{id}/resize", Handler: h.Resize, OpenAPI: Spec.Resize},
			{Method: "PUT", Pattern: "/{id}/insert", Handler: h.Insert, OpenAPI: Spec.Insert},
			{Method: "PUT", Pattern: "/{id}/crop", Handler: h.Crop, OpenAPI: Spec.Crop},
			{Method: "PUT", Pattern: "/{id}/turn-greyscale", Handler: h.Greyscale, OpenAPI: Spec.Greyscale},
			{Method: "PUT", Pattern: "/{id}/set-opacity", Handler: h.Opacity, OpenAPI: Spec.Opacity},
			{Method: "PUT", Pattern: "/{id}/change-brightness", Handler: h.Brightness, OpenAPI: Spec.Brightness},
			{Method: "PUT", Pattern: "/{id}/rotate", Handler: h.Rotate, OpenAPI: Spec.Rotate},
			{Method: "PUT", Pattern: "/{id}/encode", Handler: h.Encode, OpenAPI: Spec.Encode},
		},
	}
}

// List handles GET / - returns every image record.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	imgs, err := h.sys.List(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, imgs)
}

// Create handles POST / - stores an uploaded image.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	upload, err := h.readUpload(w, r)
	if err != nil {
		h.fail(w, err)
		return
	}

	img, err := h.sys.Create(r.Context(), upload)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, img)
}

// Show handles GET /{id} - renders the image with at most one transformation.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.resolve(w, r)
	if !ok {
		return
	}

	params, err := ParseShowParams(r.URL.Query())
	if err != nil {
		h.fail(w, err)
		return
	}

	out, err := h.sys.Show(r.Context(), id, params, r.Header.Get("Accept"))
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondBytes(w, http.StatusOK, out.ContentType, out.Data)
}

// Representation handles GET /{id}/representation - returns image metadata.
func (h *Handler) Representation(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	img, err := h.sys.Find(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, img)
}

// Download handles GET /{id}/download - returns the stored bytes as an attachment.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	out, err := h.sys.Download(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": out.Filename})
	if disposition == "" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Disposition", disposition)
	handlers.RespondBytes(w, http.StatusOK, out.ContentType, out.Data)
}

// Replace handles PUT /{id} - replaces the stored bytes and keeps the id.
func (h *Handler) Replace(w http.ResponseWriter, r *http.Request) {
	id, ok := h.resolve(w, r)
	if !ok {
		return
	}

	upload, err := h.readUpload(w, r)
	if err != nil {
		h.fail(w, err)
		return
	}

	img, err := h.sys.Replace(r.Context(), id, upload)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, img)
}

// Resize handles PUT /{id}/resize.
func (h *Handler) Resize(w http.ResponseWriter, r *http.Request) {
	h.transform(w, r, func(id uuid.UUID, form url.Values) (*Rendered, error) {
		params, err := ParseResizeParams(form)
		if err != nil {
			return nil, err
		}
		return h.sys.Resize(r.Context(), id, params)
	})
}

// Crop handles PUT /{id}/crop.
func (h *Handler) Crop(w http.ResponseWriter, r *http.Request) {
	h.transform(w, r, func(id uuid.UUID, form url.Values) (*Rendered, error) {
		params, err := ParseCropParams(form)
		if err != nil {
			return nil, err
		}
		return h.sys.Crop(r.Context(), id, params)
	})
}

// Greyscale handles PUT /{id}/turn-greyscale.
func (h *Handler) Greyscale(w http.ResponseWriter, r *http.Request) {
	h.transform(w, r, func(id uuid.UUID, _ url.Values) (*Rendered, error) {
		return h.sys.Greyscale(r.Context(), id)
	})
}

// Opacity handles PUT /{id}/set-opacity.
func (h *Handler) Opacity(w http.ResponseWriter, r *http.Request) {
	h.transform(w, r, func(id uuid.UUID, form url.Values) (*Rendered, error) {
		pct, err := ParseOpacityParams(form)
		if err != nil {
			return nil, err
		}
		return h.sys.Opacity(r.Context(), id, pct)
	})
}

// Brightness handles PUT /{id}/change-brightness.
func (h *Handler) Brightness(w http.ResponseWriter, r *http.Request) {
	h.transform(w, r, func(id uuid.UUID, form url.Values) (*Rendered, error) {
		delta, err := ParseBrightnessParams(form)
		if err != nil {
			return nil, err
		}
		return h.sys.Brightness(r.Context(), id, delta)
	})
}

// Rotate handles PUT /{id}/rotate.
func (h *Handler) Rotate(w http.ResponseWriter, r *http.Request) {
	h.transform(w, r, func(id uuid.UUID, form url.Values) (*Rendered, error) {
		angle, err := ParseRotateParams(form)
		if err != nil {
			return nil, err
		}
		return h.sys.Rotate(r.Context(), id, angle)
	})
}

// Encode handles PUT /{id}/encode.
func (h *Handler) Encode(w http.ResponseWriter, r *http.Request) {
	h.transform(w, r, func(id uuid.UUID, form url.Values) (*Rendered, error) {
		format, err := ParseEncodeParams(form)
		if err != nil {
			return nil, err
		}
		return h.sys.Encode(r.Context(), id, format)
	})
}

// Insert handles PUT /{id}/insert - draws the uploaded overlay at position.
func (h *Handler) Insert(w http.ResponseWriter, r *http.Request) {
	id, ok := h.resolve(w, r)
	if !ok {
		return
	}

	overlay, err := h.readUpload(w, r)
	if err != nil {
		h.fail(w, err)
		return
	}

	position, err := ParseInsertParams(r.Form)
	if err != nil {
		h.fail(w, err)
		return
	}

	out, err := h.sys.Insert(r.Context(), id, overlay.Data, position)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondBytes(w, http.StatusOK, out.ContentType, out.Data)
}

// Delete handles DELETE /{id} - removes the image and its metadata.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	if err := h.sys.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrDeleteFailed) {
			h.logger.Error("delete failed", "id", id, "error", err)
			handlers.RespondJSON(w, http.StatusInternalServerError, map[string]string{"error": ErrDeleteFailed.Error()})
			return
		}
		h.fail(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// transform runs a persisted operation: the id must exist before the form
// is validated, and the rendered result is written back to the client.
func (h *Handler) transform(w http.ResponseWriter, r *http.Request, run func(uuid.UUID, url.Values) (*Rendered, error)) {
	id, ok := h.resolve(w, r)
	if !ok {
		return
	}

	if err := parseForm(r, h.maxUploadSize); err != nil {
		h.fail(w, err)
		return
	}

	out, err := run(id, r.Form)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondBytes(w, http.StatusOK, out.ContentType, out.Data)
}

// resolve parses the path id and confirms the record exists.
func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := parseID(r)
	if err != nil {
		h.fail(w, err)
		return uuid.Nil, false
	}

	if _, err := h.sys.Find(r.Context(), id); err != nil {
		h.fail(w, err)
		return uuid.Nil, false
	}

	return id, true
}

func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return Upload{}, ErrFileTooLarge
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return Upload{}, fieldError(FieldFile, "is required")
		}
		return Upload{}, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	file, header, err := r.FormFile(FieldFile)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return Upload{}, fieldError(FieldFile, "is required")
		}
		return Upload{}, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return Upload{}, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	return Upload{Name: header.Filename, Data: data}, nil
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		h.logger.Debug("validation failed", "fields", verr.Fields)
		handlers.RespondJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  ErrValidation.Error(),
			"fields": verr.Fields,
		})
		return
	}

	handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
}

// parseID treats a malformed id like an unknown one.
func parseID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrNotFound, r.PathValue("id"))
	}
	return id, nil
}

// parseForm reads query and body values. Multipart bodies are accepted so
// clients can send every mutation the same way.
func parseForm(r *http.Request, maxMemory int64) error {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidFile, err)
		}
		return nil
	}

	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	return nil
}
