package media

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// errorResponse is the JSON error envelope for upload failures.
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Handler provides the HTTP surface of the upload subsystem.
type Handler struct {
	store Store
}

// NewHandler creates a Handler backed by the given store.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes mounts upload routes on the supplied echo group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/uploads", h.handleUpload)
}

// handleUpload validates a multipart image upload and publishes it through
// the configured backend. Validation runs before any byte reaches a backend,
// so a rejected upload leaves nothing behind.
func (h *Handler) handleUpload(c echo.Context) error {
	file, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "no file provided"})
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return c.JSON(http.StatusUnsupportedMediaType, errorResponse{Error: ErrNotImage.Error()})
	}

	if file.Size > MaxUploadSize {
		return c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: ErrTooLarge.Error()})
	}

	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to open uploaded file"})
	}
	defer src.Close()

	// The multipart size was already checked; the LimitReader keeps a lying
	// part header from streaming more than the advertised maximum.
	obj, err := h.store.Put(c.Request().Context(), NewFilename(file.Filename), contentType, io.LimitReader(src, MaxUploadSize))
	if err != nil {
		if errors.Is(err, ErrBackendUnconfigured) {
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "media storage is not configured", Details: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "upload failed", Details: err.Error()})
	}

	return c.JSON(http.StatusCreated, obj)
}
