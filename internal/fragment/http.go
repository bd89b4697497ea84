package fragment

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/abduss/fragstore/internal/auth"
	"github.com/abduss/fragstore/internal/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RegisterRoutes mounts fragment operations under the provided router group.
func RegisterRoutes(group *gin.RouterGroup, service *Service, maxBytes int64, publicURL string) {
	handler := &httpHandler{
		service:   service,
		maxBytes:  maxBytes,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
	group.POST("/fragments", handler.createFragment)
	group.GET("/fragments", handler.listFragments)
	group.GET("/fragments/:id/info", handler.getFragmentInfo)
	group.GET("/fragments/:id", handler.getFragmentData)
	group.PUT("/fragments/:id", handler.updateFragment)
	group.DELETE("/fragments/:id", handler.deleteFragment)
}

type httpHandler struct {
	service   *Service
	maxBytes  int64
	publicURL string
}

func (h *httpHandler) createFragment(c *gin.Context) {
	ownerID, ok := auth.RequireOwner(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "unauthorized"))
		return
	}

	body, ok := h.readRawBody(c)
	if !ok {
		return
	}

	meta, err := h.service.Create(c.Request.Context(), ownerID, c.GetHeader("Content-Type"), body)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Header("Location", h.fragmentLocation(meta.ID))
	c.JSON(http.StatusCreated, response.Success(gin.H{"fragment": meta}))
}

func (h *httpHandler) listFragments(c *gin.Context) {
	ownerID, ok := auth.RequireOwner(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "unauthorized"))
		return
	}

	fragments, err := h.service.List(c.Request.Context(), ownerID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if c.Query("expand") == "1" {
		c.JSON(http.StatusOK, response.Success(gin.H{"fragments": fragments}))
		return
	}

	ids := make([]string, 0, len(fragments))
	for _, meta := range fragments {
		ids = append(ids, meta.ID.String())
	}
	c.JSON(http.StatusOK, response.Success(gin.H{"fragments": ids}))
}

func (h *httpHandler) getFragmentInfo(c *gin.Context) {
	ownerID, ok := auth.RequireOwner(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "unauthorized"))
		return
	}

	id, ok := parseFragmentID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "fragment not found"))
		return
	}

	meta, err := h.service.Get(c.Request.Context(), ownerID, id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(gin.H{"fragment": meta}))
}

func (h *httpHandler) getFragmentData(c *gin.Context) {
	ownerID, ok := auth.RequireOwner(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "unauthorized"))
		return
	}

	raw := c.Param("id")
	ext := path.Ext(raw)
	id, ok := parseFragmentID(strings.TrimSuffix(raw, ext))
	if !ok {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "fragment not found"))
		return
	}

	data, contentType, err := h.service.GetData(c.Request.Context(), ownerID, id, ext)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Data(http.StatusOK, contentType, data)
}

func (h *httpHandler) updateFragment(c *gin.Context) {
	ownerID, ok := auth.RequireOwner(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "unauthorized"))
		return
	}

	id, ok := parseFragmentID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "fragment not found"))
		return
	}

	body, ok := h.readRawBody(c)
	if !ok {
		return
	}

	meta, err := h.service.Update(c.Request.Context(), ownerID, id, c.GetHeader("Content-Type"), body)
	if err != nil {
		h.writeError(c, err)
		return
	}

	// 201 rather than 200: the replaced data is a new representation of
	// the resource, mirroring the create response shape.
	c.Header("Location", h.fragmentLocation(meta.ID))
	c.JSON(http.StatusCreated, response.Success(gin.H{"fragment": meta}))
}

func (h *httpHandler) deleteFragment(c *gin.Context) {
	ownerID, ok := auth.RequireOwner(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "unauthorized"))
		return
	}

	id, ok := parseFragmentID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "fragment not found"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), ownerID, id); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(gin.H{}))
}

// readRawBody captures the raw request body, bounded by the upload ceiling.
// The ceiling is enforced here, before any validation runs.
func (h *httpHandler) readRawBody(c *gin.Context) ([]byte, bool) {
	reader := http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	body, err := io.ReadAll(reader)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, response.Error(http.StatusRequestEntityTooLarge,
				fmt.Sprintf("payload exceeds %d bytes", h.maxBytes)))
			return nil, false
		}
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "unable to read request body"))
		return nil, false
	}
	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "request body is required"))
		return nil, false
	}
	return body, true
}

func (h *httpHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "fragment not found"))
	case errors.Is(err, ErrMalformedContentType):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid content type header"))
	case errors.Is(err, ErrTypeImmutable):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	case errors.Is(err, ErrUnsupportedType), errors.Is(err, ErrValidation):
		log.Debug().Err(err).Msg("rejected fragment payload")
		c.JSON(http.StatusUnsupportedMediaType, response.Error(http.StatusUnsupportedMediaType, err.Error()))
	case errors.Is(err, ErrUnsupportedConversion), errors.Is(err, ErrConversionFailed):
		log.Debug().Err(err).Msg("rejected fragment conversion")
		c.JSON(http.StatusUnsupportedMediaType, response.Error(http.StatusUnsupportedMediaType, err.Error()))
	case errors.Is(err, ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, response.Error(http.StatusRequestEntityTooLarge, err.Error()))
	default:
		log.Error().Err(err).Msg("fragment operation failed")
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "internal server error"))
	}
}

func (h *httpHandler) fragmentLocation(id uuid.UUID) string {
	return fmt.Sprintf("%s/v1/fragments/%s", h.publicURL, id.String())
}

func parseFragmentID(raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
