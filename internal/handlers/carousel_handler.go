package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"catalog-admin/internal/carousel"
	"catalog-admin/internal/storage"
)

type CarouselHandler struct {
	svc *carousel.Service
}

func NewCarouselHandler(svc *carousel.Service) *CarouselHandler {
	return &CarouselHandler{svc: svc}
}

// GET /v1/carousels/:bucket
func (h *CarouselHandler) List(c *gin.Context) {
	images, err := h.svc.List(c.Request.Context(), c.Param("bucket"))
	if err != nil {
		respondCarouselError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": images, "max": carousel.MaxImages})
}

// POST /v1/carousels/:bucket (multipart form: image)
func (h *CarouselHandler) Add(c *gin.Context) {
	image, err := readUpload(c, "image")
	if err != nil || image == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "select an image first"})
		return
	}

	images, err := h.svc.Add(c.Request.Context(), c.Param("bucket"), image)
	if err != nil {
		respondCarouselError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": images, "max": carousel.MaxImages})
}

// DELETE /v1/carousels/:bucket/:name
func (h *CarouselHandler) Remove(c *gin.Context) {
	images, err := h.svc.Remove(c.Request.Context(), c.Param("bucket"), c.Param("name"))
	if err != nil {
		respondCarouselError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": images, "max": carousel.MaxImages})
}

func respondCarouselError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, carousel.ErrUnknownBucket):
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown carousel"})
	case errors.Is(err, carousel.ErrCarouselFull):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrObjectNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
	}
}
