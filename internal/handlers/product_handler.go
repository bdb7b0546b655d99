package handlers

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"catalog-admin/internal/catalog"
	"catalog-admin/internal/models"
	"catalog-admin/internal/repository"
)

type ProductHandler struct {
	svc *catalog.Service
}

func NewProductHandler(svc *catalog.Service) *ProductHandler {
	return &ProductHandler{svc: svc}
}

// GET /v1/.../products
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.svc.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": products})
}

// POST /v1/.../products (multipart form: name, price, description, image)
func (h *ProductHandler) Create(c *gin.Context) {
	image, err := readUpload(c, "image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read image"})
		return
	}

	product, err := h.svc.Create(
		c.Request.Context(),
		c.PostForm("name"),
		c.PostForm("price"),
		c.PostForm("description"),
		image,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

// PATCH /v1/.../products/:id (multipart form: name, price, description,
// version, optional image)
func (h *ProductHandler) Update(c *gin.Context) {
	image, err := readUpload(c, "image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read image"})
		return
	}

	version, err := strconv.ParseInt(c.PostForm("version"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "version is required"})
		return
	}

	product, err := h.svc.Update(
		c.Request.Context(),
		c.Param("id"),
		c.PostForm("name"),
		c.PostForm("price"),
		c.PostForm("description"),
		image,
		version,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// DELETE /v1/.../products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}

// GET /v1/.../products/:id/thumbnails
func (h *ProductHandler) Thumbnails(c *gin.Context) {
	thumbnails, err := h.svc.Thumbnails(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"thumbnails": thumbnails})
}

// POST /v1/.../products/:id/thumbnails (multipart form: image)
func (h *ProductHandler) AddThumbnail(c *gin.Context) {
	image, err := readUpload(c, "image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read image"})
		return
	}

	thumbnails, err := h.svc.AddThumbnail(c.Request.Context(), c.Param("id"), image)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"thumbnails": thumbnails})
}

type removeThumbnailRequest struct {
	URL string `json:"url" binding:"required"`
}

// DELETE /v1/.../products/:id/thumbnails
func (h *ProductHandler) RemoveThumbnail(c *gin.Context) {
	var req removeThumbnailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	thumbnails, err := h.svc.RemoveThumbnail(c.Request.Context(), c.Param("id"), req.URL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"thumbnails": thumbnails})
}

// readUpload pulls an optional multipart file field into memory. A
// missing field is not an error; required-ness is the workflow's call.
func readUpload(c *gin.Context, field string) (*models.Upload, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	return openUpload(header)
}

func openUpload(header *multipart.FileHeader) (*models.Upload, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &models.Upload{Filename: header.Filename, Data: data}, nil
}

func respondError(c *gin.Context, err error) {
	var verr *catalog.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "field": verr.Field})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
	case errors.Is(err, repository.ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "product changed, reload and retry"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
	}
}
