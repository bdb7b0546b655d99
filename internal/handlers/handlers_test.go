package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"catalog-admin/internal/auth"
	"catalog-admin/internal/cache"
	"catalog-admin/internal/carousel"
	"catalog-admin/internal/catalog"
	"catalog-admin/internal/models"
	"catalog-admin/internal/repository"
	"catalog-admin/internal/routes"
	"catalog-admin/internal/storage"
)

type memRows struct {
	products map[string]*models.Product
	order    []string
}

func (m *memRows) Create(_ context.Context, p *models.Product) error {
	p.ID = primitive.NewObjectID()
	p.Version = 1
	p.CreatedAt = time.Now()
	p.Thumbnails = models.ThumbnailList{}
	m.products[p.ID.Hex()] = p
	m.order = append([]string{p.ID.Hex()}, m.order...)
	return nil
}

func (m *memRows) FindByID(_ context.Context, id string) (*models.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memRows) FindAll(_ context.Context) ([]*models.Product, error) {
	out := make([]*models.Product, 0, len(m.order))
	for _, id := range m.order {
		cp := *m.products[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memRows) apply(p *models.Product, update bson.M) {
	if v, ok := update["name"]; ok {
		p.Name = v.(string)
	}
	if v, ok := update["price"]; ok {
		p.Price = v.(string)
	}
	if v, ok := update["description"]; ok {
		p.Description = v.(string)
	}
	if v, ok := update["image_url"]; ok {
		url := v.(string)
		p.ImageURL = &url
	}
	if v, ok := update["thumbnails"]; ok {
		p.Thumbnails = v.(models.ThumbnailList)
	}
	p.Version++
}

func (m *memRows) Update(_ context.Context, id string, update bson.M) error {
	p, ok := m.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	m.apply(p, update)
	return nil
}

func (m *memRows) UpdateVersioned(_ context.Context, id string, version int64, update bson.M) error {
	p, ok := m.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	if p.Version != version {
		return repository.ErrVersionConflict
	}
	m.apply(p, update)
	return nil
}

func (m *memRows) Delete(_ context.Context, id string) error {
	delete(m.products, id)
	return nil
}

type memUsers struct {
	byEmail map[string]*models.AdminUser
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*models.AdminUser, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, errors.New("admin user not found")
	}
	return u, nil
}

func (m *memUsers) Create(_ context.Context, u *models.AdminUser) error {
	m.byEmail[u.Email] = u
	return nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewDiskStore(t.TempDir(), "http://localhost/files")
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	users := &memUsers{byEmail: map[string]*models.AdminUser{
		"admin@example.com": {Email: "admin@example.com", PasswordHash: string(hash)},
	}}

	c := cache.New(time.Minute)
	router := gin.New()
	routes.RegisterRoutes(router, routes.Deps{
		Auth:          auth.NewService(users),
		Products:      catalog.NewService("products", &memRows{products: map[string]*models.Product{}}, store, c),
		HomeProducts:  catalog.NewService("home_products", &memRows{products: map[string]*models.Product{}}, store, c),
		Carousel:      carousel.NewService(store),
		SessionSecret: "test_secret",
		StaticRoot:    store.Root(),
	})
	return router
}

func signIn(t *testing.T, router *gin.Engine) []*http.Cookie {
	t.Helper()
	body, _ := json.Marshal(gin.H{"email": "admin@example.com", "password": "s3cret"})
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/signin", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return w.Result().Cookies()
}

func multipartBody(t *testing.T, fields map[string]string, fileField, fileName string, fileData []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = fw.Write(fileData)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func doRequest(router *gin.Engine, method, path string, body *bytes.Buffer, contentType string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAdminRoutesRequireSession(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/v1/products", nil, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	router := newTestRouter(t)

	body, _ := json.Marshal(gin.H{"email": "admin@example.com", "password": "wrong"})
	w := doRequest(router, http.MethodPost, "/v1/auth/signin", bytes.NewBuffer(body), "application/json", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(router, http.MethodPost, "/v1/auth/signin", bytes.NewBufferString("{}"), "application/json", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateProduct(t *testing.T) {
	router := newTestRouter(t)
	cookies := signIn(t, router)

	body, contentType := multipartBody(t, map[string]string{
		"name":        "Chair",
		"price":       "49.99",
		"description": "Oak chair",
	}, "image", "image.jpg", []byte("raw image"))

	w := doRequest(router, http.MethodPost, "/v1/products", body, contentType, cookies)
	require.Equal(t, http.StatusCreated, w.Code)

	var product models.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &product))
	assert.Equal(t, "Chair", product.Name)
	require.NotNil(t, product.ImageURL)
	assert.Contains(t, *product.ImageURL, "/files/images/")

	// list now has exactly one entry
	w = doRequest(router, http.MethodGet, "/v1/products", nil, "", cookies)
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Data []models.Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Len(t, listed.Data, 1)
}

func TestCreateProductValidation(t *testing.T) {
	router := newTestRouter(t)
	cookies := signIn(t, router)

	body, contentType := multipartBody(t, map[string]string{
		"name":        "Chair",
		"description": "Oak chair",
	}, "image", "image.jpg", []byte("raw"))

	w := doRequest(router, http.MethodPost, "/v1/products", body, contentType, cookies)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "price")
}

func TestUpdateVersionConflict(t *testing.T) {
	router := newTestRouter(t)
	cookies := signIn(t, router)

	body, contentType := multipartBody(t, map[string]string{
		"name": "Chair", "price": "49.99", "description": "Oak chair",
	}, "image", "image.jpg", []byte("raw"))
	w := doRequest(router, http.MethodPost, "/v1/products", body, contentType, cookies)
	require.Equal(t, http.StatusCreated, w.Code)

	var product models.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &product))

	stale, contentType := multipartBody(t, map[string]string{
		"name": "Stool", "price": "19.99", "description": "Pine stool",
		"version": fmt.Sprintf("%d", product.Version-1),
	}, "", "", nil)
	w = doRequest(router, http.MethodPatch, "/v1/products/"+product.ID.Hex(), stale, contentType, cookies)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCarouselEndpoints(t *testing.T) {
	router := newTestRouter(t)
	cookies := signIn(t, router)

	w := doRequest(router, http.MethodGet, "/v1/carousels/bogus", nil, "", cookies)
	assert.Equal(t, http.StatusNotFound, w.Code)

	body, contentType := multipartBody(t, nil, "image", "hero.png", []byte("img"))
	w = doRequest(router, http.MethodPost, "/v1/carousels/carousel", body, contentType, cookies)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data []carousel.Image `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)

	w = doRequest(router, http.MethodDelete, "/v1/carousels/carousel/"+resp.Data[0].Name, nil, "", cookies)
	assert.Equal(t, http.StatusOK, w.Code)
}
