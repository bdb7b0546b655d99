package routes

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"catalog-admin/internal/auth"
	"catalog-admin/internal/carousel"
	"catalog-admin/internal/catalog"
	"catalog-admin/internal/handlers"
	"catalog-admin/internal/middleware"
)

// Deps carries the wired services the routes need.
type Deps struct {
	Auth          *auth.Service
	Products      *catalog.Service
	HomeProducts  *catalog.Service
	Carousel      *carousel.Service
	SessionSecret string
	StaticRoot    string
}

func RegisterRoutes(router *gin.Engine, d Deps) {
	store := cookie.NewStore([]byte(d.SessionSecret))
	store.Options(sessions.Options{HttpOnly: true, SameSite: http.SameSiteLaxMode})
	router.Use(sessions.Sessions("catalog_admin", store))
	router.Use(middleware.RequestLogger())

	// public objects (images, thumbnails, carousels)
	router.Static("/files", d.StaticRoot)

	authHandler := handlers.NewAuthHandler(d.Auth)
	carouselHandler := handlers.NewCarouselHandler(d.Carousel)

	v1 := router.Group("/v1")
	v1.POST("/auth/signin", authHandler.SignIn)
	v1.POST("/auth/signout", authHandler.SignOut)

	admin := v1.Group("", auth.RequireAuth())
	registerProductRoutes(admin.Group("/products"), handlers.NewProductHandler(d.Products))
	registerProductRoutes(admin.Group("/home/products"), handlers.NewProductHandler(d.HomeProducts))

	carousels := admin.Group("/carousels")
	{
		carousels.GET("/:bucket", carouselHandler.List)
		carousels.POST("/:bucket", carouselHandler.Add)
		carousels.DELETE("/:bucket/:name", carouselHandler.Remove)
	}
}

func registerProductRoutes(g *gin.RouterGroup, h *handlers.ProductHandler) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.GET("/:id/thumbnails", h.Thumbnails)
	g.POST("/:id/thumbnails", h.AddThumbnail)
	g.DELETE("/:id/thumbnails", h.RemoveThumbnail)
}
