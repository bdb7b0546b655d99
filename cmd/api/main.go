package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"catalog-admin/internal/auth"
	"catalog-admin/internal/cache"
	"catalog-admin/internal/carousel"
	"catalog-admin/internal/catalog"
	"catalog-admin/internal/config"
	"catalog-admin/internal/database"
	"catalog-admin/internal/repository"
	"catalog-admin/internal/routes"
	"catalog-admin/internal/storage"
)

func main() {
	cfg := config.LoadConfig()
	client := database.Connect(cfg.MongoURI)
	db := client.Database(cfg.MongoDB)

	store, err := storage.NewDiskStore(cfg.StorageDir, cfg.PublicBaseURL)
	if err != nil {
		logrus.WithError(err).Fatal("could not prepare object storage")
	}

	c := cache.New(5 * time.Minute)

	authSvc := auth.NewService(auth.NewMongoUserStore(db.Collection("admin_users")))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := authSvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logrus.WithError(err).Fatal("could not seed admin account")
	}
	cancel()

	router := gin.New()
	router.Use(gin.Recovery())

	routes.RegisterRoutes(router, routes.Deps{
		Auth:          authSvc,
		Products:      catalog.NewService("products", repository.NewProductRepository(db.Collection("products")), store, c),
		HomeProducts:  catalog.NewService("home_products", repository.NewProductRepository(db.Collection("home_products")), store, c),
		Carousel:      carousel.NewService(store),
		SessionSecret: cfg.SessionSecret,
		StaticRoot:    store.Root(),
	})

	logrus.WithField("port", cfg.Port).Info("server starting")
	if err := router.Run(":" + cfg.Port); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}
