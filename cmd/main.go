package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"

	"github.com/bharatlinker/product-service/internal/events"
	"github.com/bharatlinker/product-service/internal/handler"
	"github.com/bharatlinker/product-service/internal/imagestore"
	"github.com/bharatlinker/product-service/internal/repository"
	"github.com/bharatlinker/product-service/internal/service"
	"github.com/bharatlinker/product-service/pkg/config"
	"github.com/bharatlinker/product-service/pkg/middleware"
	pkgtls "github.com/bharatlinker/product-service/pkg/tls"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	ctx := context.Background()

	mongoClient, err := repository.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Could not connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
		}
	}()

	images, err := imagestore.NewS3Store(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to create image store", zap.Error(err))
	}

	var publisher service.EventPublisher
	if cfg.KafkaBrokers != "" {
		producer := events.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer producer.Close()
		publisher = producer
	}

	productRepo := repository.NewProductRepository(mongoClient, cfg.DBName, cfg.ProductsColl)
	productService := service.NewProductService(productRepo, images, publisher, logger, cfg.ResultsPerPage)
	productHandler := handler.NewProductHandler(productService, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(cfg.AllowOrigins))

	product := router.Group("/product")
	{
		product.POST("/uploadproduct", productHandler.UploadProduct)
		product.PUT("/updateproductdata", productHandler.UpdateProductData)
		product.DELETE("/deleteproduct", productHandler.DeleteProduct)
		product.PUT("/uploadproductimage", productHandler.UploadProductImages)
		product.DELETE("/deleteproductimage", productHandler.DeleteProductImage)
		product.GET("/getproductbyshopid", productHandler.GetProductByShopID)
		product.GET("/getproductdetails", productHandler.GetProductDetails)
		product.GET("/getproducts", productHandler.GetProducts)
		product.GET("/gethomepageproducts", productHandler.GetHomePageProducts)
	}
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})
	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"message": "Route not found"})
	})

	var tlsCfg pkgtls.TLSConfig
	if err := envconfig.Process("", &tlsCfg); err != nil {
		logger.Fatal("Failed to load TLS config", zap.Error(err))
	}
	serverTLS, err := pkgtls.LoadTLSConfig(ctx, &tlsCfg, logger)
	if err != nil {
		logger.Fatal("Failed to load TLS configuration", zap.Error(err))
	}
	defer pkgtls.Cleanup()

	srv := &http.Server{
		Addr:      ":" + cfg.Port,
		Handler:   router,
		TLSConfig: serverTLS,
	}

	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Port))
		var err error
		if serverTLS != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited")
}
