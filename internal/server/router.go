package server

import (
  "net/http"
  "time"

  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"
  "github.com/prometheus/client_golang/prometheus"
  "github.com/prometheus/client_golang/prometheus/promhttp"

  "github.com/sineva-org/sineva-backend/internal/handlers"
  "github.com/sineva-org/sineva-backend/internal/logger"
  "github.com/sineva-org/sineva-backend/internal/middleware"
)

type RouterConfig struct {
  Log                   *logger.Logger
  AllowedOrigins        []string
  MaxMultipartMemory    int64
  Gatherer              prometheus.Gatherer

  AuthHandler           *handlers.AuthHandler
  AuthMiddleware        *middleware.AuthMiddleware
  ImageHandler          *handlers.ImageHandler
  UploadHandler         *handlers.UploadHandler
  HealthHandler         *handlers.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.New()
  if cfg.MaxMultipartMemory > 0 {
    router.MaxMultipartMemory = cfg.MaxMultipartMemory
  }

  //-----------------------------------------
  // Recovery, Access Log, Cors
  //-----------------------------------------
  router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
    cfg.Log.Error("Recovered from panic", "path", c.Request.URL.Path, "panic", recovered)
    c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Server Error"})
  }))
  router.Use(middleware.RequestLogger(cfg.Log))
  router.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

  router.NoRoute(func(c *gin.Context) {
    c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
  })

  //-----------------------------------------
  // Service Routes
  //-----------------------------------------
  router.GET("/", handlers.Root)
  if cfg.HealthHandler != nil {
    router.GET("/healthz", cfg.HealthHandler.Healthz)
  }
  if cfg.Gatherer != nil {
    router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
  }

  //-----------------------------------------
  // Public Routes
  //-----------------------------------------
  api := router.Group("/api")
  api.GET("", handlers.APIWelcome)
  api.GET("/", handlers.APIWelcome)
  {
    authusers := api.Group("/authusers")
    authusers.POST("/send-otp", cfg.AuthHandler.SendOTP)
    authusers.POST("/validate", cfg.AuthHandler.Validate)

    api.GET("/image/getallimages", cfg.ImageHandler.GetAllImages)
    api.POST("/imageupload/upload", cfg.UploadHandler.Upload)
  }

  //------------------------------------------
  // Protected Routes
  //------------------------------------------
  image := api.Group("/image")
  image.Use(cfg.AuthMiddleware.RequireAuth())
  image.POST("/createimage", cfg.ImageHandler.CreateImage)
  image.PUT("/update/:id", cfg.ImageHandler.UpdateImage)
  image.GET("/getimage", cfg.ImageHandler.GetImages)
  image.GET("/getimagebyuser", cfg.ImageHandler.GetImagesByUser)
  image.POST("/generateprompts", cfg.ImageHandler.GeneratePrompts)

  return router
}

// corsConfig allows credentials for listed origins. An empty list or "*"
// opens every origin without credentials.
func corsConfig(origins []string) cors.Config {
  cc := cors.Config{
    AllowMethods:     []string{"GET","POST","PUT","DELETE","PATCH","OPTIONS"},
    AllowHeaders:     []string{"Authorization","Content-Type","X-Requested-With","token"},
    ExposeHeaders:    []string{middleware.RequestIDHeader},
    MaxAge:           12 * time.Hour,
  }
  for _, o := range origins {
    if o == "*" {
      origins = nil
      break
    }
  }
  if len(origins) == 0 {
    cc.AllowAllOrigins = true
    return cc
  }
  cc.AllowOrigins = origins
  cc.AllowCredentials = true
  return cc
}
