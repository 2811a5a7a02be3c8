package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"attendanceportal/internal/config"
	"attendanceportal/internal/gateway"
	"attendanceportal/internal/guard"
	"attendanceportal/internal/handler"
	"attendanceportal/internal/httpmiddleware"
	"attendanceportal/internal/logger"
	"attendanceportal/internal/session"
	"attendanceportal/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.ERROR).Fatalf("config load failed: %v", err)
	}

	log := logger.New(logger.Level(cfg.LogLevel))
	if err := log.Initialize(cfg.LogDir); err != nil {
		log.Fatalf("logger initialization failed: %v", err)
	}

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, log); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App, log *logger.Logger) error {
	redisClient := store.NewRedis(cfg.RedisAddr)
	gw := gateway.New(cfg.BackendURL, cfg.BackendTimeout)

	studentSessions := session.NewManager(session.Config{
		Role:       session.RoleStudent,
		CookieName: cfg.StudentCookieName,
		TTL:        cfg.StudentSessionTTL,
		JWTIssuer:  cfg.JWTIssuer,
		SigningKey: cfg.JWTSigningKey,
	}, redisClient)
	adminSessions := session.NewManager(session.Config{
		Role:       session.RoleAdmin,
		CookieName: cfg.AdminCookieName,
		TTL:        cfg.AdminSessionTTL,
		JWTIssuer:  cfg.JWTIssuer,
		SigningKey: cfg.JWTSigningKey,
	}, redisClient)

	studentGuard := guard.New(studentSessions, "/login", "/dashboard")
	adminGuard := guard.New(adminSessions, "/adminlogin", "/admin")

	h := handler.New(cfg, log, gw)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}))
	r.Use(securityHeaders())
	r.Use(httpmiddleware.RequestID())
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).Middleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		backendHealthy := gw.Health(c.Request.Context()) == nil
		status := http.StatusOK
		if !backendHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "backend": backendHealthy})
	})

	// Pages. Guards run before the handler so no page issues fetches the
	// visitor may not see.
	r.LoadHTMLGlob("web/templates/*.html")
	r.GET("/", studentGuard.Pages(guard.Public), page("index.html"))
	r.GET("/login", studentGuard.Pages(guard.AuthOnly), page("login.html"))
	r.GET("/dashboard", studentGuard.Pages(guard.Protected), page("dashboard.html"))
	r.GET("/adminlogin", adminGuard.Pages(guard.AuthOnly), page("adminlogin.html"))
	r.GET("/admin", adminGuard.Pages(guard.Protected), page("admin.html"))
	r.Static("/static", "web/static")

	// Student auth and data.
	r.POST("/api/send-otp", studentGuard.Attach(), h.SendOTP)
	r.POST("/api/verify-otp", studentGuard.Attach(), h.VerifyOTP)
	r.POST("/api/logout", studentGuard.Attach(), h.Logout)

	studentAPI := r.Group("/api", studentGuard.API())
	studentAPI.GET("/student/attendance", h.StudentAttendance)
	studentAPI.GET("/attendance", h.FineLookup)
	studentAPI.POST("/create_payment_session", h.CreatePaymentSession)

	// Admin auth and data.
	r.POST("/api/admin/login", adminGuard.Attach(), h.AdminLogin)
	r.POST("/api/admin/logout", adminGuard.Attach(), h.Logout)

	adminAPI := r.Group("/api/admin", adminGuard.API())
	adminAPI.GET("/attendance", h.AdminAttendance)
	adminAPI.GET("/attendance/export", h.AdminAttendanceExport)
	adminAPI.GET("/holidays", h.Holidays)
	adminAPI.POST("/holidays", h.AddHoliday)
	adminAPI.DELETE("/holidays/:id", h.DeleteHoliday)
	adminAPI.GET("/holidays/export", h.HolidaysExport)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("starting portal on :%s (backend %s)", cfg.HTTPPort, cfg.BackendURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("server forced shutdown: %v", err)
	}

	log.Info("server exited")
	return nil
}

func page(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, name, nil)
	}
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
