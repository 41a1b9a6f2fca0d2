package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"sentinel/internal/config"
	"sentinel/internal/handlers"
	"sentinel/internal/integrations/webhook"
	"sentinel/internal/manager"
	"sentinel/internal/middleware"
	"sentinel/internal/models"
	"sentinel/internal/version"

	"github.com/gin-gonic/gin"
)

// App bundles the long-lived server components.
type App struct {
	manager     *manager.Manager
	authService *middleware.AuthService
	wsHub       *middleware.Hub
	rateLimiter *middleware.RateLimiter
	authLimiter *middleware.RateLimiter
	metrics     *middleware.Metrics
}

func defaultConfigPath() string {
	if p := os.Getenv("SENTINEL_CONFIG"); p != "" {
		return p
	}
	return "config/sentinel.config"
}

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to the JSON config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	if os.Getenv("GIN_MODE") == "" && !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := newApp(cfg)
	if err != nil {
		log.Fatalf("Manager failed to initialize: %v", err)
	}
	if cfg.UsingDefaultSecret() {
		app.manager.Log.Write("WARNING: secret_key is the built-in default; set SENTINEL_SECRET_KEY in production")
	}
	if err := app.bootstrapAdmin(context.Background()); err != nil {
		log.Fatalf("Failed to create admin user: %v", err)
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	go app.wsHub.Run(hubCtx)
	app.manager.Start()

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Port),
		Handler: app.setupRouter(),
		// No read/write timeouts: they would also cut hijacked websocket connections.
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		var err error
		if cfg.TLS.Enabled {
			log.Printf("Starting HTTPS server on port %d", cfg.Port)
			err = srv.ListenAndServeTLS(app.manager.Paths.Resolve(cfg.TLS.CertPath), app.manager.Paths.Resolve(cfg.TLS.KeyPath))
		} else {
			log.Printf("Starting server on port %d", cfg.Port)
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give server 5 seconds to finish handling requests
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	stopHub()
	app.rateLimiter.Stop()
	app.authLimiter.Stop()
	app.manager.Shutdown()

	log.Println("Server exited")
}

func newApp(cfg *config.Config) (*App, error) {
	mgr, err := manager.NewManager(cfg)
	if err != nil {
		return nil, err
	}
	app := &App{
		manager: mgr,
		authService: middleware.NewAuthService(middleware.AuthOptions{
			Secret:            cfg.SecretKey,
			TokenExpiry:       cfg.TokenExpiry(),
			CookieForceSecure: cfg.CookieForceSecure,
			CookieSameSite:    cfg.CookieSameSite,
		}),
		wsHub:       middleware.NewHub(mgr.Log),
		rateLimiter: middleware.NewRateLimiter(middleware.PerMinute(cfg.RateLimitPerMinute), cfg.RateLimitBurst),
		// Credential endpoints get a tighter budget than the rest of the API.
		authLimiter: middleware.NewRateLimiter(middleware.PerMinute(10), 5),
		metrics:     middleware.NewMetrics(mgr.Directory.Len),
	}
	mgr.OnEvent(func(ev models.DirectoryEvent) {
		if err := app.wsHub.BroadcastJSON(ev); err != nil {
			mgr.Log.Writef("Broadcast failed: %v", err)
		}
	})
	if notifier := webhook.New(cfg.WebhookURL, cfg.AppName, mgr.Log); notifier != nil {
		mgr.OnEvent(func(ev models.DirectoryEvent) {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				notifier.NotifyEvent(ctx, ev)
			}()
		})
	}
	return app, nil
}

// bootstrapAdmin creates the configured superuser when it does not exist.
func (a *App) bootstrapAdmin(ctx context.Context) error {
	cfg := a.manager.Config
	if strings.TrimSpace(cfg.AdminPassword) == "" {
		if a.manager.Users.IsEmpty(ctx) {
			a.manager.Log.Write("No admin_password configured and no users exist; register an account via /api/auth/register")
		}
		return nil
	}
	created, err := a.manager.Users.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword, a.authService.HashPassword)
	if err != nil {
		return err
	}
	if created {
		a.manager.Log.Writef("Created admin user '%s'", cfg.AdminUsername)
	}
	return nil
}

func (a *App) setupRouter() *gin.Engine {
	r := gin.New()

	// Add recovery middleware
	r.Use(gin.Recovery())

	// Add custom logging middleware
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))

	r.Use(a.metrics.Middleware())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())
	r.Use(a.rateLimiter.Middleware())

	authHandlers := handlers.NewAuthHandlers(a.authService, a.manager.Users, a.manager.Log)
	profileHandlers := handlers.NewProfileHandlers(a.manager.Users, a.authService)
	serviceHandlers := handlers.NewServiceHandlers(a.manager, a.metrics)
	systemHandlers := handlers.NewSystemHandlers(a.manager)

	// Public routes
	r.GET("/", systemHandlers.Root)
	r.GET("/health", systemHandlers.Health)
	r.GET("/healthz", systemHandlers.Healthz)
	r.GET("/readyz", systemHandlers.Readyz)
	r.GET("/version", systemHandlers.Version)
	r.GET("/metrics", a.metrics.Handler())
	r.GET("/docs", func(c *gin.Context) {
		routes := make([]string, 0)
		for _, ri := range r.Routes() {
			routes = append(routes, ri.Method+" "+ri.Path)
		}
		sort.Strings(routes)
		c.JSON(http.StatusOK, gin.H{"routes": routes})
	})

	public := r.Group("/api")
	{
		public.GET("/status", systemHandlers.APIStatus)
		public.GET("/metrics", systemHandlers.APIMetrics)
	}
	authRoutes := r.Group("/api/auth", a.authLimiter.Middleware())
	{
		authRoutes.POST("/register", authHandlers.APIRegister)
		authRoutes.POST("/login", authHandlers.APILogin)
	}

	// API routes (require token authentication)
	api := r.Group("/api")
	api.Use(a.authService.RequireAPIAuth(a.manager.Users))
	{
		api.GET("/auth/me", authHandlers.APIMe)
		api.POST("/auth/logout", authHandlers.APILogout)
		api.POST("/profile/password", profileHandlers.APIChangePassword)
		api.GET("/services", serviceHandlers.APIServices)
		api.POST("/services", serviceHandlers.APICreateService)
		api.GET("/services/:id", serviceHandlers.APIService)
		api.GET("/services/:id/snapshot", serviceHandlers.APISnapshot)
		api.GET("/services/:id/view", serviceHandlers.APIView)
		api.GET("/overview", serviceHandlers.APIOverview)
		api.GET("/events", serviceHandlers.APIEvents)
		api.GET("/users", middleware.RequireSuperuser(), authHandlers.APIUsers)
	}

	// WebSocket endpoint
	r.GET("/ws", a.authService.RequireAPIAuth(a.manager.Users), a.wsHub.HandleWebSocket())

	return r
}
