package http

import (
	"time"

	"task_tracker/internal/http/handlers"
	"task_tracker/internal/http/middleware"
	"task_tracker/internal/store"
	"task_tracker/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps is everything the router needs from main.
type Deps struct {
	Store       store.Store
	StoreDriver string
	Version     string

	// Limiter is nil or RateLimit <= 0 to disable rate limiting.
	Limiter         middleware.Limiter
	RateLimit       int
	RateLimitWindow time.Duration

	CORSAllowedOrigins []string
}

// NewRouter builds the engine with the full middleware chain and all routes.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.Recovery(),
		middleware.RequestLogger(),
		middleware.Metrics(),
		middleware.CORS(d.CORSAllowedOrigins),
		middleware.ErrorHandler(),
	)
	RegisterRoutes(r, d)
	return r
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	h := handlers.NewHandler(d.Store)
	healthHandler := handlers.NewHealthHandler(d.Store, d.StoreDriver, d.Version)

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	if d.Limiter != nil && d.RateLimit > 0 {
		api.Use(middleware.RateLimit(d.Limiter, d.RateLimit, d.RateLimitWindow))
	}
	registerAPIRoutes(api, h)

	r.NoRoute(middleware.NotFound)
}

func registerAPIRoutes(api *gin.RouterGroup, h *handlers.Handler) {
	tasks := api.Group("/tasks")
	{
		tasks.GET("", h.ListTasks)
		tasks.GET("/stats", h.TaskStats)
		tasks.GET("/:taskId", h.GetTask)
		tasks.POST("", validation.Body(handlers.CreateTaskRules...), h.CreateTask)
		tasks.PUT("/:taskId", validation.Body(handlers.UpdateTaskRules...), h.UpdateTask)
		tasks.DELETE("/:taskId", h.DeleteTask)
		tasks.PATCH("/:taskId/completion", validation.Body(handlers.CompletionRules...), h.SetTaskCompletion)
		tasks.PATCH("/:taskId", h.PatchTask)
	}

	users := api.Group("/users")
	{
		users.GET("/:email", h.GetUser)
		users.POST("", validation.Body(handlers.CreateUserRules...), h.CreateUser)
	}
}
