package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"villaledger/internal/infra/config"
	"villaledger/internal/infra/obs"
)

type PricingHTTP interface {
	ListRules(c *gin.Context)
	AddRule(c *gin.Context)
	DeleteRule(c *gin.Context)
	Nightly(c *gin.Context)
	Range(c *gin.Context)
	Quote(c *gin.Context)
	QuickCalc(c *gin.Context)
}

type ReservationHTTP interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	Dashboard(c *gin.Context)
	CheckoutAlerts(c *gin.Context)
}

type CalendarHTTP interface {
	Month(c *gin.Context)
}

type AdminHTTP interface {
	RunBackup(c *gin.Context)
	ReadBackup(c *gin.Context)
	Sync(c *gin.Context)
	GetSettings(c *gin.Context)
	UpdateSettings(c *gin.Context)
}

type Handlers struct {
	Pricing      PricingHTTP
	Reservations ReservationHTTP
	Calendar     CalendarHTTP
	Admin        AdminHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the engine without a listener so tests can drive it.
func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Idempotency-Key"},
		ExposeHeaders: []string{"Content-Length", "Content-Type", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Pricing != nil {
		prices := api.Group("/prices")
		prices.GET("", h.Pricing.ListRules)
		prices.POST("", h.Pricing.AddRule)
		prices.DELETE("/:id", h.Pricing.DeleteRule)
		prices.GET("/nightly", h.Pricing.Nightly)
		prices.GET("/range", h.Pricing.Range)
		api.POST("/quote", h.Pricing.Quote)
		api.POST("/calculator", h.Pricing.QuickCalc)
	}
	if h.Reservations != nil {
		res := api.Group("/reservations")
		res.GET("", h.Reservations.List)
		res.POST("", h.Reservations.Create)
		res.GET("/:id", h.Reservations.Get)
		res.PUT("/:id", h.Reservations.Update)
		res.DELETE("/:id", h.Reservations.Delete)
		api.GET("/dashboard", h.Reservations.Dashboard)
		api.GET("/alerts/checkout", h.Reservations.CheckoutAlerts)
	}
	if h.Calendar != nil {
		api.GET("/calendar", h.Calendar.Month)
	}
	if h.Admin != nil {
		api.GET("/backup", h.Admin.ReadBackup)
		api.POST("/backup", h.Admin.RunBackup)
		api.POST("/sync", h.Admin.Sync)
		api.GET("/settings", h.Admin.GetSettings)
		api.PUT("/settings", h.Admin.UpdateSettings)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug", "dev", "local":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
