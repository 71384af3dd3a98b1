package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterOptions struct {
	JWTSecret       string
	RateLimitPerMin int
}

func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(Metrics())

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	api.GET("/events", h.ListEvents)
	api.GET("/events/:id", h.GetEvent)
	api.GET("/events/:id/related", h.RelatedEvents)
	api.GET("/users/:id", h.GetUser)
	api.GET("/users/:id/events", h.UserEvents)
	api.GET("/categories", h.ListCategories)
	api.POST("/categories", h.CreateCategory)

	rl := NewRateLimiter(opts.RateLimitPerMin, time.Minute)
	mut := api.Group("")
	mut.Use(RateLimitMutations(rl), AuthJWT(opts.JWTSecret))
	mut.POST("/events", h.CreateEvent)
	mut.PUT("/events/:id", h.UpdateEvent)
	mut.DELETE("/events/:id", h.DeleteEvent)

	// webhooks authenticate upstream (signature checking is the
	// collaborator integration's job, outside this service)
	api.POST("/webhooks/identity", h.IdentityWebhook)
	api.POST("/webhooks/checkout", h.CheckoutWebhook)

	return r
}
