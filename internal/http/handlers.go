package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tazhibayda/events-service/internal/domain"
	"github.com/tazhibayda/events-service/internal/log"
	"github.com/tazhibayda/events-service/internal/metrics"
	"github.com/tazhibayda/events-service/internal/queue"
	"github.com/tazhibayda/events-service/internal/repo"
	"github.com/tazhibayda/events-service/internal/revalidate"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	Mongo  *repo.Manager
	Pages  revalidate.Invalidator
	Events queue.Publisher
}

func NewHandler(m *repo.Manager, pages revalidate.Invalidator, pub queue.Publisher) *Handler {
	return &Handler{Mongo: m, Pages: pages, Events: pub}
}

// store joins the process-wide connection; every handler goes through it
// so concurrent requests share a single dial.
func (h *Handler) store(c *gin.Context) (*repo.Store, bool) {
	s, err := h.Mongo.Connect(c.Request.Context())
	if err != nil {
		log.L.Error("mongo connect", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
		return nil, false
	}
	return s, true
}

// invalidate is best-effort: the mutation already succeeded, a cache
// miss on the next render is the worst case.
func (h *Handler) invalidate(c *gin.Context, path string) {
	metrics.InvalidationsTotal.WithLabelValues(path).Inc()
	h.Pages.Invalidate(c.Request.Context(), path)
}

func (h *Handler) publish(c *gin.Context, key string, event any) {
	if err := h.Events.Publish(c.Request.Context(), queue.Exchange, key, event, c.GetString(requestIDKey)); err != nil {
		log.L.Warn("publish "+key, zap.Error(err))
	}
}

func intQuery(c *gin.Context, name string, def int) int {
	if v, err := strconv.Atoi(c.Query(name)); err == nil {
		return v
	}
	return def
}

func callerID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.GetString("uid"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid uid"})
		return primitive.NilObjectID, false
	}
	return id, true
}

func pathParamID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return primitive.NilObjectID, false
	}
	return id, true
}

// ListEvents godoc
// @Summary List events
// @Tags events
// @Produce json
// @Param query query string false "title substring"
// @Param category query string false "category name"
// @Param page query int false "1-indexed page"
// @Param limit query int false "page size"
// @Success 200 {object} repo.EventPage
// @Router /api/events [get]
func (h *Handler) ListEvents(c *gin.Context) {
	s, ok := h.store(c)
	if !ok {
		return
	}
	page, err := s.ListEvents(c.Request.Context(), repo.ListEventsParams{
		Query:    c.Query("query"),
		Category: c.Query("category"),
		Page:     intQuery(c, "page", 1),
		Limit:    intQuery(c, "limit", 0),
	})
	if err != nil {
		log.L.Error("list events", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetEvent godoc
// @Summary Get one event with organizer and category expanded
// @Tags events
// @Produce json
// @Param id path string true "event id"
// @Success 200 {object} domain.EventDetail
// @Failure 404 {object} map[string]string
// @Router /api/events/{id} [get]
func (h *Handler) GetEvent(c *gin.Context) {
	id, ok := pathParamID(c, "id")
	if !ok {
		return
	}
	s, ok := h.store(c)
	if !ok {
		return
	}
	d, err := s.GetEventByID(c.Request.Context(), id)
	if errors.Is(err, repo.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}
	if err != nil {
		log.L.Error("get event", zap.String("id", id.Hex()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, d)
}

// RelatedEvents godoc
// @Summary Other events in the same category
// @Tags events
// @Produce json
// @Param id path string true "event id"
// @Success 200 {object} repo.EventPage
// @Router /api/events/{id}/related [get]
func (h *Handler) RelatedEvents(c *gin.Context) {
	id, ok := pathParamID(c, "id")
	if !ok {
		return
	}
	s, ok := h.store(c)
	if !ok {
		return
	}
	d, err := s.GetEventByID(c.Request.Context(), id)
	if errors.Is(err, repo.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	if d.Category == nil {
		c.JSON(http.StatusOK, repo.EventPage{Items: []domain.EventDetail{}})
		return
	}
	page, err := s.ListRelatedEvents(c.Request.Context(), d.Category.ID, id,
		intQuery(c, "page", 1), intQuery(c, "limit", 0))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, page)
}

type eventReq struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	ImageURL    string    `json:"image_url"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
	Price       string    `json:"price"`
	IsFree      bool      `json:"is_free"`
	URL         string    `json:"url"`
	CategoryID  string    `json:"category_id"`
	// Path names the cached page to recompute after the mutation.
	Path string `json:"path"`
}

func (in *eventReq) toEvent() (*domain.Event, bool) {
	if in.Title == "" || in.CategoryID == "" {
		return nil, false
	}
	catID, err := primitive.ObjectIDFromHex(in.CategoryID)
	if err != nil {
		return nil, false
	}
	return &domain.Event{
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		ImageURL:    in.ImageURL,
		StartAt:     in.StartAt,
		EndAt:       in.EndAt,
		Price:       in.Price,
		IsFree:      in.IsFree,
		URL:         in.URL,
		Category:    catID,
	}, true
}

func (in *eventReq) path() string {
	if in.Path != "" {
		return in.Path
	}
	return "/events"
}

// CreateEvent godoc
// @Summary Create event
// @Tags events
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body eventReq true "event"
// @Success 201 {object} domain.Event
// @Failure 404 {object} map[string]string
// @Router /api/events [post]
func (h *Handler) CreateEvent(c *gin.Context) {
	uid, ok := callerID(c)
	if !ok {
		return
	}
	var in eventReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	e, ok := in.toEvent()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and category_id required"})
		return
	}
	s, ok := h.store(c)
	if !ok {
		return
	}
	if err := s.CreateEvent(c.Request.Context(), uid, e); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "organizer not found"})
			return
		}
		log.L.Error("create event", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	h.invalidate(c, in.path())
	h.publish(c, "event.created", queue.EventChanged{EventID: e.ID, Organizer: uid, Title: e.Title})
	c.JSON(http.StatusCreated, e)
}

// UpdateEvent godoc
// @Summary Update event (organizer only)
// @Tags events
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "event id"
// @Param payload body eventReq true "event"
// @Success 200 {object} domain.Event
// @Failure 404 {object} map[string]string
// @Router /api/events/{id} [put]
func (h *Handler) UpdateEvent(c *gin.Context) {
	uid, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := pathParamID(c, "id")
	if !ok {
		return
	}
	var in eventReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	e, ok := in.toEvent()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and category_id required"})
		return
	}
	e.ID = id
	s, ok := h.store(c)
	if !ok {
		return
	}
	updated, err := s.UpdateEvent(c.Request.Context(), uid, e)
	if errors.Is(err, repo.ErrUnauthorized) {
		// missing and foreign events answer the same
		c.JSON(http.StatusNotFound, gin.H{"error": "unauthorized or event not found"})
		return
	}
	if err != nil {
		log.L.Error("update event", zap.String("id", id.Hex()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	h.invalidate(c, in.path())
	h.publish(c, "event.updated", queue.EventChanged{EventID: id, Organizer: uid, Title: updated.Title})
	c.JSON(http.StatusOK, updated)
}

// DeleteEvent godoc
// @Summary Delete event
// @Tags events
// @Security BearerAuth
// @Param id path string true "event id"
// @Param path query string false "page to invalidate"
// @Success 204
// @Router /api/events/{id} [delete]
func (h *Handler) DeleteEvent(c *gin.Context) {
	if _, ok := callerID(c); !ok {
		return
	}
	id, ok := pathParamID(c, "id")
	if !ok {
		return
	}
	s, ok := h.store(c)
	if !ok {
		return
	}
	deleted, err := s.DeleteEvent(c.Request.Context(), id)
	if err != nil {
		log.L.Error("delete event", zap.String("id", id.Hex()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	// absent id is a no-op: nothing changed, nothing to invalidate
	if deleted {
		path := c.Query("path")
		if path == "" {
			path = "/events"
		}
		h.invalidate(c, path)
		h.publish(c, "event.deleted", queue.EventChanged{EventID: id})
	}
	c.Status(http.StatusNoContent)
}

// GetUser godoc
// @Summary Get user
// @Tags users
// @Produce json
// @Param id path string true "user id"
// @Success 200 {object} domain.User
// @Failure 404 {object} map[string]string
// @Router /api/users/{id} [get]
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := pathParamID(c, "id")
	if !ok {
		return
	}
	s, ok := h.store(c)
	if !ok {
		return
	}
	u, err := s.GetUserByID(c.Request.Context(), id)
	if errors.Is(err, repo.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, u)
}

// UserEvents godoc
// @Summary Events organized by a user
// @Tags users
// @Produce json
// @Param id path string true "user id"
// @Success 200 {object} repo.EventPage
// @Router /api/users/{id}/events [get]
func (h *Handler) UserEvents(c *gin.Context) {
	id, ok := pathParamID(c, "id")
	if !ok {
		return
	}
	s, ok := h.store(c)
	if !ok {
		return
	}
	page, err := s.ListEventsByOrganizer(c.Request.Context(), id,
		intQuery(c, "page", 1), intQuery(c, "limit", 0))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, page)
}

// ListCategories godoc
// @Summary List categories
// @Tags categories
// @Produce json
// @Success 200 {array} domain.Category
// @Router /api/categories [get]
func (h *Handler) ListCategories(c *gin.Context) {
	s, ok := h.store(c)
	if !ok {
		return
	}
	cats, err := s.ListCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	if cats == nil {
		cats = []domain.Category{}
	}
	c.JSON(http.StatusOK, cats)
}

type categoryReq struct {
	Name string `json:"name"`
}

// CreateCategory godoc
// @Summary Create category
// @Tags categories
// @Accept json
// @Produce json
// @Param payload body categoryReq true "category"
// @Success 201 {object} domain.Category
// @Failure 409 {object} map[string]string
// @Router /api/categories [post]
func (h *Handler) CreateCategory(c *gin.Context) {
	var in categoryReq
	if err := c.ShouldBindJSON(&in); err != nil || in.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
		return
	}
	s, ok := h.store(c)
	if !ok {
		return
	}
	cat, err := s.CreateCategory(c.Request.Context(), in.Name)
	if errors.Is(err, repo.ErrCategoryExists) {
		c.JSON(http.StatusConflict, gin.H{"error": "category already exists"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (h *Handler) Healthz(c *gin.Context) {
	s, err := h.Mongo.Connect(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	if err := s.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
