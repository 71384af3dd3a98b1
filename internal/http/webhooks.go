package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tazhibayda/events-service/internal/domain"
	"github.com/tazhibayda/events-service/internal/log"
	"github.com/tazhibayda/events-service/internal/queue"
	"github.com/tazhibayda/events-service/internal/repo"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// The identity provider notifies us about account lifecycle; its payload
// addresses users by the provider-side external id.
type identityWebhook struct {
	Type string `json:"type"`
	Data struct {
		ExternalID string `json:"external_id"`
		Email      string `json:"email"`
		Username   string `json:"username"`
		FirstName  string `json:"first_name"`
		LastName   string `json:"last_name"`
		Photo      string `json:"photo"`
	} `json:"data"`
}

// IdentityWebhook godoc
// @Summary Identity-provider account lifecycle webhook
// @Tags webhooks
// @Accept json
// @Produce json
// @Param payload body identityWebhook true "user.created | user.updated | user.deleted"
// @Success 200 {object} map[string]any
// @Router /api/webhooks/identity [post]
func (h *Handler) IdentityWebhook(c *gin.Context) {
	var in identityWebhook
	if err := c.ShouldBindJSON(&in); err != nil || in.Data.ExternalID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	s, ok := h.store(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	switch in.Type {
	case "user.created":
		u := &domain.User{
			ExternalID: in.Data.ExternalID,
			Email:      in.Data.Email,
			Username:   in.Data.Username,
			FirstName:  in.Data.FirstName,
			LastName:   in.Data.LastName,
			Photo:      in.Data.Photo,
		}
		if err := s.CreateUser(ctx, u); err != nil {
			if repo.IsDup(err) {
				c.JSON(http.StatusConflict, gin.H{"error": "user already exists"})
				return
			}
			log.L.Error("create user", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}
		h.publish(c, "user.created", queue.UserCreated{UserID: u.ID, ExternalID: u.ExternalID, Email: u.Email})
		c.JSON(http.StatusCreated, u)

	case "user.updated":
		u, err := s.UpdateUser(ctx, in.Data.ExternalID, repo.UserPatch{
			Username:  in.Data.Username,
			FirstName: in.Data.FirstName,
			LastName:  in.Data.LastName,
			Photo:     in.Data.Photo,
		})
		if errors.Is(err, repo.ErrUpdateFailed) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		if err != nil {
			log.L.Error("update user", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}
		c.JSON(http.StatusOK, u)

	case "user.deleted":
		u, err := s.DeleteUser(ctx, in.Data.ExternalID)
		if errors.Is(err, repo.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		if err != nil {
			log.L.Error("delete user", zap.String("external_id", in.Data.ExternalID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}
		// home lists events and their organizers, so it goes stale on
		// every user deletion
		h.invalidate(c, "/")
		if u != nil {
			h.publish(c, "user.deleted", queue.UserDeleted{UserID: u.ID, ExternalID: in.Data.ExternalID})
		}
		c.JSON(http.StatusOK, gin.H{"deleted": u})

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown webhook type"})
	}
}

type checkoutWebhook struct {
	PaymentID   string `json:"payment_id"`
	EventID     string `json:"event_id"`
	BuyerID     string `json:"buyer_id"`
	TotalAmount string `json:"total_amount"`
}

// CheckoutWebhook godoc
// @Summary Payment-gateway checkout completion webhook
// @Tags webhooks
// @Accept json
// @Produce json
// @Param payload body checkoutWebhook true "completed checkout"
// @Success 201 {object} domain.Order
// @Router /api/webhooks/checkout [post]
func (h *Handler) CheckoutWebhook(c *gin.Context) {
	var in checkoutWebhook
	if err := c.ShouldBindJSON(&in); err != nil || in.PaymentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	eventID, err := primitive.ObjectIDFromHex(in.EventID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event_id"})
		return
	}
	buyerID, err := primitive.ObjectIDFromHex(in.BuyerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid buyer_id"})
		return
	}
	s, ok := h.store(c)
	if !ok {
		return
	}

	o := &domain.Order{
		PaymentID:   in.PaymentID,
		TotalAmount: in.TotalAmount,
		Event:       eventID,
		Buyer:       buyerID,
	}
	if err := s.CreateOrder(c.Request.Context(), o); err != nil {
		// gateways retry webhooks; a replayed payment id is not an error
		if repo.IsDup(err) {
			c.JSON(http.StatusOK, gin.H{"status": "already recorded"})
			return
		}
		log.L.Error("create order", zap.String("payment_id", in.PaymentID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	h.publish(c, "order.created", queue.OrderCreated{
		OrderID: o.ID, EventID: eventID, Buyer: buyerID, PaymentID: in.PaymentID,
	})
	c.JSON(http.StatusCreated, o)
}
