// Topic HTTP handlers.
//
//   - POST /topics   (create a topic, optionally with a notification target)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-topic-relay/internal/notify"
	"github.com/tbourn/go-topic-relay/internal/services"
)

// NotificationConfigRequest is the optional Telegram target of a topic.
type NotificationConfigRequest struct {
	// Credential is the bot token; it is verified once with getMe.
	Credential string `json:"credential" binding:"required,notblank" example:"123456:ABC-DEF1234ghIkl-zyx57W2v1u123ew11"`
	// Destination is the chat id messages are relayed to.
	Destination string `json:"destination" binding:"required,notblank" example:"-1001234567890"`
}

// CreateTopicRequest is the JSON payload for creating a topic.
type CreateTopicRequest struct {
	// Name labels the topic (1–255 characters after trimming).
	Name string `json:"name" binding:"required,notblank" example:"Website contact form"`
	// NotificationConfig, when present, relays every message to Telegram.
	NotificationConfig *NotificationConfigRequest `json:"notification_config,omitempty"`
}

// CreateTopicResponse carries the new topic's id.
type CreateTopicResponse struct {
	ID string `json:"id" example:"6f1c2a8e-3b4d-4e5f-9a0b-1c2d3e4f5a6b"`
}

// CreateTopic godoc
// @ID          createTopic
// @Summary     Create a topic
// @Description Creates a topic. When notification_config is supplied the bot
// @Description credential is checked once against the provider; a rejected or
// @Description unreachable credential fails the request and nothing is stored.
// @Tags        Topics
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.CreateTopicRequest  true  "Topic definition"
// @Success     201   {object}  handlers.CreateTopicResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Invalid body, name or notification config"
// @Failure     500   {object}  handlers.ErrorResponse  "Storage failure"
// @Router      /topics [post]
func (h *Handlers) CreateTopic(c *gin.Context) {
	var req CreateTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name required; notification_config needs credential and destination")
		return
	}

	var cfg *notify.Config
	if req.NotificationConfig != nil {
		cfg = &notify.Config{
			Credential:  req.NotificationConfig.Credential,
			Destination: req.NotificationConfig.Destination,
		}
	}

	t, err := h.topicSvc.Create(c.Request.Context(), req.Name, cfg)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidTopicName):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name must be 1-255 characters")
		case errors.Is(err, services.ErrCredentialUnreachable):
			fail(c, http.StatusBadRequest, ErrCodeInvalidConfig, "notification provider unreachable; credential not verified")
		case errors.Is(err, services.ErrInvalidNotificationConfig):
			fail(c, http.StatusBadRequest, ErrCodeInvalidConfig, "notification credential rejected")
		default:
			failErr(c, err, http.StatusInternalServerError, ErrCodeCreateFailed, "could not create topic")
		}
		return
	}

	ok(c, http.StatusCreated, CreateTopicResponse{ID: t.ID})
}
