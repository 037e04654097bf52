// Message HTTP handlers.
//
//   - POST /topics/{id}/messages   (ingest a message; 201, no body)
//   - GET  /topics/{id}/messages   (list messages newest first; bearer only)
//
// Ingestion supports Idempotency-Key: when a live record exists for
// (topic, key) the handler answers 201 with `Idempotency-Replayed: true`
// without storing or relaying anything. Listing supports weak ETags.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-topic-relay/internal/domain"
	"github.com/tbourn/go-topic-relay/internal/http/middleware"
	"github.com/tbourn/go-topic-relay/internal/services"
)

// PostMessageRequest is the JSON payload for ingesting a message.
type PostMessageRequest struct {
	// Contacts is any JSON value identifying the sender, null included.
	Contacts domain.JSON `json:"contacts" binding:"required" swaggertype:"object"`
	// Text is the free-form body; it may be empty.
	Text *string `json:"text" binding:"required" example:"Please call me back about the quote."`
}

// HeaderReplayed marks a response served from an idempotency record.
const HeaderReplayed = "Idempotency-Replayed"

// PostMessage godoc
// @ID          postMessage
// @Summary     Ingest a message
// @Description Stores a message for the topic. If the topic has a notification
// @Description config the message is relayed to Telegram in the background;
// @Description delivery never affects this response.
// @Tags        Messages
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header  string  false  "Key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       id               path    string  true   "Topic ID (UUID)"       format(uuid)
// @Param       body             body    handlers.PostMessageRequest  true  "Message"
// @Success     201  "Stored"
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed body"
// @Failure     404  {object}  handlers.ErrorResponse  "Topic not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Storage failure"
// @Router      /topics/{id}/messages [post]
func (h *Handlers) PostMessage(c *gin.Context) {
	ctx := c.Request.Context()
	topicID := c.Param("id")

	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "contacts and text are required")
		return
	}

	if middleware.IsReplay(c) {
		c.Header(HeaderReplayed, "true")
		created(c)
		return
	}
	key, hasKey := middleware.GetIdempotencyKey(c)

	m, err := h.msgSvc.Ingest(ctx, topicID, req.Contacts, *req.Text)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTopicNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "topic not found")
		case errors.Is(err, services.ErrInvalidContacts):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "contacts and text are required")
		default:
			failErr(c, err, http.StatusInternalServerError, ErrCodeIngestFailed, "could not store message")
		}
		return
	}

	// Best effort: a lost record only means a retry stores a duplicate.
	if hasKey && h.idem != nil {
		if err := h.idem.Record(ctx, topicID, key, m.ID, http.StatusCreated); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Uint("message_id", m.ID).Msg("idempotency record not stored")
		}
	}

	created(c)
}

// ListMessages godoc
// @ID          listMessages
// @Summary     List a topic's messages
// @Description Returns the topic's messages newest first. Requires the contact
// @Description bearer token. Any lookup failure is reported as 404.
// @Tags        Messages
// @Produce     json
// @Security    BearerAuth
// @Param       id             path    string  true   "Topic ID (UUID)"  format(uuid)
// @Param       limit          query   int     false  "Return at most this many (newest) messages"  minimum(1)
// @Param       If-None-Match  header  string  false  "ETag from a previous listing"
// @Success     200  {array}   domain.Message
// @Success     304  "Not modified"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid limit"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid bearer token"
// @Failure     404  {object}  handlers.ErrorResponse  "Topic or messages not found"
// @Router      /topics/{id}/messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	ctx := c.Request.Context()
	topicID := c.Param("id")

	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "limit must be a positive integer")
		return
	}

	// ETag pre-check (best effort). An empty topic never short-circuits, so
	// an unknown topic still reaches the 404 below.
	if count, newest, err := h.msgSvc.Stats(ctx, topicID); err == nil && count > 0 {
		etag := messagesETag(topicID, count, newest, limit)
		c.Header("ETag", etag)
		if match(c.GetHeader("If-None-Match"), etag) {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, err := h.msgSvc.List(ctx, topicID, limit)
	if err != nil {
		if !errors.Is(err, services.ErrTopicNotFound) {
			middleware.LoggerFrom(c).Error().Err(err).Str("topic_id", topicID).Msg("list messages failed")
		}
		fail(c, http.StatusNotFound, ErrCodeNotFound, "topic not found")
		return
	}

	ok(c, http.StatusOK, items)
}

// parseLimit reads ?limit=. Absent means 0 (all).
func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	return n, nil
}

// messagesETag derives a weak validator from (count, newest). Messages are
// immutable, so the pair changes exactly when a message is added.
func messagesETag(topicID string, count int64, newest *time.Time, limit int) string {
	var ts int64
	if newest != nil {
		ts = newest.UnixNano()
	}
	return fmt.Sprintf(`W/"messages:%s:%d:%d:%d"`, topicID, count, ts, limit)
}

// match implements If-None-Match with weak comparison and "*".
func match(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, cand := range strings.Split(header, ",") {
		cand = strings.TrimSpace(cand)
		if cand == "*" || strings.TrimPrefix(cand, "W/") == strings.TrimPrefix(etag, "W/") {
			return true
		}
	}
	return false
}
