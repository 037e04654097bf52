package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestHelpers_GetIdempotencyKey_IsReplay(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	if k, ok := GetIdempotencyKey(c); k != "" || ok {
		t.Fatalf("expected empty key when not set")
	}
	if IsReplay(c) {
		t.Fatalf("expected IsReplay=false by default")
	}

	c.Set(ctxKeyIdemKey, 123)
	if _, ok := GetIdempotencyKey(c); ok {
		t.Fatalf("non-string key must read as absent")
	}
	c.Set(ctxKeyIdemReplay, true)
	if !IsReplay(c) {
		t.Fatalf("expected IsReplay=true")
	}
	c.Set(ctxKeyIdemReplay, "yes")
	if IsReplay(c) {
		t.Fatalf("expected IsReplay=false for non-bool")
	}
}

func TestIdempotencyValidator_NoHeader_NoLookupCalled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	called := false
	r.Use(IdempotencyValidator(IdempotencyOptions{}, func(context.Context, string, string, time.Time) (bool, error) {
		called = true
		return false, nil
	}))
	r.POST("/topics/:id/messages", func(c *gin.Context) {
		if _, ok := GetIdempotencyKey(c); ok {
			t.Fatalf("key should not be present when header missing")
		}
		c.Status(http.StatusCreated)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/topics/t1/messages", nil))
	if w.Code != http.StatusCreated || called {
		t.Fatalf("code=%d called=%v", w.Code, called)
	}
}

func TestIdempotencyValidator_InvalidKeys(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		opts IdempotencyOptions
		key  string
	}{
		{"too long", IdempotencyOptions{MaxLen: 5}, "abcdef"},
		{"custom pattern", IdempotencyOptions{Pattern: regexp.MustCompile(`^[0-9]+$`)}, "abc123"},
		{"default pattern rejects spaces", IdempotencyOptions{}, "has space"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(IdempotencyValidator(tc.opts, nil))
			r.POST("/x", func(c *gin.Context) { c.Status(http.StatusCreated) })

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/x", nil)
			req.Header.Set(HeaderIdempotencyKey, tc.key)
			r.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body["code"] != "bad_idempotency_key" {
				t.Fatalf("unexpected body: %v", body)
			}
		})
	}
}

func TestIdempotencyValidator_LookupMissAndHit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, hit := range []bool{false, true} {
		r := gin.New()
		var gotTopic, gotKey string
		r.Use(IdempotencyValidator(IdempotencyOptions{}, func(_ context.Context, topicID, key string, now time.Time) (bool, error) {
			if now.IsZero() {
				t.Fatalf("lookup time not populated")
			}
			gotTopic, gotKey = topicID, key
			return hit, nil
		}))
		r.POST("/topics/:id/messages", func(c *gin.Context) {
			if IsReplay(c) != hit || IsRateBypass(c) != hit {
				t.Fatalf("hit=%v but replay=%v bypass=%v", hit, IsReplay(c), IsRateBypass(c))
			}
			key, _ := GetIdempotencyKey(c)
			if key != "k-9" {
				t.Fatalf("stashed key = %q", key)
			}
			c.Status(http.StatusCreated)
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/topics/abc/messages", nil)
		req.Header.Set(HeaderIdempotencyKey, "k-9")
		r.ServeHTTP(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("hit=%v: expected 201, got %d", hit, w.Code)
		}
		if gotTopic != "abc" || gotKey != "k-9" {
			t.Fatalf("lookup args: topic=%q key=%q", gotTopic, gotKey)
		}
	}
}

func TestIdempotencyValidator_CustomParam(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	var gotTopic string
	r.Use(IdempotencyValidator(IdempotencyOptions{Param: "topicId"}, func(_ context.Context, topicID, _ string, _ time.Time) (bool, error) {
		gotTopic = topicID
		return false, nil
	}))
	r.POST("/t/:topicId", func(c *gin.Context) { c.Status(http.StatusCreated) })

	req := httptest.NewRequest(http.MethodPost, "/t/xyz", nil)
	req.Header.Set(HeaderIdempotencyKey, "k")
	r.ServeHTTP(httptest.NewRecorder(), req)
	if gotTopic != "xyz" {
		t.Fatalf("expected topic from custom param, got %q", gotTopic)
	}
}
