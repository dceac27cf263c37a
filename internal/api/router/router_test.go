package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quoteline/autobody-ai-platform/internal/conversation"
	"github.com/quoteline/autobody-ai-platform/internal/estimate"
	"github.com/quoteline/autobody-ai-platform/internal/messaging"
	"github.com/quoteline/autobody-ai-platform/internal/session"
	"github.com/quoteline/autobody-ai-platform/internal/shops"
	"github.com/quoteline/autobody-ai-platform/pkg/logging"
)

type noopEstimator struct{}

func (noopEstimator) EstimateDamage(_ context.Context, _ []string) (*estimate.RawEstimate, error) {
	return &estimate.RawEstimate{}, nil
}

func testRouter(t *testing.T, shopsJSON string) http.Handler {
	t.Helper()
	loc, err := time.LoadLocation("America/Toronto")
	require.NoError(t, err)
	now := time.Date(2025, time.February, 9, 13, 30, 0, 0, loc)

	directory, err := shops.Load(shopsJSON)
	require.NoError(t, err)

	engine := conversation.NewEngine(conversation.Config{
		Sessions:  session.NewMemoryStore(time.Hour),
		Estimator: estimate.NewService(noopEstimator{}, time.Second, logging.Default()),
		SlotCount: 3,
		Location:  loc,
		Now:       func() time.Time { return now },
	})

	return New(&Config{
		Logger:           logging.Default(),
		Directory:        directory,
		MessagingHandler: messaging.NewHandler(engine, "", logging.Default()),
	})
}

func TestHealthRoute(t *testing.T) {
	r := testRouter(t, "")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Backend is running!")
}

func TestWebhookSingleDefaultMode(t *testing.T) {
	r := testRouter(t, "")

	form := url.Values{}
	form.Set("From", "+15550001111")
	req := httptest.NewRequest("POST", "/sms-webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Thanks for messaging Auto Body Shop!")
}

func TestWebhookMultiTenantTokenChecks(t *testing.T) {
	const shopsJSON = `[{"id": "shop-a", "name": "Northside Collision", "webhook_token": "tok-a"}]`
	r := testRouter(t, shopsJSON)

	form := url.Values{}
	form.Set("From", "+15550001111")

	// Valid token resolves the shop.
	req := httptest.NewRequest("POST", "/sms-webhook?token=tok-a", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Northside Collision")

	// Missing and unknown tokens are rejected, not answered conversationally.
	for _, target := range []string{"/sms-webhook", "/sms-webhook?token=nope"} {
		req := httptest.NewRequest("POST", target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code, "target %s", target)
	}
}
