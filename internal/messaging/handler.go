package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/quoteline/autobody-ai-platform/internal/conversation"
	"github.com/quoteline/autobody-ai-platform/internal/tenancy"
	"github.com/quoteline/autobody-ai-platform/pkg/logging"
)

var webhookTracer = otel.Tracer("autobody.internal.messaging")

// handleTimeout bounds one webhook end to end; the estimator and calendar
// calls inside carry tighter budgets of their own.
const handleTimeout = 60 * time.Second

// Handler handles the SMS webhook and health endpoints.
type Handler struct {
	engine        *conversation.Engine
	webhookSecret string
	logger        *logging.Logger
}

// NewHandler creates the messaging handler. An empty webhookSecret disables
// Twilio signature validation.
func NewHandler(engine *conversation.Engine, webhookSecret string, logger *logging.Logger) *Handler {
	if engine == nil {
		panic("messaging: engine cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		engine:        engine,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// SMSWebhook handles POST /sms-webhook requests. The acting shop is
// resolved by middleware before this runs.
func (h *Handler) SMSWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, span := webhookTracer.Start(r.Context(), "messaging.sms_webhook")
	defer span.End()

	shop, ok := tenancy.ShopFromContext(ctx)
	if !ok {
		h.logger.Error("sms webhook reached without resolved shop")
		http.Error(w, "Forbidden", http.StatusForbidden)
		span.RecordError(errors.New("no shop in request context"))
		return
	}
	span.SetAttributes(attribute.String("autobody.shop_id", shop.ID))

	if h.webhookSecret != "" {
		if !ValidateTwilioSignature(r, h.webhookSecret, buildAbsoluteURL(r)) {
			h.logger.Warn("invalid twilio signature", "shop_id", shop.ID)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			span.RecordError(errors.New("invalid twilio signature"))
			return
		}
	}

	inbound, err := ParseInboundSMS(r)
	if err != nil {
		h.logger.Error("failed to parse sms webhook", "error", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		span.RecordError(err)
		return
	}
	if inbound.From == "" {
		h.logger.Error("sms webhook missing From")
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	span.SetAttributes(
		attribute.String("autobody.message_sid", inbound.MessageSid),
		attribute.Int("autobody.media_count", len(inbound.MediaURLs)),
	)

	handleCtx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	reply := h.engine.Handle(handleCtx, shop, conversation.Inbound{
		From:      inbound.From,
		Body:      inbound.Body,
		MediaURLs: inbound.MediaURLs,
	})

	payload, err := RenderTwiML(reply)
	if err != nil {
		h.logger.Error("failed to render reply", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		span.RecordError(err)
		return
	}

	h.logger.Info("sms webhook handled",
		"shop_id", shop.ID,
		"media_count", len(inbound.MediaURLs),
	)
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

// HealthCheck returns a simple liveness response.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"status": "Backend is running!",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}
