package estimate

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/quoteline/autobody-ai-platform/pkg/logging"
)

var estimateTracer = otel.Tracer("autobody.internal.estimate")

const defaultCallTimeout = 35 * time.Second

// Service turns image URLs into a normalized estimate. It never fails:
// every estimator failure mode resolves to a valid default estimate so the
// conversation can always reply.
type Service struct {
	client  Client
	timeout time.Duration
	logger  *logging.Logger
}

// NewService creates the estimate service. A nil client means the estimator
// is unconfigured; Estimate then returns the fixed neutral estimate without
// attempting a call.
func NewService(client Client, timeout time.Duration, logger *logging.Logger) *Service {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		client:  client,
		timeout: timeout,
		logger:  logger,
	}
}

// Configured reports whether an estimator backend is wired.
func (s *Service) Configured() bool {
	return s.client != nil
}

// Estimate produces one unified estimate covering all images.
func (s *Service) Estimate(ctx context.Context, imageURLs []string) Estimate {
	ctx, span := estimateTracer.Start(ctx, "estimate.images")
	defer span.End()
	span.SetAttributes(attribute.Int("autobody.estimate.image_count", len(imageURLs)))

	if s.client == nil {
		span.SetAttributes(attribute.String("autobody.estimate.outcome", "unconfigured"))
		return unconfiguredDefault()
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.client.EstimateDamage(callCtx, imageURLs)
	if err != nil {
		span.RecordError(err)
		outcome := "unavailable"
		if errors.Is(err, ErrMalformed) {
			outcome = "malformed"
		}
		span.SetAttributes(attribute.String("autobody.estimate.outcome", outcome))
		s.logger.Warn("estimator call failed, using default estimate",
			"error", err,
			"outcome", outcome,
			"image_count", len(imageURLs),
		)
		return failedDefault()
	}

	span.SetAttributes(attribute.String("autobody.estimate.outcome", "ok"))
	return Normalize(raw)
}
