package estimate

import (
	"context"

	"github.com/quoteline/autobody-ai-platform/pkg/logging"
)

// FallbackClient wraps a primary estimator client with a fallback provider.
// If the primary fails, it automatically retries with the fallback.
type FallbackClient struct {
	primary  Client
	fallback Client
	logger   *logging.Logger
}

// NewFallbackClient creates a fallback-enabled estimator client. If fallback
// is nil, only the primary provider is used.
func NewFallbackClient(primary, fallback Client, logger *logging.Logger) *FallbackClient {
	if primary == nil {
		panic("estimate: primary client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackClient{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// EstimateDamage tries the primary estimator, then the fallback.
func (c *FallbackClient) EstimateDamage(ctx context.Context, imageURLs []string) (*RawEstimate, error) {
	raw, err := c.primary.EstimateDamage(ctx, imageURLs)
	if err == nil {
		return raw, nil
	}

	c.logger.Warn("primary estimator failed, attempting fallback",
		"error", err.Error(),
		"fallback_available", c.fallback != nil,
	)

	if c.fallback == nil {
		return nil, err
	}

	raw, fallbackErr := c.fallback.EstimateDamage(ctx, imageURLs)
	if fallbackErr != nil {
		c.logger.Error("fallback estimator also failed",
			"primary_error", err.Error(),
			"fallback_error", fallbackErr.Error(),
		)
		return nil, fallbackErr
	}

	c.logger.Info("fallback estimator succeeded after primary failure")
	return raw, nil
}
