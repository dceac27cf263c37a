package tenancy

import (
	"context"

	"github.com/quoteline/autobody-ai-platform/internal/shops"
)

type contextKey struct{}

// WithShop returns a context carrying the resolved shop for the request.
func WithShop(ctx context.Context, shop shops.ShopConfig) context.Context {
	return context.WithValue(ctx, contextKey{}, shop)
}

// ShopFromContext extracts the resolved shop, if any.
func ShopFromContext(ctx context.Context) (shops.ShopConfig, bool) {
	shop, ok := ctx.Value(contextKey{}).(shops.ShopConfig)
	return shop, ok
}
