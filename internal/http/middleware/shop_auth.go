package middleware

import (
	"errors"
	"net/http"

	"github.com/quoteline/autobody-ai-platform/internal/shops"
	"github.com/quoteline/autobody-ai-platform/internal/tenancy"
	"github.com/quoteline/autobody-ai-platform/pkg/logging"
)

// ResolveShop resolves the acting shop from the webhook token query
// parameter and stores it in the request context. Unknown or missing
// tokens are rejected before any conversation logic runs; in
// single-default mode every request resolves to the implicit shop.
func ResolveShop(directory *shops.Directory, logger *logging.Logger) func(http.Handler) http.Handler {
	if directory == nil {
		panic("middleware: shop directory cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.URL.Query().Get("token")
			shop, err := directory.Resolve(token)
			if err != nil {
				if errors.Is(err, shops.ErrUnauthorized) {
					logger.Warn("rejected webhook with invalid shop token", "path", r.URL.Path)
					http.Error(w, "Invalid or missing shop token", http.StatusForbidden)
					return
				}
				logger.Error("shop resolution failed", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r.WithContext(tenancy.WithShop(r.Context(), shop)))
		})
	}
}
