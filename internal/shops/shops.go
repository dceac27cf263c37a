package shops

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnauthorized is returned when a webhook token is missing or unknown
// while the directory has shops configured.
var ErrUnauthorized = errors.New("shops: invalid or missing shop token")

// ShopConfig describes one tenant. Immutable after load.
type ShopConfig struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	CalendarID   string `json:"calendar_id,omitempty"`
	WebhookToken string `json:"webhook_token"`
}

// Mode selects how the directory resolves tenants.
type Mode int

const (
	// ModeSingleDefault serves every request as one implicit default shop.
	// Chosen when no shops are configured at all.
	ModeSingleDefault Mode = iota
	// ModeMultiTenant resolves shops by webhook token and rejects unknown tokens.
	ModeMultiTenant
)

func (m Mode) String() string {
	if m == ModeMultiTenant {
		return "multi_tenant"
	}
	return "single_default"
}

// DefaultShop is the implicit tenant used in single-default mode.
// It has no calendar integration.
var DefaultShop = ShopConfig{ID: "default", Name: "Auto Body Shop"}

// Directory maps webhook tokens to shop configs. The mode is fixed at load.
type Directory struct {
	mode    Mode
	byToken map[string]ShopConfig
}

// Load parses a JSON array of shop configs. An empty or blank payload yields
// a single-default directory.
func Load(shopsJSON string) (*Directory, error) {
	if strings.TrimSpace(shopsJSON) == "" {
		return &Directory{mode: ModeSingleDefault}, nil
	}

	var configs []ShopConfig
	if err := json.Unmarshal([]byte(shopsJSON), &configs); err != nil {
		return nil, fmt.Errorf("shops: failed to parse shops JSON: %w", err)
	}
	if len(configs) == 0 {
		return &Directory{mode: ModeSingleDefault}, nil
	}

	byToken := make(map[string]ShopConfig, len(configs))
	for _, cfg := range configs {
		if cfg.ID == "" || cfg.WebhookToken == "" {
			return nil, fmt.Errorf("shops: shop %q missing id or webhook token", cfg.Name)
		}
		if _, dup := byToken[cfg.WebhookToken]; dup {
			return nil, fmt.Errorf("shops: duplicate webhook token for shop %q", cfg.ID)
		}
		byToken[cfg.WebhookToken] = cfg
	}
	return &Directory{mode: ModeMultiTenant, byToken: byToken}, nil
}

// Mode reports whether the directory runs single-default or multi-tenant.
func (d *Directory) Mode() Mode {
	return d.mode
}

// Resolve returns the shop for the given webhook token. In single-default
// mode every token (including none) resolves to DefaultShop.
func (d *Directory) Resolve(token string) (ShopConfig, error) {
	if d.mode == ModeSingleDefault {
		return DefaultShop, nil
	}
	if token == "" {
		return ShopConfig{}, ErrUnauthorized
	}
	shop, ok := d.byToken[token]
	if !ok {
		return ShopConfig{}, ErrUnauthorized
	}
	return shop, nil
}

// Len returns the number of configured shops.
func (d *Directory) Len() int {
	return len(d.byToken)
}
