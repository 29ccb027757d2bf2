package transport

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ProxyConfig tells fiber where the client IP lives when requests arrive
// through a load balancer. With an empty Header the socket address is used.
type ProxyConfig struct {
	Header         string
	TrustedProxies []string
}

// NewAppConfig returns the fiber settings shared by the API process and its
// handler tests.
func NewAppConfig(logger *zap.Logger, proxy ProxyConfig) fiber.Config {
	cfg := fiber.Config{
		AppName:      "solar-proposals",
		ErrorHandler: ErrorHandler(logger),
	}

	header := strings.TrimSpace(proxy.Header)
	if header == "" {
		return cfg
	}

	cfg.ProxyHeader = header
	cfg.EnableIPValidation = true
	if len(proxy.TrustedProxies) > 0 {
		cfg.EnableTrustedProxyCheck = true
		cfg.TrustedProxies = proxy.TrustedProxies
	}
	return cfg
}
