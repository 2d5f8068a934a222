package shinobi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultTimeout bounds every call to the Shinobi API.
const DefaultTimeout = 2 * time.Second

type Client struct {
	HTTP   *resty.Client
	Config ClientConfig
}

type ClientConfig struct {
	BaseURL string        // scheme://host:port, no trailing slash
	Token   string        // Shinobi API key, sent as the first path segment
	Timeout time.Duration // per request; DefaultTimeout when zero
	// Transport replaces the default round tripper (tests, proxies).
	Transport http.RoundTripper
}

// New builds a client that is safe for concurrent use by many relays.
func New(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	r := resty.New()
	r.SetBaseURL(cfg.BaseURL + "/" + cfg.Token)
	r.SetTimeout(cfg.Timeout)
	r.SetTransport(otelhttp.NewTransport(transport))
	r.SetHeader("User-Agent", "shinobi-relay")

	return &Client{
		HTTP:   r,
		Config: cfg,
	}
}
