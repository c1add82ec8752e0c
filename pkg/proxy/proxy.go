// Package proxy forwards unmatched mock service requests to a real backend.
package proxy

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mockdeck/mockdeck/pkg/logging"
)

// DefaultTimeout is the default upstream request timeout.
const DefaultTimeout = 30 * time.Second

// Target describes the real backend a service forwards unmatched
// requests to. It is built from the service's resolved config.
type Target struct {
	// Scheme is "http" or "https" (default "http")
	Scheme string

	// Host is the backend host, e.g. "api.internal"
	Host string

	// Port is the backend port; 0 uses the scheme default
	Port int

	// Prefix is the path prefix the mock service is mounted under.
	// It is stripped before forwarding.
	Prefix string

	// RealPrefix is the path prefix on the real backend. It replaces
	// Prefix on the forwarded path.
	RealPrefix string
}

// URL renders the base URL for the target, without a path.
func (t Target) URL() string {
	scheme := t.Scheme
	if scheme == "" {
		scheme = "http"
	}
	if t.Port == 0 {
		return fmt.Sprintf("%s://%s", scheme, t.Host)
	}
	return fmt.Sprintf("%s://%s:%d", scheme, t.Host, t.Port)
}

// RewritePath maps an incoming request path to the backend path by
// swapping the mock prefix for the real prefix. Paths outside the mock
// prefix pass through unchanged.
func (t Target) RewritePath(path string) string {
	rest := path
	if t.Prefix != "" && t.Prefix != "/" {
		if path == t.Prefix {
			rest = "/"
		} else if strings.HasPrefix(path, t.Prefix+"/") {
			rest = strings.TrimPrefix(path, t.Prefix)
		}
	}
	real := t.RealPrefix
	if real == "" || real == "/" {
		return rest
	}
	if rest == "/" {
		return real
	}
	return real + rest
}

// Options configures forwarder behavior.
type Options struct {
	// Timeout is the upstream request timeout (default DefaultTimeout)
	Timeout time.Duration

	// Logger for operational logging (nil = no logging)
	Logger *slog.Logger
}

// Forwarder relays buffered requests to a Target and copies the
// response back to the client.
type Forwarder struct {
	client *http.Client
	log    *slog.Logger
}

// New creates a new Forwarder with the given options.
func New(opts Options) *Forwarder {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}

	return &Forwarder{
		client: &http.Client{
			Timeout: timeout,
			// Pass redirects through to the client unmodified
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		log: log,
	}
}
