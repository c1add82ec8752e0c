// Option functions for configuring the admin API.

package admin

import (
	"log/slog"

	"github.com/mockdeck/mockdeck/pkg/request"
	"github.com/mockdeck/mockdeck/pkg/requestlog"
)

// Option configures an API.
type Option func(*API)

// WithLogger sets the operational logger. Without it the API is silent.
func WithLogger(log *slog.Logger) Option {
	return func(a *API) {
		if log != nil {
			a.log = log
		}
	}
}

// WithHost sets the bind address. Empty binds all interfaces.
func WithHost(host string) Option {
	return func(a *API) {
		a.host = host
	}
}

// WithRequestLog connects the mock services' request log so the
// /requests endpoints can read it. Without it those endpoints answer
// 503.
func WithRequestLog(store requestlog.Store) Option {
	return func(a *API) {
		a.requests = store
	}
}

// WithDispatcher replaces the default request dispatcher used by the
// /send endpoint.
func WithDispatcher(d *request.Dispatcher) Option {
	return func(a *API) {
		a.dispatcher = d
	}
}

// WithVersion sets the version string returned by the status endpoint.
// If not set, defaults to "dev".
func WithVersion(version string) Option {
	return func(a *API) {
		a.version = version
	}
}
