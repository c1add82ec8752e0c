package proxy

import (
	"bytes"
	"io"
	"net/http"
	"time"
)

// DefaultMaxBodySize is the maximum response body size to relay (10MB).
const DefaultMaxBodySize = 10 * 1024 * 1024

// Forward relays the request to the target and writes the backend's
// response to w. The request body must already be buffered by the
// caller. It returns the status code written to the client.
func (f *Forwarder) Forward(w http.ResponseWriter, r *http.Request, body []byte, target Target) int {
	startTime := time.Now()

	resp, err := f.send(r, body, target)
	if err != nil {
		f.log.Warn("forwarding request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"target", target.URL(),
			"error", err,
		)
		http.Error(w, "Error forwarding request: "+err.Error(), http.StatusBadGateway)
		return http.StatusBadGateway
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, DefaultMaxBodySize))
	if err != nil {
		f.log.Warn("reading backend response failed", "error", err)
		http.Error(w, "Error reading backend response", http.StatusBadGateway)
		return http.StatusBadGateway
	}

	copyHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(respBody)

	f.log.Debug("request forwarded",
		"method", r.Method,
		"path", r.URL.Path,
		"status", resp.StatusCode,
		"duration", time.Since(startTime),
	)
	return resp.StatusCode
}

// send builds the outgoing request for the target and executes it.
func (f *Forwarder) send(r *http.Request, body []byte, target Target) (*http.Response, error) {
	targetURL := target.URL() + target.RewritePath(r.URL.Path)
	if r.URL.RawQuery != "" {
		targetURL += "?" + r.URL.RawQuery
	}

	outReq, err := http.NewRequestWithContext(r.Context(), r.Method, targetURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	copyHeaders(outReq.Header, r.Header)
	removeHopByHopHeaders(outReq.Header)

	// Set X-Forwarded headers
	outReq.Header.Set("X-Forwarded-For", r.RemoteAddr)
	outReq.Header.Set("X-Forwarded-Host", r.Host)

	return f.client.Do(outReq)
}

// copyHeaders copies headers from src to dst.
func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}

// removeHopByHopHeaders removes headers that should not be forwarded.
func removeHopByHopHeaders(h http.Header) {
	hopByHopHeaders := []string{
		"Connection",
		"Keep-Alive",
		"Proxy-Authenticate",
		"Proxy-Authorization",
		"Proxy-Connection",
		"TE",
		"Trailers",
		"Transfer-Encoding",
		"Upgrade",
	}

	for _, header := range hopByHopHeaders {
		h.Del(header)
	}
}
