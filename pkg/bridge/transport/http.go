package transport

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/mcpweave/mcpweave/pkg/bridge/client"
	"github.com/mcpweave/mcpweave/pkg/bridge/config"
	"github.com/mcpweave/mcpweave/pkg/logging"
)

// defaultHTTPTimeout is the default request timeout for SSE/streamable-HTTP
// backends, overridable per-backend via timeout_ms (spec §4.1).
const defaultHTTPTimeout = 30 * time.Second

const maxRedirects = 10

// buildHTTPClient constructs the *http.Client shared by the SSE and
// streamable-HTTP adapters: redirect-following, TLS verification toggle,
// bearer/client-credentials auth injection, sensitive-header masking, and
// an out-of-band push of retryable status errors (spec §4.1).
func buildHTTPClient(ctx context.Context, cfg *config.BackendConfig, h *Handle) (*http.Client, error) {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutMS > 0 {
		timeout = cfg.Timeout()
	}

	base := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: !cfg.VerifyTLS}, //nolint:gosec // operator-opted-in per backend
	}

	rt, err := wrapAuth(ctx, cfg, base)
	if err != nil {
		return nil, err
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: &observingRoundTripper{next: rt, handle: h, headers: cfg.Headers},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

// wrapAuth attaches the configured backend authentication as a
// request-decorating RoundTripper.
func wrapAuth(ctx context.Context, cfg *config.BackendConfig, next http.RoundTripper) (http.RoundTripper, error) {
	if cfg.Auth == nil || cfg.Auth.Type == "" {
		return next, nil
	}

	switch cfg.Auth.Type {
	case "bearer":
		return &staticBearerRoundTripper{token: cfg.Auth.Token, next: next}, nil
	case "client_credentials":
		ccCfg := &clientcredentials.Config{
			ClientID:     cfg.Auth.ClientID,
			ClientSecret: cfg.Auth.ClientSecret,
			TokenURL:     cfg.Auth.TokenURL,
			Scopes:       cfg.Auth.Scopes,
		}
		return &oauth2.Transport{Source: ccCfg.TokenSource(ctx), Base: next}, nil
	default:
		logging.Warnf("transport: backend %q has unknown auth type %q; proceeding unauthenticated", cfg.Name, cfg.Auth.Type)
		return next, nil
	}
}

type staticBearerRoundTripper struct {
	token string
	next  http.RoundTripper
}

func (rt *staticBearerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+rt.token)
	return rt.next.RoundTrip(req)
}

// observingRoundTripper injects static headers, masks sensitive ones before
// any log call, and feeds the handle's out-of-band error queue / session-
// lost flag per spec §4.1's last two bullets.
type observingRoundTripper struct {
	next    http.RoundTripper
	handle  *Handle
	headers map[string]string
}

func (rt *observingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	correlationID := client.CorrelationID(req.Context())

	if len(rt.headers) > 0 || correlationID != "" {
		req = req.Clone(req.Context())
		for k, v := range rt.headers {
			req.Header.Set(k, v)
		}
		if correlationID != "" {
			req.Header.Set("X-Mcpweave-Correlation-Id", correlationID)
		}
	}

	logging.Debugf("transport: %s %s correlation_id=%s headers=%v", req.Method, req.URL.Redacted(), correlationID, logging.SanitizeHeaders(req.Header))

	resp, err := rt.next.RoundTrip(req)
	if err != nil {
		rt.handle.pushError(client.NewTransportError(0, err))
		return resp, err
	}

	rt.handle.recordStatus(resp.StatusCode)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		rt.handle.sessionLost.Store(true)
		rt.handle.pushError(client.NewTransportError(resp.StatusCode, nil))
	case client.IsRetryableStatus(resp.StatusCode):
		rt.handle.pushError(client.NewTransportError(resp.StatusCode, nil))
	}

	if sid := resp.Header.Get("Mcp-Session-Id"); sid != "" {
		rt.handle.ClearSessionLost()
	}

	return resp, nil
}
