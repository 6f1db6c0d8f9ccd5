// Package http is the outbound HTTP capability. Requests go out through a
// shared resty client once the target URL passes the manifest's scope.
package http

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"resty.dev/v3"

	"zen-manager/internal/logger"
	"zen-manager/internal/shell"
)

const (
	Name           = "http"
	defaultTimeout = 60 * time.Second
	maxRedirects   = 10
)

var (
	ErrURLNotAllowed = errors.New("url not allowed by http scope")
	ErrInvalidURL    = errors.New("invalid url")
	ErrNotReady      = errors.New("http plugin not set up")
)

type FetchRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
	// Timeout overrides the manifest default when positive
	Timeout time.Duration
}

type FetchResponse struct {
	Status     int                 `json:"status"`
	StatusText string              `json:"statusText"`
	URL        string              `json:"url"`
	Headers    map[string][]string `json:"headers"`
	Body       []byte              `json:"body"`
}

func (r *FetchResponse) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

func (r *FetchResponse) Text() string {
	return string(r.Body)
}

type Plugin struct {
	client  *resty.Client
	scope   *Scope
	timeout time.Duration
	log     logger.Logger
}

func New() *Plugin {
	return &Plugin{log: logger.Nop()}
}

func (p *Plugin) Name() string { return Name }

func (p *Plugin) Setup(_ context.Context, host shell.Host) error {
	cfg := host.Manifest().Plugins.HTTP

	scope, err := NewScope(cfg.Allow, cfg.Deny)
	if err != nil {
		return fmt.Errorf("http scope: %w", err)
	}

	p.scope = scope
	p.timeout = cfg.Timeout
	if p.timeout == 0 {
		p.timeout = defaultTimeout
	}
	p.log = host.Logger()

	p.client = resty.New().
		SetRedirectPolicy(resty.RedirectPolicyFunc(p.checkRedirect)).
		SetHeader("User-Agent", host.Manifest().ProductName+"/"+host.Manifest().Version)

	p.log.Debug("HTTP", "client ready", map[string]interface{}{
		"allow":   len(cfg.Allow),
		"deny":    len(cfg.Deny),
		"timeout": p.timeout.String(),
	})
	return nil
}

func (p *Plugin) Fetch(ctx context.Context, req FetchRequest) (*FetchResponse, error) {
	if p.client == nil {
		return nil, ErrNotReady
	}

	u, err := url.Parse(req.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, req.URL)
	}
	if !p.scope.Allows(u.String()) {
		return nil, fmt.Errorf("%w: %s", ErrURLNotAllowed, u.Redacted())
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = nethttp.MethodGet
	}

	timeout := p.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	r := p.client.R().SetContext(ctx)
	for k, v := range req.Headers {
		r.SetHeader(k, v)
	}
	if len(req.Body) > 0 {
		r.SetBody(req.Body)
	}

	start := time.Now()
	resp, err := r.Execute(method, u.String())
	if err != nil {
		p.log.Warning("HTTP", "request failed", map[string]interface{}{
			"method": method,
			"host":   u.Host,
			"error":  err.Error(),
		})
		return nil, fmt.Errorf("%s %s: %w", method, u.Redacted(), err)
	}

	out := &FetchResponse{
		Status:     resp.StatusCode(),
		StatusText: nethttp.StatusText(resp.StatusCode()),
		URL:        u.String(),
		Headers:    map[string][]string(resp.Header()),
		Body:       resp.Bytes(),
	}
	if raw := resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		out.URL = raw.Request.URL.String()
	}

	p.log.Debug("HTTP", "request completed", map[string]interface{}{
		"method":   method,
		"host":     u.Host,
		"status":   out.Status,
		"duration": time.Since(start).String(),
	})
	return out, nil
}

// checkRedirect holds every hop to the same scope as the original URL
func (p *Plugin) checkRedirect(req *nethttp.Request, via []*nethttp.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	if !p.scope.Allows(req.URL.String()) {
		return fmt.Errorf("redirect to %s: %w", req.URL.Redacted(), ErrURLNotAllowed)
	}
	return nil
}

func (p *Plugin) Shutdown() {
	if p.client == nil {
		return
	}
	if err := p.client.Close(); err != nil {
		p.log.Warning("HTTP", "closing client failed", map[string]interface{}{"error": err.Error()})
	}
}
