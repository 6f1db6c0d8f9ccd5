package http

import (
	"context"
	"encoding/json"
	"time"

	"zen-manager/internal/shell"
)

type fetchArgs struct {
	Method    string            `json:"method"`
	URL       string            `json:"url"`
	Headers   map[string]string `json:"headers"`
	Body      string            `json:"body"`
	TimeoutMs int64             `json:"timeoutMs"`
}

func (p *Plugin) Commands() map[string]shell.CommandFunc {
	return map[string]shell.CommandFunc{
		"fetch": func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
			var a fetchArgs
			if err := shell.DecodeArgs(raw, &a); err != nil {
				return nil, err
			}

			req := FetchRequest{
				Method:  a.Method,
				URL:     a.URL,
				Headers: a.Headers,
				Timeout: time.Duration(a.TimeoutMs) * time.Millisecond,
			}
			if a.Body != "" {
				req.Body = []byte(a.Body)
			}
			return p.Fetch(ctx, req)
		},
	}
}
