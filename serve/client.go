// SPDX-License-Identifier: MIT

package serve

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/klauspost/compress/zstd"
)

// Client calls a Server.
type Client struct {
	httpClient *resty.Client
	cfg        Config
}

// NewClient returns a client for the server at baseURL (e.g. "http://127.0.0.1:8080").
func NewClient(baseURL string, cfg Config) *Client {
	cli := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(cfg.ClientTimeout).
		SetRetryCount(cfg.RetryMax).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(cfg.RetryWait * 2)

	return &Client{httpClient: cli, cfg: cfg}
}

// Health returns nil when the server reports ok.
func (c *Client) Health(ctx context.Context) error {
	var resp HealthResponse
	if err := c.do(ctx, resty.MethodGet, RouteHealth, nil, &resp); err != nil {
		return err
	}
	if resp.Status != "ok" {
		return fmt.Errorf("health: status %q", resp.Status)
	}

	return nil
}

// Model describes the served model.
func (c *Client) Model(ctx context.Context) (ModelInfo, error) {
	var resp ModelInfo
	err := c.do(ctx, resty.MethodGet, RouteModel, nil, &resp)
	return resp, err
}

// Predict returns the raw model output for inputs.
func (c *Client) Predict(ctx context.Context, inputs [][]float64) ([][]float64, error) {
	var resp PredictResponse
	err := c.do(ctx, resty.MethodPost, RoutePredict, PredictRequest{Inputs: inputs}, &resp)
	return resp.Outputs, err
}

// PredictClasses returns one class index per input row.
func (c *Client) PredictClasses(ctx context.Context, inputs [][]float64) ([]int, error) {
	var resp ClassesResponse
	err := c.do(ctx, resty.MethodPost, RoutePredictClasses, PredictRequest{Inputs: inputs}, &resp)
	return resp.Classes, err
}

// PredictProba returns class probabilities per input row.
func (c *Client) PredictProba(ctx context.Context, inputs [][]float64) ([][]float64, error) {
	var resp ProbaResponse
	err := c.do(ctx, resty.MethodPost, RoutePredictProba, PredictRequest{Inputs: inputs}, &resp)
	return resp.Probabilities, err
}

// StatusError is returned for non-2xx replies.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("serve: status %d: %s", e.Code, e.Message)
}

func (c *Client) do(ctx context.Context, method, route string, body, out any) error {
	req := c.httpClient.R().SetContext(ctx)

	if body != nil {
		b, err := sonic.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		if c.cfg.Compress {
			if b, err = compress(b); err != nil {
				return err
			}
			req.SetHeader("Content-Encoding", "zstd")
		}
		req.SetHeader("Content-Type", "application/json").SetBody(b)
	}
	if c.cfg.Compress {
		req.SetHeader("Accept-Encoding", "zstd")
	}

	resp, err := req.Execute(method, route)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, route, err)
	}

	data := resp.Body()
	if strings.Contains(strings.ToLower(resp.Header().Get("Content-Encoding")), "zstd") {
		if data, err = decompress(data); err != nil {
			return err
		}
	}

	if resp.StatusCode() >= 400 {
		var e ErrorResponse
		if uerr := sonic.Unmarshal(data, &e); uerr != nil || e.Error == "" {
			e.Error = string(data)
		}
		return &StatusError{Code: resp.StatusCode(), Message: e.Error}
	}
	if err = sonic.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	return nil
}

func compress(b []byte) ([]byte, error) {
	w, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd: failed to create writer: %w", err)
	}
	defer w.Close()

	return w.EncodeAll(b, nil), nil
}

func decompress(b []byte) ([]byte, error) {
	r, err := zstd.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("zstd: failed to create reader: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("zstd: failed to decompress response: %w", err)
	}

	return out, nil
}
