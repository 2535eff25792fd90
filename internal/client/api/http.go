package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxResponseBody caps how much of a response is read.
const maxResponseBody = 4 << 20

// doJSON performs a JSON request and decodes a successful response into result.
func (c *Client) doJSON(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindTransport, Message: MsgTransport, Err: fmt.Errorf("marshal request body: %w", err)}
		}
		reader = bytes.NewReader(b)
	}
	contentType := ""
	if body != nil {
		contentType = contentTypeJSON
	}
	return c.do(ctx, method, path, contentType, reader, result)
}

// do sends a request and maps the outcome onto the Kind taxonomy.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, result any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	reqURL, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return &Error{Kind: KindTransport, Message: MsgTransport, Err: fmt.Errorf("build url: %w", err)}
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return &Error{Kind: KindTransport, Message: MsgTransport, Err: fmt.Errorf("create request: %w", err)}
	}

	requestID := uuid.NewString()
	req.Header.Set(headerRequestID, requestID)
	req.Header.Set(headerUserAgent, userAgent)
	req.Header.Set("Accept", contentTypeJSON)
	if contentType != "" {
		req.Header.Set(headerContentType, contentType)
	}
	token, ok := c.tokens.Get()
	if ok {
		req.Header.Set(headerAuthorization, "Bearer "+token)
	}

	log := c.log.With(
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
		zap.Bool("authenticated", ok),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug("request failed", zap.Error(err))
		return transportError(ctx, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		log.Debug("read response failed", zap.Error(err))
		return transportError(ctx, fmt.Errorf("read response body: %w", err))
	}
	log.Debug("request completed",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode >= 400 {
		return parseError(resp.StatusCode, respBody)
	}
	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return &Error{
				Kind:       KindTransport,
				StatusCode: resp.StatusCode,
				Message:    MsgTransport,
				Err:        fmt.Errorf("malformed response: %w", err),
			}
		}
	}
	return nil
}

func transportError(ctx context.Context, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &Error{Kind: KindTransport, Message: MsgTimeout, Err: err}
	}
	return &Error{Kind: KindTransport, Message: MsgTransport, Err: err}
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	return c.doJSON(ctx, http.MethodPost, path, body, result)
}
