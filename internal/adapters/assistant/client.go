// Package assistant is a fasthttp client for the external chat assistant.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/dishdash/dishdash/internal/core/domain"
)

// maxErrorBody bounds how much of an upstream error body ends up in the error.
const maxErrorBody = 512

type completionRequest struct {
	Messages []domain.ChatMessage `json:"messages"`
}

type completionResponse struct {
	Message domain.ChatMessage `json:"message"`
	Model   string             `json:"model"`
}

// Client implements ports.AssistantClient.
type Client struct {
	endpoint string
	apiKey   string
	timeout  time.Duration
	http     *fasthttp.Client
}

// New creates a client posting to endpoint. apiKey may be empty.
func New(endpoint, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		timeout:  timeout,
		http: &fasthttp.Client{
			Name:                "dishdash",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		},
	}
}

// Complete sends the conversation and returns the assistant's reply.
func (c *Client) Complete(ctx context.Context, messages []domain.ChatMessage) (*domain.ChatReply, error) {
	body, err := json.Marshal(completionRequest{Messages: messages})
	if err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.SetBody(body)

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("post %s: %w", c.endpoint, err)
	}

	if code := resp.StatusCode(); code < 200 || code > 299 {
		msg := resp.Body()
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return nil, fmt.Errorf("assistant returned %d: %s", code, msg)
	}

	var out completionResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	if out.Message.Role == "" {
		out.Message.Role = domain.RoleAssistant
	}
	return &domain.ChatReply{Message: out.Message, Model: out.Model}, nil
}
