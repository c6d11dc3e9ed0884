// Package llmtest provides scripted llm.Client implementations for tests.
package llmtest

import (
	"context"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

// Func adapts a function to llm.Client. The function receives the system and
// user message contents of the request.
type Func func(ctx context.Context, system, user string) (string, error)

// Client records every request and answers through Reply.
type Client struct {
	Reply Func

	mu       sync.Mutex
	requests []openai.ChatCompletionRequest
}

// New returns a Client answering with reply.
func New(reply Func) *Client { return &Client{Reply: reply} }

// Static returns a Client that always answers content.
func Static(content string) *Client {
	return New(func(context.Context, string, string) (string, error) { return content, nil })
}

func (c *Client) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()
	var system, user string
	for _, m := range req.Messages {
		switch m.Role {
		case openai.ChatMessageRoleSystem:
			system = m.Content
		case openai.ChatMessageRoleUser:
			user = m.Content
		}
	}
	out, err := c.Reply(ctx, system, user)
	if err != nil {
		return openai.ChatCompletionResponse{}, err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: out},
		}},
	}, nil
}

// Requests returns a copy of the recorded requests.
func (c *Client) Requests() []openai.ChatCompletionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]openai.ChatCompletionRequest, len(c.requests))
	copy(out, c.requests)
	return out
}

// Calls reports how many requests were made.
func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

// Slow returns a Func that blocks until the context ends.
func Slow() Func {
	return func(ctx context.Context, _, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
}
