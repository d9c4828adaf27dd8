package agent

import (
	"context"
	"errors"
)

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// ErrNoResponse reports that a completion finished without producing any
// candidate response.
var ErrNoResponse = errors.New("agent: model produced no response")

// Turn is a single entry in a session transcript.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

type Request struct {
	History   []Turn
	Message   string
	MaxTokens int32
}

type Response struct {
	Text  string
	Usage TokenUsage
}

// Client produces one completion for a message given the prior transcript.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// SessionStore persists per-sender transcripts between webhook deliveries.
// Load returns (nil, nil) for a session with no stored transcript.
type SessionStore interface {
	Load(ctx context.Context, sessionKey string) ([]Turn, error)
	Save(ctx context.Context, sessionKey string, turns []Turn) error
}
