package bootstrap

import (
	"context"
	"fmt"

	"github.com/lumabot/wabridge/internal/agent"
	appconfig "github.com/lumabot/wabridge/internal/config"
	"github.com/lumabot/wabridge/pkg/logging"
)

// BuildAgentRunner wires the Gemini client and the reply runner. The returned
// client must be closed on shutdown.
func BuildAgentRunner(ctx context.Context, cfg *appconfig.Config, sessions agent.SessionStore, logger *logging.Logger) (*agent.Runner, *agent.GeminiClient, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	client, err := agent.NewGeminiClient(ctx, cfg.GoogleAPIKey, cfg.GeminiModel,
		agent.WithInstruction(cfg.AgentInstruction),
		agent.WithSearchGrounding(cfg.AgentSearchGrounding),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: failed to create gemini client: %w", err)
	}

	runner := agent.NewRunner(client, sessions,
		agent.WithLogger(logger),
		agent.WithModelName(client.Model()),
		agent.WithTimeout(cfg.AgentTimeout),
		agent.WithMaxTurns(cfg.SessionMaxTurns),
		agent.WithMaxTokens(int32(cfg.AgentMaxTokens)),
	)

	logger.Info("agent runner ready",
		"model", client.Model(),
		"timeout", cfg.AgentTimeout,
		"max_turns", cfg.SessionMaxTurns,
		"search_grounding", cfg.AgentSearchGrounding,
	)
	return runner, client, nil
}
