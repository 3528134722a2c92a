package assistant

import (
	"context"
	"fmt"

	"github.com/af-corp/shipsense/internal/gemini"
	"github.com/af-corp/shipsense/internal/prompt"
	"github.com/af-corp/shipsense/internal/types"
)

// Chat answers a DevOps question. Off-topic messages get the refusal text
// and zero tokens without calling the model.
func (s *Service) Chat(ctx context.Context, req types.ChatRequest) (types.ChatReply, error) {
	model := s.Model(req.Model)
	refusal, refused, err := s.screen(ctx, EndpointChat, model, req.Message)
	if err != nil {
		return types.ChatReply{}, err
	}
	if refused {
		return types.ChatReply{Output: refusal}, nil
	}

	cfg := s.endpoints().Chat
	topP := orDefault(req.TopP, cfg.TopP)
	out := s.generate(ctx, EndpointChat, cfg, gemini.Params{
		Model:           model,
		System:          prompt.ChatSystem,
		Prompt:          prompt.Chat(req.Message),
		Temperature:     orDefault(req.Temperature, cfg.Temperature),
		TopP:            &topP,
		MaxOutputTokens: orDefault(req.MaxOutputTokens, cfg.MaxOutputTokens),
	})
	if !out.Accepted && out.Err != nil {
		return types.ChatReply{}, fmt.Errorf("chat generation: %w", out.Err)
	}

	return types.ChatReply{
		Output: out.Value,
		Tokens: s.tokens.Usage(ctx, model, req.Message, out.Value),
	}, nil
}
