package assistant

import (
	"context"
	"fmt"

	"github.com/af-corp/shipsense/internal/extract"
	"github.com/af-corp/shipsense/internal/gemini"
	"github.com/af-corp/shipsense/internal/prompt"
	"github.com/af-corp/shipsense/internal/telemetry"
	"github.com/af-corp/shipsense/internal/types"
	"github.com/af-corp/shipsense/internal/validate"
)

// DiagramRefusal is returned by GenerateDiagram for off-topic prompts.
const DiagramRefusal = "I can only diagram DevOps/CI/CD topics."

// GeneratePlaybook produces an Ansible playbook. Upstream failures count as
// empty attempts; when every attempt is empty the canned playbook is returned.
func (s *Service) GeneratePlaybook(ctx context.Context, req types.GenerateRequest) (types.PlaybookReply, error) {
	model := s.Model(req.Model)
	refusal, refused, err := s.screen(ctx, EndpointAnsible, model, req.Prompt)
	if err != nil {
		return types.PlaybookReply{}, err
	}
	if refused {
		return types.PlaybookReply{Output: refusal}, nil
	}

	reqs := extract.Playbook(req.Prompt)
	cfg := s.endpoints().Ansible
	out := s.generate(ctx, EndpointAnsible, cfg, gemini.Params{
		Model:           model,
		System:          prompt.AnsibleSystem,
		Prompt:          prompt.Playbook(req.Prompt, reqs),
		Temperature:     orDefault(req.Temperature, cfg.Temperature),
		MaxOutputTokens: orDefault(req.MaxOutputTokens, cfg.MaxOutputTokens),
	})
	if err := ctx.Err(); err != nil {
		return types.PlaybookReply{}, err
	}

	output := out.Value
	if !out.Accepted {
		s.logger.Warn("using fallback playbook",
			"request_id", telemetry.RequestID(ctx),
			"attempts", out.Attempts,
			"last_error", out.Err,
		)
		s.recordFallback(EndpointAnsible)
		output = validate.FallbackPlaybook
	}
	output = validate.PlaybookOrFallback(output)

	return types.PlaybookReply{
		Output:         output,
		YAMLValidation: validate.Playbook(output),
		Requirements:   &reqs,
	}, nil
}

// GenerateConfig produces a Terraform configuration. An upstream failure is
// returned to the caller; an empty answer is replaced by the canned config.
func (s *Service) GenerateConfig(ctx context.Context, req types.GenerateRequest) (types.ConfigReply, error) {
	model := s.Model(req.Model)
	refusal, refused, err := s.screen(ctx, EndpointTerraform, model, req.Prompt)
	if err != nil {
		return types.ConfigReply{}, err
	}
	if refused {
		return types.ConfigReply{Output: refusal}, nil
	}

	reqs := extract.Config(req.Prompt)
	cfg := s.endpoints().Terraform
	out := s.generate(ctx, EndpointTerraform, cfg, gemini.Params{
		Model:           model,
		System:          prompt.TerraformSystem,
		Prompt:          prompt.Config(req.Prompt, reqs),
		Temperature:     orDefault(req.Temperature, cfg.Temperature),
		MaxOutputTokens: orDefault(req.MaxOutputTokens, cfg.MaxOutputTokens),
	})
	if !out.Accepted && out.Err != nil {
		return types.ConfigReply{}, fmt.Errorf("terraform generation: %w", out.Err)
	}

	output := out.Value
	if !out.Accepted {
		s.recordFallback(EndpointTerraform)
		output = validate.FallbackConfig
	}
	output = validate.ConfigOrFallback(output)

	return types.ConfigReply{
		Output:        output,
		HCLValidation: validate.Config(output),
		Requirements:  &reqs,
	}, nil
}

// GenerateDiagram returns a mermaid fence. It never fails on upstream
// errors: a canned error diagram is returned instead.
func (s *Service) GenerateDiagram(ctx context.Context, req types.GenerateRequest) (types.DiagramReply, error) {
	model := s.Model(req.Model)
	_, refused, err := s.screen(ctx, EndpointDiagram, model, req.Prompt)
	if err != nil {
		return types.DiagramReply{}, err
	}
	if refused {
		return types.DiagramReply{Output: DiagramRefusal}, nil
	}

	cfg := s.endpoints().Diagram
	topP := cfg.TopP
	out := s.generate(ctx, EndpointDiagram, cfg, gemini.Params{
		Model:           model,
		System:          prompt.DiagramSystem,
		Prompt:          prompt.Diagram(req.Prompt),
		Temperature:     orDefault(req.Temperature, cfg.Temperature),
		TopP:            &topP,
		MaxOutputTokens: orDefault(req.MaxOutputTokens, cfg.MaxOutputTokens),
	})
	if !out.Accepted && out.Err != nil {
		s.recordFallback(EndpointDiagram)
		return types.DiagramReply{Output: validate.ErrorDiagram}, nil
	}

	diagram := validate.Mermaid(out.Value)
	if diagram == validate.FallbackDiagram {
		s.recordFallback(EndpointDiagram)
	}
	return types.DiagramReply{Output: diagram}, nil
}
