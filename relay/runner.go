// Package relay dispatches a catalog pairing to the runner for its transport.
package relay

import (
	"context"
	"net/http"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/songquanpeng/prompt-studio/common/logger"
	"github.com/songquanpeng/prompt-studio/common/secret"
	"github.com/songquanpeng/prompt-studio/relay/adaptor"
	"github.com/songquanpeng/prompt-studio/relay/adaptor/aws"
	"github.com/songquanpeng/prompt-studio/relay/adaptor/openai"
	"github.com/songquanpeng/prompt-studio/relay/channeltype"
	"github.com/songquanpeng/prompt-studio/relay/meta"
)

// Deps are the shared clients runners are built on.
type Deps struct {
	Bedrock aws.InvokeModelAPI
	Secrets secret.Store
	// HTTPClient is used by HTTP vendors. Nil means client.HTTPClient.
	HTTPClient *http.Client
}

// GetRunner builds a runner for a model/config pairing taken from the catalog.
func GetRunner(ctx context.Context, deps Deps, modelCfg meta.ModelConfig, infCfg adaptor.InferenceConfig) (adaptor.Runner, error) {
	switch modelCfg.Type {
	case channeltype.Bedrock:
		if deps.Bedrock == nil {
			return nil, errors.New("bedrock client not configured")
		}
		family, err := aws.FamilyFor(modelCfg.Family, modelCfg.ModelID)
		if err != nil {
			return nil, err
		}
		req, err := aws.ComposeFamily(family, modelCfg.ModelID, infCfg)
		if err != nil {
			return nil, err
		}
		logger.Logger.Debug("created bedrock runner",
			zap.String("model", modelCfg.ModelID),
			zap.String("family", req.Family.String()),
			zap.Bool("structured", req.Structured),
			zap.ByteString("template", req.Template),
			zap.String("output", req.OutputPath))
		return aws.NewRunner(deps.Bedrock, req), nil
	case channeltype.OpenAI:
		cfg, ok := infCfg.(*openai.InferenceConfig)
		if !ok {
			return nil, errors.Errorf("model %s needs an openai inference config, got %T", modelCfg.ModelID, infCfg)
		}
		if deps.Secrets == nil {
			return nil, errors.New("secret store not configured")
		}
		return openai.NewRunner(ctx, deps.Secrets, modelCfg, cfg, deps.HTTPClient)
	case channeltype.SageMaker:
		return nil, &adaptor.NotImplementedError{Type: modelCfg.Type, ModelID: modelCfg.ModelID}
	default:
		return nil, &adaptor.UnknownModelTypeError{Type: modelCfg.Type}
	}
}
