package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// BedrockConverseAPI is the part of the Bedrock runtime client used here.
type BedrockConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockClient implements Client with the Bedrock Converse API.
type BedrockClient struct {
	api     BedrockConverseAPI
	modelID string
}

func NewBedrockClient(api BedrockConverseAPI, modelID string) (*BedrockClient, error) {
	if api == nil {
		return nil, errors.New("llm: bedrock runtime client is required")
	}
	if strings.TrimSpace(modelID) == "" {
		return nil, errors.New("llm: bedrock model id is required")
	}
	return &BedrockClient{api: api, modelID: modelID}, nil
}

func (c *BedrockClient) Complete(ctx context.Context, req Request) (Response, error) {
	modelID := c.modelID
	if req.Model != "" {
		modelID = req.Model
	}

	var system []brtypes.SystemContentBlock
	for _, block := range req.System {
		if strings.TrimSpace(block) != "" {
			system = append(system, &brtypes.SystemContentBlockMemberText{Value: block})
		}
	}
	messages := make([]brtypes.Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		var role brtypes.ConversationRole
		switch msg.Role {
		case RoleSystem:
			system = append(system, &brtypes.SystemContentBlockMemberText{Value: content})
			continue
		case RoleUser:
			role = brtypes.ConversationRoleUser
		case RoleAssistant:
			role = brtypes.ConversationRoleAssistant
		default:
			return Response{}, fmt.Errorf("llm: unsupported role %q", msg.Role)
		}
		messages = append(messages, brtypes.Message{
			Role:    role,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: content}},
		})
	}
	if len(messages) == 0 {
		return Response{}, errors.New("llm: bedrock requires at least one message")
	}

	out, err := c.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId:         aws.String(modelID),
		System:          system,
		Messages:        messages,
		InferenceConfig: inferenceConfig(req),
	})
	if err != nil {
		return Response{}, fmt.Errorf("llm: bedrock completion failed: %w", err)
	}
	text, err := converseText(out)
	if err != nil {
		return Response{}, err
	}

	resp := Response{Text: strings.TrimSpace(text), StopReason: string(out.StopReason)}
	if out.Usage != nil {
		resp.Usage = TokenUsage{
			InputTokens:  aws.ToInt32(out.Usage.InputTokens),
			OutputTokens: aws.ToInt32(out.Usage.OutputTokens),
			TotalTokens:  aws.ToInt32(out.Usage.TotalTokens),
		}
	}
	return resp, nil
}

// inferenceConfig returns nil when the request sets no limits. A negative
// temperature leaves the model default in place.
func inferenceConfig(req Request) *brtypes.InferenceConfiguration {
	cfg := &brtypes.InferenceConfiguration{}
	if req.MaxTokens > 0 {
		cfg.MaxTokens = aws.Int32(req.MaxTokens)
	}
	if req.Temperature >= 0 {
		cfg.Temperature = aws.Float32(req.Temperature)
	}
	if req.TopP > 0 {
		cfg.TopP = aws.Float32(req.TopP)
	}
	if cfg.MaxTokens == nil && cfg.Temperature == nil && cfg.TopP == nil {
		return nil
	}
	return cfg
}

func converseText(out *bedrockruntime.ConverseOutput) (string, error) {
	if out == nil {
		return "", errors.New("llm: bedrock response is nil")
	}
	msg, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return "", errors.New("llm: bedrock response has no message")
	}
	var sb strings.Builder
	for _, block := range msg.Value.Content {
		if t, ok := block.(*brtypes.ContentBlockMemberText); ok {
			sb.WriteString(t.Value)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", errors.New("llm: bedrock response has no text")
	}
	return sb.String(), nil
}
