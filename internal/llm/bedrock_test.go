package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConverse struct {
	input *bedrockruntime.ConverseInput
	out   *bedrockruntime.ConverseOutput
	err   error
}

func (f *fakeConverse) Converse(_ context.Context, in *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.input = in
	return f.out, f.err
}

func textOutput(text string) *bedrockruntime.ConverseOutput {
	return &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{
			Role:    brtypes.ConversationRoleAssistant,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: text}},
		}},
		StopReason: brtypes.StopReasonEndTurn,
		Usage:      &brtypes.TokenUsage{InputTokens: aws.Int32(12), OutputTokens: aws.Int32(5), TotalTokens: aws.Int32(17)},
	}
}

func TestBedrockClientComplete(t *testing.T) {
	api := &fakeConverse{out: textOutput("  Sounds good, Thursday at 2 works.  ")}
	c, err := NewBedrockClient(api, "anthropic.claude-3-haiku")
	require.NoError(t, err)

	resp, err := c.Complete(context.Background(), Request{
		System: []string{"You book demos.", " "},
		Messages: []Message{
			{Role: RoleSystem, Content: "Lead is Summit Roofing."},
			{Role: RoleAssistant, Content: "Do your crews use phones?"},
			{Role: RoleUser, Content: "Yes, all thirty."},
			{Role: RoleUser, Content: "   "},
		},
		MaxTokens:   200,
		Temperature: 0.2,
	})
	require.NoError(t, err)
	assert.Equal(t, "Sounds good, Thursday at 2 works.", resp.Text)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, TokenUsage{InputTokens: 12, OutputTokens: 5, TotalTokens: 17}, resp.Usage)

	in := api.input
	assert.Equal(t, "anthropic.claude-3-haiku", aws.ToString(in.ModelId))
	require.Len(t, in.System, 2)
	assert.Equal(t, "Lead is Summit Roofing.", in.System[1].(*brtypes.SystemContentBlockMemberText).Value)
	require.Len(t, in.Messages, 2)
	assert.Equal(t, brtypes.ConversationRoleAssistant, in.Messages[0].Role)
	assert.Equal(t, brtypes.ConversationRoleUser, in.Messages[1].Role)
	require.NotNil(t, in.InferenceConfig)
	assert.Equal(t, int32(200), aws.ToInt32(in.InferenceConfig.MaxTokens))
	assert.Nil(t, in.InferenceConfig.TopP)
}

func TestBedrockClientRequestModelOverrides(t *testing.T) {
	api := &fakeConverse{out: textOutput("ok")}
	c, err := NewBedrockClient(api, "default-model")
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), Request{Model: "other-model", Temperature: -1, Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	require.NoError(t, err)
	assert.Equal(t, "other-model", aws.ToString(api.input.ModelId))
	assert.Nil(t, api.input.InferenceConfig)
}

func TestBedrockClientErrors(t *testing.T) {
	_, err := NewBedrockClient(nil, "m")
	assert.Error(t, err)
	_, err = NewBedrockClient(&fakeConverse{}, " ")
	assert.Error(t, err)

	c, err := NewBedrockClient(&fakeConverse{err: errors.New("throttled")}, "m")
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	assert.ErrorContains(t, err, "throttled")

	_, err = c.Complete(context.Background(), Request{Messages: []Message{{Role: "tool", Content: "x"}}})
	assert.ErrorContains(t, err, "unsupported role")

	_, err = c.Complete(context.Background(), Request{System: []string{"only system"}})
	assert.Error(t, err)

	empty, err := NewBedrockClient(&fakeConverse{out: textOutput("  ")}, "m")
	require.NoError(t, err)
	_, err = empty.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	assert.ErrorContains(t, err, "no text")
}

func TestFactoryProviders(t *testing.T) {
	ctx := context.Background()
	plain := NewFactory("")
	assert.False(t, plain.BedrockEnabled())
	_, err := plain.Client(ctx, ProviderBedrock, "")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	_, err = plain.Client(ctx, "openai", "key")
	assert.ErrorIs(t, err, ErrProviderUnavailable)

	bedrock, err := NewBedrockClient(&fakeConverse{out: textOutput("ok")}, "m")
	require.NoError(t, err)
	f := NewFactory("", WithBedrock(bedrock))
	assert.True(t, f.BedrockEnabled())
	c, err := f.Client(ctx, "Bedrock", "")
	require.NoError(t, err)
	assert.Same(t, bedrock, c)

	c, err = f.Client(ctx, ProviderGemini, "")
	require.NoError(t, err)
	assert.Nil(t, c)
}
