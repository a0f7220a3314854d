package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	got, ok := ExtractJSON("```json\n{\"response\":\"hi\",\"status\":\"continue\"}\n```")
	require.True(t, ok)
	assert.Equal(t, `{"response":"hi","status":"continue"}`, got)

	_, ok = ExtractJSON("no json here")
	assert.False(t, ok)
}

func TestClientFunc(t *testing.T) {
	var c Client = ClientFunc(func(_ context.Context, req Request) (Response, error) {
		return Response{Text: req.Messages[0].Content}, nil
	})
	resp, err := c.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "echo"}}})
	require.NoError(t, err)
	assert.Equal(t, "echo", resp.Text)
}

func TestFactoryEmptyKey(t *testing.T) {
	c, err := NewFactory("").Client(context.Background(), "", "  ")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestNewGeminiClientRequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), "", "")
	assert.Error(t, err)
}
