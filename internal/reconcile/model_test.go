package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/fundamentals-cli/pkg/anthropic"
)

// stubClient returns a canned response and records the request.
type stubClient struct {
	resp *anthropic.MessageResponse
	err  error
	last anthropic.MessageRequest
}

func (s *stubClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	s.last = req
	return s.resp, s.err
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
	}
}

func TestModelExtract(t *testing.T) {
	client := &stubClient{
		resp: textResponse(`{"revenue": 127553891245, "total_assets": 254366000000}`),
	}
	ex := NewModelExtractor(client, "claude-sonnet-4-5-20250929", 1024, 60000, DefaultTargets)

	values, err := ex.Extract(context.Background(), "filing text", map[string]float64{
		"revenue": 127000000000,
	})
	require.NoError(t, err)

	assert.InDelta(t, 127553891245.0, values["revenue"], 1e-3)
	assert.InDelta(t, 254366000000.0, values["total_assets"], 1e-3)

	// the request must carry the cached system prompt and the reference values
	require.Len(t, client.last.System, 1)
	require.NotNil(t, client.last.System[0].CacheControl)
	assert.Equal(t, "1h", client.last.System[0].CacheControl.TTL)
	require.Len(t, client.last.Messages, 1)
	assert.Contains(t, client.last.Messages[0].Content, "revenue: 127000000000")
}

func TestModelExtractFencedReply(t *testing.T) {
	client := &stubClient{
		resp: textResponse("```json\n{\"revenue\": 100}\n```"),
	}
	ex := NewModelExtractor(client, "claude-sonnet-4-5-20250929", 1024, 60000, DefaultTargets)

	values, err := ex.Extract(context.Background(), "text", nil)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, values["revenue"], 1e-9)
}

func TestModelExtractBadReply(t *testing.T) {
	client := &stubClient{resp: textResponse("the revenue was about 12 billion")}
	ex := NewModelExtractor(client, "claude-sonnet-4-5-20250929", 1024, 60000, DefaultTargets)

	_, err := ex.Extract(context.Background(), "text", nil)
	assert.Error(t, err)
}

func TestModelExtractRequestError(t *testing.T) {
	client := &stubClient{err: assert.AnError}
	ex := NewModelExtractor(client, "claude-sonnet-4-5-20250929", 1024, 60000, DefaultTargets)

	_, err := ex.Extract(context.Background(), "text", nil)
	assert.Error(t, err)
}

func TestModelExtractBoundsExcerpt(t *testing.T) {
	client := &stubClient{resp: textResponse(`{}`)}
	ex := NewModelExtractor(client, "claude-sonnet-4-5-20250929", 1024, 10, DefaultTargets)

	long := "营业收入营业收入营业收入营业收入营业收入营业收入"
	_, err := ex.Extract(context.Background(), long, nil)
	require.NoError(t, err)

	assert.NotContains(t, client.last.Messages[0].Content, long)
	assert.Contains(t, client.last.Messages[0].Content, string([]rune(long)[:10]))
}
