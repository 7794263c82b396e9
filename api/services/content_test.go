package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	response string
	err      error

	called    bool
	gotPrompt string
	gotParams GenerateParams
}

func (f *fakeGateway) Generate(_ context.Context, prompt string, params GenerateParams) (string, error) {
	f.called = true
	f.gotPrompt = prompt
	f.gotParams = params
	return f.response, f.err
}

func (f *fakeGateway) GetProviderName() string { return "fake" }

func TestGenerateRejectsUnknownContentTypeBeforeModelCall(t *testing.T) {
	gateway := &fakeGateway{}
	svc := NewContentService(gateway)

	_, err := svc.Generate(context.Background(), ContentRequest{
		ContentType: "mindmap",
		PromptData:  PromptData{UserPrompt: "X"},
	})

	require.ErrorIs(t, err, ErrUnknownContentType)
	assert.False(t, gateway.called, "unknown types must never reach the model")
}

func TestGenerateTextReturnsRawResponse(t *testing.T) {
	gateway := &fakeGateway{response: "Photosynthesis is..."}
	svc := NewContentService(gateway)

	content, err := svc.Generate(context.Background(), ContentRequest{
		ContentType: "text",
		PromptData:  PromptData{UserPrompt: "Explain photosynthesis"},
	})

	require.NoError(t, err)
	require.NotNil(t, content.Text)
	assert.Equal(t, "Photosynthesis is...", content.Text.Raw)

	// Free-text generation blocks harmful categories and stays out of JSON mode
	assert.True(t, gateway.gotParams.BlockHarmful)
	assert.False(t, gateway.gotParams.JSONResponse)
	assert.Equal(t, "Explain photosynthesis", gateway.gotPrompt)
}

func TestGenerateStructuredUsesJSONModeWithoutSafetyFiltering(t *testing.T) {
	gateway := &fakeGateway{response: `{"questions":[{"question_text":"Q","options":["A","B"],"correct_option_index":0}]}`}
	svc := NewContentService(gateway)

	content, err := svc.Generate(context.Background(), ContentRequest{
		ContentType: "quiz",
		PromptData:  PromptData{UserPrompt: "Roman history"},
	})

	require.NoError(t, err)
	require.NotNil(t, content.Quiz)
	assert.True(t, gateway.gotParams.JSONResponse)
	assert.False(t, gateway.gotParams.BlockHarmful)
	assert.Zero(t, gateway.gotParams.Temperature)
}

func TestGenerateStripsMarkdownFences(t *testing.T) {
	gateway := &fakeGateway{response: "```json\n{\"slides\":[{\"title\":\"T\",\"points\":[\"P\"]}]}\n```"}
	svc := NewContentService(gateway)

	content, err := svc.Generate(context.Background(), ContentRequest{
		ContentType: "presentation",
		PromptData:  PromptData{UserPrompt: "X"},
	})

	require.NoError(t, err)
	require.NotNil(t, content.Presentation)
	assert.Equal(t, "T", content.Presentation.Slides[0].Title)
}

func TestGenerateWrapsGatewayFailure(t *testing.T) {
	upstream := errors.New("quota exceeded")
	svc := NewContentService(&fakeGateway{err: upstream})

	_, err := svc.Generate(context.Background(), ContentRequest{
		ContentType: "quiz",
		PromptData:  PromptData{UserPrompt: "X"},
	})

	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.ErrorIs(t, err, upstream)
}

func TestGenerateInvalidModelOutputCarriesRawPayload(t *testing.T) {
	// Quiz JSON missing 'options' must never come back as accepted content
	raw := `{"questions":[{"question_text":"Q","correct_option_index":0}]}`
	svc := NewContentService(&fakeGateway{response: raw})

	content, err := svc.Generate(context.Background(), ContentRequest{
		ContentType: "quiz",
		PromptData:  PromptData{UserPrompt: "X"},
	})

	assert.Nil(t, content)
	var invalid *InvalidOutputError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, raw, invalid.Raw)
}

func TestGenerateMalformedJSONIsInvalidOutput(t *testing.T) {
	svc := NewContentService(&fakeGateway{response: "Sure! Here is your quiz: ..."})

	_, err := svc.Generate(context.Background(), ContentRequest{
		ContentType: "quiz",
		PromptData:  PromptData{UserPrompt: "X"},
	})

	var invalid *InvalidOutputError
	require.ErrorAs(t, err, &invalid)
}

func TestStripCodeFences(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		`{"a":1}`:                 `{"a":1}`,
		"  {\"a\":1}  ":           `{"a":1}`,
	}
	for input, want := range cases {
		assert.Equal(t, want, stripCodeFences(input))
	}
}
