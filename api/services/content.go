package services

import (
	"context"
	"strings"
)

// ContentRequest is the input to a single generation invocation
type ContentRequest struct {
	ContentType string     `json:"contentType" binding:"required"`
	PromptData  PromptData `json:"promptData" binding:"required"`
}

// TextContent wraps the raw model response for free-form generation
type TextContent struct {
	Raw string `json:"raw"`
}

// GeneratedContent is a discriminated union keyed by ContentType; exactly
// one payload field is set.
type GeneratedContent struct {
	ContentType  ContentType   `json:"contentType"`
	Text         *TextContent  `json:"text,omitempty"`
	Presentation *Presentation `json:"presentation,omitempty"`
	Quiz         *Quiz         `json:"quiz,omitempty"`
	Test         *Test         `json:"test,omitempty"`
	Podcast      *Podcast      `json:"podcast,omitempty"`
}

var (
	freeTextParams   = GenerateParams{Temperature: 0, BlockHarmful: true}
	structuredParams = GenerateParams{JSONResponse: true, Temperature: 0}
)

// contentSpec ties a content type to its prompt builder, output schema and
// gateway parameters. The closed table replaces per-type branching; a type
// missing here never reaches the model.
type contentSpec struct {
	params   GenerateParams
	validate func(raw []byte) (*GeneratedContent, error) // nil for free-form text
}

var contentSpecs = map[ContentType]contentSpec{
	ContentTypeText:         {params: freeTextParams},
	ContentTypePresentation: {params: structuredParams, validate: validatePresentation},
	ContentTypeQuiz:         {params: structuredParams, validate: validateQuiz},
	ContentTypeTest:         {params: structuredParams, validate: validateTest},
	ContentTypePodcast:      {params: structuredParams, validate: validatePodcast},
}

// ContentService orchestrates prompt building, the model call and output
// validation. It performs no persistence; callers own the result.
type ContentService struct {
	gateway ModelGateway
}

func NewContentService(gateway ModelGateway) *ContentService {
	return &ContentService{gateway: gateway}
}

// Generate runs the content pipeline for one request. Failures come back as
// ErrUnknownContentType, *UpstreamError or *InvalidOutputError.
func (s *ContentService) Generate(ctx context.Context, req ContentRequest) (*GeneratedContent, error) {
	contentType := ContentType(req.ContentType)
	spec, ok := contentSpecs[contentType]
	if !ok {
		return nil, ErrUnknownContentType
	}

	prompt := BuildPrompt(contentType, req.PromptData)

	response, err := s.gateway.Generate(ctx, prompt, spec.params)
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}

	if spec.validate == nil {
		return &GeneratedContent{
			ContentType: contentType,
			Text:        &TextContent{Raw: response},
		}, nil
	}

	cleaned := stripCodeFences(response)
	content, err := spec.validate([]byte(cleaned))
	if err != nil {
		return nil, &InvalidOutputError{Reason: err.Error(), Raw: response}
	}

	return content, nil
}

// stripCodeFences removes a markdown code-fence wrapper the model sometimes
// adds despite instructions.
func stripCodeFences(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	return strings.TrimSpace(response)
}
