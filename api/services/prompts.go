package services

import (
	"fmt"
	"strings"
)

// ContentType selects the prompt shape and output schema for a generation
// request.
type ContentType string

const (
	ContentTypeText         ContentType = "text"
	ContentTypePresentation ContentType = "presentation"
	ContentTypeQuiz         ContentType = "quiz"
	ContentTypeTest         ContentType = "test"
	ContentTypePodcast      ContentType = "podcast"
)

// PromptData carries the user prompt plus type-specific parameters.
type PromptData struct {
	UserPrompt    string `json:"userPrompt"`
	SlideCount    int    `json:"slideCount,omitempty"`
	QuestionCount int    `json:"questionCount,omitempty"`
	Difficulty    string `json:"difficulty,omitempty"`
	QuestionTypes string `json:"questionTypes,omitempty"`
	EpisodeCount  int    `json:"episodeCount,omitempty"`
}

// Defaults applied when the caller omits type-specific parameters.
const (
	DefaultSlideCount    = 5
	DefaultQuestionCount = 5
	DefaultDifficulty    = "Medium"
	DefaultQuestionTypes = "Multiple Choice and True/False"
	DefaultEpisodeCount  = 3
)

const baseJSONInstruction = `You are an expert in creating educational materials.
Your response MUST be a valid JSON object that strictly adheres to the requested schema.
Do not include any introductory text, closing remarks, or markdown formatting like ` + "```json ... ```" + ` around the JSON output.`

// BuildPrompt maps a content type and its parameters to the prompt sent to
// the model. Pure and deterministic; an unknown type falls back to the raw
// user prompt rather than failing.
func BuildPrompt(contentType ContentType, data PromptData) string {
	switch contentType {
	case ContentTypeText:
		// Free-form content uses the user's prompt directly.
		return data.UserPrompt

	case ContentTypePresentation:
		slideCount := data.SlideCount
		if slideCount <= 0 {
			slideCount = DefaultSlideCount
		}
		return fmt.Sprintf(`%s

Please create a presentation based on the following topic: "%s".
It must contain exactly %d slides.

The JSON object must have a key 'slides', which is an array of objects.
Each object in the array represents a slide and must have the following keys:
- 'title': A string for the slide's title.
- 'points': An array of strings, where each string is a bullet point for the slide.`,
			baseJSONInstruction, data.UserPrompt, slideCount)

	case ContentTypeQuiz:
		return fmt.Sprintf(`%s

Please create a quiz based on the following instructions: "%s".

The JSON object must have a key 'questions', which is an array of objects.
Each object in the array represents a question and must have the following keys:
- 'question_text': A string containing the full text of the question.
- 'options': An array of strings representing the possible answers.
- 'correct_option_index': The zero-based index of the correct answer in the 'options' array.`,
			baseJSONInstruction, data.UserPrompt)

	case ContentTypeTest:
		questionCount := data.QuestionCount
		if questionCount <= 0 {
			questionCount = DefaultQuestionCount
		}
		difficulty := strings.TrimSpace(data.Difficulty)
		if difficulty == "" {
			difficulty = DefaultDifficulty
		}
		questionTypes := strings.TrimSpace(data.QuestionTypes)
		if questionTypes == "" {
			questionTypes = DefaultQuestionTypes
		}
		return fmt.Sprintf(`%s

Please create a test on the topic: "%s".
The test must have exactly %d questions.
The difficulty level should be: %s.
The questions should be a mix of the following types: %s.

The JSON object must have a key 'questions', which is an array of objects.
Each object in the array represents a question and must have the following keys:
- 'question_text': A string containing the full text of the question.
- 'type': A string, either 'multiple_choice' or 'true_false'.
- 'options': An array of strings representing the possible answers. For True/False, this should be ["True", "False"].
- 'correct_option_index': The zero-based index of the correct answer in the 'options' array.`,
			baseJSONInstruction, data.UserPrompt, questionCount, difficulty, questionTypes)

	case ContentTypePodcast:
		episodeCount := data.EpisodeCount
		if episodeCount <= 0 {
			episodeCount = DefaultEpisodeCount
		}
		return fmt.Sprintf(`%s

Please create a podcast series with %d episodes on the topic: "%s".

The JSON object must have a key 'episodes', which is an array of objects.
Each object in the array represents an episode and must have the following keys:
- 'title': A string for the episode's title.
- 'script': A string containing the full script for the episode.`,
			baseJSONInstruction, episodeCount, data.UserPrompt)

	default:
		// Fallback for an unknown type; dispatch rejects these before the
		// prompt is ever used.
		return data.UserPrompt
	}
}
