package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Slide is a single slide in a generated presentation
type Slide struct {
	Title  string   `json:"title" validate:"notblank"`
	Points []string `json:"points" validate:"min=1,dive,notblank"`
}

// Presentation is the structured payload for the presentation content type
type Presentation struct {
	Slides []Slide `json:"slides" validate:"min=1,dive"`
}

// Question is a quiz question; Type is optional for quizzes
type Question struct {
	QuestionText       string   `json:"question_text" validate:"notblank"`
	Type               string   `json:"type,omitempty" validate:"omitempty,oneof=multiple_choice true_false"`
	Options            []string `json:"options" validate:"min=2,dive,notblank"`
	CorrectOptionIndex int      `json:"correct_option_index"`
}

// Quiz is the structured payload for the quiz content type
type Quiz struct {
	Questions []Question `json:"questions" validate:"min=1,dive"`
}

// TestQuestion is a test question; unlike Question, Type is mandatory
type TestQuestion struct {
	QuestionText       string   `json:"question_text" validate:"notblank"`
	Type               string   `json:"type" validate:"required,oneof=multiple_choice true_false"`
	Options            []string `json:"options" validate:"min=2,dive,notblank"`
	CorrectOptionIndex int      `json:"correct_option_index"`
}

// Test is the structured payload for the test content type
type Test struct {
	Questions []TestQuestion `json:"questions" validate:"min=1,dive"`
}

// Episode is a single podcast episode
type Episode struct {
	Title  string `json:"title" validate:"notblank"`
	Script string `json:"script" validate:"notblank"`
}

// Podcast is the structured payload for the podcast content type
type Podcast struct {
	Episodes []Episode `json:"episodes" validate:"min=1,dive"`
}

// ValidationError reports the first failing field and a human-readable
// reason. A single invalid field invalidates the whole candidate; there is
// no partial repair.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

var validate = newContentValidator()

func newContentValidator() *validator.Validate {
	v := validator.New()

	// Report field paths with their JSON names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Required strings must be non-empty after trimming
	v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	// correct_option_index must land inside the options slice
	boundsCheck := func(sl validator.StructLevel, index int, options []string, field any) {
		if index < 0 || index >= len(options) {
			sl.ReportError(field, "correct_option_index", "CorrectOptionIndex", "optionbounds", "")
		}
	}
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		q := sl.Current().Interface().(Question)
		boundsCheck(sl, q.CorrectOptionIndex, q.Options, q.CorrectOptionIndex)
	}, Question{})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		q := sl.Current().Interface().(TestQuestion)
		boundsCheck(sl, q.CorrectOptionIndex, q.Options, q.CorrectOptionIndex)
	}, TestQuestion{})

	return v
}

func reasonForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank":
		return "cannot be empty"
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "optionbounds":
		return "must be a zero-based index into 'options'"
	default:
		return fmt.Sprintf("failed '%s' validation", fe.Tag())
	}
}

// firstFailure converts a validator error into a ValidationError naming the
// first failing field path.
func firstFailure(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	// Namespace starts with the root struct type; the field path reads
	// better without it.
	path := fe.Namespace()
	if i := strings.Index(path, "."); i >= 0 {
		path = path[i+1:]
	}
	return &ValidationError{Field: path, Reason: reasonForTag(fe)}
}

func decodeAndValidate[T any](raw []byte) (*T, error) {
	var candidate T
	if err := json.Unmarshal(raw, &candidate); err != nil {
		return nil, fmt.Errorf("malformed JSON: %w", err)
	}
	if err := validate.Struct(&candidate); err != nil {
		return nil, firstFailure(err)
	}
	return &candidate, nil
}

func validatePresentation(raw []byte) (*GeneratedContent, error) {
	p, err := decodeAndValidate[Presentation](raw)
	if err != nil {
		return nil, err
	}
	return &GeneratedContent{ContentType: ContentTypePresentation, Presentation: p}, nil
}

func validateQuiz(raw []byte) (*GeneratedContent, error) {
	q, err := decodeAndValidate[Quiz](raw)
	if err != nil {
		return nil, err
	}
	return &GeneratedContent{ContentType: ContentTypeQuiz, Quiz: q}, nil
}

func validateTest(raw []byte) (*GeneratedContent, error) {
	t, err := decodeAndValidate[Test](raw)
	if err != nil {
		return nil, err
	}
	return &GeneratedContent{ContentType: ContentTypeTest, Test: t}, nil
}

func validatePodcast(raw []byte) (*GeneratedContent, error) {
	p, err := decodeAndValidate[Podcast](raw)
	if err != nil {
		return nil, err
	}
	return &GeneratedContent{ContentType: ContentTypePodcast, Podcast: p}, nil
}
