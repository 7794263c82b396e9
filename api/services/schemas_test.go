package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePresentationAcceptsValidCandidate(t *testing.T) {
	raw := []byte(`{"slides":[
		{"title":"Intro","points":["What is energy?","Units"]},
		{"title":"Forms","points":["Kinetic"]}
	]}`)

	content, err := validatePresentation(raw)
	require.NoError(t, err)
	require.NotNil(t, content.Presentation)

	assert.Equal(t, ContentTypePresentation, content.ContentType)
	assert.Len(t, content.Presentation.Slides, 2)
	assert.Equal(t, "Intro", content.Presentation.Slides[0].Title)
	assert.Equal(t, []string{"Kinetic"}, content.Presentation.Slides[1].Points)
}

func TestValidatePresentationRejectsSlideWithoutPoints(t *testing.T) {
	raw := []byte(`{"slides":[{"title":"Intro","points":[]}]}`)

	_, err := validatePresentation(raw)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Field, "slides[0].points")
}

func TestValidatePresentationRejectsBlankTitle(t *testing.T) {
	raw := []byte(`{"slides":[{"title":"   ","points":["A"]}]}`)

	_, err := validatePresentation(raw)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Field, "slides[0].title")
	assert.Equal(t, "cannot be empty", verr.Reason)
}

func TestValidatePresentationRejectsEmptySlides(t *testing.T) {
	_, err := validatePresentation([]byte(`{"slides":[]}`))
	require.Error(t, err)
}

func TestValidateQuizAcceptsValidCandidate(t *testing.T) {
	raw := []byte(`{"questions":[
		{"question_text":"2+2?","options":["3","4"],"correct_option_index":1}
	]}`)

	content, err := validateQuiz(raw)
	require.NoError(t, err)
	require.NotNil(t, content.Quiz)
	assert.Equal(t, 1, content.Quiz.Questions[0].CorrectOptionIndex)
}

func TestValidateQuizCorrectOptionIndexBounds(t *testing.T) {
	for _, index := range []int{-1, 2, 99} {
		raw := []byte(fmt.Sprintf(
			`{"questions":[{"question_text":"2+2?","options":["3","4"],"correct_option_index":%d}]}`, index))

		_, err := validateQuiz(raw)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "index %d must fail validation", index)
		assert.Contains(t, verr.Field, "correct_option_index")
	}
}

func TestValidateQuizRequiresTwoOptions(t *testing.T) {
	raw := []byte(`{"questions":[{"question_text":"2+2?","options":["4"],"correct_option_index":0}]}`)

	_, err := validateQuiz(raw)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Field, "options")
}

func TestValidateQuizRejectsMissingOptions(t *testing.T) {
	raw := []byte(`{"questions":[{"question_text":"2+2?","correct_option_index":0}]}`)

	_, err := validateQuiz(raw)
	require.Error(t, err)
}

func TestValidateQuizTypeIsOptional(t *testing.T) {
	withType := []byte(`{"questions":[{"question_text":"Q","type":"true_false","options":["True","False"],"correct_option_index":0}]}`)
	_, err := validateQuiz(withType)
	assert.NoError(t, err)

	badType := []byte(`{"questions":[{"question_text":"Q","type":"essay","options":["A","B"],"correct_option_index":0}]}`)
	_, err = validateQuiz(badType)
	assert.Error(t, err)
}

func TestValidateTestRequiresQuestionType(t *testing.T) {
	raw := []byte(`{"questions":[{"question_text":"Q","options":["A","B"],"correct_option_index":0}]}`)

	_, err := validateTest(raw)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Field, "type")
}

func TestValidateTestAcceptsValidCandidate(t *testing.T) {
	raw := []byte(`{"questions":[
		{"question_text":"Water boils at 100C","type":"true_false","options":["True","False"],"correct_option_index":0},
		{"question_text":"Pick one","type":"multiple_choice","options":["A","B","C"],"correct_option_index":2}
	]}`)

	content, err := validateTest(raw)
	require.NoError(t, err)
	require.NotNil(t, content.Test)
	assert.Len(t, content.Test.Questions, 2)
}

func TestValidatePodcast(t *testing.T) {
	valid := []byte(`{"episodes":[{"title":"Ep 1","script":"Welcome to the show."}]}`)
	content, err := validatePodcast(valid)
	require.NoError(t, err)
	require.NotNil(t, content.Podcast)

	blankScript := []byte(`{"episodes":[{"title":"Ep 1","script":" "}]}`)
	_, err = validatePodcast(blankScript)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Field, "episodes[0].script")

	noEpisodes := []byte(`{"episodes":[]}`)
	_, err = validatePodcast(noEpisodes)
	assert.Error(t, err)
}

func TestValidateRejectsMalformedJSON(t *testing.T) {
	_, err := validateQuiz([]byte(`{"questions": [`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed JSON")
}
