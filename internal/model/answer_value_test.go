package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizedSet(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, NormalizedSet([]string{" B", "A ", "A", ""}))
	assert.Empty(t, NormalizedSet(nil))
}

func TestSetsEqual(t *testing.T) {
	assert.True(t, SetsEqual([]string{"A", "B"}, []string{"B", "A"}))
	assert.True(t, SetsEqual([]string{"A", "A", " B"}, []string{"B", "A"}))
	assert.False(t, SetsEqual([]string{"A"}, []string{"A", "B"}))
	assert.False(t, SetsEqual([]string{"A", "C"}, []string{"A", "B"}))
	assert.True(t, SetsEqual(nil, []string{}))
}

func TestQuestionTypeAutoGraded(t *testing.T) {
	assert.True(t, QuestionTypeRadio.AutoGraded())
	assert.True(t, QuestionTypeCheckbox.AutoGraded())
	assert.False(t, QuestionTypeText.AutoGraded())
}
