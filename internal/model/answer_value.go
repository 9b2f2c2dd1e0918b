package model

import (
	"sort"
	"strings"
)

// AnswerValue is the tagged submitted value for a question. Exactly one of
// Single, Multiple or Text is meaningful, keyed by Kind, which must match
// the question's type at submission time.
type AnswerValue struct {
	Kind     QuestionType `json:"kind"`
	Single   string       `json:"single,omitempty"`
	Multiple []string     `json:"multiple,omitempty"`
	Text     string       `json:"text,omitempty"`
}

func SingleAnswer(option string) AnswerValue {
	return AnswerValue{Kind: QuestionTypeRadio, Single: option}
}

func MultipleAnswer(options ...string) AnswerValue {
	return AnswerValue{Kind: QuestionTypeCheckbox, Multiple: options}
}

func TextAnswer(text string) AnswerValue {
	return AnswerValue{Kind: QuestionTypeText, Text: text}
}

// NormalizeOption is the canonical form used for all answer comparisons.
func NormalizeOption(s string) string {
	return strings.TrimSpace(s)
}

// NormalizedSet returns the deduplicated, sorted, normalized form of a
// checkbox selection.
func NormalizedSet(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		n := NormalizeOption(v)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// SetsEqual compares two selections as sets after normalization.
func SetsEqual(a, b []string) bool {
	na, nb := NormalizedSet(a), NormalizedSet(b)
	if len(na) != len(nb) {
		return false
	}
	for i := range na {
		if na[i] != nb[i] {
			return false
		}
	}
	return true
}
