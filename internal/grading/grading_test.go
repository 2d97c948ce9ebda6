package grading

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishek622/hiringpipeline/internal/apperr"
	"github.com/abhishek622/hiringpipeline/pkg/model"
)

func TestGrade(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultPolicy)
	tests := []struct {
		metric string
		value  float64
		want   Grade
	}{
		{"speech_rate", 60, Low},
		{"speech_rate", 100, Medium},
		{"speech_rate", 140, High},
		{"speech_rate", 175, Medium},
		{"speech_rate", 220, Low},
		{"smile_frequency", 0, Low},
		{"smile_frequency", 1, Medium},
		{"smile_frequency", 3, High},
		{"eye_contact_ratio", 0.4, Low},
		{"eye_contact_ratio", 0.5, Medium},
		{"eye_contact_ratio", 0.8, Medium},
		{"eye_contact_ratio", 0.85, High},
		{"redundancy_score", 0.35, Low},
		{"redundancy_score", 0.2, Medium},
		{"redundancy_score", 0.05, High},
		{"total_silence_time", 3, Low},
		{"total_silence_time", 2, Medium},
		{"total_silence_time", 1, High},
		{"nod_count", 1, Medium},
		{"nod_count", 3, High},
		{"nod_count", 7, Low},
		{"grammar_error_count", 0, High},
		{"grammar_error_count", 2, Medium},
		{"grammar_error_count", 4, Low},
		{"volume_level", 0.8, High},
		{"volume_level", 0.6, Medium},
		{"volume_level", 1.3, Low},
	}

	for _, tt := range tests {
		got, err := e.Grade(tt.metric, tt.value)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.Grade, "%s=%v", tt.metric, tt.value)
		assert.NotEmpty(t, got.Rationale)
		assert.False(t, got.Degraded)
	}
}

func TestGradeDegradesOnUnjudgeableValues(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultPolicy)

	got, err := e.Grade("blink_rate", 12)
	require.NoError(t, err)
	assert.Equal(t, Medium, got.Grade)
	assert.True(t, got.Degraded)
	assert.Contains(t, got.Rationale, "unrecognised metric")

	got, err = e.Grade("eye_contact_ratio", 1.7)
	require.NoError(t, err)
	assert.Equal(t, Medium, got.Grade)
	assert.True(t, got.Degraded)
	assert.Contains(t, got.Rationale, "outside the expected range")
}

func TestGradeRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultPolicy)

	_, err := e.Grade("  ", 1)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = e.Grade("speech_rate", math.NaN())
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = e.Grade("speech_rate", math.Inf(1))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func grades(gs ...Grade) []Graded {
	names := []string{"speech_rate", "smile_frequency", "eye_contact_ratio", "redundancy_score", "total_silence_time"}
	out := make([]Graded, len(gs))
	for i, g := range gs {
		out[i] = Graded{Metric: names[i%len(names)], Grade: g, Rationale: names[i%len(names)] + " " + string(g)}
	}
	return out
}

func TestAggregate(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultPolicy)

	res := e.Aggregate(grades(High, High, High, High, High))
	assert.Equal(t, 10, res.Score)
	assert.Equal(t, model.VerdictPass, res.Verdict)
	assert.Equal(t, 100.0, res.Normalized())

	res = e.Aggregate(grades(Low, Low, High, High, High))
	assert.Equal(t, 6, res.Score)
	assert.Equal(t, model.VerdictFail, res.Verdict)

	res = e.Aggregate(grades(Low, Medium, High, Medium, High))
	assert.Equal(t, 6, res.Score)
	assert.Equal(t, model.VerdictPass, res.Verdict)
	assert.Equal(t, 1, res.Low)
	assert.Equal(t, 2, res.Medium)
	assert.Equal(t, 2, res.High)
}

func TestAggregateSummaryFollowsDeclarationOrder(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultPolicy)
	in := []Graded{
		{Metric: "total_silence_time", Grade: High, Rationale: "almost no silence"},
		{Metric: "mystery", Grade: High, Rationale: "mystery"},
		{Metric: "speech_rate", Grade: High, Rationale: "speech rate is natural"},
		{Metric: "eye_contact_ratio", Grade: Low, Rationale: "eye contact often drifts"},
	}

	res := e.Aggregate(in)
	require.Len(t, res.Summary, 3)
	assert.Equal(t, "Strengths: speech rate is natural, almost no silence, mystery", res.Summary[0])
	assert.Equal(t, "Concerns: eye contact often drifts", res.Summary[1])
	assert.Equal(t, "Verdict: PASS", res.Summary[2])

	assert.Equal(t, res.Summary, e.Aggregate(in).Summary)
}

func TestAggregateHighRatioPolicy(t *testing.T) {
	t.Parallel()

	e := NewEngine(Policy{MaxLow: 3, MinHighRatio: 0.5})

	assert.Equal(t, model.VerdictFail, e.Aggregate(grades(High, Medium, Medium, Low)).Verdict)
	assert.Equal(t, model.VerdictPass, e.Aggregate(grades(High, High, Medium, Low)).Verdict)
}
