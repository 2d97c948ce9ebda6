// Package grading maps raw behavioural metrics to HIGH/MEDIUM/LOW grades and
// aggregates a set of grades into a numeric score and a verdict.
//
// The engine is synchronous and total: it never calls out, and a value it
// cannot judge degrades to MEDIUM with an annotated rationale. Only
// structurally invalid input (empty metric name, NaN, infinity) is an error.
package grading

import (
	"fmt"
	"sort"
	"strings"

	"github.com/abhishek622/hiringpipeline/internal/apperr"
	"github.com/abhishek622/hiringpipeline/pkg"
	"github.com/abhishek622/hiringpipeline/pkg/model"
)

type Grade string

const (
	High   Grade = "HIGH"
	Medium Grade = "MEDIUM"
	Low    Grade = "LOW"
)

func (g Grade) index() int {
	switch g {
	case High:
		return 0
	case Medium:
		return 1
	}
	return 2
}

// Points is the grade's contribution to the numeric score.
func (g Grade) Points() int {
	switch g {
	case High:
		return 2
	case Medium:
		return 1
	}
	return 0
}

// Graded is one metric after classification.
type Graded struct {
	Metric    string
	Value     float64
	Grade     Grade
	Rationale string
	// Degraded is set when the value could not be judged and MEDIUM was assumed.
	Degraded bool
}

// Policy decides the verdict. PASS iff LOW count < MaxLow and, when
// MinHighRatio > 0, HIGH/total >= MinHighRatio.
type Policy struct {
	MaxLow       int
	MinHighRatio float64
}

// DefaultPolicy fails a candidate on two LOW grades.
var DefaultPolicy = Policy{MaxLow: 2}

type Engine struct {
	policy Policy
}

func NewEngine(p Policy) *Engine {
	if p.MaxLow < 1 {
		p.MaxLow = DefaultPolicy.MaxLow
	}
	return &Engine{policy: p}
}

// Grade classifies one metric value.
func (e *Engine) Grade(metric string, value float64) (Graded, error) {
	metric = strings.TrimSpace(metric)
	if metric == "" {
		return Graded{}, apperr.Validation("metric name is required")
	}
	if !pkg.Finite(value) {
		return Graded{}, apperr.Validation("metric %s has a non-finite value", metric)
	}

	m, ok := Lookup(metric)
	if !ok {
		return Graded{
			Metric:    metric,
			Value:     value,
			Grade:     Medium,
			Rationale: fmt.Sprintf("unrecognised metric %s, assumed average", metric),
			Degraded:  true,
		}, nil
	}
	if value < m.Min || value > m.Max {
		return Graded{
			Metric:    metric,
			Value:     value,
			Grade:     Medium,
			Rationale: fmt.Sprintf("%s value %g is outside the expected range, assumed average", metric, value),
			Degraded:  true,
		}, nil
	}

	g := m.rule(value)
	return Graded{
		Metric:    metric,
		Value:     value,
		Grade:     g,
		Rationale: m.reasons[g.index()],
	}, nil
}

// Result is the outcome of aggregating a grade set.
type Result struct {
	Score   int
	Max     int
	High    int
	Medium  int
	Low     int
	Verdict model.Verdict
	Summary []string
}

// Normalized returns the score on 0-100.
func (r Result) Normalized() float64 {
	if r.Max == 0 {
		return 0
	}
	return pkg.Round2(float64(r.Score) / float64(r.Max) * 100)
}

// MaxScore is the best score n grades can reach.
func MaxScore(n int) int {
	return 2 * n
}

// Aggregate scores a grade set. The summary is deterministic for a given set:
// each tier lists rationales in metric declaration order, unknown metrics last.
func (e *Engine) Aggregate(grades []Graded) Result {
	res := Result{Max: MaxScore(len(grades))}
	for _, g := range grades {
		switch g.Grade {
		case High:
			res.High++
		case Medium:
			res.Medium++
		default:
			res.Low++
		}
		res.Score += g.Grade.Points()
	}

	res.Verdict = model.VerdictFail
	if e.passes(res) {
		res.Verdict = model.VerdictPass
	}

	ordered := make([]Graded, len(grades))
	copy(ordered, grades)
	sort.SliceStable(ordered, func(i, j int) bool {
		return declOrder(ordered[i].Metric) < declOrder(ordered[j].Metric)
	})

	tiers := []struct {
		grade Grade
		label string
	}{
		{High, "Strengths"},
		{Medium, "Caveats"},
		{Low, "Concerns"},
	}
	for _, tier := range tiers {
		var lines []string
		for _, g := range ordered {
			if g.Grade == tier.grade {
				lines = append(lines, g.Rationale)
			}
		}
		if len(lines) > 0 {
			res.Summary = append(res.Summary, tier.label+": "+strings.Join(lines, ", "))
		}
	}
	res.Summary = append(res.Summary, "Verdict: "+string(res.Verdict))

	return res
}

func (e *Engine) passes(r Result) bool {
	if r.Low >= e.policy.MaxLow {
		return false
	}
	if e.policy.MinHighRatio > 0 {
		total := r.High + r.Medium + r.Low
		if total == 0 || float64(r.High)/float64(total) < e.policy.MinHighRatio {
			return false
		}
	}
	return true
}

func declOrder(metric string) int {
	if i, ok := registryIndex[metric]; ok {
		return i
	}
	return len(registry)
}
