package profile

import (
	"fmt"
	"math"
	"strings"

	"github.com/abhishek622/hiringpipeline/pkg"
	"github.com/abhishek622/hiringpipeline/pkg/model"
)

// Settings tune the running profile.
type Settings struct {
	// Neutral is the value of every component before any evidence.
	Neutral float64
	// ConfidenceSaturation is the interview count at which confidence reaches ~63%.
	ConfidenceSaturation float64
	// Decay, when above 1/n, turns the incremental mean into an EMA with this weight
	// on the latest evaluation. Zero keeps the equal-weight mean.
	Decay float64
}

var DefaultSettings = Settings{
	Neutral:              50,
	ConfidenceSaturation: 10,
}

func (s Settings) withDefaults() Settings {
	if s.Neutral <= 0 || s.Neutral >= 100 {
		s.Neutral = DefaultSettings.Neutral
	}
	if s.ConfidenceSaturation <= 0 {
		s.ConfidenceSaturation = DefaultSettings.ConfidenceSaturation
	}
	if s.Decay < 0 || s.Decay >= 1 {
		s.Decay = 0
	}
	return s
}

// NeutralScores returns the fingerprint of an evaluator with no history.
func (s Settings) NeutralScores() model.ProfileScores {
	s = s.withDefaults()
	return model.ProfileScores{
		Strictness:       s.Neutral,
		Consistency:      s.Neutral,
		TechFocus:        s.Neutral,
		PersonalityFocus: s.Neutral,
		Experience:       s.Neutral,
	}
}

// Observation is what the tracker learns from one human evaluation.
type Observation struct {
	EvaluatorID  int64
	EvaluationID int64
	// Given is the evaluation's total on 0-100.
	Given float64
	Items []model.EvaluationItem
}

// PoolStats describe the other evaluators at the time of an evaluation.
type PoolStats struct {
	AvgScore      float64
	Evaluations   int
	MaxInterviews int
}

// Signals are the per-evaluation readings folded into the profile, each on 0-100.
type Signals struct {
	Strictness       float64
	Consistency      float64
	TechFocus        float64
	PersonalityFocus float64
}

// ComputeSignals reads one evaluation against the evaluator's prior profile and the pool.
func (s Settings) ComputeSignals(obs Observation, prev model.ProfileScores, pool PoolStats) Signals {
	s = s.withDefaults()
	sig := Signals{
		Strictness:       s.Neutral,
		Consistency:      s.Neutral,
		TechFocus:        s.Neutral,
		PersonalityFocus: s.Neutral,
	}

	// lower than the pool means stricter
	if pool.Evaluations > 0 && pool.AvgScore > 0 {
		sig.Strictness = pkg.Clamp(50+50*(pool.AvgScore-obs.Given)/pool.AvgScore, 0, 100)
	}

	if prev.TotalInterviews > 0 {
		sig.Consistency = pkg.Clamp(100-2*math.Abs(obs.Given-prev.AvgScoreGiven), 0, 100)
	}

	var total, tech, personality float64
	for _, it := range obs.Items {
		w := 1.0
		if it.Weight != nil {
			w = *it.Weight
		}
		total += w
		if it.Category == nil {
			continue
		}
		switch strings.ToLower(*it.Category) {
		case model.CategoryTechnical:
			tech += w
		case model.CategoryPersonality:
			personality += w
		}
	}
	if total > 0 && tech+personality > 0 {
		sig.TechFocus = tech / total * 100
		sig.PersonalityFocus = personality / total * 100
	}

	return sig
}

// Apply folds the signals of one more evaluation into prev.
// The first evaluation seeds the components; later ones update them as an
// incremental mean (or an EMA that never weighs the latest less than 1/n).
func (s Settings) Apply(prev model.ProfileScores, sig Signals, given float64, poolMaxInterviews int) model.ProfileScores {
	s = s.withDefaults()
	n := prev.TotalInterviews + 1
	next := prev
	next.TotalInterviews = n

	if prev.TotalInterviews == 0 {
		next.Strictness = sig.Strictness
		next.Consistency = sig.Consistency
		next.TechFocus = sig.TechFocus
		next.PersonalityFocus = sig.PersonalityFocus
		next.AvgScoreGiven = given
	} else {
		alpha := 1 / float64(n)
		if s.Decay > alpha {
			alpha = s.Decay
		}
		blend := func(old, cur float64) float64 { return old*(1-alpha) + cur*alpha }
		next.Strictness = blend(prev.Strictness, sig.Strictness)
		next.Consistency = blend(prev.Consistency, sig.Consistency)
		next.TechFocus = blend(prev.TechFocus, sig.TechFocus)
		next.PersonalityFocus = blend(prev.PersonalityFocus, sig.PersonalityFocus)
		next.AvgScoreGiven = prev.AvgScoreGiven*float64(n-1)/float64(n) + given/float64(n)
	}

	peak := poolMaxInterviews
	if n > peak {
		peak = n
	}
	next.Experience = math.Min(100, float64(n)/float64(peak)*100)
	next.ConfidenceLevel = Confidence(n, s.ConfidenceSaturation)

	return next
}

// Confidence grows with the interview count and approaches 100.
func Confidence(n int, saturation float64) float64 {
	if n <= 0 {
		return 0
	}
	return 100 * (1 - math.Exp(-float64(n)/saturation))
}

// Labels summarise a fingerprint in words.
func Labels(p model.ProfileScores) []string {
	var out []string
	switch {
	case p.Strictness > 70:
		out = append(out, "strict evaluator")
	case p.Strictness < 30:
		out = append(out, "lenient evaluator")
	}
	if p.Consistency > 70 {
		out = append(out, "consistent")
	}
	switch {
	case p.TechFocus > 60:
		out = append(out, "tech-focused")
	case p.PersonalityFocus > 60:
		out = append(out, "personality-focused")
	}
	if p.Experience > 80 {
		out = append(out, "experienced")
	}
	if len(out) == 0 {
		out = []string{"balanced evaluator"}
	}
	return out
}

func changeReason(evaluationID int64, oldV, newV model.ProfileScores) string {
	return fmt.Sprintf(
		"evaluation %d added: strictness %.2f->%.2f, consistency %.2f->%.2f, tech %.2f->%.2f, personality %.2f->%.2f, experience %.2f->%.2f, interviews %d->%d",
		evaluationID,
		oldV.Strictness, newV.Strictness,
		oldV.Consistency, newV.Consistency,
		oldV.TechFocus, newV.TechFocus,
		oldV.PersonalityFocus, newV.PersonalityFocus,
		oldV.Experience, newV.Experience,
		oldV.TotalInterviews, newV.TotalInterviews,
	)
}
