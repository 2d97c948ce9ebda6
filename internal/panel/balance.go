// Package panel picks interview panels whose members complement each other.
//
// A panel is scored on three terms, each on 0..1: strictness spread (an
// inverted U over the population variance of member strictness), focus
// coverage (the best tech and the best personality focus on the panel), and
// experience (mean confidence). The composite is their weighted sum scaled to
// 0..100.
package panel

import (
	"fmt"
	"sort"

	"github.com/abhishek622/hiringpipeline/internal/apperr"
	"github.com/abhishek622/hiringpipeline/pkg"
	"github.com/abhishek622/hiringpipeline/pkg/model"
)

// maxVariance is the largest population variance scores on 0..100 can have.
const maxVariance = 2500

const epsilon = 1e-9

type Settings struct {
	// BandLow and BandHigh bound the strictness variance that scores a full spread.
	BandLow  float64
	BandHigh float64

	WeightSpread     float64
	WeightCoverage   float64
	WeightExperience float64

	// NoviceConfidence is the confidence below which a member counts as a novice.
	NoviceConfidence float64

	// MaxCombinations caps exhaustive search; larger pools use local search.
	MaxCombinations int
}

var DefaultSettings = Settings{
	BandLow:          100,
	BandHigh:         400,
	WeightSpread:     0.35,
	WeightCoverage:   0.35,
	WeightExperience: 0.30,
	NoviceConfidence: 20,
	MaxCombinations:  5000,
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings
	if s.BandLow < 0 || s.BandHigh <= 0 || s.BandLow > s.BandHigh || s.BandHigh >= maxVariance {
		s.BandLow, s.BandHigh = d.BandLow, d.BandHigh
	}
	if s.WeightSpread < 0 || s.WeightCoverage < 0 || s.WeightExperience < 0 ||
		s.WeightSpread+s.WeightCoverage+s.WeightExperience <= 0 {
		s.WeightSpread, s.WeightCoverage, s.WeightExperience = d.WeightSpread, d.WeightCoverage, d.WeightExperience
	}
	if s.NoviceConfidence < 0 {
		s.NoviceConfidence = d.NoviceConfidence
	}
	if s.MaxCombinations < 1 {
		s.MaxCombinations = d.MaxCombinations
	}
	return s
}

// Evaluation is the scored form of one candidate panel.
type Evaluation struct {
	Members    []model.InterviewerProfile
	Score      float64
	Spread     float64
	Coverage   float64
	Experience float64
}

// IDs returns the member ids in ascending order.
func (e Evaluation) IDs() []int64 {
	ids := make([]int64, len(e.Members))
	for i, m := range e.Members {
		ids[i] = m.EvaluatorID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Score rates a panel.
func (s Settings) Score(members []model.InterviewerProfile) Evaluation {
	s = s.withDefaults()
	ev := Evaluation{Members: members}
	if len(members) == 0 {
		return ev
	}

	strictness := make([]float64, len(members))
	confidence := make([]float64, len(members))
	var maxTech, maxPersonality float64
	techSkew, personalitySkew := 0, 0
	novices := 0
	for i, m := range members {
		strictness[i] = m.Strictness
		confidence[i] = m.ConfidenceLevel
		if m.TechFocus > maxTech {
			maxTech = m.TechFocus
		}
		if m.PersonalityFocus > maxPersonality {
			maxPersonality = m.PersonalityFocus
		}
		switch {
		case m.TechFocus > m.PersonalityFocus:
			techSkew++
		case m.PersonalityFocus > m.TechFocus:
			personalitySkew++
		}
		if m.ConfidenceLevel < s.NoviceConfidence {
			novices++
		}
	}

	ev.Spread = s.spread(len(members), pkg.PopulationVariance(strictness))

	ev.Coverage = (maxTech + maxPersonality) / 200
	if len(members) > 1 && (techSkew == len(members) || personalitySkew == len(members)) {
		ev.Coverage /= 2
	}

	if novices < len(members) {
		ev.Experience = pkg.Mean(confidence) / 100
	}

	total := s.WeightSpread + s.WeightCoverage + s.WeightExperience
	ev.Score = 100 * (s.WeightSpread*ev.Spread + s.WeightCoverage*ev.Coverage + s.WeightExperience*ev.Experience) / total
	return ev
}

func (s Settings) spread(n int, variance float64) float64 {
	if n < 2 {
		return 0.5
	}
	switch {
	case variance < s.BandLow:
		return variance / s.BandLow
	case variance <= s.BandHigh:
		return 1
	}
	return pkg.Clamp(1-(variance-s.BandHigh)/(maxVariance-s.BandHigh), 0, 1)
}

// better reports whether a beats b: higher composite, then higher total
// experience, then lower id sum, then the lexicographically smaller id list.
func better(a, b Evaluation) bool {
	if d := a.Score - b.Score; d > epsilon || d < -epsilon {
		return d > 0
	}
	ea, eb := experienceSum(a.Members), experienceSum(b.Members)
	if d := ea - eb; d > epsilon || d < -epsilon {
		return d > 0
	}
	ia, ib := a.IDs(), b.IDs()
	sa, sb := idSum(ia), idSum(ib)
	if sa != sb {
		return sa < sb
	}
	for i := range ia {
		if ia[i] != ib[i] {
			return ia[i] < ib[i]
		}
	}
	return false
}

func experienceSum(ms []model.InterviewerProfile) float64 {
	var sum float64
	for _, m := range ms {
		sum += m.Experience
	}
	return sum
}

func idSum(ids []int64) int64 {
	var sum int64
	for _, id := range ids {
		sum += id
	}
	return sum
}

// Strategy searches a pool for the best panel of size k. Pools are sorted by id
// and hold at least k members.
type Strategy interface {
	Name() string
	Search(s Settings, pool []model.InterviewerProfile, k int) Evaluation
}

// Selection is the outcome of Balance.
type Selection struct {
	Evaluation
	Strategy string
}

type Balancer struct {
	settings Settings
}

func NewBalancer(s Settings) *Balancer {
	return &Balancer{settings: s.withDefaults()}
}

// Balance picks k members from profiles. Duplicate evaluators are collapsed and
// inactive ones dropped before selection.
func (b *Balancer) Balance(profiles []model.InterviewerProfile, k int) (Selection, error) {
	if k < 1 {
		return Selection{}, apperr.Validation("required count must be at least 1, got %d", k)
	}

	pool := usable(profiles)
	if len(pool) < k {
		return Selection{}, apperr.InsufficientCandidates(len(pool), k)
	}

	strategy := b.strategyFor(len(pool), k)
	best := strategy.Search(b.settings, pool, k)
	if len(best.Members) != k {
		return Selection{}, fmt.Errorf("%s search returned %d members, want %d", strategy.Name(), len(best.Members), k)
	}
	return Selection{Evaluation: best, Strategy: strategy.Name()}, nil
}

func (b *Balancer) strategyFor(n, k int) Strategy {
	if c, ok := combinations(n, k, b.settings.MaxCombinations); ok && c <= b.settings.MaxCombinations {
		return Exhaustive{}
	}
	return LocalSearch{}
}

func usable(profiles []model.InterviewerProfile) []model.InterviewerProfile {
	seen := make(map[int64]bool, len(profiles))
	pool := make([]model.InterviewerProfile, 0, len(profiles))
	for _, p := range profiles {
		if seen[p.EvaluatorID] {
			continue
		}
		seen[p.EvaluatorID] = true
		if !p.IsActive {
			continue
		}
		pool = append(pool, p)
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i].EvaluatorID < pool[j].EvaluatorID })
	return pool
}

// combinations returns C(n, k), or false once it exceeds limit.
func combinations(n, k, limit int) (int, bool) {
	if k > n-k {
		k = n - k
	}
	c := 1
	for i := 1; i <= k; i++ {
		c = c * (n - k + i) / i
		if c > limit {
			return c, false
		}
	}
	return c, true
}
