package grading

import "math"

// rule classifies an in-range value.
type rule func(v float64) Grade

// higherBetter: LOW below low, HIGH above high.
func higherBetter(low, high float64) rule {
	return func(v float64) Grade {
		switch {
		case v < low:
			return Low
		case v > high:
			return High
		}
		return Medium
	}
}

// lowerBetter: LOW above high, HIGH below low.
func lowerBetter(low, high float64) rule {
	return func(v float64) Grade {
		switch {
		case v > high:
			return Low
		case v < low:
			return High
		}
		return Medium
	}
}

// band: HIGH inside [idealMin, idealMax], LOW outside [okMin, okMax], MEDIUM between.
func band(okMin, idealMin, idealMax, okMax float64) rule {
	return func(v float64) Grade {
		switch {
		case v >= idealMin && v <= idealMax:
			return High
		case v < okMin || v > okMax:
			return Low
		}
		return Medium
	}
}

// Metric describes one gradable behavioural signal.
type Metric struct {
	Name string
	Unit string
	// Min and Max bound physically meaningful values.
	Min, Max float64
	rule     rule
	reasons  [3]string // indexed by Grade
}

var inf = math.Inf(1)

// registry is kept in declaration order; summaries follow it.
var registry = []Metric{
	{
		Name: "speech_rate", Unit: "words/min", Min: 0, Max: 400,
		rule:    band(90, 120, 160, 190),
		reasons: [3]string{"speech rate is natural", "speech rate is slightly off the natural pace", "speech rate is too slow or too fast"},
	},
	{
		Name: "smile_frequency", Unit: "count", Min: 0, Max: inf,
		rule:    higherBetter(1, 1.5),
		reasons: [3]string{"smiles often", "smiles occasionally", "hardly smiles"},
	},
	{
		Name: "eye_contact_ratio", Unit: "ratio", Min: 0, Max: 1,
		rule:    higherBetter(0.5, 0.8),
		reasons: [3]string{"keeps steady eye contact", "mostly keeps eye contact", "eye contact often drifts"},
	},
	{
		Name: "redundancy_score", Unit: "ratio", Min: 0, Max: 1,
		rule:    lowerBetter(0.1, 0.3),
		reasons: [3]string{"almost no repeated words", "some repeated words", "many repeated words"},
	},
	{
		Name: "total_silence_time", Unit: "seconds", Min: 0, Max: inf,
		rule:    lowerBetter(1.5, 2.5),
		reasons: [3]string{"almost no silence", "some silence", "long silences"},
	},
	{
		Name: "pronunciation_score", Unit: "ratio", Min: 0, Max: 1,
		rule:    higherBetter(0.7, 0.9),
		reasons: [3]string{"pronunciation is very clear", "pronunciation is mostly clear", "pronunciation is unclear"},
	},
	{
		Name: "volume_level", Unit: "ratio", Min: 0, Max: inf,
		rule:    band(0.5, 0.7, 1.0, 1.0),
		reasons: [3]string{"voice volume is appropriate", "voice is slightly quiet", "voice is too quiet or too loud"},
	},
	{
		Name: "emotion_variation", Unit: "ratio", Min: 0, Max: 1,
		rule:    higherBetter(0.4, 0.7),
		reasons: [3]string{"expressive delivery", "moderately expressive", "flat delivery"},
	},
	{
		Name: "hand_gesture", Unit: "ratio", Min: 0, Max: 1,
		rule:    band(math.Inf(-1), 0.3, 0.7, 0.7),
		reasons: [3]string{"hand gestures are well balanced", "few hand gestures", "excessive hand gestures"},
	},
	{
		Name: "nod_count", Unit: "count", Min: 0, Max: inf,
		rule:    band(math.Inf(-1), 2, 5, 5),
		reasons: [3]string{"nods appropriately", "rarely nods", "nods excessively"},
	},
	{
		Name: "posture_changes", Unit: "count", Min: 0, Max: inf,
		rule:    lowerBetter(3, 5),
		reasons: [3]string{"posture is stable", "posture shifts a little", "posture is unstable"},
	},
	{
		Name: "question_understanding_score", Unit: "ratio", Min: 0, Max: 1,
		rule:    higherBetter(0.6, 0.8),
		reasons: [3]string{"understands questions well", "understands questions adequately", "often misunderstands questions"},
	},
	{
		Name: "conversation_flow_score", Unit: "ratio", Min: 0, Max: 1,
		rule:    higherBetter(0.6, 0.8),
		reasons: [3]string{"conversation flows naturally", "conversation flow is average", "conversation flow is awkward"},
	},
	{
		Name: "eye_aversion_count", Unit: "count", Min: 0, Max: inf,
		rule:    lowerBetter(2, 3),
		reasons: [3]string{"rarely looks away", "looks away occasionally", "often looks away"},
	},
	{
		Name: "positive_word_ratio", Unit: "ratio", Min: 0, Max: 1,
		rule:    higherBetter(0.4, 0.6),
		reasons: [3]string{"uses positive language", "neutral language", "little positive language"},
	},
	{
		Name: "technical_term_count", Unit: "count", Min: 0, Max: inf,
		rule:    band(math.Inf(-1), 3, 8, 8),
		reasons: [3]string{"uses technical terms appropriately", "uses few technical terms", "overuses technical terms"},
	},
	{
		Name: "grammar_error_count", Unit: "count", Min: 0, Max: inf,
		rule:    lowerBetter(0.5, 2),
		reasons: [3]string{"no grammar errors", "a few grammar errors", "many grammar errors"},
	},
	{
		Name: "conciseness_score", Unit: "ratio", Min: 0, Max: 1,
		rule:    higherBetter(0.6, 0.8),
		reasons: [3]string{"answers are concise", "answers are reasonably concise", "answers are verbose or unclear"},
	},
	{
		Name: "creativity_score", Unit: "ratio", Min: 0, Max: 1,
		rule:    higherBetter(0.4, 0.7),
		reasons: [3]string{"shows creative thinking", "average creativity", "little creative thinking"},
	},
	{
		Name: "stress_signal_score", Unit: "ratio", Min: 0, Max: 1,
		rule:    lowerBetter(0.3, 0.6),
		reasons: [3]string{"few stress signals", "some stress signals", "many stress signals"},
	},
}

var registryIndex = func() map[string]int {
	idx := make(map[string]int, len(registry))
	for i, m := range registry {
		idx[m.Name] = i
	}
	return idx
}()

// Metrics returns the known metrics in declaration order.
func Metrics() []Metric {
	out := make([]Metric, len(registry))
	copy(out, registry)
	return out
}

// Lookup finds a metric by name.
func Lookup(name string) (Metric, bool) {
	i, ok := registryIndex[name]
	if !ok {
		return Metric{}, false
	}
	return registry[i], true
}
