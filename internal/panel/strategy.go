package panel

import "github.com/abhishek622/hiringpipeline/pkg/model"

// Exhaustive scores every k-combination of the pool.
type Exhaustive struct{}

func (Exhaustive) Name() string { return "exhaustive" }

func (Exhaustive) Search(s Settings, pool []model.InterviewerProfile, k int) Evaluation {
	var best Evaluation
	found := false

	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	members := make([]model.InterviewerProfile, k)
	for {
		for i, j := range idx {
			members[i] = pool[j]
		}
		ev := s.Score(append([]model.InterviewerProfile(nil), members...))
		if !found || better(ev, best) {
			best, found = ev, true
		}

		// next combination in lexicographic order
		i := k - 1
		for i >= 0 && idx[i] == len(pool)-k+i {
			i--
		}
		if i < 0 {
			return best
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

// LocalSearch builds a panel greedily and then applies the best improving
// single swap until none is left. It is an approximation: the result is a
// local optimum under one-member swaps.
type LocalSearch struct {
	// MaxRounds bounds the swap phase; zero means 100.
	MaxRounds int
}

func (LocalSearch) Name() string { return "local_search" }

func (l LocalSearch) Search(s Settings, pool []model.InterviewerProfile, k int) Evaluation {
	rounds := l.MaxRounds
	if rounds <= 0 {
		rounds = 100
	}

	in := make([]bool, len(pool))
	var chosen []model.InterviewerProfile
	for len(chosen) < k {
		bestIdx := -1
		var best Evaluation
		for i, p := range pool {
			if in[i] {
				continue
			}
			ev := s.Score(append(append([]model.InterviewerProfile(nil), chosen...), p))
			if bestIdx < 0 || better(ev, best) {
				bestIdx, best = i, ev
			}
		}
		in[bestIdx] = true
		chosen = append(chosen, pool[bestIdx])
	}

	current := s.Score(chosen)
	for r := 0; r < rounds; r++ {
		improved := false
		next := current
		for pos := range current.Members {
			for j, p := range pool {
				if in[j] {
					continue
				}
				trial := append([]model.InterviewerProfile(nil), current.Members...)
				trial[pos] = p
				ev := s.Score(trial)
				if better(ev, next) {
					next = ev
					improved = true
				}
			}
		}
		if !improved {
			break
		}
		current = next
		for i := range in {
			in[i] = false
		}
		for _, m := range current.Members {
			for i, p := range pool {
				if p.EvaluatorID == m.EvaluatorID {
					in[i] = true
				}
			}
		}
	}
	return current
}
