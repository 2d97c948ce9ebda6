package pipeline

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhishek622/hiringpipeline/internal/apperr"
	"github.com/abhishek622/hiringpipeline/internal/profile"
	"github.com/abhishek622/hiringpipeline/pkg/model"
)

type stageKey struct {
	app   int64
	stage model.StageName
}

type memState struct {
	seq      int64
	apps     map[int64]model.Application
	stages   map[stageKey]model.ApplicationStage
	evals    []model.Evaluation
	profiles map[int64]model.InterviewerProfile
	history  []model.InterviewerProfileHistory
}

func (s *memState) clone() *memState {
	c := &memState{
		seq:      s.seq,
		apps:     make(map[int64]model.Application, len(s.apps)),
		stages:   make(map[stageKey]model.ApplicationStage, len(s.stages)),
		evals:    append([]model.Evaluation(nil), s.evals...),
		profiles: make(map[int64]model.InterviewerProfile, len(s.profiles)),
		history:  append([]model.InterviewerProfileHistory(nil), s.history...),
	}
	for k, v := range s.apps {
		c.apps[k] = v
	}
	for k, v := range s.stages {
		c.stages[k] = v
	}
	for k, v := range s.profiles {
		c.profiles[k] = v
	}
	return c
}

func (s *memState) next() int64 {
	s.seq++
	return s.seq
}

// memStore serialises transactions with one mutex and commits a copy of the
// state only when the transaction function succeeds.
type memStore struct {
	mu    sync.Mutex
	state *memState

	failSaveProfile error
}

func newMemStore() *memStore {
	return &memStore{state: &memState{
		apps:     map[int64]model.Application{},
		stages:   map[stageKey]model.ApplicationStage{},
		profiles: map[int64]model.InterviewerProfile{},
	}}
}

func (m *memStore) InTx(ctx context.Context, fn func(Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	work := m.state.clone()
	if err := fn(&memTx{st: work, store: m}); err != nil {
		return err
	}
	m.state = work
	return nil
}

func (m *memStore) InProfileTx(ctx context.Context, fn func(profile.Store) error) error {
	return m.InTx(ctx, func(tx Tx) error { return fn(tx) })
}

// seed stores an application directly, bypassing the service.
func (m *memStore) seed(app model.Application) model.Application {
	m.mu.Lock()
	defer m.mu.Unlock()
	app.ApplicationID = m.state.next()
	if app.CurrentStage == "" {
		app.CurrentStage = model.StageDocument
	}
	if app.OverallStatus == "" {
		app.OverallStatus = model.OverallInProgress
	}
	m.state.apps[app.ApplicationID] = app
	return app
}

func (m *memStore) snapshot() *memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

func (m *memStore) CreateApplication(_ context.Context, app *model.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	app.ApplicationID = m.state.next()
	app.AppliedAt = time.Now()
	app.UpdatedAt = app.AppliedAt
	m.state.apps[app.ApplicationID] = *app
	return nil
}

func (m *memStore) GetApplication(_ context.Context, id int64) (model.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.state.apps[id]
	if !ok {
		return model.Application{}, apperr.NotFound("application", id)
	}
	return app, nil
}

func (m *memStore) ListStages(_ context.Context, id int64) ([]model.ApplicationStage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{st: m.state}).listStages(id), nil
}

func (m *memStore) ListEvaluations(_ context.Context, id int64) ([]model.Evaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Evaluation
	for _, ev := range m.state.evals {
		if ev.ApplicationID == id {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (m *memStore) GetProfiles(_ context.Context, ids []int64) ([]model.InterviewerProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.InterviewerProfile
	for _, id := range ids {
		if p, ok := m.state.profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) ListProfileHistory(_ context.Context, id int64, limit int) ([]model.InterviewerProfileHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.state.profiles[id]
	if !ok {
		return nil, nil
	}
	var out []model.InterviewerProfileHistory
	for i := len(m.state.history) - 1; i >= 0 && len(out) < limit; i-- {
		if m.state.history[i].ProfileID == p.ProfileID {
			out = append(out, m.state.history[i])
		}
	}
	return out, nil
}

type memTx struct {
	st    *memState
	store *memStore
}

func (t *memTx) ApplicationForUpdate(_ context.Context, id int64) (model.Application, error) {
	app, ok := t.st.apps[id]
	if !ok {
		return model.Application{}, apperr.NotFound("application", id)
	}
	return app, nil
}

func (t *memTx) UpdateApplicationProgress(_ context.Context, app *model.Application) error {
	if _, ok := t.st.apps[app.ApplicationID]; !ok {
		return apperr.NotFound("application", app.ApplicationID)
	}
	app.UpdatedAt = time.Now()
	t.st.apps[app.ApplicationID] = *app
	return nil
}

func (t *memTx) GetStage(_ context.Context, id int64, stage model.StageName) (*model.ApplicationStage, error) {
	st, ok := t.st.stages[stageKey{id, stage}]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (t *memTx) ListStages(_ context.Context, id int64) ([]model.ApplicationStage, error) {
	return t.listStages(id), nil
}

func (t *memTx) listStages(id int64) []model.ApplicationStage {
	var out []model.ApplicationStage
	for k, v := range t.st.stages {
		if k.app == id {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StageOrder < out[j].StageOrder })
	return out
}

func (t *memTx) UpsertStage(_ context.Context, st *model.ApplicationStage) error {
	k := stageKey{st.ApplicationID, st.StageName}
	now := time.Now()
	if prev, ok := t.st.stages[k]; ok {
		st.StageID = prev.StageID
		st.CreatedAt = prev.CreatedAt
	} else {
		st.StageID = t.st.next()
		st.CreatedAt = now
	}
	st.UpdatedAt = now
	t.st.stages[k] = *st
	return nil
}

func (t *memTx) EvaluationBySubmission(_ context.Context, id uuid.UUID) (*model.Evaluation, error) {
	for _, ev := range t.st.evals {
		if ev.SubmissionID != nil && *ev.SubmissionID == id {
			ev := ev
			return &ev, nil
		}
	}
	return nil, nil
}

func (t *memTx) InsertEvaluation(_ context.Context, ev *model.Evaluation) error {
	for _, other := range t.st.evals {
		if ev.SubmissionID != nil && other.SubmissionID != nil && *other.SubmissionID == *ev.SubmissionID {
			return apperr.Conflict("duplicate submission")
		}
		if ev.EvaluatorID != nil && other.EvaluatorID != nil && *other.EvaluatorID == *ev.EvaluatorID &&
			other.ApplicationID == ev.ApplicationID && other.StageName == ev.StageName && other.SupersededAt == nil {
			return apperr.Conflict("evaluator already evaluated this stage")
		}
	}
	ev.EvaluationID = t.st.next()
	ev.CreatedAt = time.Now()
	for i := range ev.Items {
		ev.Items[i].ItemID = t.st.next()
		ev.Items[i].EvaluationID = ev.EvaluationID
	}
	t.st.evals = append(t.st.evals, *ev)
	return nil
}

func (t *memTx) ActiveStageEvaluations(_ context.Context, id int64, stage model.StageName) ([]model.Evaluation, error) {
	var out []model.Evaluation
	for _, ev := range t.st.evals {
		if ev.ApplicationID == id && ev.StageName == stage && ev.SupersededAt == nil {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (t *memTx) SupersedeStageEvaluations(_ context.Context, id int64, stage model.StageName, at time.Time) (int64, error) {
	var n int64
	for i, ev := range t.st.evals {
		if ev.ApplicationID == id && ev.StageName == stage && ev.SupersededAt == nil {
			t.st.evals[i].SupersededAt = &at
			n++
		}
	}
	return n, nil
}

func (t *memTx) EnsureProfileForUpdate(_ context.Context, id int64, neutral model.ProfileScores) (model.InterviewerProfile, error) {
	if p, ok := t.st.profiles[id]; ok {
		return p, nil
	}
	p := model.InterviewerProfile{ProfileID: t.st.next(), EvaluatorID: id, ProfileScores: neutral, IsActive: true}
	t.st.profiles[id] = p
	return p, nil
}

func (t *memTx) ProfileForUpdate(_ context.Context, id int64) (model.InterviewerProfile, error) {
	p, ok := t.st.profiles[id]
	if !ok {
		return model.InterviewerProfile{}, apperr.NotFound("interviewer profile", id)
	}
	return p, nil
}

func (t *memTx) SaveProfile(_ context.Context, p *model.InterviewerProfile) error {
	if t.store != nil && t.store.failSaveProfile != nil {
		return t.store.failSaveProfile
	}
	t.st.profiles[p.EvaluatorID] = *p
	return nil
}

func (t *memTx) InsertProfileHistory(_ context.Context, h *model.InterviewerProfileHistory) error {
	h.HistoryID = t.st.next()
	t.st.history = append(t.st.history, *h)
	return nil
}

func (t *memTx) PoolStats(_ context.Context, exclude int64) (profile.PoolStats, error) {
	var ps profile.PoolStats
	var sum float64
	for _, ev := range t.st.evals {
		if ev.EvaluatorID == nil || *ev.EvaluatorID == exclude || ev.SupersededAt != nil {
			continue
		}
		sum += ev.NormalizedScore
		ps.Evaluations++
	}
	if ps.Evaluations > 0 {
		ps.AvgScore = sum / float64(ps.Evaluations)
	}
	for id, p := range t.st.profiles {
		if id != exclude && p.TotalInterviews > ps.MaxInterviews {
			ps.MaxInterviews = p.TotalInterviews
		}
	}
	return ps, nil
}

var errBoom = errors.New("boom")
