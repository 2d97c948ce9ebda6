package model

type RecommendPanelReq struct {
	CandidateEvaluatorIDs []int64 `json:"candidate_evaluator_ids" binding:"required,min=1,max=200"`
	RequiredCount         int     `json:"required_count" binding:"required,min=1"`
}

type PanelRecommendation struct {
	SelectedIDs  []int64 `json:"selected_ids"`
	BalanceScore float64 `json:"balance_score"`
	Strategy     string  `json:"strategy"`
	Spread       float64 `json:"spread"`
	Coverage     float64 `json:"coverage"`
	Experience   float64 `json:"experience"`
}

// PanelAnalysis compares the evaluators who scored one stage of one application.
type PanelAnalysis struct {
	ApplicationID  int64         `json:"application_id"`
	Stage          StageName     `json:"stage"`
	EvaluatorCount int           `json:"evaluator_count"`
	MeanScore      float64       `json:"mean_score"`
	ScoreVariance  float64       `json:"score_variance"`
	ScoreRange     float64       `json:"score_range"`
	Members        []PanelMember `json:"members"`
}

type PanelMember struct {
	EvaluatorID int64   `json:"evaluator_id"`
	Score       float64 `json:"score"`
	// RelativeStrictness is positive when the evaluator scored below the panel mean.
	RelativeStrictness float64 `json:"relative_strictness"`
	// RelativeConsistency is 1 when the score matches the mean of the other evaluators.
	RelativeConsistency float64 `json:"relative_consistency"`
	// Objectivity measures how well the score matches what the evaluator's
	// profiled strictness predicts, in [0, 1].
	Objectivity float64 `json:"objectivity"`
}
