package entity

import "fmt"

// ScoreLine is one term of a score breakdown.
type ScoreLine struct {
	Label  string `json:"label"`
	Points int    `json:"points"`
	Detail string `json:"detail"`
}

func (l ScoreLine) String() string {
	return fmt.Sprintf("%s (%+d): %s", l.Label, l.Points, l.Detail)
}

// ScoreResult is the bounded score plus the justification of each term.
type ScoreResult struct {
	BaseScore     int         `json:"base_score"`
	BonusPoints   int         `json:"bonus_points"`
	PenaltyPoints int         `json:"penalty_points"`
	FinalScore    int         `json:"final_score"`
	Breakdown     []ScoreLine `json:"breakdown"`
}
