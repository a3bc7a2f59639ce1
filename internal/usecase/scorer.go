package usecase

import (
	"fmt"
	"math"

	"github.com/eslsoft/taboo/internal/entity"
)

const (
	maxScore             = 100
	naturalnessWeight    = 20
	creativityWeight     = 10
	grammarBonus         = 10
	grammarPenalty       = 15
	answerMentionPenalty = 50
)

// Score maps an evaluation onto a bounded 0..100 score. It is pure and total;
// callers validate the evaluation first with entity.EvaluationResult.Validate.
func Score(eval entity.EvaluationResult) entity.ScoreResult {
	found, missed := len(eval.WordsFound), len(eval.WordsMissed)
	var res entity.ScoreResult

	base := 0
	if total := found + missed; total > 0 {
		base = roundInt(float64(maxScore*found) / float64(total))
	}
	res.BaseScore = base
	res.Breakdown = append(res.Breakdown, entity.ScoreLine{
		Label:  "key words",
		Points: base,
		Detail: fmt.Sprintf("%d of %d key words used", found, found+missed),
	})

	naturalness, creativity := entity.NeutralQualitativeScore, entity.NeutralQualitativeScore
	grammar := entity.GrammarUnknown
	assessed := eval.Qualitative != nil
	if assessed {
		naturalness = clampInt(eval.Qualitative.Naturalness, 0, 10)
		creativity = clampInt(eval.Qualitative.Creativity, 0, 10)
		grammar = eval.Qualitative.Grammar
	}

	natPts := roundInt(float64(naturalnessWeight*naturalness) / 10)
	crePts := roundInt(float64(creativityWeight*creativity) / 10)
	res.Breakdown = append(res.Breakdown,
		entity.ScoreLine{Label: "naturalness", Points: natPts, Detail: qualitativeDetail(naturalness, assessed)},
		entity.ScoreLine{Label: "creativity", Points: crePts, Detail: qualitativeDetail(creativity, assessed)},
	)
	res.BonusPoints = natPts + crePts

	switch grammar {
	case entity.GrammarCorrect:
		res.BonusPoints += grammarBonus
		res.Breakdown = append(res.Breakdown, entity.ScoreLine{Label: "grammar", Points: grammarBonus, Detail: "grammar correct"})
	case entity.GrammarMajorErrors:
		res.PenaltyPoints += grammarPenalty
		res.Breakdown = append(res.Breakdown, entity.ScoreLine{Label: "grammar", Points: -grammarPenalty, Detail: "major grammar errors"})
	case entity.GrammarMinorErrors:
		res.Breakdown = append(res.Breakdown, entity.ScoreLine{Label: "grammar", Detail: "minor grammar errors"})
	default:
		res.Breakdown = append(res.Breakdown, entity.ScoreLine{Label: "grammar", Detail: "grammar not assessed"})
	}

	if eval.AnswerWordMentioned {
		res.PenaltyPoints += answerMentionPenalty
		res.Breakdown = append(res.Breakdown, entity.ScoreLine{Label: "answer word", Points: -answerMentionPenalty, Detail: "answer word was mentioned"})
	}

	raw := res.BaseScore + res.BonusPoints - res.PenaltyPoints
	res.FinalScore = clampInt(raw, 0, maxScore)
	if res.FinalScore != raw {
		res.Breakdown = append(res.Breakdown, entity.ScoreLine{
			Label:  "clamp",
			Points: res.FinalScore - raw,
			Detail: fmt.Sprintf("raw total %d clamped to %d..%d", raw, 0, maxScore),
		})
	}
	return res
}

// EmptyScore is the result for a session completed without any submission.
func EmptyScore() entity.ScoreResult {
	return entity.ScoreResult{
		Breakdown: []entity.ScoreLine{{Label: "submissions", Detail: "no description was submitted"}},
	}
}

func qualitativeDetail(v int, assessed bool) string {
	if !assessed {
		return fmt.Sprintf("not assessed, neutral %d/10", v)
	}
	return fmt.Sprintf("%d/10", v)
}

func roundInt(v float64) int { return int(math.Round(v)) }

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
