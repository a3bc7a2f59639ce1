package connectrpc

import (
	"github.com/samber/lo"

	"github.com/eslsoft/taboo/internal/entity"
	"github.com/eslsoft/taboo/internal/repository"
)

func toSession(s *entity.GameSession) *Session {
	if s == nil {
		return nil
	}
	return &Session{
		ID:                  s.ID,
		CardID:              s.CardID,
		UserID:              s.UserID,
		TargetLanguage:      s.TargetLanguage.Code(),
		Status:              string(s.Status),
		AbandonReason:       string(s.AbandonReason),
		AnswerWord:          s.AnswerWord,
		KeyWords:            append([]string{}, s.TranslatedKeyWords...),
		WordsFound:          append([]string{}, s.WordsFound...),
		WordsMissed:         append([]string{}, s.WordsMissed...),
		TranslationDegraded: s.TranslationDegraded,
		Submissions:         append([]entity.Submission{}, s.SubmissionHistory...),
		Score:               s.Score,
		ScoreDetail:         s.ScoreDetail,
		ExampleDescription:  s.ExampleDescription,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
		CompletedAt:         s.CompletedAt,
	}
}

func toSessions(items []entity.GameSession) []*Session {
	return lo.Map(items, func(s entity.GameSession, _ int) *Session { return toSession(&s) })
}

func toPagination(p Pagination) repository.Pagination {
	out := repository.Pagination{PageNo: p.PageNo, PageSize: p.PageSize}
	out.Normalize()
	return out
}

func toPaginationResponse(p repository.Pagination, total int64) PaginationResponse {
	return PaginationResponse{PageNo: p.PageNo, PageSize: p.PageSize, Total: total}
}

// completionSource reports the evaluation path behind a completed score:
// ai when the qualitative terms came from the model, fallback otherwise.
func completionSource(s *entity.GameSession) entity.EvaluationSource {
	if s.LatestQualitative() != nil {
		return entity.EvaluationSourceAI
	}
	return entity.EvaluationSourceFallback
}
