package connectrpc

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/eslsoft/taboo/internal/entity"
	"github.com/eslsoft/taboo/internal/repository"
	"github.com/eslsoft/taboo/internal/usecase"
)

const TabooServiceName = "taboo.v1.TabooService"

const (
	StartSessionProcedure      = "/" + TabooServiceName + "/StartSession"
	SubmitDescriptionProcedure = "/" + TabooServiceName + "/SubmitDescription"
	CompleteSessionProcedure   = "/" + TabooServiceName + "/CompleteSession"
	AbandonSessionProcedure    = "/" + TabooServiceName + "/AbandonSession"
	GetSessionProcedure        = "/" + TabooServiceName + "/GetSession"
	ListSessionsProcedure      = "/" + TabooServiceName + "/ListSessions"
	GetUserStatsProcedure      = "/" + TabooServiceName + "/GetUserStats"
	GetCardProcedure           = "/" + TabooServiceName + "/GetCard"
	ListCardsProcedure         = "/" + TabooServiceName + "/ListCards"
	SetCardActiveProcedure     = "/" + TabooServiceName + "/SetCardActive"
)

// ServiceOptions holds transport level defaults.
type ServiceOptions struct {
	IncludeExampleDefault bool
}

// TabooServiceServer exposes the session manager and the card catalogue over connect.
type TabooServiceServer struct {
	sessions usecase.SessionUsecase
	cards    usecase.CardUsecase
	opts     ServiceOptions
}

func NewTabooServiceServer(sessions usecase.SessionUsecase, cards usecase.CardUsecase, opts ServiceOptions) *TabooServiceServer {
	return &TabooServiceServer{sessions: sessions, cards: cards, opts: opts}
}

// Handler returns the mount path and handler for every procedure of the service.
func (s *TabooServiceServer) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{Codec()}, opts...)
	mux := http.NewServeMux()
	mux.Handle(StartSessionProcedure, connect.NewUnaryHandler(StartSessionProcedure, s.StartSession, opts...))
	mux.Handle(SubmitDescriptionProcedure, connect.NewUnaryHandler(SubmitDescriptionProcedure, s.SubmitDescription, opts...))
	mux.Handle(CompleteSessionProcedure, connect.NewUnaryHandler(CompleteSessionProcedure, s.CompleteSession, opts...))
	mux.Handle(AbandonSessionProcedure, connect.NewUnaryHandler(AbandonSessionProcedure, s.AbandonSession, opts...))
	mux.Handle(GetSessionProcedure, connect.NewUnaryHandler(GetSessionProcedure, s.GetSession, opts...))
	mux.Handle(ListSessionsProcedure, connect.NewUnaryHandler(ListSessionsProcedure, s.ListSessions, opts...))
	mux.Handle(GetUserStatsProcedure, connect.NewUnaryHandler(GetUserStatsProcedure, s.GetUserStats, opts...))
	mux.Handle(GetCardProcedure, connect.NewUnaryHandler(GetCardProcedure, s.GetCard, opts...))
	mux.Handle(ListCardsProcedure, connect.NewUnaryHandler(ListCardsProcedure, s.ListCards, opts...))
	mux.Handle(SetCardActiveProcedure, connect.NewUnaryHandler(SetCardActiveProcedure, s.SetCardActive, opts...))
	return "/" + TabooServiceName + "/", mux
}

func (s *TabooServiceServer) StartSession(ctx context.Context, req *connect.Request[StartSessionRequest]) (*connect.Response[Session], error) {
	msg := req.Msg
	if msg.CardID <= 0 {
		return nil, invalidArgument("card_id required")
	}
	if strings.TrimSpace(msg.TargetLanguage) == "" {
		return nil, invalidArgument("target_language required")
	}
	session, err := s.sessions.StartSession(ctx, usecase.StartSessionInput{
		CardID:         msg.CardID,
		UserID:         msg.UserID,
		TargetLanguage: msg.TargetLanguage,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(toSession(session)), nil
}

func (s *TabooServiceServer) SubmitDescription(ctx context.Context, req *connect.Request[SubmitDescriptionRequest]) (*connect.Response[SubmitDescriptionResponse], error) {
	msg := req.Msg
	if strings.TrimSpace(msg.SessionID) == "" {
		return nil, invalidArgument("session_id required")
	}
	out, err := s.sessions.SubmitDescription(ctx, msg.SessionID, msg.Description)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&SubmitDescriptionResponse{
		Session:             toSession(out.Session),
		NewlyFound:          append([]string{}, out.NewlyFound...),
		WordDetails:         out.Evaluation.WordDetails,
		AnswerWordMentioned: out.Evaluation.AnswerWordMentioned,
		Qualitative:         out.Evaluation.Qualitative,
		EvaluationSource:    out.Evaluation.Source,
		TranslationDegraded: out.Session.TranslationDegraded,
		ProvisionalScore:    out.ProvisionalScore,
	}), nil
}

func (s *TabooServiceServer) CompleteSession(ctx context.Context, req *connect.Request[CompleteSessionRequest]) (*connect.Response[CompleteSessionResponse], error) {
	msg := req.Msg
	if strings.TrimSpace(msg.SessionID) == "" {
		return nil, invalidArgument("session_id required")
	}
	includeExample := s.opts.IncludeExampleDefault
	if msg.IncludeExample != nil {
		includeExample = *msg.IncludeExample
	}
	out, err := s.sessions.CompleteSession(ctx, msg.SessionID, usecase.CompleteOptions{IncludeExample: includeExample})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&CompleteSessionResponse{
		Session:             toSession(out.Session),
		Score:               out.Score,
		EvaluationSource:    completionSource(out.Session),
		TranslationDegraded: out.Session.TranslationDegraded,
	}), nil
}

func (s *TabooServiceServer) AbandonSession(ctx context.Context, req *connect.Request[SessionIDRequest]) (*connect.Response[Session], error) {
	if strings.TrimSpace(req.Msg.SessionID) == "" {
		return nil, invalidArgument("session_id required")
	}
	session, err := s.sessions.AbandonSession(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(toSession(session)), nil
}

func (s *TabooServiceServer) GetSession(ctx context.Context, req *connect.Request[SessionIDRequest]) (*connect.Response[Session], error) {
	session, err := s.sessions.GetSession(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(toSession(session)), nil
}

func (s *TabooServiceServer) ListSessions(ctx context.Context, req *connect.Request[ListSessionsRequest]) (*connect.Response[ListSessionsResponse], error) {
	msg := req.Msg
	query := &repository.ListSessionQuery{
		Pagination:  toPagination(msg.Pagination),
		FilterOrder: repository.FilterOrder{Filter: msg.Filter, OrderBy: msg.OrderBy},
		UserID:      msg.UserID,
	}
	items, total, err := s.sessions.ListSessions(ctx, query)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ListSessionsResponse{
		Items:      toSessions(items),
		Pagination: toPaginationResponse(query.Pagination, total),
	}), nil
}

func (s *TabooServiceServer) GetUserStats(ctx context.Context, req *connect.Request[UserStatsRequest]) (*connect.Response[entity.UserStats], error) {
	stats, err := s.sessions.GetUserStats(ctx, req.Msg.UserID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(stats), nil
}

func (s *TabooServiceServer) GetCard(ctx context.Context, req *connect.Request[IDRequest]) (*connect.Response[entity.TabooCard], error) {
	card, err := s.cards.GetCard(ctx, req.Msg.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(card), nil
}

func (s *TabooServiceServer) ListCards(ctx context.Context, req *connect.Request[ListCardsRequest]) (*connect.Response[ListCardsResponse], error) {
	msg := req.Msg
	query := &repository.ListCardQuery{
		Pagination:      toPagination(msg.Pagination),
		FilterOrder:     repository.FilterOrder{Filter: msg.Filter, OrderBy: msg.OrderBy},
		IncludeInactive: msg.IncludeInactive,
	}
	items, total, err := s.cards.ListCards(ctx, query)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ListCardsResponse{
		Items:      items,
		Pagination: toPaginationResponse(query.Pagination, total),
	}), nil
}

func (s *TabooServiceServer) SetCardActive(ctx context.Context, req *connect.Request[SetCardActiveRequest]) (*connect.Response[Empty], error) {
	if err := s.cards.SetCardActive(ctx, req.Msg.ID, req.Msg.Active); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&Empty{}), nil
}
