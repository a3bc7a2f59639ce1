package connectrpc

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/eslsoft/taboo/internal/entity"
)

func toConnectError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, entity.ErrCardNotFound), errors.Is(err, entity.ErrSessionNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, entity.ErrInvalidSessionState):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, entity.ErrSessionConflict):
		return connect.NewError(connect.CodeAborted, err)
	case errors.Is(err, entity.ErrInvalidDescription), errors.Is(err, entity.ErrInvalidLanguage),
		errors.Is(err, entity.ErrInvalidCard), errors.Is(err, entity.ErrInvalidQuery):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

func invalidArgument(msg string) error {
	return connect.NewError(connect.CodeInvalidArgument, errors.New(msg))
}
