package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/grouptab/internal/errs"
)

// connectCode maps the errs taxonomy onto Connect status codes.
func connectCode(err error) connect.Code {
	switch {
	case errors.Is(err, context.Canceled):
		return connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	case errors.Is(err, errs.ErrValidation):
		return connect.CodeInvalidArgument
	case errors.Is(err, errs.ErrNotFound):
		return connect.CodeNotFound
	case errors.Is(err, errs.ErrConflict):
		return connect.CodeFailedPrecondition
	default:
		return connect.CodeInternal
	}
}

// toConnectError logs err and converts it into a Connect error carrying only
// the client-safe message.
func toConnectError(op string, err error) error {
	code := connectCode(err)

	var classified *errs.Error
	message := "internal error"
	if errors.As(err, &classified) || code != connect.CodeInternal {
		message = errs.Message(err)
	}

	if code == connect.CodeInternal {
		slog.Error(op+" failed", "error", err)
	} else {
		slog.Warn(op+" failed", "code", code, "error", err)
	}
	return connect.NewError(code, errors.New(message))
}
