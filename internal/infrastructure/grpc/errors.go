package grpc

import (
	"context"
	"errors"

	"github.com/mrops-br/product-catalog-api/internal/domain"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps a catalog error onto a gRPC status. Internal causes are
// replaced by a fixed message.
func toStatus(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, context.Canceled.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, context.DeadlineExceeded.Error())
	}

	return status.Error(codeFor(domain.KindOf(err)), domain.PublicMessage(err))
}

func codeFor(kind domain.ErrorKind) codes.Code {
	switch kind {
	case domain.KindNotFound:
		return codes.NotFound
	case domain.KindConflict:
		return codes.AlreadyExists
	case domain.KindValidation:
		return codes.InvalidArgument
	default:
		return codes.Internal
	}
}

func invalidArgument(msg string) error {
	return status.Error(codes.InvalidArgument, msg)
}
