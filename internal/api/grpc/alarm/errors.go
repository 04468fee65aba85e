package alarm

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/alarm-manager/internal/api/dto"
	domain "github.com/oshokin/alarm-manager/internal/domain/alarm"
	"github.com/oshokin/alarm-manager/internal/service/scheduler"
)

// toStatus maps a service error onto a gRPC status.
func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case domain.IsValidation(err), errors.Is(err, domain.ErrInvalidIndex):
		return status.Error(codes.InvalidArgument, err.Error())
	case domain.IsReferential(err):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, scheduler.ErrStopped):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// reply encodes a wire value as a Struct.
func reply(v any) (*structpb.Struct, error) {
	result, err := dto.ToStruct(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	return result, nil
}

// decode decodes a request Struct into a wire value.
func decode(req *structpb.Struct, v any) error {
	if err := dto.FromStruct(req, v); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}

	return nil
}
