package grpc

import (
	"errors"

	"github.com/gemmoherb/portal/pkg/service"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors onto gRPC codes. Internal errors are logged and
// replaced by a generic message.
func toStatus(logger *zap.Logger, method string, err error) error {
	if err == nil {
		return nil
	}
	var code codes.Code
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		code = codes.Unauthenticated
	case errors.Is(err, service.ErrForbidden):
		code = codes.PermissionDenied
	case errors.Is(err, service.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, service.ErrConflict):
		code = codes.AlreadyExists
	case errors.Is(err, service.ErrInvalidInput):
		code = codes.InvalidArgument
	default:
		logger.Error("Request failed", zap.String("method", method), zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(code, err.Error())
}

// FromStatus turns a gRPC error back into the matching service error.
func FromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	var base error
	switch st.Code() {
	case codes.OK:
		return nil
	case codes.Unauthenticated:
		base = service.ErrUnauthorized
	case codes.PermissionDenied:
		base = service.ErrForbidden
	case codes.NotFound:
		base = service.ErrNotFound
	case codes.AlreadyExists:
		base = service.ErrConflict
	case codes.InvalidArgument:
		base = service.ErrInvalidInput
	default:
		return err
	}
	return &remoteError{base: base, msg: st.Message()}
}

type remoteError struct {
	base error
	msg  string
}

func (e *remoteError) Error() string { return e.msg }
func (e *remoteError) Unwrap() error { return e.base }
