package aws

import (
	"errors"

	"github.com/aws/smithy-go"
	"github.com/vietdv277/shotty/pkg/provider"
)

// API error codes grouped by the provider error they map to
var errorCodes = map[string]error{
	"AuthFailure":                 provider.ErrAuthFailed,
	"InvalidClientTokenId":        provider.ErrAuthFailed,
	"ExpiredToken":                provider.ErrAuthFailed,
	"RequestExpired":              provider.ErrAuthFailed,
	"SignatureDoesNotMatch":       provider.ErrAuthFailed,
	"UnrecognizedClientException": provider.ErrAuthFailed,
	"UnauthorizedOperation":       provider.ErrPermissionDenied,
	"AccessDenied":                provider.ErrPermissionDenied,
	"AccessDeniedException":       provider.ErrPermissionDenied,
	"InvalidInstanceID.NotFound":  provider.ErrNotFound,
	"InvalidVolume.NotFound":      provider.ErrNotFound,
	"InvalidSnapshot.NotFound":    provider.ErrNotFound,
}

// classifiedError keeps the SDK error text while matching a provider sentinel
type classifiedError struct {
	kind error
	err  error
}

func (e *classifiedError) Error() string {
	return e.err.Error()
}

func (e *classifiedError) Unwrap() []error {
	return []error{e.kind, e.err}
}

// classify tags SDK errors with the matching provider sentinel. The message is
// left unchanged and the smithy error stays reachable with errors.As.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	kind, ok := errorCodes[apiErr.ErrorCode()]
	if !ok {
		return err
	}
	return &classifiedError{kind: kind, err: err}
}

// ErrorCode returns the AWS API error code carried by err, if any
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
