package repository

import (
	"context"
	"errors"
	"net/http"

	"github.com/noah-isme/thesurve-web/pkg/directus"
	appErrors "github.com/noah-isme/thesurve-web/pkg/errors"
)

// readError maps a failed read to the error taxonomy. 403 and 404 collapse
// into ErrNotFound so moderation state is not observable.
func readError(err error, message string) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	switch status := directus.StatusCode(err); {
	case status == http.StatusNotFound, status == http.StatusForbidden:
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "survey not found")
	case status == http.StatusTooManyRequests:
		return appErrors.Wrap(err, appErrors.ErrRateLimited.Code, appErrors.ErrRateLimited.Status, message)
	default:
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, message)
	}
}

// writeError maps a failed create. An answer from the API is a rejection;
// anything else is a transport failure.
func writeError(err error, message string) error {
	var apiErr *directus.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			message = message + ": " + apiErr.Message
		}
		return appErrors.Wrap(err, appErrors.ErrSubmission.Code, appErrors.ErrSubmission.Status, message)
	}
	return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, message)
}
