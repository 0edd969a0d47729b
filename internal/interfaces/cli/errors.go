package cli

import (
	"errors"
	"fmt"

	"github.com/bobvengers/mapmate/internal/application/view"
	"github.com/bobvengers/mapmate/internal/domain/shared"
	"github.com/bobvengers/mapmate/internal/infrastructure/apiclient"
)

// describe turns err into the notification a user sees. Server rejections
// are shown exactly as the server phrased them.
func describe(err error) string {
	if gone, ok := view.AsGone(err); ok {
		return fmt.Sprintf("%s (back to %s)", gone.Error(), gone.RedirectTo)
	}

	switch {
	case errors.Is(err, shared.ErrLoginRequired):
		return shared.ErrLoginRequired.Message + ". Run `mapmate login`."
	case errors.Is(err, shared.ErrActionUnavailable):
		return shared.ErrActionUnavailable.Message + " for you right now"
	}

	if apiErr, ok := apiclient.AsError(err); ok {
		return apiErr.Error()
	}
	return err.Error()
}
