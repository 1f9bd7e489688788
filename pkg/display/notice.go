package display

import (
	"context"
	"errors"
	"strings"

	"github.com/smartagrinode/agrinode/pkg/api"
	"github.com/smartagrinode/agrinode/pkg/auth"
	"github.com/smartagrinode/agrinode/pkg/models"
	"github.com/smartagrinode/agrinode/pkg/poller"
)

// Notice returns the message shown to the user for err. None of these
// conditions is fatal; each maps to one dismissible notice.
func Notice(err error) string {
	if err == nil {
		return ""
	}

	var (
		verrs   models.ValidationErrors
		verr    *models.ValidationError
		trigErr *poller.TriggerError
		apiErr  *api.APIError
	)

	switch {
	case errors.As(err, &trigErr):
		return "Could not start " + trigErr.Job + ": " + Notice(trigErr.Err)
	case errors.As(err, &verrs):
		lines := make([]string, 0, len(verrs)+1)
		lines = append(lines, "Please fix the following:")
		for _, fe := range verrs {
			lines = append(lines, "  - "+fe.Error())
		}
		return strings.Join(lines, "\n")
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, auth.ErrSessionExpired):
		return "Your session has expired. Please sign in again with `agrinode login`."
	case errors.Is(err, auth.ErrNoSession), api.IsUnauthorized(err):
		return "Please sign in first with `agrinode login`."
	case errors.Is(err, poller.ErrTimeout):
		return "Timed out waiting for the device. Check that it is online and try again."
	case errors.As(err, &apiErr):
		return apiErr.Message
	case api.IsNetwork(err):
		return "Network error: could not reach the server."
	case errors.Is(err, context.Canceled):
		return "Cancelled."
	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out."
	default:
		return err.Error()
	}
}
