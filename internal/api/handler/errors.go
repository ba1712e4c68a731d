package handler

import (
	"errors"
	"net/http"

	"github.com/transitdeck/transitdeck/internal/api/response"
	"github.com/transitdeck/transitdeck/internal/transit"
)

// writeTransitError maps adapter errors onto Problem responses. Upstream
// failures become 502 so callers can distinguish our faults from provider
// outages.
func writeTransitError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, transit.ErrUnsupportedCity) {
		response.NotFound(w, r, "unsupported transit city")
		return
	}

	var terr *transit.Error
	if errors.As(err, &terr) {
		response.BadGateway(w, r, terr.Error())
		return
	}

	response.InternalError(w, r, "an unexpected error occurred")
}
