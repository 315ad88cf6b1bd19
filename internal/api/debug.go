package api

import (
	"errors"
	"net/http"

	"github.com/draftscale/takeoff/internal/debugviz"
	"github.com/draftscale/takeoff/internal/httputil"
	"github.com/draftscale/takeoff/internal/store"
)

// handleDebugRooms renders a stored run's detected rooms as an
// interactive scatter. Debugging only.
func (s *Server) handleDebugRooms(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		httputil.NotFound(w, "persistence disabled")
		return
	}
	run, err := s.store.GetRun(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			httputil.NotFound(w, err.Error())
			return
		}
		httputil.InternalServerError(w, err.Error())
		return
	}
	if run.Measurement == nil {
		httputil.NotFound(w, "run carries no measurement payload")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := debugviz.RenderRoomsHTML(w, run.Measurement.Rooms, run.Measurement.Walls, run.PageLabel); err != nil {
		httputil.InternalServerError(w, "render failed: "+err.Error())
	}
}
