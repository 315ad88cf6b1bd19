// Package api serves the measurement pipeline over HTTP. Analysis runs
// persist to the store so results are auditable; the /debug endpoints
// render stored runs for visual inspection and carry no auth.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/draftscale/takeoff/internal/extract"
	"github.com/draftscale/takeoff/internal/httputil"
	"github.com/draftscale/takeoff/internal/interp"
	"github.com/draftscale/takeoff/internal/measure"
	"github.com/draftscale/takeoff/internal/monitoring"
	"github.com/draftscale/takeoff/internal/spaces"
	"github.com/draftscale/takeoff/internal/store"
	"github.com/draftscale/takeoff/internal/version"
)

const maxRequestBytes = 32 << 20 // drawings with heavy hatching get large

// Server wires the pipeline services behind an http.Handler.
type Server struct {
	mux       *http.ServeMux
	svc       *measure.Service
	store     *store.Store
	assembler *spaces.Assembler
	interp    interp.Interpreter
}

// NewServer builds the API server. st may be nil to disable
// persistence (runs are then measured but not retrievable); ip may be
// Absent.
func NewServer(svc *measure.Service, st *store.Store, ip interp.Interpreter) *Server {
	var mixSource spaces.RoomMixSource
	if st != nil {
		mixSource = st
	}
	s := &Server{
		mux:       http.NewServeMux(),
		svc:       svc,
		store:     st,
		assembler: spaces.NewAssembler(mixSource),
		interp:    ip,
	}
	s.mux.HandleFunc("POST /api/measure", s.handleMeasure)
	s.mux.HandleFunc("POST /api/assemble", s.handleAssemble)
	s.mux.HandleFunc("GET /api/runs", s.handleListRuns)
	s.mux.HandleFunc("GET /api/runs/{id}", s.handleGetRun)
	s.mux.HandleFunc("GET /debug/rooms/{id}", s.handleDebugRooms)
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.mux.ServeHTTP(w, r)
	monitoring.Logf("api: %s %s (%s)", r.Method, r.URL.Path, time.Since(start))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

type measureResponse struct {
	RunID       string               `json:"run_id,omitempty"`
	Measurement *measure.Measurement `json:"measurement"`
}

// handleMeasure runs the pipeline on one posted page.
func (s *Server) handleMeasure(w http.ResponseWriter, r *http.Request) {
	var page extract.Page
	if !decodeBody(w, r, &page) {
		return
	}

	m, err := s.svc.Measure(r.Context(), page)
	if err != nil {
		httputil.InternalServerError(w, "measurement failed: "+err.Error())
		return
	}

	resp := measureResponse{Measurement: m}
	if s.store != nil {
		id, err := s.store.SaveRun(r.Context(), m, nil)
		if err != nil {
			httputil.InternalServerError(w, "failed to persist run: "+err.Error())
			return
		}
		resp.RunID = id
	}
	httputil.WriteJSONOK(w, resp)
}

type assembleRequest struct {
	RunID        string `json:"run_id"`
	BuildingType string `json:"building_type,omitempty"`
	// UseInterpreter asks for room classification through the external
	// interpreter when one is configured.
	UseInterpreter bool `json:"use_interpreter,omitempty"`
}

type assembleResponse struct {
	RunID   string               `json:"run_id"`
	Program *spaces.SpaceProgram `json:"program"`
}

// handleAssemble builds a space program from a stored run.
func (s *Server) handleAssemble(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "persistence disabled, nothing to assemble from")
		return
	}
	var req assembleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	run, err := s.store.GetRun(r.Context(), req.RunID)
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			httputil.NotFound(w, err.Error())
			return
		}
		httputil.InternalServerError(w, err.Error())
		return
	}
	if run.Measurement == nil {
		httputil.WriteJSONError(w, http.StatusConflict, "run carries no measurement payload")
		return
	}

	in := spaces.Input{
		RoomAnalysis:   run.Measurement.Rooms,
		BuildingType:   spaces.ParseBuildingType(req.BuildingType),
		GrossAreaSF:    run.Measurement.GrossAreaSF,
		AreaConfidence: run.Measurement.Confidence,
	}
	if req.UseInterpreter && s.interp != nil {
		in.Interpretation = s.interpret(r.Context(), run.Measurement)
	}

	program, err := s.assembler.Assemble(r.Context(), in)
	if err != nil {
		httputil.InternalServerError(w, "assembly failed: "+err.Error())
		return
	}
	httputil.WriteJSONOK(w, assembleResponse{RunID: run.ID, Program: program})
}

// interpret asks the interpreter about the run's rooms; failures
// degrade silently to deterministic assembly.
func (s *Server) interpret(ctx context.Context, m *measure.Measurement) *interp.Interpretation {
	q := interp.GeometryQuery{
		PageLabel:   m.PageLabel,
		TotalAreaSF: m.GrossAreaSF,
	}
	if m.Scale != nil {
		q.ScaleNotation = m.Scale.Notation
	}
	if m.Rooms != nil {
		for _, room := range m.Rooms.Rooms {
			rs := interp.RoomSummary{RoomIndex: room.Index, Label: room.Label}
			if room.AreaSF != nil {
				rs.AreaSF = *room.AreaSF
			}
			q.Rooms = append(q.Rooms, rs)
		}
	}
	in, err := s.interp.InterpretGeometry(ctx, q)
	if err != nil {
		if !errors.Is(err, interp.ErrUnavailable) {
			monitoring.Logf("api: interpreter failed, assembling without it: %v", err)
		}
		return nil
	}
	return in
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		httputil.WriteJSONOK(w, []store.Run{})
		return
	}
	runs, err := s.store.ListRuns(r.Context(), 100)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	httputil.WriteJSONOK(w, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
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
	httputil.WriteJSONOK(w, run)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(dst); err != nil {
		httputil.BadRequest(w, "invalid request body: "+err.Error())
		return false
	}
	return true
}
