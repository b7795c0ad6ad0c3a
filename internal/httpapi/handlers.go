package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"cdnflow/internal/flow"
	"cdnflow/internal/report"
	"cdnflow/internal/service"
	"cdnflow/internal/store"
	"cdnflow/internal/topology"
	"cdnflow/pkg/apperror"
)

// handlers holds the dependencies the route table closes over. It is
// deliberately thin: all solve orchestration, caching and persistence
// live in internal/service, not here.
type handlers struct {
	logger    *slog.Logger
	solver    *service.SolverService
	scenarios store.ScenarioRepository
	solves    store.SolveRepository
}

func (h *handlers) register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/scenarios", h.handleCreateScenario)
	mux.HandleFunc("GET /v1/scenarios/{id}", h.handleGetScenario)
	mux.HandleFunc("POST /v1/scenarios/{id}/solve", h.handleSolveScenario)
	mux.HandleFunc("GET /v1/solves/{id}", h.handleGetSolve)
	mux.HandleFunc("GET /v1/solves/{id}/report.xlsx", h.handleSolveReportExcel)
	mux.HandleFunc("GET /v1/solves/{id}/report.pdf", h.handleSolveReportPDF)
}

// --- request/response payloads -------------------------------------

type nodeRequest struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

type arcRequest struct {
	Tail     int   `json:"tail"`
	Head     int   `json:"head"`
	Capacity int64 `json:"capacity"`
	UnitCost int64 `json:"unit_cost"`
}

type createScenarioRequest struct {
	Name   string        `json:"name"`
	Nodes  []nodeRequest `json:"nodes"`
	Arcs   []arcRequest  `json:"arcs"`
	Source int           `json:"source"`
	Sink   int           `json:"sink"`
	Demand int64         `json:"demand"`
}

type scenarioResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	NodeCount int       `json:"node_count"`
	ArcCount  int       `json:"arc_count"`
	Source    int       `json:"source"`
	Sink      int       `json:"sink"`
	Demand    int64     `json:"demand"`
	CreatedAt time.Time `json:"created_at"`
}

type solveResponse struct {
	ID         uuid.UUID `json:"id"`
	ScenarioID uuid.UUID `json:"scenario_id"`
	Algorithm  string    `json:"algorithm"`
	TotalFlow  int64     `json:"total_flow"`
	TotalCost  int64     `json:"total_cost"`
	Satisfied  bool      `json:"satisfied"`
	ElapsedMs  int64     `json:"elapsed_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// --- handlers ---------------------------------------------------------

func (h *handlers) handleCreateScenario(w http.ResponseWriter, r *http.Request) {
	var req createScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	scn := topology.New(req.Name)
	for _, n := range req.Nodes {
		scn.AddNode(n.Name, topology.NodeKind(n.Kind))
	}
	for _, a := range req.Arcs {
		scn.AddArc(a.Tail, a.Head, a.Capacity, a.UnitCost)
	}
	scn.Source = req.Source
	scn.Sink = req.Sink
	scn.Demand = req.Demand

	if err := scn.Validate(); err != nil {
		writeAppError(w, err)
		return
	}

	data, err := service.MarshalTopology(scn)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to snapshot scenario")
		return
	}

	rec := &store.ScenarioRecord{
		ID:        scn.ID,
		Name:      scn.Name,
		NodeCount: len(scn.Nodes),
		ArcCount:  len(scn.Arcs),
		SourceID:  scn.Source,
		SinkID:    scn.Sink,
		Demand:    scn.Demand,
		Topology:  data,
		CreatedAt: time.Now(),
	}
	if err := h.scenarios.Create(r.Context(), rec); err != nil {
		h.logger.Error("failed to persist scenario", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to persist scenario")
		return
	}

	writeJSON(w, http.StatusCreated, scenarioToResponse(rec))
}

func (h *handlers) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid scenario id")
		return
	}

	rec, err := h.scenarios.GetByID(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, err, "scenario not found")
		return
	}

	writeJSON(w, http.StatusOK, scenarioToResponse(rec))
}

func (h *handlers) handleSolveScenario(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid scenario id")
		return
	}

	rec, err := h.scenarios.GetByID(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, err, "scenario not found")
		return
	}

	scn, err := service.RebuildScenario(rec.ID, rec.Name, rec.Topology)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to rebuild scenario topology")
		return
	}

	solveRec, err := h.solver.Solve(r.Context(), scn)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, solveToResponse(solveRec))
}

func (h *handlers) handleGetSolve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid solve id")
		return
	}

	rec, err := h.solves.GetByID(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, err, "solve not found")
		return
	}

	writeJSON(w, http.StatusOK, solveToResponse(rec))
}

func (h *handlers) handleSolveReportExcel(w http.ResponseWriter, r *http.Request) {
	scn, g, result, ok := h.rebuildSolve(w, r)
	if !ok {
		return
	}

	data, err := report.Excel(scn, g, result)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate report")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="solve-report.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *handlers) handleSolveReportPDF(w http.ResponseWriter, r *http.Request) {
	scn, _, result, ok := h.rebuildSolve(w, r)
	if !ok {
		return
	}

	data, err := report.PDF(scn, result)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate report")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="solve-report.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// rebuildSolve loads a solve and its parent scenario and re-solves the
// rebuilt topology so a report can be generated with a live flow.Graph
// — solve records store only the numeric result, not the per-arc flow
// assignment, so reports re-derive it deterministically from the SSP
// solver rather than persisting a second denormalized copy.
func (h *handlers) rebuildSolve(w http.ResponseWriter, r *http.Request) (*topology.Scenario, *flow.Graph, flow.Result, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid solve id")
		return nil, nil, flow.Result{}, false
	}

	solveRec, err := h.solves.GetByID(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, err, "solve not found")
		return nil, nil, flow.Result{}, false
	}

	scenarioRec, err := h.scenarios.GetByID(r.Context(), solveRec.ScenarioID)
	if err != nil {
		h.writeLookupError(w, err, "scenario not found")
		return nil, nil, flow.Result{}, false
	}

	scn, err := service.RebuildScenario(scenarioRec.ID, scenarioRec.Name, scenarioRec.Topology)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to rebuild scenario topology")
		return nil, nil, flow.Result{}, false
	}

	g, err := scn.BuildGraph()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to rebuild flow graph")
		return nil, nil, flow.Result{}, false
	}

	result, err := flow.NewSolver(g, h.logger).Solve(scn.Source, scn.Sink, scn.Demand)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to re-solve scenario")
		return nil, nil, flow.Result{}, false
	}

	return scn, g, result, true
}

func (h *handlers) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if h.solver != nil && !h.solver.IsHealthy() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) writeLookupError(w http.ResponseWriter, err error, notFoundMsg string) {
	if errors.Is(err, store.ErrScenarioNotFound) || errors.Is(err, store.ErrSolveNotFound) {
		writeError(w, http.StatusNotFound, notFoundMsg)
		return
	}
	h.logger.Error("repository lookup failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func scenarioToResponse(rec *store.ScenarioRecord) scenarioResponse {
	return scenarioResponse{
		ID:        rec.ID,
		Name:      rec.Name,
		NodeCount: rec.NodeCount,
		ArcCount:  rec.ArcCount,
		Source:    rec.SourceID,
		Sink:      rec.SinkID,
		Demand:    rec.Demand,
		CreatedAt: rec.CreatedAt,
	}
}

func solveToResponse(rec *store.SolveRecord) solveResponse {
	return solveResponse{
		ID:         rec.ID,
		ScenarioID: rec.ScenarioID,
		Algorithm:  rec.Algorithm,
		TotalFlow:  rec.TotalFlow,
		TotalCost:  rec.TotalCost,
		Satisfied:  rec.Satisfied,
		ElapsedMs:  rec.ElapsedTimeMs,
		CreatedAt:  rec.CreatedAt,
	}
}

// --- response helpers -------------------------------------------------

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

func writeAppError(w http.ResponseWriter, err error) {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		writeError(w, appErr.HTTPStatus(), appErr.Message)
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
