package ml

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

// ModelServer hosts in-process models behind the HTTP contract RemoteModel
// speaks: POST /fit and POST /predict, plus /health, /models and /metrics.
type ModelServer struct {
	mu     sync.Mutex
	models map[string]Model
	fitted map[string]bool
	server *http.Server
}

// NewModelServer creates a server for models listening on addr.
func NewModelServer(models []NamedModel, addr string) *ModelServer {
	ms := &ModelServer{
		models: make(map[string]Model, len(models)),
		fitted: make(map[string]bool, len(models)),
	}
	for _, nm := range models {
		ms.models[nm.ID] = nm.Model
	}

	ms.server = &http.Server{
		Addr:         addr,
		Handler:      ms.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
	return ms
}

// Handler returns the router, for use with httptest. Routes hit with the
// wrong method answer 405.
func (ms *ModelServer) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/fit", ms.handleFit).Methods(http.MethodPost)
	r.HandleFunc("/predict", ms.handlePredict).Methods(http.MethodPost)
	r.HandleFunc("/health", ms.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/models", ms.handleModels).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

// Start begins serving HTTP requests
func (ms *ModelServer) Start() error {
	log.Info().Str("addr", ms.server.Addr).Int("models", len(ms.models)).Msg("starting model server")
	return ms.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (ms *ModelServer) Shutdown(ctx context.Context) error {
	return ms.server.Shutdown(ctx)
}

func (ms *ModelServer) handleFit(w http.ResponseWriter, r *http.Request) {
	var req fitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	features, err := toDense(req.Features)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	ms.mu.Lock()
	defer ms.mu.Unlock()

	model, ok := ms.models[req.Model]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown model %q", req.Model))
		return
	}
	if err := model.Fit(features, req.Labels); err != nil {
		log.Error().Err(err).Str("model", req.Model).Msg("fit failed")
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("fit failed: %v", err))
		return
	}
	ms.fitted[req.Model] = true

	log.Info().Str("model", req.Model).Int("rows", len(req.Labels)).Dur("elapsed", time.Since(start)).Msg("model fitted")
	w.WriteHeader(http.StatusNoContent)
}

func (ms *ModelServer) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	features, err := toDense(req.Features)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	model, ok := ms.models[req.Model]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown model %q", req.Model))
		return
	}

	probs, err := model.PredictProbability(features)
	if err != nil {
		log.Error().Err(err).Str("model", req.Model).Msg("prediction failed")
		writeJSON(w, http.StatusOK, predictResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, predictResponse{Probabilities: probs})
}

func (ms *ModelServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"healthy": true,
		"models":  len(ms.models),
	})
}

func (ms *ModelServer) handleModels(w http.ResponseWriter, r *http.Request) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	type modelInfo struct {
		Name   string `json:"name"`
		Type   string `json:"type"`
		Fitted bool   `json:"fitted"`
	}
	infos := make([]modelInfo, 0, len(ms.models))
	for name, m := range ms.models {
		infos = append(infos, modelInfo{Name: name, Type: fmt.Sprintf("%T", m), Fitted: ms.fitted[name]})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	writeJSON(w, http.StatusOK, infos)
}

func toDense(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("features cannot be empty")
	}
	cols := len(rows[0])
	if cols == 0 {
		return nil, fmt.Errorf("features must have at least one column")
	}
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d columns, expected %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
