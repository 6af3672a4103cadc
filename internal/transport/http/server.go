// Package http exposes the accident monitor over HTTP: hardware ingestion,
// registry queries, and the live stream endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"accident-monitor/internal/config"
	"accident-monitor/internal/domain"
	"accident-monitor/internal/eventlog"
	"accident-monitor/internal/hub"
	"accident-monitor/internal/metrics"
	"accident-monitor/internal/pipeline"
	"accident-monitor/internal/registry"
	"accident-monitor/internal/stream"
)

const maxBodyBytes = 1 << 20

type Server struct {
	router   *mux.Router
	cfg      *config.Config
	registry *registry.Registry
	events   *eventlog.Log
	ingestor *pipeline.Ingestor
	hub      *hub.Hub
	authMW   *AuthMiddleware
	log      logrus.FieldLogger
	upgrader websocket.Upgrader
}

func NewServer(
	cfg *config.Config,
	reg *registry.Registry,
	events *eventlog.Log,
	ingestor *pipeline.Ingestor,
	h *hub.Hub,
	authMW *AuthMiddleware,
	log logrus.FieldLogger,
) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		cfg:      cfg,
		registry: reg,
		events:   events,
		ingestor: ingestor,
		hub:      h,
		authMW:   authMW,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/metrics", metrics.HandleMetrics).Methods("GET")

	s.router.Handle("/hardware/event", s.authMW.Wrap(http.HandlerFunc(s.handleHardwareEvent))).Methods("POST")

	s.router.HandleFunc("/add_vehicle", s.handleAddVehicle).Methods("POST")
	s.router.HandleFunc("/vehicles", s.handleListVehicles).Methods("GET")
	s.router.HandleFunc("/vehicle/{vid}", s.handleGetVehicle).Methods("GET")
	s.router.HandleFunc("/vehicle/{vid}/events", s.handleVehicleEvents).Methods("GET")
	s.router.HandleFunc("/validateID", s.handleValidateID).Methods("POST")

	s.router.HandleFunc("/stream/vehicle/{vid}", s.handleStreamSSE).Methods("GET")
	s.router.HandleFunc("/ws/vehicle/{vid}", s.handleStreamWS).Methods("GET")

	s.router.Use(loggingMiddleware(s.log))
}

func (s *Server) Router() *mux.Router {
	return s.router
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleHardwareEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false, "message": "unreadable body",
		})
		return
	}

	result, err := s.ingestor.Ingest(r.Context(), body)
	switch {
	case domain.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false, "message": err.Error(),
		})
	case err != nil:
		s.log.WithError(err).Error("ingest failed")
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false, "message": "server error",
		})
	default:
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"success": true, "created_vehicle": result.CreatedVehicle,
		})
	}
}

func (s *Server) handleAddVehicle(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false, "message": "invalid JSON",
		})
		return
	}

	v, err := s.registry.Upsert(r.Context(), req.Ref(), domain.VehicleFields{
		Model:           req.Model,
		Owner:           req.Owner,
		Registration:    req.Registration,
		AccidentDetails: req.AccidentDetails,
	})
	switch {
	case domain.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false, "message": err.Error(),
		})
	case err != nil:
		s.log.WithError(err).Error("vehicle upsert failed")
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false, "message": "server error",
		})
	default:
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"success": true, "message": "vehicle added/updated", "vehicle_id": v.VehicleID,
		})
	}
}

func (s *Server) handleListVehicles(w http.ResponseWriter, r *http.Request) {
	order := domain.ListByUpdated
	if r.URL.Query().Get("order") == "created" {
		order = domain.ListByCreated
	}

	vehicles, err := s.registry.List(r.Context(), order, s.cfg.VehiclePageLimit)
	if err != nil {
		s.log.WithError(err).Error("vehicle listing failed")
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false, "message": "server error",
		})
		return
	}
	if vehicles == nil {
		vehicles = []domain.Vehicle{}
	}
	writeJSON(w, http.StatusOK, vehicles)
}

func (s *Server) handleGetVehicle(w http.ResponseWriter, r *http.Request) {
	vid := mux.Vars(r)["vid"]

	v, err := s.registry.Get(r.Context(), vid)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"found": false, "message": "Vehicle not found",
		})
	case err != nil:
		s.log.WithError(err).Error("vehicle lookup failed")
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"found": false, "message": "server error",
		})
	default:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"found": true, "vehicle": v,
		})
	}
}

func (s *Server) handleVehicleEvents(w http.ResponseWriter, r *http.Request) {
	vid := mux.Vars(r)["vid"]

	candidates, err := s.registry.RefCandidates(r.Context(), vid)
	if err != nil {
		s.log.WithError(err).Error("candidate resolution failed")
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false, "message": "server error",
		})
		return
	}

	events, err := s.events.Recent(r.Context(), candidates, s.cfg.EventPageLimit)
	if err != nil {
		s.log.WithError(err).Error("event query failed")
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false, "message": "server error",
		})
		return
	}
	if events == nil {
		events = []domain.AccidentEvent{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

type validateRequest struct {
	VehicleID       domain.FlexString `json:"vehicleID"`
	LegacyVehicleID domain.FlexString `json:"vehicle_id"`
}

type eventView struct {
	ID        int64    `json:"id"`
	VehicleID string   `json:"vehicle_id"`
	Intensity *float64 `json:"intensity"`
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
	Timestamp string   `json:"timestamp"`
}

func (s *Server) handleValidateID(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"valid": false, "message": "invalid JSON",
		})
		return
	}

	vid := string(req.VehicleID)
	if vid == "" {
		vid = string(req.LegacyVehicleID)
	}
	v, err := s.registry.Resolve(r.Context(), vid)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if vid == "" {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"valid": false, "message": "vehicleID required",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"valid": false, "message": "vehicle not found",
		})
		return
	case err != nil:
		s.log.WithError(err).Error("vehicle lookup failed")
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"valid": false, "message": "server error",
		})
		return
	}

	details := v.AccidentDetails
	if details == "" {
		details = "No recent accidents reported."
	}

	candidates, err := s.registry.RefCandidates(r.Context(), v.VehicleID)
	if err != nil {
		s.log.WithError(err).Error("candidate resolution failed")
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"valid": false, "message": "server error",
		})
		return
	}
	events, err := s.events.Recent(r.Context(), candidates, s.cfg.SummaryPageLimit)
	if err != nil {
		s.log.WithError(err).Error("event query failed")
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"valid": false, "message": "server error",
		})
		return
	}

	views := make([]eventView, 0, len(events))
	for _, e := range events {
		ts := e.Timestamp
		if ts == "" {
			ts = e.CreatedAt.UTC().Format(time.RFC3339)
		}
		views = append(views, eventView{
			ID:        e.ID,
			VehicleID: e.VehicleRef,
			Intensity: e.Intensity,
			Lat:       e.Lat,
			Lng:       e.Lng,
			Timestamp: ts,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid": true,
		"vehicle": map[string]interface{}{
			"id":              v.ID,
			"vehicle_id":      v.VehicleID,
			"model":           v.Model,
			"owner":           v.Owner,
			"registration":    v.Registration,
			"accidentDetails": details,
		},
		"events": views,
	})
}

func (s *Server) handleStreamSSE(w http.ResponseWriter, r *http.Request) {
	vid := mux.Vars(r)["vid"]

	ref, _, err := s.registry.Canonicalize(r.Context(), vid)
	if err != nil {
		s.log.WithError(err).Error("stream canonicalization failed")
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	writer, ok := stream.NewSSEWriter(w)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sess := stream.NewSession(s.hub, ref, writer,
		time.Duration(s.cfg.StreamPollIntervalMS)*time.Millisecond,
		s.cfg.StreamHeartbeatPolls)
	if err := sess.Run(r.Context()); err != nil && !errors.Is(err, context.Canceled) {
		s.log.WithError(err).WithField("vehicle", ref).Debug("sse session closed")
	}
}

func (s *Server) handleStreamWS(w http.ResponseWriter, r *http.Request) {
	vid := mux.Vars(r)["vid"]

	ref, _, err := s.registry.Canonicalize(r.Context(), vid)
	if err != nil {
		s.log.WithError(err).Error("stream canonicalization failed")
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Debug("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Read pump exists only to detect the client going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	sess := stream.NewSession(s.hub, ref, stream.NewWSWriter(conn),
		time.Duration(s.cfg.StreamPollIntervalMS)*time.Millisecond,
		s.cfg.StreamHeartbeatPolls)
	if err := sess.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.log.WithError(err).WithField("vehicle", ref).Debug("ws session closed")
	}
}
