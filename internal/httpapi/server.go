package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/havenline/sensorvitals/internal/domain"
	"github.com/havenline/sensorvitals/internal/escalation"
	"github.com/havenline/sensorvitals/internal/repo"
	"github.com/havenline/sensorvitals/internal/vitals"
)

// Server exposes the device-cloud webhooks. Every endpoint answers 200 no
// matter what happened: the upstream device cloud throttles origins that
// return non-2xx, and a throttled webhook means lost heartbeats.
type Server struct {
	Logger     *zap.Logger
	Locations  repo.LocationStore
	Vitals     repo.VitalStore
	Throttler  *vitals.Throttler
	Escalation *escalation.Handler
}

func NewServer(
	l *zap.Logger,
	locations repo.LocationStore,
	vitalStore repo.VitalStore,
	throttler *vitals.Throttler,
	esc *escalation.Handler,
) *Server {
	return &Server{
		Logger:     l,
		Locations:  locations,
		Vitals:     vitalStore,
		Throttler:  throttler,
		Escalation: esc,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Post("/api/heartbeat", s.handleHeartbeat)
	r.Post("/api/sirenEscalated", s.handleSirenEscalated)

	return r
}

// respond mirrors the upstream contract: transport success always, with a
// JSON string body carrying "OK" or a human-readable error.
func respond(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(body)
}

type heartbeatEnvelope struct {
	CoreID string `json:"coreid"`
	Data   string `json:"data"` // JSON-encoded device payload
}

type heartbeatData struct {
	ResetReason       string       `json:"resetReason"`
	DoorMissedMsg     int          `json:"doorMissedMsg"`
	DoorLowBatt       bool         `json:"doorLowBatt"`
	DoorLastHeartbeat int64        `json:"doorLastHeartbeat"` // ms since the door's last message
	States            [][3]float64 `json:"states"`
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	var env heartbeatEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		msg := fmt.Sprintf("Bad request to %s: %v", r.URL.Path, err)
		s.Logger.Error("heartbeat_bad_request", zap.String("error", msg))
		respond(w, msg)
		return
	}
	var missing []string
	if env.CoreID == "" {
		missing = append(missing, "coreid")
	}
	if env.Data == "" {
		missing = append(missing, "data")
	}
	if len(missing) > 0 {
		msg := fmt.Sprintf("Bad request to %s: %s (Invalid value)", r.URL.Path, strings.Join(missing, ", "))
		s.Logger.Error("heartbeat_bad_request", zap.String("error", msg))
		respond(w, msg)
		return
	}

	ctx := r.Context()
	loc, err := s.Locations.LocationByDeviceCoreID(ctx, env.CoreID)
	if err != nil {
		s.logCallError(w, r, err)
		return
	}
	if loc == nil {
		msg := fmt.Sprintf("Bad request to %s: no location matches the coreID %s", r.URL.Path, env.CoreID)
		s.Logger.Error("heartbeat_unknown_core", zap.String("coreid", env.CoreID))
		respond(w, msg)
		return
	}

	var data heartbeatData
	if err := json.Unmarshal([]byte(env.Data), &data); err != nil {
		msg := fmt.Sprintf("Bad request to %s: data (Invalid value)", r.URL.Path)
		s.Logger.Error("heartbeat_bad_request",
			zap.String("coreid", env.CoreID),
			zap.Error(err),
		)
		respond(w, msg)
		return
	}

	now, err := s.Locations.CurrentTime(ctx)
	if err != nil {
		s.logCallError(w, r, err)
		return
	}
	doorLastSeenAt := now.Add(-time.Duration(data.DoorLastHeartbeat) * time.Millisecond)

	transitions := make([]domain.StateTransition, 0, len(data.States))
	for _, raw := range data.States {
		tr, err := domain.DecodeStateTransition(raw)
		if err != nil {
			s.logCallError(w, r, fmt.Errorf("coreid %s: %w", env.CoreID, err))
			return
		}
		transitions = append(transitions, tr)
	}

	if data.DoorLowBatt {
		// alerting failures are logged by the throttler and must not
		// stop the vitals row from being written
		if err := s.Throttler.MaybeAlert(ctx, loc.ID); err != nil {
			s.Logger.Error("low_battery_alert_error",
				zap.String("locationid", string(loc.ID)),
				zap.Error(err),
			)
		}
	}

	vital := &domain.SensorVital{
		LocationID:     loc.ID,
		MissedCount:    data.DoorMissedMsg,
		LowBattery:     data.DoorLowBatt,
		DoorLastSeenAt: doorLastSeenAt,
		ResetReason:    data.ResetReason,
		Transitions:    transitions,
	}
	if err := s.Vitals.AppendVital(ctx, vital); err != nil {
		s.logCallError(w, r, err)
		return
	}

	respond(w, "OK")
}

type sirenEnvelope struct {
	CoreID      string `json:"coreid"`
	Event       string `json:"event"`
	Data        string `json:"data"`
	TTL         int    `json:"ttl"`
	PublishedAt string `json:"published_at"`
}

func (s *Server) handleSirenEscalated(w http.ResponseWriter, r *http.Request) {
	var env sirenEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil || env.CoreID == "" {
		msg := fmt.Sprintf("Bad request to %s: coreid (Invalid value)", r.URL.Path)
		s.Logger.Error("siren_bad_request", zap.String("error", msg))
		respond(w, msg)
		return
	}

	err := s.Escalation.HandleEscalated(r.Context(), env.CoreID)
	var unknown escalation.ErrUnknownCoreID
	if errors.As(err, &unknown) {
		msg := fmt.Sprintf("Bad request to %s: %s", r.URL.Path, unknown.Error())
		s.Logger.Error("siren_unknown_core", zap.String("coreid", env.CoreID))
		respond(w, msg)
		return
	}
	if err != nil {
		s.logCallError(w, r, err)
		return
	}

	respond(w, "OK")
}

// logCallError is the outer tier of the error logging: whatever already went
// wrong (and possibly rolled back) is reported once more against the route,
// then hidden from the caller.
func (s *Server) logCallError(w http.ResponseWriter, r *http.Request, err error) {
	msg := fmt.Sprintf("Error calling %s: %v", r.URL.Path, err)
	s.Logger.Error("webhook_call_error",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	respond(w, msg)
}
