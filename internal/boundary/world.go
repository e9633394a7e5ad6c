package boundary

import (
	"net/http"
	"strconv"
	"time"

	"github.com/talgya/npcforge/internal/apperr"
	"github.com/talgya/npcforge/internal/worldclock"
)

func (s *Server) registerWorldRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /world/start", s.adminOnly(s.handleWorldStart))
	mux.HandleFunc("POST /world/stop", s.adminOnly(s.handleWorldStop))
	mux.HandleFunc("POST /world/tick", s.adminOnly(s.handleWorldTick))
	mux.HandleFunc("POST /world/advance/{hours}", s.adminOnly(s.handleWorldAdvance))
	mux.HandleFunc("GET /world/events", s.handleWorldEvents)
}

// handleWorldStart begins autorun at the given time scale and tick
// interval (spec.md §6 "WorldClock.run(T,S)"), mirroring the teacher's
// admin-only /api/v1/speed route.
func (s *Server) handleWorldStart(w http.ResponseWriter, r *http.Request) {
	timeScale := 1.0
	if raw := r.URL.Query().Get("time_scale"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
			timeScale = v
		}
	}
	tickInterval := 10 * time.Second
	if raw := r.URL.Query().Get("tick_interval"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
			tickInterval = time.Duration(v * float64(time.Second))
		}
	}

	s.Container.Clock.SetTimeScale(timeScale)
	go s.Container.Clock.Autorun(tickInterval)
	writeJSON(w, http.StatusOK, map[string]any{"running": true, "time_scale": timeScale, "tick_interval_s": tickInterval.Seconds()})
}

func (s *Server) handleWorldStop(w http.ResponseWriter, r *http.Request) {
	s.Container.Clock.Stop()
	writeJSON(w, http.StatusOK, map[string]any{"running": false})
}

func (s *Server) handleWorldTick(w http.ResponseWriter, r *http.Request) {
	deltaHours := worldclock.DefaultTickDeltaHours
	if raw := r.URL.Query().Get("hours"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
			deltaHours = v
		}
	}
	s.Container.Clock.Tick(deltaHours)
	writeJSON(w, http.StatusOK, s.Container.Clock.Now())
}

func (s *Server) handleWorldAdvance(w http.ResponseWriter, r *http.Request) {
	hours, err := strconv.ParseFloat(r.PathValue("hours"), 64)
	if err != nil || hours <= 0 {
		writeErr(w, apperr.New(apperr.InvalidArgument, "invalid hours path segment"))
		return
	}
	s.Container.Clock.Tick(hours)
	writeJSON(w, http.StatusOK, s.Container.Clock.Now())
}

func (s *Server) handleWorldEvents(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	events := s.Container.Clock.Events().List(limit)
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}
