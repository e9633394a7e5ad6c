package boundary

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/talgya/npcforge/internal/agent"
	"github.com/talgya/npcforge/internal/apperr"
	"github.com/talgya/npcforge/internal/memory"
)

func (s *Server) registerNPCRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /npc/init", s.handleNPCInit)
	mux.HandleFunc("POST /npc/action", rateLimited(s.oracleRL, s.handleNPCAction))
	mux.HandleFunc("GET /npc/status/{id}", s.handleNPCStatus)
	mux.HandleFunc("GET /npc/list", s.handleNPCList)
	mux.HandleFunc("GET /npc/memories/{agent}/{player}", s.handleNPCMemories)
	mux.HandleFunc("POST /memory/decay", s.handleMemoryDecay)
}

type initRequest struct {
	Role        string     `json:"role"`
	Personality [8]float64 `json:"personality"`
	FactionID   *uint64    `json:"faction_id,omitempty"`
}

func (s *Server) handleNPCInit(w http.ResponseWriter, r *http.Request) {
	var req initRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if req.Role == "" {
		writeErr(w, apperr.New(apperr.InvalidArgument, "role is required"))
		return
	}

	a := s.Container.Agents.Create(agent.Role(req.Role), agent.Personality(req.Personality))
	if req.FactionID != nil {
		ctx, cancel := requestContext(r)
		defer cancel()
		_ = s.Container.Agents.Submit(ctx, a.ID, func(a *agent.Agent) { a.FactionID = req.FactionID })
	}
	writeJSON(w, http.StatusCreated, a)
}

type actionRequest struct {
	PlayerID string `json:"player_id"`
	Action   string `json:"action"`
}

func (s *Server) handleNPCAction(w http.ResponseWriter, r *http.Request) {
	agentID, ok := queryAgentID(r, "agent_id")
	if !ok {
		writeErr(w, apperr.New(apperr.InvalidArgument, "agent_id is required"))
		return
	}
	var req actionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if req.PlayerID == "" {
		writeErr(w, apperr.New(apperr.InvalidArgument, "player_id is required"))
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	outcome, err := s.Container.Cognize(ctx, agentID, req.PlayerID, req.Action)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// queryAgentID reads an agent id either from the URL query parameter
// named key (POST /npc/action, which has no path param for the target
// agent in spec.md §6's route table) or, when that query parameter is
// empty, from the path value named key.
func queryAgentID(r *http.Request, key string) (agent.ID, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		raw = r.PathValue(key)
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return agent.ID(n), true
}

func (s *Server) handleNPCStatus(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeErr(w, apperr.New(apperr.InvalidArgument, "invalid agent id"))
		return
	}
	a, ok := s.Container.Agents.Agent(agent.ID(n))
	if !ok {
		writeErr(w, apperr.New(apperr.AgentUnknown, "agent not found"))
		return
	}

	if r.URL.Query().Get("bio") == "true" {
		day := s.Container.Clock.Now().Day
		if a.CachedBio == "" || a.CachedBioDay != day {
			ctx, cancel := requestContext(r)
			defer cancel()
			bio, err := s.Container.Oracle.GenerateBio(ctx, fmt.Sprintf("agent-%d", a.ID), string(a.Role), a.Personality.DescribeTraits(), a.Mood.Label)
			if err == nil && bio != "" {
				_ = s.Container.Agents.Submit(ctx, a.ID, func(ag *agent.Agent) {
					ag.CachedBio = bio
					ag.CachedBioDay = day
				})
			}
		}
	}

	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleNPCList(w http.ResponseWriter, r *http.Request) {
	all := s.Container.Agents.List()

	var factionFilter *uint64
	if raw := r.URL.Query().Get("faction_id"); raw != "" {
		if n, err := strconv.ParseUint(raw, 10, 64); err == nil {
			factionFilter = &n
		}
	}
	zone := r.URL.Query().Get("zone")
	aliveOnly := r.URL.Query().Get("alive_only") == "true"

	offset, limit := pagination(r)
	out := make([]*agent.Agent, 0, len(all))
	for _, a := range all {
		if factionFilter != nil && (a.FactionID == nil || *a.FactionID != *factionFilter) {
			continue
		}
		if zone != "" && (a.Location == nil || a.Location.Zone != zone) {
			continue
		}
		if aliveOnly && !a.Alive {
			continue
		}
		out = append(out, a)
	}

	if offset > len(out) {
		offset = len(out)
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total": len(out),
		"items": out[offset:end],
	})
}

func pagination(r *http.Request) (offset, limit int) {
	limit = 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			offset = n
		}
	}
	return offset, limit
}

func (s *Server) handleNPCMemories(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.ParseUint(r.PathValue("agent"), 10, 64)
	if err != nil {
		writeErr(w, apperr.New(apperr.InvalidArgument, "invalid agent id"))
		return
	}
	playerID := r.PathValue("player")
	if playerID == "" {
		writeErr(w, apperr.New(apperr.InvalidArgument, "player id is required"))
		return
	}
	if _, ok := s.Container.Agents.Agent(agent.ID(n)); !ok {
		writeErr(w, apperr.New(apperr.AgentUnknown, "agent not found"))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			limit = v
		}
	}
	subject := memory.Subject{Kind: memory.SubjectPlayer, ID: playerID}
	mems := s.Container.Memory.Retrieve(agent.ID(n), subject, limit)
	writeJSON(w, http.StatusOK, map[string]any{"memories": mems})
}

func (s *Server) handleMemoryDecay(w http.ResponseWriter, r *http.Request) {
	hours := 1.0
	if raw := r.URL.Query().Get("hours"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			hours = v
		}
	}
	s.Container.Memory.DecaySweep(hours)
	removed := s.Container.Memory.CleanupSweep()
	writeJSON(w, http.StatusOK, map[string]any{"decayed_hours": hours, "cleaned_up": removed})
}
