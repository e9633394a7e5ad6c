package boundary

import (
	"hash/fnv"
	"net/http"
	"strconv"
	"time"

	"github.com/talgya/npcforge/internal/agent"
	"github.com/talgya/npcforge/internal/apperr"
)

func (s *Server) registerConversationRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /conversation/start", s.handleConversationStart)
	mux.HandleFunc("POST /conversation/message", rateLimited(s.oracleRL, s.handleConversationMessage))
	mux.HandleFunc("POST /conversation/end", s.handleConversationEnd)
	mux.HandleFunc("POST /conversation/add-npc", s.handleConversationAddNPC)
	mux.HandleFunc("POST /conversation/remove-npc", s.handleConversationRemoveNPC)
	mux.HandleFunc("POST /conversation/location/npc/{id}", s.handleLocationNPC)
	mux.HandleFunc("POST /conversation/location/player/{id}", s.handleLocationPlayer)
}

// playerPseudoID maps a player id string into the same agent.ID space
// Proximity indexes, so a player's position occupies a cell an NPC's
// Nearby query can see (spec.md §4.9: "the unit Proximity grids by ...
// callers distinguish player ids via their own id-space convention").
// High bit set so it can never collide with a Registry-assigned agent
// id, which starts at 1 and grows from there.
func playerPseudoID(playerID string) agent.ID {
	h := fnv.New64a()
	_, _ = h.Write([]byte(playerID))
	return agent.ID(h.Sum64() | (1 << 63))
}

type startRequest struct {
	PlayerID string      `json:"player_id"`
	NPCIDs   []uint64    `json:"npc_ids"`
	Location locationDTO `json:"location"`
}

type locationDTO struct {
	Zone string  `json:"zone"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Z    float64 `json:"z"`
}

func (d locationDTO) toLocation() agent.Location {
	return agent.Location{Zone: d.Zone, X: d.X, Y: d.Y, Z: d.Z}
}

func (s *Server) handleConversationStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if req.PlayerID == "" {
		writeErr(w, apperr.New(apperr.InvalidArgument, "player_id is required"))
		return
	}
	ids := make([]agent.ID, 0, len(req.NPCIDs))
	for _, n := range req.NPCIDs {
		ids = append(ids, agent.ID(n))
	}

	g, err := s.Container.Conversation.Start(req.PlayerID, ids, req.Location.toLocation(), time.Now())
	if err != nil {
		writeErr(w, apperr.Wrap(apperr.InvalidArgument, "cannot start conversation", err))
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

type messageRequest struct {
	GroupID string  `json:"group_id"`
	Text    string  `json:"text"`
	Target  *uint64 `json:"target,omitempty"`
}

func (s *Server) handleConversationMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if req.GroupID == "" {
		writeErr(w, apperr.New(apperr.InvalidArgument, "group_id is required"))
		return
	}
	var target *agent.ID
	if req.Target != nil {
		t := agent.ID(*req.Target)
		target = &t
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	turns, err := s.Container.Conversation.Message(ctx, req.GroupID, req.Text, target, time.Now())
	if err != nil {
		writeErr(w, apperr.Wrap(apperr.GroupClosed, "conversation not open", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"turns": turns})
}

type groupIDRequest struct {
	GroupID string `json:"group_id"`
	AgentID uint64 `json:"agent_id"`
}

func (s *Server) handleConversationEnd(w http.ResponseWriter, r *http.Request) {
	var req groupIDRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	s.Container.Conversation.End(req.GroupID)
	writeJSON(w, http.StatusOK, map[string]any{"ended": req.GroupID})
}

func (s *Server) handleConversationAddNPC(w http.ResponseWriter, r *http.Request) {
	var req groupIDRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if err := s.Container.Conversation.AddAgent(req.GroupID, agent.ID(req.AgentID)); err != nil {
		writeErr(w, apperr.Wrap(apperr.GroupClosed, "cannot add npc", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"added": req.AgentID})
}

func (s *Server) handleConversationRemoveNPC(w http.ResponseWriter, r *http.Request) {
	var req groupIDRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if err := s.Container.Conversation.RemoveAgent(req.GroupID, agent.ID(req.AgentID)); err != nil {
		writeErr(w, apperr.Wrap(apperr.GroupClosed, "cannot remove npc", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": req.AgentID})
}

func (s *Server) handleLocationNPC(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeErr(w, apperr.New(apperr.InvalidArgument, "invalid npc id"))
		return
	}
	var req locationDTO
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	if err := s.Container.Agents.UpdateLocation(ctx, agent.ID(n), req.toLocation(), s.Container.Proximity); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": n})
}

func (s *Server) handleLocationPlayer(w http.ResponseWriter, r *http.Request) {
	playerID := r.PathValue("id")
	var req locationDTO
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	s.Container.Proximity.Update(playerPseudoID(playerID), req.toLocation())
	writeJSON(w, http.StatusOK, map[string]any{"updated": playerID})
}
