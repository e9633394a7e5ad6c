package boundary

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/talgya/npcforge/internal/agent"
	"github.com/talgya/npcforge/internal/apperr"
)

// clientFrame is the envelope for every message a game client sends
// over /ws/game (spec.md §9 Design Notes: a single in/out channel
// pair multiplexing every op the HTTP surface exposes, for clients
// that want one connection instead of polling). RequestID is echoed
// back verbatim so a client can correlate responses to requests.
type clientFrame struct {
	RequestID string          `json:"request_id,omitempty"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// serverFrame is the matching outbound envelope.
type serverFrame struct {
	RequestID string `json:"request_id,omitempty"`
	Type      string `json:"type"`
	Payload   any    `json:"payload,omitempty"`
}

// handleWS upgrades to a WebSocket and serves one connection until it
// closes, echoing frame-level errors rather than dropping the
// connection so a client bug in one frame doesn't kill the session.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("player_id")
	playerName := r.URL.Query().Get("player_name")
	if playerID == "" {
		http.Error(w, "player_id is required", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // local/dev clients on other hosts during playtesting
	})
	if err != nil {
		slog.Error("ws accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	sess := &wsSession{server: s, conn: conn, playerID: playerID, playerName: playerName}
	sess.run(r.Context())
}

type wsSession struct {
	server     *Server
	conn       *websocket.Conn
	playerID   string
	playerName string
}

func (sess *wsSession) run(ctx context.Context) {
	for {
		_, data, err := sess.conn.Read(ctx)
		if err != nil {
			return
		}
		var f clientFrame
		if err := json.Unmarshal(data, &f); err != nil {
			sess.send(serverFrame{Type: "error", Payload: apperr.ToBody(apperr.New(apperr.InvalidArgument, "malformed frame"))})
			continue
		}
		sess.dispatch(ctx, f)
	}
}

func (sess *wsSession) send(f serverFrame) {
	data, err := json.Marshal(f)
	if err != nil {
		return
	}
	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = sess.conn.Write(writeCtx, websocket.MessageText, data)
}

func (sess *wsSession) sendErr(requestID string, err error) {
	sess.send(serverFrame{RequestID: requestID, Type: "error", Payload: apperr.ToBody(err)})
}

// dispatch routes one client frame to the matching Container operation
// (spec.md §6: "npc_action", "npc_status", "voice_generate",
// "speech_transcribe", "subscribe_events", "get_factions",
// "get_world_events", "conversation_start/_message/_end/_add_npc/
// _remove_npc", "update_location"), replying with the matching
// server→client frame type.
func (sess *wsSession) dispatch(ctx context.Context, f clientFrame) {
	c := sess.server.Container
	switch f.Type {
	case "ping":
		sess.send(serverFrame{RequestID: f.RequestID, Type: "pong"})

	case "npc_action":
		var req struct {
			AgentID uint64 `json:"agent_id"`
			Action  string `json:"action"`
		}
		if err := json.Unmarshal(f.Payload, &req); err != nil {
			sess.sendErr(f.RequestID, apperr.New(apperr.InvalidArgument, "malformed npc_action payload"))
			return
		}
		outcome, err := c.Cognize(ctx, agent.ID(req.AgentID), sess.playerID, req.Action)
		if err != nil {
			sess.sendErr(f.RequestID, err)
			return
		}
		sess.send(serverFrame{RequestID: f.RequestID, Type: "npc_response", Payload: outcome})

	case "npc_status":
		var req struct {
			AgentID uint64 `json:"agent_id"`
		}
		if err := json.Unmarshal(f.Payload, &req); err != nil {
			sess.sendErr(f.RequestID, apperr.New(apperr.InvalidArgument, "malformed npc_status payload"))
			return
		}
		a, ok := c.Agents.Agent(agent.ID(req.AgentID))
		if !ok {
			sess.sendErr(f.RequestID, apperr.New(apperr.AgentUnknown, "agent not found"))
			return
		}
		sess.send(serverFrame{RequestID: f.RequestID, Type: "npc_response", Payload: a})

	case "voice_generate":
		var req struct {
			AgentID uint64 `json:"agent_id"`
			Text    string `json:"text"`
			Mood    string `json:"mood"`
		}
		if err := json.Unmarshal(f.Payload, &req); err != nil {
			sess.sendErr(f.RequestID, apperr.New(apperr.InvalidArgument, "malformed voice_generate payload"))
			return
		}
		a, ok := c.Agents.Agent(agent.ID(req.AgentID))
		if !ok {
			sess.sendErr(f.RequestID, apperr.New(apperr.AgentUnknown, "agent not found"))
			return
		}
		chunks, err := c.Oracle.Synthesize(ctx, a.VoiceFingerprint, req.Text, req.Mood)
		if err != nil {
			sess.sendErr(f.RequestID, apperr.Wrap(apperr.OracleTimeout, "synthesis failed", err))
			return
		}
		for _, chunk := range chunks {
			sess.send(serverFrame{RequestID: f.RequestID, Type: "voice_chunk", Payload: chunk})
		}
		sess.send(serverFrame{RequestID: f.RequestID, Type: "voice_complete"})

	case "speech_transcribe":
		var req struct {
			AudioBase64 string `json:"audio_base64"`
			Lang        string `json:"lang"`
			AgentID     uint64 `json:"agent_id"`
		}
		if err := json.Unmarshal(f.Payload, &req); err != nil {
			sess.sendErr(f.RequestID, apperr.New(apperr.InvalidArgument, "malformed speech_transcribe payload"))
			return
		}
		audio, err := base64.StdEncoding.DecodeString(req.AudioBase64)
		if err != nil {
			sess.sendErr(f.RequestID, apperr.New(apperr.InvalidArgument, "audio_base64 is not valid base64"))
			return
		}
		text, err := c.Oracle.Transcribe(ctx, audio, req.Lang)
		if err != nil {
			sess.sendErr(f.RequestID, apperr.Wrap(apperr.OracleTimeout, "transcription failed", err))
			return
		}
		sess.send(serverFrame{RequestID: f.RequestID, Type: "transcription", Payload: map[string]any{"text": text, "agent_id": req.AgentID}})

	case "subscribe_events":
		events := c.Clock.Events().List(50)
		for _, e := range events {
			sess.send(serverFrame{RequestID: f.RequestID, Type: "world_event", Payload: e})
		}

	case "get_factions":
		sess.send(serverFrame{RequestID: f.RequestID, Type: "faction_update", Payload: c.Factions.Factions()})

	case "get_world_events":
		limit := 100
		var req struct {
			Limit int `json:"limit"`
		}
		if err := json.Unmarshal(f.Payload, &req); err == nil && req.Limit > 0 {
			limit = req.Limit
		}
		sess.send(serverFrame{RequestID: f.RequestID, Type: "world_event", Payload: c.Clock.Events().List(limit)})

	case "update_location":
		var req struct {
			Zone string  `json:"zone"`
			X    float64 `json:"x"`
			Y    float64 `json:"y"`
			Z    float64 `json:"z"`
		}
		if err := json.Unmarshal(f.Payload, &req); err != nil {
			sess.sendErr(f.RequestID, apperr.New(apperr.InvalidArgument, "malformed update_location payload"))
			return
		}
		c.Proximity.Update(playerPseudoID(sess.playerID), agent.Location{Zone: req.Zone, X: req.X, Y: req.Y, Z: req.Z})
		sess.send(serverFrame{RequestID: f.RequestID, Type: "pong"})

	case "conversation_start":
		sess.handleConversationFrame(f)

	case "conversation_message":
		var req struct {
			GroupID string  `json:"group_id"`
			Text    string  `json:"text"`
			Target  *uint64 `json:"target,omitempty"`
		}
		if err := json.Unmarshal(f.Payload, &req); err != nil {
			sess.sendErr(f.RequestID, apperr.New(apperr.InvalidArgument, "malformed conversation_message payload"))
			return
		}
		var target *agent.ID
		if req.Target != nil {
			t := agent.ID(*req.Target)
			target = &t
		}
		turns, err := c.Conversation.Message(ctx, req.GroupID, req.Text, target, time.Now())
		if err != nil {
			sess.sendErr(f.RequestID, apperr.Wrap(apperr.GroupClosed, "conversation not open", err))
			return
		}
		sess.send(serverFrame{RequestID: f.RequestID, Type: "npc_response", Payload: map[string]any{"turns": turns}})

	case "conversation_end":
		var req struct {
			GroupID string `json:"group_id"`
		}
		if err := json.Unmarshal(f.Payload, &req); err != nil {
			sess.sendErr(f.RequestID, apperr.New(apperr.InvalidArgument, "malformed conversation_end payload"))
			return
		}
		c.Conversation.End(req.GroupID)
		sess.send(serverFrame{RequestID: f.RequestID, Type: "npc_response", Payload: map[string]any{"ended": req.GroupID}})

	case "conversation_add_npc":
		var req struct {
			GroupID string `json:"group_id"`
			AgentID uint64 `json:"agent_id"`
		}
		if err := json.Unmarshal(f.Payload, &req); err != nil {
			sess.sendErr(f.RequestID, apperr.New(apperr.InvalidArgument, "malformed conversation_add_npc payload"))
			return
		}
		if err := c.Conversation.AddAgent(req.GroupID, agent.ID(req.AgentID)); err != nil {
			sess.sendErr(f.RequestID, apperr.Wrap(apperr.GroupClosed, "cannot add npc", err))
			return
		}
		sess.send(serverFrame{RequestID: f.RequestID, Type: "npc_response", Payload: map[string]any{"added": req.AgentID}})

	case "conversation_remove_npc":
		var req struct {
			GroupID string `json:"group_id"`
			AgentID uint64 `json:"agent_id"`
		}
		if err := json.Unmarshal(f.Payload, &req); err != nil {
			sess.sendErr(f.RequestID, apperr.New(apperr.InvalidArgument, "malformed conversation_remove_npc payload"))
			return
		}
		if err := c.Conversation.RemoveAgent(req.GroupID, agent.ID(req.AgentID)); err != nil {
			sess.sendErr(f.RequestID, apperr.Wrap(apperr.GroupClosed, "cannot remove npc", err))
			return
		}
		sess.send(serverFrame{RequestID: f.RequestID, Type: "npc_response", Payload: map[string]any{"removed": req.AgentID}})

	default:
		sess.sendErr(f.RequestID, apperr.New(apperr.InvalidArgument, "unknown frame type: "+f.Type))
	}
}

// handleConversationFrame starts a group conversation rooted at the
// player's current connection, reusing Orchestrator.Start directly
// since the WebSocket surface shares the same Container as the HTTP
// routes in conversation.go.
func (sess *wsSession) handleConversationFrame(f clientFrame) {
	var req struct {
		NPCIDs []uint64 `json:"npc_ids"`
		Zone   string   `json:"zone"`
		X      float64  `json:"x"`
		Y      float64  `json:"y"`
		Z      float64  `json:"z"`
	}
	if err := json.Unmarshal(f.Payload, &req); err != nil {
		sess.sendErr(f.RequestID, apperr.New(apperr.InvalidArgument, "malformed conversation_start payload"))
		return
	}
	ids := make([]agent.ID, 0, len(req.NPCIDs))
	for _, n := range req.NPCIDs {
		ids = append(ids, agent.ID(n))
	}
	loc := agent.Location{Zone: req.Zone, X: req.X, Y: req.Y, Z: req.Z}
	g, err := sess.server.Container.Conversation.Start(sess.playerID, ids, loc, time.Now())
	if err != nil {
		sess.sendErr(f.RequestID, apperr.Wrap(apperr.InvalidArgument, "cannot start conversation", err))
		return
	}
	sess.send(serverFrame{RequestID: f.RequestID, Type: "npc_response", Payload: g})
}

