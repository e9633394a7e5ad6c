package boundary

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/talgya/npcforge/internal/agent"
	"github.com/talgya/npcforge/internal/apperr"
	"github.com/talgya/npcforge/internal/quest"
)

// DefaultQuestTTL bounds how long a generated quest stays available
// before ExpirySweep retires it (spec.md §4.7 step 5 names the sweep
// but leaves TTL to deployment choice).
const DefaultQuestTTL = 48 * time.Hour

func (s *Server) registerQuestRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /quest/generate/{agent}", rateLimited(s.oracleRL, s.handleQuestGenerate))
	mux.HandleFunc("POST /quest/accept/{id}", s.handleQuestAccept)
	mux.HandleFunc("POST /quest/complete/{id}", s.handleQuestComplete)
}

func (s *Server) handleQuestGenerate(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.ParseUint(r.PathValue("agent"), 10, 64)
	if err != nil {
		writeErr(w, apperr.New(apperr.InvalidArgument, "invalid agent id"))
		return
	}
	if _, ok := s.Container.Agents.Agent(agent.ID(n)); !ok {
		writeErr(w, apperr.New(apperr.AgentUnknown, "agent not found"))
		return
	}
	playerID := r.URL.Query().Get("player_id")
	if playerID == "" {
		writeErr(w, apperr.New(apperr.InvalidArgument, "player_id is required"))
		return
	}

	q := quest.Generate(s.Container.Quests, s.Container.Memory, agent.ID(n), playerID, time.Now(), DefaultQuestTTL)
	s.putQuestDurable(q)
	writeJSON(w, http.StatusCreated, q)
}

func (s *Server) handleQuestAccept(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.Container.Quests.Accept(id) {
		writeErr(w, apperr.New(apperr.InvalidArgument, "quest not available"))
		return
	}
	q, _ := s.Container.Quests.Get(id)
	s.putQuestDurable(q)
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) handleQuestComplete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.Container.Quests.Complete(id) {
		writeErr(w, apperr.New(apperr.InvalidArgument, "quest not accepted"))
		return
	}
	q, _ := s.Container.Quests.Get(id)
	s.putQuestDurable(q)
	writeJSON(w, http.StatusOK, q)
}

// putQuestDurable mirrors a quest's current state into the durable
// store so restart recovery can rebuild Book from sqlite (spec.md
// §10 supplemented feature; see internal/store.PutQuest). Logged, not
// failed, on error: the in-memory Book stays authoritative for the
// running process either way.
func (s *Server) putQuestDurable(q *quest.Quest) {
	if q == nil {
		return
	}
	err := s.Container.DB.PutQuest(uint64(q.GiverAgent), q.PlayerID, q.ID, q.Type, q.Title, q.Description,
		q.Difficulty, q.ExpiresAt.Unix(), q.Rewards, string(q.Status))
	if err != nil {
		slog.Warn("quest durable write failed", "quest_id", q.ID, "error", err)
	}
}
