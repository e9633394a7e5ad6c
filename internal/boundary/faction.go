package boundary

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/talgya/npcforge/internal/apperr"
	"github.com/talgya/npcforge/internal/faction"
)

func (s *Server) registerFactionRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /factions", s.handleFactionsList)
	mux.HandleFunc("GET /territory/control", s.handleTerritoryControl)
	mux.HandleFunc("GET /traderoutes", s.handleTradeRoutesList)
	mux.HandleFunc("POST /territory/{t}/battle", s.adminOnly(s.handleTerritoryBattle))
	mux.HandleFunc("POST /battle/{id}/resolve", s.adminOnly(s.handleBattleResolve))
	mux.HandleFunc("POST /traderoute/establish", s.adminOnly(s.handleRouteEstablish))
	mux.HandleFunc("POST /traderoute/execute", s.adminOnly(s.handleRouteExecute))
	mux.HandleFunc("POST /traderoute/disrupt", s.adminOnly(s.handleRouteDisrupt))
	mux.HandleFunc("POST /traderoute/restore", s.adminOnly(s.handleRouteRestore))
}

func (s *Server) handleFactionsList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"factions": s.Container.Factions.Factions()})
}

func (s *Server) handleTerritoryControl(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"territories": s.Container.Factions.Territories()})
}

func (s *Server) handleTradeRoutesList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"trade_routes": s.Container.Factions.Routes()})
}

// handleTerritoryBattle opens a battle for a contested territory
// between its current controller (defender) and the faction named by
// ?attacker= (spec.md §6 "POST /territory/{t}/battle?attacker=").
// Strengths default to 1.0, adjustable via ?attacker_str=&defender_str=
// since spec.md leaves the exact strength model to deployment content.
func (s *Server) handleTerritoryBattle(w http.ResponseWriter, r *http.Request) {
	territoryID := r.PathValue("t")
	t, ok := s.Container.Factions.Territory(territoryID)
	if !ok {
		writeErr(w, apperr.New(apperr.InvalidArgument, "territory not found"))
		return
	}
	attackerRaw := r.URL.Query().Get("attacker")
	attackerN, err := strconv.ParseUint(attackerRaw, 10, 64)
	if err != nil {
		writeErr(w, apperr.New(apperr.InvalidArgument, "attacker is required"))
		return
	}

	attackerStr := queryFloat(r, "attacker_str", 1.0)
	defenderStr := queryFloat(r, "defender_str", 1.0)

	b := &faction.Battle{
		ID:          fmt.Sprintf("battle-%s-%d", territoryID, time.Now().UnixNano()),
		Territory:   territoryID,
		Attacker:    faction.ID(attackerN),
		Defender:    t.ControllingFaction,
		AttackerStr: attackerStr,
		DefenderStr: defenderStr,
	}
	s.Container.Factions.StartBattle(b)
	writeJSON(w, http.StatusCreated, b)
}

func queryFloat(r *http.Request, key string, def float64) float64 {
	if raw := r.URL.Query().Get(key); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	}
	return def
}

// handleBattleResolve drives a faction tick with no relation drift
// (Δh=0) and no trade roll (simDay=-1), so only advanceBattles runs,
// then returns the named battle. That pass advances every in-progress
// battle, not only this one, and a battle resolves only if one side's
// strength has fallen below BattleResolveRatio of the other's; an
// evenly matched battle is returned still in progress.
func (s *Server) handleBattleResolve(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.Container.Factions.Battle(id); !ok {
		writeErr(w, apperr.New(apperr.InvalidArgument, "battle not found"))
		return
	}
	s.Container.ForceFactionTick(0, -1)
	b, _ := s.Container.Factions.Battle(id)
	writeJSON(w, http.StatusOK, b)
}

type routeRequest struct {
	ID           string  `json:"id"`
	From         string  `json:"from"`
	To           string  `json:"to"`
	Goods        string  `json:"goods"`
	ProfitMargin float64 `json:"profit_margin"`
	RiskLevel    float64 `json:"risk_level"`
}

func (s *Server) handleRouteEstablish(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if req.ID == "" || req.From == "" || req.To == "" {
		writeErr(w, apperr.New(apperr.InvalidArgument, "id, from, and to are required"))
		return
	}
	route := &faction.TradeRoute{
		ID: req.ID, From: req.From, To: req.To, Goods: req.Goods,
		ProfitMargin: req.ProfitMargin, RiskLevel: req.RiskLevel, Status: faction.RouteActive,
	}
	s.Container.Factions.AddRoute(route)
	writeJSON(w, http.StatusCreated, route)
}

func (s *Server) routeByQuery(r *http.Request) (*faction.TradeRoute, error) {
	id := r.URL.Query().Get("id")
	route, ok := s.Container.Factions.Route(id)
	if !ok {
		return nil, apperr.New(apperr.InvalidArgument, "trade route not found")
	}
	return route, nil
}

// handleRouteExecute drives one faction tick with Δh=0 and simDay=0
// through the same Tick path as handleBattleResolve, then returns the
// named route. That tick rolls every active route, not only this one,
// and also advances in-progress battles.
func (s *Server) handleRouteExecute(w http.ResponseWriter, r *http.Request) {
	route, err := s.routeByQuery(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	s.Container.ForceFactionTick(0, 0)
	writeJSON(w, http.StatusOK, route)
}

func (s *Server) handleRouteDisrupt(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if !s.Container.Factions.SetRouteStatus(id, faction.RouteDisrupted) {
		writeErr(w, apperr.New(apperr.InvalidArgument, "trade route not found"))
		return
	}
	route, _ := s.Container.Factions.Route(id)
	writeJSON(w, http.StatusOK, route)
}

func (s *Server) handleRouteRestore(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if !s.Container.Factions.SetRouteStatus(id, faction.RouteActive) {
		writeErr(w, apperr.New(apperr.InvalidArgument, "trade route not found"))
		return
	}
	route, _ := s.Container.Factions.Route(id)
	writeJSON(w, http.StatusOK, route)
}
