package boundary

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/talgya/npcforge/internal/agent"
	"github.com/talgya/npcforge/internal/app"
)

func newTestServer(t *testing.T) (*httptest.Server, *Server) {
	t.Helper()
	cfg := app.DefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "npcforge.db")
	c, err := app.New(cfg)
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	s := New(c, 0, "admin-test-key")
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts, s
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	resp, err := http.Post(ts.URL+path, "application/json", &buf)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}

// TestNPCInitAndAction covers spec.md §8 scenario S1: create an agent,
// talk to it, and read its status back.
func TestNPCInitAndAction(t *testing.T) {
	ts, _ := newTestServer(t)

	initResp := postJSON(t, ts, "/npc/init", initRequest{Role: "guard"})
	if initResp.StatusCode != http.StatusCreated {
		t.Fatalf("npc/init status = %d", initResp.StatusCode)
	}
	var created agent.Agent
	decodeBody(t, initResp, &created)
	if created.ID == 0 {
		t.Fatal("npc/init returned a zero id")
	}

	actionResp := postJSON(t, ts, "/npc/action?agent_id="+itoa(uint64(created.ID)),
		actionRequest{PlayerID: "player-1", Action: "hello there"})
	if actionResp.StatusCode != http.StatusOK {
		t.Fatalf("npc/action status = %d", actionResp.StatusCode)
	}

	statusResp, err := http.Get(ts.URL + "/npc/status/" + itoa(uint64(created.ID)))
	if err != nil {
		t.Fatalf("GET npc/status: %v", err)
	}
	defer statusResp.Body.Close()
	if statusResp.StatusCode != http.StatusOK {
		t.Fatalf("npc/status status = %d", statusResp.StatusCode)
	}
	var fetched agent.Agent
	decodeBody(t, statusResp, &fetched)
	if fetched.ID != created.ID {
		t.Errorf("status id = %d, want %d", fetched.ID, created.ID)
	}
}

func TestNPCActionUnknownAgentReturns404(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts, "/npc/action?agent_id=999999", actionRequest{PlayerID: "p", Action: "hi"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

// TestWorldTickAdvancesTime covers spec.md §8's WorldClock property:
// a manual tick advances total simulated hours monotonically.
func TestWorldTickAdvancesTime(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts, "/world/tick?hours=2", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("admin-only route without a bearer token should be unauthorized, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/world/tick?hours=2", nil)
	req.Header.Set("Authorization", "Bearer admin-test-key")
	authed, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("authed tick: %v", err)
	}
	defer authed.Body.Close()
	if authed.StatusCode != http.StatusOK {
		t.Fatalf("authed tick status = %d", authed.StatusCode)
	}
	var wt struct {
		TotalHours float64 `json:"total_hours"`
	}
	decodeBody(t, authed, &wt)
	if wt.TotalHours != 2 {
		t.Errorf("total_hours = %v, want 2", wt.TotalHours)
	}
}

// TestQuestLifecycle covers generate -> accept -> complete.
func TestQuestLifecycle(t *testing.T) {
	ts, _ := newTestServer(t)

	initResp := postJSON(t, ts, "/npc/init", initRequest{Role: "merchant"})
	var a agent.Agent
	decodeBody(t, initResp, &a)

	genResp := postJSON(t, ts, "/quest/generate/"+itoa(uint64(a.ID))+"?player_id=player-1", nil)
	if genResp.StatusCode != http.StatusCreated {
		t.Fatalf("quest/generate status = %d", genResp.StatusCode)
	}
	var q struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decodeBody(t, genResp, &q)
	if q.Status != "available" {
		t.Fatalf("quest status = %s, want available", q.Status)
	}

	acceptResp := postJSON(t, ts, "/quest/accept/"+q.ID, nil)
	if acceptResp.StatusCode != http.StatusOK {
		t.Fatalf("quest/accept status = %d", acceptResp.StatusCode)
	}

	completeResp := postJSON(t, ts, "/quest/complete/"+q.ID, nil)
	if completeResp.StatusCode != http.StatusOK {
		t.Fatalf("quest/complete status = %d", completeResp.StatusCode)
	}
	var completed struct {
		Status string `json:"status"`
	}
	decodeBody(t, completeResp, &completed)
	if completed.Status != "completed" {
		t.Errorf("final quest status = %s, want completed", completed.Status)
	}
}

// TestConversationStartAndMessage covers group setup: two NPCs named
// explicitly by id join a player-started group.
func TestConversationStartAndMessage(t *testing.T) {
	ts, _ := newTestServer(t)

	var ids []uint64
	for i := 0; i < 2; i++ {
		resp := postJSON(t, ts, "/npc/init", initRequest{Role: "villager"})
		var a agent.Agent
		decodeBody(t, resp, &a)
		ids = append(ids, uint64(a.ID))
	}

	startResp := postJSON(t, ts, "/conversation/start", startRequest{
		PlayerID: "player-1",
		NPCIDs:   ids,
		Location: locationDTO{Zone: "square"},
	})
	if startResp.StatusCode != http.StatusCreated {
		t.Fatalf("conversation/start status = %d", startResp.StatusCode)
	}
	var group struct {
		ID string `json:"id"`
	}
	decodeBody(t, startResp, &group)
	if group.ID == "" {
		t.Fatal("conversation/start returned no group id")
	}

	msgResp := postJSON(t, ts, "/conversation/message", messageRequest{GroupID: group.ID, Text: "hello everyone"})
	if msgResp.StatusCode != http.StatusOK {
		t.Fatalf("conversation/message status = %d", msgResp.StatusCode)
	}
}

func TestFactionsListIsReadableWithoutAuth(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/factions")
	if err != nil {
		t.Fatalf("GET /factions: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func itoa(n uint64) string {
	return strconv.FormatUint(n, 10)
}
