package boundary

import (
	"encoding/base64"
	"net/http"
	"strconv"

	"github.com/talgya/npcforge/internal/agent"
	"github.com/talgya/npcforge/internal/apperr"
)

func (s *Server) registerVoiceRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /voice/generate/{id}", s.handleVoiceGenerate)
	mux.HandleFunc("POST /speech/transcribe", s.handleSpeechTranscribe)
}

type voiceGenerateRequest struct {
	Text string `json:"text"`
	Mood string `json:"mood"`
}

func (s *Server) handleVoiceGenerate(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeErr(w, apperr.New(apperr.InvalidArgument, "invalid npc id"))
		return
	}
	a, ok := s.Container.Agents.Agent(agent.ID(n))
	if !ok {
		writeErr(w, apperr.New(apperr.AgentUnknown, "agent not found"))
		return
	}
	var req voiceGenerateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if req.Text == "" {
		writeErr(w, apperr.New(apperr.InvalidArgument, "text is required"))
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	chunks, err := s.Container.Oracle.Synthesize(ctx, a.VoiceFingerprint, req.Text, req.Mood)
	if err != nil {
		writeErr(w, apperr.Wrap(apperr.OracleTimeout, "synthesis failed", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"chunks": chunks})
}

type transcribeRequest struct {
	AudioBase64 string `json:"audio_base64"`
	Lang        string `json:"lang"`
}

func (s *Server) handleSpeechTranscribe(w http.ResponseWriter, r *http.Request) {
	var req transcribeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	audio, err := base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil {
		writeErr(w, apperr.New(apperr.InvalidArgument, "audio_base64 is not valid base64"))
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	text, err := s.Container.Oracle.Transcribe(ctx, audio, req.Lang)
	if err != nil {
		writeErr(w, apperr.Wrap(apperr.OracleTimeout, "transcription failed", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"text": text})
}
