// Package oracle abstracts the LLM/TTS/STT providers behind a single
// contract: cognize, synthesize, transcribe. It is the only place that
// performs provider I/O (spec.md §4.5); Brain never calls a provider
// directly.
//
// Grounded on the teacher's internal/llm package (Anthropic Messages
// API client, JSON-in-free-text response parsing), generalized from
// the teacher's Tier2Decision (work/trade/socialize/...) schema into
// spec.md's CognitiveFrame/Intent schema.
package oracle

import "time"

// Intent enumerates the actions a cognized frame can express.
type Intent string

const (
	IntentInvestigate Intent = "Investigate"
	IntentGuard       Intent = "Guard"
	IntentTrade       Intent = "Trade"
	IntentAssist      Intent = "Assist"
	IntentFlee        Intent = "Flee"
	IntentAttack      Intent = "Attack"
	IntentSocialize   Intent = "Socialize"
	IntentIgnore      Intent = "Ignore"
)

// ValidIntents is used to validate Oracle output before Brain applies
// effects (spec.md §4.6 step 2).
var ValidIntents = map[Intent]bool{
	IntentInvestigate: true,
	IntentGuard:       true,
	IntentTrade:       true,
	IntentAssist:      true,
	IntentFlee:        true,
	IntentAttack:      true,
	IntentSocialize:   true,
	IntentIgnore:      true,
}

// CognitiveFrame is the structured result of a single cognize call
// (spec.md §4.5).
type CognitiveFrame struct {
	Reflection      string   `json:"reflection"`
	Dialogue        string   `json:"dialogue"`
	Intent          Intent   `json:"intent"`
	MoodShift       float64  `json:"mood_shift"`
	Urgency         float64  `json:"urgency"`     // [0,1]
	TrustDelta      float64  `json:"trust_delta"` // [-0.2,0.2]
	EmotionalWeight float64  `json:"emotional_weight"`
	ExtractedTopics []string `json:"extracted_topics"`
	Fallback        bool     `json:"fallback"` // true if derived from timeout/malformed output
}

// MaxTrustDelta bounds CognitiveFrame.TrustDelta (spec.md §4.5).
const MaxTrustDelta = 0.2

// Timeouts for each Oracle operation (spec.md §4.5, §5).
const (
	CognizeTimeout    = 15 * time.Second
	SynthesizeTimeout = 30 * time.Second
	TranscribeTimeout = 20 * time.Second
	BioTimeout        = 15 * time.Second
)

// AudioChunk is one piece of a synthesized audio stream, bounded to
// 16 KB per chunk (spec.md §4.5).
type AudioChunk struct {
	Data []byte
	Last bool
}

// MaxAudioChunkBytes bounds each AudioChunk.Data (spec.md §4.5).
const MaxAudioChunkBytes = 16 * 1024

// FallbackFrame builds the frame Oracle.Cognize returns on timeout or
// malformed output: neutral dialogue, no mutation pressure, an `Ignore`
// intent, and a reflection that names the current mood when one is
// given (spec.md §4.5: "derived from the agent's current mood").
func FallbackFrame(moodLabel string) CognitiveFrame {
	reflection := "no clear read on the situation"
	if moodLabel != "" {
		reflection = "feeling " + moodLabel + ", no clear read on the situation"
	}
	return CognitiveFrame{
		Reflection: reflection,
		Dialogue:   "...",
		Intent:     IntentIgnore,
		MoodShift:  0,
		Urgency:    0,
		TrustDelta: 0,
		Fallback:   true,
	}
}
