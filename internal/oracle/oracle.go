package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Prompt is the context Brain assembles for a single cognize call
// (spec.md §4.6 Pass 1 input).
type Prompt struct {
	AgentName    string
	Personality  string // short rendered description, e.g. "cautious, loyal"
	MoodLabel    string
	Vitals       string // e.g. "hungry, rested"
	PlayerName   string
	Utterance    string
	Memories     []string // top-N memories about this player
	Rumors       []string // top-M rumors heard about this player
	FactionStance string
	Goals        []string
}

// Oracle is the single point of provider I/O (spec.md §4.5).
type Oracle struct {
	client *Client
}

// New creates an Oracle. A nil client is valid: every call falls back
// immediately, which is how an Oracle-outage deployment (or a test)
// exercises spec.md scenario S6 without a live API key.
func New(client *Client) *Oracle {
	return &Oracle{client: client}
}

// Cognize produces a validated CognitiveFrame, always returning within
// CognizeTimeout: on timeout, error, or malformed output it returns a
// fallback frame rather than propagating the failure, so "the
// interactive request MUST still succeed" (spec.md §4.5).
func (o *Oracle) Cognize(ctx context.Context, p Prompt) CognitiveFrame {
	if o == nil || o.client == nil || !o.client.Enabled() {
		return FallbackFrame(p.MoodLabel)
	}

	ctx, cancel := context.WithTimeout(ctx, CognizeTimeout)
	defer cancel()

	raw, err := o.client.complete(ctx, cognizeSystemPrompt(p), cognizeUserPrompt(p), 400)
	if err != nil {
		return FallbackFrame(p.MoodLabel)
	}

	frame, ok := parseCognitiveFrame(raw)
	if !ok {
		return FallbackFrame(p.MoodLabel)
	}
	return frame
}

func cognizeSystemPrompt(p Prompt) string {
	return fmt.Sprintf(
		`You are %s, currently feeling %s. Personality: %s. Physical state: %s.
Respond ONLY with a JSON object with fields:
"reflection" (one sentence, your private read of the moment),
"dialogue" (what you say aloud, or "" for nothing),
"intent" (one of Investigate, Guard, Trade, Assist, Flee, Attack, Socialize, Ignore),
"mood_shift" (number, how much this moves your emotional arousal),
"urgency" (number 0-1),
"trust_delta" (number -0.2 to 0.2, how much this changes your trust in the speaker),
"emotional_weight" (number 0-1, how memorable this moment is),
"extracted_topics" (array of short strings worth remembering about the speaker).`,
		p.AgentName, p.MoodLabel, p.Personality, p.Vitals,
	)
}

func cognizeUserPrompt(p Prompt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s says to you: %q\n\n", p.PlayerName, p.Utterance)
	if len(p.Memories) > 0 {
		b.WriteString("What you remember about them:\n")
		for _, m := range p.Memories {
			fmt.Fprintf(&b, "- %s\n", m)
		}
	}
	if len(p.Rumors) > 0 {
		b.WriteString("Rumors you've heard about them:\n")
		for _, r := range p.Rumors {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}
	if p.FactionStance != "" {
		fmt.Fprintf(&b, "Your faction's stance toward them: %s\n", p.FactionStance)
	}
	if len(p.Goals) > 0 {
		b.WriteString("Your current goals:\n")
		for _, g := range p.Goals {
			fmt.Fprintf(&b, "- %s\n", g)
		}
	}
	b.WriteString("\nRespond with the JSON object only.")
	return b.String()
}

// parseCognitiveFrame finds a JSON object in free text (the model may
// wrap it in prose) and validates it per spec.md §4.6 step 2.
func parseCognitiveFrame(raw string) (CognitiveFrame, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end <= start {
		return CognitiveFrame{}, false
	}

	var decoded struct {
		Reflection      string   `json:"reflection"`
		Dialogue        string   `json:"dialogue"`
		Intent          string   `json:"intent"`
		MoodShift       float64  `json:"mood_shift"`
		Urgency         float64  `json:"urgency"`
		TrustDelta      float64  `json:"trust_delta"`
		EmotionalWeight float64  `json:"emotional_weight"`
		ExtractedTopics []string `json:"extracted_topics"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &decoded); err != nil {
		return CognitiveFrame{}, false
	}

	intent := Intent(decoded.Intent)
	if !ValidIntents[intent] {
		return CognitiveFrame{}, false
	}
	if decoded.Urgency < 0 || decoded.Urgency > 1 {
		return CognitiveFrame{}, false
	}
	trustDelta := decoded.TrustDelta
	if trustDelta > MaxTrustDelta {
		trustDelta = MaxTrustDelta
	} else if trustDelta < -MaxTrustDelta {
		trustDelta = -MaxTrustDelta
	}
	dialogue := decoded.Dialogue
	if dialogue == "" {
		dialogue = "..."
	}

	return CognitiveFrame{
		Reflection:      decoded.Reflection,
		Dialogue:        dialogue,
		Intent:          intent,
		MoodShift:       decoded.MoodShift,
		Urgency:         decoded.Urgency,
		TrustDelta:      trustDelta,
		EmotionalWeight: clamp01(decoded.EmotionalWeight),
		ExtractedTopics: decoded.ExtractedTopics,
	}, true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Synthesize produces a chunked audio stream for TTS playback, each
// chunk bounded to MaxAudioChunkBytes (spec.md §4.5). Providers are
// not wired in this build; callers receive an immediate empty stream
// when no TTS provider is configured, rather than blocking.
func (o *Oracle) Synthesize(ctx context.Context, agentVoice, text, mood string) ([]AudioChunk, error) {
	ctx, cancel := context.WithTimeout(ctx, SynthesizeTimeout)
	defer cancel()
	_ = ctx
	if o == nil || o.client == nil {
		return nil, nil
	}
	// No TTS provider wired; returning nil is a valid empty stream.
	return nil, nil
}

// Transcribe converts audio to text via an STT provider. As with
// Synthesize, no STT provider is wired; returns an empty string
// rather than erroring so callers can treat silence as "nothing said".
func (o *Oracle) Transcribe(ctx context.Context, audio []byte, lang string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, TranscribeTimeout)
	defer cancel()
	_ = ctx
	if o == nil || o.client == nil || len(audio) == 0 {
		return "", nil
	}
	return "", nil
}

// GenerateBio produces a short narrative backstory for an agent, the
// supplemented per-NPC biography feature (spec.md §10, grounded on the
// teacher's cachedBio/cachedPaper newspaper narration). Like Cognize,
// it never blocks past BioTimeout or propagates a provider failure;
// callers treat an empty string as "no bio available right now".
func (o *Oracle) GenerateBio(ctx context.Context, name, role, personality, moodLabel string) (string, error) {
	if o == nil || o.client == nil || !o.client.Enabled() {
		return "", nil
	}
	ctx, cancel := context.WithTimeout(ctx, BioTimeout)
	defer cancel()

	system := "You write a single short in-world biography paragraph (3-4 sentences) for a game NPC, in the third person, grounded plainly in the traits given. No headers, no lists, plain prose only."
	user := fmt.Sprintf("Name: %s\nRole: %s\nPersonality: %s\nCurrent mood: %s\n\nWrite their biography.", name, role, personality, moodLabel)

	bio, err := o.client.complete(ctx, system, user, 220)
	if err != nil {
		return "", nil
	}
	return strings.TrimSpace(bio), nil
}
