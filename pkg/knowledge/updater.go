package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/Javi111003/OlivIA-RAG/pkg/llms"
	"github.com/Javi111003/OlivIA-RAG/pkg/structured"
)

// Analysis is the structured outcome of one knowledge assessment.
type Analysis struct {
	AreasAnalyzed     []string       `json:"areas_analyzed"`
	KnowledgeUpdates  map[string]any `json:"knowledge_updates"`
	OverallAssessment string         `json:"overall_assessment"`
	Recommendations   []string       `json:"recommendations"`
}

// AreaUpdate is one area entry inside an Analysis. Values arrive from
// the LLM loosely typed, so decoding is weakly typed.
type AreaUpdate struct {
	NewScore         float64  `json:"new_score" mapstructure:"new_score"`
	Confidence       string   `json:"confidence" mapstructure:"confidence"`
	TopicsMastered   []string `json:"topics_mastered" mapstructure:"topics_mastered"`
	TopicsStruggling []string `json:"topics_struggling" mapstructure:"topics_struggling"`
	Evidence         string   `json:"evidence" mapstructure:"evidence"`
	ChangeReason     string   `json:"change_reason" mapstructure:"change_reason"`
}

// errorPatterns maps learner phrasings to the error category recorded
// in the profile history.
var errorPatterns = map[string]string{
	"don't understand": "general comprehension gap",
	"no entiendo":      "general comprehension gap",
	"me confundo":      "conceptual confusion",
	"i'm confused":     "conceptual confusion",
	"no me sale":       "procedural difficulty",
	"esta mal":         "application error",
	"why":              "missing theoretical grounding",
	"por que":          "missing theoretical grounding",
}

// DetectErrors extracts error categories a learner's phrasing reveals.
func DetectErrors(query string) []string {
	text := strings.ToLower(query)
	var detected []string
	for pattern, label := range errorPatterns {
		if strings.Contains(text, pattern) {
			detected = append(detected, label)
		}
	}
	return detected
}

// Updater assesses interactions and applies score updates to a profile.
type Updater struct {
	envelope *structured.Envelope
	now      func() time.Time
}

// NewUpdater creates an updater over the given envelope.
func NewUpdater(envelope *structured.Envelope) *Updater {
	return &Updater{envelope: envelope, now: time.Now}
}

// Update analyzes one interaction and applies the resulting score
// changes to the profile. Applies atomically: nothing changes unless
// the whole analysis decodes. Returns the areas that were touched.
func (u *Updater) Update(ctx context.Context, profile *Profile, query, answer string) ([]string, error) {
	areas := IdentifyAreas(query, answer)
	if len(areas) == 0 {
		slog.Debug("No knowledge areas matched the interaction")
		return nil, nil
	}

	analysis, err := u.analyze(ctx, profile, areas, query, answer)
	if err != nil {
		if !errors.Is(err, structured.ErrMalformed) {
			return nil, err
		}
		slog.Warn("Knowledge analysis degraded to deterministic drift", "areas", areas)
		analysis = driftAnalysis(profile, areas, query)
	}

	touched, err := u.apply(profile, analysis)
	if err != nil {
		return nil, err
	}
	return touched, nil
}

func (u *Updater) analyze(ctx context.Context, profile *Profile, areas []string, query, answer string) (*Analysis, error) {
	var sb strings.Builder
	sb.WriteString("You are assessing a student's mathematical knowledge from one tutoring interaction.\n\n")
	sb.WriteString("Student query: " + query + "\n")
	if answer != "" {
		sb.WriteString("Explanation given: " + answer + "\n")
	}
	if detected := DetectErrors(query); len(detected) > 0 {
		sb.WriteString("Detected error patterns: " + strings.Join(detected, ", ") + "\n")
	}
	sb.WriteString("\nCurrent standing in the relevant areas:\n")
	for _, id := range areas {
		area, ok := profile.Areas[id]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "- %s: score %.1f/10, confidence %s\n", area.ID, area.Score, area.Confidence)
	}
	sb.WriteString("\nFor every relevant area decide a new score in [0,10] with evidence. ")
	sb.WriteString("Key knowledge_updates by area id.")

	analysis := &Analysis{}
	if err := u.envelope.InvokeStructured(ctx, []llms.Message{llms.User(sb.String())}, analysis); err != nil {
		return nil, err
	}
	return analysis, nil
}

// driftAnalysis is the deterministic fallback when the LLM output is
// unusable: each touched area drifts by one point, downward when the
// query signals a comprehension gap.
func driftAnalysis(profile *Profile, areas []string, query string) *Analysis {
	text := strings.ToLower(query)
	delta := 1.0
	if strings.Contains(text, "don't understand") || strings.Contains(text, "no entiendo") {
		delta = -1.0
	}

	updates := make(map[string]any, len(areas))
	for _, id := range areas {
		current := 5.0
		if area, ok := profile.Areas[id]; ok {
			current = area.Score
		}
		updates[id] = AreaUpdate{
			NewScore:     clamp(current+delta, 0, 10),
			Confidence:   string(ConfidenceMedium),
			Evidence:     "interaction pattern drift",
			ChangeReason: "automatic update after degraded analysis",
		}
	}

	return &Analysis{
		AreasAnalyzed:     areas,
		KnowledgeUpdates:  updates,
		OverallAssessment: "automatic assessment",
		Recommendations:   []string{"keep practicing the identified areas"},
	}
}

func (u *Updater) apply(profile *Profile, analysis *Analysis) ([]string, error) {
	type staged struct {
		area   *Area
		update AreaUpdate
	}

	var stages []staged
	for id, raw := range analysis.KnowledgeUpdates {
		area, ok := profile.Areas[id]
		if !ok {
			slog.Debug("Skipping update for unknown area", "area", id)
			continue
		}

		var update AreaUpdate
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &update,
			WeaklyTypedInput: true,
		})
		if err != nil {
			return nil, err
		}
		if err := decoder.Decode(raw); err != nil {
			return nil, fmt.Errorf("undecodable update for area %s: %w", id, err)
		}
		stages = append(stages, staged{area: area, update: update})
	}

	now := u.now().UTC()
	touched := make([]string, 0, len(stages))
	for _, s := range stages {
		old := s.area.Score
		s.area.SetScore(s.update.NewScore, now)
		s.area.MergeTopics(s.update.TopicsMastered, s.update.TopicsStruggling)
		if c := normalizeConfidence(s.update.Confidence); c != "" {
			s.area.Confidence = c
		}
		touched = append(touched, s.area.ID)
		slog.Info("Knowledge area updated",
			"area", s.area.ID,
			"old_score", old,
			"new_score", s.area.Score,
			"reason", s.update.ChangeReason)
	}
	return touched, nil
}

func normalizeConfidence(s string) Confidence {
	switch strings.ToLower(s) {
	case "low", "baja":
		return ConfidenceLow
	case "medium", "med", "media":
		return ConfidenceMedium
	case "high", "alta":
		return ConfidenceHigh
	default:
		return ""
	}
}
