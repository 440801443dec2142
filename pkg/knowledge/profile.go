package knowledge

import (
	"sort"
	"time"
)

// Confidence of an area score.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Level of overall comprehension derived from area scores.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// Comprehension thresholds over the mean area score.
const (
	advancedThreshold     = 7.5
	intermediateThreshold = 5.5
)

// Area is the learner's standing in one knowledge area. Score,
// difficulty and weight stay clamped to [0,10]; mastered and struggle
// topic sets stay disjoint.
type Area struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Score          float64    `json:"score"`
	Difficulty     float64    `json:"difficulty"`
	Weight         float64    `json:"weight"`
	Confidence     Confidence `json:"confidence"`
	LastUpdated    time.Time  `json:"last_updated"`
	MasteredTopics []string   `json:"mastered_topics,omitempty"`
	StruggleTopics []string   `json:"struggle_topics,omitempty"`
}

// Profile maps area id to the learner's standing in it.
type Profile struct {
	Areas map[string]*Area `json:"areas"`
}

// NewProfile creates a profile covering the whole catalog with a
// neutral starting score.
func NewProfile() *Profile {
	areas := make(map[string]*Area, len(Catalog))
	for _, info := range Catalog {
		areas[info.ID] = &Area{
			ID:         info.ID,
			Name:       info.DisplayName,
			Score:      5.0,
			Difficulty: info.DefaultDifficulty,
			Weight:     info.DefaultWeight,
			Confidence: ConfidenceLow,
		}
	}
	return &Profile{Areas: areas}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SetScore writes a clamped score and stamps the area.
func (a *Area) SetScore(score float64, now time.Time) {
	a.Score = clamp(score, 0, 10)
	a.LastUpdated = now
}

// MergeTopics folds new mastered and struggling topics into the area
// sets. Duplicates collapse; a topic promoted to mastered is pruned
// from struggling.
func (a *Area) MergeTopics(mastered, struggling []string) {
	a.MasteredTopics = mergeSet(a.MasteredTopics, mastered)
	a.StruggleTopics = mergeSet(a.StruggleTopics, struggling)

	isMastered := make(map[string]bool, len(a.MasteredTopics))
	for _, t := range a.MasteredTopics {
		isMastered[t] = true
	}

	kept := a.StruggleTopics[:0]
	for _, t := range a.StruggleTopics {
		if !isMastered[t] {
			kept = append(kept, t)
		}
	}
	a.StruggleTopics = kept
}

func mergeSet(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing))
	out := existing
	for _, t := range existing {
		seen[t] = true
	}
	for _, t := range incoming {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// MeanScore returns the average score across all areas.
func (p *Profile) MeanScore() float64 {
	if len(p.Areas) == 0 {
		return 0
	}
	var sum float64
	for _, area := range p.Areas {
		sum += area.Score
	}
	return sum / float64(len(p.Areas))
}

// ComprehensionLevel derives the overall level from the mean score.
func (p *Profile) ComprehensionLevel() Level {
	mean := p.MeanScore()
	switch {
	case mean >= advancedThreshold:
		return LevelAdvanced
	case mean >= intermediateThreshold:
		return LevelIntermediate
	default:
		return LevelBeginner
	}
}

// WeakAreas returns area ids with score below the threshold, weakest
// first.
func (p *Profile) WeakAreas(threshold float64) []string {
	var weak []*Area
	for _, area := range p.Areas {
		if area.Score < threshold {
			weak = append(weak, area)
		}
	}
	sort.Slice(weak, func(i, j int) bool {
		if weak[i].Score != weak[j].Score {
			return weak[i].Score < weak[j].Score
		}
		return weak[i].ID < weak[j].ID
	})

	ids := make([]string, len(weak))
	for i, area := range weak {
		ids[i] = area.ID
	}
	return ids
}

// SortedIDs returns all area ids in deterministic order.
func (p *Profile) SortedIDs() []string {
	ids := make([]string, 0, len(p.Areas))
	for id := range p.Areas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
