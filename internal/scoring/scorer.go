// Package scoring computes a 1-10 relevance score and a priority tier for
// candidate threads. The keyword path is fully deterministic; the text
// service is consulted only inside a configured ambiguous band and any
// failure there falls back to the keyword score.
package scoring

import (
	"context"
	"math"
	"regexp"
	"strings"

	"github.com/nookly/threadwatch/internal/config"
	"github.com/nookly/threadwatch/internal/llm"
	"github.com/nookly/threadwatch/internal/models"
	"github.com/sirupsen/logrus"
)

// ratingBackground tells the text service what "relevant" means here.
const ratingBackground = "Threads where parents, teachers, or therapists of " +
	"children roughly ages 2-8 ask for help with early-childhood education " +
	"or special-needs support: visual schedules, social stories, speech " +
	"therapy, IEPs, emotional regulation, inclusive learning materials."

var (
	agePattern = regexp.MustCompile(`\b[2-8]\s*year\s*old|age\s*[2-8]\b|preschool|kindergarten|early learner|young child`)

	highUrgencyTerms   = []string{"urgent", "emergency", "asap", "immediately", "right away"}
	mediumUrgencyTerms = []string{"desperate", "need help now", "struggling"}
)

// Scorer assigns relevance scores and priority tiers. It holds no mutable
// state and never touches anything beyond the returned values.
type Scorer struct {
	cfg *config.Config
	svc llm.TextService // nil disables the ambiguous-band refinement
}

// New creates a scorer. Passing a nil text service yields the pure
// keyword-only scorer used as the test suite's default mode.
func New(cfg *config.Config, svc llm.TextService) *Scorer {
	return &Scorer{cfg: cfg, svc: svc}
}

// Score returns the final relevance score and the thread's priority tier.
// The tier is a pure function of the score and the forum's configured tier
// class; the same score maps to different tiers in different classes.
func (s *Scorer) Score(ctx context.Context, cand models.Candidate, forum string) (int, models.PriorityTier) {
	score := s.KeywordScore(cand)

	band := s.cfg.Scoring.Ambiguous
	if s.svc != nil && score >= band.Low && score <= band.High {
		if refined, err := s.refine(ctx, cand); err != nil {
			logrus.Warnf("Text-service rating unavailable for %s, keeping keyword score %d: %v",
				cand.ID, score, err)
		} else {
			logrus.Debugf("Refined score for %s: %d -> %d", cand.ID, score, refined)
			score = refined
		}
	}

	return score, s.TierFor(score, forum)
}

// KeywordScore is the deterministic part: weighted term matches, urgency and
// age-band multipliers, plus a capped engagement boost.
func (s *Scorer) KeywordScore(cand models.Candidate) int {
	content := strings.ToLower(cand.Title + " " + cand.Body)

	base := 0.0
	for _, tw := range s.cfg.Scoring.Terms {
		if strings.Contains(content, strings.ToLower(tw.Term)) {
			base += float64(tw.Weight)
		}
	}

	switch urgency(content) {
	case "high":
		base *= 1.3
	case "medium":
		base *= 1.1
	}
	if agePattern.MatchString(content) {
		base *= 1.1
	}

	total := base + s.engagementBoost(cand)
	if total > 10 {
		total = 10
	}

	score := int(math.Round(total))
	if score < 1 {
		score = 1
	}
	return score
}

// engagementBoost grows with diminishing returns and saturates at MaxBoost,
// so engagement alone can never push a thread more than a fixed fraction up
// the score range.
func (s *Scorer) engagementBoost(cand models.Candidate) float64 {
	eng := s.cfg.Scoring.Engagement
	activity := float64(cand.CommentCount) + float64(cand.Score)/2

	boost := eng.MaxBoost * math.Log1p(activity) / math.Log1p(eng.Saturation)
	if boost > eng.MaxBoost {
		boost = eng.MaxBoost
	}
	return boost
}

func (s *Scorer) refine(ctx context.Context, cand models.Candidate) (int, error) {
	text := models.TruncateText(cand.Title+"\n\n"+cand.Body, s.cfg.Scoring.PromptBudget)
	return s.svc.Rate(ctx, text, ratingBackground)
}

// TierFor maps a score to a tier under the forum's class thresholds.
func (s *Scorer) TierFor(score int, forum string) models.PriorityTier {
	t := s.cfg.Scoring.Thresholds[s.cfg.ClassFor(forum)]
	switch {
	case score >= t.High:
		return models.TierHigh
	case score >= t.Medium:
		return models.TierMedium
	case score >= t.Low:
		return models.TierLow
	default:
		return models.TierRejected
	}
}

func urgency(content string) string {
	for _, term := range highUrgencyTerms {
		if strings.Contains(content, term) {
			return "high"
		}
	}
	for _, term := range mediumUrgencyTerms {
		if strings.Contains(content, term) {
			return "medium"
		}
	}
	return "low"
}
