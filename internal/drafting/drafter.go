// Package drafting generates candidate replies for accepted threads. It is
// strictly best-effort: a failed draft never aborts the pipeline, the
// record simply goes into the digest without one.
package drafting

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nookly/threadwatch/internal/config"
	"github.com/nookly/threadwatch/internal/llm"
	"github.com/nookly/threadwatch/internal/models"
	"github.com/sirupsen/logrus"
)

const variantSeparator = "==="

// Drafter produces at most one draft per thread record, for high and medium
// tiers only; low-value threads do not get text-service spend.
type Drafter struct {
	cfg config.DraftingConfig
	svc llm.TextService
}

// New creates a drafter bound to a text service.
func New(cfg config.DraftingConfig, svc llm.TextService) *Drafter {
	return &Drafter{cfg: cfg, svc: svc}
}

// Eligible reports whether a record's tier qualifies for drafting.
func Eligible(tier models.PriorityTier) bool {
	return tier == models.TierHigh || tier == models.TierMedium
}

// Draft returns the best candidate reply for the thread, or ok=false when
// the tier is ineligible, drafting is disabled, or the service fails.
func (d *Drafter) Draft(ctx context.Context, rec *models.ThreadRecord) (string, bool) {
	if !d.cfg.Enabled || d.svc == nil || !Eligible(rec.PriorityTier) {
		return "", false
	}

	reply, err := d.svc.Complete(ctx, d.buildPrompt(rec), d.cfg.MaxTokens, d.cfg.Temperature)
	if err != nil {
		logrus.Warnf("Draft generation failed for thread %s: %v", rec.ThreadID, err)
		return "", false
	}

	best := pickBest(parseVariants(reply))
	if best == "" {
		logrus.Warnf("Draft reply for thread %s contained no usable variant", rec.ThreadID)
		return "", false
	}
	return best, true
}

func (d *Drafter) buildPrompt(rec *models.ThreadRecord) string {
	var b strings.Builder
	b.WriteString("You draft forum replies for a children's education service. ")
	b.WriteString("Tone: ")
	b.WriteString(d.cfg.ToneProfile)
	b.WriteString(".\n\n")
	b.WriteString("Structure each reply: acknowledge the situation with empathy, ")
	b.WriteString("share concrete free advice or resources, and close with encouragement. ")
	b.WriteString("Write as a helpful peer, never as a salesperson.\n\n")
	fmt.Fprintf(&b, "CONTEXT:\nForum: %s\nTitle: %s\n\n%s\n\n", rec.ForumName, rec.Title, rec.BodyExcerpt)
	fmt.Fprintf(&b, "Write %d alternative replies. Separate them with a line containing only %q. ",
		d.cfg.MaxResponses, variantSeparator)
	b.WriteString("End each reply with a line \"Confidence: <0.0-1.0>\" rating how well it fits this thread.")
	return b.String()
}

type variant struct {
	text       string
	confidence float64
}

func parseVariants(reply string) []variant {
	var variants []variant
	for _, chunk := range strings.Split(reply, variantSeparator) {
		text, confidence := splitConfidence(chunk)
		if text == "" {
			continue
		}
		variants = append(variants, variant{text: text, confidence: confidence})
	}
	return variants
}

func splitConfidence(chunk string) (string, float64) {
	lines := strings.Split(strings.TrimSpace(chunk), "\n")
	confidence := 0.0
	var kept []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(trimmed, "Confidence:"); ok {
			if c, err := strconv.ParseFloat(strings.TrimSpace(rest), 64); err == nil {
				confidence = c
			}
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n")), confidence
}

func pickBest(variants []variant) string {
	best := ""
	bestConfidence := -1.0
	for _, v := range variants {
		if v.confidence > bestConfidence {
			best = v.text
			bestConfidence = v.confidence
		}
	}
	return best
}
