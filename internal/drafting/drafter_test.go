package drafting

import (
	"context"
	"fmt"
	"testing"

	"github.com/nookly/threadwatch/internal/config"
	"github.com/nookly/threadwatch/internal/models"
	"github.com/stretchr/testify/assert"
)

type stubTextService struct {
	reply string
	err   error
	calls int
}

func (s *stubTextService) Rate(ctx context.Context, text, background string) (int, error) {
	return 0, fmt.Errorf("not implemented")
}

func (s *stubTextService) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	s.calls++
	return s.reply, s.err
}

func testCfg() config.DraftingConfig {
	return config.DraftingConfig{
		Enabled:      true,
		MaxResponses: 3,
		MaxTokens:    600,
		Temperature:  0.7,
		ToneProfile:  "warm, supportive peer",
	}
}

func highTierRecord() *models.ThreadRecord {
	return &models.ThreadRecord{
		ThreadID:     "reddit_abc",
		ForumName:    "specialed",
		Title:        "Need visual schedule ideas",
		BodyExcerpt:  "My student shuts down during transitions.",
		PriorityTier: models.TierHigh,
	}
}

func TestEligibility(t *testing.T) {
	assert.True(t, Eligible(models.TierHigh))
	assert.True(t, Eligible(models.TierMedium))
	assert.False(t, Eligible(models.TierLow))
	assert.False(t, Eligible(models.TierRejected))
}

func TestIneligibleTierNeverCallsService(t *testing.T) {
	svc := &stubTextService{reply: "should not be used"}
	d := New(testCfg(), svc)

	rec := highTierRecord()
	rec.PriorityTier = models.TierLow

	_, ok := d.Draft(context.Background(), rec)
	assert.False(t, ok)
	assert.Equal(t, 0, svc.calls)
}

func TestDisabledDrafterNeverCallsService(t *testing.T) {
	svc := &stubTextService{reply: "should not be used"}
	cfg := testCfg()
	cfg.Enabled = false
	d := New(cfg, svc)

	_, ok := d.Draft(context.Background(), highTierRecord())
	assert.False(t, ok)
	assert.Equal(t, 0, svc.calls)
}

func TestPicksHighestConfidenceVariant(t *testing.T) {
	svc := &stubTextService{reply: `First reply text.
Confidence: 0.4
===
Second reply text, the strongest.
Confidence: 0.9
===
Third reply text.
Confidence: 0.7`}
	d := New(testCfg(), svc)

	draft, ok := d.Draft(context.Background(), highTierRecord())
	assert.True(t, ok)
	assert.Equal(t, "Second reply text, the strongest.", draft)
}

func TestConfidenceLinesStrippedFromDraft(t *testing.T) {
	svc := &stubTextService{reply: `Only reply.
Spread over two lines.
Confidence: 0.8`}
	d := New(testCfg(), svc)

	draft, ok := d.Draft(context.Background(), highTierRecord())
	assert.True(t, ok)
	assert.Equal(t, "Only reply.\nSpread over two lines.", draft)
	assert.NotContains(t, draft, "Confidence")
}

func TestMissingConfidenceStillUsable(t *testing.T) {
	svc := &stubTextService{reply: "A single reply without any confidence marker."}
	d := New(testCfg(), svc)

	draft, ok := d.Draft(context.Background(), highTierRecord())
	assert.True(t, ok)
	assert.Equal(t, "A single reply without any confidence marker.", draft)
}

func TestServiceFailureMeansNoDraft(t *testing.T) {
	svc := &stubTextService{err: fmt.Errorf("over capacity")}
	d := New(testCfg(), svc)

	draft, ok := d.Draft(context.Background(), highTierRecord())
	assert.False(t, ok)
	assert.Empty(t, draft)
}

func TestEmptyReplyMeansNoDraft(t *testing.T) {
	svc := &stubTextService{reply: "   \n  "}
	d := New(testCfg(), svc)

	_, ok := d.Draft(context.Background(), highTierRecord())
	assert.False(t, ok)
}

func TestPromptCarriesToneAndVariantCount(t *testing.T) {
	d := New(testCfg(), &stubTextService{})
	prompt := d.buildPrompt(highTierRecord())

	assert.Contains(t, prompt, "warm, supportive peer")
	assert.Contains(t, prompt, "3 alternative replies")
	assert.Contains(t, prompt, "specialed")
	assert.Contains(t, prompt, "Need visual schedule ideas")
}
