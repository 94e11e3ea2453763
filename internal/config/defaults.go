package config

import (
	"time"

	"github.com/nookly/threadwatch/internal/models"
)

// defaultConfig carries a complete working setup for the early-childhood /
// special-needs monitoring deployment. A YAML file overrides any of it.
func defaultConfig() *Config {
	return &Config{
		Port:           "8080",
		AnthropicModel: "claude-3-5-haiku-latest",

		Forums: []ForumConfig{
			{Name: "teachers", Class: models.ClassPrimary},
			{Name: "specialed", Class: models.ClassPrimary},
			{Name: "autism", Class: models.ClassPrimary},
			{Name: "ADHD", Class: models.ClassPrimary},
			{Name: "speechtherapy", Class: models.ClassPrimary},
			{Name: "occupationaltherapy", Class: models.ClassPrimary},
			{Name: "homeschool", Class: models.ClassPrimary},
			{Name: "Parenting", Class: models.ClassPrimary},
			{Name: "toddlers", Class: models.ClassPrimary},
			{Name: "preschool", Class: models.ClassPrimary},
			{Name: "education", Class: models.ClassSecondary},
			{Name: "learningdisabilities", Class: models.ClassSecondary},
			{Name: "Montessori", Class: models.ClassSecondary},
			{Name: "ECEProfessionals", Class: models.ClassSecondary},
			{Name: "childdevelopment", Class: models.ClassSecondary},
			{Name: "kindergarten", Class: models.ClassTertiary},
			{Name: "elementary", Class: models.ClassTertiary},
			{Name: "SLP", Class: models.ClassTertiary},
			{Name: "AskParents", Class: models.ClassTertiary},
			{Name: "daddit", Class: models.ClassTertiary},
			{Name: "Mommit", Class: models.ClassTertiary},
		},

		Fetch: FetchConfig{
			Limit:       50,
			MinScore:    1,
			MinComments: 0,
		},

		Scoring: ScoringConfig{
			Terms:        defaultTerms(),
			Engagement:   EngagementConfig{MaxBoost: 3.0, Saturation: 50},
			Ambiguous:    AmbiguousBand{Low: 4, High: 7},
			PromptBudget: 1500,
			Thresholds: map[models.TierClass]TierThresholds{
				models.ClassPrimary:   {High: 7, Medium: 5, Low: 3},
				models.ClassSecondary: {High: 8, Medium: 6, Low: 4},
				models.ClassTertiary:  {High: 9, Medium: 7, Low: 5},
			},
		},

		Storage: StorageConfig{
			Backend:           "local",
			Path:              "data",
			AzureContainer:    "threads",
			MaxRecordsPerTier: 500,
			BodyExcerptLimit:  1200,
		},

		Drafting: DraftingConfig{
			Enabled:      true,
			MaxResponses: 3,
			MaxTokens:    600,
			Temperature:  0.7,
			ToneProfile: "warm, supportive peer; genuinely helpful first, " +
				"promotional second; specific and actionable; matches the " +
				"community's tone and never reads as sales copy",
		},

		Schedule: ScheduleConfig{
			PollInterval: 15 * time.Minute,
			DigestTime:   "08:00",
			Timezone:     "UTC",
		},

		Email: EmailConfig{
			SMTPPort: 587,
		},
	}
}

// defaultTerms is the scored vocabulary: high-value topic terms weigh 2,
// broader early-childhood terms weigh 1, and explicit problem statements
// weigh 3 because a stated pain point is the strongest signal we have.
func defaultTerms() []TermWeight {
	weights := map[int][]string{
		2: {
			"visual schedule", "social story", "autism", "speech therapy",
			"special needs", "iep", "504", "personalized learning",
			"inclusive books", "emotional regulation", "one-size-fits-all",
			"screen time", "teacher burnout", "diverse materials",
			"inclusive materials", "social-emotional", "autism support",
			"adhd support", "transition", "routine", "visual supports",
		},
		1: {
			"preschool", "kindergarten", "early childhood", "toddler",
			"bedtime stories", "learning differences", "homeschool",
			"teacher resources", "educational tools", "neurodivergent",
			"preschool readiness", "reading difficulties", "behavior management",
		},
		3: {
			"struggling with", "need help", "at my wit's end", "nothing works",
			"looking for", "recommendations", "difficulty", "frustrated",
			"overwhelmed",
		},
	}

	var terms []TermWeight
	for _, w := range []int{3, 2, 1} {
		for _, t := range weights[w] {
			terms = append(terms, TermWeight{Term: t, Weight: w})
		}
	}
	return terms
}
