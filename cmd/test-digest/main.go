package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/nookly/threadwatch/internal/models"
	"github.com/nookly/threadwatch/internal/notifications"
)

// Renders a sample digest to the terminal and to test_output/ so the email
// layout can be checked without an SMTP server or live Reddit data.
func main() {
	fmt.Println("📧 Threadwatch - Digest Preview")
	fmt.Println("===============================")

	digest := sampleDigest()

	text := notifications.BuildDigestText(digest)
	fmt.Println()
	fmt.Println(text)

	html, err := notifications.BuildDigestHTML(digest)
	if err != nil {
		log.Fatalf("Failed to render HTML digest: %v", err)
	}

	dir := "test_output"
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	htmlPath := filepath.Join(dir, "digest.html")
	if err := os.WriteFile(htmlPath, []byte(html), 0644); err != nil {
		log.Fatalf("Failed to write HTML digest: %v", err)
	}
	textPath := filepath.Join(dir, "digest.txt")
	if err := os.WriteFile(textPath, []byte(text), 0644); err != nil {
		log.Fatalf("Failed to write text digest: %v", err)
	}

	fmt.Printf("✅ Wrote %s and %s\n", htmlPath, textPath)
	fmt.Println("💡 Open the HTML file in a browser to check the layout")
}

func sampleDigest() *models.Digest {
	now := time.Now()

	high := models.ThreadRecord{
		ThreadID:  "reddit_sample1",
		ForumName: "specialed",
		Title:     "New para, student with autism elopes daily and I have no training",
		BodyExcerpt: "I started as a paraprofessional three weeks ago. One of my students " +
			"runs from the classroom multiple times a day and admin keeps telling me to " +
			"just handle it. I have had zero training on de-escalation or elopement.",
		URL:    "https://reddit.com/r/specialed/comments/sample1",
		Author: "sample_user_1",
		Engagement: models.Engagement{
			Score:        41,
			CommentCount: 23,
			CreatedAt:    now.Add(-7 * time.Hour),
		},
		RelevanceScore: 9,
		PriorityTier:   models.TierHigh,
		Status:         models.StatusDrafted,
		DraftResponse: "That sounds exhausting, and you are right that you should not be " +
			"expected to manage elopement with no training.\n\nA few things that often help: " +
			"ask in writing for the student's BIP, request a meeting with the case manager, " +
			"and document every incident with times.",
		FirstSeenAt:   now.Add(-6 * time.Hour),
		LastUpdatedAt: now.Add(-6 * time.Hour),
	}

	medium := models.ThreadRecord{
		ThreadID:    "reddit_sample2",
		ForumName:   "toddlers",
		Title:       "Is it normal that my 2.5 year old only says a handful of words?",
		BodyExcerpt: "Pediatrician said wait and see but daycare keeps bringing it up. When did your kids start combining words?",
		URL:         "https://reddit.com/r/toddlers/comments/sample2",
		Author:      "sample_user_2",
		Engagement: models.Engagement{
			Score:        12,
			CommentCount: 31,
			CreatedAt:    now.Add(-11 * time.Hour),
		},
		RelevanceScore: 6,
		PriorityTier:   models.TierMedium,
		Status:         models.StatusPersisted,
		FirstSeenAt:    now.Add(-10 * time.Hour),
		LastUpdatedAt:  now.Add(-10 * time.Hour),
	}

	low := models.ThreadRecord{
		ThreadID:    "reddit_sample3",
		ForumName:   "Parenting",
		Title:       "Favorite low-prep activities for a rainy week indoors?",
		BodyExcerpt: "Stuck inside with a 3 and 5 year old. Looking for ideas that do not involve screens all day.",
		URL:         "https://reddit.com/r/Parenting/comments/sample3",
		Author:      "sample_user_3",
		Engagement: models.Engagement{
			Score:        8,
			CommentCount: 14,
			CreatedAt:    now.Add(-20 * time.Hour),
		},
		RelevanceScore: 4,
		PriorityTier:   models.TierLow,
		Status:         models.StatusPersisted,
		FirstSeenAt:    now.Add(-19 * time.Hour),
		LastUpdatedAt:  now.Add(-19 * time.Hour),
	}

	return &models.Digest{
		GeneratedAt: now,
		WindowStart: now.Add(-24 * time.Hour),
		WindowEnd:   now,
		Total:       3,
		ByTier: map[models.PriorityTier][]models.ThreadRecord{
			models.TierHigh:   {high},
			models.TierMedium: {medium},
			models.TierLow:    {low},
		},
	}
}
