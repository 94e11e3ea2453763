package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nookly/threadwatch/internal/config"
	"github.com/nookly/threadwatch/internal/llm"
	"github.com/nookly/threadwatch/internal/sources"
)

func main() {
	fmt.Println("🔍 Threadwatch - API Connectivity Test")
	fmt.Println("======================================")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	fmt.Println("\n📡 Testing Reddit...")
	fmt.Println(strings.Repeat("-", 40))
	testReddit(ctx, cfg)

	fmt.Println("\n🤖 Testing Anthropic...")
	fmt.Println(strings.Repeat("-", 40))
	testAnthropic(ctx, cfg)

	fmt.Println("\n✅ API connectivity test completed!")
	fmt.Println("\n💡 Next steps:")
	fmt.Println("   • Configure missing credentials in .env file")
	fmt.Println("   • Run the monitor with: make run")
}

func testReddit(ctx context.Context, cfg *config.Config) {
	gateway := sources.NewRedditGateway(cfg.RedditClientID, cfg.RedditClientSecret, 5)

	if !gateway.IsEnabled() {
		fmt.Println("⚠️  DISABLED (set REDDIT_CLIENT_ID and REDDIT_CLIENT_SECRET)")
		return
	}

	forum := cfg.Forums[0].Name
	fmt.Printf("🔸 Fetching r/%s... ", forum)
	candidates, err := gateway.FetchRecent(ctx, forum, 0, 0)
	if err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		return
	}

	fmt.Printf("✅ SUCCESS (%d threads found)\n", len(candidates))
	if len(candidates) > 0 {
		fmt.Printf("   📝 Sample: %q\n", candidates[0].Title)
	}
}

func testAnthropic(ctx context.Context, cfg *config.Config) {
	if cfg.AnthropicAPIKey == "" {
		fmt.Println("⚠️  DISABLED (set ANTHROPIC_API_KEY)")
		return
	}

	svc, err := llm.NewAnthropicService(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	if err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		return
	}

	sample := "My 4 year old was just diagnosed with autism and the preschool says " +
		"they can't support him. I don't know where to start with an IEP."
	fmt.Print("🔸 Rating a sample thread... ")
	score, err := svc.Rate(ctx, sample, "Parent seeking special education guidance for a preschooler.")
	if err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		return
	}

	fmt.Printf("✅ SUCCESS (relevance %d/10)\n", score)
}
