package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/nookly/threadwatch/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	redditTokenURL = "https://www.reddit.com/api/v1/access_token"
	redditAPIBase  = "https://oauth.reddit.com"
	userAgent      = "threadwatch/1.0"
)

// RedditGateway fetches candidate threads from subreddits via the OAuth
// listing API using application-only (client credentials) auth.
type RedditGateway struct {
	clientID     string
	clientSecret string
	client       *resty.Client
	accessToken  string
	tokenExpiry  time.Time
}

var _ Gateway = (*RedditGateway)(nil)

type redditAuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Selftext     string  `json:"selftext"`
	SelftextHTML string  `json:"selftext_html"`
	Author       string  `json:"author"`
	Subreddit    string  `json:"subreddit"`
	Permalink    string  `json:"permalink"`
	Created      float64 `json:"created_utc"`
	Score        int     `json:"score"`
	NumComments  int     `json:"num_comments"`
	Stickied     bool    `json:"stickied"`
}

// NewRedditGateway creates a Reddit gateway with a bounded request timeout.
func NewRedditGateway(clientID, clientSecret string, limit int) *RedditGateway {
	g := &RedditGateway{
		clientID:     clientID,
		clientSecret: clientSecret,
		client:       resty.New().SetTimeout(30 * time.Second),
	}
	g.client.SetQueryParam("limit", fmt.Sprintf("%d", clampLimit(limit)))
	return g
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 100
	}
	return limit
}

func (g *RedditGateway) Name() string {
	return "reddit"
}

func (g *RedditGateway) IsEnabled() bool {
	return g.clientID != "" && g.clientSecret != ""
}

// FetchRecent pulls the newest posts of a subreddit and filters them by the
// engagement floor. Stickied mod posts are skipped.
func (g *RedditGateway) FetchRecent(ctx context.Context, forum string, minScore, minComments int) ([]models.Candidate, error) {
	if !g.IsEnabled() {
		return nil, fmt.Errorf("reddit credentials missing: %w", ErrAuth)
	}

	if err := g.authenticate(ctx); err != nil {
		return nil, err
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+g.accessToken).
		SetHeader("User-Agent", userAgent).
		Get(fmt.Sprintf("%s/r/%s/new.json", redditAPIBase, forum))
	if err != nil {
		return nil, fmt.Errorf("reddit fetch for r/%s failed: %v: %w", forum, err, ErrTransient)
	}
	if err := classifyStatus(resp.StatusCode(), forum); err != nil {
		return nil, err
	}

	var listing redditListing
	if err := json.Unmarshal(resp.Body(), &listing); err != nil {
		return nil, fmt.Errorf("reddit listing for r/%s unparseable: %v: %w", forum, err, ErrTransient)
	}

	var candidates []models.Candidate
	for _, child := range listing.Data.Children {
		post := child.Data
		if post.Stickied {
			continue
		}
		if post.Score < minScore || post.NumComments < minComments {
			continue
		}

		candidates = append(candidates, models.Candidate{
			ID:           fmt.Sprintf("reddit_%s", post.ID),
			Title:        post.Title,
			Body:         cleanBody(post.Selftext, post.SelftextHTML),
			Author:       post.Author,
			URL:          "https://reddit.com" + post.Permalink,
			Score:        post.Score,
			CommentCount: post.NumComments,
			CreatedAt:    time.Unix(int64(post.Created), 0).UTC(),
		})
	}

	logrus.Debugf("Fetched %d candidates from r/%s", len(candidates), forum)
	return candidates, nil
}

func (g *RedditGateway) authenticate(ctx context.Context) error {
	if g.accessToken != "" && time.Now().Before(g.tokenExpiry) {
		return nil
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", userAgent).
		SetBasicAuth(g.clientID, g.clientSecret).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		Post(redditTokenURL)
	if err != nil {
		return fmt.Errorf("reddit auth request failed: %v: %w", err, ErrTransient)
	}
	if resp.StatusCode() == 401 || resp.StatusCode() == 403 {
		return fmt.Errorf("reddit rejected credentials (status %d): %w", resp.StatusCode(), ErrAuth)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("reddit auth returned status %d: %w", resp.StatusCode(), ErrTransient)
	}

	var auth redditAuthResponse
	if err := json.Unmarshal(resp.Body(), &auth); err != nil {
		return fmt.Errorf("reddit auth response unparseable: %v: %w", err, ErrTransient)
	}
	if auth.AccessToken == "" {
		return fmt.Errorf("reddit auth returned empty token: %w", ErrAuth)
	}

	g.accessToken = auth.AccessToken
	// Refresh a minute early so a token never expires mid-cycle.
	g.tokenExpiry = time.Now().Add(time.Duration(auth.ExpiresIn)*time.Second - time.Minute)
	return nil
}

func classifyStatus(status int, forum string) error {
	switch {
	case status == 200:
		return nil
	case status == 401 || status == 403:
		return fmt.Errorf("reddit denied access to r/%s (status %d): %w", forum, status, ErrAuth)
	case status == 429:
		return fmt.Errorf("reddit throttled r/%s: %w", forum, ErrRateLimited)
	default:
		return fmt.Errorf("reddit returned status %d for r/%s: %w", status, forum, ErrTransient)
	}
}

// cleanBody prefers the HTML rendering of a post body, stripped to plain
// text, over raw markdown. Reddit double-escapes selftext_html.
func cleanBody(selftext, selftextHTML string) string {
	if selftextHTML == "" {
		return strings.TrimSpace(selftext)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html.UnescapeString(selftextHTML)))
	if err != nil {
		return strings.TrimSpace(selftext)
	}
	text := strings.TrimSpace(doc.Text())
	if text == "" {
		return strings.TrimSpace(selftext)
	}
	return text
}
