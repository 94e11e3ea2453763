package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/nookly/threadwatch/internal/config"
	"github.com/nookly/threadwatch/internal/models"
	"gopkg.in/gomail.v2"
)

// Service sends the daily digest over SMTP.
type Service struct {
	cfg config.EmailConfig
}

var _ Mailer = (*Service)(nil)

// NewService creates the digest mailer.
func NewService(cfg config.EmailConfig) *Service {
	return &Service{cfg: cfg}
}

// SendDigest renders and sends the digest email. An empty digest still goes
// out as a "no relevant threads" notice so operators can tell "working,
// nothing found" from "not running".
func (s *Service) SendDigest(digest *models.Digest) error {
	subject := fmt.Sprintf("Daily thread digest: %d relevant threads - %s",
		digest.Total, digest.GeneratedAt.Format("2006-01-02"))
	if digest.Total == 0 {
		subject = fmt.Sprintf("Daily thread digest: no relevant threads - %s",
			digest.GeneratedAt.Format("2006-01-02"))
	}

	htmlBody, err := BuildDigestHTML(digest)
	if err != nil {
		return fmt.Errorf("failed to build digest HTML: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.Sender)
	m.SetHeader("To", s.cfg.Recipient)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", BuildDigestText(digest))
	m.AddAlternative("text/html", htmlBody)

	d := gomail.NewDialer(s.cfg.SMTPHost, s.cfg.SMTPPort, s.cfg.Username, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send digest email: %w", err)
	}
	return nil
}

const digestTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Daily Thread Digest</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; margin: 20px; }
        .header { background-color: #34495e; color: white; padding: 20px; border-radius: 5px; }
        .tier-heading { margin-top: 25px; color: #2c3e50; }
        .thread { margin-bottom: 20px; padding: 15px; border: 1px solid #ddd; border-radius: 5px; }
        .thread.high { border-left: 4px solid #e74c3c; }
        .thread.medium { border-left: 4px solid #f1c40f; }
        .thread.low { border-left: 4px solid #95a5a6; }
        .thread-title { font-size: 17px; font-weight: bold; }
        .thread-meta { color: #7f8c8d; font-size: 13px; margin: 5px 0; }
        .thread-draft { background: #f9f9f9; padding: 10px; border-left: 3px solid #3498db; white-space: pre-wrap; }
        .empty { padding: 20px; color: #7f8c8d; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Daily Thread Digest</h1>
        <p>Window {{.WindowStart.Format "Jan 2 15:04"}} &ndash; {{.WindowEnd.Format "Jan 2 15:04 MST"}}</p>
    </div>

    {{if eq .Total 0}}
    <div class="empty">No relevant threads were found in this window. The monitor is running normally.</div>
    {{else}}
    {{range $tier := tiers}}
    {{with index $.ByTier $tier}}
    <h2 class="tier-heading">{{$tier | title}} priority ({{len .}})</h2>
    {{range .}}
    <div class="thread {{.PriorityTier}}">
        <div class="thread-title"><a href="{{.URL}}" target="_blank">{{.Title}}</a></div>
        <div class="thread-meta">
            r/{{.ForumName}} | Score: {{.RelevanceScore}}/10 | By {{.Author}} |
            {{.Engagement.CommentCount}} comments | First seen {{.FirstSeenAt.Format "Jan 2 15:04"}}
        </div>
        <p>{{.BodyExcerpt | truncate 300}}</p>
        {{if .DraftResponse}}
        <div class="thread-draft"><strong>Drafted reply:</strong>
{{.DraftResponse}}</div>
        {{end}}
    </div>
    {{end}}
    {{end}}
    {{end}}
    {{end}}

    <hr>
    <p><small>This digest was generated automatically. Review each draft before posting anything.</small></p>
</body>
</html>
`

// BuildDigestHTML renders the digest email body. Exported so the preview
// utility and tests can render without an SMTP server.
func BuildDigestHTML(digest *models.Digest) (string, error) {
	t := template.New("digest").Funcs(template.FuncMap{
		"title": func(s models.PriorityTier) string {
			return strings.ToUpper(string(s)[:1]) + string(s)[1:]
		},
		"truncate": func(length int, s string) string {
			if len(s) <= length {
				return s
			}
			return models.TruncateText(s, length) + "..."
		},
		"tiers": func() []models.PriorityTier { return models.StoredTiers },
	})

	t, err := t.Parse(digestTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, digest); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// BuildDigestText renders the plain-text alternative.
func BuildDigestText(digest *models.Digest) string {
	var text strings.Builder

	text.WriteString("DAILY THREAD DIGEST\n")
	fmt.Fprintf(&text, "Window: %s - %s\n\n",
		digest.WindowStart.Format("2006-01-02 15:04"),
		digest.WindowEnd.Format("2006-01-02 15:04 MST"))

	if digest.Total == 0 {
		text.WriteString("No relevant threads were found in this window. The monitor is running normally.\n")
		return text.String()
	}

	for _, tier := range models.StoredTiers {
		records := digest.ByTier[tier]
		if len(records) == 0 {
			continue
		}
		fmt.Fprintf(&text, "%s PRIORITY (%d)\n", strings.ToUpper(string(tier)), len(records))
		text.WriteString(strings.Repeat("=", 30) + "\n")
		for i, rec := range records {
			fmt.Fprintf(&text, "\n%d. %s\n", i+1, rec.Title)
			fmt.Fprintf(&text, "   r/%s | score %d/10 | %d comments | %s\n",
				rec.ForumName, rec.RelevanceScore, rec.Engagement.CommentCount, rec.URL)
			if rec.DraftResponse != "" {
				fmt.Fprintf(&text, "   Drafted reply:\n   %s\n",
					strings.ReplaceAll(rec.DraftResponse, "\n", "\n   "))
			}
		}
		text.WriteString("\n")
	}

	return text.String()
}
