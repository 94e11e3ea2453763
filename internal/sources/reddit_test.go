package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGatewayEnablement(t *testing.T) {
	assert.True(t, NewRedditGateway("id", "secret", 50).IsEnabled())
	assert.False(t, NewRedditGateway("", "secret", 50).IsEnabled())
	assert.False(t, NewRedditGateway("id", "", 50).IsEnabled())
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 50, clampLimit(50))
	assert.Equal(t, 1, clampLimit(1))
	assert.Equal(t, 100, clampLimit(0))
	assert.Equal(t, 100, clampLimit(-5))
	assert.Equal(t, 100, clampLimit(500))
}

func TestClassifyStatus(t *testing.T) {
	assert.NoError(t, classifyStatus(200, "teachers"))

	assert.ErrorIs(t, classifyStatus(401, "teachers"), ErrAuth)
	assert.ErrorIs(t, classifyStatus(403, "teachers"), ErrAuth)
	assert.ErrorIs(t, classifyStatus(429, "teachers"), ErrRateLimited)
	assert.ErrorIs(t, classifyStatus(500, "teachers"), ErrTransient)
	assert.ErrorIs(t, classifyStatus(503, "teachers"), ErrTransient)
	assert.ErrorIs(t, classifyStatus(404, "teachers"), ErrTransient)
}

func TestTransientClassification(t *testing.T) {
	assert.True(t, IsTransient(classifyStatus(429, "x")))
	assert.True(t, IsTransient(classifyStatus(500, "x")))
	assert.False(t, IsTransient(classifyStatus(401, "x")))
	assert.False(t, IsTransient(nil))
}

func TestCleanBodyPrefersRenderedHTML(t *testing.T) {
	// Reddit double-escapes selftext_html.
	escaped := "&lt;div&gt;&lt;p&gt;My son&amp;#39;s IEP meeting is &lt;em&gt;next week&lt;/em&gt;.&lt;/p&gt;&lt;/div&gt;"

	got := cleanBody("My son's IEP meeting is *next week*.", escaped)
	assert.Equal(t, "My son's IEP meeting is next week.", got)
}

func TestCleanBodyFallsBackToRawText(t *testing.T) {
	assert.Equal(t, "raw markdown body", cleanBody("  raw markdown body ", ""))
	assert.Equal(t, "", cleanBody("", ""))
}
