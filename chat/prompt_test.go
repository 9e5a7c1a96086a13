package chat

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorial/grounddesk/core"
)

func TestBuildPromptNoReferences(t *testing.T) {
	history := []*core.Message{
		{Role: core.RoleUser, Content: "hello"},
	}

	messages := BuildPrompt(DefaultSystemPrompt, nil, history)
	require.Len(t, messages, 2)
	assert.Equal(t, core.RoleSystem, messages[0].Role)
	assert.Equal(t, core.RoleUser, messages[1].Role)
	assert.Equal(t, "hello", messages[1].Content)
}

func TestBuildPromptGroupsByDocumentType(t *testing.T) {
	references := []*core.DocumentReference{
		{DocumentType: "rfp", Snippet: "client requires ISO 27001"},
		{DocumentType: "proposal", Snippet: "we propose yearly audits"},
		{DocumentType: "datasheet", Snippet: "device draws 12 watts"},
		{DocumentType: "RFP", Snippet: "delivery within 90 days"},
	}

	messages := BuildPrompt(DefaultSystemPrompt, references, nil)
	require.Len(t, messages, 3)

	context := messages[1].Content
	assert.Contains(t, context, "FROM RFP DOCUMENTS")
	assert.Contains(t, context, "FROM PROPOSAL DOCUMENTS")
	assert.Contains(t, context, "FROM OTHER DOCUMENTS")
	assert.Contains(t, context, "client requires ISO 27001")
	assert.Contains(t, context, "device draws 12 watts")

	// Type matching is case insensitive: both rfp snippets share the
	// section.
	rfpSection := context[strings.Index(context, "FROM RFP"):strings.Index(context, "FROM PROPOSAL")]
	assert.Contains(t, rfpSection, "delivery within 90 days")

	assert.Contains(t, messages[2].Content, "client requirements")
}

func TestBuildPromptLowercasesRoles(t *testing.T) {
	history := []*core.Message{
		{Role: core.Role("USER"), Content: "hi"},
		{Role: core.Role("Assistant"), Content: "hello"},
	}

	messages := BuildPrompt(DefaultSystemPrompt, nil, history)
	assert.Equal(t, core.RoleUser, messages[1].Role)
	assert.Equal(t, core.RoleAssistant, messages[2].Role)
}

func TestBuildPromptIsPure(t *testing.T) {
	references := []*core.DocumentReference{{DocumentType: "rfp", Snippet: "snippet"}}
	history := []*core.Message{{Role: core.RoleUser, Content: "question"}}

	first := BuildPrompt(DefaultSystemPrompt, references, history)
	second := BuildPrompt(DefaultSystemPrompt, references, history)
	assert.Equal(t, first, second)
}

func TestSnippetBound(t *testing.T) {
	long := strings.Repeat("a", 600)
	assert.Len(t, snippet(long, 500), 500)
	assert.Equal(t, "short", snippet("short", 500))
}

func TestSnippetMultibyte(t *testing.T) {
	long := strings.Repeat("ありがとう", 200)
	got := snippet(long, 500)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 500, utf8.RuneCountInString(got))
}
