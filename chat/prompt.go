// Copyright 2025 Quorial Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package chat

import (
	"strings"

	"github.com/quorial/grounddesk/ai"
	"github.com/quorial/grounddesk/core"
)

// DefaultSystemPrompt is the instruction used when the project does not
// configure its own.
const DefaultSystemPrompt = "You are a helpful assistant analyzing documents. " +
	"Respond in the same language as the user."

const contextGuidance = "When answering, consider that RFP documents represent " +
	"client requirements and expectations, while proposal documents represent " +
	"our proposed solutions and approaches. Try to align your answer with both " +
	"perspectives when applicable. Respond in the same language as the user."

// BuildPrompt assembles the message sequence sent to the completion
// provider: the system instruction, an optional context block built
// from the retrieved references, and the conversation history in
// chronological order ending with the newest user message.
//
// BuildPrompt is a pure function: it touches no storage and no network,
// so prompt shape can be tested without either.
func BuildPrompt(systemPrompt string, references []*core.DocumentReference, history []*core.Message) []ai.Message {
	messages := []ai.Message{{Role: core.RoleSystem, Content: systemPrompt}}

	if len(references) > 0 {
		messages = append(messages,
			ai.Message{Role: core.RoleSystem, Content: buildContext(references)},
			ai.Message{Role: core.RoleSystem, Content: contextGuidance},
		)
	}

	for _, message := range history {
		messages = append(messages, ai.Message{
			Role:    core.Role(strings.ToLower(string(message.Role))),
			Content: message.Content,
		})
	}
	return messages
}

// buildContext groups reference snippets into labeled sections by
// document type. RFP and proposal documents get dedicated sections so
// the model can weigh requirements against proposed solutions; every
// other type lands in a shared section.
func buildContext(references []*core.DocumentReference) string {
	var rfp, proposal, other []string
	for _, reference := range references {
		switch strings.ToLower(reference.DocumentType) {
		case "rfp":
			rfp = append(rfp, reference.Snippet)
		case "proposal":
			proposal = append(proposal, reference.Snippet)
		default:
			other = append(other, reference.Snippet)
		}
	}

	var b strings.Builder
	b.WriteString("Here are some relevant document excerpts to help answer the question:\n\n")

	if len(rfp) > 0 {
		b.WriteString("FROM RFP DOCUMENTS (Client Requirements):\n")
		b.WriteString(strings.Join(rfp, "\n---\n"))
		b.WriteString("\n\n")
	}
	if len(proposal) > 0 {
		b.WriteString("FROM PROPOSAL DOCUMENTS (Our Solution):\n")
		b.WriteString(strings.Join(proposal, "\n---\n"))
		b.WriteString("\n\n")
	}
	if len(other) > 0 {
		b.WriteString("FROM OTHER DOCUMENTS:\n")
		b.WriteString(strings.Join(other, "\n---\n"))
	}
	return strings.TrimRight(b.String(), "\n")
}

// snippet bounds an excerpt to limit characters, cutting on rune
// boundaries so multilingual content stays valid UTF-8.
func snippet(content string, limit int) string {
	runes := []rune(content)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return content
}
