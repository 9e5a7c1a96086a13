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


package grounddesk

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aimock "github.com/quorial/grounddesk/ai/mock"
	"github.com/quorial/grounddesk/core"
	vsmock "github.com/quorial/grounddesk/vectorstore/mock"
)

func newTestDesk(t *testing.T) (*Desk, *aimock.MockProvider, *vsmock.Index) {
	t.Helper()

	provider := aimock.NewMockProvider()
	index := vsmock.NewIndex()

	dir := t.TempDir()
	desk, err := NewDesk(context.Background(),
		filepath.Join(dir, "db"),
		filepath.Join(dir, "documents"),
		WithAIProvider(provider),
		WithVectorIndex(index),
		WithWorkers(2),
	)
	require.NoError(t, err)
	t.Cleanup(func() { desk.Close() })

	return desk, provider, index
}

func TestNewDeskRequiresVectorIndex(t *testing.T) {
	dir := t.TempDir()

	_, err := NewDesk(context.Background(),
		filepath.Join(dir, "db"),
		filepath.Join(dir, "documents"),
		WithAIProvider(aimock.NewMockProvider()),
	)
	assert.ErrorIs(t, err, ErrVectorIndexRequired)
}

func TestDeskDocumentLifecycle(t *testing.T) {
	desk, _, index := newTestDesk(t)
	ctx := context.Background()

	project := &core.Project{
		OwnerID:          core.NewID(),
		Name:             "tender",
		MaxContextTokens: 100000,
	}
	require.NoError(t, desk.Store().CreateProject(ctx, project))

	content := strings.Repeat("The client requires on-premise deployment. ", 30)
	document, admission, err := desk.Pipeline().Admit(ctx, project.ID, "requirements.txt", "rfp", strings.NewReader(content))
	require.NoError(t, err)
	require.True(t, admission.Allowed)

	desk.Drain()

	processed, err := desk.Store().GetDocument(ctx, document.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, processed.Status)
	assert.Positive(t, index.Len())

	report, err := desk.Tracker().Report(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, processed.TokenCount, report.DocumentTokens)

	require.NoError(t, desk.Pipeline().Remove(ctx, document.ID))
	desk.Drain()
	assert.Zero(t, index.Len())
}

func TestDeskSendMessageQueuesTitle(t *testing.T) {
	desk, provider, _ := newTestDesk(t)
	ctx := context.Background()

	project := &core.Project{
		OwnerID:          core.NewID(),
		Name:             "tender",
		MaxContextTokens: 100000,
	}
	require.NoError(t, desk.Store().CreateProject(ctx, project))

	conversation := &core.Conversation{
		ProjectID:    project.ID,
		UserID:       project.OwnerID,
		UseDocuments: true,
	}
	require.NoError(t, desk.Store().CreateConversation(ctx, conversation))

	provider.GetMockCompleter().Response = "Deployment question"

	reply, err := desk.SendMessage(ctx, conversation.ID, "Can we deploy on-premise?", false)
	require.NoError(t, err)
	assert.Equal(t, core.RoleAssistant, reply.Role)

	// First exchange complete: the title job was queued.
	desk.Drain()
	updated, err := desk.Store().GetConversation(ctx, conversation.ID)
	require.NoError(t, err)
	assert.Equal(t, "Deployment question", updated.Title)
	assert.True(t, updated.AutoTitled)

	// Later exchanges do not retitle.
	provider.GetMockCompleter().Response = "Yes, fully supported."
	_, err = desk.SendMessage(ctx, conversation.ID, "Is it supported in Europe?", false)
	require.NoError(t, err)
	desk.Drain()

	final, err := desk.Store().GetConversation(ctx, conversation.ID)
	require.NoError(t, err)
	assert.Equal(t, "Deployment question", final.Title)
}

func TestDeskSearchAndReindex(t *testing.T) {
	desk, provider, index := newTestDesk(t)
	ctx := context.Background()

	// Pin embeddings so the uploaded chunks and the query land on the
	// same vector.
	provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}

	project := &core.Project{
		OwnerID:          core.NewID(),
		Name:             "tender",
		MaxContextTokens: 100000,
	}
	require.NoError(t, desk.Store().CreateProject(ctx, project))

	content := strings.Repeat("The client requires on-premise deployment. ", 30)
	document, admission, err := desk.Pipeline().Admit(ctx, project.ID, "requirements.txt", "rfp", strings.NewReader(content))
	require.NoError(t, err)
	require.True(t, admission.Allowed)
	desk.Drain()

	matches, err := desk.Searcher().Search(ctx, project.ID, "on-premise deployment", 5)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "requirements.txt", matches[0].Result.Metadata.Filename)

	recordsBefore := index.Len()

	reindexer, err := desk.Reindexer(nil, nil)
	require.NoError(t, err)
	require.NoError(t, reindexer.Run(ctx, project.ID))

	assert.Equal(t, recordsBefore, index.Len())

	reindexed, err := desk.Store().GetDocument(ctx, document.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, reindexed.Status)
	assert.Equal(t, reindexed.ChunkCount, reindexed.ProcessedChunks)
}
