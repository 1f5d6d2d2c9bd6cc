package doctalk

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/doctalk/convert"
	convertmock "github.com/poiesic/doctalk/convert/mock"
	llmmock "github.com/poiesic/doctalk/llm/mock"
)

func newTestApp(t *testing.T, dataDir string) (*App, *convertmock.Converter, *llmmock.Generator) {
	t.Helper()
	converter := &convertmock.Converter{
		ConvertFunc: func(ctx context.Context, data []byte, filename string, onProgress convert.ProgressFunc) (string, error) {
			return "extracted text of " + filename, nil
		},
	}
	generator := &llmmock.Generator{
		GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
			return "the answer", nil
		},
	}

	app, err := NewApp(context.Background(), &Config{DataDir: dataDir},
		WithConverter(converter), WithGenerator(generator))
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })
	return app, converter, generator
}

func writeTestFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("file body"), 0644))
	return path
}

func TestApp_IngestAndAsk(t *testing.T) {
	dataDir := t.TempDir()
	app, _, generator := newTestApp(t, dataDir)
	ctx := context.Background()

	path := writeTestFile(t, t.TempDir(), "notes.txt")
	record, err := app.IngestFile(ctx, path, nil)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", record.Filename)

	answer, sources, err := app.Ask(ctx, "extracted text")
	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)
	require.Len(t, sources, 1)
	assert.Equal(t, record.Id, sources[0].Document.Id)

	prompts := generator.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "extracted text of notes.txt")
	assert.Contains(t, prompts[0], "Current Question: extracted text")

	conversations := app.Conversations()
	require.Len(t, conversations, 1)
	require.Len(t, conversations[0].Messages, 2)
	assert.Equal(t, "extracted text", conversations[0].Messages[0].Content)
	assert.Equal(t, "the answer", conversations[0].Messages[1].Content)
}

func TestApp_AskCarriesHistory(t *testing.T) {
	app, _, generator := newTestApp(t, t.TempDir())
	ctx := context.Background()

	_, _, err := app.Ask(ctx, "first question")
	require.NoError(t, err)
	_, _, err = app.Ask(ctx, "second question")
	require.NoError(t, err)

	prompts := generator.Prompts()
	require.Len(t, prompts, 2)
	assert.NotContains(t, prompts[0], "Previous conversation context")
	assert.Contains(t, prompts[1], "Previous conversation context")
	assert.Contains(t, prompts[1], "user: first question")
	assert.Contains(t, prompts[1], "assistant: the answer")
}

func TestApp_StatePersistsAcrossRestart(t *testing.T) {
	dataDir := t.TempDir()
	ctx := context.Background()
	path := writeTestFile(t, t.TempDir(), "doc.pdf")

	app, _, _ := newTestApp(t, dataDir)
	record, err := app.IngestFile(ctx, path, nil)
	require.NoError(t, err)
	_, _, err = app.Ask(ctx, "a question")
	require.NoError(t, err)
	require.NoError(t, app.Close())

	reopened, _, _ := newTestApp(t, dataDir)
	docs := reopened.Documents()
	require.Len(t, docs, 1)
	assert.Equal(t, record.Id, docs[0].Id)
	assert.Equal(t, record.Content, docs[0].Content)

	// The dedup index survived too: re-ingesting is a duplicate.
	_, err = reopened.IngestFile(ctx, path, nil)
	assert.Error(t, err)

	conversations := reopened.Conversations()
	require.Len(t, conversations, 1)
	assert.Len(t, conversations[0].Messages, 2)
}

func TestApp_RemoveEvictsHash(t *testing.T) {
	app, _, _ := newTestApp(t, t.TempDir())
	ctx := context.Background()
	path := writeTestFile(t, t.TempDir(), "doc.pdf")

	record, err := app.IngestFile(ctx, path, nil)
	require.NoError(t, err)

	require.NoError(t, app.Remove(ctx, record.Id))
	assert.Empty(t, app.Documents())

	// Same file ingests again after removal.
	again, err := app.IngestFile(ctx, path, nil)
	require.NoError(t, err)
	assert.NotEqual(t, record.Id, again.Id)

	assert.ErrorIs(t, app.Remove(ctx, "missing"), ErrDocumentNotFound)
}

func TestApp_Clear(t *testing.T) {
	app, _, _ := newTestApp(t, t.TempDir())
	ctx := context.Background()
	path := writeTestFile(t, t.TempDir(), "doc.pdf")

	_, err := app.IngestFile(ctx, path, nil)
	require.NoError(t, err)
	_, _, err = app.Ask(ctx, "q")
	require.NoError(t, err)

	require.NoError(t, app.Clear(ctx))
	assert.Empty(t, app.Documents())
	assert.Empty(t, app.Conversations())

	// Cleared hash index means the file is ingestable again.
	_, err = app.IngestFile(ctx, path, nil)
	require.NoError(t, err)
}

func TestApp_NewConversation(t *testing.T) {
	app, _, _ := newTestApp(t, t.TempDir())
	ctx := context.Background()

	_, _, err := app.Ask(ctx, "on the first conversation")
	require.NoError(t, err)

	fresh, err := app.NewConversation(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(fresh.Title, "Conversation "))

	_, _, err = app.Ask(ctx, "on the second conversation")
	require.NoError(t, err)

	conversations := app.Conversations()
	require.Len(t, conversations, 2)
	assert.Len(t, conversations[0].Messages, 2)
	assert.Len(t, conversations[1].Messages, 2)
}

func TestApp_AskWithNoDocuments(t *testing.T) {
	app, _, generator := newTestApp(t, t.TempDir())

	answer, sources, err := app.Ask(context.Background(), "anything at all")
	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)
	assert.Empty(t, sources)

	prompts := generator.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "Document Content:")
}
