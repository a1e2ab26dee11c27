package rag

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IrfanArv/dms-ai/internal/domain/entity"
	"github.com/IrfanArv/dms-ai/pkg/uploads"
)

// --- Mock implementations ---

type mockStore struct {
	results   []entity.RetrievalResult
	searchErr error
	count     int
	countErr  error

	lastQuery string
	lastK     int
}

func (m *mockStore) Add(_ context.Context, _ []entity.Chunk, _ entity.DocumentMetadata) error {
	return nil
}

func (m *mockStore) SimilaritySearch(_ context.Context, query string, k int) ([]entity.RetrievalResult, error) {
	m.lastQuery = query
	m.lastK = k
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if k > len(m.results) {
		return m.results, nil
	}
	return m.results[:k], nil
}

func (m *mockStore) Count(_ context.Context) (int, error) {
	return m.count, m.countErr
}

type mockGenerator struct {
	fragments []entity.Fragment
	setupErr  error

	called     bool
	lastPrompt string
	lastTemp   float32
}

func (m *mockGenerator) Generate(_ context.Context, prompt string, temperature float32) (<-chan entity.Fragment, error) {
	m.called = true
	m.lastPrompt = prompt
	m.lastTemp = temperature
	if m.setupErr != nil {
		return nil, m.setupErr
	}
	ch := make(chan entity.Fragment, len(m.fragments))
	for _, f := range m.fragments {
		ch <- f
	}
	close(ch)
	return ch, nil
}

func chunkResult(text, filename, fileType string, index int, score float64) entity.RetrievalResult {
	return entity.RetrievalResult{
		Chunk: entity.Chunk{
			Text:  text,
			Index: index,
			Metadata: entity.DocumentMetadata{
				Filename: filename,
				FileType: fileType,
			},
		},
		Score: score,
	}
}

func newTestService(t *testing.T, store *mockStore, gen *mockGenerator) *Service {
	t.Helper()
	dir, err := uploads.New(t.TempDir())
	require.NoError(t, err)
	return NewService(store, gen, dir, 5, 0.7)
}

// --- Tests ---

func TestAnswer_RetrievesAndGrounds(t *testing.T) {
	store := &mockStore{
		results: []entity.RetrievalResult{
			chunkResult("Invoice policy states 30 day terms.", "policy.pdf", "pdf", 0, 0.91),
			chunkResult("Payment due within 30 days of invoice date.", "policy.pdf", "pdf", 1, 0.87),
		},
		count: 2,
	}
	gen := &mockGenerator{fragments: []entity.Fragment{
		{Text: "Payment is due "},
		{Text: "within 30 days."},
	}}
	svc := newTestService(t, store, gen)

	answer, err := svc.Answer(context.Background(), Request{
		Query:         "What are the payment terms?",
		ContextWindow: 2,
	})

	require.NoError(t, err)
	assert.Equal(t, "Payment is due within 30 days.", answer.Response)
	assert.Equal(t, "What are the payment terms?", store.lastQuery)
	assert.Equal(t, 2, store.lastK)

	// retrieved chunk texts appear verbatim in the context block
	assert.Contains(t, gen.lastPrompt, "Invoice policy states 30 day terms.")
	assert.Contains(t, gen.lastPrompt, "Payment due within 30 days of invoice date.")
	assert.Contains(t, gen.lastPrompt, "What are the payment terms?")

	require.Len(t, answer.Sources, 2)
	assert.Equal(t, "policy.pdf", answer.Sources[0].Metadata.Source)
	assert.Equal(t, "pdf", answer.Sources[0].Metadata.FileType)
	assert.Equal(t, 0.91, answer.Sources[0].Score)
	assert.Equal(t, 0.87, answer.Sources[1].Score)
}

func TestAnswer_AppliesDefaults(t *testing.T) {
	store := &mockStore{}
	gen := &mockGenerator{fragments: []entity.Fragment{{Text: "ok"}}}
	svc := newTestService(t, store, gen)

	_, err := svc.Answer(context.Background(), Request{Query: "anything"})

	require.NoError(t, err)
	assert.Equal(t, 5, store.lastK)
	assert.InDelta(t, 0.7, gen.lastTemp, 1e-6)
}

func TestAnswer_EmptyCorpusStillInvokesModel(t *testing.T) {
	store := &mockStore{count: 0}
	gen := &mockGenerator{fragments: []entity.Fragment{{Text: "no data"}}}
	svc := newTestService(t, store, gen)

	answer, err := svc.Answer(context.Background(), Request{Query: "anything?"})

	require.NoError(t, err)
	assert.True(t, gen.called, "model must be invoked even with an empty corpus")
	assert.Contains(t, gen.lastPrompt, "Context (RETRIEVED_CHUNKS):\n\n\nUser question")
	assert.Empty(t, answer.Sources)
}

func TestAnswer_RetrievalFailure(t *testing.T) {
	store := &mockStore{searchErr: errors.New("backend down")}
	gen := &mockGenerator{}
	svc := newTestService(t, store, gen)

	_, err := svc.Answer(context.Background(), Request{Query: "q"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "retrieval failed")
	assert.False(t, gen.called)
}

func TestAnswerStream_TextEventsThenSources(t *testing.T) {
	store := &mockStore{
		results: []entity.RetrievalResult{
			chunkResult("chunk one", "a.txt", "txt", 0, 0.9),
			chunkResult("chunk two", "b.txt", "txt", 0, 0.8),
		},
		count: 2,
	}
	gen := &mockGenerator{fragments: []entity.Fragment{
		{Text: "Hello"},
		{Text: " there"},
	}}
	svc := newTestService(t, store, gen)

	var events []entity.StreamEvent
	for ev := range svc.AnswerStream(context.Background(), Request{Query: "q", ContextWindow: 2}) {
		events = append(events, ev)
	}

	require.Len(t, events, 3)
	assert.Equal(t, "Hello", events[0].Text)
	assert.Equal(t, " there", events[1].Text)
	require.Len(t, events[2].Sources, 2)
	assert.Equal(t, "a.txt", events[2].Sources[0].Metadata.Source)
	assert.Equal(t, "b.txt", events[2].Sources[1].Metadata.Source)
}

func TestAnswerStream_MidStreamFailure(t *testing.T) {
	store := &mockStore{}
	gen := &mockGenerator{fragments: []entity.Fragment{
		{Text: "partial"},
		{Text: " answer"},
		{Err: errors.New("connection reset")},
	}}
	svc := newTestService(t, store, gen)

	var events []entity.StreamEvent
	for ev := range svc.AnswerStream(context.Background(), Request{Query: "q"}) {
		events = append(events, ev)
	}

	require.Len(t, events, 3)
	assert.Equal(t, "partial", events[0].Text)
	assert.Equal(t, " answer", events[1].Text)
	require.Error(t, events[2].Err)
	assert.Nil(t, events[2].Sources, "no sources after a failed stream")
}

func TestAnswerStream_RetrievalFailureIsSingleErrorEvent(t *testing.T) {
	store := &mockStore{searchErr: errors.New("backend down")}
	svc := newTestService(t, store, &mockGenerator{})

	var events []entity.StreamEvent
	for ev := range svc.AnswerStream(context.Background(), Request{Query: "q"}) {
		events = append(events, ev)
	}

	require.Len(t, events, 1)
	require.Error(t, events[0].Err)
}

func TestAnswer_CountFallbackToUploadedFiles(t *testing.T) {
	store := &mockStore{countErr: fmt.Errorf("store unavailable")}
	gen := &mockGenerator{fragments: []entity.Fragment{{Text: "ok"}}}

	dir, err := uploads.New(t.TempDir())
	require.NoError(t, err)
	_, err = dir.Save("one.txt", []byte("x"))
	require.NoError(t, err)
	svc := NewService(store, gen, dir, 5, 0.7)

	_, err = svc.Answer(context.Background(), Request{Query: "q"})

	require.NoError(t, err)
	assert.Contains(t, gen.lastPrompt, "access to 1 documents")
}
