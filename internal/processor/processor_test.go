package processor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendalia/opcenter/internal/llm"
	"github.com/vendalia/opcenter/internal/model"
	"github.com/vendalia/opcenter/internal/store"
	"github.com/vendalia/opcenter/pkg/logger"
)

func testBatch(conversationID string, contents ...string) []model.QueueEntry {
	batch := make([]model.QueueEntry, 0, len(contents))
	for _, c := range contents {
		batch = append(batch, model.QueueEntry{
			ID:             uuid.Must(uuid.NewV7()).String(),
			ConversationID: conversationID,
			Content:        c,
			EnqueuedAt:     time.Now(),
		})
	}
	return batch
}

func TestHTTPStepPostsBatch(t *testing.T) {
	var gotAuth string
	var gotBody map[string][]model.QueueEntry
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"delivered":2}`))
	}))
	defer srv.Close()

	step := NewHTTPStep(srv.URL, "service-token", time.Second)
	batch := testBatch(uuid.NewString(), "first", "second")

	result, err := step.Process(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.JSONEq(t, `{"delivered":2}`, string(result.Detail))
	assert.Equal(t, "Bearer service-token", gotAuth)
	require.Len(t, gotBody["entries"], 2)
	assert.Equal(t, "first", gotBody["entries"][0].Content)
}

func TestHTTPStepNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	step := NewHTTPStep(srv.URL, "", time.Second)
	_, err := step.Process(context.Background(), testBatch(uuid.NewString(), "payload"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestHTTPStepNonJSONBodyDropped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("plain text ack"))
	}))
	defer srv.Close()

	step := NewHTTPStep(srv.URL, "", time.Second)
	result, err := step.Process(context.Background(), testBatch(uuid.NewString(), "payload"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Nil(t, result.Detail)
}

type fakeLLM struct {
	replies  []string
	requests []*llm.DraftRequest
	err      error
}

func (f *fakeLLM) Draft(_ context.Context, req *llm.DraftRequest) (*llm.DraftResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	reply := "ok"
	if len(f.replies) > 0 {
		reply = f.replies[0]
		if len(f.replies) > 1 {
			f.replies = f.replies[1:]
		}
	}
	return &llm.DraftResponse{Content: reply, Model: "fake"}, nil
}

func (f *fakeLLM) Name() string { return "fake" }

func newResponderEnv(t *testing.T) (*store.Store, *model.Conversation) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	now := time.Now()
	conv := &model.Conversation{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ChannelAddress: "+5511988880000",
		Status:         model.StatusBotAttending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, st.InsertConversation(context.Background(), conv))
	return st, conv
}

func TestResponderDraftsAndAppendsReply(t *testing.T) {
	st, conv := newResponderEnv(t)
	ctx := context.Background()

	customerMsg := &model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conv.ID,
		SenderRole:     model.RoleCustomer,
		ContentType:    model.ContentText,
		Content:        "tem na cor azul?",
		DeliveryStatus: model.DeliveryStatusSent,
		CreatedAt:      time.Now(),
	}
	require.NoError(t, st.AppendMessage(ctx, customerMsg))

	client := &fakeLLM{replies: []string{"Temos sim!"}}
	responder := NewResponder(st, client, nil, "", logger.NewNop())

	result, err := responder.Process(ctx, testBatch(conv.ID, "tem na cor azul?"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Zero(t, result.Failed)

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.NotEmpty(t, req.System)
	// History already ends with the entry content, so no duplicate user turn.
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "user", req.Messages[0].Role)

	history, err := st.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.RoleBot, history[1].SenderRole)
	assert.Equal(t, "Temos sim!", history[1].Content)
}

func TestResponderCountsPerEntryFailures(t *testing.T) {
	st, conv := newResponderEnv(t)

	client := &fakeLLM{err: errors.New("provider overloaded")}
	responder := NewResponder(st, client, nil, "", logger.NewNop())

	result, err := responder.Process(context.Background(), testBatch(conv.ID, "oi", "alguém aí?"))
	require.NoError(t, err, "per-entry failures do not abort the batch")
	assert.Zero(t, result.Processed)
	assert.Equal(t, 2, result.Failed)

	var detail map[string]any
	require.NoError(t, json.Unmarshal(result.Detail, &detail))
	assert.EqualValues(t, 2, detail["failed"])
	assert.Equal(t, "fake", detail["provider"])
}
