package sse

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"sfapps-deck-go/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// syncRecorder 心跳协程和测试协程会同时读写 Body
type syncRecorder struct {
	mu sync.Mutex
	*httptest.ResponseRecorder
}

func (r *syncRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Write(p)
}

func (r *syncRecorder) body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Body.String()
}

func events(t *testing.T, body string) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, chunk := range strings.Split(body, "\n\n") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		require.True(t, strings.HasPrefix(chunk, "data: "), chunk)
		var ev map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(chunk, "data: ")), &ev))
		out = append(out, ev)
	}
	return out
}

func TestWriterProgress(t *testing.T) {
	rec := &syncRecorder{ResponseRecorder: httptest.NewRecorder()}
	state := model.NewDeckState("Healthcare", []string{"https://a.com", "https://b.com"})
	w, err := newWriter(rec, state, time.Hour)
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	require.NoError(t, w.SetAction(5, "Resolving listings..."))
	require.NoError(t, w.SetListing(1, &model.ResolvedEntry{
		Number: 2, Name: "Beta", Developer: "Bolt",
		Listing: model.Listing{URL: "https://b.com", Sources: []string{"static"}},
	}))
	require.NoError(t, w.SetAction(1, "going backwards"))
	require.NoError(t, w.SetListing(0, &model.ResolvedEntry{
		Number: 1, Name: model.ManualInputRequired, NeedsInput: true,
		Listing: model.Listing{URL: "https://a.com"},
	}))
	require.NoError(t, w.SendPreview(&model.Preview{Slides: []model.PreviewSlide{{Kind: "cover"}}}))

	evs := events(t, rec.body())
	require.Len(t, evs, 5)

	assert.EqualValues(t, 5, evs[0]["overall"])
	assert.EqualValues(t, 47, evs[1]["overall"])
	assert.EqualValues(t, 47, evs[2]["overall"], "progress never decreases")
	assert.EqualValues(t, 90, evs[3]["overall"])

	listings := evs[3]["listings"].([]interface{})
	assert.Equal(t, "manual", listings[0].(map[string]interface{})["status"])
	assert.Equal(t, "done", listings[1].(map[string]interface{})["status"])

	last := evs[4]
	assert.Equal(t, "completed", last["status"])
	assert.EqualValues(t, 100, last["overall"])
	assert.NotNil(t, last["preview"])
}

func TestWriterGlobalError(t *testing.T) {
	rec := &syncRecorder{ResponseRecorder: httptest.NewRecorder()}
	w, err := newWriter(rec, model.NewDeckState("x", nil), time.Hour)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.SendGlobalError("boom"))
	evs := events(t, rec.body())
	require.Len(t, evs, 1)
	assert.Equal(t, "error", evs[0]["status"])
	assert.Equal(t, "boom", evs[0]["error"])
}

func TestWriterHeartbeat(t *testing.T) {
	rec := &syncRecorder{ResponseRecorder: httptest.NewRecorder()}
	w, err := newWriter(rec, model.NewDeckState("x", nil), 10*time.Millisecond)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return strings.Contains(rec.body(), `"status":"heartbeat"`)
	}, time.Second, 5*time.Millisecond)

	w.Close()
	w.Close()
}

func TestWriterDone(t *testing.T) {
	rec := &syncRecorder{ResponseRecorder: httptest.NewRecorder()}
	w, err := NewWriter(rec, model.NewDeckState("x", []string{"https://a.com"}))
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Done())
	evs := events(t, rec.body())
	require.Len(t, evs, 1)
	assert.EqualValues(t, 100, evs[0]["overall"])
}
