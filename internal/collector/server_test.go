package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/iotlab/internal/analytics"
	"github.com/abhisek/iotlab/internal/progression"
	"github.com/abhisek/iotlab/internal/store"
	"github.com/abhisek/iotlab/internal/upload"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	st, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	srv := httptest.NewServer(NewServer(st.UploadRepo(), slog.New(slog.NewTextHandler(io.Discard, nil))).Router())
	t.Cleanup(srv.Close)
	return srv, st
}

func payload(id string) upload.Payload {
	recs := []progression.DecisionRecord{
		{QuestionID: "porch-light", Outcome: progression.OutcomeFailed, Attempt: 1},
		{QuestionID: "porch-light", Outcome: progression.OutcomeSolved, Attempt: 2},
	}
	p := upload.Payload{
		SessionID: id,
		Mode:      "circuit",
		TotalXP:   140,
		StartedAt: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
		EndedAt:   time.Date(2026, 6, 1, 12, 5, 0, 0, time.UTC),
		Report:    analytics.Aggregate(recs),
	}
	for _, r := range recs {
		p.Records = append(p.Records, upload.FromDecision(r))
	}
	return p
}

func decode(t *testing.T, resp *http.Response) apiResponse {
	t.Helper()
	defer resp.Body.Close()
	var out apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode(t, resp).Success)
}

func TestUploadClientRoundTrip(t *testing.T) {
	srv, st := newTestServer(t)

	client := upload.NewClient(upload.Config{URL: srv.URL + "/v1/sessions", Timeout: 2 * time.Second}, nil)
	require.NoError(t, client.Send(context.Background(), payload("sess-1")))

	stored, err := st.UploadRepo().Get(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Records)
	assert.InDelta(t, 0.5, stored.Accuracy, 1e-9)

	resp, err := http.Get(srv.URL + "/v1/sessions/sess-1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	data, err := json.Marshal(body.Data)
	require.NoError(t, err)
	var got upload.Payload
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "sess-1", got.SessionID)
	assert.Len(t, got.Records, 2)
}

func TestGetUnknownSession(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/v1/sessions/nope")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", decode(t, resp).Error.Code)
}

func TestCreateRejectsBadInput(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed", `{"session_id":`, http.StatusBadRequest},
		{"unknown field", `{"session_id":"x","extra":1}`, http.StatusBadRequest},
		{"missing id", `{"mode":"circuit"}`, http.StatusUnprocessableEntity},
		{"bad outcome", `{"session_id":"x","records":[{"question_id":"q","outcome":"quit"}]}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/v1/sessions", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.code, resp.StatusCode)
		})
	}
}

func TestCreateRejectsOversizedBody(t *testing.T) {
	srv, _ := newTestServer(t)
	big := `{"session_id":"` + strings.Repeat("a", MaxBodyBytes) + `"}`
	resp, err := http.Post(srv.URL+"/v1/sessions", "application/json", strings.NewReader(big))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestListSessions(t *testing.T) {
	srv, _ := newTestServer(t)
	client := upload.NewClient(upload.Config{URL: srv.URL + "/v1/sessions"}, nil)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, client.Send(context.Background(), payload(id)))
	}

	resp, err := http.Get(srv.URL + "/v1/sessions?limit=2")
	require.NoError(t, err)
	body := decode(t, resp)
	list, ok := body.Data.([]any)
	require.True(t, ok, "data = %T", body.Data)
	assert.Len(t, list, 2)
	first, ok := list[0].(map[string]any)
	require.True(t, ok, "item = %T", list[0])
	assert.Equal(t, "circuit", first["mode"])
	assert.EqualValues(t, 140, first["total_xp"])
	assert.Contains(t, first, "session_id")
	assert.Contains(t, first, "received_at")

	resp, err = http.Get(srv.URL + "/v1/sessions?limit=zero")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
