package service

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theapemachine/a2a-engine/pkg/a2a"
	"github.com/theapemachine/a2a-engine/pkg/eventqueue"
	"github.com/theapemachine/a2a-engine/pkg/jsonrpc"
	"github.com/theapemachine/a2a-engine/pkg/push"
	"github.com/theapemachine/a2a-engine/pkg/stores"
)

func newTestServer() *Server {
	handler := NewRequestHandler(
		NewEchoExecutor(),
		stores.NewInMemoryTaskStore(),
		eventqueue.NewManager(),
		push.NewService(),
	)

	card := &a2a.AgentCard{Name: "Test Agent", Version: "0.0.1"}
	return NewServer(card, handler)
}

func postRPC(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.serveRPC(rec, req)

	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) jsonrpc.RPCResponse {
	t.Helper()

	var resp jsonrpc.RPCResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	return resp
}

func TestServeRPCErrors(t *testing.T) {
	srv := newTestServer()

	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed json", `{not json`, -32700},
		{"empty body", ``, -32600},
		{"wrong version", `{"jsonrpc":"1.0","id":1,"method":"tasks/get"}`, -32600},
		{"unknown method", `{"jsonrpc":"2.0","id":1,"method":"tasks/unknown"}`, -32601},
		{"bad params", `{"jsonrpc":"2.0","id":1,"method":"tasks/get","params":{"id":42}}`, -32602},
		{"missing task", `{"jsonrpc":"2.0","id":1,"method":"tasks/get","params":{"id":"nope"}}`, -32001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := decodeResponse(t, postRPC(t, srv, tt.body))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestServeRPCMessageSend(t *testing.T) {
	srv := newTestServer()

	body := `{"jsonrpc":"2.0","id":"req-1","method":"message/send","params":{
		"message":{"kind":"message","messageId":"m1","role":"user","parts":[{"kind":"text","text":"ping"}]}
	}}`

	resp := decodeResponse(t, postRPC(t, srv, body))
	require.Nil(t, resp.Error)
	assert.Equal(t, `"req-1"`, string(resp.ID))

	result, err := json.Marshal(resp.Result)
	require.NoError(t, err)

	event, err := a2a.UnmarshalEvent(result)
	require.NoError(t, err)

	task, ok := event.(*a2a.Task)
	require.True(t, ok)
	assert.Equal(t, a2a.TaskStateCompleted, task.Status.State)
	require.Len(t, task.Artifacts, 1)
	assert.Equal(t, "ping", task.Artifacts[0].Parts[0].Text)
}

func TestServeRPCNotification(t *testing.T) {
	srv := newTestServer()

	body := `{"jsonrpc":"2.0","method":"message/send","params":{
		"message":{"kind":"message","messageId":"m1","role":"user","parts":[{"kind":"text","text":"fire and forget"}]}
	}}`

	rec := postRPC(t, srv, body)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestServeRPCBatch(t *testing.T) {
	srv := newTestServer()

	t.Run("answers element-wise", func(t *testing.T) {
		body := `[
			{"jsonrpc":"2.0","id":1,"method":"tasks/get","params":{"id":"nope"}},
			{"jsonrpc":"2.0","id":2,"method":"tasks/unknown"},
			{"jsonrpc":"2.0","method":"tasks/get","params":{"id":"nope"}}
		]`

		rec := postRPC(t, srv, body)

		var responses []jsonrpc.RPCResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &responses))

		// The notification gets no response element.
		require.Len(t, responses, 2)
		assert.Equal(t, -32001, responses[0].Error.Code)
		assert.Equal(t, -32601, responses[1].Error.Code)
	})

	t.Run("all notifications yields 204", func(t *testing.T) {
		body := `[{"jsonrpc":"2.0","method":"tasks/get","params":{"id":"nope"}}]`

		rec := postRPC(t, srv, body)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("streaming is refused in a batch", func(t *testing.T) {
		body := `[{"jsonrpc":"2.0","id":1,"method":"message/stream","params":{}}]`

		rec := postRPC(t, srv, body)

		var responses []jsonrpc.RPCResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &responses))
		require.Len(t, responses, 1)
		assert.Equal(t, -32004, responses[0].Error.Code)
	})
}

func TestServeRPCStream(t *testing.T) {
	srv := newTestServer()

	body := `{"jsonrpc":"2.0","id":7,"method":"message/stream","params":{
		"message":{"kind":"message","messageId":"m1","role":"user","parts":[{"kind":"text","text":"stream"}]}
	}}`

	rec := postRPC(t, srv, body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	var kinds []string
	scanner := bufio.NewScanner(rec.Body)

	for scanner.Scan() {
		line := scanner.Text()

		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var resp struct {
			ID     json.RawMessage `json:"id"`
			Result json.RawMessage `json:"result"`
		}

		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &resp))
		assert.Equal(t, "7", string(resp.ID))

		event, err := a2a.UnmarshalEvent(resp.Result)
		require.NoError(t, err)
		kinds = append(kinds, event.EventKind())
	}

	assert.Equal(t, []string{
		a2a.KindTask,
		a2a.KindStatusUpdate,
		a2a.KindArtifactUpdate,
		a2a.KindStatusUpdate,
	}, kinds)
}

func TestServeRPCStreamErrorFrame(t *testing.T) {
	handler := NewRequestHandler(
		failingExecutor{},
		stores.NewInMemoryTaskStore(),
		eventqueue.NewManager(),
		push.NewService(),
	)

	srv := NewServer(&a2a.AgentCard{Name: "Test Agent"}, handler)

	body := `{"jsonrpc":"2.0","id":9,"method":"message/stream","params":{
		"message":{"kind":"message","messageId":"m1","role":"user","parts":[{"kind":"text","text":"doomed"}]}
	}}`

	rec := postRPC(t, srv, body)
	assert.Equal(t, http.StatusOK, rec.Code)

	var frames []jsonrpc.RPCResponse
	scanner := bufio.NewScanner(rec.Body)

	for scanner.Scan() {
		line := scanner.Text()

		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var resp jsonrpc.RPCResponse
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &resp))
		frames = append(frames, resp)
	}

	// The task frame, then the closing error frame.
	require.GreaterOrEqual(t, len(frames), 2)

	last := frames[len(frames)-1]
	require.NotNil(t, last.Error)
	assert.Equal(t, -32603, last.Error.Code)
}

func TestAuthMiddleware(t *testing.T) {
	var gotUser User

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = CallContextFrom(r.Context()).User
		w.WriteHeader(http.StatusOK)
	})

	t.Run("nil checker admits anonymous", func(t *testing.T) {
		rec := httptest.NewRecorder()
		AuthMiddleware(nil, inner).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/rpc", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, Anonymous, gotUser)
	})

	t.Run("api key checker", func(t *testing.T) {
		protected := AuthMiddleware(APIKeyAuth{Key: "sekrit"}, inner)

		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/rpc", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		req := httptest.NewRequest(http.MethodPost, "/rpc", nil)
		req.Header.Set("X-API-Key", "sekrit")

		rec = httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, gotUser.Authenticated)
	})

	t.Run("bearer checker", func(t *testing.T) {
		protected := AuthMiddleware(BearerAuth{Token: "tok"}, inner)

		req := httptest.NewRequest(http.MethodPost, "/rpc", nil)
		req.Header.Set("Authorization", "Bearer tok")

		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
