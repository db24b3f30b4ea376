package photo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialStream(t *testing.T, g Generator) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(newTestRouter(g, 0))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/generate/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntilDone - result 또는 error 메시지까지 읽음
func readUntilDone(t *testing.T, conn *websocket.Conn) []StreamMessage {
	t.Helper()
	var msgs []StreamMessage
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg StreamMessage
		require.NoError(t, conn.ReadJSON(&msg))
		msgs = append(msgs, msg)
		if msg.Type != "stage" {
			return msgs
		}
	}
}

func TestStream_StagesThenResult(t *testing.T) {
	conn := dialStream(t, newTestService(&mockText{}, &mockImage{}, nil, nil))
	require.NoError(t, conn.WriteJSON(validRequest()))

	msgs := readUntilDone(t, conn)
	require.Len(t, msgs, 6)

	var stages []Stage
	for _, m := range msgs[:5] {
		assert.Equal(t, "stage", m.Type)
		stages = append(stages, m.Stage)
	}
	assert.Equal(t, []Stage{StageValidating, StagePromptBuilt, StageTextCallDone, StageImageCallAttempted, StageMerged}, stages)

	last := msgs[5]
	assert.Equal(t, "result", last.Type)
	require.NotNil(t, last.Result)
	assert.True(t, last.Result.Success)
	assert.Equal(t, "https://replicate.delivery/mock.png", last.Result.ImageURL)

	for _, m := range msgs {
		assert.Equal(t, msgs[0].Session, m.Session)
	}
	assert.NotEmpty(t, msgs[0].Session)

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
}

func TestStream_ValidationError(t *testing.T) {
	text := &mockText{}
	conn := dialStream(t, newTestService(text, nil, nil, nil))
	require.NoError(t, conn.WriteJSON(GenerateRequest{ISO: "400"}))

	msgs := readUntilDone(t, conn)
	last := msgs[len(msgs)-1]
	assert.Equal(t, "error", last.Type)
	assert.Equal(t, http.StatusBadRequest, last.Status)
	assert.Equal(t, "Missing required camera parameters", last.Error)
	assert.Zero(t, text.Calls())
}

func TestStream_InvalidMessage(t *testing.T) {
	conn := dialStream(t, newTestService(&mockText{}, nil, nil, nil))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	msgs := readUntilDone(t, conn)
	require.Len(t, msgs, 1)
	assert.Equal(t, "error", msgs[0].Type)
	assert.Equal(t, http.StatusBadRequest, msgs[0].Status)
}

func TestStream_ClientDisconnectCancelsGenerate(t *testing.T) {
	started := make(chan struct{})
	cancelled := make(chan error, 1)
	g := &mockGenerator{GenerateFn: func(ctx context.Context, _ GenerateRequest, _ ProgressFunc) (*GenerationResult, error) {
		close(started)
		<-ctx.Done()
		cancelled <- ctx.Err()
		return nil, ctx.Err()
	}}
	conn := dialStream(t, g)
	require.NoError(t, conn.WriteJSON(validRequest()))

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("Generate was not called")
	}
	require.NoError(t, conn.Close())

	select {
	case err := <-cancelled:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Generate context was not cancelled after disconnect")
	}
}
