package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wizards-server/internal/storage"
)

func setupTestServer(t *testing.T, cfg Config) (*Server, string) {
	t.Helper()
	s := newServer(cfg, testBoards(t), storage.NopJournal{})
	server := httptest.NewServer(s.RegisterRoutes())

	t.Cleanup(func() {
		server.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Shutdown(ctx)
	})
	return s, server.URL
}

func dial(t *testing.T, baseURL string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(baseURL, "http") + "/websocket"
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func write(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	msg := map[string]any{"type": msgType, "payload": payload}
	data, err := json.Marshal(msg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, data))
}

type rawServerMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// readUntil reads messages until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) rawServerMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err, "waiting for %s", msgType)

		var msg rawServerMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg.Type == msgType {
			return msg
		}
	}
}

func TestWebSocketJoin(t *testing.T) {
	_, url := setupTestServer(t, DefaultConfig())
	conn := dial(t, url)

	write(t, conn, MsgJoin, JoinRequest{Name: "Alice"})

	joined := readUntil(t, conn, MsgJoinLobby)
	assert.JSONEq(t, `{"name":"Alice"}`, string(joined.Payload))

	state := readUntil(t, conn, MsgLobbyState)
	assert.JSONEq(t, `{"players":["Alice"],"colour_to_player":{}}`, string(state.Payload))
}

func TestWebSocketInvalidJSON(t *testing.T) {
	_, url := setupTestServer(t, DefaultConfig())
	conn := dial(t, url)

	ctx := context.Background()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte("junk")))

	response := readUntil(t, conn, MsgError)
	assert.Contains(t, string(response.Payload), "INVALID_JSON")

	// The connection stays usable.
	write(t, conn, MsgJoin, JoinRequest{Name: "Alice"})
	readUntil(t, conn, MsgJoinLobby)
}

func TestWebSocketUnknownType(t *testing.T) {
	_, url := setupTestServer(t, DefaultConfig())
	conn := dial(t, url)

	write(t, conn, "create_game", nil)

	response := readUntil(t, conn, MsgError)
	var payload ErrorMessage
	require.NoError(t, json.Unmarshal(response.Payload, &payload))
	assert.Equal(t, "INVALID_MESSAGE_TYPE", payload.Code)
}

func TestWebSocketRateLimiting(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit = 0.001
	cfg.RateBurst = 2
	_, url := setupTestServer(t, cfg)
	conn := dial(t, url)

	for range 3 {
		write(t, conn, MsgMouseUpdate, MouseUpdateRequest{MouseX: 0.1, MouseY: 0.1})
	}

	response := readUntil(t, conn, MsgError)
	assert.Contains(t, string(response.Payload), "RATE_LIMITED")
}

func TestWebSocketFullGameStart(t *testing.T) {
	s, url := setupTestServer(t, DefaultConfig())
	alice := dial(t, url)
	bob := dial(t, url)

	write(t, alice, MsgJoin, JoinRequest{Name: "Alice"})
	readUntil(t, alice, MsgJoinLobby)
	write(t, bob, MsgJoin, JoinRequest{Name: "Bob"})
	readUntil(t, bob, MsgJoinLobby)

	write(t, alice, MsgChooseColour, ChooseColourRequest{Colour: 0})
	animation := readUntil(t, alice, MsgDoAnimation)
	assert.JSONEq(t, `{"type":"character_selected","character_index":0}`, string(animation.Payload))
	write(t, bob, MsgChooseColour, ChooseColourRequest{Colour: 1})
	readUntil(t, bob, MsgDoAnimation)

	write(t, alice, MsgStart, StartRequest{MapName: "library"})

	for _, conn := range []*websocket.Conn{alice, bob} {
		init := readUntil(t, conn, MsgStateTransition)
		var msg struct {
			Name string `json:"name"`
			Data struct {
				MapName        string         `json:"map_name"`
				PlayerOrder    []string       `json:"player_order"`
				PlayerToColour map[string]int `json:"player_to_colour"`
			} `json:"data"`
			NewState map[string]any `json:"new_state"`
		}
		require.NoError(t, json.Unmarshal(init.Payload, &msg))
		assert.Equal(t, "start_game_init_state", msg.Name)
		assert.Equal(t, "library", msg.Data.MapName)
		assert.ElementsMatch(t, []string{"Alice", "Bob"}, msg.Data.PlayerOrder)
		assert.Equal(t, map[string]int{"Alice": 0, "Bob": 1}, msg.Data.PlayerToColour)
		assert.Equal(t, float64(0), msg.NewState["round"])
		assert.Equal(t, float64(0), msg.NewState["current_player"])

		animation := readUntil(t, conn, MsgStateTransition)
		assert.Contains(t, string(animation.Payload), `"start_game_animation"`)

		readUntil(t, conn, MsgMouseUpdate)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	status, err := s.session.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "game", string(status.Phase))
}

func TestHealthHandler(t *testing.T) {
	_, url := setupTestServer(t, DefaultConfig())

	resp, err := http.Get(url + "/health")
	if err != nil {
		t.Fatalf("error making request to server. Err: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status OK; got %v", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok","phase":"lobby","players":[],"connections":0}`, string(body))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestCorsRestrictedOrigins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AllowedOrigins = []string{"https://wizards.example"}
	_, url := setupTestServer(t, cfg)

	req, err := http.NewRequest(http.MethodOptions, url+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://wizards.example")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://wizards.example", resp.Header.Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://evil.example")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}
