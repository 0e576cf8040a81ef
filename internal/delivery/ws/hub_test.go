package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/portfolio-admin/internal/models"
	"github.com/Vovarama1992/portfolio-admin/internal/ports"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const adminToken = "t0k"

type tokenAuth struct{}

func (tokenAuth) Login(ctx context.Context, password string) (string, error) { return adminToken, nil }

func (tokenAuth) ValidateToken(ctx context.Context, token string) (bool, error) {
	return token == adminToken, nil
}

type stubNormalizer struct {
	reqs chan models.NormalizeRequest
	// gate, when set, holds NormalizeAll until it is closed.
	gate   chan struct{}
	ctxErr chan error
}

func newStub() *stubNormalizer {
	return &stubNormalizer{
		reqs:   make(chan models.NormalizeRequest, 1),
		ctxErr: make(chan error, 1),
	}
}

func (s *stubNormalizer) NormalizeAll(ctx context.Context, req models.NormalizeRequest) (*models.NormalizeReport, error) {
	s.reqs <- req
	if s.gate != nil {
		<-s.gate
	}
	s.ctxErr <- ctx.Err()
	return &models.NormalizeReport{Collection: req.Collection, Column: req.Column, Total: 3, Updated: 2, Errors: []models.RecordError{}}, nil
}

func (s *stubNormalizer) Events() <-chan ports.NormalizeEvent { return nil }

var defaults = models.NormalizeRequest{Collection: "project_images", Column: "image_url"}

func setup(t *testing.T, n *stubNormalizer) (*Hub, string) {
	t.Helper()
	log := logger.NewZapLogger(zap.NewNop().Sugar())
	hub := NewHub(log)
	srv := httptest.NewServer(WSHandler(hub, n, tokenAuth{}, defaults, time.Minute, log))
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string, header http.Header) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestWSHandler_RequiresToken(t *testing.T) {
	n := newStub()
	_, url := setup(t, n)

	for _, target := range []string{url, url + "?token=forged"} {
		conn, resp, err := websocket.DefaultDialer.Dial(target, nil)
		require.ErrorIs(t, err, websocket.ErrBadHandshake)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Nil(t, conn)
		resp.Body.Close()
	}

	select {
	case req := <-n.reqs:
		t.Fatalf("run started without a token: %+v", req)
	default:
	}
}

func TestWSHandler_InitStartsRun(t *testing.T) {
	n := newStub()
	_, url := setup(t, n)
	conn := dial(t, url+"?roomID=projects", http.Header{"X-Auth": {adminToken}})

	require.NoError(t, conn.WriteJSON(map[string]any{"collection": "projects", "dryRun": true}))

	assert.Equal(t, "processing_started", readJSON(t, conn)["status"])
	done := readJSON(t, conn)
	assert.Equal(t, "ok", done["status"])
	report, ok := done["report"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 2, report["updatedCount"], 0)

	got := <-n.reqs
	assert.Equal(t, models.NormalizeRequest{Collection: "projects", Column: "image_url", DryRun: true}, got)
}

func TestWSHandler_FollowsRunCollection(t *testing.T) {
	n := newStub()
	n.gate = make(chan struct{})
	t.Cleanup(func() { close(n.gate) })

	hub, url := setup(t, n)
	conn := dial(t, url+"?token="+adminToken, nil)

	require.NoError(t, conn.WriteJSON(map[string]any{"collection": "projects", "column": "featured_image_url"}))
	assert.Equal(t, "processing_started", readJSON(t, conn)["status"])
	<-n.reqs

	assert.Equal(t, 1, hub.RoomSize("projects"))
	assert.Zero(t, hub.RoomSize("project_images"))

	events := make(chan ports.NormalizeEvent, 1)
	events <- ports.NormalizeEvent{Kind: ports.EventUpdated, Collection: "projects", RecordID: "p1", To: "prj3-cover.jpg"}
	close(events)
	hub.Relay(events)

	msg := readJSON(t, conn)
	assert.Equal(t, "updated", msg["type"])
	assert.Equal(t, "p1", msg["id"])
}

func TestWSHandler_RejectsCollectionOutsideRoom(t *testing.T) {
	n := newStub()
	_, url := setup(t, n)
	conn := dial(t, url+"?roomID=project_images&token="+adminToken, nil)

	require.NoError(t, conn.WriteJSON(map[string]any{"collection": "projects"}))
	msg := readJSON(t, conn)
	assert.Equal(t, "error", msg["status"])
	assert.Contains(t, msg["error"], "does not match room")

	select {
	case req := <-n.reqs:
		t.Fatalf("run started for another room: %+v", req)
	default:
	}
}

func TestWSHandler_RunOutlivesConnection(t *testing.T) {
	n := newStub()
	n.gate = make(chan struct{})

	hub, url := setup(t, n)
	conn := dial(t, url+"?token="+adminToken, nil)

	require.NoError(t, conn.WriteJSON(map[string]any{"collection": "project_images"}))
	assert.Equal(t, "processing_started", readJSON(t, conn)["status"])
	<-n.reqs

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.RoomSize("project_images") == 0 }, 2*time.Second, 10*time.Millisecond)

	close(n.gate)
	assert.NoError(t, <-n.ctxErr)
}

func TestWSHandler_BadInit(t *testing.T) {
	_, url := setup(t, newStub())
	conn := dial(t, url, http.Header{"X-Auth": {adminToken}})

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))
	assert.Equal(t, "error", readJSON(t, conn)["status"])
}

func TestHub_Relay(t *testing.T) {
	hub, url := setup(t, newStub())
	conn := dial(t, url, http.Header{"X-Auth": {adminToken}})

	require.Eventually(t, func() bool { return hub.RoomSize("project_images") == 1 }, 2*time.Second, 10*time.Millisecond)

	events := make(chan ports.NormalizeEvent, 2)
	events <- ports.NormalizeEvent{
		Kind:       ports.EventUpdated,
		Collection: "project_images",
		Column:     "image_url",
		RecordID:   "1",
		From:       "/images/[prj1]a.png",
		To:         "prj1-a.png",
	}
	events <- ports.NormalizeEvent{Kind: ports.EventUpdated, Collection: "elsewhere", RecordID: "2"}
	close(events)
	hub.Relay(events)

	msg := readJSON(t, conn)
	assert.Equal(t, "updated", msg["type"])
	assert.Equal(t, "1", msg["id"])
	assert.Equal(t, "prj1-a.png", msg["to"])
}

func TestHub_UnregisterDropsEmptyRoom(t *testing.T) {
	hub, url := setup(t, newStub())
	conn := dial(t, url+"?roomID=r1&token="+adminToken, nil)

	require.Eventually(t, func() bool { return hub.RoomSize("r1") == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.RoomSize("r1") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestStatusJSON(t *testing.T) {
	log := logger.NewZapLogger(zap.NewNop().Sugar())

	raw := statusJSON(log, statusMsg{Status: "ok", Report: &models.NormalizeReport{Total: 1, Errors: []models.RecordError{}}})
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "ok", out["status"])
	assert.NotContains(t, out, "error")
}
