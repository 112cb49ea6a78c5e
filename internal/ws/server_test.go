package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/marquee/internal/app"
	"github.com/coreman2200/marquee/internal/bank"
	diag "github.com/coreman2200/marquee/internal/diagnostics"
	"github.com/coreman2200/marquee/internal/driver/preview"
	"github.com/coreman2200/marquee/internal/layout"
	"github.com/coreman2200/marquee/internal/render"
	"github.com/coreman2200/marquee/internal/share"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	sess := app.NewSession(bank.NewStore(), app.Options{Hub: diag.NewHub(8)})
	srv := NewServer(sess, 30)
	srv.Share = share.NewHandler(share.NewMemStore(share.TTL))
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return srv, ts
}

func dial(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	return conn
}

func TestFramesSocketSendsTopologyThenFrames(t *testing.T) {
	srv, ts := newTestServer(t)
	conn := dial(t, ts, "/ws")

	var top struct {
		Dim   map[string]int `json:"dim"`
		Banks int            `json:"banks"`
	}
	require.NoError(t, conn.ReadJSON(&top))
	assert.Equal(t, layout.Width, top.Dim["x"])
	assert.Equal(t, layout.Banks, top.Banks)

	var f render.Frame
	f[0][3] = true
	srv.BroadcastFrame(f)

	var msg frameMsg
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, uint64(1), msg.FrameID)
	require.Len(t, msg.Pixels, layout.Width*layout.Height)
	assert.Equal(t, byte(255), msg.Pixels[3])
}

func TestControlSocketRunsCommands(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dial(t, ts, "/control")

	require.NoError(t, conn.WriteJSON(controlMsg{Cmd: "mode laser"}))
	var reply controlReply
	require.NoError(t, conn.ReadJSON(&reply))
	assert.True(t, reply.OK)
	assert.Equal(t, "laser", reply.Status.Mode)

	require.NoError(t, conn.WriteJSON(controlMsg{Cmd: "juggle"}))
	reply = controlReply{}
	require.NoError(t, conn.ReadJSON(&reply))
	assert.False(t, reply.OK)
	assert.Contains(t, reply.Error, "juggle")
}

func TestControlSocketMatchesUploadExactly(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dial(t, ts, "/control")

	require.NoError(t, conn.WriteJSON(controlMsg{Cmd: "uploads"}))
	var reply controlReply
	require.NoError(t, conn.ReadJSON(&reply))
	assert.False(t, reply.OK)
	assert.Contains(t, reply.Error, "uploads")
}

func TestStalledFrameClientDoesNotBlockTick(t *testing.T) {
	pv := preview.New(0)
	sess := app.NewSession(bank.NewStore(), app.Options{Driver: pv, Hub: diag.NewHub(8)})
	srv := NewServer(sess, 30)
	pv.SetSink(srv.BroadcastFrame)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})

	conn := dial(t, ts, "/ws")
	var top map[string]any
	require.NoError(t, conn.ReadJSON(&top))
	require.Eventually(t, func() bool {
		srv.mu.RLock()
		defer srv.mu.RUnlock()
		return len(srv.clients) == 1
	}, time.Second, 10*time.Millisecond)

	// The client never reads again.
	start := time.Now()
	for i := 0; i < 2000; i++ {
		_, err := sess.Tick()
		require.NoError(t, err)
	}
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, uint64(2000), srv.frameID.Load())

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDiagSocketReplaysRecent(t *testing.T) {
	srv, ts := newTestServer(t)
	srv.S.Hub().Publish(diag.Diagnostic{Severity: diag.Warn, Code: diag.MemoryOver, Summary: "full"})
	conn := dial(t, ts, "/diag")

	var d diag.Diagnostic
	require.NoError(t, conn.ReadJSON(&d))
	assert.Equal(t, diag.MemoryOver, d.Code)
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body struct {
		FPS    int        `json:"fps"`
		Status app.Status `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 30, body.FPS)
	assert.Equal(t, 4096, body.Status.Memory.Capacity)
}

func TestStateRoundTrip(t *testing.T) {
	srv, ts := newTestServer(t)
	require.NoError(t, srv.S.SetSpeed(3))

	resp, err := http.Get(ts.URL + "/state")
	require.NoError(t, err)
	var snap bank.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	resp.Body.Close()
	require.Len(t, snap.Banks, layout.Banks)
	assert.Equal(t, 3, snap.Banks[0].Speed)

	snap.CurrentBank = 3
	body, _ := json.Marshal(snap)
	resp, err = http.Post(ts.URL+"/state", "application/json", strings.NewReader(string(body)))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 3, srv.S.Status().Active)

	resp, err = http.Post(ts.URL+"/state", "application/json", strings.NewReader("nope"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 3, srv.S.Status().Active, "bad state is not loaded")
}

func TestShareMounted(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/share?id=missing1")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
