package stream

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"ripple/internal/scene"
)

func newTestServer(t *testing.T) (*Server, *websocket.Conn) {
	t.Helper()
	cfg := scene.FromMap(map[string]string{"w": "24", "h": "24", "extent_x": "12", "extent_y": "12", "bodies": "1"})
	sc := scene.New("test", cfg, nil)
	sc.Reset(1)
	srv := NewServer(sc, 60)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	var first FrameMessage
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read initial frame: %v", err)
	}
	if first.Type != TypeFrame || first.Width != 24 || len(first.Heights) != 24*24 {
		t.Fatalf("initial frame = %+v", first)
	}
	if len(first.Bodies) != 1 {
		t.Fatalf("initial frame bodies = %d, want 1", len(first.Bodies))
	}
	return srv, conn
}

func TestSplashCommandReachesBroadcast(t *testing.T) {
	srv, conn := newTestServer(t)
	if err := conn.WriteJSON(Command{Type: CmdSplash, X: 12, Y: 12, Radius: 3, Strength: -1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var ack AckMessage
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("read ack: %v", err)
	}
	if ack.Type != TypeAck || !ack.OK || ack.Command != CmdSplash {
		t.Fatalf("ack = %+v", ack)
	}

	if err := srv.Tick(); err != nil {
		t.Fatalf("tick: %v", err)
	}
	var frame FrameMessage
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if frame.Step != 1 {
		t.Fatalf("frame step = %d, want 1", frame.Step)
	}
	moved := false
	for _, h := range frame.Heights {
		if h != 0 {
			moved = true
			break
		}
	}
	if !moved {
		t.Fatal("splash did not show up in the broadcast frame")
	}
}

func TestWaveAndParamsCommands(t *testing.T) {
	_, conn := newTestServer(t)

	if err := conn.WriteJSON(Command{Type: CmdWave, Kind: "radial", Wavelength: 6, Amplitude: 0.2, Decay: 0.2}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var ack AckMessage
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ack.Wave == nil || ack.Wave.Slot != 0 {
		t.Fatalf("wave ack = %+v", ack)
	}

	if err := conn.WriteJSON(Command{Type: CmdParams, Key: "viscosity", Value: 0.25}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var params ParamsMessage
	if err := conn.ReadJSON(&params); err != nil {
		t.Fatalf("read: %v", err)
	}
	p, ok := params.Params.Lookup("viscosity")
	if params.Type != TypeParams || !ok || p.Value != "0.25" {
		t.Fatalf("params reply = %+v", params)
	}

	if err := conn.WriteJSON(Command{Type: CmdParams, Key: "viscosity", Value: -5}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var rejected ErrorMessage
	if err := conn.ReadJSON(&rejected); err != nil {
		t.Fatalf("read: %v", err)
	}
	if rejected.Type != TypeError || rejected.Command != CmdParams {
		t.Fatalf("reply = %+v, want error", rejected)
	}
}

func TestUnknownCommand(t *testing.T) {
	srv, _ := newTestServer(t)
	if _, err := srv.Apply(Command{Type: "explode"}); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("err = %v, want ErrUnknownCommand", err)
	}
	if _, err := srv.Apply(Command{Type: CmdWave, Kind: "spiral"}); err == nil {
		t.Fatal("unknown wave kind accepted")
	}
}

func TestPauseStopsStepping(t *testing.T) {
	srv, conn := newTestServer(t)
	if _, err := srv.Apply(Command{Type: CmdPause, Paused: true}); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := srv.Tick(); err != nil {
		t.Fatalf("tick: %v", err)
	}
	var frame FrameMessage
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read: %v", err)
	}
	if frame.Step != 0 || frame.SimTime != 0 {
		t.Fatalf("paused frame advanced: step=%d t=%v", frame.Step, frame.SimTime)
	}
}

func TestStatsEndpoint(t *testing.T) {
	cfg := scene.FromMap(map[string]string{"w": "16", "h": "16", "bodies": "0"})
	sc := scene.New("stats", cfg, nil)
	sc.Reset(1)
	srv := NewServer(sc, 30)
	if err := srv.Tick(); err != nil {
		t.Fatalf("tick: %v", err)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var st StatsMessage
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Scene != "stats" || st.Steps == 0 || st.SimTime <= 0 {
		t.Fatalf("stats = %+v", st)
	}
}
