// Package stream serves a running water scene over websockets. Every tick
// the server steps the scene and broadcasts a JSON frame; clients send JSON
// commands to splash, edit wave sources and tune parameters.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"

	"ripple/internal/core"
	"ripple/internal/scene"
	"ripple/internal/water"
)

const writeTimeout = 2 * time.Second

// ErrUnknownCommand is returned for commands with an unrecognised type.
var ErrUnknownCommand = errors.New("stream: unknown command")

// Server steps a scene and fans frames out to websocket clients.
type Server struct {
	upgrader websocket.Upgrader

	// simMu serialises stepping with command application.
	simMu  sync.Mutex
	scene  *scene.Scene
	clock  *core.FixedStep
	paused bool
	steps  int

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]*sync.Mutex

	// IncludeFoam adds the foam mask to broadcast frames.
	IncludeFoam bool
}

// NewServer wraps sc; tps sets the simulation rate used by Run.
func NewServer(sc *scene.Scene, tps int) *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		scene:   sc,
		clock:   core.NewFixedStep(tps),
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// Handler routes /ws to the websocket endpoint and /stats to a JSON summary.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/stats", s.handleStats)
	return mux
}

// Clients reports the number of connected clients.
func (s *Server) Clients() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// Run steps and broadcasts at the configured rate until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Duration(s.clock.Delta() * float64(time.Second)))
	defer ticker.Stop()
	lastLog := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			for n := s.clock.Advance(now); n > 0; n-- {
				if err := s.step(); err != nil {
					return err
				}
			}
			s.Broadcast()
			if time.Since(lastLog) > 10*time.Second {
				lastLog = time.Now()
				st := s.stats()
				log.Printf("t=%.1fs clients=%d h=[%.3f, %.3f] energy=%.5f splashes=%d",
					st.SimTime, s.Clients(), st.MinHeight, st.MaxHeight, st.Energy, st.Splashes)
			}
		}
	}
}

// Tick advances the scene by one clock step and broadcasts the result.
func (s *Server) Tick() error {
	if err := s.step(); err != nil {
		return err
	}
	s.Broadcast()
	return nil
}

func (s *Server) step() error {
	s.simMu.Lock()
	defer s.simMu.Unlock()
	if s.paused {
		return nil
	}
	if err := s.scene.Step(s.clock.Delta()); err != nil {
		return fmt.Errorf("stream: step: %w", err)
	}
	s.steps++
	return nil
}

// Broadcast sends the current frame to every client, dropping those that
// fail to accept it.
func (s *Server) Broadcast() {
	msg := s.frameMessage()
	s.clientsMu.RLock()
	var failed []*websocket.Conn
	for conn, mu := range s.clients {
		if err := writeJSON(conn, mu, msg); err != nil {
			log.Println("stream: write error:", err)
			failed = append(failed, conn)
		}
	}
	s.clientsMu.RUnlock()

	if len(failed) > 0 {
		s.clientsMu.Lock()
		for _, conn := range failed {
			delete(s.clients, conn)
			conn.Close()
		}
		s.clientsMu.Unlock()
	}
}

func (s *Server) frameMessage() FrameMessage {
	s.simMu.Lock()
	defer s.simMu.Unlock()
	frame := s.scene.Water().CopyFrame(nil)
	st := s.scene.Stats()
	msg := FrameMessage{
		Type:    TypeFrame,
		Width:   frame.Width,
		Height:  frame.Height,
		Step:    s.steps,
		SimTime: frame.SimTime,
		Heights: frame.Heights,
		Stats: FrameStats{
			MinHeight: st.MinHeight,
			MaxHeight: st.MaxHeight,
			Energy:    st.Energy,
			Sources:   st.Sources,
			Splashes:  st.Splashes,
		},
	}
	if s.IncludeFoam {
		msg.Foam = frame.Foam
	}
	for _, b := range s.scene.Bodies() {
		q := b.Orientation
		msg.Bodies = append(msg.Bodies, BodyState{
			Position:    [3]float64(b.Position),
			Orientation: [4]float64{q.W, q.V.X(), q.V.Y(), q.V.Z()},
			Submerged:   b.Last().Submerged,
		})
	}
	return msg
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("stream: upgrade error:", err)
		return
	}
	defer conn.Close()

	mu := &sync.Mutex{}
	s.clientsMu.Lock()
	s.clients[conn] = mu
	s.clientsMu.Unlock()
	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, conn)
		s.clientsMu.Unlock()
	}()

	if err := writeJSON(conn, mu, s.frameMessage()); err != nil {
		return
	}

	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Println("stream: read error:", err)
			}
			return
		}
		reply, err := s.Apply(cmd)
		if err != nil {
			reply = ErrorMessage{Type: TypeError, Command: cmd.Type, Error: err.Error()}
		}
		if err := writeJSON(conn, mu, reply); err != nil {
			return
		}
	}
}

// Apply executes one command against the scene and returns the reply to
// send back.
func (s *Server) Apply(cmd Command) (any, error) {
	s.simMu.Lock()
	defer s.simMu.Unlock()
	w := s.scene.Water()
	ack := AckMessage{Type: TypeAck, Command: cmd.Type, OK: true}
	switch cmd.Type {
	case CmdSplash:
		radius := cmd.Radius
		if radius == 0 {
			radius = 3
		}
		ack.OK = w.SplashCell(cmd.X, cmd.Y, radius, cmd.Strength)
	case CmdWave:
		id, err := s.addWave(w, cmd)
		if err != nil {
			return nil, err
		}
		ack.Wave = &id
	case CmdClear:
		w.ClearWaves()
	case CmdParams:
		if cmd.Key != "" && !s.scene.SetFloatParameter(cmd.Key, cmd.Value) {
			return nil, fmt.Errorf("stream: parameter %q rejected value %v", cmd.Key, cmd.Value)
		}
		return ParamsMessage{Type: TypeParams, Params: s.scene.Parameters()}, nil
	case CmdReset:
		s.scene.Reset(cmd.Seed)
		s.steps = 0
	case CmdDrop:
		s.scene.DropBody()
	case CmdPause:
		s.paused = cmd.Paused
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type)
	}
	return ack, nil
}

func (s *Server) addWave(w *water.Water, cmd Command) (water.WaveID, error) {
	switch cmd.Kind {
	case "", "plane":
		return w.AddPlaneWave(water.PlaneWaveParams{
			Direction:  mgl64.Vec2(cmd.Direction),
			Wavelength: cmd.Wavelength,
			Amplitude:  cmd.Amplitude,
			Speed:      cmd.Speed,
			Period:     cmd.Period,
		}), nil
	case "radial":
		return w.AddRadialWave(water.RadialWaveParams{
			Center:     mgl64.Vec2(cmd.Center),
			Wavelength: cmd.Wavelength,
			Amplitude:  cmd.Amplitude,
			Decay:      cmd.Decay,
			Speed:      cmd.Speed,
			Period:     cmd.Period,
		}), nil
	default:
		return water.WaveID{}, fmt.Errorf("stream: unknown wave kind %q", cmd.Kind)
	}
}

func (s *Server) stats() scene.Stats {
	s.simMu.Lock()
	defer s.simMu.Unlock()
	return s.scene.Stats()
}

// StatsMessage is served on /stats.
type StatsMessage struct {
	Scene     string  `json:"scene"`
	SimTime   float64 `json:"simTime"`
	Steps     int     `json:"steps"`
	MinHeight float64 `json:"minHeight"`
	MaxHeight float64 `json:"maxHeight"`
	Energy    float64 `json:"energy"`
	Bodies    int     `json:"bodies"`
	Splashes  int     `json:"splashes"`
	Clients   int     `json:"clients"`
	Solver    string  `json:"solver"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st := s.stats()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StatsMessage{
		Scene:     s.scene.Name(),
		SimTime:   st.SimTime,
		Steps:     st.Steps,
		MinHeight: st.MinHeight,
		MaxHeight: st.MaxHeight,
		Energy:    st.Energy,
		Bodies:    st.Bodies,
		Splashes:  st.Splashes,
		Clients:   s.Clients(),
		Solver:    st.Solver,
	})
}

func writeJSON(conn *websocket.Conn, mu *sync.Mutex, v any) error {
	mu.Lock()
	defer mu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(v)
}
