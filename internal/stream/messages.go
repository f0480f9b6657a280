package stream

import (
	"ripple/internal/core"
	"ripple/internal/water"
)

// Message types sent to clients.
const (
	TypeFrame  = "frame"
	TypeAck    = "ack"
	TypeParams = "params"
	TypeError  = "error"
)

// Command types accepted from clients.
const (
	CmdSplash = "splash"
	CmdWave   = "wave"
	CmdClear  = "clear"
	CmdParams = "params"
	CmdReset  = "reset"
	CmdDrop   = "drop"
	CmdPause  = "pause"
)

// FrameMessage carries one snapshot of the surface.
type FrameMessage struct {
	Type    string      `json:"type"`
	Width   int         `json:"width"`
	Height  int         `json:"height"`
	Step    int         `json:"step"`
	SimTime float64     `json:"simTime"`
	Heights []float32   `json:"heights"`
	Foam    []float32   `json:"foam,omitempty"`
	Bodies  []BodyState `json:"bodies,omitempty"`
	Stats   FrameStats  `json:"stats"`
}

// BodyState is a floating body's pose in world space.
type BodyState struct {
	Position    [3]float64 `json:"position"`
	Orientation [4]float64 `json:"orientation"`
	Submerged   int        `json:"submerged"`
}

// FrameStats summarises the surface for clients that do not want to scan the
// height buffer.
type FrameStats struct {
	MinHeight float64 `json:"minHeight"`
	MaxHeight float64 `json:"maxHeight"`
	Energy    float64 `json:"energy"`
	Sources   int     `json:"sources"`
	Splashes  int     `json:"splashes"`
}

// Command is a client request. Fields not used by Type are ignored.
type Command struct {
	Type string `json:"type"`

	// Splash target in grid cells, radius in cells.
	X        int     `json:"x"`
	Y        int     `json:"y"`
	Radius   float64 `json:"radius"`
	Strength float64 `json:"strength"`

	// Wave source.
	Kind       string     `json:"kind"`
	Direction  [2]float64 `json:"direction"`
	Center     [2]float64 `json:"center"`
	Wavelength float64    `json:"wavelength"`
	Amplitude  float64    `json:"amplitude"`
	Decay      float64    `json:"decay"`
	Speed      float64    `json:"speed"`
	Period     float64    `json:"period"`

	// Parameter update; an empty Key only requests the snapshot.
	Key   string  `json:"key"`
	Value float64 `json:"value"`

	Seed   int64 `json:"seed"`
	Paused bool  `json:"paused"`
}

// AckMessage answers a command.
type AckMessage struct {
	Type    string        `json:"type"`
	Command string        `json:"command"`
	OK      bool          `json:"ok"`
	Wave    *water.WaveID `json:"wave,omitempty"`
}

// ParamsMessage carries the current tunables.
type ParamsMessage struct {
	Type   string                 `json:"type"`
	Params core.ParameterSnapshot `json:"params"`
}

// ErrorMessage reports a rejected command.
type ErrorMessage struct {
	Type    string `json:"type"`
	Command string `json:"command,omitempty"`
	Error   string `json:"error"`
}
