//go:build opencl

package water

import (
	"fmt"
	"strings"

	"github.com/jgillich/go-opencl/cl"
)

const waterKernelSource = `
float bell(float q) {
    float q2 = q * q;
    return (1.0f - 2.0f * q2) * exp(-q2);
}

__kernel void water_step(
    const int width,
    const int height,
    const float dt,
    const float c2,
    const float viscosity,
    const float keep,
    const float baseline,
    const float max_h,
    const float max_v,
    const float sim_time,
    const float force_gain,
    const int plane_count,
    const int radial_count,
    const int splash_active,
    __global const float* planes,
    __global const float* radials,
    __global const float* xs,
    __global const float* ys,
    __global const float* edge,
    __global const float* splash,
    __global const float* cur_h,
    __global const float* cur_v,
    __global float* next_h,
    __global float* next_v)
{
    int idx = get_global_id(0);
    if (idx >= width * height) {
        return;
    }
    int x = idx % width;
    int y = idx / width;
    float c = cur_h[idx];
    float l = x > 0 ? cur_h[idx - 1] : c;
    float r = x < width - 1 ? cur_h[idx + 1] : c;
    float u = y > 0 ? cur_h[idx - width] : c;
    float d = y < height - 1 ? cur_h[idx + width] : c;
    float lap = l + r + u + d - 4.0f * c;

    float px = xs[x];
    float py = ys[y];
    float f = 0.0f;
    for (int i = 0; i < plane_count; i++) {
        __global const float* w = planes + i * 8;
        float along = w[0] * px + w[1] * py;
        f += w[4] * sin(w[2] * along - w[3] * sim_time + w[5]);
    }
    for (int i = 0; i < radial_count; i++) {
        __global const float* w = radials + i * 8;
        float dx = px - w[0];
        float dy = py - w[1];
        float dist = sqrt(dx * dx + dy * dy);
        f += w[4] * bell(dist * w[5]) * sin(w[2] * dist - w[3] * sim_time + w[6]);
    }
    if (!isfinite(f)) {
        f = 0.0f;
    }

    float v = cur_v[idx] + (c2 * lap + f * force_gain) * dt;
    if (splash_active) {
        v += splash[idx];
    }
    v = clamp(v, -max_v, max_v);
    float h = c + v * dt + viscosity * lap * dt;
    v *= keep;
    h -= h * baseline * dt;
    v *= edge[idx];
    if (isnan(h)) {
        h = 0.0f;
    }
    if (isnan(v)) {
        v = 0.0f;
    }
    next_h[idx] = clamp(h, -max_h, max_h);
    next_v[idx] = clamp(v, -max_v, max_v);
}`

const sourceStride = 8

type openCLSolver struct {
	context *cl.Context
	queue   *cl.CommandQueue
	program *cl.Program
	kernel  *cl.Kernel

	heights    [2]*cl.MemObject
	velocities [2]*cl.MemObject
	planeBuf   *cl.MemObject
	radialBuf  *cl.MemObject
	xsBuf      *cl.MemObject
	ysBuf      *cl.MemObject
	edgeBuf    *cl.MemObject
	splashBuf  *cl.MemObject

	width      int
	height     int
	cur        int
	deviceName string

	coldStart bool
	pending   bool

	planeData  []float32
	radialData []float32
	splashData []float32
	stageH     []float32
	stageV     []float32
	edgeLen    int
}

func newGPUSolver(field *HeightField) (stepSolver, error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		msg := "querying OpenCL platforms"
		if strings.Contains(err.Error(), "-1001") {
			msg += ": no ICD loader reported any platforms"
		}
		return nil, fmt.Errorf("%s: %w: %w", msg, ErrGPUUnavailable, err)
	}
	var device *cl.Device
	for _, kind := range []cl.DeviceType{cl.DeviceTypeGPU, cl.DeviceTypeCPU} {
		for _, p := range platforms {
			devices, derr := p.GetDevices(kind)
			if derr != nil && derr != cl.ErrDeviceNotFound {
				continue
			}
			if len(devices) > 0 {
				device = devices[0]
				break
			}
		}
		if device != nil {
			break
		}
	}
	if device == nil {
		return nil, fmt.Errorf("no OpenCL device: %w", ErrGPUUnavailable)
	}

	s := &openCLSolver{
		width:      field.Width(),
		height:     field.Height(),
		deviceName: device.Name(),
		coldStart:  true,
	}
	if err := s.init(device); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *openCLSolver) init(device *cl.Device) error {
	var err error
	s.context, err = cl.CreateContext([]*cl.Device{device})
	if err != nil {
		return fmt.Errorf("creating context: %w", err)
	}
	s.queue, err = s.context.CreateCommandQueue(device, 0)
	if err != nil {
		return fmt.Errorf("creating command queue: %w", err)
	}
	s.program, err = s.context.CreateProgramWithSource([]string{waterKernelSource})
	if err != nil {
		return fmt.Errorf("creating program: %w", err)
	}
	if err := s.program.BuildProgram([]*cl.Device{device}, ""); err != nil {
		if buildErr, ok := err.(cl.BuildError); ok {
			return fmt.Errorf("building program: %s", string(buildErr))
		}
		return fmt.Errorf("building program: %w", err)
	}
	s.kernel, err = s.program.CreateKernel("water_step")
	if err != nil {
		return fmt.Errorf("creating kernel: %w", err)
	}

	cells := s.width * s.height
	bytes := cells * 4
	for i := 0; i < 2; i++ {
		if s.heights[i], err = s.context.CreateEmptyBuffer(cl.MemReadWrite, bytes); err != nil {
			return fmt.Errorf("allocating height buffer: %w", err)
		}
		if s.velocities[i], err = s.context.CreateEmptyBuffer(cl.MemReadWrite, bytes); err != nil {
			return fmt.Errorf("allocating velocity buffer: %w", err)
		}
	}
	sourceBytes := WaveCapacity * sourceStride * 4
	if s.planeBuf, err = s.context.CreateEmptyBuffer(cl.MemReadOnly, sourceBytes); err != nil {
		return fmt.Errorf("allocating plane buffer: %w", err)
	}
	if s.radialBuf, err = s.context.CreateEmptyBuffer(cl.MemReadOnly, sourceBytes); err != nil {
		return fmt.Errorf("allocating radial buffer: %w", err)
	}
	if s.xsBuf, err = s.context.CreateEmptyBuffer(cl.MemReadOnly, s.width*4); err != nil {
		return fmt.Errorf("allocating coordinate buffer: %w", err)
	}
	if s.ysBuf, err = s.context.CreateEmptyBuffer(cl.MemReadOnly, s.height*4); err != nil {
		return fmt.Errorf("allocating coordinate buffer: %w", err)
	}
	if s.edgeBuf, err = s.context.CreateEmptyBuffer(cl.MemReadOnly, bytes); err != nil {
		return fmt.Errorf("allocating edge buffer: %w", err)
	}
	if s.splashBuf, err = s.context.CreateEmptyBuffer(cl.MemReadOnly, bytes); err != nil {
		return fmt.Errorf("allocating splash buffer: %w", err)
	}
	s.planeData = make([]float32, WaveCapacity*sourceStride)
	s.radialData = make([]float32, WaveCapacity*sourceStride)
	s.splashData = make([]float32, cells)
	s.stageH = make([]float32, cells)
	s.stageV = make([]float32, cells)
	return nil
}

func (s *openCLSolver) Name() string { return "OpenCL (" + s.deviceName + ")" }

// Step runs one kernel pass. The host field receives the previous pass's
// readback so the frame loop never waits on the device.
func (s *openCLSolver) Step(sim *GridSimulator, dt float64) error {
	nextH, nextV := sim.field.next()
	if s.coldStart {
		if err := s.upload(sim); err != nil {
			return err
		}
		s.coldStart = false
	}
	if s.pending {
		if err := s.queue.Finish(); err != nil {
			return fmt.Errorf("waiting for readback: %w", err)
		}
		copy(nextH, s.stageH)
		copy(nextV, s.stageV)
	}

	if err := s.writeSources(sim); err != nil {
		return err
	}
	splashActive := int32(0)
	if sim.nStamps > 0 {
		s.rasterSplash(sim)
		if _, err := s.queue.EnqueueWriteBufferFloat32(s.splashBuf, false, 0, s.splashData, nil); err != nil {
			return fmt.Errorf("uploading splash: %w", err)
		}
		splashActive = 1
	}
	p := sim.params
	next := 1 - s.cur
	if err := s.kernel.SetArgs(
		int32(s.width),
		int32(s.height),
		float32(dt),
		float32(sim.c2),
		float32(p.Viscosity),
		float32(1-p.VelocityDecay),
		float32(p.BaselineReturn),
		float32(p.MaxHeight),
		float32(p.MaxVelocity),
		float32(sim.simTime),
		float32(p.ForceGain),
		int32(len(sim.planes)),
		int32(len(sim.radials)),
		splashActive,
		s.planeBuf,
		s.radialBuf,
		s.xsBuf,
		s.ysBuf,
		s.edgeBuf,
		s.splashBuf,
		s.heights[s.cur],
		s.velocities[s.cur],
		s.heights[next],
		s.velocities[next],
	); err != nil {
		return fmt.Errorf("setting kernel arguments: %w", err)
	}
	global := []int{s.width * s.height}
	if _, err := s.queue.EnqueueNDRangeKernel(s.kernel, nil, global, nil, nil); err != nil {
		return fmt.Errorf("enqueueing kernel: %w", err)
	}
	s.cur = next

	if !s.pending {
		if _, err := s.queue.EnqueueReadBufferFloat32(s.heights[s.cur], true, 0, nextH, nil); err != nil {
			return fmt.Errorf("reading heights: %w", err)
		}
		if _, err := s.queue.EnqueueReadBufferFloat32(s.velocities[s.cur], true, 0, nextV, nil); err != nil {
			return fmt.Errorf("reading velocities: %w", err)
		}
		s.pending = true
	}
	if _, err := s.queue.EnqueueReadBufferFloat32(s.heights[s.cur], false, 0, s.stageH, nil); err != nil {
		return fmt.Errorf("reading heights: %w", err)
	}
	if _, err := s.queue.EnqueueReadBufferFloat32(s.velocities[s.cur], false, 0, s.stageV, nil); err != nil {
		return fmt.Errorf("reading velocities: %w", err)
	}
	if err := s.queue.Flush(); err != nil {
		return fmt.Errorf("flushing queue: %w", err)
	}
	return nil
}

// upload seeds the device from the host field and static tables.
func (s *openCLSolver) upload(sim *GridSimulator) error {
	h, v := sim.field.current()
	if _, err := s.queue.EnqueueWriteBufferFloat32(s.heights[s.cur], true, 0, h, nil); err != nil {
		return fmt.Errorf("uploading heights: %w", err)
	}
	if _, err := s.queue.EnqueueWriteBufferFloat32(s.velocities[s.cur], true, 0, v, nil); err != nil {
		return fmt.Errorf("uploading velocities: %w", err)
	}
	xs := make([]float32, len(sim.xs))
	for i, x := range sim.xs {
		xs[i] = float32(x)
	}
	ys := make([]float32, len(sim.ys))
	for i, y := range sim.ys {
		ys[i] = float32(y)
	}
	if _, err := s.queue.EnqueueWriteBufferFloat32(s.xsBuf, true, 0, xs, nil); err != nil {
		return fmt.Errorf("uploading coordinates: %w", err)
	}
	if _, err := s.queue.EnqueueWriteBufferFloat32(s.ysBuf, true, 0, ys, nil); err != nil {
		return fmt.Errorf("uploading coordinates: %w", err)
	}
	return nil
}

func (s *openCLSolver) writeSources(sim *GridSimulator) error {
	for i := range s.planeData {
		s.planeData[i] = 0
	}
	for i, w := range sim.planes {
		o := i * sourceStride
		s.planeData[o] = float32(w.Dir.X())
		s.planeData[o+1] = float32(w.Dir.Y())
		s.planeData[o+2] = float32(w.K)
		s.planeData[o+3] = float32(w.Omega)
		s.planeData[o+4] = float32(w.Amplitude)
		s.planeData[o+5] = float32(w.Phase)
	}
	for i := range s.radialData {
		s.radialData[i] = 0
	}
	for i, w := range sim.radials {
		o := i * sourceStride
		s.radialData[o] = float32(w.Center.X())
		s.radialData[o+1] = float32(w.Center.Y())
		s.radialData[o+2] = float32(w.K)
		s.radialData[o+3] = float32(w.Omega)
		s.radialData[o+4] = float32(w.Amplitude)
		s.radialData[o+5] = float32(w.Decay)
		s.radialData[o+6] = float32(w.Phase)
	}
	if _, err := s.queue.EnqueueWriteBufferFloat32(s.planeBuf, false, 0, s.planeData, nil); err != nil {
		return fmt.Errorf("uploading plane sources: %w", err)
	}
	if _, err := s.queue.EnqueueWriteBufferFloat32(s.radialBuf, false, 0, s.radialData, nil); err != nil {
		return fmt.Errorf("uploading radial sources: %w", err)
	}
	if s.edgeLen != len(sim.edge) || sim.edgeDirty {
		if _, err := s.queue.EnqueueWriteBufferFloat32(s.edgeBuf, true, 0, sim.edge, nil); err != nil {
			return fmt.Errorf("uploading edge mask: %w", err)
		}
		s.edgeLen = len(sim.edge)
		sim.edgeDirty = false
	}
	return nil
}

func (s *openCLSolver) rasterSplash(sim *GridSimulator) {
	for i := range s.splashData {
		s.splashData[i] = 0
	}
	for i := 0; i < sim.nStamps; i++ {
		st := &sim.stamps[i]
		for y := 0; y < st.h; y++ {
			row := (st.y0+y)*s.width + st.x0
			for x := 0; x < st.w; x++ {
				s.splashData[row+x] += st.weight[y*st.w+x]
			}
		}
	}
}

func (s *openCLSolver) Reset() {
	s.coldStart = true
	s.pending = false
}

func (s *openCLSolver) Close() {
	for _, buf := range []*cl.MemObject{
		s.heights[0], s.heights[1], s.velocities[0], s.velocities[1],
		s.planeBuf, s.radialBuf, s.xsBuf, s.ysBuf, s.edgeBuf, s.splashBuf,
	} {
		if buf != nil {
			buf.Release()
		}
	}
	if s.kernel != nil {
		s.kernel.Release()
	}
	if s.program != nil {
		s.program.Release()
	}
	if s.queue != nil {
		s.queue.Release()
	}
	if s.context != nil {
		s.context.Release()
	}
}
