package water

import "ripple/internal/core"

// Parameters publishes the grid layout and every tunable grouped for display.
func (w *Water) Parameters() core.ParameterSnapshot {
	cfg := w.Config()
	groups := []core.ParameterGroup{
		{
			Name: "Grid",
			Params: []core.Parameter{
				core.IntParam("w", "Width", cfg.Width),
				core.IntParam("h", "Height", cfg.Height),
				core.FloatParam("extent_x", "Half extent X", cfg.HalfExtentX),
				core.FloatParam("extent_y", "Half extent Y", cfg.HalfExtentY),
				core.FloatParam("level", "Rest level", cfg.Position.Y()),
			},
		},
	}
	index := map[string]int{}
	for _, spec := range tunables {
		i, ok := index[spec.group]
		if !ok {
			i = len(groups)
			index[spec.group] = i
			groups = append(groups, core.ParameterGroup{Name: spec.group})
		}
		groups[i].Params = append(groups[i].Params, core.FloatParam(spec.key, spec.label, spec.getter(cfg.Params)))
	}
	return core.ParameterSnapshot{Groups: groups}
}

// ParameterControls lists the tunables adjustable at runtime.
func (w *Water) ParameterControls() []core.ParameterControl {
	controls := make([]core.ParameterControl, 0, len(tunables))
	for _, spec := range tunables {
		controls = append(controls, core.FloatControl(spec.key, spec.label, spec.step, spec.min, spec.max))
	}
	return controls
}

// SetFloatParameter updates a tunable. It reports false for unknown keys and
// out-of-range values.
func (w *Water) SetFloatParameter(key string, value float64) bool {
	spec, ok := lookupTunable(key)
	if !ok {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	p := w.sim.Params()
	if !spec.set(&p, value) {
		return false
	}
	w.sim.SetParams(p)
	w.cfg.Params = p
	return true
}

// SetParams replaces every tunable at once.
func (w *Water) SetParams(p Params) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sim.SetParams(p)
	w.cfg.Params = w.sim.Params()
}
