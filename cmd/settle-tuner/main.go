package main

import (
	"flag"
	"fmt"
	"log"
	"runtime"
	"strconv"

	"ripple/internal/app"
	"ripple/internal/water"
)

func main() {
	steps := flag.Int("steps", 900, "number of 60 Hz steps to simulate per candidate")
	passes := flag.Int("passes", 3, "coordinate-descent passes to execute")
	workers := flag.Int("workers", runtime.NumCPU(), "parallel candidate evaluations")
	width := flag.Int("width", 96, "grid width for tuning runs")
	height := flag.Int("height", 96, "grid height for tuning runs")
	seed := flag.Int64("seed", 1337, "seed for the random warm-up samples")
	target := flag.Int("target", 0, "desired settle step (0 uses a third of -steps)")
	strength := flag.Float64("strength", 100, "splash strength for the baseline run")
	manualOnly := flag.Bool("manual", false, "skip sweeping and only evaluate provided overrides")
	var overrides app.KVList
	flag.Var(&overrides, "set", "parameter override in key=value form (repeatable)")
	flag.Parse()

	cfg := water.DefaultConfig()
	cfg.Width = *width
	cfg.Height = *height

	for key, value := range overrides.Map() {
		if !water.ApplyOverride(&cfg.Params, key, value) {
			log.Printf("ignoring override %s=%s", key, value)
		}
	}

	baseline := water.SettleTime(cfg, *steps, *strength)
	fmt.Printf("Baseline: %s\n", describe(baseline))

	if *manualOnly {
		fmt.Println("Manual evaluation requested; skipping sweep.")
		printParams(cfg.Params)
		return
	}

	params, result, trace := water.SettleSweep(cfg, *steps, *target, *passes, *workers, *seed)
	fmt.Printf("\nBest found: %s\n", describe(result))
	printParams(params)

	if len(trace) > 1 {
		fmt.Println("\nImprovements:")
		for _, rec := range trace[1:] {
			fmt.Printf("  pass %d: %s=%s -> %s\n", rec.Pass, rec.Parameter, rec.Value, describe(rec.Result))
		}
	}
}

func describe(r water.SettleResult) string {
	settle := "never"
	if r.Settled() {
		settle = strconv.Itoa(r.SettleStep)
	}
	return fmt.Sprintf("settle step %s/%d, peak %.3f, clamped %d, final energy %.3g",
		settle, r.StepsSimulated, r.PeakHeight, r.ClampedCells, r.FinalEnergy)
}

func printParams(p water.Params) {
	fmt.Println("Parameters:")
	for _, key := range water.TunableKeys() {
		v, _ := water.ParamValue(p, key)
		fmt.Printf("  %s=%s\n", key, strconv.FormatFloat(v, 'g', 6, 64))
	}
}
