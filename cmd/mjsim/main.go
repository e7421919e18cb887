package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/arghyasur1991/mujoco-unity/internal/batch"
	"github.com/arghyasur1991/mujoco-unity/internal/config"
	"github.com/arghyasur1991/mujoco-unity/internal/engine"
	"github.com/arghyasur1991/mujoco-unity/internal/metrics"
	"github.com/arghyasur1991/mujoco-unity/internal/storage"
	"github.com/arghyasur1991/mujoco-unity/internal/tui"
)

var (
	dataDir     string
	numEnvs     int
	steps       int
	solverIters int
	workers     int
	seed        int64
	ctrlMode    string
	amplitude   float64
	frequency   float64
	fieldName   string
	configFile  string
	perturb     float64
	saveRun     bool
	strict      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mjsim",
		Short: "batched rigid-body simulation",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".mjsim", "data directory")

	infoCmd := &cobra.Command{
		Use:   "info [model]",
		Short: "show model dimensions and field layout",
		Args:  cobra.ExactArgs(1),
		RunE:  showInfo,
	}

	rolloutCmd := &cobra.Command{
		Use:   "rollout [model]",
		Short: "run a batched rollout",
		Args:  cobra.ExactArgs(1),
		RunE:  runRollout,
	}
	rolloutCmd.Flags().IntVar(&numEnvs, "envs", config.DefaultNumEnvs, "number of environments")
	rolloutCmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	rolloutCmd.Flags().IntVar(&solverIters, "solver-iters", 0, "override solver iterations (0 keeps model value)")
	rolloutCmd.Flags().IntVar(&workers, "workers", 0, "step worker count (0 = GOMAXPROCS)")
	rolloutCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	rolloutCmd.Flags().StringVar(&ctrlMode, "control", "sine", "control mode (zero|constant|sine)")
	rolloutCmd.Flags().Float64Var(&amplitude, "amp", config.DefaultAmplitude, "control amplitude")
	rolloutCmd.Flags().Float64Var(&frequency, "freq", config.DefaultFrequency, "control frequency (hz)")
	rolloutCmd.Flags().StringVar(&fieldName, "field", "qpos", "field to record")
	rolloutCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rolloutCmd.Flags().Float64Var(&perturb, "perturb", 0, "randomize initial positions by +/- this much")
	rolloutCmd.Flags().BoolVar(&saveRun, "save", false, "save run to the data directory")
	rolloutCmd.Flags().BoolVar(&strict, "strict", false, "error on short buffers instead of truncating")

	benchCmd := &cobra.Command{
		Use:   "bench [model]",
		Short: "benchmark stepping across batch sizes",
		Args:  cobra.ExactArgs(1),
		RunE:  benchModel,
	}
	benchCmd.Flags().IntVar(&steps, "steps", 1000, "steps per batch size")
	benchCmd.Flags().IntVar(&workers, "workers", 0, "step worker count (0 = GOMAXPROCS)")

	liveCmd := &cobra.Command{
		Use:   "live [model]",
		Short: "watch a batch evolve in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().IntVar(&numEnvs, "envs", config.DefaultNumEnvs, "number of environments")
	liveCmd.Flags().IntVar(&workers, "workers", 0, "step worker count (0 = GOMAXPROCS)")
	liveCmd.Flags().StringVar(&ctrlMode, "control", "sine", "control mode (zero|constant|sine)")
	liveCmd.Flags().Float64Var(&amplitude, "amp", config.DefaultAmplitude, "control amplitude")
	liveCmd.Flags().Float64Var(&frequency, "freq", config.DefaultFrequency, "control frequency (hz)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in models",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				fmt.Println(name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(infoCmd, rolloutCmd, benchCmd, liveCmd, listCmd, exportCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadModel resolves a preset name first, then falls back to reading
// the argument as a spec file path.
func loadModel(arg string) (*engine.Model, error) {
	if spec, ok := config.ModelPreset(arg); ok {
		return engine.New(spec)
	}
	return engine.Load(arg)
}

func showInfo(cmd *cobra.Command, args []string) error {
	m, err := loadModel(args[0])
	if err != nil {
		return err
	}

	info := m.Info()
	fmt.Printf("model: %s\n", m.Name())
	fmt.Printf("timestep: %gs  solver iterations: %d\n\n", m.Timestep(), m.SolverIterations())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DIM\tVALUE")
	fmt.Fprintf(w, "nq\t%d\n", info.Nq)
	fmt.Fprintf(w, "nv\t%d\n", info.Nv)
	fmt.Fprintf(w, "nu\t%d\n", info.Nu)
	fmt.Fprintf(w, "nbody\t%d\n", info.Nbody)
	fmt.Fprintf(w, "njnt\t%d\n", info.Njnt)
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println("\nfields:")
	fw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(fw, "NAME\tPER-ENV SIZE")
	for _, f := range engine.Fields() {
		fmt.Fprintf(fw, "%s\t%d\n", f, f.Dim(m))
	}
	return fw.Flush()
}

func runRollout(cmd *cobra.Command, args []string) error {
	m, err := loadModel(args[0])
	if err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	if configFile != "" {
		cfg, err = config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}
	// CLI flags win over the config file.
	if cmd.Flags().Changed("envs") || configFile == "" {
		cfg.NumEnvs = numEnvs
	}
	if cmd.Flags().Changed("steps") || configFile == "" {
		cfg.Steps = steps
	}
	if cmd.Flags().Changed("solver-iters") {
		cfg.SolverIterations = solverIters
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = workers
	}
	if cmd.Flags().Changed("seed") || configFile == "" {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("control") || configFile == "" {
		cfg.Control.Mode = ctrlMode
	}
	if cmd.Flags().Changed("amp") || configFile == "" {
		cfg.Control.Amplitude = amplitude
	}
	if cmd.Flags().Changed("freq") || configFile == "" {
		cfg.Control.Frequency = frequency
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	field, ok := engine.FieldByName(fieldName)
	if !ok {
		return fmt.Errorf("unknown field %q", fieldName)
	}

	b, err := batch.New(m, batch.Config{
		NumEnvs:          cfg.NumEnvs,
		SolverIterations: cfg.SolverIterations,
		Workers:          cfg.Workers,
		Strict:           strict,
	})
	if err != nil {
		return err
	}
	defer b.Close()

	if perturb > 0 {
		rng := rand.New(rand.NewSource(cfg.Seed))
		qpos := make([]float64, m.Nq())
		for i := 0; i < b.NumEnvs(); i++ {
			copy(qpos, m.DefaultQpos())
			for j := range qpos {
				qpos[j] += perturb * (2*rng.Float64() - 1)
			}
			if err := b.SetEnvField(i, engine.FieldQpos, qpos); err != nil {
				return err
			}
		}
	}

	dim := field.Dim(m)
	div := metrics.NewDivergence(cfg.NumEnvs, dim)
	effort := metrics.NewControlEffort()
	spread := metrics.NewSpread(dim)

	controls := make([]float64, cfg.NumEnvs*m.Nu())
	frames := make([][]float64, 0, cfg.Steps)
	trace := make([]float64, 0, cfg.Steps)

	fmt.Printf("rolling out %s: %d envs x %d steps\n", m.Name(), cfg.NumEnvs, cfg.Steps)
	start := time.Now()

	for step := 0; step < cfg.Steps; step++ {
		cfg.Control.Fill(step, m.Timestep(), cfg.NumEnvs, m.Nu(), controls)
		effort.Observe(controls)

		if err := b.Step(controls); err != nil {
			return err
		}

		buf, err := b.Gather(field)
		if err != nil {
			return err
		}
		div.Observe(buf)
		spread.Observe(buf)

		frame := make([]float64, len(buf))
		copy(frame, buf)
		frames = append(frames, frame)
		trace = append(trace, mean(buf))
	}

	elapsed := time.Since(start)
	envSteps := float64(cfg.NumEnvs) * float64(cfg.Steps)

	fmt.Printf("completed in %v (%.0f env-steps/sec)\n\n", elapsed, envSteps/elapsed.Seconds())

	graph := asciigraph.Plot(decimate(trace, 100),
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("mean %s across %d envs", field, cfg.NumEnvs)),
	)
	fmt.Println(graph)

	results := map[string]float64{
		div.Name():    div.Value(),
		effort.Name(): effort.Value(),
		spread.Name(): spread.Value(),
	}
	fmt.Println("\nmetrics:")
	for _, mt := range []metrics.Metric{div, effort, spread} {
		fmt.Printf("  %s: %.6f\n", mt.Name(), mt.Value())
	}

	if saveRun {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(storage.RunMetadata{
			Model:            m.Name(),
			NumEnvs:          cfg.NumEnvs,
			Steps:            cfg.Steps,
			Dt:               m.Timestep(),
			SolverIterations: m.SolverIterations(),
			Field:            field.String(),
			PerEnvDim:        dim,
			Seed:             cfg.Seed,
			Metrics:          results,
		}, frames)
		if err != nil {
			return err
		}
		fmt.Printf("\nrun id: %s\n", runID)
	}

	return nil
}

func benchModel(cmd *cobra.Command, args []string) error {
	m, err := loadModel(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("benchmarking %s (%d steps per size)\n\n", m.Name(), steps)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ENVS\tTIME\tENV-STEPS/SEC")

	for _, n := range []int{1, 4, 16, 64, 256} {
		b, err := batch.New(m, batch.Config{NumEnvs: n, Workers: workers})
		if err != nil {
			return err
		}

		controls := make([]float64, n*m.Nu())
		start := time.Now()
		for step := 0; step < steps; step++ {
			if err := b.Step(controls); err != nil {
				b.Close()
				return err
			}
		}
		elapsed := time.Since(start)
		b.Close()

		envSteps := float64(n) * float64(steps)
		fmt.Fprintf(w, "%d\t%v\t%.0f\n", n, elapsed, envSteps/elapsed.Seconds())
	}

	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	m, err := loadModel(args[0])
	if err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	cfg.Model = args[0]
	cfg.NumEnvs = numEnvs
	cfg.Control = config.ControlConfig{Mode: ctrlMode, Amplitude: amplitude, Frequency: frequency}
	if err := cfg.Validate(); err != nil {
		return err
	}

	b, err := batch.New(m, batch.Config{NumEnvs: cfg.NumEnvs, Workers: workers})
	if err != nil {
		return err
	}
	defer b.Close()

	return tui.Run(b, cfg)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tENVS\tSTEPS\tFIELD")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.NumEnvs,
			run.Steps,
			run.Field,
		)
	}

	return w.Flush()
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// decimate thins a trace to at most n points so long rollouts still
// fit an 80-column plot.
func decimate(vals []float64, n int) []float64 {
	if len(vals) <= n {
		return vals
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = vals[i*len(vals)/n]
	}
	return out
}
