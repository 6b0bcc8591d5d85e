package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/trajopt/internal/config"
	"github.com/san-kum/trajopt/internal/models"
	"github.com/san-kum/trajopt/internal/storage"
	"github.com/san-kum/trajopt/internal/transcribe"
	"github.com/san-kum/trajopt/internal/tui"
	"github.com/san-kum/trajopt/internal/viz"
)

var (
	dataDir       string
	scheme        string
	degree        int
	meshIntervals int
	scaleVars     bool
	interpolate   bool
	pathMidpoints bool
	seed          int64
	randomGuess   bool
	noStore       bool
	configFile    string
	preset        string
	plotWidth     int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "trajopt",
		Short: "trajectory optimization by direct collocation",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "runs", "data directory")

	solveCmd := &cobra.Command{
		Use:   "solve [model]",
		Short: "transcribe and solve a benchmark problem",
		Args:  cobra.ExactArgs(1),
		RunE:  solveModel,
	}
	solveCmd.Flags().StringVar(&scheme, "scheme", "trapezoidal", "transcription scheme (trapezoidal, radau, gauss)")
	solveCmd.Flags().IntVar(&degree, "degree", 2, "collocation degree")
	solveCmd.Flags().IntVar(&meshIntervals, "intervals", 25, "mesh intervals")
	solveCmd.Flags().BoolVar(&scaleVars, "scale", true, "scale variables by their bounds")
	solveCmd.Flags().BoolVar(&interpolate, "interpolate-controls", false, "constrain interior controls to the mesh interpolant")
	solveCmd.Flags().BoolVar(&pathMidpoints, "path-midpoints", false, "enforce path constraints at interior points")
	solveCmd.Flags().Int64Var(&seed, "seed", 0, "random seed for the initial guess")
	solveCmd.Flags().BoolVar(&randomGuess, "random-guess", false, "start from a random point within bounds")
	solveCmd.Flags().BoolVar(&noStore, "no-store", false, "skip writing the run directory")
	solveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	solveCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	inspectCmd := &cobra.Command{
		Use:   "inspect [model]",
		Short: "show transcription sizes and Jacobian sparsity",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectModel,
	}
	inspectCmd.Flags().StringVar(&scheme, "scheme", "trapezoidal", "transcription scheme")
	inspectCmd.Flags().IntVar(&degree, "degree", 2, "collocation degree")
	inspectCmd.Flags().IntVar(&meshIntervals, "intervals", 10, "mesh intervals")
	inspectCmd.Flags().IntVar(&plotWidth, "width", 70, "render width")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored trajectory",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "plot width")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list benchmark models",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range models.NewRegistry().List() {
				fmt.Println(name)
			}
			return nil
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for model: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	viewCmd := &cobra.Command{
		Use:   "view",
		Short: "browse stored runs interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(storage.New(dataDir))
		},
	}

	rootCmd.AddCommand(solveCmd, inspectCmd, listCmd, plotCmd, exportCmd, modelsCmd, presetsCmd, viewCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildConfig resolves preset, config file, and flags, in that order of
// increasing precedence for the solver settings.
func buildConfig(model string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(model, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)",
				preset, config.ListPresets(model))
		}
		cfg = p
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if preset == "" && configFile == "" {
		cfg.Scheme = scheme
		cfg.Degree = degree
		cfg.MeshIntervals = meshIntervals
		cfg.ScaleVariables = scaleVars
		cfg.InterpolateControls = interpolate
		cfg.EnforcePathMidpoints = pathMidpoints
	}
	cfg.Model = model
	cfg.Seed = seed
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	return cfg, cfg.Validate()
}

func solveModel(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(args[0])
	if err != nil {
		return err
	}
	problem, err := models.NewRegistry().Get(cfg.Model)
	if err != nil {
		return err
	}
	engine, err := transcribe.New(problem, cfg.Solver())
	if err != nil {
		return err
	}

	fmt.Printf("%s: %s scheme, %d grid points, %d variables, %d constraints\n",
		cfg.Model, engine.SchemeName(), engine.NumGridPoints(),
		engine.NumVariables(), engine.NumConstraints())

	var guess *transcribe.Iterate
	if randomGuess {
		rng := rand.New(rand.NewSource(cfg.Seed))
		x0, err := engine.RandomIterateWithinBounds(rng)
		if err != nil {
			return err
		}
		// Feed the random flat point back through the solve path.
		sol, err := solveFrom(engine, x0, cfg)
		if err != nil {
			return err
		}
		if !sol.Success {
			printViolations(engine, sol)
		}
		return report(cfg, sol)
	}

	sol, err := engine.Solve(context.Background(), guess, cfg.Optimizer())
	if err != nil {
		return err
	}
	if !sol.Success {
		printViolations(engine, sol)
	}
	return report(cfg, sol)
}

// printViolations summarizes the worst residual per constraint block
// for a solve that did not converge.
func printViolations(engine *transcribe.Transcription, sol *transcribe.Solution) {
	blocks, err := engine.ConstraintReport(sol.X)
	if err != nil {
		fmt.Printf("constraint report failed: %v\n", err)
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "constraint block\trows\tworst violation")
	for _, b := range blocks {
		fmt.Fprintf(w, "%s\t%d\t%.3g\n", b.Name, b.Rows, b.Worst)
	}
	w.Flush()
}

func solveFrom(engine *transcribe.Transcription, x0 []float64, cfg *config.Config) (*transcribe.Solution, error) {
	problem, err := engine.NLP()
	if err != nil {
		return nil, err
	}
	result, err := cfg.Optimizer().Minimize(context.Background(), problem, x0)
	if err != nil {
		return nil, err
	}
	return engine.ExpandSolution(result)
}

func report(cfg *config.Config, sol *transcribe.Solution) error {
	fmt.Printf("status: %s\n", sol.Status)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, term := range sol.Terms {
		fmt.Fprintf(w, "  %s\t%.6g\n", term.Name, term.Value)
	}
	fmt.Fprintf(w, "  total\t%.6g\n", sol.Objective)
	w.Flush()

	if noStore {
		return nil
	}
	store := storage.New(cfg.DataDir)
	if err := store.Init(); err != nil {
		return err
	}
	runID, err := store.Save(cfg.Model, cfg.Scheme, cfg.Degree, cfg.MeshIntervals, sol)
	if err != nil {
		return err
	}
	fmt.Printf("saved: %s\n", runID)
	return nil
}

func inspectModel(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(args[0])
	if err != nil {
		return err
	}
	problem, err := models.NewRegistry().Get(cfg.Model)
	if err != nil {
		return err
	}
	engine, err := transcribe.New(problem, cfg.Solver())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "model\t%s\n", cfg.Model)
	fmt.Fprintf(w, "scheme\t%s\n", engine.SchemeName())
	fmt.Fprintf(w, "mesh points\t%d\n", engine.NumMeshPoints())
	fmt.Fprintf(w, "grid points\t%d\n", engine.NumGridPoints())
	fmt.Fprintf(w, "variables\t%d\n", engine.NumVariables())
	fmt.Fprintf(w, "constraints\t%d\n", engine.NumConstraints())
	w.Flush()

	fmt.Println()
	fmt.Print(viz.RenderSparsity(engine.JacobianSparsity(), plotWidth))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "id\tmodel\tscheme\tobjective\tstatus")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.6g\t%s\n",
			run.ID, run.Model, run.Scheme, run.Objective, run.Status)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	traj, err := store.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	fmt.Print(viz.PlotTrajectory(traj, plotWidth))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	meta, err := storage.New(dataDir).Load(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}
