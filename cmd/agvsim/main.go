package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/openfleet/agvsim/pkg/engine"
	"github.com/openfleet/agvsim/pkg/export"
	"github.com/openfleet/agvsim/pkg/fleet"
	"github.com/openfleet/agvsim/pkg/graph"
	"github.com/openfleet/agvsim/pkg/mapgen"
	"github.com/openfleet/agvsim/pkg/simconfig"
)

const version = "1.0.0"

// CLI flags
var (
	configPath = flag.String("config", "", "Path to YAML configuration file (optional; defaults applied otherwise)")
	outputDir  = flag.String("output", ".", "Output directory for exported files")
	format     = flag.String("format", "json", "Export format: json, svg, or all")
	seedFlag   = flag.String("seed", "", "Override the map seed from config")
	ticks      = flag.Int("ticks", 200, "Number of simulation ticks to run")
	spawnCount = flag.Int("spawn", 5, "Number of AGVs to spawn before running")
	autoPilot  = flag.Bool("autopilot", true, "Enable auto-pilot target assignment for idle AGVs")
	verbose    = flag.Bool("verbose", false, "Enable verbose output")
	versionF   = flag.Bool("version", false, "Print version and exit")
	help       = flag.Bool("help", false, "Show help message")
)

func main() {
	flag.Parse()

	if *versionF {
		fmt.Printf("agvsim version %s\n", version)
		os.Exit(0)
	}

	if *help {
		printHelp()
		os.Exit(0)
	}

	validFormats := map[string]bool{"json": true, "svg": true, "all": true}
	if !validFormats[*format] {
		fmt.Fprintf(os.Stderr, "Error: invalid format %q, must be one of: json, svg, all\n", *format)
		printUsage()
		os.Exit(1)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// nolint:gocyclo // Complexity acceptable: CLI argument handling and output formatting
func run() error {
	cfg := simconfig.DefaultConfig()
	if *configPath != "" {
		if *verbose {
			fmt.Printf("Loading configuration from %s\n", *configPath)
		}
		loaded, err := simconfig.LoadConfig(*configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if *seedFlag != "" {
		if *verbose {
			fmt.Printf("Overriding seed from %q to %q\n", cfg.Map.Seed, *seedFlag)
		}
		cfg.Map.Seed = *seedFlag
	}
	cfg.Engine.AutoPilot = *autoPilot
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if *verbose {
		fmt.Printf("Using seed: %s\n", cfg.Map.Seed)
		fmt.Printf("Node count: %d\n", cfg.Map.NodeCount)
		fmt.Printf("Auto-pilot: %v\n", cfg.Engine.AutoPilot)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	mapData, err := mapgen.Generate(cfg.Map.Seed, cfg.Map.NodeCount)
	if err != nil {
		return fmt.Errorf("map generation failed: %w", err)
	}
	if *verbose {
		fmt.Printf("Generated map: %d nodes, %d edges\n", len(mapData.Nodes), len(mapData.Edges))
	}

	e := engine.New(mapData, *cfg)
	if *verbose {
		e.SetLogger(log.New(os.Stdout, "", 0))
	}

	for i := 0; i < *spawnCount; i++ {
		if _, err := e.Spawn(); err != nil {
			return fmt.Errorf("spawn failed: %w", err)
		}
	}
	if *verbose {
		fmt.Printf("Spawned %d AGVs\n", *spawnCount)
	}

	start := time.Now()
	if *verbose {
		fmt.Printf("Running %d ticks...\n", *ticks)
	}
	for i := 0; i < *ticks; i++ {
		e.Tick()
	}
	elapsed := time.Since(start)

	snap := e.Snapshot()
	if *verbose {
		fmt.Printf("Simulation completed in %v (tick=%d)\n", elapsed, snap.Now)
		printStats(snap)
	}

	baseName := fmt.Sprintf("agvsim_%s", cfg.Map.Seed)

	if *format == "json" || *format == "all" {
		if err := exportJSON(mapData, snap, baseName); err != nil {
			return err
		}
	}
	if *format == "svg" || *format == "all" {
		if err := exportSVG(mapData, snap, cfg.Map.Seed, baseName); err != nil {
			return err
		}
	}

	fmt.Printf("Successfully ran simulation (seed=%s, ticks=%d) in %v\n", cfg.Map.Seed, *ticks, elapsed)
	return nil
}

// exportJSON writes both the map and the final fleet snapshot as JSON.
func exportJSON(mapData graph.MapData, snap fleet.Snapshot, baseName string) error {
	mapFile := filepath.Join(*outputDir, baseName+"_map.json")
	if *verbose {
		fmt.Printf("Exporting map JSON to %s\n", mapFile)
	}
	if err := export.SaveMapJSON(mapData, mapFile); err != nil {
		return fmt.Errorf("failed to export map JSON: %w", err)
	}

	snapFile := filepath.Join(*outputDir, baseName+"_snapshot.json")
	if *verbose {
		fmt.Printf("Exporting snapshot JSON to %s\n", snapFile)
	}
	if err := export.SaveSnapshotJSON(snap, snapFile); err != nil {
		return fmt.Errorf("failed to export snapshot JSON: %w", err)
	}

	if *verbose {
		for _, f := range []string{mapFile, snapFile} {
			info, _ := os.Stat(f)
			if info != nil {
				fmt.Printf("  Wrote %d bytes to %s\n", info.Size(), f)
			}
		}
	}
	return nil
}

// exportSVG renders the map and final snapshot to a single SVG file.
func exportSVG(mapData graph.MapData, snap fleet.Snapshot, seed, baseName string) error {
	filename := filepath.Join(*outputDir, baseName+".svg")
	if *verbose {
		fmt.Printf("Exporting SVG to %s\n", filename)
	}

	g := graph.Build(mapData)
	opts := export.DefaultSVGOptions()
	opts.Title = fmt.Sprintf("agvsim (seed=%s)", seed)

	if err := export.SaveSVGToFile(g, snap, opts, filename); err != nil {
		return fmt.Errorf("failed to export SVG: %w", err)
	}

	if *verbose {
		info, _ := os.Stat(filename)
		if info != nil {
			fmt.Printf("  Wrote %d bytes\n", info.Size())
		}
	}
	return nil
}

// printStats prints a brief summary of the fleet's final state.
func printStats(snap fleet.Snapshot) {
	counts := make(map[fleet.Status]int)
	for _, a := range snap.All() {
		counts[a.Status]++
	}
	fmt.Println("\nFleet Statistics:")
	fmt.Printf("  AGVs: %d\n", snap.Len())
	for _, s := range []fleet.Status{
		fleet.StatusIdle, fleet.StatusMoving, fleet.StatusWaiting,
		fleet.StatusBlocked, fleet.StatusRepathing, fleet.StatusDetour,
		fleet.StatusCompleted,
	} {
		if counts[s] > 0 {
			fmt.Printf("  %s: %d\n", s, counts[s])
		}
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "\nUsage: agvsim [options]")
	fmt.Fprintln(os.Stderr, "\nRun 'agvsim -help' for detailed help")
}

func printHelp() {
	fmt.Printf("agvsim version %s\n\n", version)
	fmt.Println("A command-line driver for the deterministic AGV fleet simulation.")
	fmt.Println("\nUsage:")
	fmt.Println("  agvsim [options]")
	fmt.Println("\nOptional Flags:")
	fmt.Println("  -config string")
	fmt.Println("        Path to YAML configuration file")
	fmt.Println("  -output string")
	fmt.Println("        Output directory for exported files (default: current directory)")
	fmt.Println("  -format string")
	fmt.Println("        Export format: json, svg, or all (default: json)")
	fmt.Println("  -seed string")
	fmt.Println("        Override the map seed from config")
	fmt.Println("  -ticks int")
	fmt.Println("        Number of simulation ticks to run (default: 200)")
	fmt.Println("  -spawn int")
	fmt.Println("        Number of AGVs to spawn before running (default: 5)")
	fmt.Println("  -autopilot")
	fmt.Println("        Enable auto-pilot target assignment (default: true)")
	fmt.Println("  -verbose")
	fmt.Println("        Enable verbose output")
	fmt.Println("  -version")
	fmt.Println("        Print version and exit")
	fmt.Println("  -help")
	fmt.Println("        Show this help message")
	fmt.Println("\nExamples:")
	fmt.Println("  # Run with defaults and JSON export")
	fmt.Println("  agvsim")
	fmt.Println("\n  # Run a longer simulation with SVG export")
	fmt.Println("  agvsim -ticks 1000 -spawn 20 -format svg -output ./out")
	fmt.Println("\nConfiguration File:")
	fmt.Println("  The YAML configuration file specifies simulation parameters including:")
	fmt.Println("  - map.seed, map.nodeCount")
	fmt.Println("  - fleet.maxSpeed, fleet.acceleration, fleet.deceleration, fleet.safetyDistance, fleet.hardBorrowLength")
	fmt.Println("  - engine.retryInterval, engine.maxRetriesPerRank, engine.autoPilot, engine.autoPilotProbability")
	fmt.Println("\n  See pkg/simconfig for the full configuration schema.")
}
