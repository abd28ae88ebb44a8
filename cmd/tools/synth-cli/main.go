package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/annel0/extrudegen/internal/config"
	"github.com/annel0/extrudegen/internal/dataset"
	"github.com/annel0/extrudegen/internal/kernel"
	"github.com/annel0/extrudegen/internal/logging"
)

func main() {
	var (
		command    = flag.String("cmd", "generate", "Command: generate, show, list, export")
		count      = flag.Int("n", 10, "Number of samples to generate or list")
		seed       = flag.Int64("seed", 0, "Base seed (0 = from config or current time)")
		id         = flag.String("id", "", "Sample ID for show/export")
		out        = flag.String("out", "export", "Output directory for export")
		configPath = flag.String("config", "", "Path to YAML config")
		verbose    = flag.Bool("v", false, "Debug logging to stdout")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Config: %v", err)
	}

	level := logging.WARN
	if *verbose {
		level = logging.DEBUG
	}
	logging.SetDefaultLogger(logging.NewWriterLogger("synth-cli", os.Stderr, level))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch *command {
	case "generate":
		err = generate(ctx, cfg, *count, resolveSeed(*seed, cfg))
	case "show":
		err = show(cfg, *id)
	case "list":
		err = list(cfg, *count)
	case "export":
		err = export(cfg, *id, *out)
	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: generate, show, list, export")
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("❌ %s failed: %v", *command, err)
	}
}

func resolveSeed(flagSeed int64, cfg *config.Config) int64 {
	if flagSeed != 0 {
		return flagSeed
	}
	if cfg.Generator.Seed != 0 {
		return cfg.Generator.Seed
	}
	return time.Now().UnixNano()
}

func newGenerator(cfg *config.Config, metrics *dataset.Metrics) *dataset.Generator {
	return dataset.NewGenerator(dataset.MeshKernelFactory(cfg.Kernel.Snap), dataset.OptionsFromConfig(cfg.Generator), metrics)
}

// generate пишет n примеров во все приемники из конфига
func generate(ctx context.Context, cfg *config.Config, n int, baseSeed int64) error {
	sink, err := dataset.NewSinkFromConfig(ctx, cfg, nil, nil)
	if err != nil {
		return err
	}
	defer sink.Close()

	start := time.Now()
	written, err := newGenerator(cfg, nil).Run(ctx, n, baseSeed, sink)
	fmt.Printf("🧱 Generated %d/%d samples (seeds %d..%d) in %s\n", written, n, baseSeed, baseSeed+int64(n)-1, time.Since(start).Round(time.Millisecond))
	return err
}

func openStore(cfg *config.Config) (*dataset.Store, error) {
	return dataset.OpenStore(cfg.Store.GetPath(), cfg.Store.Compression)
}

// show печатает пример в JSON
func show(cfg *config.Config, id string) error {
	if id == "" {
		return fmt.Errorf("-id is required")
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	sample, err := store.Get(id)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(sample)
}

// list печатает краткую сводку по сохраненным примерам
func list(cfg *config.Config, limit int) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	total, err := store.Count()
	if err != nil {
		return err
	}
	samples, err := store.List(limit)
	if err != nil {
		return err
	}

	fmt.Printf("📦 %d samples stored, showing %d\n", total, len(samples))
	for _, s := range samples {
		fmt.Printf("%s  seed=%-20d steps=%d actions=%d  %s\n",
			s.ID, s.Seed, len(s.Program.Steps), len(s.Trace), s.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

// export заново исполняет программу примера и сохраняет сцены в OBJ
func export(cfg *config.Config, id, dir string) error {
	if id == "" {
		return fmt.Errorf("-id is required")
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	sample, err := store.Get(id)
	if err != nil {
		return err
	}

	factory := dataset.MeshKernelFactory(cfg.Kernel.Snap)
	target, err := newGenerator(cfg, nil).Reference(sample.Program, sample.Seed)
	if err != nil {
		return err
	}
	start, err := kernel.NewHandle(factory(sample.Seed)).WithTarget(target)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	targetPath := filepath.Join(dir, id+"_target.obj")
	startPath := filepath.Join(dir, id+"_start.obj")
	if err := target.Save(targetPath); err != nil {
		return err
	}
	if err := start.Save(startPath); err != nil {
		return err
	}
	fmt.Printf("💾 %s\n💾 %s\n", targetPath, startPath)
	return nil
}
