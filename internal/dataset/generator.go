package dataset

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/annel0/extrudegen/internal/config"
	"github.com/annel0/extrudegen/internal/kernel"
	"github.com/annel0/extrudegen/internal/kernel/meshkernel"
	"github.com/annel0/extrudegen/internal/logging"
	"github.com/annel0/extrudegen/internal/program"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrCompileExhausted ни одна из выбранных программ не скомпилировалась
var ErrCompileExhausted = errors.New("compile attempts exhausted")

// KernelFactory создает пустую сцену ядра для сида примера
type KernelFactory func(seed int64) kernel.Adapter

// MeshKernelFactory фабрика эталонного ядра с заданным шагом квантования
func MeshKernelFactory(snap float64) KernelFactory {
	return func(seed int64) kernel.Adapter {
		return meshkernel.New(meshkernel.Options{Snap: snap, Seed: seed})
	}
}

// GeneratorOptions параметры генератора примеров
type GeneratorOptions struct {
	Sampler            program.SamplerOptions
	Epsilon            float64
	MaxCompileAttempts int
	ExportDir          string // если задан, сцены сохраняются в OBJ
}

// OptionsFromConfig переносит секцию generator конфига
func OptionsFromConfig(g config.GeneratorConfig) GeneratorOptions {
	sampler := program.DefaultSamplerOptions()
	sampler.Steps = g.Steps
	sampler.MaxAttempts = g.MaxSampleAttempts
	sampler.MinMagnitude = g.MinMagnitude
	sampler.MaxMagnitude = g.MaxMagnitude
	sampler.InsetA = g.InsetA
	sampler.InsetB = g.InsetB
	sampler.DifferenceRate = g.DifferenceRate
	sampler.Epsilon = g.Epsilon
	return GeneratorOptions{
		Sampler:            sampler,
		Epsilon:            g.Epsilon,
		MaxCompileAttempts: g.MaxCompileAttempts,
		ExportDir:          g.ExportDir,
	}
}

// Generator строит примеры: выборка программы, исполнение до целевого тела
// и компиляция в трассу относительно этого тела.
type Generator struct {
	factory KernelFactory
	opts    GeneratorOptions
	metrics *Metrics
	logger  *logging.Logger
	tracer  trace.Tracer
}

// NewGenerator создает генератор; metrics может быть nil
func NewGenerator(factory KernelFactory, opts GeneratorOptions, metrics *Metrics) *Generator {
	if opts.Epsilon <= 0 {
		opts.Epsilon = program.DefaultEpsilon
	}
	if opts.MaxCompileAttempts <= 0 {
		opts.MaxCompileAttempts = 1
	}
	return &Generator{
		factory: factory,
		opts:    opts,
		metrics: metrics,
		tracer:  otel.Tracer("github.com/annel0/extrudegen/internal/dataset"),
	}
}

// SetLogger задает логгер компонента; без него пишется в логгер по умолчанию
func (g *Generator) SetLogger(l *logging.Logger) {
	g.logger = l
}

func (g *Generator) debugf(format string, args ...interface{}) {
	if g.logger != nil {
		g.logger.Debug(format, args...)
		return
	}
	logging.Debug(format, args...)
}

// Options текущие параметры
func (g *Generator) Options() GeneratorOptions { return g.opts }

// Reference исполняет программу на пустой сцене сида и возвращает целевое тело
func (g *Generator) Reference(p program.Program, seed int64) (kernel.Handle, error) {
	return p.Execute(kernel.NewHandle(g.factory(seed)))
}

// Generate строит один пример. Один и тот же seed дает ту же программу и трассу.
// Программа, отвергнутая ядром как вырожденная или не скомпилированная,
// выбирается заново не более MaxCompileAttempts раз.
func (g *Generator) Generate(ctx context.Context, seed int64) (*Sample, error) {
	ctx, span := g.tracer.Start(ctx, "dataset.generate", trace.WithAttributes(attribute.Int64("seed", seed)))
	defer span.End()

	sample, err := g.generate(ctx, seed)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("sample.id", sample.ID.String()),
		attribute.Int("sample.actions", len(sample.Trace)),
	)
	return sample, nil
}

func (g *Generator) generate(ctx context.Context, seed int64) (*Sample, error) {
	start := time.Now()
	rng := rand.New(rand.NewSource(seed))

	for attempt := 1; attempt <= g.opts.MaxCompileAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		empty := kernel.NewHandle(g.factory(seed))
		sampler := program.NewSampler(rng, g.opts.Sampler)
		prog, err := sampler.Program(empty)
		g.metrics.degenerateRetries(sampler.Stats().DegenerateRetries)
		if errors.Is(err, kernel.ErrDegenerateGeometry) {
			// ядро отвергло выбранный шаг: программа выбрасывается целиком
			g.metrics.degenerateRetries(1)
			g.debugf("seed %d: ядро отвергло шаг, попытка %d/%d: %v", seed, attempt, g.opts.MaxCompileAttempts, err)
			continue
		}
		if err != nil {
			if errors.Is(err, program.ErrGeometryExhausted) {
				g.metrics.exhaustedBy("geometry")
			}
			return nil, fmt.Errorf("seed %d: %w", seed, err)
		}

		target, err := prog.Execute(empty)
		if err != nil {
			return nil, fmt.Errorf("seed %d: execute: %w", seed, err)
		}

		actions, ok := prog.Compile(rng, target, g.opts.Epsilon)
		if !ok {
			g.metrics.compileMiss()
			g.debugf("seed %d: промах компиляции, попытка %d/%d", seed, attempt, g.opts.MaxCompileAttempts)
			continue
		}

		sample := &Sample{
			ID:        uuid.New(),
			Seed:      seed,
			CreatedAt: time.Now().UTC(),
			Program:   prog,
			Trace:     actions,
		}
		if g.opts.ExportDir != "" {
			if err := g.export(sample, target); err != nil {
				return nil, err
			}
		}
		g.metrics.observeSample(time.Since(start))
		return sample, nil
	}

	g.metrics.exhaustedBy("compile")
	return nil, fmt.Errorf("seed %d: %w after %d attempts", seed, ErrCompileExhausted, g.opts.MaxCompileAttempts)
}

// export сохраняет целевое тело и стартовую сцену, которой оно назначено целью
func (g *Generator) export(s *Sample, target kernel.Handle) error {
	if err := os.MkdirAll(g.opts.ExportDir, 0755); err != nil {
		return fmt.Errorf("export dir: %w", err)
	}
	base := filepath.Join(g.opts.ExportDir, s.ID.String())
	if err := target.Save(base + "_target.obj"); err != nil {
		return err
	}
	start, err := kernel.NewHandle(g.factory(s.Seed)).WithTarget(target)
	if err != nil {
		return err
	}
	return start.Save(base + "_start.obj")
}

// Run генерирует n примеров с сидами baseSeed+i и передает их в sink.
// Возвращает число успешно записанных примеров.
func (g *Generator) Run(ctx context.Context, n int, baseSeed int64, sink Sink) (int, error) {
	written := 0
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		sample, err := g.Generate(ctx, baseSeed+int64(i))
		if err != nil {
			return written, err
		}
		if err := sink.Put(ctx, sample); err != nil {
			return written, fmt.Errorf("sink: %w", err)
		}
		written++
		if written%100 == 0 {
			logging.Info("Сгенерировано %d/%d примеров", written, n)
		}
	}
	return written, nil
}
