package dataset

import (
	"context"
	"errors"
	"fmt"

	"github.com/annel0/extrudegen/internal/config"
	"github.com/annel0/extrudegen/internal/logging"
)

// Sink приемник сгенерированных примеров
type Sink interface {
	Put(ctx context.Context, s *Sample) error
	Close() error
}

// StoreSink пишет примеры в Store
type StoreSink struct {
	store *Store
	owned bool
}

// NewStoreSink оборачивает store; Close не закрывает чужое хранилище
func NewStoreSink(store *Store) *StoreSink {
	return &StoreSink{store: store}
}

func (s *StoreSink) Put(ctx context.Context, sample *Sample) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.Put(sample)
}

func (s *StoreSink) Close() error {
	if s.owned {
		return s.store.Close()
	}
	return nil
}

// MultiSink рассылает пример во все приемники
type MultiSink []Sink

func (m MultiSink) Put(ctx context.Context, s *Sample) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Put(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiSink) Close() error {
	var errs []error
	for _, sink := range m {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// countingSink учитывает ошибки приемника в метриках
type countingSink struct {
	Sink
	name    string
	metrics *Metrics
}

func (c countingSink) Put(ctx context.Context, s *Sample) error {
	err := c.Sink.Put(ctx, s)
	if err != nil {
		c.metrics.sinkError(c.name)
	}
	return err
}

// NewSinkFromConfig собирает приемники по списку sink.kinds.
// Если store != nil, он используется для вида "store", иначе хранилище
// открывается по store.path и закрывается вместе с приемником.
func NewSinkFromConfig(ctx context.Context, cfg *config.Config, store *Store, metrics *Metrics) (Sink, error) {
	var sinks MultiSink
	fail := func(err error) (Sink, error) {
		_ = sinks.Close()
		return nil, err
	}

	for _, kind := range cfg.Sink.Kinds {
		var sink Sink
		switch kind {
		case "store":
			if store != nil {
				sink = NewStoreSink(store)
				break
			}
			opened, err := OpenStore(cfg.Store.GetPath(), cfg.Store.Compression)
			if err != nil {
				return fail(err)
			}
			sink = &StoreSink{store: opened, owned: true}
		case "nats":
			natsSink, err := NewNATSSink(cfg.Sink.NATS)
			if err != nil {
				return fail(err)
			}
			sink = natsSink
		case "redis":
			redisSink, err := NewRedisSink(ctx, cfg.Sink.Redis)
			if err != nil {
				return fail(err)
			}
			sink = redisSink
		default:
			return fail(fmt.Errorf("unknown sink kind %q", kind))
		}
		logging.Info("Приемник примеров: %s", kind)
		sinks = append(sinks, countingSink{Sink: sink, name: kind, metrics: metrics})
	}

	if len(sinks) == 0 {
		return nil, errors.New("no sinks configured")
	}
	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return sinks, nil
}
