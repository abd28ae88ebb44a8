package dataset

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/annel0/extrudegen/internal/config"
	nats "github.com/nats-io/nats.go"
)

// jetStreamPublisher часть nats.JetStreamContext, нужная приемнику
type jetStreamPublisher interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// NATSSink публикует примеры в JetStream, subject <subject>.sample.
type NATSSink struct {
	js        jetStreamPublisher
	drain     func() error
	subject   string
	published uint64
}

func newNATSSink(js jetStreamPublisher, drain func() error, subject string) *NATSSink {
	return &NATSSink{js: js, drain: drain, subject: subject}
}

// NewNATSSink подключается к NATS и гарантирует наличие стрима
func NewNATSSink(cfg config.NATSConfig) (*NATSSink, error) {
	stream := cfg.Stream
	if stream == "" {
		stream = "SAMPLES"
	}
	subject := cfg.Subject
	if subject == "" {
		subject = "samples"
	}

	nc, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if _, err := js.StreamInfo(stream); err != nil {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:      stream,
			Subjects:  []string{subject + ".*"},
			Retention: nats.LimitsPolicy,
			Storage:   nats.FileStorage,
		})
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("add stream: %w", err)
		}
	}

	return newNATSSink(js, nc.Drain, subject), nil
}

// Put публикует JSON примера; ID идет в Nats-Msg-Id для дедупликации
func (n *NATSSink) Put(ctx context.Context, s *Sample) error {
	data, err := s.Encode()
	if err != nil {
		return err
	}
	_, err = n.js.Publish(n.subject+".sample", data, nats.Context(ctx), nats.MsgId(s.ID.String()))
	if err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	atomic.AddUint64(&n.published, 1)
	return nil
}

// Published число опубликованных примеров
func (n *NATSSink) Published() uint64 {
	return atomic.LoadUint64(&n.published)
}

func (n *NATSSink) Close() error {
	return n.drain()
}
