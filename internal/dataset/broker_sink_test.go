package dataset

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redis/v8"
	nats "github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	subject string
	data    []byte
	opts    int
}

type fakeJetStream struct {
	msgs []published
	err  error
}

func (f *fakeJetStream) Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.msgs = append(f.msgs, published{subject: subj, data: data, opts: len(opts)})
	return &nats.PubAck{Stream: "SAMPLES", Sequence: uint64(len(f.msgs))}, nil
}

func TestNATSSink_Put(t *testing.T) {
	js := &fakeJetStream{}
	drained := false
	sink := newNATSSink(js, func() error { drained = true; return nil }, "samples")

	s := testSample(5)
	require.NoError(t, sink.Put(context.Background(), s))
	require.NoError(t, sink.Put(context.Background(), testSample(6)))
	assert.Equal(t, uint64(2), sink.Published())

	require.Len(t, js.msgs, 2)
	assert.Equal(t, "samples.sample", js.msgs[0].subject)
	assert.Equal(t, 2, js.msgs[0].opts, "Контекст и Nats-Msg-Id")
	got, err := DecodeSample(js.msgs[0].data)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)

	require.NoError(t, sink.Close())
	assert.True(t, drained)
}

func TestNATSSink_PublishError(t *testing.T) {
	sink := newNATSSink(&fakeJetStream{err: nats.ErrNoResponders}, func() error { return nil }, "samples")
	err := sink.Put(context.Background(), testSample(1))
	assert.ErrorIs(t, err, nats.ErrNoResponders)
	assert.Zero(t, sink.Published())
}

// recordingPipe перехватывает команды транзакции; остальные методы
// Pipeliner приемник не вызывает
type recordingPipe struct {
	redis.Pipeliner
	tx *fakeRedis
}

func (p recordingPipe) RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	p.tx.pushed[key] = append(p.tx.pushed[key], values...)
	return redis.NewIntCmd(ctx)
}

func (p recordingPipe) LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd {
	p.tx.trims = append(p.tx.trims, [2]int64{start, stop})
	return redis.NewStatusCmd(ctx)
}

type fakeRedis struct {
	pushed map[string][]interface{}
	trims  [][2]int64
	txs    int
	err    error
	closed bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{pushed: make(map[string][]interface{})}
}

func (f *fakeRedis) TxPipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.txs++
	return nil, fn(recordingPipe{tx: f})
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

func TestRedisSink_Put(t *testing.T) {
	client := newFakeRedis()
	sink := newRedisSink(client, "", 100)
	s := testSample(8)

	require.NoError(t, sink.Put(context.Background(), s))
	assert.Equal(t, 1, client.txs, "RPUSH и LTRIM идут одной транзакцией")

	values := client.pushed["extrudegen:samples"]
	require.Len(t, values, 1)
	got, err := DecodeSample(values[0].([]byte))
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, [][2]int64{{-100, -1}}, client.trims, "Список обрезается до последних maxLen")

	require.NoError(t, sink.Close())
	assert.True(t, client.closed)
}

func TestRedisSink_NoTrimWithoutLimit(t *testing.T) {
	client := newFakeRedis()
	sink := newRedisSink(client, "custom", 0)

	require.NoError(t, sink.Put(context.Background(), testSample(1)))
	assert.Len(t, client.pushed["custom"], 1)
	assert.Empty(t, client.trims)
}

func TestRedisSink_TxError(t *testing.T) {
	client := newFakeRedis()
	client.err = errors.New("connection reset")
	sink := newRedisSink(client, "", 0)

	err := sink.Put(context.Background(), testSample(1))
	assert.ErrorContains(t, err, "redis push")
	assert.ErrorIs(t, err, client.err)
}
