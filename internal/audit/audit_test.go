package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

type captureSink struct{ events []Event }

func (c *captureSink) Write(_ context.Context, e Event) error {
	c.events = append(c.events, e)
	return nil
}
func (c *captureSink) Close() error { return nil }

func TestRecorder_StampsTime(t *testing.T) {
	sink := &captureSink{}
	r := NewRecorder(sink)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	r.Record(context.Background(), Event{Type: EventUserEnrolled, UserID: "u1"})
	require.Len(t, sink.events, 1)
	require.Equal(t, fixed, sink.events[0].At)
}

func TestRecorder_SwallowsSinkErrors(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	r := NewRecorder(NewKafkaSinkWithWriter(w))
	require.NotPanics(t, func() {
		r.Record(context.Background(), Event{Type: EventAuthDenied})
	})
}

func TestKafkaSink_KeyedByUser(t *testing.T) {
	w := &fakeWriter{}
	r := NewRecorder(Multi{LogSink{}, NewKafkaSinkWithWriter(w)})

	r.Record(context.Background(), Event{Type: EventCodeExchanged, ClientID: "c1", UserID: "u1", Outcome: "ok"})
	require.Len(t, w.msgs, 1)
	require.Equal(t, "u1", string(w.msgs[0].Key))

	var got Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	require.Equal(t, EventCodeExchanged, got.Type)
	require.Equal(t, "c1", got.ClientID)

	require.NoError(t, r.Close())
	require.True(t, w.closed)
}

func TestNewKafkaSink_RequiresConfig(t *testing.T) {
	_, err := NewKafkaSink(KafkaConfig{})
	require.Error(t, err)
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.Record(context.Background(), Event{Type: EventTokenRevoked})
	require.NoError(t, r.Close())
}
