package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patent-normalizer/internal/config"
	"github.com/turtacn/patent-normalizer/internal/domain/patent"
	"github.com/turtacn/patent-normalizer/internal/ingest"
	"github.com/turtacn/patent-normalizer/internal/parser"
	"github.com/turtacn/patent-normalizer/internal/testutil"
	"github.com/turtacn/patent-normalizer/pkg/errors"
)

func records(n int) []parser.Record {
	out := make([]parser.Record, n)
	for i := range out {
		out[i] = parser.Record{Text: []byte(fmt.Sprintf("record %d", i)), File: "test.xml", Index: i}
	}
	return out
}

// jittered finishes later records first.
func jittered(_ context.Context, rec parser.Record) (*patent.Patent, error) {
	time.Sleep(time.Duration(5-rec.Index%5) * time.Millisecond)
	return nil, nil
}

func TestRun_Ordered(t *testing.T) {
	p := New(config.PipelineConfig{Workers: 8, QueueDepth: 4})
	var got []int
	stats, err := p.Run(context.Background(), FromRecords(records(40)), jittered, func(r Result) error {
		got = append(got, r.Record.Index)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 40)
	for i, idx := range got {
		assert.Equal(t, i, idx)
	}
	assert.Equal(t, Stats{Records: 40, Parsed: 40}, stats)
}

func TestRun_Unordered(t *testing.T) {
	p := New(config.PipelineConfig{Workers: 8, QueueDepth: 4, Unordered: true})
	var got []int
	_, err := p.Run(context.Background(), FromRecords(records(40)), jittered, func(r Result) error {
		got = append(got, r.Record.Index)
		return nil
	})
	require.NoError(t, err)
	sort.Ints(got)
	for i, idx := range got {
		assert.Equal(t, i, idx)
	}
}

func TestRun_BoundsRecordsInFlight(t *testing.T) {
	cfg := config.PipelineConfig{Workers: 3, QueueDepth: 2}
	var emitted, delivered, worst int64
	src := func(ctx context.Context, emit func(parser.Record) error) error {
		for _, rec := range records(30) {
			if err := emit(rec); err != nil {
				return err
			}
			if n := atomic.AddInt64(&emitted, 1) - atomic.LoadInt64(&delivered); n > atomic.LoadInt64(&worst) {
				atomic.StoreInt64(&worst, n)
			}
		}
		return nil
	}
	_, err := New(cfg).Run(context.Background(), src, jittered, func(Result) error {
		atomic.AddInt64(&delivered, 1)
		return nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt64(&worst), int64(cfg.Workers+cfg.QueueDepth))
}

func TestRun_RecordErrorsAreDelivered(t *testing.T) {
	log := testutil.NewMockLogger()
	p := New(config.PipelineConfig{Workers: 2}, WithLogger(log))
	handle := func(_ context.Context, rec parser.Record) (*patent.Patent, error) {
		if rec.Index%3 == 0 {
			return nil, errors.New(errors.ErrCodeRootNotRecognized, "bad root")
		}
		return nil, nil
	}
	var failed []int
	stats, err := p.Run(context.Background(), FromRecords(records(9)), handle, func(r Result) error {
		if r.Err != nil {
			failed = append(failed, r.Record.Index)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 6}, failed)
	assert.Equal(t, 3, stats.Failed)
	assert.Equal(t, 6, stats.Parsed)

	errs := log.MessagesAt("error")
	require.Len(t, errs, 3)
	assert.Equal(t, "PARSE_003", errs[0].Field("code"))
	assert.Equal(t, 0, errs[0].Field("record"))
}

func TestRun_FailFast(t *testing.T) {
	p := New(config.PipelineConfig{Workers: 1, FailFast: true})
	bad := errors.New(errors.ErrCodeMalformedDocument, "broken")
	handle := func(_ context.Context, rec parser.Record) (*patent.Patent, error) {
		if rec.Index == 2 {
			return nil, bad
		}
		return nil, nil
	}
	var seen []int
	stats, err := p.Run(context.Background(), FromRecords(records(10)), handle, func(r Result) error {
		seen = append(seen, r.Record.Index)
		return nil
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMalformedDocument))
	assert.Equal(t, []int{0, 1, 2}, seen)
	assert.Equal(t, 1, stats.Failed)
}

func TestRun_RecordTimeout(t *testing.T) {
	p := New(config.PipelineConfig{Workers: 2, RecordTimeout: 20 * time.Millisecond})
	release := make(chan struct{})
	defer close(release)
	handle := func(_ context.Context, rec parser.Record) (*patent.Patent, error) {
		if rec.Index == 1 {
			<-release
		}
		return nil, nil
	}
	var timedOut Result
	stats, err := p.Run(context.Background(), FromRecords(records(3)), handle, func(r Result) error {
		if r.Err != nil {
			timedOut = r
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, timedOut.Record.Index)
	assert.True(t, errors.IsCode(timedOut.Err, errors.ErrCodeTimeout))
	assert.Equal(t, 1, stats.TimedOut)
	assert.Equal(t, 2, stats.Parsed)
}

func TestRun_SinkErrorStops(t *testing.T) {
	stop := errors.New(errors.ErrCodeSinkWriteFailed, "disk full")
	var calls int
	_, err := New(config.PipelineConfig{Workers: 4}).Run(context.Background(), FromRecords(records(100)), jittered,
		func(Result) error {
			calls++
			return stop
		})
	assert.Equal(t, stop, err)
	assert.Equal(t, 1, calls)
}

func TestRun_SourceError(t *testing.T) {
	boom := errors.New(errors.ErrCodeArchiveUnreadable, "truncated zip")
	src := func(ctx context.Context, emit func(parser.Record) error) error {
		if err := emit(records(1)[0]); err != nil {
			return err
		}
		return boom
	}
	_, err := New(config.PipelineConfig{Workers: 2}).Run(context.Background(), src, jittered, func(Result) error { return nil })
	assert.Equal(t, boom, err)
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var n int
	_, err := New(config.PipelineConfig{Workers: 2}).Run(ctx, FromRecords(records(1000)), jittered, func(Result) error {
		n++
		if n == 3 {
			cancel()
		}
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, n, 1000)
}

func TestRun_FromArchive(t *testing.T) {
	prs := parser.New()
	handle := func(_ context.Context, rec parser.Record) (*patent.Patent, error) {
		return prs.ParseRecord(rec)
	}
	var ids []string
	src := FromArchive(ingest.New(), filepath.Join("..", "parser", "testdata", "grant_aps.txt"))
	stats, err := New(config.PipelineConfig{Workers: 2}).Run(context.Background(), src, handle, func(r Result) error {
		require.NoError(t, r.Err)
		ids = append(ids, r.Patent.ID().ID())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"US3930271"}, ids)
	assert.Equal(t, 1, stats.Parsed)
}

func TestRun_DuplicatesAreSkipped(t *testing.T) {
	p := New(config.PipelineConfig{Workers: 2, FailFast: true})
	handle := func(_ context.Context, rec parser.Record) (*patent.Patent, error) {
		if rec.Index%2 == 1 {
			return nil, errors.New(errors.ErrCodeDuplicateRecord, "seen")
		}
		return nil, nil
	}
	stats, err := p.Run(context.Background(), FromRecords(records(6)), handle, func(Result) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, Stats{Records: 6, Parsed: 3, Skipped: 3}, stats)
}

//Personal.AI order the ending
