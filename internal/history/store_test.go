package history

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efebarandurmaz/ontometer/internal/evaluation"
	"github.com/efebarandurmaz/ontometer/internal/qualitygate"
	"github.com/efebarandurmaz/ontometer/internal/reasoner"
	"github.com/efebarandurmaz/ontometer/internal/report"
	"github.com/efebarandurmaz/ontometer/internal/structural"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sample(id, source string, created time.Time) *evaluation.Assessment {
	res := structural.Result{Classes: 3, Roots: 1, Leaves: 2, InheritanceDepth: 2, RelationshipRichness: 25}
	cons := reasoner.Result{Reasoner: "structural", Outcome: reasoner.Consistent, Duration: 3 * time.Millisecond}
	return &evaluation.Assessment{
		ID:          id,
		Source:      source,
		Keyword:     "device",
		Triples:     12,
		CreatedAt:   created,
		CompletedAt: created.Add(time.Second),
		Report:      report.Build(report.Inputs{Structural: res, Consistency: cons}),
		Structural:  res,
		Consistency: cons,
		Gates:       &qualitygate.PipelineResult{Status: qualitygate.GatePassed, PassedCount: 3},
	}
}

func TestSaveAndGet(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(ctx, sample("a1", "pizza.ttl", created)))

	got, err := s.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "pizza.ttl", got.Source)
	assert.Equal(t, 12, got.Triples)
	assert.True(t, got.CreatedAt.Equal(created))
	assert.Equal(t, reasoner.Consistent, got.Consistency.Outcome)
	assert.Equal(t, 2, got.Structural.InheritanceDepth)
	require.NotNil(t, got.Gates)
	assert.Equal(t, qualitygate.GatePassed, got.Gates.Status)

	// Report keys survive in order.
	require.NotNil(t, got.Report)
	var keys []string
	got.Report.Each(func(k string, _ any) { keys = append(keys, k) })
	assert.Equal(t, report.Keys, keys)
	v, _ := got.Report.Get(report.KeyInheritanceDepth)
	assert.EqualValues(t, 2, v)
}

func TestGet_NotFound(t *testing.T) {
	_, err := openStore(t).Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSave_Replaces(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	a := sample("a1", "pizza.ttl", time.Now().UTC())
	require.NoError(t, s.Save(ctx, a))
	a.Keyword = "food"
	require.NoError(t, s.Save(ctx, a))

	list, err := s.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "food", list[0].Keyword)
}

func TestList(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(ctx, sample("old", "pizza.ttl", base)))
	require.NoError(t, s.Save(ctx, sample("mid", "saref.ttl", base.Add(500*time.Millisecond))))
	require.NoError(t, s.Save(ctx, sample("new", "pizza.ttl", base.Add(time.Hour))))

	list, err := s.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{list[0].ID, list[1].ID, list[2].ID})
	assert.Equal(t, 1, list[0].Consistency)
	assert.Equal(t, "passed", list[0].GateStatus)

	list, err = s.List(ctx, "pizza.ttl", 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "new", list[0].ID)
}

func TestList_Empty(t *testing.T) {
	list, err := openStore(t).List(context.Background(), "", 10)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestDelete(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, sample("a1", "pizza.ttl", time.Now())))
	require.NoError(t, s.Delete(ctx, "a1"))
	assert.ErrorIs(t, s.Delete(ctx, "a1"), ErrNotFound)
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Save(context.Background(), sample("m", "x.ttl", time.Now())))
	_, err = s.Get(context.Background(), "m")
	assert.NoError(t, err)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestOpen_PragmasOnEveryConnection(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	// Hold several connections at once so the pool has to open new ones.
	var conns []*sql.Conn
	for i := 0; i < 3; i++ {
		c, err := s.db.Conn(ctx)
		require.NoError(t, err)
		conns = append(conns, c)
	}
	for _, c := range conns {
		var timeout int
		require.NoError(t, c.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout))
		assert.Equal(t, 30000, timeout)
		var mode string
		require.NoError(t, c.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode))
		assert.Equal(t, "wal", mode)
		require.NoError(t, c.Close())
	}
}

func TestSave_Concurrent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	const workers, perWorker = 16, 25

	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	base := time.Now()
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id := fmt.Sprintf("w%d-%d", w, i)
				errs <- s.Save(ctx, sample(id, "pizza.ttl", base.Add(time.Duration(w*perWorker+i)*time.Millisecond)))
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	items, err := s.List(ctx, "", workers*perWorker)
	require.NoError(t, err)
	assert.Len(t, items, workers*perWorker)
}

func TestStoreImplementsEvaluationStore(t *testing.T) {
	var _ evaluation.Store = (*Store)(nil)
}
