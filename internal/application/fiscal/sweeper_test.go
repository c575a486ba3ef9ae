package fiscal

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
	"github.com/jhoicas/pos-fiscal-api/internal/infrastructure/memory"
)

type fakeQueue struct {
	mu   sync.Mutex
	refs []entity.DocumentRef
	err  error
}

func (q *fakeQueue) Enqueue(ref entity.DocumentRef) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.refs = append(q.refs, ref)
	return nil
}

func (q *fakeQueue) snapshot() []entity.DocumentRef {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]entity.DocumentRef(nil), q.refs...)
}

type sweeperFixture struct {
	store *memory.Store
	queue *fakeQueue
	gw    *Gateway
	sw    *Sweeper
}

func newSweeperFixture(t *testing.T) *sweeperFixture {
	t.Helper()
	f := &sweeperFixture{store: memory.NewStore(), queue: &fakeQueue{}}
	f.gw = NewGateway(f.store.Sales(), f.store.Returns(), f.store.Attempts(), nil, &scriptedPSE{steps: []step{accepted()}}, nil, DefaultConfig(), zerolog.Nop())
	f.sw = NewSweeper(f.store.Sales(), f.store.Returns(), f.queue, f.gw, SweeperConfig{
		Interval:      10 * time.Millisecond,
		StaleAfter:    5 * time.Minute,
		MaxPendingAge: 24 * time.Hour,
	}, zerolog.Nop())
	// el barrido mira "10 minutos después": todo lo creado en la prueba ya está vencido
	later := time.Now().Add(10 * time.Minute)
	f.sw.now = func() time.Time { return later }
	return f
}

func (f *sweeperFixture) sale(t *testing.T, id string, number int64, created time.Time, fiscal entity.FiscalStatus) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.store.Sales().Create(ctx, &entity.SaleDocument{
		ID: id, DocumentType: "03", Series: "B001", Number: number,
		Status: entity.SaleStatusIssued, CreatedAt: created, UpdatedAt: created,
	}))
	if fiscal != entity.FiscalStatusNone {
		submitted := created
		require.NoError(t, f.store.Sales().UpdateFiscal(ctx, id, entity.FiscalStatusNone,
			entity.FiscalState{Status: fiscal, SubmittedAt: &submitted}))
	}
}

func TestSweepOnce_ReencolaNoneYPendingVencidos(t *testing.T) {
	f := newSweeperFixture(t)
	now := time.Now()
	f.sale(t, "none", 1, now, entity.FiscalStatusNone)
	f.sale(t, "pend", 2, now, entity.FiscalStatusPending)
	f.sale(t, "ok", 3, now, entity.FiscalStatusNone)
	require.NoError(t, f.store.Sales().UpdateFiscal(context.Background(), "ok", entity.FiscalStatusNone,
		entity.FiscalState{Status: entity.FiscalStatusAccepted}))
	require.NoError(t, f.store.Returns().Create(context.Background(), &entity.ReturnDocument{
		ID: "ret", DocumentType: "07", Series: "BC01", Number: 1, CreatedAt: now, UpdatedAt: now,
	}))

	res, err := f.sw.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Enqueued)
	assert.Zero(t, res.Abandoned)
	assert.ElementsMatch(t, []entity.DocumentRef{
		{Kind: entity.DocumentKindSale, ID: "none"},
		{Kind: entity.DocumentKindSale, ID: "pend"},
		{Kind: entity.DocumentKindReturn, ID: "ret"},
	}, f.queue.snapshot())
}

func TestSweepOnce_IgnoraRecientes(t *testing.T) {
	f := newSweeperFixture(t)
	f.sw.now = time.Now
	f.sale(t, "none", 1, time.Now(), entity.FiscalStatusNone)

	res, err := f.sw.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Enqueued)
}

func TestSweepOnce_AbandonaPendingAntiguo(t *testing.T) {
	f := newSweeperFixture(t)
	f.sale(t, "viejo", 1, time.Now().Add(-48*time.Hour), entity.FiscalStatusPending)

	res, err := f.sw.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Abandoned)
	assert.Empty(t, f.queue.snapshot())

	s, _ := f.store.Sales().GetByID(context.Background(), "viejo")
	assert.Equal(t, entity.FiscalStatusRejected, s.Fiscal.Status)
	assert.Equal(t, "timeout: requiere intervención manual", s.Fiscal.LastError)
}

func TestSweepOnce_ColaLlena(t *testing.T) {
	f := newSweeperFixture(t)
	f.queue.err = ErrQueueFull
	f.sale(t, "none", 1, time.Now(), entity.FiscalStatusNone)

	res, err := f.sw.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.Zero(t, res.Enqueued)
}

func TestSweeper_StartStop(t *testing.T) {
	f := newSweeperFixture(t)
	f.sale(t, "none", 1, time.Now(), entity.FiscalStatusNone)

	f.sw.Start(context.Background())
	assert.Eventually(t, func() bool { return len(f.queue.snapshot()) > 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, f.sw.Stop(context.Background()))
	require.NoError(t, f.sw.Stop(context.Background()))
}

func TestSweeper_RedriveConWorker(t *testing.T) {
	f := newSweeperFixture(t)
	f.sale(t, "none", 1, time.Now(), entity.FiscalStatusNone)

	w := NewWorker(f.gw, WorkerConfig{QueueSize: 4, Workers: 1}, zerolog.Nop())
	f.sw.queue = w
	w.Start(context.Background())
	defer func() { require.NoError(t, w.Stop(context.Background())) }()

	_, err := f.sw.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		s, err := f.store.Sales().GetByID(context.Background(), "none")
		return err == nil && s.Fiscal.Status == entity.FiscalStatusAccepted
	}, 2*time.Second, 5*time.Millisecond)
}
