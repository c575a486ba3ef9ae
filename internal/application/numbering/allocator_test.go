package numbering

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-fiscal-api/internal/domain"
	"github.com/jhoicas/pos-fiscal-api/internal/domain/entity"
	"github.com/jhoicas/pos-fiscal-api/internal/infrastructure/memory"
)

func testConfig() Config {
	return Config{MaxAttempts: 10_000, BaseBackoff: 0}
}

// Llamadas concurrentes a la misma serie: sin duplicados y exactamente {n0+1 … n0+k}.
func TestNextNumber_ConcurrenteSinDuplicadosNiHuecos(t *testing.T) {
	store := memory.NewStore()
	store.SetCounter(entity.DocumentTypeBoleta, "B001", 10)
	alloc := NewAllocator(store.Counters(), store.BurnedNumbers(), testConfig(), zerolog.Nop())

	const k = 64
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		got []int64
	)
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := alloc.NextNumber(context.Background(), entity.DocumentTypeBoleta, "B001")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			got = append(got, n)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	require.Len(t, got, k)
	for i, n := range got {
		assert.Equal(t, int64(11+i), n)
	}
	c, err := alloc.Peek(context.Background(), entity.DocumentTypeBoleta, "B001")
	require.NoError(t, err)
	assert.Equal(t, int64(10+k), c.LastNumber)
}

func TestNextNumber_SerieNuevaEmpiezaEnUno(t *testing.T) {
	store := memory.NewStore()
	alloc := NewAllocator(store.Counters(), store.BurnedNumbers(), testConfig(), zerolog.Nop())

	n, err := alloc.NextNumber(context.Background(), entity.DocumentTypeFactura, "F001")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = alloc.NextNumber(context.Background(), entity.DocumentTypeFactura, "F001")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestNextNumber_SeriesIndependientes(t *testing.T) {
	store := memory.NewStore()
	alloc := NewAllocator(store.Counters(), store.BurnedNumbers(), testConfig(), zerolog.Nop())
	ctx := context.Background()

	a, _ := alloc.NextNumber(ctx, entity.DocumentTypeBoleta, "B001")
	b, _ := alloc.NextNumber(ctx, entity.DocumentTypeBoleta, "B002")
	c, _ := alloc.NextNumber(ctx, entity.DocumentTypeFactura, "B001")
	assert.Equal(t, []int64{1, 1, 1}, []int64{a, b, c})
}

func TestNextNumber_EntradaInvalida(t *testing.T) {
	alloc := NewAllocator(memory.NewStore().Counters(), nil, testConfig(), zerolog.Nop())
	_, err := alloc.NextNumber(context.Background(), "03", " ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// conflictingCounters siempre pierde la carrera.
type conflictingCounters struct {
	casCalls int
	last     int64
	casErr   error
}

func (c *conflictingCounters) Get(_ context.Context, code, series string) (*entity.SeriesCounter, error) {
	return &entity.SeriesCounter{DocumentCode: code, Series: series, LastNumber: c.last}, nil
}
func (c *conflictingCounters) EnsureExists(context.Context, string, string) error { return nil }
func (c *conflictingCounters) CompareAndSwap(context.Context, string, string, int64, int64) (bool, error) {
	c.casCalls++
	return false, c.casErr
}

func TestNextNumber_ContencionAgotaReintentos(t *testing.T) {
	counters := &conflictingCounters{last: 10}
	alloc := NewAllocator(counters, nil, Config{MaxAttempts: 4, BaseBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}, zerolog.Nop())
	var slept []time.Duration
	alloc.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	_, err := alloc.NextNumber(context.Background(), "03", "B001")
	assert.ErrorIs(t, err, domain.ErrAllocationContention)
	assert.Equal(t, 4, counters.casCalls)
	assert.Len(t, slept, 3, "no se duerme después del último intento")
	for _, d := range slept {
		assert.LessOrEqual(t, d, 2*time.Millisecond)
	}
}

func TestNextNumber_ErrorDeEscrituraNoConsume(t *testing.T) {
	dbErr := errors.New("conexión perdida")
	counters := &conflictingCounters{last: 10, casErr: dbErr}
	alloc := NewAllocator(counters, nil, testConfig(), zerolog.Nop())

	_, err := alloc.NextNumber(context.Background(), "03", "B001")
	assert.ErrorIs(t, err, dbErr)
	assert.Equal(t, 1, counters.casCalls)
	assert.Equal(t, int64(10), counters.last)
}

func TestNextNumber_ContextoCancelado(t *testing.T) {
	alloc := NewAllocator(&conflictingCounters{}, nil, Config{MaxAttempts: 3, BaseBackoff: time.Second}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := alloc.NextNumber(ctx, "03", "B001")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoff_Acotado(t *testing.T) {
	alloc := NewAllocator(&conflictingCounters{}, nil, Config{MaxAttempts: 3, BaseBackoff: 10 * time.Millisecond, MaxBackoff: 40 * time.Millisecond}, zerolog.Nop())
	for attempt := 1; attempt <= 10; attempt++ {
		d := alloc.backoff(attempt)
		assert.LessOrEqual(t, d, 40*time.Millisecond)
		assert.GreaterOrEqual(t, d, 5*time.Millisecond)
	}
}

func TestBurn_RegistraConContextoCancelado(t *testing.T) {
	store := memory.NewStore()
	alloc := NewAllocator(store.Counters(), store.BurnedNumbers(), testConfig(), zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	alloc.Burn(ctx, "03", "B001", 11, errors.New("disco lleno"))

	burned, err := alloc.Burned(context.Background(), "03", "B001")
	require.NoError(t, err)
	require.Len(t, burned, 1)
	assert.Equal(t, int64(11), burned[0].Number)
	assert.Equal(t, "disco lleno", burned[0].Reason)
}
