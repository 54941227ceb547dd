package recycling_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/reclaim/internal/assetclass"
	"github.com/zjrosen/reclaim/internal/recycling"
	"github.com/zjrosen/reclaim/internal/testutil"
)

func TestRecycleByDestruction(t *testing.T) {
	fixture := testutil.NewBuilder(t).
		WithClass("pet-bottle", 10).
		WithUnits("pet-bottle", alice, "b-1").
		Build()
	svc := fixture.Service
	defer svc.Close()

	events := svc.Subscribe(context.Background())

	record, err := svc.RecycleByDestruction(context.Background(), alice, "pet-bottle", "b-1")
	require.NoError(t, err)
	require.Equal(t, uint64(1), record.Seq)
	require.Equal(t, alice, record.Actor)
	require.Equal(t, recycling.MethodDestruction, record.Method)
	require.Equal(t, uint64(10), record.Points)
	require.NotEmpty(t, record.ID)

	// The unit no longer resolves.
	_, err = fixture.Class("pet-bottle").OwnerOf("b-1")
	require.ErrorIs(t, err, assetclass.ErrUnknownUnit)

	ev := nextEvent(t, events)
	require.Equal(t, recycling.EventRecycleCompleted, ev.Type)
	require.Equal(t, uint64(10), ev.Points)
}

func TestRecycleByTransfer(t *testing.T) {
	fixture := testutil.NewBuilder(t).
		WithClass("pet-bottle", 10).
		WithUnits("pet-bottle", alice, "b-1").
		Build()
	svc := fixture.Service
	defer svc.Close()

	record, err := svc.RecycleByTransfer(context.Background(), alice, "pet-bottle", "b-1")
	require.NoError(t, err)
	require.Equal(t, recycling.MethodTransfer, record.Method)

	// The unit survives in custodial holding.
	owner, err := fixture.Class("pet-bottle").OwnerOf("b-1")
	require.NoError(t, err)
	require.Equal(t, svc.Custodian(), owner)
}

func TestRecycle_Rejections(t *testing.T) {
	fixture := testutil.NewBuilder(t).
		WithClass("pet-bottle", 10).
		WithClass("glass", 5, testutil.Inactive()).
		WithUnits("pet-bottle", alice, "b-1").
		WithUnits("glass", alice, "g-1").
		Build()
	svc := fixture.Service
	defer svc.Close()

	ctx := context.Background()

	t.Run("validation", func(t *testing.T) {
		_, err := svc.RecycleByDestruction(ctx, "", "pet-bottle", "b-1")
		require.ErrorIs(t, err, recycling.ErrValidation)
		_, err = svc.RecycleByDestruction(ctx, alice, "", "b-1")
		require.ErrorIs(t, err, recycling.ErrValidation)
		_, err = svc.RecycleByDestruction(ctx, alice, "pet-bottle", "")
		require.ErrorIs(t, err, recycling.ErrValidation)
	})

	t.Run("not registered", func(t *testing.T) {
		_, err := svc.RecycleByDestruction(ctx, alice, "aluminum", "a-1")
		require.ErrorIs(t, err, recycling.ErrNotRegistered)
	})

	t.Run("not active", func(t *testing.T) {
		_, err := svc.RecycleByDestruction(ctx, alice, "glass", "g-1")
		require.ErrorIs(t, err, recycling.ErrNotActive)
	})

	t.Run("unit not found", func(t *testing.T) {
		_, err := svc.RecycleByDestruction(ctx, alice, "pet-bottle", "missing")
		require.ErrorIs(t, err, recycling.ErrUnitNotFound)
	})

	t.Run("not owner", func(t *testing.T) {
		_, err := svc.RecycleByDestruction(ctx, bob, "pet-bottle", "b-1")
		require.ErrorIs(t, err, recycling.ErrNotOwner)
	})

	// No rejected exchange left a trace.
	require.Equal(t, 0, svc.HistorySize())
	require.Equal(t, uint64(0), svc.GetStats().TotalPoints)
}

func TestRecycle_TransferOnlyClassRejectsDestruction(t *testing.T) {
	svc := recycling.NewService(recycling.Options{Admin: admin})
	defer svc.Close()

	class := assetclass.NewTransferOnly()
	class.Mint("c-1", alice)
	_, err := svc.Register(admin, "ceramic", class, 3)
	require.NoError(t, err)

	_, err = svc.RecycleByDestruction(context.Background(), alice, "ceramic", "c-1")
	require.ErrorIs(t, err, recycling.ErrOperationFailed)

	// The transfer path still works for the same unit.
	record, err := svc.RecycleByTransfer(context.Background(), alice, "ceramic", "c-1")
	require.NoError(t, err)
	require.Equal(t, uint64(3), record.Points)
}

func TestRecycle_RateChangeIsNotRetroactive(t *testing.T) {
	fixture := testutil.NewBuilder(t).
		WithClass("pet-bottle", 10).
		WithUnits("pet-bottle", alice, "b-1", "b-2").
		Build()
	svc := fixture.Service
	defer svc.Close()

	first, err := svc.RecycleByDestruction(context.Background(), alice, "pet-bottle", "b-1")
	require.NoError(t, err)

	_, err = svc.UpdateRate(admin, "pet-bottle", 50)
	require.NoError(t, err)

	second, err := svc.RecycleByDestruction(context.Background(), alice, "pet-bottle", "b-2")
	require.NoError(t, err)

	require.Equal(t, uint64(10), first.Points)
	require.Equal(t, uint64(50), second.Points)

	// Recorded history still carries the original award.
	history := svc.HistoryForActor(alice)
	require.Len(t, history, 2)
	require.Equal(t, uint64(10), history[0].Points)
}

// lyingClass reports successful destruction while keeping the unit
// resolvable.
type lyingClass struct {
	*assetclass.Memory
}

func (c *lyingClass) Destroy(unitID string) error {
	return nil // claims success, does nothing
}

func TestRecycle_PostconditionViolation(t *testing.T) {
	class := &lyingClass{Memory: assetclass.NewMemory()}
	class.Mint("b-1", alice)

	svc := recycling.NewService(recycling.Options{Admin: admin})
	defer svc.Close()
	_, err := svc.Register(admin, "pet-bottle", class, 10)
	require.NoError(t, err)

	_, err = svc.RecycleByDestruction(context.Background(), alice, "pet-bottle", "b-1")
	require.ErrorIs(t, err, recycling.ErrPostcondition)

	// A postcondition failure must leave no record and award no points.
	require.Equal(t, 0, svc.HistorySize())
	require.Equal(t, uint64(0), svc.GetStats().TotalPoints)
	cfg, err := svc.GetClassConfig("pet-bottle")
	require.NoError(t, err)
	require.Equal(t, uint64(0), cfg.TotalRecycled)
}

// reentrantClass calls back into the service from inside Destroy.
type reentrantClass struct {
	*assetclass.Memory
	svc      *recycling.Service
	innerErr error
}

func (c *reentrantClass) Destroy(unitID string) error {
	_, c.innerErr = c.svc.RecycleByDestruction(context.Background(), alice, "pet-bottle", "b-2")
	return c.Memory.Destroy(unitID)
}

func TestRecycle_ReentrancyGuard(t *testing.T) {
	class := &reentrantClass{Memory: assetclass.NewMemory()}
	class.Mint("b-1", alice)
	class.Mint("b-2", alice)

	svc := recycling.NewService(recycling.Options{Admin: admin})
	defer svc.Close()
	class.svc = svc
	_, err := svc.Register(admin, "pet-bottle", class, 10)
	require.NoError(t, err)

	// The outer exchange completes; the nested one is rejected.
	record, err := svc.RecycleByDestruction(context.Background(), alice, "pet-bottle", "b-1")
	require.NoError(t, err)
	require.Equal(t, uint64(10), record.Points)
	require.ErrorIs(t, class.innerErr, recycling.ErrReentrancy)

	require.Equal(t, 1, svc.HistorySize(), "only the outer exchange is recorded")

	// The guard resets afterwards.
	class.innerErr = nil
	_, err = svc.RecycleByDestruction(context.Background(), alice, "pet-bottle", "b-2")
	require.NoError(t, err)
}

// panickyClass panics in Destroy.
type panickyClass struct {
	*assetclass.Memory
}

func (c *panickyClass) Destroy(unitID string) error {
	panic("collaborator bug")
}

func TestRecycle_CollaboratorPanicBecomesError(t *testing.T) {
	class := &panickyClass{Memory: assetclass.NewMemory()}
	class.Mint("b-1", alice)

	svc := recycling.NewService(recycling.Options{Admin: admin})
	defer svc.Close()
	_, err := svc.Register(admin, "pet-bottle", class, 10)
	require.NoError(t, err)

	_, err = svc.RecycleByDestruction(context.Background(), alice, "pet-bottle", "b-1")
	require.ErrorIs(t, err, recycling.ErrOperationFailed)
	require.Equal(t, 0, svc.HistorySize())

	// The guard is released despite the panic.
	_, err = svc.RecycleByTransfer(context.Background(), alice, "pet-bottle", "b-1")
	require.NoError(t, err)
}

func TestRecycle_DedupWindow(t *testing.T) {
	fixture := testutil.NewBuilder(t).
		WithDedupWindow(time.Minute).
		WithClass("pet-bottle", 10).
		WithUnits("pet-bottle", alice, "b-1").
		Build()
	svc := fixture.Service
	defer svc.Close()

	_, err := svc.RecycleByTransfer(context.Background(), alice, "pet-bottle", "b-1")
	require.NoError(t, err)

	// Hand the unit back so only the dedup guard can reject the retry.
	require.NoError(t, fixture.Class("pet-bottle").Transfer(svc.Custodian(), alice, "b-1"))

	_, err = svc.RecycleByTransfer(context.Background(), alice, "pet-bottle", "b-1")
	require.ErrorIs(t, err, recycling.ErrDuplicateRequest)
}

func TestRecycle_DedupIgnoresFailedExchanges(t *testing.T) {
	fixture := testutil.NewBuilder(t).
		WithDedupWindow(time.Minute).
		WithClass("pet-bottle", 10).
		WithUnits("pet-bottle", bob, "b-1").
		Build()
	svc := fixture.Service
	defer svc.Close()

	// Alice fails the ownership check; the key must not be marked.
	_, err := svc.RecycleByTransfer(context.Background(), alice, "pet-bottle", "b-1")
	require.ErrorIs(t, err, recycling.ErrNotOwner)

	require.NoError(t, fixture.Class("pet-bottle").Transfer(bob, alice, "b-1"))
	_, err = svc.RecycleByTransfer(context.Background(), alice, "pet-bottle", "b-1")
	require.NoError(t, err, "a failed attempt must not poison the dedup window")
}

func TestRecycle_StoreAppendFailure(t *testing.T) {
	store := newRecordingStore()
	svc := recycling.NewService(recycling.Options{Admin: admin, Store: store})
	defer svc.Close()

	class := assetclass.NewMemory()
	class.Mint("b-1", alice)
	_, err := svc.Register(admin, "pet-bottle", class, 10)
	require.NoError(t, err)

	store.failAppend = true
	_, err = svc.RecycleByTransfer(context.Background(), alice, "pet-bottle", "b-1")
	require.Error(t, err)
	require.Equal(t, 0, svc.HistorySize(), "a record that could not be persisted must not enter memory")
}

func TestRecycle_NoDoubleSpend(t *testing.T) {
	fixture := testutil.NewBuilder(t).
		WithClass("pet-bottle", 10).
		WithUnits("pet-bottle", alice, "b-1").
		Build()
	svc := fixture.Service
	defer svc.Close()

	_, err := svc.RecycleByDestruction(context.Background(), alice, "pet-bottle", "b-1")
	require.NoError(t, err)

	// A second attempt on the same unit fails: the unit is gone.
	_, err = svc.RecycleByDestruction(context.Background(), alice, "pet-bottle", "b-1")
	require.ErrorIs(t, err, recycling.ErrUnitNotFound)
	require.Equal(t, 1, svc.HistorySize())
}

func TestRecycle_ErrorsWrapContext(t *testing.T) {
	svc := recycling.NewService(recycling.Options{Admin: admin})
	defer svc.Close()

	_, err := svc.RecycleByDestruction(context.Background(), alice, "unknown", "u-1")
	require.True(t, errors.Is(err, recycling.ErrNotRegistered))
	require.Contains(t, err.Error(), `"unknown"`)
}
