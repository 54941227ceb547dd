package recycling_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/reclaim/internal/recycling"
	"github.com/zjrosen/reclaim/internal/testutil"
)

func TestGetClassConfig(t *testing.T) {
	fixture := testutil.NewBuilder(t).
		WithClass("pet-bottle", 10).
		Build()
	svc := fixture.Service
	defer svc.Close()

	cfg, err := svc.GetClassConfig("pet-bottle")
	require.NoError(t, err)
	require.Equal(t, uint64(10), cfg.PointsPerUnit)

	_, err = svc.GetClassConfig("unknown")
	require.ErrorIs(t, err, recycling.ErrNotRegistered)
}

func TestIsAccepted(t *testing.T) {
	fixture := testutil.NewBuilder(t).
		WithClass("pet-bottle", 10).
		WithClass("glass", 5, testutil.Inactive()).
		Build()
	svc := fixture.Service
	defer svc.Close()

	require.True(t, svc.IsAccepted("pet-bottle"))
	require.False(t, svc.IsAccepted("glass"))
	require.False(t, svc.IsAccepted("unknown"))
}

func TestCalculatePoints(t *testing.T) {
	fixture := testutil.NewBuilder(t).
		WithClass("pet-bottle", 10).
		Build()
	svc := fixture.Service
	defer svc.Close()

	points, err := svc.CalculatePoints("pet-bottle", 7)
	require.NoError(t, err)
	require.Equal(t, uint64(70), points)

	points, err = svc.CalculatePoints("pet-bottle", 0)
	require.NoError(t, err)
	require.Equal(t, uint64(0), points)

	_, err = svc.CalculatePoints("unknown", 1)
	require.ErrorIs(t, err, recycling.ErrNotRegistered)

	_, err = svc.CalculatePoints("pet-bottle", math.MaxUint64)
	require.ErrorIs(t, err, recycling.ErrValidation, "overflow is refused, not wrapped around")
}

func TestGetStats(t *testing.T) {
	fixture := testutil.NewBuilder(t).
		WithClass("pet-bottle", 10).
		WithClass("glass", 5, testutil.Inactive()).
		WithUnits("pet-bottle", alice, "b-1", "b-2").
		Build()
	svc := fixture.Service
	defer svc.Close()

	require.Equal(t, recycling.Stats{ActiveClasses: 1}, svc.GetStats())

	_, err := svc.RecycleByDestruction(context.Background(), alice, "pet-bottle", "b-1")
	require.NoError(t, err)
	_, err = svc.RecycleByTransfer(context.Background(), alice, "pet-bottle", "b-2")
	require.NoError(t, err)

	stats := svc.GetStats()
	require.Equal(t, uint64(2), stats.TotalRecyclings)
	require.Equal(t, uint64(20), stats.TotalPoints)
	require.Equal(t, 1, stats.ActiveClasses)

	// The aggregates equal a fold over the full history.
	var points uint64
	records := svc.RecentRecords(svc.HistorySize())
	for _, rec := range records {
		points += rec.Points
	}
	require.Equal(t, stats.TotalPoints, points)
	require.Equal(t, stats.TotalRecyclings, uint64(len(records)))
}

func TestHistoryQueries(t *testing.T) {
	fixture := testutil.NewBuilder(t).
		WithClass("pet-bottle", 10).
		WithClass("glass", 5).
		WithUnits("pet-bottle", alice, "b-1").
		WithUnits("glass", bob, "g-1").
		Build()
	svc := fixture.Service
	defer svc.Close()

	ctx := context.Background()
	_, err := svc.RecycleByDestruction(ctx, alice, "pet-bottle", "b-1")
	require.NoError(t, err)
	_, err = svc.RecycleByTransfer(ctx, bob, "glass", "g-1")
	require.NoError(t, err)

	require.Len(t, svc.HistoryForActor(alice), 1)
	require.Len(t, svc.HistoryForActor(bob), 1)
	require.Empty(t, svc.HistoryForActor("user:carol"))

	require.Equal(t, "b-1", svc.HistoryForClass("pet-bottle")[0].UnitID)
	require.Equal(t, "g-1", svc.HistoryForClass("glass")[0].UnitID)

	recent := svc.RecentRecords(1)
	require.Len(t, recent, 1)
	require.Equal(t, uint64(2), recent[0].Seq)
	require.Equal(t, 2, svc.HistorySize())
}

func TestCanRecycle(t *testing.T) {
	fixture := testutil.NewBuilder(t).
		WithClass("pet-bottle", 10).
		WithClass("glass", 5, testutil.Inactive()).
		WithUnits("pet-bottle", alice, "b-1").
		Build()
	svc := fixture.Service
	defer svc.Close()

	tests := []struct {
		name    string
		actor   recycling.Identity
		classID string
		unitID  string
		ok      bool
		reason  string
	}{
		{"eligible", alice, "pet-bottle", "b-1", true, ""},
		{"not registered", alice, "aluminum", "a-1", false, "not registered"},
		{"not active", alice, "glass", "g-1", false, "not active"},
		{"unit not found", alice, "pet-bottle", "missing", false, "unit not found"},
		{"not owner", bob, "pet-bottle", "b-1", false, "not owner"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := svc.CanRecycle(tt.actor, tt.classID, tt.unitID)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.reason, reason)
		})
	}

	// The answer is advisory and mutates nothing.
	require.Equal(t, 0, svc.HistorySize())
	owner, err := fixture.Class("pet-bottle").OwnerOf("b-1")
	require.NoError(t, err)
	require.Equal(t, alice, owner)
}
