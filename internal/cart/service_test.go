package cart

import (
	"context"
	"testing"

	"github.com/mindovermyth/sessionhub/pkg/kv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testSession = "sess-1"

func newTestService(t *testing.T, mirror kv.Mirror) Service {
	t.Helper()
	svc, err := NewService(mirror, nil, nil, nil)
	require.NoError(t, err)
	return svc
}

func TestAddItemAccumulatesQuantityAndKeepsFirstWriteMetadata(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t, kv.NewMemory())

	_, outcome, err := svc.AddItem(ctx, testSession, AddItemInput{
		ProductID: "book-1",
		Name:      "The Hero's Journey",
		UnitPrice: decimal.NewFromInt(12),
		Quantity:  2,
		ImageURL:  "covers/hero.jpg",
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeAdded, outcome)

	// second add carries different metadata on purpose
	dto, outcome, err := svc.AddItem(ctx, testSession, AddItemInput{
		ProductID: "book-1",
		Name:      "Renamed Edition",
		UnitPrice: decimal.NewFromInt(99),
		Quantity:  3,
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeQuantityUpdated, outcome)

	require.Len(t, dto.Items, 1)
	item := dto.Items[0]
	require.Equal(t, 5, item.Quantity)
	require.Equal(t, "The Hero's Journey", item.Name)
	require.True(t, item.UnitPrice.Equal(decimal.NewFromInt(12)))
	require.Equal(t, "covers/hero.jpg", item.ImageURL)
}

func TestAddItemDefaultsQuantityToOneAndPreservesOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t, kv.NewMemory())

	_, _, err := svc.AddItem(ctx, testSession, AddItemInput{ProductID: "a", UnitPrice: decimal.NewFromInt(1)})
	require.NoError(t, err)
	_, _, err = svc.AddItem(ctx, testSession, AddItemInput{ProductID: "b", UnitPrice: decimal.NewFromInt(2)})
	require.NoError(t, err)
	dto, _, err := svc.AddItem(ctx, testSession, AddItemInput{ProductID: "c", UnitPrice: decimal.NewFromInt(3)})
	require.NoError(t, err)

	require.Equal(t, 3, dto.TotalItemCount)
	require.Equal(t, []string{"a", "b", "c"}, []string{dto.Items[0].ProductID, dto.Items[1].ProductID, dto.Items[2].ProductID})
	require.Equal(t, 1, dto.Items[0].Quantity)
}

func TestAddItemValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t, kv.NewMemory())

	_, _, err := svc.AddItem(ctx, testSession, AddItemInput{UnitPrice: decimal.NewFromInt(1)})
	require.Error(t, err, "missing product id")

	_, _, err = svc.AddItem(ctx, testSession, AddItemInput{ProductID: "x", UnitPrice: decimal.NewFromInt(-1)})
	require.Error(t, err, "negative price")

	_, _, err = svc.AddItem(ctx, testSession, AddItemInput{ProductID: "x", UnitPrice: decimal.NewFromInt(1), Quantity: -2})
	require.Error(t, err, "negative quantity")

	_, _, err = svc.AddItem(ctx, "", AddItemInput{ProductID: "x", UnitPrice: decimal.NewFromInt(1)})
	require.Error(t, err, "missing session")
}

func TestSubtotalAndItemCount(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t, kv.NewMemory())

	_, _, err := svc.AddItem(ctx, testSession, AddItemInput{ProductID: "p1", UnitPrice: decimal.NewFromInt(10), Quantity: 2})
	require.NoError(t, err)
	_, _, err = svc.AddItem(ctx, testSession, AddItemInput{ProductID: "p2", UnitPrice: decimal.NewFromFloat(5.5), Quantity: 3})
	require.NoError(t, err)

	dto, err := svc.Get(ctx, testSession)
	require.NoError(t, err)
	require.True(t, dto.Subtotal.Equal(decimal.NewFromFloat(36.5)), "subtotal was %s", dto.Subtotal)
	require.Equal(t, 5, dto.TotalItemCount)
}

func TestRemoveItemIsNoOpForAbsentID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t, kv.NewMemory())

	_, _, err := svc.AddItem(ctx, testSession, AddItemInput{ProductID: "p1", UnitPrice: decimal.NewFromInt(4)})
	require.NoError(t, err)

	dto, removed, err := svc.RemoveItem(ctx, testSession, "ghost")
	require.NoError(t, err)
	require.False(t, removed)
	require.Len(t, dto.Items, 1)

	dto, removed, err = svc.RemoveItem(ctx, testSession, "p1")
	require.NoError(t, err)
	require.True(t, removed)
	require.Empty(t, dto.Items)
}

func TestClearEmptiesUnconditionally(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t, kv.NewMemory())

	_, _, err := svc.AddItem(ctx, testSession, AddItemInput{ProductID: "p1", UnitPrice: decimal.NewFromInt(4), Quantity: 7})
	require.NoError(t, err)

	dto, err := svc.Clear(ctx, testSession)
	require.NoError(t, err)
	require.True(t, dto.Subtotal.IsZero())
	require.Zero(t, dto.TotalItemCount)

	// clearing an already empty cart stays fine
	dto, err = svc.Clear(ctx, testSession)
	require.NoError(t, err)
	require.Empty(t, dto.Items)
}

func TestPersistenceRoundTripAcrossServiceInstances(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mirror := kv.NewMemory()

	first := newTestService(t, mirror)
	_, _, err := first.AddItem(ctx, testSession, AddItemInput{
		ProductID: "p1", Name: "First", UnitPrice: decimal.NewFromFloat(9.99), Quantity: 2, ImageURL: "img/p1.png",
	})
	require.NoError(t, err)
	_, _, err = first.AddItem(ctx, testSession, AddItemInput{ProductID: "p2", Name: "Second", UnitPrice: decimal.NewFromInt(3)})
	require.NoError(t, err)

	// simulate a reload: a fresh manager reading the same mirror
	second := newTestService(t, mirror)
	dto, err := second.Get(ctx, testSession)
	require.NoError(t, err)

	require.Len(t, dto.Items, 2)
	require.Equal(t, "p1", dto.Items[0].ProductID)
	require.Equal(t, "First", dto.Items[0].Name)
	require.Equal(t, 2, dto.Items[0].Quantity)
	require.True(t, dto.Items[0].UnitPrice.Equal(decimal.NewFromFloat(9.99)))
	require.Equal(t, "img/p1.png", dto.Items[0].ImageURL)
	require.Equal(t, "p2", dto.Items[1].ProductID)
}

func TestCorruptSnapshotYieldsEmptyCart(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mirror := kv.NewMemory()
	require.NoError(t, mirror.Set(ctx, kv.CartKey(testSession), "definitely-not-json"))

	svc := newTestService(t, mirror)
	dto, err := svc.Get(ctx, testSession)
	require.NoError(t, err)
	require.Empty(t, dto.Items)
	require.True(t, dto.Subtotal.IsZero())
}

func TestCartsAreScopedPerSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t, kv.NewMemory())

	_, _, err := svc.AddItem(ctx, "sess-a", AddItemInput{ProductID: "p1", UnitPrice: decimal.NewFromInt(5)})
	require.NoError(t, err)

	dto, err := svc.Get(ctx, "sess-b")
	require.NoError(t, err)
	require.Empty(t, dto.Items)
}
