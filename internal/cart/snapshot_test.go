package cart

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	items := []LineItem{
		{ProductID: "p1", Name: "One", UnitPrice: decimal.NewFromFloat(9.99), Quantity: 2, ImageURL: "img/1.png"},
		{ProductID: "p2", Name: "Two", UnitPrice: decimal.NewFromInt(3), Quantity: 1},
	}

	encoded, err := encodeSnapshot(items)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	decoded, ok := decodeSnapshot(encoded)
	if !ok {
		t.Fatal("expected snapshot to decode")
	}
	if len(decoded) != 2 {
		t.Fatalf("expected 2 items, got %d", len(decoded))
	}
	if decoded[0].ProductID != "p1" || decoded[0].Quantity != 2 {
		t.Fatalf("first item mangled: %+v", decoded[0])
	}
	if !decoded[0].UnitPrice.Equal(decimal.NewFromFloat(9.99)) {
		t.Fatalf("price mangled: %s", decoded[0].UnitPrice)
	}
}

func TestDecodeSnapshotRejectsBadPayloads(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"not json":        "{broken",
		"wrong version":   `{"version":99,"items":[]}`,
		"missing id":      `{"version":1,"items":[{"product_id":"","unit_price":"1","quantity":1}]}`,
		"zero quantity":   `{"version":1,"items":[{"product_id":"p","unit_price":"1","quantity":0}]}`,
		"negative price":  `{"version":1,"items":[{"product_id":"p","unit_price":"-1","quantity":1}]}`,
		"plain string":    `"hello"`,
		"unrelated shape": `[1,2,3]`,
	}

	for name, raw := range cases {
		if _, ok := decodeSnapshot(raw); ok {
			t.Fatalf("case %q: expected rejection", name)
		}
	}
}

func TestDecodeSnapshotAcceptsEmptyCart(t *testing.T) {
	t.Parallel()

	items, ok := decodeSnapshot(`{"version":1,"items":[]}`)
	if !ok {
		t.Fatal("empty cart should decode")
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
}
