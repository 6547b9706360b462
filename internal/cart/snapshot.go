package cart

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// snapshotVersion tags the persisted cart format so future migrations can
// tell old payloads apart instead of discarding them blind.
const snapshotVersion = 1

// LineItem is one distinct product entry in the cart. Name, price, and image
// are a snapshot taken on the first add; repeated adds only accumulate
// quantity.
type LineItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	ImageURL  string          `json:"image_url,omitempty"`
}

type snapshot struct {
	Version int        `json:"version"`
	Items   []LineItem `json:"items"`
}

func encodeSnapshot(items []LineItem) (string, error) {
	raw, err := json.Marshal(snapshot{Version: snapshotVersion, Items: items})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// decodeSnapshot parses a persisted payload. The second return reports
// whether the payload was usable; a corrupt payload yields an empty list and
// false, never an error.
func decodeSnapshot(raw string) ([]LineItem, bool) {
	var snap snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, false
	}
	if snap.Version != snapshotVersion {
		return nil, false
	}
	for _, item := range snap.Items {
		if item.ProductID == "" || item.Quantity < 1 || item.UnitPrice.IsNegative() {
			return nil, false
		}
	}
	return snap.Items, true
}
