package cart

import (
	"context"
	"strings"

	"github.com/winni-bit/sw-demo-kiosk/internal/model"
)

// DesiredItem is one entry of a declarative cart state, e.g. a saved
// kiosk order template. Matching against the live cart is by product
// id, not line item id.
type DesiredItem struct {
	ProductID string
	Quantity  int
}

// Diff describes the mutations needed to bring the cart to a desired
// state. Apply in order Remove → Update → Add so an update never races
// a removal of the same position.
type Diff struct {
	ToAdd    []DesiredItem
	ToRemove []string // line item ids
	ToUpdate []QuantityChange
}

// QuantityChange is a quantity update for an existing position.
type QuantityChange struct {
	LineItemID  string
	OldQuantity int
	NewQuantity int
}

// IsEmpty returns true if no changes are needed.
func (d *Diff) IsEmpty() bool {
	return len(d.ToAdd) == 0 && len(d.ToRemove) == 0 && len(d.ToUpdate) == 0
}

// DiffCart computes the delta between the current cart positions and a
// desired state. Non-good positions (promotions, shipping surcharges)
// are left untouched; Shopware manages those itself.
func DiffCart(current []model.LineItem, desired []DesiredItem) *Diff {
	diff := &Diff{}

	currentByProduct := make(map[string]model.LineItem)
	for _, li := range current {
		if !li.Good {
			continue
		}
		currentByProduct[normalizeProductID(li.ReferencedID)] = li
	}

	desiredByProduct := make(map[string]DesiredItem)
	var desiredOrder []string
	for _, item := range desired {
		key := normalizeProductID(item.ProductID)
		if _, seen := desiredByProduct[key]; !seen {
			desiredOrder = append(desiredOrder, key)
		}
		desiredByProduct[key] = item
	}

	for _, key := range desiredOrder {
		want := desiredByProduct[key]
		if have, exists := currentByProduct[key]; exists {
			if have.Quantity != want.Quantity {
				diff.ToUpdate = append(diff.ToUpdate, QuantityChange{
					LineItemID:  have.ID,
					OldQuantity: have.Quantity,
					NewQuantity: want.Quantity,
				})
			}
		} else {
			diff.ToAdd = append(diff.ToAdd, DesiredItem{ProductID: key, Quantity: want.Quantity})
		}
	}

	for key, have := range currentByProduct {
		if _, exists := desiredByProduct[key]; !exists {
			diff.ToRemove = append(diff.ToRemove, have.ID)
		}
	}

	return diff
}

// Reconcile brings the backend cart to the desired state with the
// minimal set of mutations and refetches once at the end. Used by the
// CLI to replay saved carts.
func (s *Service) Reconcile(ctx context.Context, desired []DesiredItem) bool {
	if s.Fetch(ctx) == nil {
		return false
	}

	s.mu.Lock()
	current := s.cart.LineItems
	s.mu.Unlock()

	diff := DiffCart(current, desired)
	if diff.IsEmpty() {
		return true
	}

	ok := true
	for _, id := range diff.ToRemove {
		if !s.Remove(ctx, id) {
			ok = false
		}
	}
	for _, ch := range diff.ToUpdate {
		if !s.UpdateQuantity(ctx, ch.LineItemID, ch.NewQuantity) {
			ok = false
		}
	}
	for _, item := range diff.ToAdd {
		if !s.Add(ctx, item.ProductID, item.Quantity) {
			ok = false
		}
	}

	if s.Fetch(ctx) == nil {
		return false
	}
	return ok
}

// normalizeProductID strips UUID dashes so catalog ids and cart
// referencedIds compare equal.
func normalizeProductID(id string) string {
	return strings.ReplaceAll(id, "-", "")
}
