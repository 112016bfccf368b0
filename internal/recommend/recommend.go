// Package recommend picks cross-selling products for the cart screen.
// Candidates come from three stages: the customer's purchase history,
// the dominant category of the cart, and finally any catalog product.
// Each stage skips products already in the cart or already picked.
package recommend

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/winni-bit/sw-demo-kiosk/internal/frontstack"
	"github.com/winni-bit/sw-demo-kiosk/internal/model"
)

// DefaultLimit is how many recommendations the cart screen shows.
const DefaultLimit = 2

// historyPageSize bounds the order history scan.
const historyPageSize = 50

// OrderSource provides the customer's order history. Anonymous
// sessions simply return an error, which the engine treats as an
// empty history.
type OrderSource interface {
	Orders(ctx context.Context, page, limit int) (*model.OrderList, error)
}

// Service computes recommendations for one session.
type Service struct {
	content    *frontstack.Client
	orders     OrderSource
	contextKey func() string
	logger     *slog.Logger
}

// New creates the recommendation engine. The context key callback
// supplies the current localization context for catalog lookups; nil
// means no context.
func New(content *frontstack.Client, orders OrderSource, contextKey func() string, logger *slog.Logger) *Service {
	if contextKey == nil {
		contextKey = func() string { return "" }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{content: content, orders: orders, contextKey: contextKey, logger: logger}
}

// purchase is one product of the order history with its accumulated
// bought quantity.
type purchase struct {
	productKey string
	count      int
}

// Recommendations returns up to limit products to offer next to the
// cart. cartKeys are the catalog keys of the products already in the
// cart; cartProducts carry their category ids for the category stage.
func (s *Service) Recommendations(ctx context.Context, cartKeys []string, cartProducts []frontstack.ProductCard, limit int) []frontstack.ProductCard {
	if limit < 1 {
		limit = DefaultLimit
	}

	exclude := make(map[string]bool, len(cartKeys))
	for _, k := range cartKeys {
		exclude[k] = true
	}

	var result []frontstack.ProductCard
	take := func(products []frontstack.ProductCard) {
		for _, p := range products {
			if len(result) >= limit || exclude[p.Key] {
				continue
			}
			result = append(result, p)
			exclude[p.Key] = true
		}
	}

	take(s.fromHistory(ctx, exclude, limit))

	if len(result) < limit {
		if category := mostFrequentCategory(cartProducts); category != "" {
			take(s.fromCategory(ctx, category, exclude, limit-len(result)))
		}
	}

	if len(result) < limit {
		take(s.fallback(ctx, exclude, limit-len(result)))
	}

	s.logger.Debug("recommendations computed", "count", len(result), "limit", limit)
	return result
}

// fromHistory resolves the most-bought products of the customer into
// catalog cards. History failures (e.g. anonymous session) yield an
// empty stage.
func (s *Service) fromHistory(ctx context.Context, exclude map[string]bool, limit int) []frontstack.ProductCard {
	history := s.purchaseHistory(ctx)

	var keys []string
	for _, p := range history {
		if exclude[p.productKey] {
			continue
		}
		keys = append(keys, p.productKey)
		if len(keys) >= limit {
			break
		}
	}
	if len(keys) == 0 {
		return nil
	}

	// Cards are fetched concurrently; ordering by purchase count is
	// preserved via the index.
	cards := make([]*frontstack.ProductCard, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	for i, key := range keys {
		g.Go(func() error {
			card, err := s.content.ProductCard(gctx, s.contextKey(), key)
			if err != nil {
				s.logger.Warn("fetching recommendation card", "key", key, "error", err)
				return nil
			}
			cards[i] = card
			return nil
		})
	}
	g.Wait()

	var out []frontstack.ProductCard
	for _, card := range cards {
		if card != nil {
			out = append(out, *card)
		}
	}
	return out
}

// purchaseHistory scans the recent orders and returns the bought
// products sorted by quantity, most bought first. Ties keep the order
// in which the products first appeared.
func (s *Service) purchaseHistory(ctx context.Context) []purchase {
	if s.orders == nil {
		return nil
	}
	list, err := s.orders.Orders(ctx, 1, historyPageSize)
	if err != nil {
		s.logger.Debug("purchase history unavailable", "error", err)
		return nil
	}

	index := make(map[string]int)
	var history []purchase
	for _, order := range list.Elements {
		for _, item := range order.LineItems {
			if item.Type != "product" {
				continue
			}
			key := item.ProductKey()
			if key == "" {
				continue
			}
			if i, ok := index[key]; ok {
				history[i].count += item.Quantity
				continue
			}
			index[key] = len(history)
			history = append(history, purchase{productKey: key, count: item.Quantity})
		}
	}

	sort.SliceStable(history, func(i, j int) bool {
		return history[i].count > history[j].count
	})
	return history
}

// mostFrequentCategory returns the category id occurring on the most
// cart products, or "". Ties resolve to the category seen first.
func mostFrequentCategory(products []frontstack.ProductCard) string {
	counts := make(map[string]int)
	var order []string
	for _, p := range products {
		for _, id := range p.CategoryIDs {
			if counts[id] == 0 {
				order = append(order, id)
			}
			counts[id]++
		}
	}

	best := ""
	for _, id := range order {
		if best == "" || counts[id] > counts[best] {
			best = id
		}
	}
	return best
}

// fromCategory lists products of one category, over-fetching to make
// up for excluded entries.
func (s *Service) fromCategory(ctx context.Context, categoryID string, exclude map[string]bool, limit int) []frontstack.ProductCard {
	q := &frontstack.Query{Limit: limit + len(exclude)}
	listing, err := s.content.ProductsByCategory(ctx, s.contextKey(), categoryID, q)
	if err != nil {
		s.logger.Warn("fetching category recommendations", "categoryId", categoryID, "error", err)
		return nil
	}
	return listing.Items
}

// fallback lists arbitrary catalog products.
func (s *Service) fallback(ctx context.Context, exclude map[string]bool, limit int) []frontstack.ProductCard {
	q := &frontstack.Query{Limit: limit + len(exclude)}
	listing, err := s.content.AllProducts(ctx, s.contextKey(), q)
	if err != nil {
		s.logger.Warn("fetching fallback recommendations", "error", err)
		return nil
	}
	return listing.Items
}
