// Package cart holds the pending order of a shopper and keeps it durable
// through a pluggable key/value Storage.
package cart

import (
	"context"
	"encoding/json"
	"slices"

	"go.uber.org/zap"

	"github.com/joao-fontenele/storefront/internal/domain"
)

// StorageKey is the key the serialized item list is stored under.
const StorageKey = "cart"

// Container is the authoritative view of a cart. Every mutation writes the
// full item list to storage; a failed write is logged and the in-memory state
// is kept. A Container is not safe for concurrent use.
type Container struct {
	items   []domain.CartItem
	storage Storage
	logger  *zap.Logger
}

// Load builds a Container from the snapshot in storage. A missing or
// malformed snapshot starts an empty cart.
func Load(ctx context.Context, storage Storage, logger *zap.Logger) *Container {
	c := &Container{
		items:   []domain.CartItem{},
		storage: storage,
		logger:  logger,
	}

	raw, ok, err := storage.Get(ctx, StorageKey)
	if err != nil {
		logger.Warn("failed to read cart snapshot", zap.Error(err))
		return c
	}
	if !ok {
		return c
	}

	var items []domain.CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		logger.Warn("discarding malformed cart snapshot", zap.Error(err))
		return c
	}
	if items != nil {
		c.items = items
	}
	return c
}

// Items returns a snapshot of the line items, decoupled from later mutation.
func (c *Container) Items() []domain.CartItem {
	items := make([]domain.CartItem, len(c.items))
	for i, item := range c.items {
		if item.Quantity != nil {
			item.Quantity = domain.Quantity(*item.Quantity)
		}
		items[i] = item
	}
	return items
}

func (c *Container) Len() int {
	return len(c.items)
}

// Add merges product into the cart. A product already present has its
// quantity incremented (a missing or zero quantity counts as 1); a new
// product is appended with quantity 1.
func (c *Container) Add(ctx context.Context, product domain.CartItem) {
	if i := c.index(product.ID); i >= 0 {
		current := c.items[i].Units()
		if current < 1 {
			current = 1
		}
		c.items[i].Quantity = domain.Quantity(current + 1)
	} else {
		product.Quantity = domain.Quantity(1)
		c.items = append(c.items, product)
	}
	c.persist(ctx)
}

// Remove drops the line item for productID. Removing an absent product is a
// no-op.
func (c *Container) Remove(ctx context.Context, productID string) {
	i := c.index(productID)
	if i < 0 {
		return
	}
	c.items = slices.Delete(slices.Clone(c.items), i, i+1)
	c.persist(ctx)
}

// Clear empties the cart, as done after a completed checkout.
func (c *Container) Clear(ctx context.Context) {
	c.items = []domain.CartItem{}
	c.persist(ctx)
}

func (c *Container) index(productID string) int {
	return slices.IndexFunc(c.items, func(item domain.CartItem) bool {
		return item.ID == productID
	})
}

func (c *Container) persist(ctx context.Context) {
	data, err := json.Marshal(c.items)
	if err != nil {
		c.logger.Error("failed to serialize cart", zap.Error(err))
		return
	}
	if err := c.storage.Set(ctx, StorageKey, string(data)); err != nil {
		c.logger.Error("failed to persist cart", zap.Error(err), zap.Int("items", len(c.items)))
	}
}
