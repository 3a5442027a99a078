// Package cart implements the in-memory shopping list: an ordered,
// deduplicated set of confirmed items with a fixed capacity. It performs
// no I/O; all mutations are synchronous.
package cart

import (
	"errors"

	"github.com/cartscout/cartscout/internal/models"
)

var (
	ErrDuplicateItem   = errors.New("item already in cart")
	ErrCartFull        = errors.New("cart is full")
	ErrIndexOutOfRange = errors.New("cart index out of range")
)

// Cart holds confirmed items in insertion order.
type Cart struct {
	items    []models.CartItem
	maxItems int
}

// New creates an empty cart holding at most maxItems entries.
func New(maxItems int) *Cart {
	if maxItems <= 0 {
		maxItems = 10
	}
	return &Cart{maxItems: maxItems}
}

// Add appends an item. Names must be unique (exact, case-sensitive match).
func (c *Cart) Add(name, emoji string) error {
	for _, it := range c.items {
		if it.Name == name {
			return ErrDuplicateItem
		}
	}
	if len(c.items) >= c.maxItems {
		return ErrCartFull
	}
	if emoji == "" {
		emoji = models.DefaultEmoji
	}
	c.items = append(c.items, models.CartItem{Name: name, Emoji: emoji})
	return nil
}

// Remove deletes the item at the given position; later items shift down.
func (c *Cart) Remove(index int) error {
	if index < 0 || index >= len(c.items) {
		return ErrIndexOutOfRange
	}
	c.items = append(c.items[:index], c.items[index+1:]...)
	return nil
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.items = nil
}

// Len returns the number of items.
func (c *Cart) Len() int { return len(c.items) }

// Max returns the capacity.
func (c *Cart) Max() int { return c.maxItems }

// Items returns a copy of the items in insertion order.
func (c *Cart) Items() []models.CartItem {
	out := make([]models.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// Names returns the item names in insertion order, for submission.
func (c *Cart) Names() []string {
	out := make([]string, len(c.items))
	for i, it := range c.items {
		out[i] = it.Name
	}
	return out
}
