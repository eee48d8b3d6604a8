package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"sellnext/pkg/logger"
)

type CartItem struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Image     string  `json:"image,omitempty"`
	Quantity  int     `json:"quantity"`
}

// Cart is a local shopping cart persisted as JSON. It never talks to the
// server.
type Cart struct {
	path string

	mutex sync.Mutex
	items []CartItem
}

// OpenCart loads the cart stored at path. A missing file yields an empty
// cart; an unreadable one is discarded.
func OpenCart(path string) (*Cart, error) {
	cart := &Cart{path: path}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return cart, nil
	case err != nil:
		return nil, fmt.Errorf("read cart: %w", err)
	}

	if err := json.Unmarshal(raw, &cart.items); err != nil {
		logger.Warn("Cart: discarding unreadable cart file %s: %v", path, err)
		cart.items = nil
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove cart: %w", err)
		}
	}
	return cart, nil
}

// Add puts quantity units of item in the cart, merging with an existing line.
func (c *Cart) Add(item CartItem, quantity int) error {
	if quantity <= 0 {
		quantity = 1
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	for i := range c.items {
		if c.items[i].ProductID == item.ProductID {
			c.items[i].Quantity += quantity
			return c.saveLocked()
		}
	}
	item.Quantity = quantity
	c.items = append(c.items, item)
	return c.saveLocked()
}

// UpdateQuantity sets the quantity of a line; zero or less removes it.
func (c *Cart) UpdateQuantity(productID string, quantity int) error {
	if quantity <= 0 {
		return c.Remove(productID)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items[i].Quantity = quantity
			return c.saveLocked()
		}
	}
	return nil
}

func (c *Cart) Remove(productID string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	kept := c.items[:0]
	for _, item := range c.items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	c.items = kept
	return c.saveLocked()
}

func (c *Cart) Clear() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.items = nil
	return c.saveLocked()
}

func (c *Cart) Items() []CartItem {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return append([]CartItem(nil), c.items...)
}

func (c *Cart) Item(productID string) (CartItem, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for _, item := range c.items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return CartItem{}, false
}

func (c *Cart) Contains(productID string) bool {
	_, ok := c.Item(productID)
	return ok
}

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	count := 0
	for _, item := range c.items {
		count += item.Quantity
	}
	return count
}

func (c *Cart) Total() float64 {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	total := 0.0
	for _, item := range c.items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

func (c *Cart) saveLocked() error {
	items := c.items
	if items == nil {
		items = []CartItem{}
	}
	raw, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cart dir: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write cart: %w", err)
	}
	return os.Rename(tmp, c.path)
}
