package client

import (
	"context"
	"sort"
	"sync"
)

// Favorites caches the signed-in user's favorite product ids.
type Favorites struct {
	api *APIClient

	mutex sync.RWMutex
	ids   map[string]struct{}
}

func NewFavorites(api *APIClient) *Favorites {
	return &Favorites{api: api, ids: make(map[string]struct{})}
}

// Load replaces the cache with the server's list.
func (f *Favorites) Load(ctx context.Context) error {
	products, err := f.api.ListFavorites(ctx)
	if err != nil {
		return err
	}

	ids := make(map[string]struct{}, len(products))
	for _, p := range products {
		ids[p.ID] = struct{}{}
	}

	f.mutex.Lock()
	f.ids = ids
	f.mutex.Unlock()
	return nil
}

func (f *Favorites) IsFavorited(productID string) bool {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	_, ok := f.ids[productID]
	return ok
}

// Toggle adds or removes productID and returns the new state.
func (f *Favorites) Toggle(ctx context.Context, productID string) (bool, error) {
	var (
		result *FavoriteResult
		err    error
	)
	if f.IsFavorited(productID) {
		result, err = f.api.RemoveFavorite(ctx, productID)
	} else {
		result, err = f.api.AddFavorite(ctx, productID)
	}
	if err != nil {
		return f.IsFavorited(productID), err
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()
	if result.IsFavorited {
		f.ids[productID] = struct{}{}
	} else {
		delete(f.ids, productID)
	}
	return result.IsFavorited, nil
}

func (f *Favorites) IDs() []string {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	out := make([]string, 0, len(f.ids))
	for id := range f.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
