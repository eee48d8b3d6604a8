package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartOperations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "cart.json")
	cart, err := OpenCart(path)
	require.NoError(t, err)
	assert.Empty(t, cart.Items())

	bike := CartItem{ProductID: "p1", Title: "Road bike", Price: 250}
	lamp := CartItem{ProductID: "p2", Title: "Desk lamp", Price: 20.5}

	require.NoError(t, cart.Add(bike, 1))
	require.NoError(t, cart.Add(lamp, 2))
	require.NoError(t, cart.Add(bike, 2))

	item, ok := cart.Item("p1")
	require.True(t, ok)
	assert.Equal(t, 3, item.Quantity)
	assert.Equal(t, 5, cart.Count())
	assert.InDelta(t, 791.0, cart.Total(), 0.001)

	require.NoError(t, cart.UpdateQuantity("p2", 1))
	assert.Equal(t, 4, cart.Count())

	require.NoError(t, cart.UpdateQuantity("p1", 0))
	assert.False(t, cart.Contains("p1"))
	assert.True(t, cart.Contains("p2"))

	reopened, err := OpenCart(path)
	require.NoError(t, err)
	assert.Equal(t, []CartItem{{ProductID: "p2", Title: "Desk lamp", Price: 20.5, Quantity: 1}}, reopened.Items())

	require.NoError(t, reopened.Remove("p2"))
	assert.Zero(t, reopened.Count())

	require.NoError(t, reopened.Add(lamp, 0))
	assert.Equal(t, 1, reopened.Count())
	require.NoError(t, reopened.Clear())
	assert.Empty(t, reopened.Items())
	assert.Zero(t, reopened.Total())
}

func TestOpenCartDiscardsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	cart, err := OpenCart(path)
	require.NoError(t, err)
	assert.Empty(t, cart.Items())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
