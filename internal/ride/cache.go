// Package ride holds the client-side ride state: the durable mirror of the
// single ride in progress and the lifecycle state machine that every update
// path (view action, realtime push, poller) goes through.
package ride

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Mikelesnr/tsviyo-frontend/internal/models"
	"github.com/Mikelesnr/tsviyo-frontend/internal/store"
)

// Cache is the durable read/write-through mirror of the current ride. One
// active slot per session plus one slot for a completed ride awaiting its
// rating. Last write wins; the single-active-ride assumption makes that
// acceptable.
type Cache struct {
	kv  store.Store
	log zerolog.Logger
}

func NewCache(kv store.Store, log zerolog.Logger) *Cache {
	return &Cache{kv: kv, log: log.With().Str("component", "ride-cache").Logger()}
}

func activeKey(userID uint) string { return fmt.Sprintf("ride:active:%d", userID) }
func ratingKey(userID uint) string { return fmt.Sprintf("ride:rating:%d", userID) }

// Save overwrites the active-ride slot.
func (c *Cache) Save(ctx context.Context, userID uint, r *models.Ride) error {
	return c.kv.Set(ctx, activeKey(userID), r)
}

// Current reads the active-ride slot. The bool reports presence.
func (c *Cache) Current(ctx context.Context, userID uint) (*models.Ride, bool, error) {
	var r models.Ride
	found, err := c.kv.Get(ctx, activeKey(userID), &r)
	if err != nil || !found {
		return nil, false, err
	}
	return &r, true, nil
}

// Clear removes the active-ride slot.
func (c *Cache) Clear(ctx context.Context, userID uint) error {
	return c.kv.Delete(ctx, activeKey(userID))
}

// SaveRating parks a completed ride in the awaiting-rating slot.
func (c *Cache) SaveRating(ctx context.Context, userID uint, r *models.Ride) error {
	return c.kv.Set(ctx, ratingKey(userID), r)
}

// RatingRide reads the awaiting-rating slot.
func (c *Cache) RatingRide(ctx context.Context, userID uint) (*models.Ride, bool, error) {
	var r models.Ride
	found, err := c.kv.Get(ctx, ratingKey(userID), &r)
	if err != nil || !found {
		return nil, false, err
	}
	return &r, true, nil
}

// ClearRating removes the awaiting-rating slot.
func (c *Cache) ClearRating(ctx context.Context, userID uint) error {
	return c.kv.Delete(ctx, ratingKey(userID))
}
