package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"shopapi/internal/models"
)

const cartTTL = 30 * time.Minute

// CartCache is the server-side replacement for the mobile client's local cart
// mirror: one JSON snapshot per user, dropped on every cart mutation so reads
// after a write always see the canonical document.
type CartCache struct {
	client *redis.Client
}

func NewCartCache(addr, password string) *CartCache {
	return &CartCache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
	}
}

func (c *CartCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func cartKey(userID string) string {
	return fmt.Sprintf("cart:%s", userID)
}

// Get returns the cached cart for the user, or nil on a miss.
func (c *CartCache) Get(ctx context.Context, userID string) (*models.Cart, error) {
	data, err := c.client.Get(ctx, cartKey(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cart models.Cart
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *CartCache) Set(ctx context.Context, userID string, cart *models.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cartKey(userID), data, cartTTL).Err()
}

func (c *CartCache) Invalidate(ctx context.Context, userID string) error {
	return c.client.Del(ctx, cartKey(userID)).Err()
}

func (c *CartCache) Close() error {
	return c.client.Close()
}
