package handlers

import (
	"context"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"shopapi/internal/models"
)

// fakeCartCache is an in-memory cartCache for tests.
type fakeCartCache struct {
	mu    sync.Mutex
	carts map[string]*models.Cart
}

func newFakeCartCache() *fakeCartCache {
	return &fakeCartCache{carts: make(map[string]*models.Cart)}
}

func (f *fakeCartCache) Get(ctx context.Context, userID string) (*models.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.carts[userID], nil
}

func (f *fakeCartCache) Set(ctx context.Context, userID string, cart *models.Cart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.carts[userID] = cart
	return nil
}

func (f *fakeCartCache) Invalidate(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.carts, userID)
	return nil
}

func TestCachedCartHitSkipsLoader(t *testing.T) {
	fake := newFakeCartCache()
	userID := primitive.NewObjectID()
	cached := &models.Cart{UserID: userID, TotalPrice: 100}
	fake.Set(context.Background(), userID.Hex(), cached)

	cart, err := cachedCart(context.Background(), fake, userID, func() (*models.Cart, error) {
		t.Fatal("loader must not run on a cache hit")
		return nil, nil
	})
	if err != nil {
		t.Fatalf("cachedCart returned error: %v", err)
	}
	if cart.TotalPrice != 100 {
		t.Fatalf("expected the cached cart, got %+v", cart)
	}
}

func TestCachedCartMissPopulatesCache(t *testing.T) {
	fake := newFakeCartCache()
	userID := primitive.NewObjectID()
	loaded := &models.Cart{UserID: userID, TotalPrice: 250}

	cart, err := cachedCart(context.Background(), fake, userID, func() (*models.Cart, error) {
		return loaded, nil
	})
	if err != nil {
		t.Fatalf("cachedCart returned error: %v", err)
	}
	if cart != loaded {
		t.Fatalf("expected the loaded cart, got %+v", cart)
	}

	stored, _ := fake.Get(context.Background(), userID.Hex())
	if stored != loaded {
		t.Fatal("expected the miss path to populate the cache")
	}
}

// A mutation under the user's cart lock must not interleave between the miss
// path's load and its repopulating Set; otherwise the cache would pin the
// pre-mutation snapshot until the TTL.
func TestCachedCartMissHoldsUserLock(t *testing.T) {
	fake := newFakeCartCache()
	userID := primitive.NewObjectID()

	loading := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		_, err := cachedCart(context.Background(), fake, userID, func() (*models.Cart, error) {
			close(loading)
			return &models.Cart{UserID: userID}, nil
		})
		if err != nil {
			t.Error("cachedCart returned error:", err)
		}
	}()

	// A writer invalidates the key while the miss path is mid-load. It must
	// block on the user's cart lock until the repopulating Set has happened,
	// so its invalidate lands last and no stale snapshot survives.
	<-loading
	unlock := cartLocks.lock(userID.Hex())
	fake.Invalidate(context.Background(), userID.Hex())
	unlock()
	<-done

	if cart, _ := fake.Get(context.Background(), userID.Hex()); cart != nil {
		t.Fatalf("expected the writer's invalidate to land after the miss path's Set, found stale snapshot %+v", cart)
	}
}
