package session

import (
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopsy/internal/models"
)

func item(id int, price string, qty int) CartItem {
	return CartItem{ProductID: id, Name: "p", Price: decimal.RequireFromString(price), Quantity: qty}
}

func TestLoginLogout(t *testing.T) {
	s := NewStore()
	assert.False(t, s.IsAuthenticated())
	assert.False(t, s.IsAdmin())

	require.NoError(t, s.Login(&models.User{ID: 7, Name: "Ada", Role: models.RoleAdmin}, "tok"))
	assert.True(t, s.IsAuthenticated())
	assert.True(t, s.IsAdmin())
	assert.Equal(t, "tok", s.Token())
	assert.Equal(t, 7, s.User().ID)

	require.NoError(t, s.Logout())
	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.User())
	assert.Empty(t, s.Token())

	assert.ErrorIs(t, s.Login(nil, "x"), ErrNoUser)
}

func TestUserIsCopied(t *testing.T) {
	s := NewStore()
	u := &models.User{ID: 1, Name: "Ada", Role: models.RoleCustomer}
	require.NoError(t, s.Login(u, "tok"))

	u.Role = models.RoleAdmin
	s.User().Role = models.RoleAdmin
	assert.False(t, s.IsAdmin())
}

func TestCart(t *testing.T) {
	s := NewStore()

	require.NoError(t, s.AddToCart(item(1, "19.99", 2)))
	require.NoError(t, s.AddToCart(item(2, "5.00", 1)))
	require.NoError(t, s.AddToCart(item(1, "19.99", 1)))

	assert.Len(t, s.CartItems(), 2)
	assert.Equal(t, 4, s.CartItemsCount())
	assert.Equal(t, "64.97", s.CartTotal().StringFixed(2))

	require.NoError(t, s.UpdateQuantity(2, 3))
	assert.Equal(t, 6, s.CartItemsCount())

	require.NoError(t, s.UpdateQuantity(2, 0))
	assert.Len(t, s.CartItems(), 1)

	require.NoError(t, s.RemoveFromCart(1))
	assert.Empty(t, s.CartItems())
	assert.True(t, s.CartTotal().IsZero())
}

func TestAddToCart_RejectsInvalidItems(t *testing.T) {
	s := NewStore()
	assert.ErrorIs(t, s.AddToCart(item(1, "1.00", 0)), ErrInvalidItem)
	assert.ErrorIs(t, s.AddToCart(item(1, "-1.00", 1)), ErrInvalidItem)
	assert.Empty(t, s.CartItems())
}

func TestAddToCart_RejectsQuantityOverflow(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.AddToCart(item(1, "1.00", math.MaxInt)))

	var events int
	s.Subscribe(func(Event) { events++ })

	assert.ErrorIs(t, s.AddToCart(item(1, "1.00", 1)), ErrInvalidItem)
	assert.Equal(t, math.MaxInt, s.CartItems()[0].Quantity)
	assert.Equal(t, math.MaxInt, s.CartItemsCount())
	assert.False(t, s.CartTotal().IsNegative())
	assert.Zero(t, events)
}

func TestCartItems_ReturnsCopy(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.AddToCart(item(1, "2.00", 1)))

	items := s.CartItems()
	items[0].Quantity = 99
	assert.Equal(t, 1, s.CartItemsCount())
}

func TestCartTotals_OrderInsensitive(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		n := rng.Intn(8) + 1
		items := make([]CartItem, n)
		wantCount := 0
		wantTotal := decimal.Zero
		for i := range items {
			price := decimal.New(int64(rng.Intn(100000)), -2)
			qty := rng.Intn(9) + 1
			items[i] = CartItem{ProductID: i + 1, Price: price, Quantity: qty}
			wantCount += qty
			wantTotal = wantTotal.Add(price.Mul(decimal.NewFromInt(int64(qty))))
		}

		for _, perm := range [][]CartItem{items, shuffled(rng, items)} {
			s := NewStore()
			for _, it := range perm {
				require.NoError(t, s.AddToCart(it))
			}
			assert.Equal(t, wantCount, s.CartItemsCount())
			assert.True(t, wantTotal.Equal(s.CartTotal()), "want %s got %s", wantTotal, s.CartTotal())
			assert.False(t, s.CartTotal().IsNegative())
		}
	}
}

func shuffled(rng *rand.Rand, items []CartItem) []CartItem {
	out := append([]CartItem(nil), items...)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func TestSubscribe_OrderAndSnapshot(t *testing.T) {
	s := NewStore()

	var got []string
	s.Subscribe(func(e Event) { got = append(got, "a:"+e.Type.String()) })
	unsubscribe := s.Subscribe(func(e Event) {
		got = append(got, "b:"+e.Type.String())
		if e.Type == EventCartChanged {
			assert.Equal(t, 2, e.Snapshot.CartCount)
		}
	})

	require.NoError(t, s.AddToCart(item(1, "1.00", 2)))
	unsubscribe()
	unsubscribe()
	require.NoError(t, s.Logout())

	assert.Equal(t, []string{"a:cart_changed", "b:cart_changed", "a:logout"}, got)
}

func TestListenerMayReadStore(t *testing.T) {
	s := NewStore()
	var seen int
	s.Subscribe(func(Event) { seen = s.CartItemsCount() })

	require.NoError(t, s.AddToCart(item(1, "1.00", 3)))
	assert.Equal(t, 3, seen)
}

func TestClose(t *testing.T) {
	s := NewStore()
	called := false
	s.Subscribe(func(Event) { called = true })

	s.Close()
	assert.ErrorIs(t, s.AddToCart(item(1, "1.00", 1)), ErrClosed)
	assert.ErrorIs(t, s.Logout(), ErrClosed)
	assert.ErrorIs(t, s.ClearCart(), ErrClosed)
	assert.False(t, called)
}

func TestConcurrentMutations(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.AddToCart(item(1, "1.50", 1))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.CartItemsCount())
	assert.Equal(t, "75.00", s.CartTotal().StringFixed(2))
}

func TestEventSnapshots_MatchTheirMutation(t *testing.T) {
	s := NewStore()
	const n = 50

	var mu sync.Mutex
	seen := make(map[int]bool)
	s.Subscribe(func(e Event) {
		assert.Equal(t, e.Snapshot.CartCount, countItems(e.Snapshot.Cart))
		assert.True(t, e.Snapshot.CartTotal.Equal(totalOf(e.Snapshot.Cart)))
		mu.Lock()
		seen[e.Snapshot.CartCount] = true
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.AddToCart(item(1, "1.00", 1))
		}()
	}
	wg.Wait()

	require.Len(t, seen, n)
	for count := 1; count <= n; count++ {
		assert.True(t, seen[count], "no event for count %d", count)
	}
}

func TestSnapshot(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Login(&models.User{ID: 1, Name: "Ada"}, "tok"))
	require.NoError(t, s.AddToCart(item(1, "2.50", 2)))
	require.NoError(t, s.AddToCart(item(2, "1.00", 1)))

	snap := s.Snapshot()

	assert.Equal(t, "Ada", snap.User.Name)
	assert.Len(t, snap.Cart, 2)
	assert.Equal(t, 3, snap.CartCount)
	assert.Equal(t, "6.00", snap.CartTotal.StringFixed(2))

	snap.Cart[0].Quantity = 99
	snap.User.Name = "Eve"
	assert.Equal(t, 3, s.CartItemsCount())
	assert.Equal(t, "Ada", s.User().Name)
}
