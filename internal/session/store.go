// Package session holds the client-side state a storefront frontend reads:
// the authenticated user and the cart. A Store is created at application
// start, passed to every consumer and closed when the session ends.
package session

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/shopspring/decimal"

	"shopsy/internal/models"
)

var (
	ErrClosed      = errors.New("session: store closed")
	ErrInvalidItem = errors.New("session: invalid cart item")
	ErrNoUser      = errors.New("session: user is required")
)

type EventType int

const (
	EventLogin EventType = iota + 1
	EventLogout
	EventCartChanged
)

func (e EventType) String() string {
	switch e {
	case EventLogin:
		return "login"
	case EventLogout:
		return "logout"
	case EventCartChanged:
		return "cart_changed"
	default:
		return "unknown"
	}
}

// CartItem is one cart line. Quantity is always positive and Price never
// negative.
type CartItem struct {
	ProductID int             `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal is Price × Quantity.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Snapshot is the state handed to listeners after a mutation.
type Snapshot struct {
	User      *models.User
	Cart      []CartItem
	CartCount int
	CartTotal decimal.Decimal
}

type Event struct {
	Type     EventType
	Snapshot Snapshot
}

type Listener func(Event)

type subscription struct {
	id int
	fn Listener
}

type Store struct {
	mu        sync.RWMutex
	user      *models.User
	token     string
	items     []CartItem
	listeners []subscription
	nextID    int
	closed    bool
}

func NewStore() *Store {
	return &Store{}
}

// Login replaces the authenticated user and token.
func (s *Store) Login(user *models.User, token string) error {
	if user == nil {
		return ErrNoUser
	}
	u := *user

	return s.mutate(EventLogin, func() error {
		s.user = &u
		s.token = token
		return nil
	})
}

// Logout clears the user and token. Subscribers receive EventLogout and drop
// any user-scoped state they hold.
func (s *Store) Logout() error {
	return s.mutate(EventLogout, func() error {
		s.user = nil
		s.token = ""
		return nil
	})
}

// User returns a copy of the authenticated user, or nil.
func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

func (s *Store) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.IsAdmin()
}

// AddToCart adds item, merging quantities when the product is already in the
// cart. The stored price is the latest one seen.
func (s *Store) AddToCart(item CartItem) error {
	if item.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidItem)
	}
	if item.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidItem)
	}

	return s.mutate(EventCartChanged, func() error {
		for i := range s.items {
			if s.items[i].ProductID == item.ProductID {
				if item.Quantity > math.MaxInt-s.items[i].Quantity {
					return fmt.Errorf("%w: quantity overflows", ErrInvalidItem)
				}
				s.items[i].Quantity += item.Quantity
				s.items[i].Price = item.Price
				if item.Name != "" {
					s.items[i].Name = item.Name
				}
				return nil
			}
		}
		s.items = append(s.items, item)
		return nil
	})
}

func (s *Store) RemoveFromCart(productID int) error {
	return s.mutate(EventCartChanged, func() error {
		s.remove(productID)
		return nil
	})
}

// UpdateQuantity sets the quantity of a line. A quantity of zero or less
// removes it.
func (s *Store) UpdateQuantity(productID, quantity int) error {
	return s.mutate(EventCartChanged, func() error {
		if quantity <= 0 {
			s.remove(productID)
			return nil
		}
		for i := range s.items {
			if s.items[i].ProductID == productID {
				s.items[i].Quantity = quantity
				return nil
			}
		}
		return nil
	})
}

func (s *Store) ClearCart() error {
	return s.mutate(EventCartChanged, func() error {
		s.items = nil
		return nil
	})
}

func (s *Store) CartItems() []CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]CartItem(nil), s.items...)
}

// CartItemsCount is the sum of quantities, not the number of lines.
func (s *Store) CartItemsCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return countItems(s.items)
}

func (s *Store) CartTotal() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return totalOf(s.items)
}

// Snapshot returns user and cart state read under one lock, so the count and
// total always describe the same cart.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe registers fn for every later mutation. Listeners run
// synchronously in subscription order, outside the store lock. The returned
// func removes the listener and is safe to call more than once.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return func() {}
	}

	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.listeners {
				if sub.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Close drops all listeners. Later mutations return ErrClosed.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.listeners = nil
}

// mutate applies fn under the write lock. When fn succeeds, the event
// snapshot is taken in the same critical section and listeners are called
// after the lock is released.
func (s *Store) mutate(t EventType, fn func() error) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if err := fn(); err != nil {
		s.mu.Unlock()
		return err
	}
	event := Event{Type: t, Snapshot: s.snapshotLocked()}
	listeners := append([]subscription(nil), s.listeners...)
	s.mu.Unlock()

	for _, sub := range listeners {
		sub.fn(event)
	}
	return nil
}

func (s *Store) remove(productID int) {
	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Cart:      append([]CartItem(nil), s.items...),
		CartCount: countItems(s.items),
		CartTotal: totalOf(s.items),
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

func countItems(items []CartItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

func totalOf(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}
