// Package navbar is the state behind the storefront navigation bar: search
// box, dropdowns, notifications and the cart badge.
package navbar

import (
	"net/url"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"shopsy/internal/session"
)

// Navigator performs client-side navigation.
type Navigator interface {
	Navigate(path string)
}

type Dropdown int

const (
	DropdownSearch Dropdown = iota
	DropdownUserMenu
	DropdownNotifications
)

type Point struct {
	X, Y float64
}

// Rect is the on-screen area of a dropdown, including its toggle.
type Rect struct {
	Min, Max Point
}

func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

type dropdownState struct {
	open      bool
	bounds    Rect
	hasBounds bool
}

// CartSummary is what the cart link shows.
type CartSummary struct {
	Count     int
	Total     string
	ShowTotal bool
}

type Navbar struct {
	store *session.Store
	nav   Navigator

	mu            sync.Mutex
	query         string
	dropdowns     map[Dropdown]*dropdownState
	notifications []Notification
	online        bool

	unsubscribe func()
}

// New binds a navbar to the session store. Call Close when the navbar is
// torn down.
func New(store *session.Store, nav Navigator, notifications []Notification) *Navbar {
	n := &Navbar{
		store:         store,
		nav:           nav,
		notifications: append([]Notification(nil), notifications...),
		online:        true,
		dropdowns: map[Dropdown]*dropdownState{
			DropdownSearch:        {},
			DropdownUserMenu:      {},
			DropdownNotifications: {},
		},
	}
	n.unsubscribe = store.Subscribe(n.onSessionEvent)
	return n
}

func (n *Navbar) onSessionEvent(e session.Event) {
	if e.Type != session.EventLogout {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dropdowns[DropdownUserMenu].open = false
	n.dropdowns[DropdownNotifications].open = false
}

// Close detaches the navbar from the session store.
func (n *Navbar) Close() {
	n.unsubscribe()
}

func (n *Navbar) SetQuery(q string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.query = q
}

func (n *Navbar) Query() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.query
}

// SubmitSearch navigates to the product listing filtered by the current
// query. A blank query is ignored and reports false.
func (n *Navbar) SubmitSearch() bool {
	n.mu.Lock()
	q := strings.TrimSpace(n.query)
	if q == "" {
		n.mu.Unlock()
		return false
	}
	n.query = ""
	n.dropdowns[DropdownSearch].open = false
	n.mu.Unlock()

	n.nav.Navigate(SearchPath(q))
	return true
}

// searchUnescaper restores the characters a browser's URI component encoder
// leaves alone but url.QueryEscape escapes.
var searchUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// SearchPath builds the listing route for q. Spaces are encoded as %20, not
// +, and ! ' ( ) * are left as is.
func SearchPath(q string) string {
	return "/products?search=" + searchUnescaper.Replace(url.QueryEscape(q))
}

func (n *Navbar) Toggle(d Dropdown) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if s, ok := n.dropdowns[d]; ok {
		s.open = !s.open
	}
}

func (n *Navbar) SetOpen(d Dropdown, open bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if s, ok := n.dropdowns[d]; ok {
		s.open = open
	}
}

func (n *Navbar) IsOpen(d Dropdown) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	s, ok := n.dropdowns[d]
	return ok && s.open
}

// SetBounds records where d is rendered. A dropdown without bounds is never
// dismissed by PointerDown.
func (n *Navbar) SetBounds(d Dropdown, r Rect) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if s, ok := n.dropdowns[d]; ok {
		s.bounds = r
		s.hasBounds = true
	}
}

// PointerDown closes each open dropdown whose bounds do not contain p.
// Dropdowns are independent, so several can stay open at once.
func (n *Navbar) PointerDown(p Point) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, s := range n.dropdowns {
		if s.open && s.hasBounds && !s.bounds.Contains(p) {
			s.open = false
		}
	}
}

func (n *Navbar) Notifications() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.notifications...)
}

// MarkAsRead marks the notification with id as read. It reports whether one
// was found.
func (n *Navbar) MarkAsRead(id int) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := range n.notifications {
		if n.notifications[i].ID == id {
			n.notifications[i].Read = true
			return true
		}
	}
	return false
}

func (n *Navbar) UnreadCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return unreadCount(n.notifications)
}

func (n *Navbar) ClearAllNotifications() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = nil
	n.dropdowns[DropdownNotifications].open = false
}

func (n *Navbar) CartSummary() CartSummary {
	snap := n.store.Snapshot()
	return CartSummary{
		Count:     snap.CartCount,
		Total:     "$" + snap.CartTotal.StringFixed(2),
		ShowTotal: len(snap.Cart) > 0,
	}
}

// AvatarInitial is the upper-cased first letter of the user's name, or "U"
// when the name is empty. Empty for anonymous sessions.
func (n *Navbar) AvatarInitial() string {
	user := n.store.User()
	if user == nil {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(user.Name)
	if r == utf8.RuneError {
		return "U"
	}
	return string(unicode.ToUpper(r))
}

func (n *Navbar) ShowAdminLink() bool {
	return n.store.IsAdmin()
}

func (n *Navbar) SetOnline(online bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.online = online
}

func (n *Navbar) Online() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.online
}

// Logout ends the session. The user menu and notifications dropdown close
// through the session subscription.
func (n *Navbar) Logout() error {
	return n.store.Logout()
}
