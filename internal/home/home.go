// Package home drives the time-based parts of the storefront landing page:
// the live clock and the featured-product carousel.
package home

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"shopsy/internal/models"
	"shopsy/internal/scheduler"
)

const (
	ClockInterval    = time.Second
	CarouselInterval = 5 * time.Second
)

// Greeting picks the salutation for an hour of day in [0, 23].
func Greeting(hour int) string {
	switch {
	case hour < 12:
		return "Good Morning"
	case hour < 18:
		return "Good Afternoon"
	default:
		return "Good Evening"
	}
}

// FormatClock renders t as HH:MM:SS.
func FormatClock(t time.Time) string {
	return t.Format("15:04:05")
}

type Page struct {
	group         *scheduler.Group
	now           func() time.Time
	clockEvery    time.Duration
	carouselEvery time.Duration

	// setMu serialises SetFeatured so carousel tasks are never leaked.
	setMu sync.Mutex

	mu       sync.Mutex
	started  bool
	current  time.Time
	featured []*models.Product
	slide    int
	carousel *scheduler.Task
}

type Option func(*Page)

// WithClock replaces time.Now as the source of the displayed time.
func WithClock(now func() time.Time) Option {
	return func(p *Page) { p.now = now }
}

func WithIntervals(clock, carousel time.Duration) Option {
	return func(p *Page) {
		p.clockEvery = clock
		p.carouselEvery = carousel
	}
}

// NewPage builds a page with its own task group. Call Stop on teardown.
func NewPage(logger zerolog.Logger, opts ...Option) *Page {
	p := &Page{
		group:         scheduler.NewGroup(logger),
		now:           time.Now,
		clockEvery:    ClockInterval,
		carouselEvery: CarouselInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.current = p.now()
	return p
}

// Start registers the clock tick. The carousel starts once featured products
// are set. Calling Start again is a no-op.
func (p *Page) Start() error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return nil
	}
	p.started = true
	p.mu.Unlock()

	_, err := p.group.Every(p.clockEvery, func(time.Time) {
		now := p.now()
		p.mu.Lock()
		p.current = now
		p.mu.Unlock()
	})
	if err != nil {
		p.mu.Lock()
		p.started = false
		p.mu.Unlock()
	}
	return err
}

// SetFeatured replaces the carousel products and resets it to the first
// slide. The auto-advance task runs only while there is at least one product.
func (p *Page) SetFeatured(products []*models.Product) error {
	p.setMu.Lock()
	defer p.setMu.Unlock()

	p.mu.Lock()
	old := p.carousel
	p.carousel = nil
	p.featured = append([]*models.Product(nil), products...)
	p.slide = 0
	empty := len(p.featured) == 0
	p.mu.Unlock()

	if old != nil {
		old.Stop()
	}
	if empty {
		return nil
	}

	task, err := p.group.Every(p.carouselEvery, func(time.Time) { p.Next() })
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.carousel = task
	p.mu.Unlock()
	return nil
}

// Next advances the carousel, wrapping after the last product.
func (p *Page) Next() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.featured) > 0 {
		p.slide = (p.slide + 1) % len(p.featured)
	}
}

var ErrSlideOutOfRange = errors.New("home: slide out of range")

func (p *Page) GoToSlide(i int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i < 0 || i >= len(p.featured) {
		return ErrSlideOutOfRange
	}
	p.slide = i
	return nil
}

func (p *Page) Slide() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.slide
}

// Current returns the featured product on screen, or nil.
func (p *Page) Current() *models.Product {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.featured) == 0 {
		return nil
	}
	return p.featured[p.slide]
}

func (p *Page) Now() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *Page) Greeting() string {
	return Greeting(p.Now().Hour())
}

// Stop tears down the clock and carousel. No tick or slide change happens
// after it returns.
func (p *Page) Stop() {
	p.group.Close()
}
