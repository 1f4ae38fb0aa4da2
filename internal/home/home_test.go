package home

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopsy/internal/models"
)

func TestGreeting(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{0, "Good Morning"},
		{11, "Good Morning"},
		{12, "Good Afternoon"},
		{17, "Good Afternoon"},
		{18, "Good Evening"},
		{23, "Good Evening"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Greeting(tt.hour), "hour %d", tt.hour)
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "09:05:07", FormatClock(time.Date(2024, 1, 1, 9, 5, 7, 0, time.UTC)))
}

func products(n int) []*models.Product {
	out := make([]*models.Product, n)
	for i := range out {
		out[i] = &models.Product{ID: i + 1}
	}
	return out
}

func TestClockTicks(t *testing.T) {
	var calls atomic.Int64
	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	page := NewPage(zerolog.Nop(),
		WithClock(func() time.Time { return base.Add(time.Duration(calls.Add(1)) * time.Hour) }),
		WithIntervals(2*time.Millisecond, time.Hour),
	)
	defer page.Stop()

	first := page.Now()
	require.NoError(t, page.Start())

	require.Eventually(t, func() bool { return page.Now().After(first) }, time.Second, time.Millisecond)
}

func TestStart_Twice(t *testing.T) {
	page := NewPage(zerolog.Nop(), WithIntervals(time.Hour, time.Hour))
	defer page.Stop()

	require.NoError(t, page.Start())
	require.NoError(t, page.Start())

	assert.Equal(t, 1, page.group.Len())
}

func TestCarousel_AdvancesAndWraps(t *testing.T) {
	page := NewPage(zerolog.Nop(), WithIntervals(time.Hour, 2*time.Millisecond))
	defer page.Stop()

	require.NoError(t, page.SetFeatured(products(3)))
	require.Eventually(t, func() bool { return page.Slide() == 2 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return page.Slide() == 0 }, time.Second, time.Millisecond)
}

func TestCarousel_IdleWithoutProducts(t *testing.T) {
	page := NewPage(zerolog.Nop(), WithIntervals(time.Hour, time.Millisecond))
	defer page.Stop()

	require.NoError(t, page.SetFeatured(nil))
	assert.Nil(t, page.Current())
	assert.Equal(t, 0, page.group.Len())

	require.NoError(t, page.SetFeatured(products(2)))
	assert.Equal(t, 1, page.group.Len())

	require.NoError(t, page.SetFeatured(nil))
	assert.Equal(t, 0, page.group.Len())
}

func TestGoToSlide(t *testing.T) {
	page := NewPage(zerolog.Nop())
	defer page.Stop()

	require.NoError(t, page.SetFeatured(products(4)))
	require.NoError(t, page.GoToSlide(3))
	assert.Equal(t, 4, page.Current().ID)

	page.Next()
	assert.Equal(t, 0, page.Slide())

	assert.ErrorIs(t, page.GoToSlide(4), ErrSlideOutOfRange)
	assert.ErrorIs(t, page.GoToSlide(-1), ErrSlideOutOfRange)
}

func TestStop_FreezesPage(t *testing.T) {
	page := NewPage(zerolog.Nop(), WithIntervals(time.Millisecond, time.Millisecond))
	require.NoError(t, page.Start())
	require.NoError(t, page.SetFeatured(products(5)))
	require.Eventually(t, func() bool { return page.Slide() > 0 }, time.Second, time.Millisecond)

	page.Stop()
	slide, now := page.Slide(), page.Now()
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, slide, page.Slide())
	assert.Equal(t, now, page.Now())
	assert.Error(t, page.SetFeatured(products(1)))
}
