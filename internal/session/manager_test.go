package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antoniostano/omnicart/internal/catalog"
)

var shirt = catalog.Product{SKU: "LV001", Name: "Premium Linen Shirt", Brand: "Louis Philippe", Price: 2999}

func TestManagerCreateGetEnd(t *testing.T) {
	ctx := context.Background()
	m := NewManager(time.Minute)
	s := m.Create(ctx, ChannelMobile, &catalog.Customer{ID: "C001", Tier: catalog.TierGold})
	require.NotEmpty(t, s.ID)
	assert.Equal(t, "C001", s.CustomerID)

	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, got.Status)
	assert.Equal(t, ChannelMobile, got.Channel)

	ended, err := m.End(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusEnded, ended.Status)

	_, err = m.Do(ctx, s.ID, func(*State) error { return nil })
	assert.True(t, errors.Is(err, ErrEnded))
}

func TestManagerCreateDefaultsChannel(t *testing.T) {
	s := NewManager(time.Minute).Create(context.Background(), Channel("fax"), nil)
	assert.Equal(t, ChannelWeb, s.Channel)
	assert.Nil(t, s.Customer)
}

func TestManagerUnknownSession(t *testing.T) {
	m := NewManager(time.Minute)
	_, err := m.Get(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = m.Do(context.Background(), "nope", func(*State) error { return nil })
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestManagerDoMutatesAndReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := NewManager(time.Minute)
	s := m.Create(ctx, ChannelWeb, nil)

	out, err := m.Do(ctx, s.ID, func(st *State) error {
		st.AddToCart(shirt, 1)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, out.Cart, 1)

	out.Cart[0].Quantity = 99
	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Cart[0].Quantity)
}

func TestManagerDoSerializesTurns(t *testing.T) {
	ctx := context.Background()
	m := NewManager(time.Minute)
	s := m.Create(ctx, ChannelWeb, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Do(ctx, s.ID, func(st *State) error {
				st.AddToCart(shirt, 1)
				return nil
			})
		}()
	}
	wg.Wait()

	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, got.Cart, 1)
	assert.Equal(t, 50, got.Cart[0].Quantity)
}

func TestManagerJanitorExpiresInactive(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewManager(30 * time.Millisecond)
	expired := make(chan string, 1)
	m.SetExpireHook(func(s *State) { expired <- s.ID })
	s := m.Create(ctx, ChannelWeb, nil)
	m.StartJanitor(ctx, 10*time.Millisecond)

	select {
	case id := <-expired:
		assert.Equal(t, s.ID, id)
	case <-time.After(time.Second):
		t.Fatal("session was not expired")
	}
	assert.Equal(t, 0, m.ActiveCount())
}

func TestManagerRehydratesFromSnapshots(t *testing.T) {
	ctx := context.Background()
	snaps := NewInMemorySnapshots()
	first := NewManager(time.Minute, WithSnapshots(snaps))
	s := first.Create(ctx, ChannelKiosk, nil)
	_, err := first.Do(ctx, s.ID, func(st *State) error {
		st.AddToCart(shirt, 2)
		st.AppendContext("add LV001")
		return nil
	})
	require.NoError(t, err)

	second := NewManager(time.Minute, WithSnapshots(snaps))
	got, err := second.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, ChannelKiosk, got.Channel)
	assert.Equal(t, 5998, got.CartTotal())
	assert.Equal(t, []string{"add LV001"}, got.Context)
	assert.Equal(t, 1, second.ActiveCount())
}

func TestManagerEvictsEndedSessions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	m := NewManager(time.Minute, withClock(func() time.Time { return now }))
	s := m.Create(ctx, ChannelWeb, nil)

	now = now.Add(2 * time.Minute)
	m.expireInactive(ctx)
	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusEnded, got.Status)

	m.expireInactive(ctx)
	_, err = m.Get(ctx, s.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Empty(t, m.List())
}

func TestManagerEvictionDropsSnapshots(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	snaps := NewInMemorySnapshots()
	m := NewManager(time.Minute, WithSnapshots(snaps), withClock(func() time.Time { return now }))

	ids := make([]string, 0, 200)
	for i := 0; i < 200; i++ {
		ids = append(ids, m.Create(ctx, ChannelWeb, nil).ID)
	}
	require.Equal(t, 200, snaps.Len())

	now = now.Add(2 * time.Minute)
	m.expireInactive(ctx)
	assert.Equal(t, 200, snaps.Len())

	m.expireInactive(ctx)
	assert.Empty(t, m.List())
	assert.Equal(t, 0, snaps.Len())
	for _, id := range ids[:5] {
		_, err := m.Get(ctx, id)
		assert.True(t, errors.Is(err, ErrNotFound))
	}
}
