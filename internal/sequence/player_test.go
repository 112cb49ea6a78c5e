package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/marquee/internal/bank"
	"github.com/coreman2200/marquee/internal/layout"
)

func storeWith(banks map[int]bank.Bank) *bank.Store {
	s := bank.NewStore()
	for i, b := range banks {
		b := b
		s.Update(i, func(dst *bank.Bank) bool {
			*dst = b
			return true
		})
	}
	return s
}

func TestPlayerStartIsIdempotent(t *testing.T) {
	b := bankWith(bank.ScrollLeft, 16)
	b.Speed = 8
	p := NewPlayer(storeWith(map[int]bank.Bank{0: b}), Hooks{})

	p.Start(0)
	require.True(t, p.Running())
	p.Tick(ms(66))
	_, st := p.Preview()
	assert.Equal(t, -45, st.Viewport, "interval not yet elapsed")
	p.Tick(ms(67))
	_, st = p.Preview()
	assert.Equal(t, -44, st.Viewport)

	p.Start(ms(100))
	_, st = p.Preview()
	assert.Equal(t, -44, st.Viewport)
}

func TestPlayerStopTakesEffectBeforeNextTick(t *testing.T) {
	stopped := 0
	p := NewPlayer(storeWith(map[int]bank.Bank{0: bankWith(bank.ScrollLeft, 16)}), Hooks{
		Stopped: func() { stopped++ },
	})
	p.Start(0)
	p.Stop()
	p.Tick(ms(5000))
	_, st := p.Preview()
	assert.Nil(t, st)
	assert.False(t, p.Running())
	assert.Equal(t, 1, stopped)
	p.Stop()
	assert.Equal(t, 1, stopped)
}

func TestPlayerHonoursPause(t *testing.T) {
	b := bankWith(bank.ScrollLeft, 1)
	b.Speed = 8
	p := NewPlayer(storeWith(map[int]bank.Bank{0: b}), Hooks{})
	p.Start(0)
	now := 0
	for {
		now += 67
		p.Tick(ms(now))
		_, st := p.Preview()
		if st.Viewport == -45 {
			break
		}
	}
	wrapped := now
	p.Tick(ms(wrapped + 500))
	_, st := p.Preview()
	assert.Equal(t, -45, st.Viewport)
	p.Tick(ms(wrapped + 1000))
	_, st = p.Preview()
	assert.Equal(t, -44, st.Viewport)
}

func TestPlayerEffectsRunDuringPause(t *testing.T) {
	b := bankWith(bank.Static, layout.Width)
	b.Blink = true
	p := NewPlayer(storeWith(map[int]bank.Bank{0: b}), Hooks{})
	p.Start(0)
	p.Tick(ms(500))
	_, st := p.Preview()
	assert.False(t, st.Blink.On)
}

func TestPlayerStopsAtEndWithoutCycling(t *testing.T) {
	stopped := false
	p := NewPlayer(storeWith(map[int]bank.Bank{0: bankWith(bank.Laser, layout.Width, [2]int{5, 5})}), Hooks{
		Stopped: func() { stopped = true },
	})
	p.Start(0)
	for at := 0; at <= 20000; at += 10 {
		p.Tick(ms(at))
	}
	assert.True(t, p.Running(), "without cycling a mode loops forever")
	assert.False(t, stopped)
}

func TestCyclingVisitsOnlyNonEmptyBanks(t *testing.T) {
	src := storeWith(map[int]bank.Bank{
		0: bankWith(bank.Laser, layout.Width, [2]int{5, 5}),
		3: bankWith(bank.Laser, layout.Width, [2]int{9, 2}),
	})
	src.SetCycling(true)
	var visited []int
	p := NewPlayer(src, Hooks{BankChanged: func(i int) { visited = append(visited, i) }})
	p.Start(0)
	for at := 0; at <= 20000; at += 10 {
		p.Tick(ms(at))
	}
	require.GreaterOrEqual(t, len(visited), 3)
	assert.Equal(t, []int{3, 0, 3}, visited[:3])
	for _, i := range visited {
		assert.Contains(t, []int{0, 3}, i)
	}
	idx, st := p.Preview()
	require.NotNil(t, st)
	assert.Equal(t, idx, src.Active())
}

func TestCyclingReturnsToStartBankWhenAlone(t *testing.T) {
	src := storeWith(map[int]bank.Bank{2: bankWith(bank.Laser, layout.Width, [2]int{1, 1})})
	src.SetCycling(true)
	src.SetActive(2)
	var visited []int
	p := NewPlayer(src, Hooks{BankChanged: func(i int) { visited = append(visited, i) }})
	p.Start(0)
	for at := 0; at <= 6000; at += 10 {
		p.Tick(ms(at))
	}
	assert.Equal(t, []int{2}, visited)
	assert.Equal(t, 2, src.Active())
}

func TestCyclingCountsTextOnlyBanks(t *testing.T) {
	text := bank.New()
	text.Text = "hello"
	src := storeWith(map[int]bank.Bank{
		0: bankWith(bank.Laser, layout.Width, [2]int{1, 1}),
		5: text,
	})
	src.SetCycling(true)
	var visited []int
	p := NewPlayer(src, Hooks{BankChanged: func(i int) { visited = append(visited, i) }})
	p.Start(0)
	for at := 0; at <= 5000; at += 10 {
		p.Tick(ms(at))
	}
	assert.Equal(t, []int{5}, visited)
}
