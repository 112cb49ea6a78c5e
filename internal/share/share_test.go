package share

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/marquee/internal/bank"
)

func sample() bank.Snapshot {
	snap := bank.EmptySnapshot()
	snap.CurrentBank = 2
	snap.Banks[2].Text = "hello"
	snap.Banks[5].Pixels[3][3] = true
	snap.Banks[5].Mode = bank.Laser
	snap.Banks[6].Text = "   "
	return snap
}

func TestPrepareKeepsNonEmptyBanks(t *testing.T) {
	p := Prepare(sample())
	require.Len(t, p.Banks, 2)
	assert.Equal(t, "hello", p.Banks[0].Text)
	assert.Equal(t, bank.Laser, p.Banks[1].Mode)
	assert.Equal(t, 2, p.CurrentBank)
}

func TestNewID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id, err := NewID()
		require.NoError(t, err)
		assert.Len(t, id, IDLength)
		for _, c := range id {
			assert.Contains(t, alphabet, string(c))
		}
		seen[id] = true
	}
	assert.Len(t, seen, 50)
}

func TestMemStoreExpires(t *testing.T) {
	s := NewMemStore(time.Hour)
	now := time.Unix(0, 0)
	s.now = func() time.Time { return now }

	id, err := s.Put([]byte(`{"banks":[]}`))
	require.NoError(t, err)
	data, err := s.Get(id)
	require.NoError(t, err)
	assert.JSONEq(t, `{"banks":[]}`, string(data))

	now = now.Add(time.Hour)
	_, err = s.Get(id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, s.Len())
}

func TestClientRoundTrip(t *testing.T) {
	srv := httptest.NewServer(NewHandler(NewMemStore(0)))
	defer srv.Close()
	c := NewClient(srv.URL + "/")
	ctx := context.Background()

	id, err := c.Store(ctx, sample())
	require.NoError(t, err)
	assert.Len(t, id, IDLength)

	snap, err := c.Fetch(ctx, id)
	require.NoError(t, err)
	require.Len(t, snap.Banks, 8)
	assert.Equal(t, "hello", snap.Banks[0].Text)
	assert.True(t, snap.Banks[1].Pixels[3][3])
	assert.False(t, snap.Banks[2].HasData())
	assert.Equal(t, 2, snap.CurrentBank)

	_, err = c.Fetch(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHandlerValidates(t *testing.T) {
	h := NewHandler(NewMemStore(0))
	for _, body := range []string{`{}`, `{"banks":null}`, `{"banks":{}}`, `not json`} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/share", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/share", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/share?id=x", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Zero(t, h.Store.Len())
}
