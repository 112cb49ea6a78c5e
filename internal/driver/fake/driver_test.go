package fake

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/marquee/internal/render"
)

func TestSummaryLine(t *testing.T) {
	var buf bytes.Buffer
	d := &Driver{Out: &buf}
	var f render.Frame
	f[1][2] = true
	require.NoError(t, d.Write(f))
	assert.Equal(t, "[frame 0001] lit=1 first=46\n", buf.String())
	assert.Equal(t, 1, d.Count)
}
