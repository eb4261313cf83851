package parsers

import (
	"io"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type closeCounter struct {
	io.Reader
	closed int
}

func (c *closeCounter) Close() error {
	c.closed++
	return nil
}

func TestPCMOutputArgs(t *testing.T) {
	args := strings.Join(PCMOutputArgs(), " ")
	assert.Equal(t, "-f s16le -ar 48000 -ac 2 -loglevel warning pipe:1", args)
}

func TestProcessStreamCloseOnce(t *testing.T) {
	out := &closeCounter{Reader: strings.NewReader("pcm")}
	upstream := &closeCounter{Reader: strings.NewReader("")}
	ps := NewProcessStream(out, []*exec.Cmd{exec.Command("unstarted")}, upstream)

	b, err := io.ReadAll(ps)
	assert.NoError(t, err)
	assert.Equal(t, "pcm", string(b))

	assert.NoError(t, ps.Close())
	assert.NoError(t, ps.Close())
	assert.Equal(t, 1, out.closed)
	assert.Equal(t, 1, upstream.closed)
}
