// Package iostreamstest provides test doubles for the iostreams package.
package iostreamstest

import (
	"bytes"

	"github.com/schmitthub/ctfdocker/internal/iostreams"
)

// TestIOStreams wraps IOStreams for testing with accessible buffers.
type TestIOStreams struct {
	*iostreams.IOStreams
	InBuf  *bytes.Buffer
	OutBuf *bytes.Buffer
	ErrBuf *bytes.Buffer
}

// New creates IOStreams for testing. Streams are buffers, nothing is a
// terminal and colors are disabled.
func New() *TestIOStreams {
	in, out, errOut := &bytes.Buffer{}, &bytes.Buffer{}, &bytes.Buffer{}
	ios := &iostreams.IOStreams{In: in, Out: out, ErrOut: errOut}
	return &TestIOStreams{IOStreams: ios, InBuf: in, OutBuf: out, ErrBuf: errOut}
}
