package stream

import (
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

const (
	// Boundary separates parts of the multipart stream.
	Boundary = "frame"
	// ContentType is the response type of an MJPEG stream.
	ContentType = "multipart/x-mixed-replace; boundary=" + Boundary
)

var partHeader = []byte(fmt.Sprintf("--%s\r\nContent-Type: image/jpeg\r\n\r\n", Boundary))

// PartWriter writes one JPEG per multipart part and flushes after each one.
type PartWriter struct {
	w       io.Writer
	flusher http.Flusher
}

// NewPartWriter wraps w. When w is an http.ResponseWriter the stream
// headers are set on it.
func NewPartWriter(w io.Writer) *PartWriter {
	pw := &PartWriter{w: w}
	if rw, ok := w.(http.ResponseWriter); ok {
		rw.Header().Set("Content-Type", ContentType)
		rw.Header().Set("Cache-Control", "no-cache")
	}
	if f, ok := w.(http.Flusher); ok {
		pw.flusher = f
	}
	return pw
}

// WritePart writes a single frame part.
func (p *PartWriter) WritePart(jpeg []byte) error {
	if _, err := p.w.Write(partHeader); err != nil {
		return errors.Wrap(err, "write part header")
	}
	if _, err := p.w.Write(jpeg); err != nil {
		return errors.Wrap(err, "write frame")
	}
	if _, err := p.w.Write([]byte("\r\n")); err != nil {
		return errors.Wrap(err, "write part delimiter")
	}
	if p.flusher != nil {
		p.flusher.Flush()
	}
	return nil
}
