package capture

import (
	"context"
	"image"
	"io"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Camera reads frames from a video device, file or stream URL.
type Camera struct {
	source string
	cap    *gocv.VideoCapture
	frame  gocv.Mat

	mu     sync.Mutex
	closed bool
}

// OpenCamera opens source. A numeric source is treated as a device index,
// anything else as a file path or URL.
func OpenCamera(source string) (*Camera, error) {
	var (
		vc  *gocv.VideoCapture
		err error
	)
	if id, convErr := strconv.Atoi(source); convErr == nil {
		vc, err = gocv.OpenVideoCapture(id)
	} else {
		vc, err = gocv.OpenVideoCapture(source)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open capture %q", source)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, errors.Errorf("capture %q is not opened", source)
	}
	return &Camera{source: source, cap: vc, frame: gocv.NewMat()}, nil
}

// Read grabs the next frame. It returns io.EOF once the source stops
// producing frames.
func (c *Camera) Read(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, io.EOF
	}

	if ok := c.cap.Read(&c.frame); !ok || c.frame.Empty() {
		return nil, io.EOF
	}
	img, err := c.frame.ToImage()
	if err != nil {
		return nil, errors.Wrapf(err, "convert frame from %q", c.source)
	}
	return img, nil
}

// Close releases the device. Calling it more than once is safe.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.frame.Close()
	return c.cap.Close()
}
