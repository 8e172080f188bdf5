package camera

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Config is one device configuration the session may request. Start
// walks the fallback list in order and keeps the first that the device
// grants.
type Config struct {
	Name   string
	Width  int
	Height int
}

// DefaultFallbackConfigs goes preferred resolution, then any usable
// resolution, then whatever the device defaults to.
var DefaultFallbackConfigs = []Config{
	{Name: "preferred", Width: 1280, Height: 720},
	{Name: "fallback", Width: 640, Height: 480},
	{Name: "default"},
}

// Frame is an opaque still image snapshot taken from an active device.
type Frame struct {
	ID         string
	Data       []byte
	Format     string
	Width      int
	Height     int
	CapturedAt time.Time
}

// Device acquisition errors, classified by the driver.
var (
	ErrPermissionDenied = errors.New("camera permission denied")
	ErrDeviceNotFound   = errors.New("camera device not found")
)

// Device abstracts the imaging hardware. Implementations must be safe
// to Acquire again after Release.
type Device interface {
	Acquire(ctx context.Context, cfg Config) (Handle, error)
}

// Handle is an exclusive claim on the device. Release must be safe to
// call more than once.
type Handle interface {
	Capture() (Frame, error)
	Release()
}

// SimDevice is the development stand-in for real imaging hardware: it
// grants every acquisition and produces synthetic frames. Failure modes
// can be forced for tests.
type SimDevice struct {
	DenyPermission bool
	Absent         bool
}

type simHandle struct {
	cfg      Config
	released bool
}

func (d *SimDevice) Acquire(ctx context.Context, cfg Config) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.Absent {
		return nil, ErrDeviceNotFound
	}
	if d.DenyPermission {
		return nil, ErrPermissionDenied
	}
	return &simHandle{cfg: cfg}, nil
}

func (h *simHandle) Capture() (Frame, error) {
	if h.released {
		return Frame{}, errors.New("capture on released handle")
	}
	w, ht := h.cfg.Width, h.cfg.Height
	if w == 0 {
		w, ht = 640, 480
	}
	id := uuid.New().String()
	return Frame{
		ID:         id,
		Data:       []byte(fmt.Sprintf("sim-frame:%s", id)),
		Format:     "image/jpeg",
		Width:      w,
		Height:     ht,
		CapturedAt: time.Now().UTC(),
	}, nil
}

func (h *simHandle) Release() {
	h.released = true
}
