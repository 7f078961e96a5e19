package gfx

import (
	"context"
	"sync/atomic"

	"github.com/devblok/pinch/model"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// package errors
var (
	ErrRingSize = errors.New("ring needs at least one frame")
)

// NewRing creates a ring of size uniform frames, the number of
// frames the host may prepare ahead of the GPU.
func NewRing(size int, logger log.FieldLogger) (*Ring, error) {
	if size < 1 {
		return nil, errors.Wrapf(ErrRingSize, "size %d", size)
	}
	if logger == nil {
		logger = log.StandardLogger()
	}

	r := &Ring{
		slots:  make([]slot, size),
		free:   make(chan int, size),
		logger: logger,
	}
	for idx := range r.slots {
		r.slots[idx].uniform = model.IdentityUniform()
		r.free <- idx
	}
	return r, nil
}

// Ring hands out uniform frames so the host never overwrites a
// frame the GPU is still reading. A frame is owned by the caller
// from Acquire until Release.
type Ring struct {
	slots  []slot
	free   chan int
	logger log.FieldLogger

	acquired uint64
}

// slot is the storage behind frames. owner holds the serial of the
// acquisition currently holding it, 0 while free.
type slot struct {
	uniform model.Uniform
	owner   uint64
}

// Size returns the number of frames in the ring
func (r *Ring) Size() int {
	return len(r.slots)
}

// Available returns the number of frames that can be acquired without blocking
func (r *Ring) Available() int {
	return len(r.free)
}

// Acquire waits for a free frame. Returns the context's error if it
// is done before a frame frees up.
func (r *Ring) Acquire(ctx context.Context) (*Frame, error) {
	select {
	case idx := <-r.free:
		return r.take(idx), nil
	default:
	}

	r.logger.WithField("frames", len(r.slots)).Debug("all frames in flight, waiting")
	select {
	case idx := <-r.free:
		return r.take(idx), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Ring) take(idx int) *Frame {
	s := &r.slots[idx]
	serial := atomic.AddUint64(&r.acquired, 1)
	atomic.StoreUint64(&s.owner, serial)
	return &Frame{
		Uniform: &s.uniform,
		ring:    r,
		index:   idx,
		serial:  serial,
	}
}

// Frame is one acquisition of a ring slot. A new Frame is handed out
// on every Acquire, so a stale handle cannot release a slot that has
// since been acquired again.
type Frame struct {
	// Uniform is written by the host before the frame is submitted
	Uniform *model.Uniform

	ring   *Ring
	index  int
	serial uint64
}

var _ Releasable = (*Frame)(nil)

// Index returns the slot of the frame in its ring, which is also
// the index of the GPU buffer backing it
func (f *Frame) Index() int {
	return f.index
}

// Serial counts acquisitions across the ring, starting at 1
func (f *Frame) Serial() uint64 {
	return f.serial
}

// Bytes returns the upload image of the frame's uniform block
func (f *Frame) Bytes() []byte {
	return f.Uniform.Bytes()
}

// Release hands the frame back to the ring once the GPU is done with it.
// Releasing a frame twice has no effect.
func (f *Frame) Release() {
	s := &f.ring.slots[f.index]
	if !atomic.CompareAndSwapUint64(&s.owner, f.serial, 0) {
		return
	}
	f.ring.free <- f.index
}
