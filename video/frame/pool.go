package frame

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// MaxOutstanding bounds the frames a Pool hands out without getting them
// back. Exceeding it almost always means a frame isn't being released.
const MaxOutstanding = 500

// Pool recycles frame buffers between capture cycles.
type Pool struct {
	l         sync.Mutex
	available []*Frame
	allocated int
}

func NewPool() *Pool {
	return &Pool{}
}

// Get returns a frame of the given shape. Contents are undefined.
func (p *Pool) Get(width, height, channels int) *Frame {
	p.l.Lock()
	defer p.l.Unlock()
	n := width * height * channels
	for i, f := range p.available {
		if cap(f.Pix) >= n {
			p.available = append(p.available[:i], p.available[i+1:]...)
			f.Width, f.Height, f.Channels = width, height, channels
			f.Pix = f.Pix[:n]
			f.Time = time.Time{}
			return f
		}
	}
	p.allocated++
	if p.allocated > MaxOutstanding {
		log.Panicf("Too many frame pool allocations (%d). Perhaps a frame isn't being released?", p.allocated)
	}
	return New(width, height, channels)
}

// Put returns f to the pool. f must not be used afterwards.
func (p *Pool) Put(f *Frame) {
	if f == nil {
		return
	}
	p.l.Lock()
	defer p.l.Unlock()
	p.available = append(p.available, f)
}

// Allocated is the number of buffers the pool has created.
func (p *Pool) Allocated() int {
	p.l.Lock()
	defer p.l.Unlock()
	return p.allocated
}
