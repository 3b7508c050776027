// Package bufpool pools []byte frame buffers for package remote and its
// transports. The teacher's memsys package did this job (a slab
// allocator shared across the whole process), but none of its
// implementation survived into the retrieved pack — only call sites
// referencing it did, and all of those call sites were removed along
// with every package that depended on memsys's SGL type. sync.Pool is
// the standard-library substitute: this module's frames are short-lived
// and uniformly sized enough that a slab allocator's main advantage
// (avoiding fragmentation across wildly different size classes) doesn't
// apply here.
package bufpool

import "sync"

const defaultCap = 4096

var pool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, defaultCap)
		return &b
	},
}

// Get returns a zero-length buffer with at least defaultCap capacity.
func Get() []byte {
	b := pool.Get().(*[]byte)
	return (*b)[:0]
}

// Put returns buf to the pool. Callers must not use buf after Put.
func Put(buf []byte) {
	if cap(buf) == 0 {
		return
	}
	pool.Put(&buf)
}
