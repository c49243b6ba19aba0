package crawler

import (
	"sync"

	"github.com/nao1215/seoscan/internal/model"
)

// frontier is the shared FIFO work queue. It tracks every item that is
// queued or being processed and closes itself once that count drops to
// zero, which releases all waiting workers.
type frontier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	items   []model.WorkItem
	pending int
	closed  bool
}

func newFrontier() *frontier {
	f := &frontier{}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// push enqueues item. Pushing to a closed frontier is a no-op.
func (f *frontier) push(item model.WorkItem) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	f.items = append(f.items, item)
	f.pending++
	f.cond.Signal()
	return true
}

// pop blocks until an item is available or the frontier is closed.
// The caller must call done after processing a popped item.
func (f *frontier) pop() (model.WorkItem, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.items) == 0 && !f.closed {
		f.cond.Wait()
	}
	if f.closed {
		return model.WorkItem{}, false
	}
	item := f.items[0]
	f.items[0] = model.WorkItem{}
	f.items = f.items[1:]
	return item, true
}

// done marks one popped item as finished. The last one closes the frontier.
func (f *frontier) done() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending--
	if f.pending <= 0 {
		f.closeLocked()
	}
}

// close stops the frontier. Queued items are discarded.
func (f *frontier) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeLocked()
}

func (f *frontier) closeLocked() {
	if f.closed {
		return
	}
	f.closed = true
	f.items = nil
	f.cond.Broadcast()
}

// len returns the number of queued items.
func (f *frontier) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}
