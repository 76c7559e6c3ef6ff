// usage:
//
// import (
//
//	"log/slog"
//
//	"github.com/unkn0wn-root/msgbuf"
//	asynchook "github.com/unkn0wn-root/msgbuf/hooks/async"
//	"github.com/unkn0wn-root/msgbuf/sloghooks"
//
// )
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    UnknownTagEvery: 10, // sample logs: ~every 10th unknown tag
//	    InvalidEvery:    1,  // log every rejected input
//	})
//
// hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
// defer hooks.Close()
//
//	codec := msgbuf.New(msgbuf.Options{
//	    Hooks: hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"

	"github.com/unkn0wn-root/msgbuf"
)

type Hooks struct {
	inner msgbuf.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ msgbuf.Hooks = (*Hooks)(nil)

func New(inner msgbuf.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) UnknownExtensionTag(t int8) { h.try(func() { h.inner.UnknownExtensionTag(t) }) }
func (h *Hooks) ExtensionReplaced(t int8, name string) {
	h.try(func() { h.inner.ExtensionReplaced(t, name) })
}
func (h *Hooks) InvalidInput(r msgbuf.InvalidReason, off int) {
	h.try(func() { h.inner.InvalidInput(r, off) })
}
func (h *Hooks) HandlerError(t int8, name string, err error) {
	h.try(func() { h.inner.HandlerError(t, name, err) })
}
