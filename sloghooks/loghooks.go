package sloghooks

import (
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/msgbuf"
)

type Options struct {
	// Sampling to avoid floods on hostile input; 0/1 = log all.
	UnknownTagEvery uint64
	InvalidEvery    uint64
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	unknownCtr atomic.Uint64
	invalidCtr atomic.Uint64
}

var _ msgbuf.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) UnknownExtensionTag(tag int8) {
	if h.l == nil || !sample(h.opts.UnknownTagEvery, &h.unknownCtr) {
		return
	}
	h.l.Debug("msgbuf.unknown_extension_tag",
		"tag", tag)
}

func (h *Hooks) InvalidInput(reason msgbuf.InvalidReason, off int) {
	if h.l == nil || !sample(h.opts.InvalidEvery, &h.invalidCtr) {
		return
	}
	h.l.Info("msgbuf.invalid_input",
		"reason", reason.String(),
		"off", off)
}

func (h *Hooks) ExtensionReplaced(tag int8, name string) {
	if h.l == nil {
		return
	}
	h.l.Warn("msgbuf.extension_replaced",
		"tag", tag,
		"name", name)
}

func (h *Hooks) HandlerError(tag int8, name string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("msgbuf.handler_error",
		"tag", tag,
		"name", name,
		"err", err)
}
