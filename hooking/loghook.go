package hooking

import (
	"log"
)

// A LogHook prints every hook it receives.
type LogHook struct {
	*log.Logger
}

// NewLogHook creates a LogHook writing to logger.
func NewLogHook(logger *log.Logger) *LogHook {
	return &LogHook{Logger: logger}
}

// Func prints the position, the item and, if any, the detail.
func (h *LogHook) Func(ctx HookCtx) {
	name := "?"
	if ctx.Pos != nil {
		name = ctx.Pos.Name
	}

	if ctx.Detail != nil {
		h.Printf("[%s] %v (%v)", name, ctx.Item, ctx.Detail)
		return
	}

	h.Printf("[%s] %v", name, ctx.Item)
}
