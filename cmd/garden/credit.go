package main

import (
	"sync"

	"catnipgarden/internal/progress"
)

type credit struct {
	progress.Completion
	Err error
}

// creditBox holds the result of crediting a finished game. The session
// fills it from whichever goroutine completed the game.
type creditBox struct {
	mu     sync.Mutex
	c      credit
	filled bool
}

func (b *creditBox) set(c progress.Completion, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.c = credit{Completion: c, Err: err}
	b.filled = true
}

func (b *creditBox) get() (credit, bool) {
	if b == nil {
		return credit{}, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.c, b.filled
}
