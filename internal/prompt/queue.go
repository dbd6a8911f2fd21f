package prompt

import "go.uber.org/zap"

// Queue holds pending prompts in arrival order. Prompts are answered from
// the front; completed prompts are dropped lazily.
// Game loop goroutine only.
type Queue struct {
	items []*Prompt
	log   *zap.Logger
}

func NewQueue(log *zap.Logger) *Queue {
	return &Queue{log: log}
}

// Add enqueues a prompt.
func (q *Queue) Add(p *Prompt) {
	q.items = append(q.items, p)
	q.log.Debug("prompt queued",
		zap.Uint64("id", p.ID),
		zap.String("kind", string(p.Kind)),
		zap.Int("pending", q.Len()),
	)
}

// Current returns the oldest unresolved prompt, or nil.
func (q *Queue) Current() *Prompt {
	q.compact()
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

// Pending returns the unresolved prompts in order.
func (q *Queue) Pending() []*Prompt {
	q.compact()
	out := make([]*Prompt, len(q.items))
	copy(out, q.items)
	return out
}

// Len returns the number of unresolved prompts.
func (q *Queue) Len() int {
	q.compact()
	return len(q.items)
}

// ResolveCurrent submits values to the oldest unresolved prompt.
// Returns false when the queue is empty.
func (q *Queue) ResolveCurrent(values map[string]string) bool {
	p := q.Current()
	if p == nil {
		return false
	}
	if err := p.Resolve(values); err != nil {
		q.log.Warn("prompt resolve failed", zap.Uint64("id", p.ID), zap.Error(err))
		return false
	}
	q.compact()
	return true
}

// DismissCurrent cancels the oldest unresolved prompt.
func (q *Queue) DismissCurrent() bool {
	p := q.Current()
	if p == nil {
		return false
	}
	if err := p.Dismiss(); err != nil {
		q.log.Warn("prompt dismiss failed", zap.Uint64("id", p.ID), zap.Error(err))
		return false
	}
	q.compact()
	return true
}

func (q *Queue) compact() {
	kept := q.items[:0]
	for _, p := range q.items {
		if !p.done {
			kept = append(kept, p)
		}
	}
	for i := len(kept); i < len(q.items); i++ {
		q.items[i] = nil
	}
	q.items = kept
}
