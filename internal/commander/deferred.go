package commander

// taskQueue holds work that must run after the current command finishes.
type taskQueue struct {
	tasks []func()
}

func (q *taskQueue) Enqueue(fn func()) {
	q.tasks = append(q.tasks, fn)
}

// Flush runs queued tasks in order, including any they enqueue, and returns
// how many ran.
func (q *taskQueue) Flush() int {
	n := 0
	for len(q.tasks) > 0 {
		batch := q.tasks
		q.tasks = nil
		for _, fn := range batch {
			fn()
			n++
		}
	}
	return n
}

func (q *taskQueue) Len() int { return len(q.tasks) }

// FlushDeferred runs deferred work such as concentration checks. Called after
// every dispatched command and once per tick.
func (c *Commander) FlushDeferred() int {
	return c.deferred.Flush()
}

// DeferredPending reports how many deferred tasks wait for the next flush.
func (c *Commander) DeferredPending() int {
	return c.deferred.Len()
}
