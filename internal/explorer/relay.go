package explorer

import (
	"context"
	"log"
)

type relayJob struct {
	what string
	run  func(ctx context.Context) error
}

// enqueue schedules a write-through. Jobs run one at a time in submission
// order on a background goroutine.
func (c *Controller) enqueue(job relayJob) {
	c.relays.Add(1)
	c.relayMu.Lock()
	c.queue = append(c.queue, job)
	start := !c.draining
	c.draining = true
	c.relayMu.Unlock()

	if start {
		go c.drain()
	}
}

func (c *Controller) drain() {
	for {
		c.relayMu.Lock()
		if len(c.queue) == 0 {
			c.draining = false
			c.relayMu.Unlock()
			return
		}
		job := c.queue[0]
		c.queue = c.queue[1:]
		c.relayMu.Unlock()

		c.runRelay(job)
		c.relays.Done()
	}
}

func (c *Controller) runRelay(job relayJob) {
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.RelayTimeout)
	defer cancel()

	if err := job.run(ctx); err != nil {
		log.Printf("relay %s failed: %v", job.what, err)
		_ = c.update(func() error {
			c.pushNotice(NoticeRelayFailed, "Could not save "+job.what+"; it is kept locally.")
			return nil
		})
	}
}

// Wait blocks until every queued write-through has finished.
func (c *Controller) Wait() {
	c.relays.Wait()
}
