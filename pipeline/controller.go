package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/derekwisong/datui/frame"
)

// Update is one materialization outcome delivered by the controller.
// Generation identifies the request that produced it.
type Update struct {
	Generation uint64
	Frame      *frame.DataFrame
	Err        error
}

// Controller runs pipeline recomputes off the UI goroutine. Every edit
// requests a new generation; when several requests race, only the result
// of the newest generation is delivered and stale results are discarded,
// so the view never regresses to an older configuration.
type Controller struct {
	pipeline *Pipeline
	logger   log.Logger

	gen     atomic.Uint64
	mu      sync.Mutex
	updates chan Update
	wg      sync.WaitGroup
	closed  bool
}

// NewController wraps a pipeline. The logger may be nil.
func NewController(p *Pipeline, logger log.Logger) *Controller {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Controller{
		pipeline: p,
		logger:   logger,
		updates:  make(chan Update, 8),
	}
}

// Updates delivers recompute outcomes, newest generation only.
func (c *Controller) Updates() <-chan Update { return c.updates }

// Request starts an asynchronous recompute and returns its generation
// number. A request made while an earlier one is still running supersedes
// it: the earlier result is discarded on arrival.
func (c *Controller) Request(ctx context.Context) uint64 {
	gen := c.gen.Add(1)
	level.Debug(c.logger).Log("msg", "recompute requested", "generation", gen)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		df, err := c.pipeline.Recompute()
		if ctx.Err() != nil {
			level.Debug(c.logger).Log("msg", "recompute canceled", "generation", gen)
			return
		}
		c.deliver(Update{Generation: gen, Frame: df, Err: err})
	}()
	return gen
}

func (c *Controller) deliver(u Update) {
	if u.Generation != c.gen.Load() {
		level.Debug(c.logger).Log("msg", "stale result discarded",
			"generation", u.Generation, "latest", c.gen.Load())
		return
	}
	if u.Err != nil {
		level.Warn(c.logger).Log("msg", "recompute failed", "generation", u.Generation, "err", u.Err)
	} else {
		level.Debug(c.logger).Log("msg", "recompute done",
			"generation", u.Generation, "rows", u.Frame.Height(), "cols", u.Frame.Width())
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	// Drop the oldest queued update rather than block; consumers only
	// care about the newest state.
	for {
		select {
		case c.updates <- u:
			return
		default:
			select {
			case <-c.updates:
			default:
			}
		}
	}
}

// Close stops delivery and waits for in-flight recomputes to finish.
func (c *Controller) Close() {
	c.wg.Wait()
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.updates)
	}
}
