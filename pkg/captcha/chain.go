package captcha

import (
	"context"
	"errors"
)

// handler is one chain-of-responsibility node: a solver, its breaker, and a
// link to the next handler. The next link is set once during chain assembly.
type handler struct {
	solver  Solver
	breaker *Breaker
	next    *handler
	logger  Logger
}

// handle runs the resolution step for this node. Inapplicable solvers
// delegate without touching their breaker; an open breaker and solver errors
// are routing signals, not terminal failures, so the chain stays available
// while individual backends are unhealthy.
func (h *handler) handle(ctx context.Context, page Page, challenge *Challenge) string {
	if !h.solver.CanHandle(challenge.Kind) {
		h.logger.Debugf("solver %s cannot handle kind %q", h.solver.Name(), challenge.Kind)
		return h.delegate(ctx, page, challenge)
	}

	h.logger.Infof("attempting captcha solve: solver=%s kind=%s", h.solver.Name(), challenge.Kind)

	solution, err := h.breaker.Call(func() (string, error) {
		return h.solver.Solve(ctx, page, challenge)
	})

	switch {
	case err == nil && solution != "":
		h.logger.Infof("captcha solved: solver=%s", h.solver.Name())
		return solution
	case err == nil:
		h.logger.Warnf("solver %s returned no solution", h.solver.Name())
	case errors.Is(err, ErrBreakerOpen):
		h.logger.Warnf("solver %s skipped: %v", h.solver.Name(), err)
	default:
		h.logger.Errorf("solver %s failed: %v", h.solver.Name(), err)
	}

	return h.delegate(ctx, page, challenge)
}

func (h *handler) delegate(ctx context.Context, page Page, challenge *Challenge) string {
	if h.next == nil {
		return ""
	}
	return h.next.handle(ctx, page, challenge)
}

// Chain is an ordered set of solver handlers. Registration order defines
// fallback priority: add the most reliable or cheapest backend first. A
// single Chain instance is meant to be reused across resolution calls so the
// breakers accumulate history.
type Chain struct {
	handlers []*handler
	logger   Logger
}

// NewChain creates an empty resolution chain. A nil logger disables output.
func NewChain(logger Logger) *Chain {
	return &Chain{logger: orNop(logger)}
}

// AddSolver appends a solver to the chain, wrapped in a fresh circuit
// breaker. A nil config uses DefaultBreakerConfig. Returns the chain for
// fluent assembly.
func (c *Chain) AddSolver(solver Solver, config *BreakerConfig) *Chain {
	cfg := DefaultBreakerConfig()
	if config != nil {
		cfg = *config
	}

	h := &handler{
		solver:  solver,
		breaker: NewBreaker(solver.Name(), cfg, c.logger),
		logger:  c.logger,
	}

	if n := len(c.handlers); n > 0 {
		c.handlers[n-1].next = h
	}
	c.handlers = append(c.handlers, h)

	c.logger.Infof("solver added to chain: %s (position %d)", solver.Name(), len(c.handlers))
	return c
}

// Solve walks the chain until a solver produces a solution. It returns ""
// when the chain is empty, no solver could handle the challenge, or every
// applicable solver was skipped or failed. Solver errors never escape this
// method; exhaustion is a value, not an error.
func (c *Chain) Solve(ctx context.Context, page Page, challenge *Challenge) string {
	if len(c.handlers) == 0 {
		c.logger.Errorf("no solvers in chain")
		return ""
	}

	c.logger.Infof("starting captcha resolution: kind=%s solvers=%d", challenge.Kind, len(c.handlers))

	solution := c.handlers[0].handle(ctx, page, challenge)
	if solution == "" {
		c.logger.Errorf("captcha not resolved by any solver")
	}
	return solution
}

// Status returns a breaker snapshot for every registered handler, in chain
// order.
func (c *Chain) Status() []BreakerStatus {
	statuses := make([]BreakerStatus, 0, len(c.handlers))
	for _, h := range c.handlers {
		statuses = append(statuses, h.breaker.Status())
	}
	return statuses
}
