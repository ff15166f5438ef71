package captcha

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSolver is a scriptable solver for chain tests.
type fakeSolver struct {
	name     string
	kinds    map[string]bool
	solution string
	err      error
	calls    int
}

func newFakeSolver(name string, kinds ...string) *fakeSolver {
	s := &fakeSolver{name: name, kinds: make(map[string]bool)}
	for _, k := range kinds {
		s.kinds[k] = true
	}
	return s
}

func (s *fakeSolver) Name() string              { return s.name }
func (s *fakeSolver) CanHandle(kind string) bool { return s.kinds[kind] }

func (s *fakeSolver) Solve(ctx context.Context, page Page, challenge *Challenge) (string, error) {
	s.calls++
	return s.solution, s.err
}

type fakePage struct{}

func (fakePage) Evaluate(expression string, args ...interface{}) (interface{}, error) {
	return nil, nil
}
func (fakePage) URL() string { return "https://auth.afip.gob.ar/contribuyente_/login.xhtml" }

func TestChain_DispatchesByKind(t *testing.T) {
	a := newFakeSolver("a", "recaptcha_v2")
	b := newFakeSolver("b", "image")
	b.solution = "SOL"
	c := newFakeSolver("c", "hcaptcha")

	chain := NewChain(nil).
		AddSolver(a, nil).
		AddSolver(b, nil).
		AddSolver(c, nil)

	solution := chain.Solve(context.Background(), fakePage{}, &Challenge{Kind: KindImage})
	assert.Equal(t, "SOL", solution)
	assert.Equal(t, 0, a.calls)
	assert.Equal(t, 1, b.calls)
	assert.Equal(t, 0, c.calls)
}

func TestChain_FallsBackOnNoSolution(t *testing.T) {
	a := newFakeSolver("a", "image") // runs but finds nothing
	b := newFakeSolver("b", "image")
	b.solution = "SOL"

	chain := NewChain(nil).AddSolver(a, nil).AddSolver(b, nil)

	solution := chain.Solve(context.Background(), fakePage{}, &Challenge{Kind: KindImage})
	assert.Equal(t, "SOL", solution)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}

func TestChain_FallsBackOnError(t *testing.T) {
	a := newFakeSolver("a", "image")
	a.err = errors.New("api timeout")
	b := newFakeSolver("b", "image")
	b.solution = "SOL"

	chain := NewChain(nil).AddSolver(a, nil).AddSolver(b, nil)

	// A backend error must not escape Solve; the chain moves on.
	solution := chain.Solve(context.Background(), fakePage{}, &Challenge{Kind: KindImage})
	assert.Equal(t, "SOL", solution)
	assert.Equal(t, 1, a.calls)
}

func TestChain_EmptyChainReturnsEmpty(t *testing.T) {
	chain := NewChain(nil)
	assert.NotPanics(t, func() {
		solution := chain.Solve(context.Background(), fakePage{}, &Challenge{Kind: "anything"})
		assert.Empty(t, solution)
	})
}

func TestChain_NoHandlerMatches(t *testing.T) {
	a := newFakeSolver("a", "recaptcha_v2")
	b := newFakeSolver("b", "hcaptcha")

	chain := NewChain(nil).AddSolver(a, nil).AddSolver(b, nil)

	solution := chain.Solve(context.Background(), fakePage{}, &Challenge{Kind: KindFunCaptcha})
	assert.Empty(t, solution)
	assert.Equal(t, 0, a.calls)
	assert.Equal(t, 0, b.calls)
}

func TestChain_ExhaustionReturnsEmpty(t *testing.T) {
	a := newFakeSolver("a", "image")
	b := newFakeSolver("b", "image")
	b.err = errors.New("bad response")

	chain := NewChain(nil).AddSolver(a, nil).AddSolver(b, nil)

	solution := chain.Solve(context.Background(), fakePage{}, &Challenge{Kind: KindImage})
	assert.Empty(t, solution)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}

func TestChain_OpenBreakerRoutesToNext(t *testing.T) {
	cfg := &BreakerConfig{
		FailureThreshold:       5,
		MaxConsecutiveFailures: 1,
		RecoveryTimeout:        time.Minute,
		SuccessThreshold:       2,
	}

	a := newFakeSolver("a", "image")
	a.err = errors.New("service down")
	b := newFakeSolver("b", "image")
	b.solution = "SOL"

	chain := NewChain(nil).AddSolver(a, cfg).AddSolver(b, nil)
	challenge := &Challenge{Kind: KindImage}

	// First resolution opens a's breaker; b still solves.
	require.Equal(t, "SOL", chain.Solve(context.Background(), fakePage{}, challenge))
	require.Equal(t, 1, a.calls)

	// Second resolution: a's breaker is open, its solver must not run.
	assert.Equal(t, "SOL", chain.Solve(context.Background(), fakePage{}, challenge))
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 2, b.calls)

	statuses := chain.Status()
	require.Len(t, statuses, 2)
	assert.Equal(t, "open", statuses[0].State)
	assert.Equal(t, "closed", statuses[1].State)
}

func TestChain_InapplicableSolverDoesNotTouchBreaker(t *testing.T) {
	a := newFakeSolver("a", "recaptcha_v2")
	b := newFakeSolver("b", "image")
	b.solution = "42"

	chain := NewChain(nil).AddSolver(a, nil).AddSolver(b, nil)

	for i := 0; i < 10; i++ {
		chain.Solve(context.Background(), fakePage{}, &Challenge{Kind: KindImage})
	}

	// Skipping on kind must never count against a's breaker.
	statuses := chain.Status()
	assert.Equal(t, "closed", statuses[0].State)
	assert.Equal(t, 0, statuses[0].FailureCount)
}

func TestChain_StatusOrderFollowsRegistration(t *testing.T) {
	chain := NewChain(nil).
		AddSolver(newFakeSolver("capsolver", "image"), nil).
		AddSolver(newFakeSolver("2captcha", "image"), nil).
		AddSolver(newFakeSolver("anticaptcha", "image"), nil)

	statuses := chain.Status()
	require.Len(t, statuses, 3)
	assert.Equal(t, "capsolver", statuses[0].Name)
	assert.Equal(t, "2captcha", statuses[1].Name)
	assert.Equal(t, "anticaptcha", statuses[2].Name)
}
