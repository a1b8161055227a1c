package bus

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Runner is a long-lived loop bound to one topic.
type Runner interface {
	Topic() string
	Run(ctx context.Context) error
}

// Group runs an explicit list of consumers side by side. Consumers share no
// state; each keeps its own one-at-a-time ordering.
type Group struct {
	runners []Runner
	topics  map[string]struct{}
}

func NewGroup() *Group {
	return &Group{topics: make(map[string]struct{})}
}

// Add registers r. Panics when a consumer for the same topic was already
// added, since two loops on one topic in one group would split its partitions.
func (g *Group) Add(r Runner) *Group {
	if _, exists := g.topics[r.Topic()]; exists {
		panic(fmt.Sprintf("bus: duplicate consumer for topic %q", r.Topic()))
	}

	g.topics[r.Topic()] = struct{}{}
	g.runners = append(g.runners, r)

	return g
}

func (g *Group) Len() int {
	return len(g.runners)
}

// Run starts every consumer and blocks until all have returned.
func (g *Group) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)

	for _, r := range g.runners {
		eg.Go(func() error {
			if err := r.Run(ctx); err != nil {
				return fmt.Errorf("consumer %s: %w", r.Topic(), err)
			}

			return nil
		})
	}

	return eg.Wait()
}
