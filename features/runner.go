package features

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xraph/anvil/adapter"
	"github.com/xraph/anvil/internal/logger"
)

// Runner executes probe groups against adapters.
type Runner struct {
	logger logger.Logger
}

// NewRunner creates a runner. A nil logger discards output.
func NewRunner(l logger.Logger) *Runner {
	if l == nil {
		l = logger.NewNoopLogger()
	}
	return &Runner{logger: l.Named("features")}
}

// Run produces one table per group. Every probe runs against a fresh adapter
// from each factory. Cancelling ctx stops the run between cells and returns
// the tables finished so far together with ctx.Err().
func (r *Runner) Run(ctx context.Context, groups []Group, adapters []adapter.Named) ([]*Table, error) {
	names := make([]string, len(adapters))
	for i, a := range adapters {
		names[i] = a.Name
	}

	start := time.Now()
	tables := make([]*Table, 0, len(groups))

	for _, g := range sortedGroups(groups) {
		table := &Table{
			ID:          g.ID,
			Name:        g.DisplayName(),
			Description: NormalizeDescription(g.Description),
			Adapters:    names,
		}

		for _, p := range sortedProbes(g.Probes) {
			feature := Feature{
				ID:          p.ID,
				Name:        p.DisplayName(),
				Description: NormalizeDescription(p.Description),
				Cells:       make([]Cell, 0, len(adapters)),
			}

			for _, a := range adapters {
				if err := ctx.Err(); err != nil {
					return tables, err
				}
				feature.Cells = append(feature.Cells, r.cell(g, p, a))
			}
			table.Features = append(table.Features, feature)
		}

		counts := table.Counts()
		r.logger.Info("group finished",
			logger.String("group", table.ID),
			logger.Int("success", counts.Success),
			logger.Int("failure", counts.Failure),
			logger.Int("concern", counts.Concern),
		)
		tables = append(tables, table)
	}

	total := Total(tables)
	r.logger.Info("probes finished",
		logger.Int("groups", len(tables)),
		logger.Int("success", total.Success),
		logger.Int("failure", total.Failure),
		logger.Int("concern", total.Concern),
		logger.Duration("elapsed", time.Since(start)),
	)

	return tables, nil
}

func (r *Runner) cell(g Group, p Probe, named adapter.Named) Cell {
	sc, special := specialCaseFor(g, p, named.Name)
	if special && sc.Skip {
		r.logger.Debug("probe skipped",
			logger.String("probe", p.ID),
			logger.String("adapter", named.Name),
		)
		return Cell{
			Adapter: named.Name,
			State:   Concern,
			Text:    TextSeeComment,
			Comment: sc.Comment,
		}
	}

	cell := Cell{Adapter: named.Name}
	if special {
		cell.Comment = sc.Comment
	}

	if err := runProbe(p, named); err != nil {
		cell.State = Failure
		cell.Text = TextFailed
		cell.Err = err
		r.logger.Debug("probe failed",
			logger.String("probe", p.ID),
			logger.String("adapter", named.Name),
			logger.Error(err),
		)
		return cell
	}

	cell.State = Success
	cell.Text = TextSupported
	return cell
}

func runProbe(p Probe, named adapter.Named) (err error) {
	if p.Run == nil {
		return fmt.Errorf("probe %s has no body", p.ID)
	}
	if named.Factory == nil {
		return fmt.Errorf("adapter %s has no factory", named.Name)
	}

	a := named.Factory()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if c, ok := a.(io.Closer); ok {
			if cerr := c.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close adapter: %w", cerr)
			}
		}
	}()

	return p.Run(a)
}
