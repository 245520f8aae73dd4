// Package planner turns the run's task pool into an execution plan. It
// ranks tasks by score, blocks anything above the risk ceiling, and
// caps the number of changes admitted per day.
package planner

import (
	"sort"

	"go.uber.org/zap"

	"github.com/lumera/seopilot/internal/seo"
)

// Planner holds the admission ceilings for one deployment.
type Planner struct {
	maxRisk  int
	maxTasks int
	clock    seo.Clock
	logger   *zap.Logger
}

// New creates a planner with the given risk ceiling and daily change cap.
func New(maxRisk, maxTasks int, clock seo.Clock, logger *zap.Logger) *Planner {
	return &Planner{maxRisk: maxRisk, maxTasks: maxTasks, clock: clock, logger: logger}
}

// Plan ranks the pool by descending score and partitions it. Tasks whose
// risk exceeds the ceiling are blocked and do not count against the cap.
// When an admissible task is found after the cap is already full, the
// plan is flagged for manual review and the walk stops; tasks after that
// point appear in neither list. The ordering is stable, so equal scores
// keep their pool order.
func (p *Planner) Plan(pool []*seo.Task) *seo.Plan {
	ranked := make([]*seo.Task, len(pool))
	copy(ranked, pool)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score() > ranked[j].Score()
	})

	plan := &seo.Plan{
		Tasks:        make([]*seo.Task, 0, p.maxTasks),
		BlockedTasks: make([]*seo.Task, 0),
		MaxTasks:     p.maxTasks,
		Timestamp:    p.clock.Now(),
	}

	for _, task := range ranked {
		if task.Risk > p.maxRisk {
			p.logger.Info("task blocked by risk ceiling",
				zap.String("task_id", task.ID),
				zap.Int("risk", task.Risk),
				zap.Int("max_risk", p.maxRisk))
			plan.BlockedTasks = append(plan.BlockedTasks, task)
			continue
		}
		if len(plan.Tasks) >= p.maxTasks {
			p.logger.Warn("daily change cap reached, flagging run for manual review",
				zap.Int("max_tasks", p.maxTasks),
				zap.String("next_task_id", task.ID))
			plan.RequireManualReview = true
			break
		}
		plan.Tasks = append(plan.Tasks, task)
	}

	p.logger.Info("execution plan built",
		zap.Int("pool", len(pool)),
		zap.Int("admitted", len(plan.Tasks)),
		zap.Int("blocked", len(plan.BlockedTasks)),
		zap.Bool("manual_review", plan.RequireManualReview))
	return plan
}
