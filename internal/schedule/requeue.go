// Package schedule runs the periodic maintenance jobs around the export.
package schedule

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/timmy/qbexport/internal/logger"
	"github.com/timmy/qbexport/internal/soap"
)

// Requeuer periodically flips failed mappings back into the export queue
// so transient QuickBooks errors heal without operator action.
type Requeuer struct {
	cron *cron.Cron
	svc  *soap.Service
}

// NewRequeuer schedules the requeue job with the given cron expression.
func NewRequeuer(spec string, svc *soap.Service) (*Requeuer, error) {
	r := &Requeuer{
		cron: cron.New(),
		svc:  svc,
	}
	if _, err := r.cron.AddFunc(spec, r.run); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Requeuer) run() {
	ctx := logger.WithField(context.Background(), logger.FieldComponent, "schedule")
	n, err := r.svc.RequeueFailed(ctx)
	if err != nil {
		logger.CtxError(ctx, "scheduled requeue failed: %v", err)
		return
	}
	logger.CtxInfo(ctx, "scheduled requeue flipped %d rows", n)
}

// Start launches the scheduler in its own goroutine.
func (r *Requeuer) Start() {
	r.cron.Start()
}

// Stop halts the scheduler and waits for a running job to finish.
func (r *Requeuer) Stop() {
	<-r.cron.Stop().Done()
}
