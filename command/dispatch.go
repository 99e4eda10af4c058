package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-command/runner"
	"github.com/markawm/acme-github-issues/adapters/gocommand"
	"github.com/markawm/acme-github-issues/reconcile"
)

// DispatchReconciler sends reconciliations through a go-command runner on a bus it
// owns, so every reconciler only ever runs its own command.
type DispatchReconciler struct {
	bus *gocommand.Bus
}

func NewDispatchReconciler(cmd *ReconcileIssueCommand, runnerOpts ...runner.Option) (*DispatchReconciler, error) {
	if cmd == nil {
		return nil, commandDependencyError("command: reconcile command is required")
	}
	bus := gocommand.NewBus()
	if err := gocommand.Subscribe[ReconcileIssueMessage](bus, cmd, runnerOpts...); err != nil {
		return nil, err
	}
	return &DispatchReconciler{bus: bus}, nil
}

func (d *DispatchReconciler) Reconcile(ctx context.Context, event reconcile.IssueEvent) (reconcile.Outcome, error) {
	collector := gocmd.NewResult[reconcile.Outcome]()
	ctx = gocmd.ContextWithResult(ctx, collector)
	err := gocommand.Send(ctx, d.bus, ReconcileIssueMessage{Event: event})
	outcome, _ := collector.Load()
	return outcome, err
}

func (d *DispatchReconciler) Close() {
	if d == nil {
		return
	}
	d.bus.Close()
}
