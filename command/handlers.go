package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/markawm/acme-github-issues/reconcile"
)

type Reconciler interface {
	Reconcile(ctx context.Context, event reconcile.IssueEvent) (reconcile.Outcome, error)
}

// ReconcileIssueCommand runs the reconciliation and stores the Outcome in the
// context's result collector, when one is present.
type ReconcileIssueCommand struct {
	reconciler Reconciler
}

func NewReconcileIssueCommand(reconciler Reconciler) *ReconcileIssueCommand {
	return &ReconcileIssueCommand{reconciler: reconciler}
}

func (c *ReconcileIssueCommand) Execute(ctx context.Context, msg ReconcileIssueMessage) error {
	if c == nil || c.reconciler == nil {
		return commandDependencyError("command: reconciler is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	out, err := c.reconciler.Reconcile(ctx, msg.Event)
	storeResult(ctx, out)
	return err
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}

var _ gocmd.Commander[ReconcileIssueMessage] = (*ReconcileIssueCommand)(nil)
