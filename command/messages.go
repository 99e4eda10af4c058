package command

import (
	"strings"

	"github.com/markawm/acme-github-issues/reconcile"
)

const TypeReconcileIssue = "issues.command.reconcile"

type ReconcileIssueMessage struct {
	DeliveryID string
	Event      reconcile.IssueEvent
}

func (ReconcileIssueMessage) Type() string { return TypeReconcileIssue }

func (m ReconcileIssueMessage) Validate() error {
	if m.Event.Installation == nil {
		return commandValidationError("event.installation", "installation is required")
	}
	if m.Event.Issue == nil || strings.TrimSpace(m.Event.Issue.NodeID) == "" {
		return commandValidationError("event.issue.node_id", "issue node id is required")
	}
	return commandWrapValidation(m.Event.Validate(), "command: invalid reconcile message")
}
