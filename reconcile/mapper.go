package reconcile

import (
	"fmt"
	"strings"
)

// IdempotencyKey identifies an issue across deliveries: "{installationID}:{issueNodeID}".
func IdempotencyKey(installationID int64, issueNodeID string) string {
	return fmt.Sprintf("%d:%s", installationID, issueNodeID)
}

func (e IssueEvent) Key() string {
	var installationID int64
	if e.Installation != nil {
		installationID = e.Installation.ID
	}
	var nodeID string
	if e.Issue != nil {
		nodeID = e.Issue.NodeID
	}
	return IdempotencyKey(installationID, nodeID)
}

// MappedEntity is the backend's GitHubIssue input.
type MappedEntity struct {
	ID          int64        `json:"id"`
	NodeID      string       `json:"nodeId"`
	URL         string       `json:"url"`
	Repository  EntityRef    `json:"repository"`
	Author      EntityAuthor `json:"author"`
	Assignees   []EntityRef  `json:"assignees"`
	Body        string       `json:"body"`
	State       string       `json:"state"`
	Number      int64        `json:"number"`
	Title       string       `json:"title"`
	UpdatedAt   string       `json:"updatedAt"`
	PublishedAt string       `json:"publishedAt"`
}

type EntityRef struct {
	ID     int64  `json:"id"`
	NodeID string `json:"nodeId"`
}

type EntityAuthor struct {
	Login string `json:"login"`
}

// MapIssue projects a validated event onto the backend entity. Timestamps pass through untouched.
func MapIssue(event IssueEvent) MappedEntity {
	issue := Issue{}
	if event.Issue != nil {
		issue = *event.Issue
	}
	repository := Repository{}
	if event.Repository != nil {
		repository = *event.Repository
	}

	assignees := make([]EntityRef, 0, len(issue.Assignees))
	for _, assignee := range issue.Assignees {
		assignees = append(assignees, EntityRef{ID: assignee.ID, NodeID: assignee.NodeID})
	}

	return MappedEntity{
		ID:          issue.ID,
		NodeID:      issue.NodeID,
		URL:         issue.URL,
		Repository:  EntityRef{ID: repository.ID, NodeID: repository.NodeID},
		Author:      EntityAuthor{Login: issue.User.Login},
		Assignees:   assignees,
		Body:        issue.Body,
		State:       strings.ToUpper(issue.State),
		Number:      issue.Number,
		Title:       issue.Title,
		UpdatedAt:   issue.UpdatedAt,
		PublishedAt: issue.CreatedAt,
	}
}
