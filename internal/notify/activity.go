package notify

import (
	"context"
	"strings"

	"github.com/goliatone/go-cms-inline/internal/identity"
	"github.com/goliatone/go-cms-inline/internal/logging"
	"github.com/goliatone/go-cms-inline/pkg/activity"
	"github.com/goliatone/go-cms-inline/pkg/interfaces"
)

const (
	ActivityChannel    = "cms-inline"
	ActivityObjectType = "content_element"
)

var verbs = map[string]string{
	"element.published":         "publish",
	"draft.saved":               "save_draft",
	"autosave.saved":            "autosave",
	"save.permission_denied":    "denied",
	"session.permission_denied": "denied",
	"save.conflict":             "conflict",
}

// ActivityNotifier records notifications on the audit trail. Successful saves
// and denials are recorded; other failures only when RecordFailures is set.
type ActivityNotifier struct {
	hook           activity.Hook
	logger         interfaces.Logger
	RecordFailures bool
}

func NewActivityNotifier(hook activity.Hook, logger interfaces.Logger) *ActivityNotifier {
	return &ActivityNotifier{hook: hook, logger: logging.Ensure(logger)}
}

func (a *ActivityNotifier) Notify(ctx context.Context, n interfaces.Notification) {
	if a.hook == nil {
		return
	}
	verb, ok := verbs[n.Code]
	if !ok {
		if !a.RecordFailures || n.Kind == interfaces.NotificationSuccess || n.Kind == interfaces.NotificationInfo {
			return
		}
		verb = "save_failed"
	}
	event := activity.Event{
		Verb:           verb,
		ObjectType:     ActivityObjectType,
		ObjectID:       identity.ElementUUID(n.PageKey, n.ElementKey).String(),
		Channel:        ActivityChannel,
		DefinitionCode: n.Code,
		Metadata: map[string]any{
			"page_key":    n.PageKey,
			"element_key": n.ElementKey,
		},
		OccurredAt: n.OccurredAt,
	}
	if n.Kind != interfaces.NotificationSuccess && strings.TrimSpace(n.Message) != "" {
		event.Metadata["message"] = n.Message
	}
	if actor, ok := activity.ActorFromContext(ctx); ok {
		event.ActorID = actor.ActorID
		event.UserID = actor.UserID
		event.TenantID = actor.TenantID
	}
	if err := a.hook.Notify(ctx, event); err != nil {
		a.logger.Warn("notify.activity.failed", "code", n.Code, "error", err)
	}
}
