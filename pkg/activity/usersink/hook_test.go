package usersink_test

import (
	"context"
	"errors"
	"testing"
	"time"

	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"

	"github.com/goliatone/go-cms-inline/pkg/activity"
	"github.com/goliatone/go-cms-inline/pkg/activity/usersink"
)

type auditLog struct {
	records []usertypes.ActivityRecord
	err     error
}

func (a *auditLog) Log(_ context.Context, record usertypes.ActivityRecord) error {
	a.records = append(a.records, record)
	return a.err
}

func TestPublishEventBecomesAuditRecord(t *testing.T) {
	audit := &auditLog{}
	editor := uuid.New()
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	err := usersink.Hook{Sink: audit}.Notify(context.Background(), activity.Event{
		Verb:           "publish",
		ActorID:        editor.String(),
		UserID:         " " + editor.String() + " ",
		ObjectType:     "content_element",
		ObjectID:       "home/hero_badge",
		Channel:        "cms-inline",
		DefinitionCode: "element.published",
		Recipients:     []string{"editors@example.com"},
		Metadata:       map[string]any{"page_key": "home", "element_key": "hero_badge", "revision": 4},
		OccurredAt:     at,
	})
	if err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}
	if len(audit.records) != 1 {
		t.Fatalf("expected one audit record, got %d", len(audit.records))
	}

	got := audit.records[0]
	if got.ActorID != editor || got.UserID != editor || got.TenantID != uuid.Nil {
		t.Fatalf("unexpected identities actor=%s user=%s tenant=%s", got.ActorID, got.UserID, got.TenantID)
	}
	if got.Verb != "publish" || got.ObjectID != "home/hero_badge" || got.Channel != "cms-inline" || !got.OccurredAt.Equal(at) {
		t.Fatalf("unexpected record %+v", got)
	}
	if got.Data["definition_code"] != "element.published" || got.Data["revision"] != 4 {
		t.Fatalf("expected definition code and metadata in data, got %v", got.Data)
	}
	if recipients, _ := got.Data["recipients"].([]string); len(recipients) != 1 {
		t.Fatalf("expected recipients in data, got %v", got.Data["recipients"])
	}
}

func TestHookSkipsAndPropagates(t *testing.T) {
	sinkErr := errors.New("audit store offline")
	cases := []struct {
		name    string
		hook    func(*auditLog) usersink.Hook
		event   activity.Event
		records int
		err     error
	}{
		{"no sink", func(*auditLog) usersink.Hook { return usersink.Hook{} }, activity.Event{Verb: "publish"}, 0, nil},
		{"blank verb", func(a *auditLog) usersink.Hook { return usersink.Hook{Sink: a} }, activity.Event{Verb: "  "}, 0, nil},
		{"bad actor id", func(a *auditLog) usersink.Hook { return usersink.Hook{Sink: a} }, activity.Event{Verb: "autosave", ActorID: "editor-7"}, 1, nil},
		{"sink error", func(a *auditLog) usersink.Hook { a.err = sinkErr; return usersink.Hook{Sink: a} }, activity.Event{Verb: "denied"}, 1, sinkErr},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			audit := &auditLog{}
			err := tc.hook(audit).Notify(context.Background(), tc.event)
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected error %v, got %v", tc.err, err)
			}
			if len(audit.records) != tc.records {
				t.Fatalf("expected %d records, got %d", tc.records, len(audit.records))
			}
			if tc.records == 1 && audit.records[0].ActorID != uuid.Nil && tc.event.ActorID != "" {
				t.Fatalf("expected nil actor for an unparsable id, got %s", audit.records[0].ActorID)
			}
		})
	}
}
