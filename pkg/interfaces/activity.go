package interfaces

import (
	"context"

	usertypes "github.com/goliatone/go-users/pkg/types"
)

// ActivityRecord mirrors the go-users activity record so editing events can be
// written to the same audit trail as the rest of the admin dashboard.
type ActivityRecord = usertypes.ActivityRecord

// ActivitySink persists activity records.
type ActivitySink interface {
	Log(ctx context.Context, record ActivityRecord) error
}
