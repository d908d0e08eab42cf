package commands

import (
	"context"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-cms-inline/internal/elements"
	"github.com/goliatone/go-cms-inline/internal/permissions"
	"github.com/goliatone/go-cms-inline/internal/validation"
)

// Result labels how an execution ended.
type Result string

const (
	ResultOK        Result = "ok"
	ResultInvalid   Result = "invalid"
	ResultDenied    Result = "denied"
	ResultNotFound  Result = "not_found"
	ResultConflict  Result = "conflict"
	ResultCancelled Result = "cancelled"
	ResultFailed    Result = "failed"
)

// Outcome describes one finished execution. PageKey and Key are set when the
// message implements Addressable.
type Outcome struct {
	Command   string
	Operation string
	PageKey   string
	Key       string
	Elapsed   time.Duration
	Result    Result
	Err       error
}

// Observer is notified after every execution, successful or not.
type Observer func(ctx context.Context, outcome Outcome)

// Recorder is the metrics surface fed by RecordTo.
type Recorder interface {
	CommandExecuted(operation, result string, elapsed time.Duration)
}

// Classify maps an execution error onto a Result.
func Classify(err error) Result {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, permissions.ErrPermissionDenied), goerrors.IsCategory(err, goerrors.CategoryAuthz):
		return ResultDenied
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ResultCancelled
	case elements.IsNotFound(err), goerrors.IsCategory(err, goerrors.CategoryNotFound):
		return ResultNotFound
	case goerrors.IsCategory(err, goerrors.CategoryConflict):
		return ResultConflict
	case errors.Is(err, validation.ErrSchemaValidation),
		goerrors.IsCategory(err, goerrors.CategoryValidation),
		goerrors.IsCategory(err, goerrors.CategoryBadInput):
		return ResultInvalid
	default:
		return ResultFailed
	}
}

// RecordTo returns an observer that forwards outcomes to rec, labelled by
// operation or, when unset, by message type.
func RecordTo(rec Recorder) Observer {
	if rec == nil {
		return nil
	}
	return func(_ context.Context, outcome Outcome) {
		label := outcome.Operation
		if label == "" {
			label = outcome.Command
		}
		rec.CommandExecuted(label, string(outcome.Result), outcome.Elapsed)
	}
}

// Observers fans an outcome out to every non-nil observer in order.
func Observers(list ...Observer) Observer {
	active := make([]Observer, 0, len(list))
	for _, observer := range list {
		if observer != nil {
			active = append(active, observer)
		}
	}
	switch len(active) {
	case 0:
		return nil
	case 1:
		return active[0]
	}
	return func(ctx context.Context, outcome Outcome) {
		for _, observer := range active {
			observer(ctx, outcome)
		}
	}
}
