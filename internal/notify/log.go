package notify

import (
	"context"

	"github.com/goliatone/go-cms-inline/internal/logging"
	"github.com/goliatone/go-cms-inline/pkg/interfaces"
)

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	logger interfaces.Logger
}

func NewLogNotifier(logger interfaces.Logger) *LogNotifier {
	return &LogNotifier{logger: logging.Ensure(logger)}
}

func (l *LogNotifier) Notify(ctx context.Context, n interfaces.Notification) {
	logger := l.logger.WithContext(ctx)
	args := []any{"code", n.Code, "page_key", n.PageKey, "element_key", n.ElementKey}
	if n.Retryable {
		args = append(args, "retryable", true)
	}
	if len(n.Fields) > 0 {
		args = append(args, "fields", n.Fields)
	}
	switch n.Kind {
	case interfaces.NotificationError:
		logger.Error(n.Message, args...)
	case interfaces.NotificationValidation:
		logger.Warn(n.Message, args...)
	case interfaces.NotificationSuccess:
		logger.Info(n.Message, args...)
	default:
		logger.Debug(n.Message, args...)
	}
}
