package notify

import (
	"context"

	"github.com/goliatone/go-cms-inline/pkg/interfaces"
)

// Multi delivers each notification to every non-nil notifier in order.
func Multi(notifiers ...interfaces.Notifier) interfaces.Notifier {
	list := make([]interfaces.Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			list = append(list, n)
		}
	}
	return interfaces.NotifierFunc(func(ctx context.Context, n interfaces.Notification) {
		for _, target := range list {
			target.Notify(ctx, n)
		}
	})
}
