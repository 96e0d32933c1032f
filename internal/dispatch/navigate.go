package dispatch

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nadzzz/fotiva/internal/message"
	"github.com/nadzzz/fotiva/internal/metrics"
)

const pushTimeout = 10 * time.Second

// navigate pushes the route to every navigation target once the
// navigation delay has elapsed. The push outlives the request.
func (d *Dispatcher) navigate(session, route string, logger *slog.Logger) {
	if len(d.targets) == 0 {
		return
	}

	payload, err := json.Marshal(message.NavigationPush{Session: session, Route: route})
	if err != nil {
		logger.Error("marshalling navigation push", "error", err)
		return
	}

	d.after(d.navDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()

		for _, target := range d.targets {
			t, ok := d.transports[target.Protocol]
			if !ok {
				logger.Warn("no transport for target protocol", "protocol", target.Protocol, "target", target.ServiceName)
				metrics.NavigationPushesTotal.WithLabelValues(target.Protocol, "no_transport").Inc()
				continue
			}
			if err := t.Send(ctx, target, payload); err != nil {
				logger.Error("failed to push navigation", "target", target.ServiceName, "error", err)
				metrics.NavigationPushesTotal.WithLabelValues(target.Protocol, "error").Inc()
				continue
			}
			metrics.NavigationPushesTotal.WithLabelValues(target.Protocol, "ok").Inc()
			logger.Info("navigation pushed", "target", target.ServiceName, "route", route)
		}
	})
}
