package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/charlesng35/fenceadmin/internal/monitoring"
)

// SessionObserver reports whether an administrator is signed in.
type SessionObserver interface {
	Authenticated() bool
}

// AdminSession is degraded while no administrator is signed in, since every view
// request would be rejected by the platform.
func AdminSession(sessions SessionObserver) monitoring.Check {
	return monitoring.NewCheck("admin_session", func(context.Context) monitoring.ProbeResult {
		if sessions == nil || !sessions.Authenticated() {
			return monitoring.ProbeResult{Status: monitoring.StatusDegraded, Details: "no administrator signed in"}
		}
		return monitoring.ProbeResult{Status: monitoring.StatusUp}
	})
}

// SubscriberCounter exposes realtime subscriber counts per stream.
type SubscriberCounter interface {
	Subscribers(stream string) int
}

// Realtime reports the subscribers of each published stream. It never fails.
func Realtime(hub SubscriberCounter, streams []string) monitoring.Check {
	return monitoring.NewCheck("realtime", func(context.Context) monitoring.ProbeResult {
		if hub == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusDegraded, Details: "realtime hub unavailable"}
		}
		parts := make([]string, 0, len(streams))
		for _, stream := range streams {
			parts = append(parts, fmt.Sprintf("%s=%d", stream, hub.Subscribers(stream)))
		}
		return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: strings.Join(parts, " ")}
	})
}
