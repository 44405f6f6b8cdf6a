package realtime

import "github.com/charlesng35/fenceadmin/internal/listview"

// Publish streams every state change of view on the stream named after it. New
// subscribers first receive the current snapshot. The returned func stops publishing.
func Publish[T listview.Record](h *Hub, view *listview.View[T]) func() {
	stream := view.Name()
	h.Register(stream, func() any { return view.Snapshot() })
	return view.Subscribe(func(snap listview.Snapshot[T]) {
		h.Broadcast(stream, EventSnapshot, snap)
	})
}
