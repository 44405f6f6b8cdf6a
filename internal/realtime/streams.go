package realtime

// Named realtime streams, one per console view.
const (
	StreamSessions  = "sessions"
	StreamUsers     = "users"
	StreamDevices   = "devices"
	StreamLocations = "locations"
	StreamCompanies = "companies"
)

// Stream events.
const (
	EventSnapshot = "snapshot"
	EventPong     = "pong"
)

// ViewStreams lists every stream the console publishes.
var ViewStreams = []string{StreamSessions, StreamUsers, StreamDevices, StreamLocations, StreamCompanies}
