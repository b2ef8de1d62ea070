package reconcile

// ConnState is the state of the push stream connection.
type ConnState int32

const (
	Disconnected ConnState = iota
	Connecting
	Connected
)

// String returns "disconnected", "connecting", or "connected".
func (s ConnState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s ConnState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
//
// Unsupported text is treated as Disconnected.
func (s *ConnState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "connecting":
		*s = Connecting
	case "connected":
		*s = Connected
	default:
		*s = Disconnected
	}
	return nil
}
