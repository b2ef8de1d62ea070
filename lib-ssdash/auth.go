package ssdash

const (
	// AuthPublic means the client has no session.
	// The checker server replies only public fields on this level.
	AuthPublic AuthLevel = iota

	// AuthAuthenticated means the client has a valid session.
	// The checker server replies every field, and accepts mutating requests.
	AuthAuthenticated
)

// AuthLevel is the authorization level of the client session.
type AuthLevel int8

// ParseAuthLevel parses a string as AuthLevel.
//
// If passed unsupported string, it returns AuthPublic.
func ParseAuthLevel(raw string) AuthLevel {
	if raw == "authenticated" {
		return AuthAuthenticated
	}
	return AuthPublic
}

// String returns "public" or "authenticated".
func (l AuthLevel) String() string {
	if l == AuthAuthenticated {
		return "authenticated"
	}
	return "public"
}

// MarshalText implements encoding.TextMarshaler.
func (l AuthLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
//
// This function always returns nil.
func (l *AuthLevel) UnmarshalText(text []byte) error {
	*l = ParseAuthLevel(string(text))
	return nil
}
