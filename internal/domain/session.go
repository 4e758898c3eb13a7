package domain

// Credentials are the connection parameters handed to the transport.
type Credentials struct {
	User     string
	Password string
}

// Session is one authenticated connection lifetime. It is owned by the
// shell and passed explicitly to every transport call.
type Session struct {
	ID   string
	User string
	// MOTD is the server's message of the day, if any.
	MOTD string
}

// Valid reports whether the session has been established.
func (s Session) Valid() bool {
	return s.ID != ""
}

// Result is the decoded response of a remote command.
type Result struct {
	Command string
	Value   any
}
