package ws

const (
	// client - server
	MsgTap   = "tap"
	MsgState = "state"
	MsgSync  = "sync"
	MsgClaim = "claim"

	// server - client
	MsgReady = "ready"
	MsgError = "error"
)
