package ws

// Envelope is the frame shape in both directions: {"t": type, "d": data}.
type Envelope struct {
	T string `json:"t" msgpack:"t"`
	D any    `json:"d,omitempty" msgpack:"d,omitempty"`
}

// server → client
type ReadyPayload struct {
	PlayerID int64  `json:"player_id"`
	Encoding string `json:"encoding"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}
