package types

const (
	TypeWebsocketPing    = "ping"
	TypeWebsocketPong    = "pong"
	TypeWebsocketChat    = "chat"
	TypeWebsocketChunk   = "chunk"
	TypeWebsocketSources = "sources"
	TypeWebsocketDone    = "done"
	TypeWebsocketError   = "error"
)

type WebsocketRequest struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type WebSocketChatPayload struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
}

type WebSocketResponse struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type WebSocketChunkPayload struct {
	Content string `json:"content"`
}

type WebSocketSourcesPayload struct {
	Sources   []Source `json:"sources"`
	SessionID string   `json:"session_id"`
}
