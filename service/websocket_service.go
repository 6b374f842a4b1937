package service

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/finqa-labs/finqa-be/types"
)

// WebSocketService streams RAG answers over a websocket connection.
// Each "chat" request yields a sequence of "chunk" frames followed by a
// "sources" frame and a "done" frame.
type WebSocketService struct {
	rag      *RAGService
	sessions *SessionService
	upgrader websocket.Upgrader
}

func NewWebSocketService(rag *RAGService, sessions *SessionService) *WebSocketService {
	return &WebSocketService{
		rag:      rag,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins (adjust for production)
			},
		},
	}
}

func (s *WebSocketService) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(512 * 1024) // 512KB max message size
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	for {
		_, p, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var req types.WebsocketRequest
		if err := json.Unmarshal(p, &req); err != nil {
			log.Println("Unmarshal error:", err)
			s.writeError(conn, "invalid message")
			continue
		}

		switch req.Type {
		case types.TypeWebsocketPing:
			if err := conn.WriteJSON(types.WebSocketResponse{Type: types.TypeWebsocketPong}); err != nil {
				log.Println("Write error:", err)
			}
		case types.TypeWebsocketChat:
			s.handleChat(ctx, conn, req.Payload)
		default:
			log.Println("Invalid message type:", req.Type)
			s.writeError(conn, "unknown message type")
		}
	}
}

func (s *WebSocketService) handleChat(ctx context.Context, conn *websocket.Conn, rawPayload interface{}) {
	payloadBytes, err := json.Marshal(rawPayload)
	if err != nil {
		s.writeError(conn, "invalid payload")
		return
	}
	var payload types.WebSocketChatPayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil || payload.Question == "" {
		s.writeError(conn, "invalid chat payload")
		return
	}

	sessionID := payload.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	history := s.sessions.History(sessionID)

	answer, sources, err := s.rag.StreamAnswer(ctx, payload.Question, history, func(chunk string) {
		msg := types.WebSocketResponse{
			Type:    types.TypeWebsocketChunk,
			Payload: types.WebSocketChunkPayload{Content: chunk},
		}
		if err := conn.WriteJSON(msg); err != nil {
			log.Println("Write error:", err)
		}
	})
	if err != nil {
		log.Printf("Error streaming answer for session %s: %v", sessionID, err)
		s.writeError(conn, "failed to generate answer")
		return
	}

	s.sessions.AppendExchange(sessionID, payload.Question, answer)

	if err := conn.WriteJSON(types.WebSocketResponse{
		Type: types.TypeWebsocketSources,
		Payload: types.WebSocketSourcesPayload{
			Sources:   sources,
			SessionID: sessionID,
		},
	}); err != nil {
		log.Println("Write error:", err)
		return
	}
	if err := conn.WriteJSON(types.WebSocketResponse{Type: types.TypeWebsocketDone}); err != nil {
		log.Println("Write error:", err)
	}
}

func (s *WebSocketService) writeError(conn *websocket.Conn, message string) {
	res := types.WebSocketResponse{
		Type:    types.TypeWebsocketError,
		Payload: map[string]string{"message": message},
	}
	if err := conn.WriteJSON(res); err != nil {
		log.Println("Write error:", err)
	}
}
