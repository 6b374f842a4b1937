package service

import (
	"sync"

	"github.com/finqa-labs/finqa-be/types"
)

// maxSessionMessages caps stored history at 20 entries (10 exchanges);
// the oldest entries are dropped first.
const maxSessionMessages = 20

type session struct {
	mu       sync.Mutex
	messages []types.Message
}

// SessionService holds per-session conversation history in memory for the
// lifetime of the process. Mutation is serialized per session, so
// concurrent chats on the same session cannot lose turns.
type SessionService struct {
	mu       sync.Mutex
	sessions map[string]*session
}

func NewSessionService() *SessionService {
	return &SessionService{
		sessions: make(map[string]*session),
	}
}

func (s *SessionService) get(sessionID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &session{}
		s.sessions[sessionID] = sess
	}
	return sess
}

// History returns a copy of the session's messages, oldest first. An
// unknown session yields an empty history.
func (s *SessionService) History(sessionID string) []types.Message {
	sess := s.get(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	history := make([]types.Message, len(sess.messages))
	copy(history, sess.messages)
	return history
}

// AppendExchange records one question/answer pair in order and trims the
// history to the newest maxSessionMessages entries.
func (s *SessionService) AppendExchange(sessionID, question, answer string) {
	sess := s.get(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.messages = append(sess.messages,
		types.Message{Role: types.RoleUser, Content: question},
		types.Message{Role: types.RoleAssistant, Content: answer},
	)
	if len(sess.messages) > maxSessionMessages {
		sess.messages = sess.messages[len(sess.messages)-maxSessionMessages:]
	}
}
