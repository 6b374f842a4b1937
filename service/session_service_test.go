package service

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finqa-labs/finqa-be/types"
)

func TestSessionHistoryUnknownSession(t *testing.T) {
	s := NewSessionService()
	assert.Empty(t, s.History("nope"))
}

func TestSessionAppendExchangeOrdering(t *testing.T) {
	s := NewSessionService()
	s.AppendExchange("s1", "q1", "a1")
	s.AppendExchange("s1", "q2", "a2")

	history := s.History("s1")
	require.Len(t, history, 4)
	assert.Equal(t, types.Message{Role: types.RoleUser, Content: "q1"}, history[0])
	assert.Equal(t, types.Message{Role: types.RoleAssistant, Content: "a1"}, history[1])
	assert.Equal(t, types.Message{Role: types.RoleUser, Content: "q2"}, history[2])
	assert.Equal(t, types.Message{Role: types.RoleAssistant, Content: "a2"}, history[3])
}

func TestSessionHistoryCappedAtTwentyMessages(t *testing.T) {
	s := NewSessionService()
	for i := 0; i < 15; i++ {
		s.AppendExchange("s1", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	history := s.History("s1")
	require.Len(t, history, maxSessionMessages)
	// Oldest exchanges dropped first: the window starts at exchange 5.
	assert.Equal(t, "q5", history[0].Content)
	assert.Equal(t, "a14", history[len(history)-1].Content)
}

func TestSessionsAreIsolated(t *testing.T) {
	s := NewSessionService()
	s.AppendExchange("s1", "q1", "a1")
	s.AppendExchange("s2", "q2", "a2")

	assert.Len(t, s.History("s1"), 2)
	assert.Len(t, s.History("s2"), 2)
	assert.Equal(t, "q1", s.History("s1")[0].Content)
	assert.Equal(t, "q2", s.History("s2")[0].Content)
}

func TestSessionConcurrentAppends(t *testing.T) {
	s := NewSessionService()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.AppendExchange("shared", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
		}(i)
	}
	wg.Wait()

	history := s.History("shared")
	require.Len(t, history, maxSessionMessages)
	// Pairs never interleave: entries alternate user/assistant with matching
	// exchange numbers.
	for i := 0; i < len(history); i += 2 {
		assert.Equal(t, types.RoleUser, history[i].Role)
		assert.Equal(t, types.RoleAssistant, history[i+1].Role)
		assert.Equal(t, history[i].Content[1:], history[i+1].Content[1:])
	}
}

func TestSessionHistoryReturnsCopy(t *testing.T) {
	s := NewSessionService()
	s.AppendExchange("s1", "q1", "a1")

	history := s.History("s1")
	history[0].Content = "mutated"

	assert.Equal(t, "q1", s.History("s1")[0].Content)
}
