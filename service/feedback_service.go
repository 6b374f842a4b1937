package service

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/finqa-labs/finqa-be/types"
)

// FeedbackService persists answer-quality feedback as an append-only
// JSON-lines file and recomputes statistics from it on every read.
type FeedbackService struct {
	mu   sync.Mutex
	path string
}

func NewFeedbackService(path string) *FeedbackService {
	return &FeedbackService{path: path}
}

// Save validates and appends one feedback entry. Entries are never mutated
// or deleted.
func (s *FeedbackService) Save(req types.FeedbackRequest) error {
	if req.Rating < 1 || req.Rating > 5 {
		return types.ErrInvalidRating
	}

	entry := types.FeedbackEntry{
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Question:     req.Question,
		Answer:       req.Answer,
		Rating:       req.Rating,
		FeedbackText: req.FeedbackText,
		SessionID:    req.SessionID,
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal feedback entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open feedback file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write feedback entry: %w", err)
	}
	return nil
}

// Stats recomputes aggregate feedback metrics from the log.
func (s *FeedbackService) Stats() (*types.FeedbackStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := &types.FeedbackStats{
		RatingDistribution: map[string]int{},
	}
	for i := 1; i <= 5; i++ {
		stats.RatingDistribution[strconv.Itoa(i)] = 0
	}

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return nil, fmt.Errorf("failed to open feedback file: %w", err)
	}
	defer f.Close()

	ratingSum := 0
	rated := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry types.FeedbackEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("corrupt feedback entry: %w", err)
		}
		stats.TotalFeedback++
		if entry.Rating >= 1 && entry.Rating <= 5 {
			stats.RatingDistribution[strconv.Itoa(entry.Rating)]++
			ratingSum += entry.Rating
			rated++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read feedback file: %w", err)
	}

	if rated > 0 {
		stats.AverageRating = float64(ratingSum) / float64(rated)
	}
	return stats, nil
}
