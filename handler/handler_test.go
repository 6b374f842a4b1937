package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finqa-labs/finqa-be/service"
	"github.com/finqa-labs/finqa-be/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubIndex struct {
	ready       bool
	documents   []types.DocumentInfo
	chunks      []types.DocumentChunk
	err         error
	deletedDocs []string
	lastDocID   string
	lastPage    int
	lastLimit   int
}

func (s *stubIndex) Init(ctx context.Context) error { return nil }
func (s *stubIndex) Ready() bool                    { return s.ready }
func (s *stubIndex) Insert(ctx context.Context, chunks []types.DocumentChunk, documentID string) error {
	return s.err
}
func (s *stubIndex) Search(ctx context.Context, query string, k int) ([]types.ScoredChunk, error) {
	return nil, s.err
}
func (s *stubIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	if s.err != nil {
		return s.err
	}
	s.deletedDocs = append(s.deletedDocs, documentID)
	return nil
}
func (s *stubIndex) ListChunks(ctx context.Context, documentID string, page int, limit int) ([]types.DocumentChunk, error) {
	s.lastDocID, s.lastPage, s.lastLimit = documentID, page, limit
	return s.chunks, s.err
}
func (s *stubIndex) ListDocuments(ctx context.Context) ([]types.DocumentInfo, error) {
	return s.documents, s.err
}

type stubUploader struct {
	result *service.UploadResult
	err    error
}

func (s *stubUploader) UploadPDF(ctx context.Context, file *multipart.FileHeader) (*service.UploadResult, error) {
	return s.result, s.err
}

type stubAnswerer struct {
	result      *types.ChatResult
	err         error
	lastHistory []types.Message
}

func (s *stubAnswerer) GenerateAnswer(ctx context.Context, question string, history []types.Message) (*types.ChatResult, error) {
	s.lastHistory = history
	return s.result, s.err
}

type stubFeedbackStore struct {
	saveErr error
	stats   *types.FeedbackStats
	saved   []types.FeedbackRequest
}

func (s *stubFeedbackStore) Save(req types.FeedbackRequest) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, req)
	return nil
}
func (s *stubFeedbackStore) Stats() (*types.FeedbackStats, error) { return s.stats, nil }

func multipartBody(t *testing.T, fieldName, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(fieldName, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestHandleUploadSuccess(t *testing.T) {
	uploader := &stubUploader{result: &service.UploadResult{
		DocumentID:  "doc-1",
		Filename:    "report.pdf",
		ChunksCount: 7,
	}}
	router := gin.New()
	router.POST("/upload", NewUploadHandler(uploader).HandleUpload)

	body, contentType := multipartBody(t, "file", "report.pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp types.UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "doc-1", resp.DocumentID)
	assert.Equal(t, "report.pdf", resp.Filename)
	assert.Equal(t, 7, resp.ChunksCount)
	assert.GreaterOrEqual(t, resp.ProcessingTime, 0.0)
}

func TestHandleUploadMissingFile(t *testing.T) {
	router := gin.New()
	router.POST("/upload", NewUploadHandler(&stubUploader{}).HandleUpload)

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(""))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleUploadErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"wrong file type", types.ErrInvalidFileType, http.StatusBadRequest},
		{"too large", types.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{"extraction failed", types.ErrExtraction, http.StatusUnprocessableEntity},
		{"no content", types.ErrNoContent, http.StatusUnprocessableEntity},
		{"unexpected", errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.POST("/upload", NewUploadHandler(&stubUploader{err: tt.err}).HandleUpload)

			body, contentType := multipartBody(t, "file", "report.pdf", []byte("x"))
			req := httptest.NewRequest(http.MethodPost, "/upload", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			// Unknown errors never leak their message.
			if tt.wantStatus == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), "disk full")
			}
		})
	}
}

func chatRouter(answerer Answerer, sessions *service.SessionService) *gin.Engine {
	router := gin.New()
	router.POST("/chat", NewChatHandler(answerer, sessions).HandleChat)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleChatAssignsSessionID(t *testing.T) {
	answerer := &stubAnswerer{result: &types.ChatResult{Answer: "42"}}
	router := chatRouter(answerer, service.NewSessionService())

	w := postJSON(t, router, "/chat", types.ChatRequest{Question: "what?"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp types.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "42", resp.Answer)
	assert.NotEmpty(t, resp.SessionID)
}

func TestHandleChatUsesServerSideHistory(t *testing.T) {
	answerer := &stubAnswerer{result: &types.ChatResult{Answer: "a2"}}
	sessions := service.NewSessionService()
	sessions.AppendExchange("s1", "earlier q", "earlier a")
	router := chatRouter(answerer, sessions)

	w := postJSON(t, router, "/chat", types.ChatRequest{
		Question:  "follow-up",
		SessionID: "s1",
		// A client transcript must not override what the server already has.
		ChatHistory: []types.Message{{Role: types.RoleUser, Content: "forged"}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, answerer.lastHistory, 2)
	assert.Equal(t, "earlier q", answerer.lastHistory[0].Content)

	// The new exchange was recorded.
	assert.Len(t, sessions.History("s1"), 4)
}

func TestHandleChatSeedsUnknownSessionFromClientHistory(t *testing.T) {
	answerer := &stubAnswerer{result: &types.ChatResult{Answer: "a"}}
	router := chatRouter(answerer, service.NewSessionService())

	w := postJSON(t, router, "/chat", types.ChatRequest{
		Question:    "q",
		SessionID:   "fresh",
		ChatHistory: []types.Message{{Role: types.RoleUser, Content: "imported"}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, answerer.lastHistory, 1)
	assert.Equal(t, "imported", answerer.lastHistory[0].Content)
}

func TestHandleChatMissingQuestion(t *testing.T) {
	router := chatRouter(&stubAnswerer{}, service.NewSessionService())

	w := postJSON(t, router, "/chat", types.ChatRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleChatGenerationErrors(t *testing.T) {
	for _, err := range []error{types.ErrGeneration, types.ErrGenerationTimeout, types.ErrIndexNotInitialized} {
		router := chatRouter(&stubAnswerer{err: err}, service.NewSessionService())
		w := postJSON(t, router, "/chat", types.ChatRequest{Question: "q"})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	}
}

func TestHandleSubmitFeedback(t *testing.T) {
	store := &stubFeedbackStore{}
	router := gin.New()
	router.POST("/feedback", NewFeedbackHandler(store).HandleSubmitFeedback)

	w := postJSON(t, router, "/feedback", types.FeedbackRequest{
		Question: "q", Answer: "a", Rating: 4,
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, store.saved, 1)
	assert.Equal(t, 4, store.saved[0].Rating)
}

func TestHandleSubmitFeedbackInvalidRating(t *testing.T) {
	router := gin.New()
	router.POST("/feedback", NewFeedbackHandler(&stubFeedbackStore{saveErr: types.ErrInvalidRating}).HandleSubmitFeedback)

	w := postJSON(t, router, "/feedback", types.FeedbackRequest{Question: "q", Answer: "a", Rating: 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleFeedbackStats(t *testing.T) {
	store := &stubFeedbackStore{stats: &types.FeedbackStats{
		TotalFeedback:      5,
		AverageRating:      4.4,
		RatingDistribution: map[string]int{"1": 0, "2": 0, "3": 1, "4": 1, "5": 3},
	}}
	router := gin.New()
	router.GET("/feedback-stats", NewFeedbackHandler(store).HandleFeedbackStats)

	req := httptest.NewRequest(http.MethodGet, "/feedback-stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var stats types.FeedbackStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 5, stats.TotalFeedback)
	assert.InDelta(t, 4.4, stats.AverageRating, 1e-9)
}

func documentRouter(index *stubIndex) *gin.Engine {
	h := NewDocumentHandler(index)
	router := gin.New()
	router.GET("/documents", h.HandleListDocuments)
	router.GET("/chunks", h.HandleListChunks)
	router.DELETE("/documents/:id", h.HandleDeleteDocument)
	return router
}

func TestHandleListDocuments(t *testing.T) {
	index := &stubIndex{documents: []types.DocumentInfo{
		{ID: "doc-1", Filename: "a.pdf", ChunksCount: 3, Status: "processed"},
	}}
	router := documentRouter(index)

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp types.DocumentsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Documents, 1)
	assert.Equal(t, "doc-1", resp.Documents[0].ID)
}

func TestHandleListDocumentsEmpty(t *testing.T) {
	router := documentRouter(&stubIndex{})

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"documents":[]`)
}

func TestHandleListChunksQueryParams(t *testing.T) {
	index := &stubIndex{chunks: []types.DocumentChunk{{ID: "c1"}}}
	router := documentRouter(index)

	req := httptest.NewRequest(http.MethodGet, "/chunks?document_id=doc-1&page=2&limit=10", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "doc-1", index.lastDocID)
	assert.Equal(t, 2, index.lastPage)
	assert.Equal(t, 10, index.lastLimit)

	var resp types.ChunksResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.TotalCount)
}

func TestHandleListChunksDefaultsAndValidation(t *testing.T) {
	index := &stubIndex{}
	router := documentRouter(index)

	req := httptest.NewRequest(http.MethodGet, "/chunks", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultChunkLimit, index.lastLimit)
	assert.Equal(t, 0, index.lastPage)

	for _, query := range []string{"page=0", "page=abc", "limit=0", "limit=-5", "limit=x"} {
		req := httptest.NewRequest(http.MethodGet, "/chunks?"+query, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}
}

func TestHandleDeleteDocument(t *testing.T) {
	index := &stubIndex{}
	router := documentRouter(index)

	req := httptest.NewRequest(http.MethodDelete, "/documents/doc-7", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"doc-7"}, index.deletedDocs)
	assert.Contains(t, w.Body.String(), "Document doc-7 deleted successfully")
}

func TestHandleDeleteDocumentIndexNotReady(t *testing.T) {
	router := documentRouter(&stubIndex{err: types.ErrIndexNotInitialized})

	req := httptest.NewRequest(http.MethodDelete, "/documents/doc-7", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandleHealth(t *testing.T) {
	index := &stubIndex{}
	router := gin.New()
	router.GET("/health", NewHealthHandler(index).HandleHealth)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	index.ready = true
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
	}{
		{types.ErrInvalidFileType, http.StatusBadRequest},
		{types.ErrInvalidRating, http.StatusBadRequest},
		{types.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{types.ErrExtraction, http.StatusUnprocessableEntity},
		{types.ErrNoContent, http.StatusUnprocessableEntity},
		{types.ErrGenerationTimeout, http.StatusInternalServerError},
		{types.ErrGeneration, http.StatusInternalServerError},
		{types.ErrIndexNotInitialized, http.StatusInternalServerError},
		{errors.New("anything else"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		status, msg := statusForError(tt.err)
		assert.Equal(t, tt.wantStatus, status)
		assert.NotEmpty(t, msg)
	}
}
