package service

import (
	"bufio"
	"bytes"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finqa-labs/finqa-be/types"
)

// PDFService handles PDF processing operations
type PDFService struct {
	maxChunkSize int // Maximum size of each text chunk
	overlapSize  int // Size of overlap between chunks
}

var DefaultDocumentServiceConfig = types.DocumentServiceConfig{
	MaxChunkSize: 1000,
	OverlapSize:  200,
}

// pageText is one extracted page before chunking. Metadata is only present
// when the primary extraction strategy produced the page.
type pageText struct {
	number   int
	content  string
	metadata map[string]string
}

// NewPDFService creates a new PDF service with configurable chunk sizes
func NewPDFService(config types.DocumentServiceConfig) *PDFService {
	return &PDFService{
		maxChunkSize: config.MaxChunkSize,
		overlapSize:  config.OverlapSize,
	}
}

// ProcessPDF extracts page-wise text from a PDF and splits it into
// overlapping chunks with provenance metadata. Extraction runs pdftotext
// first and falls back to tesseract OCR when no page yields usable text.
func (s *PDFService) ProcessPDF(filePath string, filename string) ([]types.DocumentChunk, error) {
	totalPages, pageMeta, err := inspectPDF(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrExtraction, err)
	}

	pages := s.extractPages(filePath, totalPages, pageMeta)
	if len(pages) == 0 {
		pages = s.extractPagesOCR(filePath, totalPages)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no extraction strategy yielded text for %s", types.ErrExtraction, filename)
	}

	uploadDate := time.Now().UTC().Format(time.RFC3339)
	var chunks []types.DocumentChunk
	for _, page := range pages {
		parts := s.splitText(page.content)
		for idx, part := range parts {
			chunks = append(chunks, types.DocumentChunk{
				ID:      uuid.New().String(),
				Content: part,
				Page:    page.number,
				Metadata: types.ChunkMetadata{
					Filename:          filename,
					Page:              page.number,
					ChunkIndex:        idx,
					TotalChunksInPage: len(parts),
					UploadDate:        uploadDate,
					Custom:            page.metadata,
				},
			})
		}
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s", types.ErrNoContent, filename)
	}
	return chunks, nil
}

// extractPages runs the primary strategy (pdftotext) over every page and
// drops pages that come back empty or whitespace-only.
func (s *PDFService) extractPages(filePath string, totalPages int, pageMeta map[int]map[string]string) []pageText {
	var pages []pageText
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		text, err := extractTextWithPdftotext(filePath, pageNum)
		if err != nil {
			log.Printf("pdftotext failed for page %d of %s: %v", pageNum, filePath, err)
			continue
		}
		text = cleanText(text)
		if text == "" {
			continue
		}
		pages = append(pages, pageText{
			number:   pageNum,
			content:  text,
			metadata: pageMeta[pageNum],
		})
	}
	return pages
}

// extractPagesOCR is the secondary strategy: render each page to an image
// and OCR it. Page-level metadata is not attached on this path.
func (s *PDFService) extractPagesOCR(filePath string, totalPages int) []pageText {
	var pages []pageText
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		text, err := extractTextWithTesseract(filePath, pageNum)
		if err != nil {
			log.Printf("tesseract failed for page %d of %s: %v", pageNum, filePath, err)
			continue
		}
		text = cleanText(text)
		if text == "" {
			continue
		}
		pages = append(pages, pageText{number: pageNum, content: text})
	}
	return pages
}

// splitText cuts text into overlapping chunks of at most maxChunkSize
// characters, preferring to break on a paragraph, then a line, then a
// space, falling back to a hard cut.
func (s *PDFService) splitText(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= s.maxChunkSize {
		return []string{text}
	}

	var parts []string
	currentPos := 0
	textLen := len(text)
	for currentPos < textLen {
		chunkEnd := currentPos + s.maxChunkSize
		if chunkEnd >= textLen {
			if part := strings.TrimSpace(text[currentPos:]); part != "" {
				parts = append(parts, part)
			}
			break
		}

		cut := findSplit(text, currentPos, chunkEnd)
		if part := strings.TrimSpace(text[currentPos:cut]); part != "" {
			parts = append(parts, part)
		}

		next := cut - s.overlapSize
		if next <= currentPos {
			next = cut
		}
		currentPos = next
	}
	return parts
}

// findSplit looks backwards from end for the best boundary after start:
// paragraph break, line break, then space. Returns end when none exists.
func findSplit(text string, start, end int) int {
	if idx := strings.LastIndex(text[start:end], "\n\n"); idx > 0 {
		return start + idx + 2
	}
	if idx := strings.LastIndex(text[start:end], "\n"); idx > 0 {
		return start + idx + 1
	}
	if idx := strings.LastIndex(text[start:end], " "); idx > 0 {
		return start + idx + 1
	}
	return end
}

var (
	pagesRe    = regexp.MustCompile(`Pages:\s+(\d+)`)
	pageSizeRe = regexp.MustCompile(`Page\s+size:\s+([\d.]+)\s+x\s+([\d.]+)`)
	pageRotRe  = regexp.MustCompile(`Page\s+rot:\s+(\d+)`)
)

// inspectPDF reads page count and page-level attributes from pdfinfo.
// pdfinfo reports a single size/rotation for the document, applied to every
// page here.
func inspectPDF(pdfPath string) (int, map[int]map[string]string, error) {
	cmd := exec.Command("pdfinfo", pdfPath)
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return 0, nil, fmt.Errorf("error running pdfinfo: %v", err)
	}

	totalPages := 0
	attrs := map[string]string{}
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		line := scanner.Text()
		if matches := pagesRe.FindStringSubmatch(line); len(matches) == 2 {
			totalPages, _ = strconv.Atoi(matches[1])
		}
		if matches := pageSizeRe.FindStringSubmatch(line); len(matches) == 3 {
			attrs["page_width"] = matches[1]
			attrs["page_height"] = matches[2]
		}
		if matches := pageRotRe.FindStringSubmatch(line); len(matches) == 2 {
			attrs["rotation"] = matches[1]
		}
	}
	if totalPages == 0 {
		return 0, nil, fmt.Errorf("unable to determine page count from pdfinfo")
	}

	pageMeta := make(map[int]map[string]string, totalPages)
	if len(attrs) > 0 {
		for pageNum := 1; pageNum <= totalPages; pageNum++ {
			pageMeta[pageNum] = attrs
		}
	}
	return totalPages, pageMeta, nil
}

// extractTextWithPdftotext extracts text from one page using pdftotext
func extractTextWithPdftotext(pdfPath string, pageNumber int) (string, error) {
	pdftotextCmd := exec.Command("pdftotext", "-f", strconv.Itoa(pageNumber),
		"-l", strconv.Itoa(pageNumber),
		"-enc", "UTF-8", "-nopgbrk",
		pdfPath, "-")
	var txtOut bytes.Buffer
	pdftotextCmd.Stdout = &txtOut

	if err := pdftotextCmd.Run(); err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	if trimmed := strings.TrimSpace(txtOut.String()); len(trimmed) > 0 {
		return trimmed, nil
	}
	return "", fmt.Errorf("got nothing at page %d", pageNumber)
}

// extractTextWithTesseract extracts text using OCR when pdftotext fails
func extractTextWithTesseract(pdfPath string, pageNumber int) (string, error) {
	tempFolder, err := os.MkdirTemp("", "finqa-ocr-")
	if err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempFolder)

	convertCmd := exec.Command("pdftoppm",
		"-f", strconv.Itoa(pageNumber),
		"-l", strconv.Itoa(pageNumber),
		"-png", pdfPath, filepath.Join(tempFolder, "page"))
	if err := convertCmd.Run(); err != nil {
		return "", fmt.Errorf("error converting page %d to image: %w", pageNumber, err)
	}

	files, err := filepath.Glob(filepath.Join(tempFolder, "page-*.png"))
	if err != nil || len(files) == 0 {
		return "", fmt.Errorf("failed to read rendered page image: %w", err)
	}

	ocrCmd := exec.Command("tesseract",
		files[0],
		"stdout",
		"-l", "eng",
		"--oem", "3",
		"--psm", "3",
	)
	var ocrOut bytes.Buffer
	ocrCmd.Stdout = &ocrOut
	if err := ocrCmd.Run(); err != nil {
		return "", fmt.Errorf("failed to run tesseract: %w", err)
	}
	if trimmed := strings.TrimSpace(ocrOut.String()); len(trimmed) > 0 {
		return trimmed, nil
	}
	return "", fmt.Errorf("got nothing at page %d", pageNumber)
}

func cleanText(text string) string {
	replacements := map[string]string{
		"\x00": "",   // Null character
		"�": "",   // Unicode replacement character
		"\x1b": "",   // Escape character
		"\r":     "",   // Carriage return
		"\f":     "\n", // Form feed to newline
		"  ":     " ",  // Multiple spaces to single space
	}
	cleaned := text
	for old, new := range replacements {
		cleaned = strings.ReplaceAll(cleaned, old, new)
	}
	return strings.TrimSpace(cleaned)
}
