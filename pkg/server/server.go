// Package server exposes an IME session over newline-delimited JSON on
// stdin/stdout, for integration with editors and UI shells.
package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nspt/chinese-pinyin-ime/internal/logger"
	"github.com/nspt/chinese-pinyin-ime/internal/utils"
	"github.com/nspt/chinese-pinyin-ime/pkg/config"
	"github.com/nspt/chinese-pinyin-ime/pkg/dictionary"
	"github.com/nspt/chinese-pinyin-ime/pkg/ime"
)

// Request represents an incoming request from the client
type Request struct {
	Command string `json:"command"`
	Pinyin  string `json:"pinyin,omitempty"`
	Index   int    `json:"index,omitempty"`
	Count   int    `json:"count,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Chinese string `json:"chinese,omitempty"`
	Freq    uint32 `json:"freq,omitempty"`
	Acronym string `json:"acronym,omitempty"`
	Pattern string `json:"pattern,omitempty"`
	Path    string `json:"path,omitempty"`
	Format  string `json:"format,omitempty"`
	IncFreq *bool  `json:"inc_freq,omitempty"`
	Learn   *bool  `json:"learn,omitempty"`
}

// ResponseCandidate is the format for each candidate in the API response
type ResponseCandidate struct {
	Chinese string `json:"chinese"`
	Pinyin  string `json:"pinyin"`
	Freq    uint32 `json:"freq"`
}

// CandidateResponse is the overall API response format
type CandidateResponse struct {
	Candidates []ResponseCandidate `json:"candidates"`
	Count      int                 `json:"count"`
	Pinyin     string              `json:"pinyin"`
	Unfixed    string              `json:"unfixed"`
	TimeTaken  int64               `json:"time_us"`
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// Server handles the IPC for one IME session.
type Server struct {
	eng    *ime.IME
	cfg    *config.Config
	reader *bufio.Reader
	writer io.Writer
	log    *log.Logger
}

// NewServer creates a new IME server using stdin/stdout for IPC
func NewServer(eng *ime.IME, cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Server{
		eng:    eng,
		cfg:    cfg,
		reader: bufio.NewReader(os.Stdin),
		writer: os.Stdout,
		log:    logger.New("server"),
	}
}

// Start begins listening for IPC requests
func (s *Server) Start() error {
	s.log.Debug("Starting IME server.")

	s.sendResponse(map[string]string{"status": "ready"})

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			s.log.Errorf("Reading from stdin: %v", err)
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		s.handleRequest(line)
	}
}

// handleRequest processes an incoming request string
func (s *Server) handleRequest(requestStr string) {
	var request Request
	if err := json.Unmarshal([]byte(requestStr), &request); err != nil {
		s.sendError("Invalid JSON request", 400)
		s.log.Errorf("Unmarshaling request: %v", err)
		return
	}

	switch request.Command {
	case "search":
		s.handleSearch(request)
	case "backspace":
		s.handleBackspace(request)
	case "choose":
		s.handleChoose(request)
	case "commit":
		s.handleCommit(request)
	case "reset":
		s.eng.ResetSearch()
		s.sendCandidates(request, time.Now())
	case "add":
		s.handleAdd(request)
	case "history":
		s.handleHistory(request)
	case "lookup":
		s.handleLookup(request)
	case "save":
		s.handleSave(request)
	case "health":
		s.sendResponse(map[string]string{"status": "ok"})
	default:
		s.sendError(fmt.Sprintf("Unknown command: %s", request.Command), 400)
	}
}

func (s *Server) handleSearch(request Request) {
	start := time.Now()
	if !utils.IsPinyin(request.Pinyin) {
		s.sendError(fmt.Sprintf("Pinyin %q has characters outside a-z and '", request.Pinyin), 400)
		return
	}
	s.eng.Search(request.Pinyin)
	s.sendCandidates(request, start)
}

func (s *Server) handleBackspace(request Request) {
	start := time.Now()
	count := request.Count
	if count <= 0 {
		count = 1
	}
	s.eng.Backspace(count)
	s.sendCandidates(request, start)
}

func (s *Server) handleChoose(request Request) {
	start := time.Now()
	if _, err := s.eng.Choose(request.Index); err != nil {
		s.sendError(err.Error(), 422)
		return
	}
	s.sendCandidates(request, start)
}

func (s *Server) handleCommit(request Request) {
	incFreq := true
	if request.IncFreq != nil {
		incFreq = *request.IncFreq
	}
	learn := s.cfg.IME.LearnPhrases
	if request.Learn != nil {
		learn = *request.Learn
	}
	s.eng.FinishSearch(incFreq, learn)
	s.sendResponse(map[string]string{"status": "committed"})
}

func (s *Server) handleAdd(request Request) {
	if request.Chinese == "" || request.Pinyin == "" {
		s.sendError("add requires chinese and pinyin", 400)
		return
	}
	if err := s.eng.AddEntry(request.Chinese, request.Pinyin, request.Freq); err != nil {
		s.sendError(err.Error(), 422)
		return
	}
	s.sendResponse(map[string]string{"status": "added"})
}

func (s *Server) handleHistory(request Request) {
	limit := s.limitFor(request)
	phrases := s.eng.History().Search(request.Pinyin, limit)
	type respPhrase struct {
		Pinyin  string `json:"pinyin"`
		Chinese string `json:"chinese"`
		Hits    int    `json:"hits"`
	}
	resp := make([]respPhrase, 0, len(phrases))
	for _, p := range phrases {
		resp = append(resp, respPhrase{Pinyin: p.Pinyin, Chinese: p.Chinese, Hits: p.Hits})
	}
	s.sendResponse(map[string]any{"phrases": resp, "count": len(resp)})
}

func (s *Server) handleLookup(request Request) {
	if request.Acronym == "" || request.Pattern == "" {
		s.sendError("lookup requires acronym and pattern", 400)
		return
	}
	pattern, err := regexp.Compile(request.Pattern)
	if err != nil {
		s.sendError(fmt.Sprintf("Bad pattern: %v", err), 400)
		return
	}
	entries := s.eng.SearchRegex(request.Acronym, pattern)
	resp := make([]ResponseCandidate, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, ResponseCandidate{Chinese: e.Chinese(), Pinyin: e.Pinyin(), Freq: e.Freq()})
	}
	s.sendResponse(map[string]any{"entries": resp, "count": len(resp)})
}

func (s *Server) handleSave(request Request) {
	if request.Path == "" {
		s.sendError("save requires a path", 400)
		return
	}

	if request.Format == "config" {
		if err := config.SaveConfig(s.cfg, request.Path); err != nil {
			s.sendError(err.Error(), 500)
			return
		}
		s.sendResponse(map[string]string{"status": "saved", "path": request.Path})
		return
	}

	file, err := os.Create(request.Path)
	if err != nil {
		s.sendError(fmt.Sprintf("Create %s: %v", request.Path, err), 500)
		return
	}
	defer file.Close()

	switch request.Format {
	case "", "text":
		err = dictionary.SaveText(file, s.eng.Entries)
	case "binary":
		err = dictionary.SaveBinary(file, s.eng.Entries)
	default:
		s.sendError(fmt.Sprintf("Unknown format: %s", request.Format), 400)
		return
	}
	if err != nil {
		s.sendError(err.Error(), 500)
		return
	}
	s.sendResponse(map[string]string{"status": "saved", "path": request.Path})
}

// sendCandidates pages the current candidate list into a response.
func (s *Server) sendCandidates(request Request, start time.Time) {
	cands := s.eng.Candidates()
	total := cands.Len()
	limit := s.limitFor(request)

	page := make([]ResponseCandidate, 0, limit)
	for i := 0; i < total && i < limit; i++ {
		e := cands.At(i)
		page = append(page, ResponseCandidate{
			Chinese: e.Chinese(),
			Pinyin:  e.Pinyin(),
			Freq:    e.Freq(),
		})
	}

	s.sendResponse(CandidateResponse{
		Candidates: page,
		Count:      total,
		Pinyin:     s.eng.Letters(),
		Unfixed:    s.eng.UnfixedLetters(),
		TimeTaken:  time.Since(start).Microseconds(),
	})
}

func (s *Server) limitFor(request Request) int {
	limit := request.Limit
	if limit <= 0 {
		limit = s.cfg.Server.DefaultLimit
	}
	if limit > s.cfg.Server.MaxLimit {
		limit = s.cfg.Server.MaxLimit
	}
	return limit
}

// sendResponse marshals the given response into JSON and writes it to the
// client, followed by a newline.
func (s *Server) sendResponse(response interface{}) {
	data, err := json.Marshal(response)
	if err != nil {
		s.log.Errorf("Marshaling response: %v", err)
		s.sendError("Internal server error", 500)
		return
	}
	fmt.Fprintln(s.writer, string(data))
}

// sendError sends an error response
func (s *Server) sendError(message string, code int) {
	s.sendResponse(ErrorResponse{Error: message, Status: code})
}
