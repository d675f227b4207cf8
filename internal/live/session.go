package live

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/factlens/factlens/internal/merge"
	"github.com/factlens/factlens/internal/model"
	"github.com/factlens/factlens/internal/pipeline"
)

// VerifyTool is the function the model may call mid-conversation to
// fact-check a claim the user just raised.
const VerifyTool = "verify_new_claim"

const (
	captureMimeType = "audio/pcm;rate=16000"
	writeTimeout    = 10 * time.Second
)

// Verifier runs a targeted verification for a single claim query
type Verifier interface {
	TargetedVerify(ctx context.Context, query string) (*pipeline.Result, error)
}

// Session is a live voice conversation over a duplex audio stream.
//
// Audio capture and playback run as independent producer/consumer loops.
// When the model raises a verify_new_claim tool call, the verification runs
// out-of-band: audio keeps flowing while it is pending. Completed fragments
// funnel through a single queue into one merge worker, so merges apply in
// completion order and readers of Snapshot never observe a half-merged
// report. A session starts from its own snapshot of the report-so-far; no
// mutable state is shared across sessions.
type Session struct {
	conn     *websocket.Conn
	verifier Verifier
	merger   *merge.Merger

	report atomic.Pointer[model.ResearchReport]

	outbound  chan clientMessage
	fragments chan *model.ResearchReport
	playback  chan []byte

	pending atomic.Int32

	mu       sync.Mutex
	warnings []string

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Dial opens a live session against the configured endpoint. The base
// report is the session's starting context; it is never mutated, merges
// always produce a fresh report.
func Dial(ctx context.Context, cfg model.LiveConfig, apiKey string, verifier Verifier, base *model.ResearchReport) (*Session, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("live session requires an API key")
	}

	header := http.Header{}
	header.Set("X-Goog-Api-Key", apiKey)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, cfg.Endpoint, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial live endpoint: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial live endpoint: %w", err)
	}

	sessionCtx, cancel := context.WithCancel(context.Background())

	s := &Session{
		conn:      conn,
		verifier:  verifier,
		merger:    merge.NewMerger(),
		outbound:  make(chan clientMessage, 64),
		fragments: make(chan *model.ResearchReport, 16),
		playback:  make(chan []byte, 64),
		ctx:       sessionCtx,
		cancel:    cancel,
	}

	if base == nil {
		base = &model.ResearchReport{}
	}
	s.report.Store(base)

	if err := s.setup(cfg, base); err != nil {
		cancel()
		conn.Close()
		return nil, err
	}

	s.wg.Add(3)
	go s.readLoop()
	go s.writeLoop()
	go s.mergeLoop()

	return s, nil
}

// setup sends the session configuration and waits for the ack
func (s *Session) setup(cfg model.LiveConfig, base *model.ResearchReport) error {
	msg := clientMessage{
		Setup: &setupPayload{
			Model: cfg.Model,
			GenerationConfig: &liveGenConfig{
				ResponseModalities: []string{"AUDIO"},
				SpeechConfig: &speechConfig{
					VoiceConfig: &voiceConfig{
						PrebuiltVoiceConfig: &prebuiltVoiceConfig{VoiceName: cfg.Voice},
					},
				},
			},
			SystemInstruction: &liveContent{
				Parts: []livePart{{Text: sessionInstruction(base)}},
			},
			Tools: []liveTool{{
				FunctionDeclarations: []functionDeclaration{{
					Name:        VerifyTool,
					Description: "Fact-check a new claim the user raised. Returns verification status and sources.",
					Parameters: &functionSchema{
						Type: "object",
						Properties: map[string]schemaProperty{
							"query": {Type: "string", Description: "The claim to verify, phrased as a question"},
						},
						Required: []string{"query"},
					},
				}},
			}},
		},
	}

	if err := s.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("send setup: %w", err)
	}

	var ack serverMessage
	if err := s.conn.ReadJSON(&ack); err != nil {
		return fmt.Errorf("read setup ack: %w", err)
	}
	if ack.SetupComplete == nil {
		return fmt.Errorf("expected setup ack, got %+v", ack)
	}
	return nil
}

// sessionInstruction briefs the model on the report the session continues from
func sessionInstruction(base *model.ResearchReport) string {
	if base.Query == "" {
		return "You are a voice research assistant. When the user raises a factual claim, call " +
			VerifyTool + " to check it before answering."
	}
	context, _ := json.Marshal(base.Summary)
	return fmt.Sprintf("You are a voice research assistant continuing a fact-check of %q. "+
		"Findings so far: %s. When the user raises a new factual claim, call %s to check it before answering.",
		base.Query, context, VerifyTool)
}

// SendAudio queues one captured PCM frame for transmission. It never
// blocks on a pending verification; it fails only once the session closes.
func (s *Session) SendAudio(frame []byte) error {
	msg := clientMessage{
		RealtimeInput: &realtimeInput{
			MediaChunks: []inlineData{{
				MimeType: captureMimeType,
				Data:     base64.StdEncoding.EncodeToString(frame),
			}},
		},
	}
	select {
	case s.outbound <- msg:
		return nil
	case <-s.ctx.Done():
		return fmt.Errorf("session closed")
	}
}

// Playback returns the channel of model audio frames to play. The channel
// closes when the session ends.
func (s *Session) Playback() <-chan []byte {
	return s.playback
}

// Snapshot returns the current report. The returned report is never
// mutated afterwards; each merge installs a fresh one.
func (s *Session) Snapshot() *model.ResearchReport {
	return s.report.Load()
}

// Verifying reports whether a targeted verification is in flight, for
// surfacing a processing indicator while audio keeps streaming.
func (s *Session) Verifying() bool {
	return s.pending.Load() > 0
}

// Warnings returns merge warnings accumulated so far
func (s *Session) Warnings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.warnings))
	copy(out, s.warnings)
	return out
}

// Close tears the session down: the stream closes, playback stops, and
// any in-flight verification is abandoned rather than awaited.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		deadline := time.Now().Add(writeTimeout)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = s.conn.Close()
	})
	return nil
}

func (s *Session) readLoop() {
	defer s.wg.Done()
	defer close(s.playback)
	defer s.Close()

	for {
		var msg serverMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch {
		case msg.ServerContent != nil:
			s.handleContent(msg.ServerContent)
		case msg.ToolCall != nil:
			for _, call := range msg.ToolCall.FunctionCalls {
				s.dispatchToolCall(call)
			}
		}
	}
}

// handleContent forwards model audio to the playback channel. A stalled
// consumer drops frames rather than blocking the read loop.
func (s *Session) handleContent(content *serverContent) {
	if content.ModelTurn == nil {
		return
	}
	for _, part := range content.ModelTurn.Parts {
		if part.InlineData == nil {
			continue
		}
		frame, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
		if err != nil {
			continue
		}
		select {
		case s.playback <- frame:
		default:
		}
	}
}

// dispatchToolCall runs a verify_new_claim call out-of-band. Audio loops
// keep running; the completed fragment joins the merge queue, and the tool
// response tells the model what was found.
func (s *Session) dispatchToolCall(call functionCall) {
	if call.Name != VerifyTool {
		s.respond(call, map[string]any{"error": fmt.Sprintf("unknown tool %q", call.Name)})
		return
	}

	var args verifyArgs
	if err := json.Unmarshal(call.Args, &args); err != nil || args.Query == "" {
		s.respond(call, map[string]any{"error": "verify_new_claim requires a query argument"})
		return
	}

	s.pending.Add(1)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.pending.Add(-1)

		result, err := s.verifier.TargetedVerify(s.ctx, args.Query)
		if err != nil {
			s.respond(call, map[string]any{"error": err.Error()})
			return
		}

		select {
		case s.fragments <- result.Report:
		case <-s.ctx.Done():
			// session closed, fragment abandoned
			return
		}

		s.respond(call, verifyResponse(args.Query, result.Report))
	}()
}

// verifyResponse summarizes a verification fragment for the model so it
// can speak the finding, not just the counts.
func verifyResponse(query string, report *model.ResearchReport) map[string]any {
	response := map[string]any{
		"query":             query,
		"claims_found":      len(report.Claims),
		"sources_found":     len(report.Sources),
		"verification_rate": report.Metadata.VerificationRate,
	}
	if report.Summary.ExecutiveSummary != "" {
		response["summary"] = report.Summary.ExecutiveSummary
	}
	if len(report.Claims) > 0 {
		top := report.Claims[0]
		response["top_claim"] = top.ClaimText
		response["top_claim_status"] = string(top.VerificationStatus)
	}
	return response
}

// respond queues a tool response without blocking the read loop
func (s *Session) respond(call functionCall, response map[string]any) {
	msg := clientMessage{
		ToolResponse: &toolResponse{
			FunctionResponses: []functionResponse{{
				ID:       call.ID,
				Name:     call.Name,
				Response: response,
			}},
		},
	}
	select {
	case s.outbound <- msg:
	case <-s.ctx.Done():
	}
}

func (s *Session) writeLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case msg := <-s.outbound:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteJSON(msg); err != nil {
				s.Close()
				return
			}
		}
	}
}

// mergeLoop is the single consumer of completed fragments. One worker
// means merges apply strictly in completion order, and the atomic swap
// keeps every Snapshot reader on a complete report.
func (s *Session) mergeLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case fragment := <-s.fragments:
			merged, warnings := s.merger.Merge(s.report.Load(), fragment)
			s.report.Store(merged)
			if len(warnings) > 0 {
				s.mu.Lock()
				s.warnings = append(s.warnings, warnings...)
				s.mu.Unlock()
			}
		}
	}
}
