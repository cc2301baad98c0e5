// Package streamproc reconstructs the canonical message history from the
// same raw stream events the event bridge (internal/bridge) publishes to the
// bus, running in parallel with it inside the agent executor's streaming
// mode (spec §4.E).
package streamproc

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/nexuscore/agent/pkg/models"
)

// ErrNoRunComplete is returned by Finish when the stream ended without ever
// observing a RunComplete event — a fatal execution error per spec §4.E/§7.
var ErrNoRunComplete = errors.New("streamproc: stream ended without RunComplete")

// ReturnRecord is one tool-return payload captured by a RecordingExecutor as
// a side effect of actually running a tool, since the raw stream carries no
// return bodies of its own.
type ReturnRecord struct {
	ToolCallID string
	Content    string
	IsError    bool
}

// Recorder is a mutex-guarded, append-only sequence of ReturnRecords. The
// Processor consumes it by monotonic index, never by searching for a name,
// because multiple concurrent tool executions within one response can
// complete in any order.
type Recorder struct {
	mu      sync.Mutex
	records []ReturnRecord
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder { return &Recorder{} }

// Record appends a return to the sequence.
func (r *Recorder) Record(rec ReturnRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

// At returns the record at index, if one has been recorded yet.
func (r *Recorder) At(index int) (ReturnRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.records) {
		return ReturnRecord{}, false
	}
	return r.records[index], true
}

// callAccum is the in-flight accumulation for one tool-call part, keyed the
// same way the bridge keys its own state: by call id, or a synthetic
// "<name>_<index>" when the provider omits one.
type callAccum struct {
	name       string
	id         string
	argsBuffer []byte
}

// Processor owns a mutable History and folds the raw stream into it,
// reconstructing ModelResponse and ToolReturn requests from fragments.
type Processor struct {
	recorder *Recorder

	history models.History

	// Per-response accumulation, reset at each ResponseComplete.
	textBuf        []byte
	inProgress     map[string]*callAccum
	insertOrder    []string
	completedOrder []string
	nextIndex      int

	// Tool-return bookkeeping that spans ResponseComplete -> ToolExecuted.
	pendingQueue    []pendingReturn
	expectedReturns int
	collected       []models.ToolReturnPart
	recordIndex     int
	earlyExecuted   int // ToolExecuted events seen before their response flushed

	totalText    []byte
	runID        string
	sawComplete  bool
}

type pendingReturn struct {
	name string
	id   string // may be empty
}

// New creates a Processor that pulls tool-return bodies from recorder.
func New(recorder *Recorder) *Processor {
	return &Processor{
		recorder:   recorder,
		inProgress: make(map[string]*callAccum),
	}
}

// Seed appends an initial request (typically the user's prompt) to the
// history before streaming begins.
func (p *Processor) Seed(req models.Request) {
	p.history = append(p.history, req)
}

// Handle folds one raw stream event into the processor's state.
func (p *Processor) Handle(ev models.StreamEvent) {
	switch ev.Kind {
	case models.StreamRunStart, models.StreamRequestStart, models.StreamOutputReady:
		// Internal bookkeeping only.

	case models.StreamTextDelta:
		p.textBuf = append(p.textBuf, ev.Text...)
		p.totalText = append(p.totalText, ev.Text...)

	case models.StreamThinkingDelta:
		// Thinking text does not participate in the canonical history or the
		// run's output string.

	case models.StreamToolCallStart:
		key := ev.ToolCallID
		if key == "" {
			key = fmt.Sprintf("%s_%d", ev.ToolName, p.nextIndex)
			p.nextIndex++
		}
		p.inProgress[key] = &callAccum{name: ev.ToolName, id: ev.ToolCallID}
		p.insertOrder = append(p.insertOrder, key)

	case models.StreamToolCallDelta:
		p.appendDelta(ev.ToolCallID, ev.Delta)

	case models.StreamToolCallComplete:
		key := p.resolveKey(ev.ToolCallID, ev.ToolName)
		if key != "" {
			p.completedOrder = append(p.completedOrder, key)
		}

	case models.StreamResponseComplete:
		p.flushResponse()
		// Pair the returns whose ToolExecuted arrived before this flush.
		for ; p.earlyExecuted > 0 && len(p.pendingQueue) > 0; p.earlyExecuted-- {
			p.collectReturn()
		}
		p.earlyExecuted = 0

	case models.StreamToolExecuted:
		if len(p.inProgress) > 0 {
			// The response carrying this call has not been flushed yet.
			p.earlyExecuted++
		} else {
			p.collectReturn()
		}

	case models.StreamRunComplete:
		p.sawComplete = true
		p.runID = ev.RunID

	case models.StreamError:
		// Surfaced by the bridge as Agent.Error; the stream processor has no
		// further bookkeeping to do for it.
	}
}

func (p *Processor) appendDelta(callID, delta string) {
	if callID != "" {
		if acc, ok := p.inProgress[callID]; ok {
			acc.argsBuffer = append(acc.argsBuffer, delta...)
		}
		return
	}
	if len(p.insertOrder) == 0 {
		return
	}
	lastKey := p.insertOrder[len(p.insertOrder)-1]
	if acc, ok := p.inProgress[lastKey]; ok {
		acc.argsBuffer = append(acc.argsBuffer, delta...)
	}
}

func (p *Processor) resolveKey(callID, toolName string) string {
	if callID != "" {
		if _, ok := p.inProgress[callID]; ok {
			return callID
		}
		return callID
	}
	for i := len(p.insertOrder) - 1; i >= 0; i-- {
		key := p.insertOrder[i]
		if acc, ok := p.inProgress[key]; ok && acc.name == toolName {
			return key
		}
	}
	return ""
}

// flushResponse builds and appends the ModelResponse Request for the
// response just completed, then queues expected tool-returns.
func (p *Processor) flushResponse() {
	text := string(p.textBuf)
	calls := make([]models.ToolCallPart, 0, len(p.completedOrder))
	queue := make([]pendingReturn, 0, len(p.completedOrder))
	for _, key := range p.completedOrder {
		acc, ok := p.inProgress[key]
		if !ok {
			continue
		}
		var args json.RawMessage
		if len(acc.argsBuffer) > 0 {
			args = json.RawMessage(acc.argsBuffer)
		}
		calls = append(calls, models.ToolCallPart{ID: acc.id, Name: acc.name, Args: args})
		queue = append(queue, pendingReturn{name: acc.name, id: acc.id})
	}

	if text != "" || len(calls) > 0 {
		p.history = append(p.history, models.NewModelResponse(text, calls))
	}

	p.pendingQueue = queue
	p.expectedReturns = len(queue)
	p.collected = nil

	p.textBuf = nil
	p.inProgress = make(map[string]*callAccum)
	p.insertOrder = nil
	p.completedOrder = nil
}

// collectReturn pulls the next recorded return body (by monotonic index),
// synthesizing an error return if the recording is missing, pairs it with
// the next queued (name, id), and flushes a ToolReturn Request once every
// expected return for the current response has arrived.
func (p *Processor) collectReturn() {
	if len(p.pendingQueue) == 0 {
		return
	}
	next := p.pendingQueue[0]
	p.pendingQueue = p.pendingQueue[1:]

	rec, ok := p.recorder.At(p.recordIndex)
	p.recordIndex++

	part := models.ToolReturnPart{ToolCallID: next.id}
	switch {
	case !ok:
		part.Error = "tool return recording missing"
	case rec.IsError:
		part.Error = rec.Content
	default:
		part.Content = rec.Content
	}
	if part.ToolCallID == "" && rec.ToolCallID != "" {
		part.ToolCallID = rec.ToolCallID
	}

	p.collected = append(p.collected, part)

	if p.expectedReturns > 0 && len(p.collected) == p.expectedReturns {
		p.history = append(p.history, models.NewToolReturnRequest(p.collected...))
		p.collected = nil
		p.expectedReturns = 0
	}
}

// Finish flushes any still-pending tool returns and validates that the
// stream ended with a RunComplete event. It must be called exactly once
// after the raw stream has been fully drained.
func (p *Processor) Finish() error {
	if len(p.collected) > 0 {
		p.history = append(p.history, models.NewToolReturnRequest(p.collected...))
		p.collected = nil
		p.expectedReturns = 0
	}
	if !p.sawComplete {
		return ErrNoRunComplete
	}
	return nil
}

// History returns the reconstructed canonical message history.
func (p *Processor) History() models.History { return p.history }

// Output returns the concatenation of every TextDelta observed, which is
// the run's output string (spec invariant 4).
func (p *Processor) Output() string { return string(p.totalText) }

// RunID returns the run id carried by the last-seen RunComplete event.
func (p *Processor) RunID() string { return p.runID }
