// Package session implements the Conversation Loop: the state machine that
// reads questions, classifies them, dispatches them to a specialist and
// records the resulting turns.
//
// The loop is the error boundary of a session. Provider failures, unhandled
// categories, interrupts and panics inside a turn become notices and the
// loop returns to AwaitingQuestion.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"pathtutor/internal/articulation"
	"pathtutor/internal/config"
	"pathtutor/internal/logging"
	"pathtutor/internal/memory"
	"pathtutor/internal/perception"
	"pathtutor/internal/router"
	"pathtutor/internal/taxonomy"
	"pathtutor/internal/usage"
)

// ErrUnhandledCategory ends Run when the unknown policy is "fail".
var ErrUnhandledCategory = taxonomy.ErrUnhandledCategory

// Classifier assigns a category to a question.
type Classifier interface {
	ClassifyLabel(ctx context.Context, question, history string) (perception.Classification, error)
}

// Dispatcher answers a classified question.
type Dispatcher interface {
	Dispatch(ctx context.Context, category taxonomy.Category, question, history string) router.DispatchResult
}

// TurnRecorder persists completed turns.
type TurnRecorder interface {
	RecordTurn(sessionID string, turn memory.Turn) error
}

// Observer receives loop events for instrumentation.
type Observer interface {
	RecordClassification(category string)
	RecordDispatch(category, outcome string)
	RecordTurn()
	RecordInterrupt()
}

type nopObserver struct{}

func (nopObserver) RecordClassification(string) {}
func (nopObserver) RecordDispatch(string, string) {}
func (nopObserver) RecordTurn() {}
func (nopObserver) RecordInterrupt() {}

// Dispatch outcomes reported to the Observer.
const (
	OutcomeSuccess     = "success"
	OutcomeFailure     = "failure"
	OutcomeUnhandled   = "unhandled"
	OutcomeInterrupted = "interrupted"
)

// Loop drives one tutoring session.
type Loop struct {
	id         string
	cfg        config.TutorConfig
	classifier Classifier
	dispatcher Dispatcher
	renderer   *articulation.Renderer
	memory     *memory.ConversationMemory
	in         io.Reader
	interrupts <-chan os.Signal

	recorder    TurnRecorder
	observer    Observer
	specialists []taxonomy.Specialist
	audit       *logging.AuditLogger

	state    State
	prompt   string
	question string
	category taxonomy.Category
	result   router.DispatchResult

	turnNum   int
	turnOpen  bool
	turnStart time.Time
	completed int
}

// Option configures a Loop.
type Option func(*Loop)

// WithSessionID sets the session ID instead of generating one.
func WithSessionID(id string) Option {
	return func(l *Loop) { l.id = id }
}

// WithInterrupts delivers soft interrupts (SIGINT) to the loop.
func WithInterrupts(ch <-chan os.Signal) Option {
	return func(l *Loop) { l.interrupts = ch }
}

// WithRecorder persists every appended turn.
func WithRecorder(r TurnRecorder) Option {
	return func(l *Loop) { l.recorder = r }
}

// WithObserver reports loop events, typically to metrics.
func WithObserver(o Observer) Option {
	return func(l *Loop) {
		if o != nil {
			l.observer = o
		}
	}
}

// WithSpecialists lists the specialists shown by the menu.
func WithSpecialists(specialists []taxonomy.Specialist) Option {
	return func(l *Loop) { l.specialists = specialists }
}

// WithMemory seeds the loop with an existing memory.
func WithMemory(m *memory.ConversationMemory) Option {
	return func(l *Loop) { l.memory = m }
}

// New creates a Loop reading lines from in.
func New(classifier Classifier, dispatcher Dispatcher, renderer *articulation.Renderer, in io.Reader, cfg config.TutorConfig, opts ...Option) *Loop {
	l := &Loop{
		cfg:        cfg,
		classifier: classifier,
		dispatcher: dispatcher,
		renderer:   renderer,
		in:         in,
		observer:   nopObserver{},
		state:      AwaitingQuestion,
		prompt:     articulation.QuestionPrompt,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.id == "" {
		l.id = uuid.NewString()
	}
	if l.memory == nil {
		l.memory = memory.New()
	}
	l.audit = logging.AuditWithSession(l.id)
	return l
}

// ID returns the session ID.
func (l *Loop) ID() string { return l.id }

// State returns the current state.
func (l *Loop) State() State { return l.state }

// Memory returns the session's conversation memory.
func (l *Loop) Memory() *memory.ConversationMemory { return l.memory }

// Run drives the loop until the student exits, input ends or ctx is
// cancelled. It returns nil on a graceful exit.
func (l *Loop) Run(ctx context.Context) error {
	start := time.Now()
	logging.Session("Session %s started", l.id)
	l.audit.SessionStart()
	defer func() {
		elapsed := time.Since(start)
		l.audit.SessionEnd(l.completed, elapsed)
		logging.Session("Session %s ended after %d turns (%v)", l.id, l.completed, elapsed)
	}()

	ctx = usage.WithTurn(ctx, l.id, "", "")

	input := newLineReader(l.in)
	defer input.close()

	l.renderer.Welcome()

	for l.state != Exited {
		if err := ctx.Err(); err != nil {
			return err
		}
		prev := l.state
		if err := l.step(ctx, input); err != nil {
			return err
		}
		if l.state != prev {
			logging.SessionDebug("Transition %s -> %s", prev, l.state)
		}
	}
	return nil
}

// step runs one state. Panics are recovered here and end the turn.
func (l *Loop) step(ctx context.Context, input *lineReader) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.SessionError("Recovered panic in state %s: %v", l.state, r)
			l.audit.Recovered(r)
			l.renderer.Error(fmt.Errorf("internal error: %v", r))
			l.endTurn(false)
			l.reset()
			err = nil
		}
	}()

	switch l.state {
	case AwaitingQuestion:
		return l.awaitQuestion(ctx, input)
	case Classifying:
		return l.classify(ctx)
	case Dispatching:
		return l.dispatch(ctx)
	case PresentingResult:
		l.present()
		return nil
	case AwaitingFollowUp:
		return l.awaitFollowUp(ctx, input)
	}
	return nil
}

func (l *Loop) awaitQuestion(ctx context.Context, input *lineReader) error {
	l.drainInterrupts()
	l.renderer.Prompt(l.prompt)
	line, outcome := input.next(ctx, l.interrupts)
	switch outcome {
	case readEOF:
		l.endOfInput(input)
		return nil
	case readInterrupted:
		l.interrupted()
		return nil
	case readCancelled:
		return ctx.Err()
	}

	text := strings.TrimSpace(line)
	switch parseCommand(text) {
	case cmdEmpty:
	case cmdExit:
		l.renderer.Farewell()
		l.state = Exited
	case cmdMenu:
		l.renderer.Menu(l.specialists)
	default:
		l.question = norm.NFC.String(text)
		l.prompt = articulation.QuestionPrompt
		l.beginTurn()
		l.state = Classifying
	}
	return nil
}

func (l *Loop) classify(ctx context.Context) error {
	history := ""
	if l.cfg.IncludeHistoryInClassification {
		history = l.memory.Render(l.cfg.HistoryTurns)
	}

	stop := l.watchInterrupts()
	start := time.Now()
	res, err := l.classifier.ClassifyLabel(ctx, l.question, history)
	if stop() {
		l.interrupted()
		return nil
	}
	if err != nil {
		l.fail(err)
		return nil
	}

	known := res.Category.IsKnown()
	l.audit.Classified(string(res.Category), known, time.Since(start))
	l.observer.RecordClassification(string(res.Category))

	if !known {
		return l.unhandled(res.Label)
	}

	l.category = res.Category
	l.renderer.Category(res.Category)
	l.state = Dispatching
	return nil
}

func (l *Loop) dispatch(ctx context.Context) error {
	stop := l.watchInterrupts()
	start := time.Now()
	res := l.dispatcher.Dispatch(ctx, l.category, l.question, l.memory.Render(l.cfg.HistoryTurns))
	if stop() {
		l.observer.RecordDispatch(string(l.category), OutcomeInterrupted)
		l.interrupted()
		return nil
	}
	l.audit.Dispatched(string(l.category), time.Since(start), res.Success, res.Detail)

	if !res.Success {
		if errors.Is(res.Err, taxonomy.ErrUnhandledCategory) {
			l.observer.RecordDispatch(string(l.category), OutcomeUnhandled)
			return l.unhandled(string(l.category))
		}
		l.observer.RecordDispatch(string(l.category), OutcomeFailure)
		err := res.Err
		if err == nil {
			err = errors.New(res.Detail)
		}
		l.fail(err)
		return nil
	}
	l.observer.RecordDispatch(string(l.category), OutcomeSuccess)

	turn, err := l.memory.Append(l.category, l.question, res.Output)
	if err != nil {
		l.fail(err)
		return nil
	}
	l.observer.RecordTurn()
	if l.recorder != nil {
		if err := l.recorder.RecordTurn(l.id, turn); err != nil {
			logging.SessionError("Failed to persist turn %d: %v", turn.Ordinal, err)
		}
	}

	l.result = res
	l.state = PresentingResult
	return nil
}

func (l *Loop) present() {
	l.renderer.Result(l.result.Category, l.result.Output)
	l.completed++
	l.endTurn(true)
	l.state = AwaitingFollowUp
}

func (l *Loop) awaitFollowUp(ctx context.Context, input *lineReader) error {
	l.drainInterrupts()
	l.renderer.FollowUpMenu()
	line, outcome := input.next(ctx, l.interrupts)
	switch outcome {
	case readEOF:
		l.endOfInput(input)
		return nil
	case readInterrupted:
		l.interrupted()
		return nil
	case readCancelled:
		return ctx.Err()
	}

	switch ParseFollowUpChoice(line) {
	case ChoiceFollowUp:
		l.prompt = articulation.FollowUpPrompt
		l.state = AwaitingQuestion
	case ChoiceNewQuestion:
		if l.cfg.ClearHistoryOnNewQuestion {
			l.memory.Clear()
		}
		l.prompt = articulation.NewQuestionPrompt
		l.state = AwaitingQuestion
	case ChoiceExit:
		l.renderer.Farewell()
		l.state = Exited
	default:
		l.renderer.Invalid()
	}
	return nil
}

// unhandled applies the unknown-category policy.
func (l *Loop) unhandled(label string) error {
	logging.Session("Unhandled category %q for question (len=%d)", label, len(l.question))
	l.endTurn(false)
	if l.cfg.FailOnUnknown() {
		l.state = Exited
		return fmt.Errorf("%w: %q", ErrUnhandledCategory, label)
	}
	l.renderer.Unhandled(label)
	l.reset()
	return nil
}

// fail reports a failed turn and returns to AwaitingQuestion. No turn is
// recorded.
func (l *Loop) fail(err error) {
	if pe, ok := perception.AsProviderError(err); ok {
		l.audit.ProviderFailure(pe.Provider, pe.Message)
	}
	logging.SessionError("Turn %d failed in %s: %v", l.turnNum, l.state, err)
	l.renderer.Error(err)
	l.endTurn(false)
	l.reset()
}

func (l *Loop) interrupted() {
	logging.Session("Interrupted in state %s", l.state)
	l.audit.Interrupted(l.state.String())
	l.observer.RecordInterrupt()
	l.renderer.Interrupted()
	l.endTurn(false)
	l.reset()
}

func (l *Loop) endOfInput(input *lineReader) {
	if input.err != nil {
		logging.SessionError("Input error: %v", input.err)
	} else {
		logging.SessionDebug("End of input in state %s", l.state)
	}
	l.renderer.Line("")
	l.state = Exited
}

func (l *Loop) reset() {
	l.state = AwaitingQuestion
	l.prompt = articulation.QuestionPrompt
	l.question = ""
	l.category = ""
}

func (l *Loop) beginTurn() {
	l.turnNum++
	l.turnOpen = true
	l.turnStart = time.Now()
	l.audit.TurnStart(l.turnNum, len(l.question))
}

func (l *Loop) endTurn(success bool) {
	if !l.turnOpen {
		return
	}
	l.turnOpen = false
	l.audit.TurnEnd(l.turnNum, time.Since(l.turnStart), success)
}

// watchInterrupts notes interrupts that arrive while a provider call is in
// flight. The call is never cancelled; stop reports whether an interrupt
// arrived so it can be honored once the call has finished or failed.
func (l *Loop) watchInterrupts() func() bool {
	if l.interrupts == nil {
		return func() bool { return false }
	}

	done := make(chan struct{})
	var hit atomic.Bool
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-l.interrupts:
			logging.SessionDebug("Interrupt received during %s, deferring until the call returns", l.state)
			hit.Store(true)
		case <-done:
		}
	}()

	return func() bool {
		close(done)
		wg.Wait()
		return hit.Load()
	}
}

// drainInterrupts discards interrupts that arrived between reads and
// provider calls so they do not fire at the next prompt.
func (l *Loop) drainInterrupts() {
	for {
		select {
		case <-l.interrupts:
			logging.SessionDebug("Discarded stale interrupt in state %s", l.state)
		default:
			return
		}
	}
}
