package conversation

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/jobsherpa/jobsherpa/pkg/jobregistry"
	"github.com/jobsherpa/jobsherpa/pkg/pipeline"
	"github.com/jobsherpa/jobsherpa/pkg/profile"
)

// StateKind tags the engine's conversation state.
type StateKind string

const (
	StateIdle                     StateKind = "idle"
	StateAwaitingParameter        StateKind = "awaiting_parameter"
	StateAwaitingSaveConfirmation StateKind = "awaiting_save_confirmation"
)

// State is the live conversation state. Exactly one exists per session; it
// is mutated in place by the engine and never persisted.
type State struct {
	Kind StateKind

	// PendingUtterance is the original job request, replayed verbatim on
	// every retry while parameters are collected.
	PendingUtterance string

	// ParamNeeded is the parameter the engine last asked for.
	ParamNeeded string

	// Collected holds parameter values supplied this session, in the
	// order they were given.
	Collected      map[string]any
	collectedOrder []string
}

// Submitter is the slice of the submission pipeline the engine drives.
type Submitter interface {
	Submit(ctx context.Context, prompt string, conversation map[string]any) pipeline.Outcome
}

// Reply is what the engine hands back to the front end after a turn.
type Reply struct {
	Text string

	// JobID is set when this turn submitted a job.
	JobID string

	// AwaitingInput reports that the engine expects a follow-up utterance
	// (a parameter value or a save confirmation).
	AwaitingInput bool
}

// Engine is the conversation state machine. It never re-classifies intent
// mid-collection: the original utterance is replayed on every retry and
// only the collected parameter set grows.
type Engine struct {
	classifier Classifier
	submitter  Submitter
	tracker    *jobregistry.Tracker
	profile    *profile.Manager // nil disables the save-confirmation exchange
	logger     *zap.Logger
	state      State
}

// NewEngine creates a conversation engine starting in Idle.
func NewEngine(classifier Classifier, submitter Submitter, tracker *jobregistry.Tracker, prof *profile.Manager, logger *zap.Logger) *Engine {
	if classifier == nil {
		classifier = KeywordClassifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		classifier: classifier,
		submitter:  submitter,
		tracker:    tracker,
		profile:    prof,
		logger:     logger,
		state:      State{Kind: StateIdle},
	}
}

// State returns a copy of the current conversation state.
func (e *Engine) State() State {
	s := e.state
	s.Collected = copyMap(e.state.Collected)
	return s
}

// HandleMessage processes one user utterance and advances the state
// machine.
func (e *Engine) HandleMessage(ctx context.Context, utterance string) Reply {
	switch e.state.Kind {
	case StateAwaitingParameter:
		return e.handleParameterValue(ctx, utterance)
	case StateAwaitingSaveConfirmation:
		return e.handleSaveReply(utterance)
	default:
		return e.handleFresh(ctx, utterance)
	}
}

func (e *Engine) handleFresh(ctx context.Context, utterance string) Reply {
	switch e.classifier.Classify(utterance) {
	case IntentQueryHistory:
		return Reply{Text: e.answerHistory(ctx, utterance)}
	case IntentRunJob:
		e.state = State{Kind: StateIdle}
		return e.attempt(ctx, utterance, nil, nil)
	default:
		return Reply{Text: "Sorry, I'm not sure how to handle that."}
	}
}

// handleParameterValue consumes the entire utterance as the literal value
// for the pending parameter. Even an utterance that reads like a new
// request is taken as the value; mid-collection intent is never
// re-classified.
func (e *Engine) handleParameterValue(ctx context.Context, utterance string) Reply {
	collected := e.state.Collected
	if collected == nil {
		collected = make(map[string]any)
	}
	order := e.state.collectedOrder
	if _, seen := collected[e.state.ParamNeeded]; !seen {
		order = append(order, e.state.ParamNeeded)
	}
	collected[e.state.ParamNeeded] = strings.TrimSpace(utterance)
	return e.attempt(ctx, e.state.PendingUtterance, collected, order)
}

// attempt re-invokes the pipeline and transitions on the outcome.
func (e *Engine) attempt(ctx context.Context, original string, collected map[string]any, order []string) Reply {
	outcome := e.submitter.Submit(ctx, original, collected)

	if outcome.Kind == pipeline.OutcomeNeedParameter {
		e.state = State{
			Kind:             StateAwaitingParameter,
			PendingUtterance: original,
			ParamNeeded:      outcome.Param,
			Collected:        collected,
			collectedOrder:   order,
		}
		return Reply{Text: outcome.Message, AwaitingInput: true}
	}

	// Terminal for this request: success, direct completion, dry-run, or
	// failure all end the collection phase the same way.
	reply := Reply{Text: outcome.Message, JobID: outcome.JobID}
	if len(collected) > 0 && e.profile != nil {
		e.state = State{
			Kind:           StateAwaitingSaveConfirmation,
			Collected:      collected,
			collectedOrder: order,
		}
		reply.Text += "\n" + e.savePrompt(order)
		reply.AwaitingInput = true
		return reply
	}
	e.state = State{Kind: StateIdle}
	return reply
}

func (e *Engine) savePrompt(order []string) string {
	return fmt.Sprintf(
		"Would you like to save any of these values to your profile for next time? (all / none / or a list of: %s)",
		strings.Join(order, ", "))
}

// handleSaveReply parses the confirmation reply into all, none, or an
// explicit subset of collected keys, persists the selection best-effort,
// and always returns to Idle.
func (e *Engine) handleSaveReply(reply string) Reply {
	selected := e.parseSaveReply(reply)
	e.state = State{Kind: StateIdle}

	if len(selected) == 0 {
		return Reply{Text: "Okay, nothing saved."}
	}
	if err := e.profile.SaveDefaults(selected); err != nil {
		e.logger.Warn("failed to save defaults to profile", zap.Error(err))
		return Reply{Text: "I could not update your profile; nothing saved."}
	}
	keys := make([]string, 0, len(selected))
	for k := range selected {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return Reply{Text: fmt.Sprintf("Saved to your profile: %s.", strings.Join(keys, ", "))}
}

func (e *Engine) parseSaveReply(reply string) map[string]string {
	lower := strings.ToLower(strings.TrimSpace(reply))
	collected := e.state.Collected

	switch lower {
	case "none", "no", "n", "":
		return nil
	case "all", "yes", "y":
		out := make(map[string]string, len(collected))
		for k, v := range collected {
			out[k] = fmt.Sprintf("%v", v)
		}
		return out
	}

	tokens := strings.FieldsFunc(lower, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	out := make(map[string]string)
	for _, tok := range tokens {
		if v, ok := collected[tok]; ok {
			out[tok] = fmt.Sprintf("%v", v)
		} else {
			e.logger.Warn("ignoring unknown key in save reply", zap.String("key", tok))
		}
	}
	return out
}

var jobIDInText = regexp.MustCompile(`\b(\d{2,})\b`)

// answerHistory handles a read-only history query: a job named in the
// question, or the most recent one. The lookup refreshes the job's status
// on demand.
func (e *Engine) answerHistory(ctx context.Context, prompt string) string {
	if e.tracker == nil {
		return "Job history is not available in this session."
	}
	jobID := ""
	if m := jobIDInText.FindStringSubmatch(prompt); m != nil {
		if _, ok := e.tracker.Record(m[1]); ok {
			jobID = m[1]
		}
	}
	if jobID == "" {
		jobID = e.tracker.LatestJobID()
	}
	if jobID == "" {
		return "No jobs have been submitted yet."
	}

	status, ok, err := e.tracker.GetStatus(ctx, jobID)
	if err != nil {
		return fmt.Sprintf("I could not check on job %s: %v", jobID, err)
	}
	if !ok {
		return fmt.Sprintf("I have no record of job %s.", jobID)
	}
	text := fmt.Sprintf("Job %s is %s.", jobID, status)
	if result, ok := e.tracker.Result(jobID); ok {
		text += fmt.Sprintf(" Result: %s", result)
	}
	return text
}

func copyMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
