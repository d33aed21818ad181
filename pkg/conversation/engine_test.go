package conversation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobsherpa/jobsherpa/pkg/jobregistry"
	"github.com/jobsherpa/jobsherpa/pkg/pipeline"
	"github.com/jobsherpa/jobsherpa/pkg/profile"
	"github.com/jobsherpa/jobsherpa/pkg/scheduler"
)

// scriptedSubmitter walks through a fixed outcome sequence and records what
// it was called with.
type scriptedSubmitter struct {
	outcomes []pipeline.Outcome
	calls    int
	prompts  []string
	params   []map[string]any
}

func (s *scriptedSubmitter) Submit(_ context.Context, prompt string, conversation map[string]any) pipeline.Outcome {
	s.prompts = append(s.prompts, prompt)
	copied := make(map[string]any, len(conversation))
	for k, v := range conversation {
		copied[k] = v
	}
	s.params = append(s.params, copied)
	out := s.outcomes[s.calls]
	if s.calls < len(s.outcomes)-1 {
		s.calls++
	}
	return out
}

func needParam(name string) pipeline.Outcome {
	return pipeline.Outcome{
		Kind:    pipeline.OutcomeNeedParameter,
		Param:   name,
		Message: "I need a value for " + name,
	}
}

func submittedOutcome(id string) pipeline.Outcome {
	return pipeline.Outcome{
		Kind:    pipeline.OutcomeSubmitted,
		JobID:   id,
		Message: "Job submitted successfully with ID: " + id,
	}
}

func testProfileManager(t *testing.T) *profile.Manager {
	t.Helper()
	return profile.NewManager(filepath.Join(t.TempDir(), "profile.yaml"), nil)
}

func TestEngineCollectsParametersAndReplaysPrompt(t *testing.T) {
	sub := &scriptedSubmitter{outcomes: []pipeline.Outcome{
		needParam("partition"),
		needParam("allocation"),
		submittedOutcome("4821"),
	}}
	engine := NewEngine(nil, sub, nil, nil, nil)
	ctx := context.Background()

	reply := engine.HandleMessage(ctx, "run fastqc on ecoli")
	assert.True(t, reply.AwaitingInput)
	assert.Equal(t, StateAwaitingParameter, engine.State().Kind)
	assert.Equal(t, "partition", engine.State().ParamNeeded)

	reply = engine.HandleMessage(ctx, "gh")
	assert.True(t, reply.AwaitingInput)
	assert.Equal(t, "allocation", engine.State().ParamNeeded)

	reply = engine.HandleMessage(ctx, "A-123")
	assert.False(t, reply.AwaitingInput)
	assert.Equal(t, "4821", reply.JobID)
	assert.Equal(t, StateIdle, engine.State().Kind)

	// Every attempt replays the original utterance with the growing set.
	assert.Equal(t, []string{"run fastqc on ecoli", "run fastqc on ecoli", "run fastqc on ecoli"}, sub.prompts)
	assert.Equal(t, map[string]any{}, sub.params[0])
	assert.Equal(t, map[string]any{"partition": "gh"}, sub.params[1])
	assert.Equal(t, map[string]any{"partition": "gh", "allocation": "A-123"}, sub.params[2])
}

func TestEngineConsumesAnythingAsParameterValue(t *testing.T) {
	sub := &scriptedSubmitter{outcomes: []pipeline.Outcome{
		needParam("partition"),
		submittedOutcome("1"),
	}}
	engine := NewEngine(nil, sub, nil, nil, nil)
	ctx := context.Background()

	engine.HandleMessage(ctx, "run fastqc")
	// Reads like a new request, but mid-collection it is a literal value.
	engine.HandleMessage(ctx, "what was the result of job 99")

	assert.Equal(t, map[string]any{"partition": "what was the result of job 99"}, sub.params[1])
}

func TestEngineOffersToSaveCollectedValues(t *testing.T) {
	sub := &scriptedSubmitter{outcomes: []pipeline.Outcome{
		needParam("partition"),
		submittedOutcome("4821"),
	}}
	mgr := testProfileManager(t)
	engine := NewEngine(nil, sub, nil, mgr, nil)
	ctx := context.Background()

	engine.HandleMessage(ctx, "run fastqc")
	reply := engine.HandleMessage(ctx, "gh")

	assert.True(t, reply.AwaitingInput)
	assert.Equal(t, StateAwaitingSaveConfirmation, engine.State().Kind)
	assert.Contains(t, reply.Text, "Job submitted successfully with ID: 4821")
	assert.Contains(t, reply.Text, "save any of these values")
	assert.Contains(t, reply.Text, "partition")

	reply = engine.HandleMessage(ctx, "all")
	assert.Equal(t, StateIdle, engine.State().Kind)
	assert.Equal(t, "Saved to your profile: partition.", reply.Text)

	v, err := mgr.Get("partition")
	require.NoError(t, err)
	assert.Equal(t, "gh", v)
}

func TestEngineSaveReplyNone(t *testing.T) {
	sub := &scriptedSubmitter{outcomes: []pipeline.Outcome{
		needParam("partition"),
		submittedOutcome("1"),
	}}
	mgr := testProfileManager(t)
	engine := NewEngine(nil, sub, nil, mgr, nil)
	ctx := context.Background()

	engine.HandleMessage(ctx, "run fastqc")
	engine.HandleMessage(ctx, "gh")
	reply := engine.HandleMessage(ctx, "none")

	assert.Equal(t, "Okay, nothing saved.", reply.Text)
	_, err := os.Stat(mgr.Path())
	assert.True(t, os.IsNotExist(err), "nothing should be written")
}

func TestEngineSaveReplySubset(t *testing.T) {
	sub := &scriptedSubmitter{outcomes: []pipeline.Outcome{
		needParam("partition"),
		needParam("allocation"),
		submittedOutcome("1"),
	}}
	mgr := testProfileManager(t)
	engine := NewEngine(nil, sub, nil, mgr, nil)
	ctx := context.Background()

	engine.HandleMessage(ctx, "run fastqc")
	engine.HandleMessage(ctx, "gh")
	engine.HandleMessage(ctx, "A-123")
	reply := engine.HandleMessage(ctx, "allocation, bogus")

	assert.Equal(t, "Saved to your profile: allocation.", reply.Text)

	v, err := mgr.Get("allocation")
	require.NoError(t, err)
	assert.Equal(t, "A-123", v)
	v, err = mgr.Get("partition")
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestEngineNoSavePromptWithoutCollectedValues(t *testing.T) {
	sub := &scriptedSubmitter{outcomes: []pipeline.Outcome{submittedOutcome("4821")}}
	engine := NewEngine(nil, sub, nil, testProfileManager(t), nil)

	reply := engine.HandleMessage(context.Background(), "run fastqc")

	assert.False(t, reply.AwaitingInput)
	assert.Equal(t, StateIdle, engine.State().Kind)
	assert.NotContains(t, reply.Text, "save")
}

func TestEngineFailureEndsCollection(t *testing.T) {
	sub := &scriptedSubmitter{outcomes: []pipeline.Outcome{
		needParam("partition"),
		{Kind: pipeline.OutcomeFailed, Message: "Submission command failed"},
	}}
	engine := NewEngine(nil, sub, nil, nil, nil)
	ctx := context.Background()

	engine.HandleMessage(ctx, "run fastqc")
	reply := engine.HandleMessage(ctx, "gh")

	assert.Equal(t, "Submission command failed", reply.Text)
	assert.Equal(t, StateIdle, engine.State().Kind)
}

type historyClient struct{}

func (historyClient) ActiveStatuses(_ context.Context, _ []string) (map[string]scheduler.Status, error) {
	return map[string]scheduler.Status{"4821": scheduler.StatusRunning}, nil
}

func (historyClient) FinalStatuses(_ context.Context, _ []string) (map[string]scheduler.Status, error) {
	return map[string]scheduler.Status{}, nil
}

func TestEngineAnswersHistoryQueries(t *testing.T) {
	tracker := jobregistry.NewTracker(jobregistry.NewStore("", nil), historyClient{}, nil)
	require.NoError(t, tracker.Register("4821", "fastqc", t.TempDir(), nil))

	engine := NewEngine(nil, &scriptedSubmitter{outcomes: []pipeline.Outcome{submittedOutcome("x")}}, tracker, nil, nil)

	reply := engine.HandleMessage(context.Background(), "what was the status of job 4821?")
	assert.Equal(t, "Job 4821 is RUNNING.", reply.Text)
	assert.Equal(t, StateIdle, engine.State().Kind)
}

func TestEngineHistoryFallsBackToLatestJob(t *testing.T) {
	tracker := jobregistry.NewTracker(jobregistry.NewStore("", nil), historyClient{}, nil)
	require.NoError(t, tracker.Register("4821", "fastqc", t.TempDir(), nil))

	engine := NewEngine(nil, &scriptedSubmitter{outcomes: []pipeline.Outcome{submittedOutcome("x")}}, tracker, nil, nil)

	reply := engine.HandleMessage(context.Background(), "tell me about my last job")
	assert.Contains(t, reply.Text, "Job 4821 is")
}

func TestEngineHistoryWithNoJobs(t *testing.T) {
	tracker := jobregistry.NewTracker(jobregistry.NewStore("", nil), historyClient{}, nil)
	engine := NewEngine(nil, &scriptedSubmitter{outcomes: []pipeline.Outcome{submittedOutcome("x")}}, tracker, nil, nil)

	reply := engine.HandleMessage(context.Background(), "what was the result?")
	assert.Equal(t, "No jobs have been submitted yet.", reply.Text)
}
