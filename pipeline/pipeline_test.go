package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andyMattick/eduagents/agent"
	"github.com/andyMattick/eduagents/core"
	"github.com/andyMattick/eduagents/generation"
	"github.com/andyMattick/eduagents/internal/testutil"
	"github.com/andyMattick/eduagents/logging"
	"github.com/andyMattick/eduagents/model"
)

func newWriter(response string) (*generation.Service, *model.MockModel) {
	m := model.NewMockModel("mock-writer", "mock")
	m.SetDefaultResponse(response)
	return generation.NewService(m), m
}

func quizRequest() Request {
	return Request{
		Topic: "fractions",
		Goals: generation.Goals{"remember": 1, "apply": 2},
		Count: 3,
	}
}

func stepNames(tr *core.PipelineTrace) []string {
	var names []string
	for _, s := range tr.Steps() {
		names = append(names, s.AgentName)
	}
	return names
}

func TestPipeline_Run(t *testing.T) {
	writer, _ := newWriter(testutil.ProblemsJSON("remember", "apply", "apply"))
	p := New(writer)

	res, err := p.Run(context.Background(), quizRequest())

	require.NoError(t, err)
	require.NotNil(t, res.Trace)
	assert.Equal(t, []string{StepWriter, StepValidator}, stepNames(res.Trace))
	assert.Empty(t, res.Trace.Failed())

	require.Len(t, res.Problems, 3)
	for _, prob := range res.Problems {
		assert.NotEmpty(t, prob.ID)
	}
	assert.Equal(t, map[generation.BloomLevel]int{generation.Remember: 1, generation.Apply: 2}, res.Coverage)
	assert.Equal(t, "mock-writer", res.Model.Name)
	assert.NotNil(t, res.Usage)

	steps := res.Trace.Steps()
	assert.Equal(t, "fractions", steps[0].Input["topic"])
	assert.Contains(t, steps[0].Input, agent.StartedAtKey)
	assert.Contains(t, steps[1].Input, agent.PayloadKey, "struct input is wrapped")
	assert.Equal(t, res.Problems, steps[1].Output)
}

func TestPipeline_LogsCarryTraceID(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelInfo, Format: "json", Output: &buf})
	writer, _ := newWriter(testutil.ProblemsJSON("remember", "apply", "apply"))

	res, err := New(writer, func(o *Options) { o.Logger = logger }).Run(context.Background(), quizRequest())
	require.NoError(t, err)

	var msgs []string
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		assert.Equal(t, res.Trace.ID, entry["trace_id"], entry["msg"])
		msgs = append(msgs, entry["msg"].(string))
	}
	assert.Equal(t, []string{"Pipeline started", "Agent step completed", "Agent step completed", "Pipeline completed"}, msgs)
}

func TestPipeline_EachRunOwnsItsTrace(t *testing.T) {
	writer, _ := newWriter(testutil.ProblemsJSON("apply"))
	p := New(writer)
	req := Request{Topic: "fractions", Goals: generation.Goals{"apply": 1}, Count: 1}

	first, err := p.Run(context.Background(), req)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), req)
	require.NoError(t, err)

	assert.NotEqual(t, first.Trace.ID, second.Trace.ID)
	assert.Equal(t, 2, first.Trace.Len())
	assert.Equal(t, 2, second.Trace.Len())
}

func TestPipeline_WriterFailure(t *testing.T) {
	writer, m := newWriter("")
	quota := errors.New("quota exceeded")
	m.FailWith(quota)

	res, err := New(writer).Run(context.Background(), quizRequest())

	require.Error(t, err)
	assert.ErrorIs(t, err, quota)

	var agentErr *core.AgentError
	require.ErrorAs(t, err, &agentErr)
	assert.Equal(t, StepWriter, agentErr.Agent)

	require.NotNil(t, res.Trace)
	require.Equal(t, 1, res.Trace.Len())
	step, _ := res.Trace.Last()
	assert.Nil(t, step.Output)
	assert.Equal(t, []string{"generate problems: quota exceeded"}, step.Errors)
	assert.Empty(t, res.Problems)
}

func TestPipeline_InvalidRequestIsRecorded(t *testing.T) {
	writer, m := newWriter(testutil.ProblemsJSON("apply"))

	res, err := New(writer).Run(context.Background(), Request{Topic: " ", Goals: generation.Goals{"apply": 1}, Count: 1})

	assert.ErrorIs(t, err, core.ErrInvalidArgument)
	assert.Equal(t, 1, res.Trace.Len())
	assert.Len(t, res.Trace.Failed(), 1)
	assert.Empty(t, m.Requests(), "no model call for invalid input")
}

func TestPipeline_Refiner(t *testing.T) {
	writer, _ := newWriter(testutil.ProblemsJSON("remember", "apply", "apply"))
	refinerModel := model.NewMockModel("mock-refiner", "mock")
	refinerModel.SetDefaultResponse(testutil.ProblemsJSON("remember", "apply", "apply"))

	p := New(writer, func(o *Options) { o.Refiner = generation.NewRefiner(refinerModel) })
	res, err := p.Run(context.Background(), quizRequest())

	require.NoError(t, err)
	assert.Equal(t, []string{StepWriter, StepValidator, StepRefiner}, stepNames(res.Trace))
	require.Len(t, res.Problems, 3)

	validated := res.Trace.Steps()[1].Output.([]generation.Problem)
	for i := range validated {
		assert.Equal(t, validated[i].ID, res.Problems[i].ID, "refiner keeps ids")
	}
	assert.Len(t, refinerModel.Requests(), 1)
}

func TestPipeline_RefinerFailure(t *testing.T) {
	writer, _ := newWriter(testutil.ProblemsJSON("remember", "apply", "apply"))
	refinerModel := model.NewMockModel("mock-refiner", "mock")
	refinerModel.SetDefaultResponse(testutil.ProblemsJSON("apply"))

	p := New(writer, func(o *Options) { o.Refiner = generation.NewRefiner(refinerModel) })
	res, err := p.Run(context.Background(), quizRequest())

	assert.ErrorIs(t, err, generation.ErrMalformedResponse)
	var agentErr *core.AgentError
	require.ErrorAs(t, err, &agentErr)
	assert.Equal(t, StepRefiner, agentErr.Agent)

	require.Equal(t, 3, res.Trace.Len())
	failed := res.Trace.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, StepRefiner, failed[0].AgentName)
}

func TestValidate(t *testing.T) {
	in := generation.Result{
		Requested: 2,
		Problems: []generation.Problem{
			{Question: "What is 1/2 of 4?", BloomLevel: generation.Apply},
			{Question: "  what is 1/2   OF 4? ", BloomLevel: generation.Apply},
			{Question: "", BloomLevel: generation.Remember},
			{ID: "keep-me", Question: "Define a numerator.", BloomLevel: generation.Remember},
			{Question: "Compare 1/3 and 1/4.", BloomLevel: generation.Analyze},
		},
	}

	out, err := validate(context.Background(), in)

	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "What is 1/2 of 4?", out[0].Question)
	assert.NotEmpty(t, out[0].ID)
	assert.Equal(t, "keep-me", out[1].ID)
	assert.Empty(t, in.Problems[0].ID, "input is not modified")
}

func TestValidate_NothingLeft(t *testing.T) {
	_, err := validate(context.Background(), generation.Result{
		Requested: 1,
		Problems:  []generation.Problem{{Question: "   "}},
	})
	assert.ErrorIs(t, err, generation.ErrNoProblems)
}

func TestCoverage(t *testing.T) {
	got := Coverage([]generation.Problem{
		{BloomLevel: generation.Create},
		{BloomLevel: generation.Create},
		{BloomLevel: ""},
	})
	assert.Equal(t, map[generation.BloomLevel]int{generation.Create: 2}, got)
}
