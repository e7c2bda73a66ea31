package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andyMattick/eduagents/core"
)

func userRequest(text string) Request {
	return Request{Contents: []core.Content{core.NewTextContent("user", text)}}
}

func TestMockModel_CannedAndDefault(t *testing.T) {
	m := NewMockModel("mock-1", "mock")
	m.AddResponse("hi", "hello")
	m.SetDefaultResponse(`{"problems":[]}`)

	resp, err := Collect(context.Background(), m, userRequest("hi"))
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Content.Text())
	assert.Equal(t, "stop", resp.FinishReason)
	require.NotNil(t, resp.Usage)

	resp, err = Collect(context.Background(), m, userRequest("other"))
	require.NoError(t, err)
	assert.Equal(t, `{"problems":[]}`, resp.Content.Text())

	assert.Len(t, m.Requests(), 2)
	assert.Equal(t, Info{Name: "mock-1", Provider: "mock"}, m.Info())
}

func TestMockModel_EchoFallback(t *testing.T) {
	m := NewMockModel("mock-1", "mock")
	resp, err := Collect(context.Background(), m, userRequest("ping"))
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: ping", resp.Content.Text())
}

func TestMockModel_FailWith(t *testing.T) {
	m := NewMockModel("mock-1", "mock")
	quota := errors.New("quota exceeded")
	m.FailWith(quota)

	_, err := Collect(context.Background(), m, userRequest("hi"))
	assert.ErrorIs(t, err, quota)

	m.FailWith(nil)
	_, err = Collect(context.Background(), m, userRequest("hi"))
	assert.NoError(t, err)
}

func TestMockModel_NoContents(t *testing.T) {
	m := NewMockModel("mock-1", "mock")
	_, err := Collect(context.Background(), m, Request{})
	assert.Error(t, err)
}

func TestCollect_StreamingKeepsFinal(t *testing.T) {
	m := NewMockModel("mock-1", "mock")
	m.AddResponse("hi", "hello")

	req := userRequest("hi")
	req.Stream = true
	resp, err := Collect(context.Background(), m, req)
	require.NoError(t, err)
	assert.False(t, resp.Partial)
	assert.Equal(t, "hello", resp.Content.Text())
}

type silentModel struct{}

func (silentModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response)
	errCh := make(chan error)
	close(respCh)
	close(errCh)
	return respCh, errCh
}

func (silentModel) Info() Info { return Info{Name: "silent"} }

func TestCollect_NoResponse(t *testing.T) {
	_, err := Collect(context.Background(), silentModel{}, userRequest("hi"))
	assert.ErrorIs(t, err, ErrNoResponse)
}

type blockingModel struct{}

func (blockingModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	return make(chan Response), make(chan error)
}

func (blockingModel) Info() Info { return Info{Name: "blocking"} }

func TestCollect_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Collect(ctx, blockingModel{}, userRequest("hi"))
	assert.ErrorIs(t, err, context.Canceled)
}
