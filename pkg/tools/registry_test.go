package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTool struct {
	name   string
	result string
	args   []byte
}

func (s *stubTool) Name() string                      { return s.name }
func (s *stubTool) Description() string               { return "stub" }
func (s *stubTool) Schema() map[string]interface{}    { return BaseToolSchema(nil, nil) }
func (s *stubTool) Execute(_ context.Context, args []byte) (string, map[string]interface{}, error) {
	s.args = args
	return s.result, nil, nil
}

func TestRegistry_RegisterAndList(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(&stubTool{name: "beta"}))
	require.NoError(t, registry.Register(&stubTool{name: "alpha"}))

	// Duplicate names are rejected.
	assert.Error(t, registry.Register(&stubTool{name: "alpha"}))

	list := registry.List()
	require.Len(t, list, 2)
	assert.Equal(t, "beta", list[0].Name())
	assert.Equal(t, "alpha", list[1].Name())
}

func TestRegistry_Dispatch(t *testing.T) {
	registry := NewRegistry()
	tool := &stubTool{name: "echo", result: "done"}
	require.NoError(t, registry.Register(tool))

	call, _, err := ParseToolCall(`<tool><tool_name>echo</tool_name><arguments><v>1</v></arguments></tool>`)
	require.NoError(t, err)

	result, _, err := registry.Dispatch(context.Background(), call)
	require.NoError(t, err)
	assert.Equal(t, "done", result)
	assert.Contains(t, string(tool.args), "<v>1</v>")
}

func TestRegistry_DispatchUnknownTool(t *testing.T) {
	registry := NewRegistry()
	call, _, err := ParseToolCall(`<tool><tool_name>missing</tool_name><arguments></arguments></tool>`)
	require.NoError(t, err)

	_, _, err = registry.Dispatch(context.Background(), call)
	assert.Error(t, err)
}
