package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adalundhe/shopkeep/core/sheets"
	"github.com/adalundhe/shopkeep/core/skills"
)

// mockMessagesClient replays scripted responses and records every call.
type mockMessagesClient struct {
	responses []*anthropic.Message
	calls     []anthropic.MessageNewParams
	err       error
}

func (m *mockMessagesClient) New(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	m.calls = append(m.calls, params)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.responses) == 0 {
		return nil, errors.New("mock: no scripted response left")
	}
	next := m.responses[0]
	m.responses = m.responses[1:]
	return next, nil
}

func unmarshalMessage(raw string) *anthropic.Message {
	var msg anthropic.Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		panic(err)
	}
	return &msg
}

func textResponse(text string) *anthropic.Message {
	block, _ := json.Marshal(map[string]any{"type": "text", "text": text})
	return unmarshalMessage(`{"role":"assistant","content":[` + string(block) + `],"stop_reason":"end_turn"}`)
}

func toolUseResponse(id, name, input string) *anthropic.Message {
	block, _ := json.Marshal(map[string]any{
		"type": "tool_use", "id": id, "name": name, "input": json.RawMessage(input),
	})
	return unmarshalMessage(`{"role":"assistant","content":[` + string(block) + `],"stop_reason":"tool_use"}`)
}

func newMockAgent(t *testing.T, fake *sheets.FakeService, mock *mockMessagesClient) *Agent {
	t.Helper()
	reg := newTestRegistry(t, fake)
	return NewAgentWithClient(AgentConfig{Model: "test-model"}, reg, mock)
}

func TestChat_TextOnly(t *testing.T) {
	fake := sheets.NewFakeService()
	seedShop(fake)

	mock := &mockMessagesClient{responses: []*anthropic.Message{
		textResponse("Hello! What can I get you today?"),
	}}
	agent := newMockAgent(t, fake, mock)

	reply, err := agent.Chat(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello! What can I get you today?", reply)
	assert.Len(t, mock.calls, 1)

	// Model sees the system prompt and the full tool surface.
	require.Len(t, mock.calls[0].System, 1)
	assert.Contains(t, mock.calls[0].System[0].Text, "shopkeeper")
	assert.Len(t, mock.calls[0].Tools, 10)
}

func TestChat_ToolLoop(t *testing.T) {
	fake := sheets.NewFakeService()
	seedShop(fake)

	mock := &mockMessagesClient{responses: []*anthropic.Message{
		toolUseResponse("tu_1", "get_inventory", `{"query": "all"}`),
		textResponse("We have Aloe Gel, Face Cream and Pizza in stock."),
	}}
	agent := newMockAgent(t, fake, mock)

	reply, err := agent.Chat(context.Background(), "what do you sell?")
	require.NoError(t, err)
	assert.Equal(t, "We have Aloe Gel, Face Cream and Pizza in stock.", reply)
	assert.Len(t, mock.calls, 2)

	// The tool actually ran against the sheet.
	assert.NotEmpty(t, fake.Gets)

	// Second call carries user msg, assistant tool_use, tool result.
	assert.Len(t, mock.calls[1].Messages, 3)
}

func TestChat_ToolExecutesOrder(t *testing.T) {
	fake := sheets.NewFakeService()
	seedShop(fake)

	orderInput := `{
		"customer_name": "Ali Khan",
		"product_name": "Aloe Gel",
		"quantity": 3,
		"customer_email": "ali@example.com",
		"customer_address": "12 Canal Road",
		"payment_mode": "COD"
	}`
	mock := &mockMessagesClient{responses: []*anthropic.Message{
		toolUseResponse("tu_1", "process_customer_order", orderInput),
		textResponse("Your order is placed!"),
	}}
	agent := newMockAgent(t, fake, mock)

	reply, err := agent.Chat(context.Background(), "order 3 aloe gel please")
	require.NoError(t, err)
	assert.Equal(t, "Your order is placed!", reply)
	assert.Equal(t, "47", fake.Cell(testWorkbook, inventorySheet, 3, 2))
	assert.Equal(t, 2, fake.RowCount(testWorkbook, ordersSheet))
}

func TestChat_UnknownToolReportsError(t *testing.T) {
	fake := sheets.NewFakeService()
	seedShop(fake)

	mock := &mockMessagesClient{responses: []*anthropic.Message{
		toolUseResponse("tu_1", "no_such_tool", `{}`),
		textResponse("Sorry, something went wrong."),
	}}
	agent := newMockAgent(t, fake, mock)

	reply, err := agent.Chat(context.Background(), "do the thing")
	require.NoError(t, err)
	assert.Equal(t, "Sorry, something went wrong.", reply)
	assert.Len(t, mock.calls, 2)
}

func TestChat_HistoryAccumulates(t *testing.T) {
	fake := sheets.NewFakeService()
	seedShop(fake)

	mock := &mockMessagesClient{responses: []*anthropic.Message{
		textResponse("Hello!"),
		textResponse("We are open until six."),
	}}
	agent := newMockAgent(t, fake, mock)

	_, err := agent.Chat(context.Background(), "hi")
	require.NoError(t, err)
	_, err = agent.Chat(context.Background(), "when do you close?")
	require.NoError(t, err)

	// Second turn sees both prior messages plus the new one.
	assert.Len(t, mock.calls[1].Messages, 3)

	agent.Reset()
	mock.responses = []*anthropic.Message{textResponse("Hello again!")}
	_, err = agent.Chat(context.Background(), "hi again")
	require.NoError(t, err)
	assert.Len(t, mock.calls[2].Messages, 1)
}

func TestRenderToolResult(t *testing.T) {
	payload, isError := renderToolResult(&skills.Result{
		Success: true,
		Data:    map[string]any{"success": true},
	})
	assert.False(t, isError)
	assert.JSONEq(t, `{"success": true}`, payload)

	payload, isError = renderToolResult(&skills.Result{
		Success: false,
		Error:   "skill not found: nope",
	})
	assert.True(t, isError)
	assert.JSONEq(t, `{"error": "skill not found: nope"}`, payload)
}
