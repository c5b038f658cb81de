package awareness

import (
	"context"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biffhq/biff/internal/event"
	"github.com/biffhq/biff/internal/model"
)

// fakeRelay implements relay.Relay with only PeekUnreadCount/PeekPreview
// behavior configurable; every other method is unused by the engine.
type fakeRelay struct {
	count   int
	preview string
}

func (f *fakeRelay) PutSession(context.Context, string, model.UserSession) error { return nil }
func (f *fakeRelay) TouchSession(context.Context, string, model.SessionKey, time.Time) error {
	return nil
}
func (f *fakeRelay) ListSessions(context.Context, string) ([]model.UserSession, error) { return nil, nil }
func (f *fakeRelay) GetSession(context.Context, string, string) (model.UserSession, bool, error) {
	return model.UserSession{}, false, nil
}
func (f *fakeRelay) RemoveSession(context.Context, string, model.SessionKey) error { return nil }
func (f *fakeRelay) SetPlan(context.Context, string, model.SessionKey, string) error { return nil }
func (f *fakeRelay) SetMesg(context.Context, string, model.SessionKey, bool) error   { return nil }
func (f *fakeRelay) Deliver(context.Context, string, model.Message) error           { return nil }
func (f *fakeRelay) DrainFor(context.Context, string, string, string) ([]model.Message, error) {
	return nil, nil
}
func (f *fakeRelay) PeekUnreadCount(context.Context, string, string, string) (int, error) {
	return f.count, nil
}
func (f *fakeRelay) PeekPreview(context.Context, string, string, string) (string, error) {
	return f.preview, nil
}
func (f *fakeRelay) LogEvent(context.Context, string, model.SessionEvent) error { return nil }
func (f *fakeRelay) RecentEvents(context.Context, string, string, int) ([]model.SessionEvent, error) {
	return nil, nil
}
func (f *fakeRelay) Close() error { return nil }

func readMessagesStub(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText("ok"), nil
}

func TestEngine_RefreshMutatesDescriptionOnChange(t *testing.T) {
	s := server.NewMCPServer("biff", "test", server.WithToolCapabilities(true))
	s.AddTool(mcp.NewTool(ReadMessagesToolName, mcp.WithDescription("Check messages.")), readMessagesStub)

	r := &fakeRelay{count: 2, preview: "hi there"}
	bus := event.NewBus()
	defer bus.Close()
	e := New(s, readMessagesStub, r, "myrepo", bus, zerolog.Nop())

	e.Refresh(context.Background(), "kai", "aabb1122")

	tool := s.GetTool(ReadMessagesToolName)
	require.NotNil(t, tool)
	assert.Contains(t, tool.Tool.Description, "2 unread")
	assert.Contains(t, tool.Tool.Description, "hi there")
}

func TestEngine_RefreshRevertsToPlainDescriptionWhenDrained(t *testing.T) {
	s := server.NewMCPServer("biff", "test", server.WithToolCapabilities(true))
	s.AddTool(mcp.NewTool(ReadMessagesToolName, mcp.WithDescription("Check messages.")), readMessagesStub)

	r := &fakeRelay{count: 0}
	bus := event.NewBus()
	defer bus.Close()
	e := New(s, readMessagesStub, r, "myrepo", bus, zerolog.Nop())
	e.lastCount = 3 // simulate a prior nonzero count so zero registers as a change

	e.Refresh(context.Background(), "kai", "aabb1122")

	tool := s.GetTool(ReadMessagesToolName)
	require.NotNil(t, tool)
	assert.Equal(t, "Check messages.", tool.Tool.Description)
}

func TestEngine_RefreshNoopWhenUnchanged(t *testing.T) {
	s := server.NewMCPServer("biff", "test", server.WithToolCapabilities(true))
	s.AddTool(mcp.NewTool(ReadMessagesToolName, mcp.WithDescription("Check messages.")), readMessagesStub)

	r := &fakeRelay{count: 0}
	bus := event.NewBus()
	defer bus.Close()
	e := New(s, readMessagesStub, r, "myrepo", bus, zerolog.Nop())

	e.Refresh(context.Background(), "kai", "aabb1122")

	tool := s.GetTool(ReadMessagesToolName)
	require.NotNil(t, tool)
	assert.Equal(t, "Check messages.", tool.Tool.Description)
}

func TestEngine_CaptureSessionIgnoresNil(t *testing.T) {
	s := server.NewMCPServer("biff", "test", server.WithToolCapabilities(true))
	bus := event.NewBus()
	defer bus.Close()
	e := New(s, readMessagesStub, &fakeRelay{}, "myrepo", bus, zerolog.Nop())
	e.CaptureSession(nil)
	assert.Nil(t, e.cachedSession)
}
