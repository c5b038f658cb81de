// Package awareness implements the background mechanism that turns a
// change in unread message count into three visible signals: a mutated
// read_messages tool description, a tools/list_changed notification on
// the most recently seen transport session, and a per-repository status
// file for external status-bar collaborators.
package awareness

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/biffhq/biff/internal/config"
	"github.com/biffhq/biff/internal/event"
	"github.com/biffhq/biff/internal/relay"
	"github.com/biffhq/biff/internal/storage"
)

// TPoll is the background poller's cadence.
const TPoll = 2 * time.Second

const previewLen = 40

// ReadMessagesToolName must match the name the tool layer registers
// read_messages under, so description mutation targets the right entry.
const ReadMessagesToolName = "read_messages"

// Engine owns the one mutable process-wide piece of awareness state: the
// cached request-scoped transport session, and the last-observed
// (count, preview) pair. Every mutation is serialized by mu so at most
// one description change / notification is in flight at a time.
type Engine struct {
	mcpServer    *server.MCPServer
	readMessages server.ToolHandlerFunc
	relay        relay.Relay
	repo         string
	statusDir    *storage.Storage
	bus          *event.Bus
	log          zerolog.Logger

	mu            sync.Mutex
	cachedSession server.ClientSession
	lastCount     int
	lastPreview   string
}

// New constructs an Engine bound to one repository and one MCPServer
// instance, and subscribes its description-mutation and notification
// surfaces to bus's UnreadChanged event (the status file is written
// directly by Refresh). readMessages is
// the live read_messages handler: every description mutation re-registers
// the tool with this same handler, only the description text changes.
// statusDir is rooted at {home}/.biff/unread.
func New(mcpServer *server.MCPServer, readMessages server.ToolHandlerFunc, r relay.Relay, repo string, bus *event.Bus, log zerolog.Logger) *Engine {
	e := &Engine{
		mcpServer:    mcpServer,
		readMessages: readMessages,
		relay:        r,
		repo:         repo,
		statusDir:    storage.New(config.UnreadDir()),
		bus:          bus,
		log:          log.With().Str("component", "awareness").Logger(),
	}

	bus.Subscribe(event.UnreadChanged, e.onUnreadChanged)
	return e
}

// onUnreadChanged drives the description-mutation and notification
// surfaces from one UnreadChangedData payload; the status file is written
// unconditionally by Refresh regardless of whether anything changed (§4.5
// writes it "on every change and on every tool call"), so it isn't a
// subscriber here.
func (e *Engine) onUnreadChanged(ev event.Event) {
	data, ok := ev.Data.(event.UnreadChangedData)
	if !ok {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.mutateDescription(data.Count, data.Preview)
	e.notify(context.Background(), e.cachedSession)
}

// CaptureSession records the most recent request-scoped transport session,
// so the background poller has something to notify when it has no request
// of its own. Safe to call on every tool invocation.
func (e *Engine) CaptureSession(session server.ClientSession) {
	if session == nil {
		return
	}
	e.mu.Lock()
	e.cachedSession = session
	e.mu.Unlock()
}

// Refresh re-reads unread state for (login, tty), rewrites the status file
// on every call, and, on change, publishes UnreadChanged so the
// read_messages description is mutated and a notification emitted. Called
// synchronously after every tool call's primary
// action, and once per poller tick. Failures are logged and swallowed:
// the awareness subsystem never fails a tool call or stops the poller.
func (e *Engine) Refresh(ctx context.Context, login, tty string) {
	count, err := e.relay.PeekUnreadCount(ctx, e.repo, login, tty)
	if err != nil {
		e.log.Warn().Err(err).Str("login", login).Msg("peek unread count failed")
		return
	}

	preview := ""
	if count > 0 {
		if p, err := e.relay.PeekPreview(ctx, e.repo, login, tty); err == nil {
			preview = truncatePreview(p)
		}
	}

	e.mu.Lock()
	changed := count != e.lastCount || preview != e.lastPreview
	e.lastCount = count
	e.lastPreview = preview
	e.mu.Unlock()

	if err := e.writeStatusFile(count, preview); err != nil {
		e.log.Warn().Err(err).Msg("write status file failed")
	}

	if !changed {
		return
	}
	e.bus.PublishSync(event.Event{
		Type: event.UnreadChanged,
		Data: event.UnreadChangedData{Session: login + ":" + tty, Count: count, Preview: preview},
	})
}

func (e *Engine) mutateDescription(count int, preview string) {
	desc := "Check messages."
	if count > 0 {
		desc = "Check messages (" + strconv.Itoa(count) + " unread: " + preview + "). Marks all as read."
	}

	e.mcpServer.AddTool(mcp.NewTool(ReadMessagesToolName, mcp.WithDescription(desc)), e.readMessages)
}

func (e *Engine) notify(ctx context.Context, session server.ClientSession) {
	if session == nil || e.mcpServer == nil {
		return
	}
	if err := e.mcpServer.SendNotificationToClient(ctx, session.SessionID(), "notifications/tools/list_changed", nil); err != nil {
		e.log.Debug().Err(err).Msg("send tools/list_changed failed")
	}
}

type statusFile struct {
	Count   int    `json:"count"`
	Preview string `json:"preview"`
}

func (e *Engine) writeStatusFile(count int, preview string) error {
	return e.statusDir.Put(context.Background(), []string{e.repo}, statusFile{Count: count, Preview: preview})
}

// Run starts the background poller, ticking every TPoll until ctx is
// canceled. It exits within one tick of cancellation.
func (e *Engine) Run(ctx context.Context, login, tty string) {
	ticker := time.NewTicker(TPoll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Refresh(ctx, login, tty)
		}
	}
}

func truncatePreview(body string) string {
	r := []rune(body)
	if len(r) <= previewLen {
		return body
	}
	return string(r[:previewLen]) + "…"
}
