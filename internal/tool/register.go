package tool

import (
	mcpserver "github.com/mark3labs/mcp-go/server"

	biffserver "github.com/biffhq/biff/internal/server"
)

// Instructions is the MCP server's startup instructions string, shown to
// clients that display it alongside the tool list.
const Instructions = "biff: presence (who, finger, plan), messaging (write, read_messages), " +
	"availability (mesg), and session history (last) for this repository. " +
	"read_messages' description updates live as unread mail arrives."

// Register attaches all seven tools to mcpServer as closures over state,
// and returns the read_messages handler so the caller can hand it to
// server.Start (which needs it to construct the awareness engine). state
// is expected to be a zero-value *server.State at this point; Register's
// handlers only read it once the transport starts dispatching calls, by
// which time Start has populated it in place.
func Register(mcpServer *mcpserver.MCPServer, state *biffserver.State) mcpserver.ToolHandlerFunc {
	readMessages := ReadMessages(state)

	mcpServer.AddTool(planTool(), Plan(state))
	mcpServer.AddTool(mesgTool(), Mesg(state))
	mcpServer.AddTool(whoTool(), Who(state))
	mcpServer.AddTool(fingerTool(), Finger(state))
	mcpServer.AddTool(writeTool(), Write(state))
	mcpServer.AddTool(readMessagesTool(), readMessages)
	mcpServer.AddTool(lastTool(), Last(state))

	return readMessages
}
