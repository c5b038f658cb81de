// Package tool implements the seven MCP tool handlers biff exposes: plan,
// mesg, who, finger, write, read_messages, last. Each handler reads
// identity/session from the process-wide server.State, heartbeats,
// performs its primary action against the selected Relay, and returns a
// pre-formatted text result.
package tool

import (
	"bytes"
	"fmt"
	"text/tabwriter"
)

// render formats a columnar table shared by who, read_messages, and last:
// every row, including the header, leads with a one-column sentinel ("▶"
// on the header, a blank cell on data rows) so all of biff's tables share
// the same leading column and line up with each other in a terminal.
func render(headers []string, rows [][]string) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	fmt.Fprint(w, "▶")
	for _, h := range headers {
		fmt.Fprintf(w, "\t%s", h)
	}
	fmt.Fprintln(w)

	for _, row := range rows {
		fmt.Fprint(w, " ")
		for _, cell := range row {
			fmt.Fprintf(w, "\t%s", cell)
		}
		fmt.Fprintln(w)
	}

	w.Flush()
	return buf.String()
}
