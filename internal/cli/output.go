package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/cryodb/cryo/reldb"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // successful execution
	ExitFailure      = 1 // operation failed (query error, removal refused, etc.)
	ExitCommandError = 2 // command error (unknown dataset, bad flags, etc.)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error // underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// renderTable writes a query result as an aligned text table.
func renderTable(w io.Writer, t *reldb.Table) {
	tw := tablewriter.NewWriter(w)
	tw.Header(t.Columns)
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatValue(v)
		}
		tw.Append(cells)
	}
	tw.Render()
}

// renderJSON writes a query result as a JSON document with a stable shape:
// a columns array and a rows array of arrays, in engine order.
func renderJSON(w io.Writer, t *reldb.Table) error {
	rows := make([][]any, len(t.Rows))
	for i, row := range t.Rows {
		out := make([]any, len(row))
		for j, v := range row {
			// BLOB values come back as bytes; encode them as strings
			// rather than base64.
			if b, ok := v.([]byte); ok {
				out[j] = string(b)
			} else {
				out[j] = v
			}
		}
		rows[i] = out
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"columns": t.Columns,
		"rows":    rows,
	})
}

// formatValue renders a SQLite value for table output.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
