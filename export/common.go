package export

import (
	"context"
	"strconv"
	"time"
)

// FormatVersion is bumped whenever a table layout changes.
const FormatVersion = 1

func (r *Runner) exportCommon(ctx context.Context, sink Sink) error {
	if err := sink.Exec(ctx, `CREATE TABLE IF NOT EXISTS Common
(
    Item    TEXT    NOT NULL PRIMARY KEY,
    Value   TEXT    NOT NULL
)`); err != nil {
		return err
	}

	return sink.Insert(ctx, "Common", []string{"Item", "Value"}, [][]any{
		{"FormatVersion", strconv.Itoa(FormatVersion)},
		{"RunID", r.runID.String()},
		{"ExportedAt", time.Now().UTC().Format(time.RFC3339)},
	})
}
