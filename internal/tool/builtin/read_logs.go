package builtin

import (
	"context"
	"regexp"
	"strings"

	"github.com/hualet/deepin-term-agent/internal/config"
	"github.com/hualet/deepin-term-agent/internal/tool"
)

func newReadLogs(cfg *config.Config) tool.Handler {
	desc := tool.Descriptor{
		Name:        "read_logs",
		Description: "Read the tail of a log file, optionally filtering lines by pattern",
		Schema: tool.Schema{Params: map[string]tool.Param{
			"path":    {Kind: tool.KindString, Description: "Path to the log file", Required: true},
			"lines":   {Kind: tool.KindInteger, Description: "Number of lines from the end (default 100)"},
			"pattern": {Kind: tool.KindString, Description: "Regex or substring to filter lines"},
		}},
	}

	return newHandler(desc, func(ctx context.Context, req readLogsRequest) (map[string]any, error) {
		lineCount := req.Lines
		if lineCount == 0 {
			lineCount = cfg.Tools.DefaultLogLines
		}
		if lineCount > cfg.Tools.MaxLogLines {
			lineCount = cfg.Tools.MaxLogLines
		}

		tail, err := tailLines(req.Path, lineCount, cfg.Tools.LogWholeFileThreshold, cfg.Tools.LogTailChunkSize)
		if err != nil {
			return nil, classifyPathError(err)
		}

		lines := tail.Lines
		if req.Pattern != "" {
			lines = filterLines(lines, req.Pattern)
		}

		return map[string]any{
			"path":      req.Path,
			"content":   strings.Join(lines, "\n"),
			"lines":     len(lines),
			"truncated": tail.Truncated,
		}, nil
	})
}

// filterLines keeps lines matching pattern, treating it as a regular
// expression when it compiles and as a plain substring otherwise.
func filterLines(lines []string, pattern string) []string {
	var matched []string
	re, err := regexp.Compile(pattern)
	if err != nil {
		for _, line := range lines {
			if strings.Contains(line, pattern) {
				matched = append(matched, line)
			}
		}
		return matched
	}
	for _, line := range lines {
		if re.MatchString(line) {
			matched = append(matched, line)
		}
	}
	return matched
}
