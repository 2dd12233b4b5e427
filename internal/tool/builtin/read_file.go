package builtin

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/hualet/deepin-term-agent/internal/config"
	"github.com/hualet/deepin-term-agent/internal/tool"
)

func newReadFile(cfg *config.Config) tool.Handler {
	desc := tool.Descriptor{
		Name:        "read_file",
		Description: "Read a file's contents, optionally limited to a number of lines",
		Schema: tool.Schema{Params: map[string]tool.Param{
			"path":      {Kind: tool.KindString, Description: "Path to the file to read", Required: true},
			"max_lines": {Kind: tool.KindInteger, Description: "Maximum number of lines to read (default 1000)"},
		}},
	}

	return newHandler(desc, func(ctx context.Context, req readFileRequest) (map[string]any, error) {
		maxLines := req.MaxLines
		if maxLines == 0 {
			maxLines = cfg.Tools.DefaultReadFileMaxLines
		}

		info, err := os.Stat(req.Path)
		if err != nil {
			return nil, classifyPathError(err)
		}
		if info.IsDir() {
			return nil, tool.WrapKind(tool.FailNotFound, ErrNotRegularFile)
		}
		if info.Size() > cfg.Tools.MaxFileSize {
			return nil, tool.Kindf(tool.FailInternal, "file exceeds size limit (%d bytes)", cfg.Tools.MaxFileSize)
		}

		f, err := os.Open(req.Path)
		if err != nil {
			return nil, classifyPathError(err)
		}
		defer f.Close()

		var lines []string
		truncated := false
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			if len(lines) >= maxLines {
				truncated = true
				break
			}
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, classifyPathError(err)
		}

		return map[string]any{
			"path":      req.Path,
			"content":   strings.Join(lines, "\n"),
			"lines":     len(lines),
			"size":      info.Size(),
			"truncated": truncated,
		}, nil
	})
}

// classifyPathError maps filesystem errors to failure kinds.
func classifyPathError(err error) error {
	switch {
	case os.IsNotExist(err):
		return tool.WrapKind(tool.FailNotFound, err)
	case os.IsPermission(err):
		return tool.WrapKind(tool.FailPermission, err)
	default:
		return err
	}
}
