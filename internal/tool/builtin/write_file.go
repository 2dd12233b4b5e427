package builtin

import (
	"context"
	"os"
	"path/filepath"

	"github.com/hualet/deepin-term-agent/internal/tool"
)

func newWriteFile() tool.Handler {
	desc := tool.Descriptor{
		Name:        "write_file",
		Description: "Write content to a file, overwriting or appending",
		Schema: tool.Schema{Params: map[string]tool.Param{
			"path":        {Kind: tool.KindString, Description: "Path to the file to write", Required: true},
			"content":     {Kind: tool.KindString, Description: "Content to write", Required: true},
			"append":      {Kind: tool.KindBoolean, Description: "Append instead of overwriting"},
			"create_dirs": {Kind: tool.KindBoolean, Description: "Create missing parent directories"},
		}},
	}

	return newHandler(desc, func(ctx context.Context, req writeFileRequest) (map[string]any, error) {
		// Parent directories are created only on explicit request, never
		// implicitly.
		if req.CreateDirs {
			if err := os.MkdirAll(filepath.Dir(req.Path), 0o755); err != nil {
				return nil, classifyPathError(err)
			}
		}

		flags := os.O_WRONLY | os.O_CREATE
		mode := "write"
		if req.Append {
			flags |= os.O_APPEND
			mode = "append"
		} else {
			flags |= os.O_TRUNC
		}

		f, err := os.OpenFile(req.Path, flags, 0o644)
		if err != nil {
			return nil, classifyPathError(err)
		}
		defer f.Close()

		n, err := f.WriteString(req.Content)
		if err != nil {
			return nil, classifyPathError(err)
		}

		return map[string]any{
			"path":          req.Path,
			"bytes_written": n,
			"mode":          mode,
		}, nil
	})
}
