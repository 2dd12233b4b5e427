package builtin

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/hualet/deepin-term-agent/internal/tool"
)

func newListDirectory() tool.Handler {
	desc := tool.Descriptor{
		Name:        "list_directory",
		Description: "List directory entries with name, type and size",
		Schema: tool.Schema{Params: map[string]tool.Param{
			"path":      {Kind: tool.KindString, Description: "Directory to list", Required: true},
			"recursive": {Kind: tool.KindBoolean, Description: "Descend into subdirectories"},
		}},
	}

	return newHandler(desc, func(ctx context.Context, req listDirectoryRequest) (map[string]any, error) {
		info, err := os.Stat(req.Path)
		if err != nil {
			return nil, classifyPathError(err)
		}
		if !info.IsDir() {
			return nil, tool.WrapKind(tool.FailNotFound, ErrNotDirectory)
		}

		ignore := newIgnoreMatcher(req.Path)

		var entries []map[string]any
		if req.Recursive {
			entries, err = walkEntries(req.Path, ignore)
		} else {
			entries, err = listEntries(req.Path, ignore)
		}
		if err != nil {
			return nil, classifyPathError(err)
		}

		sort.Slice(entries, func(i, j int) bool {
			return entries[i]["name"].(string) < entries[j]["name"].(string)
		})

		return map[string]any{
			"path":    req.Path,
			"entries": entries,
			"total":   len(entries),
		}, nil
	})
}

func listEntries(dir string, ignore *ignoreMatcher) ([]map[string]any, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	entries := make([]map[string]any, 0, len(dirEntries))
	for _, de := range dirEntries {
		if ignore.Match(de.Name(), de.IsDir()) {
			continue
		}
		entries = append(entries, newEntry(de.Name(), de))
	}
	return entries, nil
}

func walkEntries(root string, ignore *ignoreMatcher) ([]map[string]any, error) {
	var entries []map[string]any
	err := filepath.WalkDir(root, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if de.IsDir() && de.Name() == ".git" {
			return filepath.SkipDir
		}
		if ignore.Match(rel, de.IsDir()) {
			if de.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		entries = append(entries, newEntry(rel, de))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func newEntry(name string, de fs.DirEntry) map[string]any {
	entryType := "file"
	var size int64
	switch {
	case de.Type()&fs.ModeSymlink != 0:
		entryType = "symlink"
	case de.IsDir():
		entryType = "dir"
	default:
		if info, err := de.Info(); err == nil {
			size = info.Size()
		}
	}
	return map[string]any{
		"name": name,
		"type": entryType,
		"size": size,
	}
}
