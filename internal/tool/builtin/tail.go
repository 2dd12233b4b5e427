package builtin

import (
	"bytes"
	"os"
	"strings"
)

// tailResult holds the final lines of a file. Truncated is set when the file
// held more lines than were returned.
type tailResult struct {
	Lines     []string
	Truncated bool
}

// tailLines returns the last n lines of the file at path. Small files are
// read whole; files above wholeFileThreshold are read backwards from the end
// in chunkSize blocks so memory stays bounded regardless of file size.
func tailLines(path string, n int, wholeFileThreshold, chunkSize int64) (*tailResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, ErrNotRegularFile
	}

	if info.Size() <= wholeFileThreshold {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return lastLines(strings.TrimRight(string(data), "\n"), n), nil
	}

	return tailLargeFile(path, n, info.Size(), chunkSize)
}

// tailLargeFile reads backwards in bounded chunks until it has collected at
// least n lines or reached the beginning of the file.
func tailLargeFile(path string, n int, size, chunkSize int64) (*tailResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var collected []byte
	offset := size
	for offset > 0 {
		readSize := chunkSize
		if offset < chunkSize {
			readSize = offset
		}
		offset -= readSize

		chunk := make([]byte, readSize)
		if _, err := f.ReadAt(chunk, offset); err != nil {
			return nil, err
		}
		collected = append(chunk, collected...)

		// Enough newlines collected to cover n lines plus the partial first one.
		if bytes.Count(collected, []byte{'\n'}) > n {
			break
		}
	}

	text := strings.TrimRight(string(collected), "\n")
	result := lastLines(text, n)
	if offset > 0 {
		// The file extends beyond what was read, so lines were dropped even
		// when the line count came in under n.
		result.Truncated = true
	}
	return result, nil
}

func lastLines(text string, n int) *tailResult {
	if text == "" {
		return &tailResult{Lines: []string{}}
	}
	lines := strings.Split(text, "\n")
	if len(lines) <= n {
		return &tailResult{Lines: lines}
	}
	return &tailResult{Lines: lines[len(lines)-n:], Truncated: true}
}
