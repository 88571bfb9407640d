package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/crisisbench/crisisbench/internal/runtime"
	"github.com/crisisbench/crisisbench/internal/scenario"
)

var memoryToolNames = map[string]bool{
	"read_memory":   true,
	"write_memory":  true,
	"list_memories": true,
}

// MemoryHandler serves the memory tools from a per-run working directory
// seeded with the scenario's memory files. Writes are synchronous and
// flushed before returning, so a read in the same heartbeat always sees the
// written content. Keys resolving outside the working directory are
// rejected without touching the filesystem.
type MemoryHandler struct {
	dir string
}

// NewMemoryHandler creates the working directory and seeds the initial
// memory files.
func NewMemoryHandler(dir string, initial []scenario.MemoryFile) (*MemoryHandler, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create memory directory: %w", err)
	}
	for _, mf := range initial {
		path := filepath.Join(dir, mf.Key+".md")
		if err := os.WriteFile(path, []byte(mf.Content), 0o644); err != nil {
			return nil, fmt.Errorf("seed memory %s: %w", mf.Key, err)
		}
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return &MemoryHandler{dir: abs}, nil
}

// CanHandle reports whether the tool is a memory operation.
func (h *MemoryHandler) CanHandle(toolName string) bool {
	return memoryToolNames[toolName]
}

// Handle dispatches a memory tool call.
func (h *MemoryHandler) Handle(_ context.Context, toolName string, args map[string]any) runtime.ToolResponse {
	switch toolName {
	case "read_memory":
		return h.read(args)
	case "write_memory":
		return h.write(args)
	case "list_memories":
		return h.list()
	default:
		return runtime.NewErrorResponse("Unknown memory tool " + toolName)
	}
}

// resolve maps a memory key to its file path, and reports false when the key
// is empty or escapes the working directory.
func (h *MemoryHandler) resolve(key string) (string, bool) {
	if key == "" || strings.Contains(key, "/") || strings.Contains(key, "\\") || strings.Contains(key, "..") {
		return "", false
	}
	path := filepath.Clean(filepath.Join(h.dir, key+".md"))
	if !strings.HasPrefix(path, h.dir+string(filepath.Separator)) {
		return "", false
	}
	return path, true
}

func (h *MemoryHandler) read(args map[string]any) runtime.ToolResponse {
	key, ok := args["key"].(string)
	if !ok {
		return runtime.NewErrorResponse("read_memory requires a string 'key'")
	}
	path, ok := h.resolve(key)
	if !ok {
		return runtime.NewErrorResponse(fmt.Sprintf("Invalid memory key %q", key))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return runtime.ReadMemoryResponse{Status: "ok", Content: nil}
		}
		return runtime.NewErrorResponse("Could not read memory: " + err.Error())
	}
	content := string(data)
	return runtime.ReadMemoryResponse{Status: "ok", Content: &content}
}

func (h *MemoryHandler) write(args map[string]any) runtime.ToolResponse {
	key, ok := args["key"].(string)
	if !ok {
		return runtime.NewErrorResponse("write_memory requires a string 'key'")
	}
	content, ok := args["content"].(string)
	if !ok {
		return runtime.NewErrorResponse("write_memory requires a string 'content'")
	}
	path, ok := h.resolve(key)
	if !ok {
		return runtime.NewErrorResponse(fmt.Sprintf("Invalid memory key %q", key))
	}
	// Write-then-read consistency within a heartbeat: write the file fully
	// and sync before returning.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return runtime.NewErrorResponse("Could not write memory: " + err.Error())
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return runtime.NewErrorResponse("Could not write memory: " + err.Error())
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return runtime.NewErrorResponse("Could not flush memory: " + err.Error())
	}
	if err := f.Close(); err != nil {
		return runtime.NewErrorResponse("Could not close memory file: " + err.Error())
	}
	return runtime.WriteMemoryResponse{Status: "written"}
}

func (h *MemoryHandler) list() runtime.ToolResponse {
	entries, err := os.ReadDir(h.dir)
	if err != nil {
		return runtime.NewErrorResponse("Could not list memories: " + err.Error())
	}
	keys := []string{}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
			keys = append(keys, strings.TrimSuffix(e.Name(), ".md"))
		}
	}
	sort.Strings(keys)
	return runtime.ListMemoriesResponse{Status: "ok", Keys: keys}
}
