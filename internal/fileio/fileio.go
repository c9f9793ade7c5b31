// Package fileio implements write/read/docstring/artifact operations
// against files inside a user's container. All paths are absolute
// paths inside the container; this package never interprets them
// against the host filesystem.
package fileio

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/mcpexec/backend/internal/containers"
	"github.com/mcpexec/backend/internal/observability"
)

// IO runs file operations against containers owned by a
// containers.Manager.
type IO struct {
	manager            *containers.Manager
	artifactSizeLimit  int64
	metrics            *observability.Metrics
	logger             *slog.Logger
}

// New returns an IO bound to manager. artifactSizeLimit bounds
// get_artifact transfers (default 50 MiB if zero).
func New(manager *containers.Manager, artifactSizeLimit int64, metrics *observability.Metrics, logger *slog.Logger) *IO {
	if artifactSizeLimit <= 0 {
		artifactSizeLimit = 50 * 1024 * 1024
	}
	return &IO{manager: manager, artifactSizeLimit: artifactSizeLimit, metrics: metrics, logger: logger}
}

// WriteFile overwrites path with content, creating parent directories
// as needed, and returns the number of bytes written. Content is piped
// into the container bit-exact; no line-ending translation occurs.
func (f *IO) WriteFile(ctx context.Context, userID, path, content string) (int, error) {
	script := fmt.Sprintf("mkdir -p \"$(dirname %s)\" && cat > %s", shQuote(path), shQuote(path))
	out, err := runShell(ctx, f.manager, userID, script, strings.NewReader(content))
	if err != nil {
		return 0, err
	}
	if out.exitCode != 0 {
		return 0, &FileNotFoundError{Path: path, Cause: fmt.Errorf("%s", strings.TrimSpace(string(out.stderr)))}
	}
	return len(content), nil
}

// ReadFile returns lineCount lines of path starting at the 0-indexed,
// inclusive offsetLines line. lineCount == nil means "to end of file".
// Binary-file behavior is unspecified by contract; callers are
// expected to use GetArtifact for non-text content.
func (f *IO) ReadFile(ctx context.Context, userID, path string, offsetLines int, lineCount *int) (string, error) {
	if offsetLines < 0 {
		offsetLines = 0
	}
	start := offsetLines + 1
	var rangeExpr string
	if lineCount == nil {
		rangeExpr = fmt.Sprintf("%d,$p", start)
	} else {
		end := start + *lineCount - 1
		if end < start {
			end = start
		}
		rangeExpr = fmt.Sprintf("%d,%dp", start, end)
	}
	script := fmt.Sprintf("test -f %s || { echo no-such-file >&2; exit 2; }; sed -n '%s' %s", shQuote(path), rangeExpr, shQuote(path))
	out, err := runShell(ctx, f.manager, userID, script, nil)
	if err != nil {
		return "", err
	}
	if out.exitCode != 0 {
		return "", &FileNotFoundError{Path: path, Cause: fmt.Errorf("%s", strings.TrimSpace(string(out.stderr)))}
	}
	return string(out.stdout), nil
}

const docstringScriptTemplate = `python3 - %s %s <<'PYEOF'
import ast, sys
path, func_name = sys.argv[1], sys.argv[2]
with open(path, "r", encoding="utf-8") as f:
    source = f.read()
tree = ast.parse(source, filename=path)
for node in tree.body:
    if isinstance(node, (ast.FunctionDef, ast.AsyncFunctionDef)) and node.name == func_name:
        doc = ast.get_docstring(node)
        print(doc or "", end="")
        sys.exit(0)
print("", end="")
PYEOF`

// ReadDocstring extracts the documentation string attached to a
// top-level function in a Python module at path. Returns "" if the
// function has no docstring or does not exist; returns a
// DocstringExtractionFailedError if the module cannot be loaded.
func (f *IO) ReadDocstring(ctx context.Context, userID, path, functionName string) (string, error) {
	script := fmt.Sprintf(docstringScriptTemplate, shQuote(path), shQuote(functionName))
	out, err := runShell(ctx, f.manager, userID, script, nil)
	if err != nil {
		return "", err
	}
	if out.exitCode != 0 {
		return "", &DocstringExtractionFailedError{Path: path, FunctionName: functionName, Cause: fmt.Errorf("%s", strings.TrimSpace(string(out.stderr)))}
	}
	return string(out.stdout), nil
}

// ListArtifacts returns the sorted list of regular file names directly
// under /artifacts.
func (f *IO) ListArtifacts(ctx context.Context, userID string) ([]string, error) {
	script := `find /artifacts -mindepth 1 -maxdepth 1 -type f -printf '%f\n' 2>/dev/null`
	out, err := runShell(ctx, f.manager, userID, script, nil)
	if err != nil {
		return nil, err
	}
	names := strings.Split(strings.TrimRight(string(out.stdout), "\n"), "\n")
	result := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" {
			result = append(result, n)
		}
	}
	sort.Strings(result)
	if f.metrics != nil {
		f.metrics.ArtifactFetches.WithLabelValues("success").Inc()
	}
	return result, nil
}

// GetArtifact validates name and returns the raw bytes of
// /artifacts/<name>. name must contain no path separator and must not
// begin with ".". Size is checked against the configured limit before
// any content bytes are transferred.
func (f *IO) GetArtifact(ctx context.Context, userID, name string) ([]byte, error) {
	if strings.ContainsAny(name, "/\\") || strings.HasPrefix(name, ".") {
		f.observeArtifact("path_violation")
		return nil, &PathViolationError{Name: name}
	}

	statScript := fmt.Sprintf("stat -c%%s /artifacts/%s 2>/dev/null", shQuote(name))
	statOut, err := runShell(ctx, f.manager, userID, statScript, nil)
	if err != nil {
		return nil, err
	}
	if statOut.exitCode != 0 || strings.TrimSpace(string(statOut.stdout)) == "" {
		f.observeArtifact("not_found")
		return nil, &ArtifactNotFoundError{Name: name}
	}
	size, parseErr := strconv.ParseInt(strings.TrimSpace(string(statOut.stdout)), 10, 64)
	if parseErr != nil {
		f.observeArtifact("not_found")
		return nil, &ArtifactNotFoundError{Name: name}
	}
	if size > f.artifactSizeLimit {
		f.observeArtifact("too_large")
		return nil, &ArtifactTooLargeError{Name: name, Size: size, Limit: f.artifactSizeLimit}
	}

	catScript := fmt.Sprintf("cat /artifacts/%s", shQuote(name))
	out, err := runShell(ctx, f.manager, userID, catScript, nil)
	if err != nil {
		return nil, err
	}
	if out.exitCode != 0 {
		f.observeArtifact("not_found")
		return nil, &ArtifactNotFoundError{Name: name}
	}
	f.observeArtifact("success")
	return out.stdout, nil
}

func (f *IO) observeArtifact(outcome string) {
	if f.metrics != nil {
		f.metrics.ArtifactFetches.WithLabelValues(outcome).Inc()
	}
}
