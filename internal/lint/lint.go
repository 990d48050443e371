// Package lint runs external linter binaries and parses their native
// output into common diagnostic records.
package lint

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/capstan/internal/domain"
)

// ProviderSpec describes one linter binary and the file extensions it covers.
type ProviderSpec struct {
	Name       string
	Command    string
	Args       []string
	Extensions []string
}

// Registry is a thread-safe registry of linter providers keyed by extension.
type Registry struct {
	mu    sync.RWMutex
	byExt map[string]ProviderSpec
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]ProviderSpec)}
}

// Register adds a provider spec for each of its extensions.
// Returns ErrLinterUnavailable if an extension is already claimed.
func (r *Registry) Register(spec ProviderSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ext := range spec.Extensions {
		if _, exists := r.byExt[ext]; exists {
			return domain.WrapRuntimeError(
				domain.ErrLinterUnavailable.Code,
				"extension already registered: "+ext,
				nil,
			)
		}
	}
	for _, ext := range spec.Extensions {
		r.byExt[ext] = spec
	}
	return nil
}

// ForFile returns the provider covering the file's extension, or
// ErrLinterUnavailable if none is registered.
func (r *Registry) ForFile(path string) (ProviderSpec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	spec, ok := r.byExt[ext]
	if !ok {
		return ProviderSpec{}, domain.WrapRuntimeError(
			domain.ErrLinterUnavailable.Code,
			"no linter registered for ."+ext,
			nil,
		)
	}
	return spec, nil
}

// Extensions returns all registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Runner executes linter providers against workspace files.
type Runner struct {
	Reg     *Registry
	Timeout time.Duration
}

// NewRunner creates a Runner. A zero timeout defaults to 30 seconds.
func NewRunner(reg *Registry, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Runner{Reg: reg, Timeout: timeout}
}

// LintFile runs the provider for path and parses its output. A non-zero
// exit with parseable output is not an error: linters exit non-zero when
// they find something.
func (r *Runner) LintFile(ctx context.Context, path string) ([]domain.Diagnostic, error) {
	spec, err := r.Reg.ForFile(path)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	args := append(append([]string(nil), spec.Args...), path)
	cmd := exec.CommandContext(ctx, spec.Command, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	runErr := cmd.Run()
	diags := ParseOutput(out.String(), spec.Name)
	if runErr != nil && len(diags) == 0 {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, domain.WrapRuntimeError(
				domain.ErrSubprocessTimeout.Code,
				"linter "+spec.Name+" timed out",
				runErr,
			)
		}
		return nil, domain.WrapRuntimeError(
			domain.ErrLinterUnavailable.Code,
			"linter "+spec.Name+" failed: "+strings.TrimSpace(out.String()),
			runErr,
		)
	}
	return diags, nil
}

// diagLine matches the file:line[:col][: severity]: message shape shared
// by gcc, go vet, eslint --format unix, and most compiler-style linters.
var diagLine = regexp.MustCompile(`^(.+?):(\d+)(?::(\d+))?:\s*(?:(error|warning|note|info)[:\s]+)?(.+)$`)

// ParseOutput converts a provider's raw output into diagnostics. Lines
// that do not match the compiler format are ignored.
func ParseOutput(raw, source string) []domain.Diagnostic {
	var diags []domain.Diagnostic
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := diagLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		lineNo, _ := strconv.Atoi(m[2])
		col := 0
		if m[3] != "" {
			col, _ = strconv.Atoi(m[3])
		}
		severity := m[4]
		if severity == "" {
			severity = "warning"
		}
		diags = append(diags, domain.Diagnostic{
			File:     m[1],
			Line:     lineNo,
			Column:   col,
			Severity: severity,
			Message:  strings.TrimSpace(m[5]),
			Source:   source,
		})
	}
	return diags
}
