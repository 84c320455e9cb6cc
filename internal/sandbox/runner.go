package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// Runner is the compile-and-run collaborator: given source files, it returns
// compiler diagnostics and program output. The grading engine never depends
// on it; it backs the playground routes only.
type Runner interface {
	Run(ctx context.Context, files map[string]string) (RunResult, error)
}

type CompileError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

type RunResult struct {
	CompileErrors []CompileError `json:"compile_errors"`
	RuntimeOutput string         `json:"runtime_output"`
	RuntimeError  string         `json:"runtime_error,omitempty"`
	ExitCode      int            `json:"exit_code"`
}

// GCCRunner compiles submitted files in a temp dir. When the compiler blames
// one of the submitted files and a known-good copy exists in AssetsDir, that
// file is substituted and compilation retried, so students still see their
// program run alongside the diagnostics for the broken file.
type GCCRunner struct {
	Compiler  string
	AssetsDir string
}

func NewGCCRunner(compiler, assetsDir string) *GCCRunner {
	if compiler == "" {
		compiler = "g++"
	}
	return &GCCRunner{Compiler: compiler, AssetsDir: assetsDir}
}

func (r *GCCRunner) Run(ctx context.Context, files map[string]string) (RunResult, error) {
	result := RunResult{CompileErrors: []CompileError{}}

	working := make(map[string]string, len(files))
	for name, content := range files {
		working[filepath.Base(name)] = content
	}

	// One substitution per submitted file bounds the retry loop.
	for attempt := 0; attempt <= len(files); attempt++ {
		tmpdir, err := os.MkdirTemp("", "playground")
		if err != nil {
			return result, fmt.Errorf("failed to create temp dir: %w", err)
		}

		stderr, exePath, err := r.compile(ctx, tmpdir, working)
		if err != nil {
			os.RemoveAll(tmpdir)
			return result, err
		}

		if stderr == "" {
			result.RuntimeOutput, result.RuntimeError, result.ExitCode = r.execute(ctx, exePath)
			os.RemoveAll(tmpdir)
			return result, nil
		}

		blamed := blamedFile(stderr, tmpdir)
		result.CompileErrors = append(result.CompileErrors, CompileError{File: blamed, Error: stderr})
		os.RemoveAll(tmpdir)

		replacement, ok := r.assetFile(blamed)
		if !ok {
			// Nothing to substitute; report the diagnostics as-is.
			return result, nil
		}
		working[blamed] = replacement
	}

	return result, nil
}

func (r *GCCRunner) compile(ctx context.Context, tmpdir string, files map[string]string) (stderr, exePath string, err error) {
	var cppFiles []string
	for name, content := range files {
		path := filepath.Join(tmpdir, name)
		if writeErr := os.WriteFile(path, []byte(content), 0o644); writeErr != nil {
			return "", "", fmt.Errorf("failed to write %s: %w", name, writeErr)
		}
		if strings.HasSuffix(name, ".cpp") {
			cppFiles = append(cppFiles, path)
		}
	}
	sort.Strings(cppFiles)

	if len(cppFiles) == 0 {
		return "no .cpp files to compile", "", nil
	}

	exePath = filepath.Join(tmpdir, "program")
	args := append([]string{"-std=c++17", "-I", tmpdir, "-o", exePath}, cppFiles...)
	cmd := exec.CommandContext(ctx, r.Compiler, args...)

	var errBuf bytes.Buffer
	cmd.Stderr = &errBuf
	if runErr := cmd.Run(); runErr != nil {
		if errBuf.Len() > 0 {
			return errBuf.String(), "", nil
		}
		return "", "", fmt.Errorf("compiler failed to run: %w", runErr)
	}

	return "", exePath, nil
}

func (r *GCCRunner) execute(ctx context.Context, exePath string) (stdout, stderr string, exitCode int) {
	cmd := exec.CommandContext(ctx, exePath)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}
	return outBuf.String(), errBuf.String(), exitCode
}

// blamedFile extracts the file name the compiler complains about first.
// Diagnostics look like "<tmpdir>/Creator.hpp:7:5: error: ...". Errors inside
// headers are preceded by "In file included from <tmpdir>/main.cpp:2:" lines,
// so the line carrying "error:" decides, not the first path in the output.
func blamedFile(stderr, tmpdir string) string {
	lines := strings.Split(stderr, "\n")
	for _, line := range lines {
		if !strings.Contains(line, "error:") {
			continue
		}
		if name := fileFromLine(line, tmpdir); name != "" {
			return name
		}
	}
	for _, line := range lines {
		if name := fileFromLine(line, tmpdir); name != "" {
			return name
		}
	}
	return ""
}

func fileFromLine(line, tmpdir string) string {
	idx := strings.Index(line, tmpdir)
	if idx == -1 {
		return ""
	}
	rest := strings.TrimPrefix(line[idx:], tmpdir)
	rest = strings.TrimLeft(rest, "/")
	if colon := strings.IndexByte(rest, ':'); colon != -1 {
		rest = rest[:colon]
	}
	return strings.TrimSpace(rest)
}

func (r *GCCRunner) assetFile(name string) (string, bool) {
	if name == "" || r.AssetsDir == "" {
		return "", false
	}
	data, err := os.ReadFile(filepath.Join(r.AssetsDir, filepath.Base(name)))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// ListAssets returns the starter .hpp/.cpp files served to the playground.
func ListAssets(assetsDir string) (map[string]string, error) {
	entries, err := os.ReadDir(assetsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read assets dir '%s': %w", assetsDir, err)
	}

	files := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".hpp") && !strings.HasSuffix(name, ".cpp") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(assetsDir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read asset %s: %w", name, err)
		}
		files[name] = string(data)
	}
	return files, nil
}
