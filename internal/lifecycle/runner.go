package lifecycle

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/hashicorp/go-hclog"
	"github.com/mattn/go-isatty"

	"github.com/scriptrt/runtime-core/internal/rterr"
)

// scriptOrder is the fixed ordering: preinstall, install, postinstall.
var scriptOrder = []string{"preinstall", "install", "postinstall"}

// scriptTimeout bounds how long a single lifecycle script may run before
// it's killed; a runaway install script must not hang cache_packages forever.
const scriptTimeout = 10 * time.Minute

// Package is one package entry in the ordered list the installer collected
// during the materialisation phase: (package, path, scripts).
type Package struct {
	NV string // name@version, for allow-list matching and error messages
	Path string // symlink-resolved package directory
	Scripts map[string]string
}

// Logger is the narrow warning sink a Runner needs.
type Logger interface {
	Warn(msg string, args ...interface{})
}

// RunOptions configures a Runner invocation.
type RunOptions struct {
	InitialCwd string
	RuntimeUserAgent string
	AllowList []string // --allow-scripts patterns, exact "name@version" or "*"
	Interactive bool // whether prompting is permitted at all (caller-level override)
	ProcessState []byte // opaque blob, so child runtimes can re-resolve their own state
	Logger Logger
}

// Runner executes lifecycle scripts under the allow-list policy
type Runner struct {
	opts RunOptions

	mu sync.Mutex
	warned map[string]bool
}

// New constructs a Runner.
func New(opts RunOptions) *Runner {
	return &Runner{opts: opts, warned: map[string]bool{}}
}

func (r *Runner) isAllowListed(nv string) bool {
	for _, pattern := range r.opts.AllowList {
		if pattern == nv || pattern == "*" {
			return true
		}
	}
	return false
}

// promptGrant drives the interactive permission-grant path:
// survey.AskOne backed by go-isatty's terminal detection so a non-interactive
// run (CI) never blocks and instead falls through to the warn-and-skip path.
func (r *Runner) promptGrant(pkg Package) bool {
	if !r.opts.Interactive {
		return false
	}
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return false
	}
	var grant bool
	prompt := &survey.Confirm{
		Message: fmt.Sprintf("Package %s wants to run lifecycle scripts. Allow?", pkg.NV),
		Default: false,
	}
	if err := survey.AskOne(prompt, &grant); err != nil {
		return false
	}
	return grant
}

// Run executes scripts for every package in order, failing the whole
// install on the first non-zero exit.
func (r *Runner) Run(packages []Package) error {
	for _, pkg := range packages {
		if len(pkg.Scripts) == 0 {
			continue
		}
		allowed := r.isAllowListed(pkg.NV)
		if !allowed {
			allowed = r.promptGrant(pkg)
		}
		if !allowed {
			r.warnOnce(pkg)
			continue
		}
		for _, name := range scriptOrder {
			script, ok := pkg.Scripts[name]
			if !ok || strings.TrimSpace(script) == "" {
				continue
			}
			if err := r.runOne(pkg, name, script); err != nil {
				return err
			}
		}
		_ = touchSentinel(filepath.Join(pkg.Path, ".scripts-run"))
	}
	return nil
}

func (r *Runner) warnOnce(pkg Package) {
	sentinel := filepath.Join(pkg.Path, ".scripts-warned")
	if _, err := os.Stat(sentinel); err == nil {
		return
	}
	_ = touchSentinel(sentinel)

	r.mu.Lock()
	r.warned[pkg.NV] = true
	r.mu.Unlock()

	if r.opts.Logger != nil {
		r.opts.Logger.Warn("lifecycle scripts not run (no permission)", "package", pkg.NV,
			"grant", fmt.Sprintf("deno install --allow-scripts=%s", pkg.NV))
	}
}

func (r *Runner) runOne(pkg Package, scriptName, script string) error {
	cmd := exec.Command(shellPath(), shellFlag(), script)
	cmd.Dir = pkg.Path
	cmd.Env = r.buildEnv(pkg)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.Stdout = &stderr

	c := newChild(cmd, hclog.NewNullLogger())
	if err := c.Start(); err != nil {
		return rterr.Wrap(rterr.KindRuntime, rterr.ClassLifecycleScriptFailed,
			fmt.Sprintf("%s: failed to start %s script", pkg.NV, scriptName), err)
	}

	select {
	case code, ok := <-c.ExitCh():
		if !ok || code != ExitCodeOK {
			return rterr.New(rterr.KindRuntime, rterr.ClassLifecycleScriptFailed,
				fmt.Sprintf("%s: %s script exited with a non-zero status\n%s", pkg.NV, scriptName, stderr.String()))
		}
		return nil
	case <-time.After(scriptTimeout):
		c.Stop()
		return rterr.New(rterr.KindRuntime, rterr.ClassLifecycleScriptFailed,
			fmt.Sprintf("%s: %s script timed out after %s", pkg.NV, scriptName, scriptTimeout))
	}
}

// buildEnv builds the child environment: INIT_CWD, PATH extended by every
// ancestor node_modules/.bin, NPM_CONFIG_USER_AGENT, and the opaque
// process-state blob.
func (r *Runner) buildEnv(pkg Package) []string {
	env := os.Environ()
	env = append(env, "INIT_CWD="+r.opts.InitialCwd)
	env = append(env, "NPM_CONFIG_USER_AGENT="+r.opts.RuntimeUserAgent)
	if len(r.opts.ProcessState) > 0 {
		env = append(env, "DENO_PROCESS_STATE="+string(r.opts.ProcessState))
	}

	binDirs := ancestorBinDirs(pkg.Path)
	existingPath := os.Getenv("PATH")
	newPath := strings.Join(append(binDirs, existingPath), string(os.PathListSeparator))
	env = append(env, "PATH="+newPath)
	return env
}

// ancestorBinDirs returns every ancestor node_modules/.bin directory from
// start upward, nearest first.
func ancestorBinDirs(start string) []string {
	var dirs []string
	dir := start
	for {
		candidate := filepath.Join(dir, "node_modules", ".bin")
		if _, err := os.Stat(candidate); err == nil {
			dirs = append(dirs, candidate)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return dirs
}

func touchSentinel(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}

func shellPath() string {
	if runtime.GOOS == "windows" {
		return "cmd"
	}
	return "/bin/sh"
}

func shellFlag() string {
	if runtime.GOOS == "windows" {
		return "/C"
	}
	return "-c"
}
