package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"wra/internal/core"
	"wra/internal/dag"
)

const (
	ExitSuccess           = 0
	ExitGraphFailure      = 1
	ExitInvalidInvocation = 2
	ExitConfigError       = 3
	ExitInternalError     = 4
)

// Defaults applied when neither a flag nor the config file sets a value.
const (
	DefaultDescriptor       = "wra.yaml"
	DefaultAssembleOutput   = "target/classes"
	DefaultJSFile           = "wra.js"
	DefaultCSSFile          = "wra.css"
	DefaultSourceDir        = "src/main/wra"
	DefaultPackageOutput    = "target"
	DefaultArchiveExtension = ".zip"
)

type TraceConfig struct {
	Enabled bool
	Path    string
}

// Common holds the options shared by every command, already resolved.
type Common struct {
	WorkDir   string
	LogLevel  string
	LogFormat string
	Trace     TraceConfig
}

// AssembleInvocation is the canonical description of an assemble run.
//
// All paths are absolute and Clean.
type AssembleInvocation struct {
	Common
	DescriptorPath string

	// RepositoryDir, when set, resolves artifacts from a local repository
	// instead of the locations declared in the descriptor.
	RepositoryDir string

	JSPath    string
	CSSPath   string
	Separator []byte
}

// PackageInvocation is the canonical description of a package run.
type PackageInvocation struct {
	Common
	SourceDir      string
	ArchivePath    string
	PreserveLayout bool
}

type InvocationError struct {
	ExitCode int
	Message  string
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalidInvocationf(format string, args ...any) error {
	return &InvocationError{ExitCode: ExitInvalidInvocation, Message: fmt.Sprintf(format, args...)}
}

// commonFlags are bound on the root command and inherited by subcommands.
type commonFlags struct {
	workDir    string
	configPath string
	tracePath  string
	logLevel   string
	logFormat  string
}

func (c *commonFlags) bind(fs *pflag.FlagSet) {
	fs.StringVar(&c.workDir, "workdir", "", "Working directory relative paths resolve against (default: current directory)")
	fs.StringVar(&c.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&c.tracePath, "trace", "", "Write the run trace as JSON to this path")
	fs.StringVar(&c.logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	fs.StringVar(&c.logFormat, "log-format", "text", "Log format: text|json")
}

type assembleFlags struct {
	descriptor string
	repository string
	outputDir  string
	jsFile     string
	cssFile    string
	separator  string
}

func (a *assembleFlags) bind(fs *pflag.FlagSet) {
	fs.StringVarP(&a.descriptor, "descriptor", "d", DefaultDescriptor, "Dependency tree descriptor (YAML)")
	fs.StringVar(&a.repository, "repository", "", "Resolve artifacts from this local repository instead of descriptor locations")
	fs.StringVarP(&a.outputDir, "output-dir", "o", DefaultAssembleOutput, "Directory receiving the aggregated files")
	fs.StringVar(&a.jsFile, "js-file", DefaultJSFile, "Aggregated JavaScript file name")
	fs.StringVar(&a.cssFile, "css-file", DefaultCSSFile, "Aggregated stylesheet file name")
	fs.StringVar(&a.separator, "entry-separator", "none", "Written after every aggregated entry: none|newline")
}

type packageFlags struct {
	sourceDir      string
	outputDir      string
	finalName      string
	preserveLayout bool
}

func (p *packageFlags) bind(fs *pflag.FlagSet) {
	fs.StringVarP(&p.sourceDir, "source-dir", "s", DefaultSourceDir, "Directory holding the web resources")
	fs.StringVarP(&p.outputDir, "output-dir", "o", DefaultPackageOutput, "Directory receiving the archive")
	fs.StringVar(&p.finalName, "final-name", "", "Archive name without extension (default: project name)")
	fs.BoolVar(&p.preserveLayout, "preserve-layout", false, "Keep subdirectories below js/ and css/")
}

// pick returns the flag's value when it was given explicitly, else the first
// non-empty fallback, else the flag's default.
func pick(fs *pflag.FlagSet, name string, fallbacks ...string) string {
	f := fs.Lookup(name)
	if f.Changed {
		return f.Value.String()
	}
	for _, v := range fallbacks {
		if v != "" {
			return v
		}
	}
	return f.DefValue
}

// resolveCommon canonicalizes the shared options and loads the config file.
func resolveCommon(fs *pflag.FlagSet, c commonFlags) (Common, *Config, error) {
	workDir := c.workDir
	if strings.TrimSpace(workDir) == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Common{}, nil, fmt.Errorf("determine working directory: %w", err)
		}
		workDir = wd
	}
	workDir, err := filepath.Abs(filepath.Clean(workDir))
	if err != nil {
		return Common{}, nil, invalidInvocationf("--workdir %q: %v", c.workDir, err)
	}

	cfg := &Config{}
	if strings.TrimSpace(c.configPath) != "" {
		p, err := resolveUnderWorkDir(workDir, c.configPath)
		if err != nil {
			return Common{}, nil, err
		}
		if cfg, err = LoadConfig(p); err != nil {
			return Common{}, nil, err
		}
	}

	out := Common{
		WorkDir:   workDir,
		LogLevel:  strings.ToLower(pick(fs, "log-level", cfg.Log.Level)),
		LogFormat: strings.ToLower(pick(fs, "log-format", cfg.Log.Format)),
	}
	if err := checkLogOptions(out.LogLevel, out.LogFormat); err != nil {
		return Common{}, nil, err
	}
	if tp := pick(fs, "trace", cfg.Trace); strings.TrimSpace(tp) != "" {
		resolved, err := resolveUnderWorkDir(workDir, tp)
		if err != nil {
			return Common{}, nil, err
		}
		out.Trace = TraceConfig{Enabled: true, Path: resolved}
	}
	return out, cfg, nil
}

func resolveAssemble(fs *pflag.FlagSet, c commonFlags) (AssembleInvocation, error) {
	common, cfg, err := resolveCommon(fs, c)
	if err != nil {
		return AssembleInvocation{}, err
	}
	inv := AssembleInvocation{Common: common}

	if inv.DescriptorPath, err = resolveUnderWorkDir(common.WorkDir, pick(fs, "descriptor", cfg.Descriptor)); err != nil {
		return AssembleInvocation{}, err
	}
	if repo := pick(fs, "repository", cfg.Repository); strings.TrimSpace(repo) != "" {
		if inv.RepositoryDir, err = resolveUnderWorkDir(common.WorkDir, repo); err != nil {
			return AssembleInvocation{}, err
		}
	}
	outDir, err := resolveUnderWorkDir(common.WorkDir, pick(fs, "output-dir", cfg.Assemble.OutputDir))
	if err != nil {
		return AssembleInvocation{}, err
	}
	if inv.JSPath, err = resolveUnderWorkDir(outDir, pick(fs, "js-file", cfg.Assemble.JSFile)); err != nil {
		return AssembleInvocation{}, err
	}
	if inv.CSSPath, err = resolveUnderWorkDir(outDir, pick(fs, "css-file", cfg.Assemble.CSSFile)); err != nil {
		return AssembleInvocation{}, err
	}
	if inv.JSPath == inv.CSSPath {
		return AssembleInvocation{}, invalidInvocationf("JavaScript and stylesheet outputs are the same file %q", inv.JSPath)
	}
	if inv.Separator, err = parseSeparator(pick(fs, "entry-separator", cfg.Assemble.Separator)); err != nil {
		return AssembleInvocation{}, err
	}
	return inv, nil
}

func resolvePackage(fs *pflag.FlagSet, c commonFlags) (PackageInvocation, error) {
	common, cfg, err := resolveCommon(fs, c)
	if err != nil {
		return PackageInvocation{}, err
	}
	inv := PackageInvocation{Common: common}

	if inv.SourceDir, err = resolveUnderWorkDir(common.WorkDir, pick(fs, "source-dir", cfg.Package.SourceDir)); err != nil {
		return PackageInvocation{}, err
	}
	outDir, err := resolveUnderWorkDir(common.WorkDir, pick(fs, "output-dir", cfg.Package.OutputDir))
	if err != nil {
		return PackageInvocation{}, err
	}
	finalName := pick(fs, "final-name", cfg.Package.FinalName, cfg.Project)
	if finalName == "" {
		finalName = filepath.Base(common.WorkDir)
	}
	if strings.ContainsAny(finalName, `/\`) || finalName == "." || finalName == ".." {
		return PackageInvocation{}, invalidInvocationf("invalid --final-name %q", finalName)
	}
	inv.ArchivePath = filepath.Join(outDir, finalName+DefaultArchiveExtension)

	switch {
	case fs.Changed("preserve-layout"):
		inv.PreserveLayout, _ = fs.GetBool("preserve-layout")
	case cfg.Package.PreserveLayout != nil:
		inv.PreserveLayout = *cfg.Package.PreserveLayout
	}
	return inv, nil
}

func parseSeparator(raw string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "none":
		return nil, nil
	case "newline":
		return []byte("\n"), nil
	default:
		return nil, invalidInvocationf("invalid --entry-separator %q (expected none|newline)", raw)
	}
}

func checkLogOptions(level, format string) error {
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return invalidInvocationf("invalid --log-level %q (expected debug|info|warn|error)", level)
	}
	switch format {
	case "text", "json":
	default:
		return invalidInvocationf("invalid --log-format %q (expected text|json)", format)
	}
	return nil
}

func resolveUnderWorkDir(workDir, p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", invalidInvocationf("path must not be empty")
	}
	clean := filepath.Clean(p)
	if filepath.IsAbs(clean) {
		return clean, nil
	}
	// workDir is absolute, so Join does not consult the process CWD.
	return filepath.Join(workDir, clean), nil
}

// ExitCode maps an error returned by this package to a semantic exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var invErr *InvocationError
	if errors.As(err, &invErr) && invErr != nil {
		if invErr.ExitCode != 0 {
			return invErr.ExitCode
		}
		return ExitInvalidInvocation
	}
	var cfgErr *ConfigError
	var descErr *DescriptorError
	switch {
	case errors.As(err, &cfgErr), errors.As(err, &descErr),
		errors.Is(err, dag.ErrInvalidTree), errors.Is(err, dag.ErrCycleFound):
		return ExitConfigError
	case errors.Is(err, core.ErrInvalidSourceDirectory),
		errors.Is(err, core.ErrOutputDirectory),
		errors.Is(err, core.ErrMissingArtifactFile),
		errors.Is(err, core.ErrCorruptArchive),
		errors.Is(err, core.ErrArchiveWrite),
		errors.Is(err, core.ErrIOFailure),
		errors.Is(err, core.ErrResolutionFailure):
		return ExitGraphFailure
	}
	return ExitInternalError
}
