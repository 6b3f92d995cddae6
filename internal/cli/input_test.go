package cli

import (
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/pflag"
)

func parseAssemble(t *testing.T, args ...string) (AssembleInvocation, error) {
	t.Helper()
	var c commonFlags
	var a assembleFlags
	fs := pflag.NewFlagSet("assemble", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	c.bind(fs)
	a.bind(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return resolveAssemble(fs, c)
}

func parsePackage(t *testing.T, args ...string) (PackageInvocation, error) {
	t.Helper()
	var c commonFlags
	var p packageFlags
	fs := pflag.NewFlagSet("package", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	c.bind(fs)
	p.bind(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return resolvePackage(fs, c)
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	p := filepath.Join(dir, "wra-config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestResolveAssemble_DeterministicStruct(t *testing.T) {
	workDir := t.TempDir()
	args := []string{
		"--workdir", workDir,
		"--descriptor", "deps/../wra.yaml",
		"--output-dir", "out/./",
		"--repository", "./repo/..//repo",
		"--trace", "traces/../trace.json",
	}

	inv1, err := parseAssemble(t, args...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inv2, err := parseAssemble(t, args...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(inv1, inv2) {
		t.Fatalf("expected identical invocations, got\n%#v\n%#v", inv1, inv2)
	}

	if inv1.DescriptorPath != filepath.Join(workDir, "wra.yaml") {
		t.Fatalf("descriptor path not canonicalized: %q", inv1.DescriptorPath)
	}
	if inv1.RepositoryDir != filepath.Join(workDir, "repo") {
		t.Fatalf("repository not canonicalized: %q", inv1.RepositoryDir)
	}
	if inv1.JSPath != filepath.Join(workDir, "out", DefaultJSFile) || inv1.CSSPath != filepath.Join(workDir, "out", DefaultCSSFile) {
		t.Fatalf("outputs not resolved: %q %q", inv1.JSPath, inv1.CSSPath)
	}
	if !inv1.Trace.Enabled || inv1.Trace.Path != filepath.Join(workDir, "trace.json") {
		t.Fatalf("trace not resolved: %#v", inv1.Trace)
	}
	if inv1.Separator != nil {
		t.Fatalf("expected no separator by default, got %q", inv1.Separator)
	}
}

func TestResolveAssemble_Defaults(t *testing.T) {
	workDir := t.TempDir()
	inv, err := parseAssemble(t, "--workdir", workDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.DescriptorPath != filepath.Join(workDir, DefaultDescriptor) {
		t.Fatalf("unexpected descriptor default %q", inv.DescriptorPath)
	}
	if inv.JSPath != filepath.Join(workDir, "target", "classes", "wra.js") {
		t.Fatalf("unexpected js default %q", inv.JSPath)
	}
	if inv.RepositoryDir != "" || inv.Trace.Enabled {
		t.Fatalf("unexpected optional settings: %#v", inv)
	}
	if inv.LogLevel != "info" || inv.LogFormat != "text" {
		t.Fatalf("unexpected log defaults %q %q", inv.LogLevel, inv.LogFormat)
	}
}

func TestResolve_RelativePathsUseWorkDirNotCwd(t *testing.T) {
	workDir := t.TempDir()
	otherCwd := t.TempDir()

	oldCwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldCwd) })
	if err := os.Chdir(otherCwd); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}

	inv, err := parsePackage(t, "--workdir", workDir, "--source-dir", "web", "--output-dir", "dist")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.SourceDir != filepath.Join(workDir, "web") {
		t.Fatalf("expected source under workdir, got %q", inv.SourceDir)
	}
	if inv.ArchivePath != filepath.Join(workDir, "dist", filepath.Base(workDir)+".zip") {
		t.Fatalf("expected archive under workdir, got %q", inv.ArchivePath)
	}
}

func TestResolve_IgnoresEnvironmentVariables(t *testing.T) {
	workDir := t.TempDir()
	args := []string{"--workdir", workDir, "--final-name", "site-1.0"}

	inv1, err := parsePackage(t, args...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Setenv("DEBUG", "1")
	t.Setenv("WRA_OUTPUT_DIR", "/elsewhere")
	t.Setenv("SOME_OTHER_VAR", "some value")

	inv2, err := parsePackage(t, args...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(inv1, inv2) {
		t.Fatalf("expected env vars to not affect parsing, got\n%#v\n%#v", inv1, inv2)
	}
}

func TestResolve_ConfigSuppliesDefaultsFlagsOverride(t *testing.T) {
	workDir := t.TempDir()
	cfg := writeConfig(t, workDir, `
project: site
descriptor: build/deps.yaml
assemble:
  outputDir: public
  jsFile: all.js
  separator: newline
package:
  sourceDir: web
  preserveLayout: true
log:
  level: debug
  format: json
`)

	asm, err := parseAssemble(t, "--workdir", workDir, "--config", cfg, "--js-file", "bundle.js")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if asm.DescriptorPath != filepath.Join(workDir, "build", "deps.yaml") {
		t.Fatalf("config descriptor ignored: %q", asm.DescriptorPath)
	}
	if asm.JSPath != filepath.Join(workDir, "public", "bundle.js") {
		t.Fatalf("flag did not override config: %q", asm.JSPath)
	}
	if asm.CSSPath != filepath.Join(workDir, "public", DefaultCSSFile) {
		t.Fatalf("unexpected css path %q", asm.CSSPath)
	}
	if string(asm.Separator) != "\n" {
		t.Fatalf("config separator ignored: %q", asm.Separator)
	}
	if asm.LogLevel != "debug" || asm.LogFormat != "json" {
		t.Fatalf("config log settings ignored: %q %q", asm.LogLevel, asm.LogFormat)
	}

	pkg, err := parsePackage(t, "--workdir", workDir, "--config", cfg, "--preserve-layout=false")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pkg.SourceDir != filepath.Join(workDir, "web") {
		t.Fatalf("config source dir ignored: %q", pkg.SourceDir)
	}
	if pkg.ArchivePath != filepath.Join(workDir, DefaultPackageOutput, "site.zip") {
		t.Fatalf("project name not used for archive: %q", pkg.ArchivePath)
	}
	if pkg.PreserveLayout {
		t.Fatal("explicit --preserve-layout=false did not override config")
	}
}

func TestResolve_ConfigErrorsAreConfigExitCode(t *testing.T) {
	workDir := t.TempDir()
	cases := map[string]string{
		"unknown key":    "assemble:\n  outptuDir: x\n",
		"bad yaml":       "assemble: [\n",
		"two documents":  "project: a\n---\nproject: b\n",
		"wrong key type": "package:\n  preserveLayout: maybe\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := writeConfig(t, workDir, body)
			_, err := parseAssemble(t, "--workdir", workDir, "--config", cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if ExitCode(err) != ExitConfigError {
				t.Fatalf("expected exit code %d, got %d (%v)", ExitConfigError, ExitCode(err), err)
			}
		})
	}

	_, err := parseAssemble(t, "--workdir", workDir, "--config", "absent.yaml")
	if ExitCode(err) != ExitConfigError {
		t.Fatalf("missing config: expected exit code %d, got %d", ExitConfigError, ExitCode(err))
	}
}

func TestResolve_EmptyConfigIsAllowed(t *testing.T) {
	workDir := t.TempDir()
	cfg := writeConfig(t, workDir, "")
	if _, err := parseAssemble(t, "--workdir", workDir, "--config", cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestResolve_InvalidInvocations(t *testing.T) {
	workDir := t.TempDir()
	cases := []struct {
		name string
		args []string
	}{
		{"bad separator", []string{"--entry-separator", "tab"}},
		{"bad log level", []string{"--log-level", "loud"}},
		{"bad log format", []string{"--log-format", "xml"}},
		{"same output file", []string{"--js-file", "wra.out", "--css-file", "wra.out"}},
		{"empty descriptor", []string{"--descriptor", ""}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseAssemble(t, append([]string{"--workdir", workDir}, tc.args...)...)
			if ExitCode(err) != ExitInvalidInvocation {
				t.Fatalf("expected exit code %d, got %d (%v)", ExitInvalidInvocation, ExitCode(err), err)
			}
		})
	}

	_, err := parsePackage(t, "--workdir", workDir, "--final-name", "../escape")
	if ExitCode(err) != ExitInvalidInvocation {
		t.Fatalf("expected exit code %d, got %d (%v)", ExitInvalidInvocation, ExitCode(err), err)
	}
}

func TestResolve_RelativeWorkDirIsMadeAbsolute(t *testing.T) {
	inv, err := parsePackage(t, "--workdir", ".")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !filepath.IsAbs(inv.WorkDir) {
		t.Fatalf("workdir not absolute: %q", inv.WorkDir)
	}
}
