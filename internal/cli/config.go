package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the optional project configuration file. Each field has a flag of
// the same meaning; a flag given explicitly wins over the file.
type Config struct {
	// Project is the project name, used as the default archive name.
	Project    string         `yaml:"project"`
	Descriptor string         `yaml:"descriptor"`
	Repository string         `yaml:"repository"`
	Trace      string         `yaml:"trace"`
	Assemble   AssembleConfig `yaml:"assemble"`
	Package    PackageConfig  `yaml:"package"`
	Log        LogConfig      `yaml:"log"`
}

type AssembleConfig struct {
	OutputDir string `yaml:"outputDir"`
	JSFile    string `yaml:"jsFile"`
	CSSFile   string `yaml:"cssFile"`
	Separator string `yaml:"separator"`
}

type PackageConfig struct {
	SourceDir      string `yaml:"sourceDir"`
	OutputDir      string `yaml:"outputDir"`
	FinalName      string `yaml:"finalName"`
	PreserveLayout *bool  `yaml:"preserveLayout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ConfigError reports an unreadable or malformed configuration file.
type ConfigError struct {
	Path  string
	Cause error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Cause)
}

func (e *ConfigError) Unwrap() error { return e.Cause }

// LoadConfig reads the YAML configuration at path.
//
// Unknown keys and trailing documents are rejected. An empty file is an
// empty configuration.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Cause: err}
	}
	var cfg Config
	if err := decodeStrict(b, &cfg); err != nil {
		return nil, &ConfigError{Path: path, Cause: err}
	}
	return &cfg, nil
}

// decodeStrict decodes exactly one YAML document into out, refusing fields
// out does not declare.
func decodeStrict(b []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	var trailing yaml.Node
	if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("trailing document")
		}
		return err
	}
	return nil
}
