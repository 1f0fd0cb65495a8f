package config

import (
	"errors"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"
)

// DefaultConfigFile is read when no configuration path is given.
const DefaultConfigFile = "config.yml"

type Config struct {
	Logger    Logger    `yaml:"logger"`
	Addin     Addin     `yaml:"addin"`
	Solution  Solution  `yaml:"solution"`
	Cppcheck  Cppcheck  `yaml:"cppcheck"`
	ClangTidy ClangTidy `yaml:"clang_tidy"`
	Custom    Custom    `yaml:"custom"`
}

type Logger struct {
	Level           string `yaml:"level"`
	DisableTime     *bool  `yaml:"disable_time"`
	JSONFormat      *bool  `yaml:"json_format"`
	IncludeLocation *bool  `yaml:"include_location"`
}

type Addin struct {
	HomeFolder         string `yaml:"home_folder"`
	PluginsFolder      string `yaml:"plugins_folder"`
	ArtifactsFolder    string `yaml:"artifacts_folder"` // run results saved by the CLI
	SuppressionsFolder string `yaml:"suppressions_folder"` // global suppressions, per-user config dir when empty
	Analyzer           string `yaml:"analyzer"`            // analyzer used when none is requested
}

// Solution describes the solution the analysed projects belong to.
type Solution struct {
	Dir  string `yaml:"dir"`
	Name string `yaml:"name"`
}

type Cppcheck struct {
	Path           string   `yaml:"path"`
	Jobs           int      `yaml:"jobs"`
	Enable         []string `yaml:"enable"`
	Inconclusive   *bool    `yaml:"inconclusive"`
	Platform       string   `yaml:"platform"`
	AdditionalArgs []string `yaml:"additional_args"`
}

type ClangTidy struct {
	Path           string   `yaml:"path"`
	Checks         string   `yaml:"checks"`
	AdditionalArgs []string `yaml:"additional_args"`
}

// Custom runs an arbitrary tool whose output is parsed by a parser plugin.
type Custom struct {
	Name       string   `yaml:"name"`
	Executable string   `yaml:"executable"`
	Args       []string `yaml:"args"`
	Parser     string   `yaml:"parser"`   // parser plugin binary in the plugins folder
	Patterns   []string `yaml:"patterns"` // passed to the parser plugin on setup
}

// ValidateConfigPath checks that path points to a regular file.
func ValidateConfigPath(path string) error {
	s, err := os.Stat(path)
	if err != nil {
		return err
	}
	if s.IsDir() {
		return fmt.Errorf("'%s' is a directory, not a file", path)
	}
	return nil
}

// LoadYAML decodes the YAML file at configPath into data.
func LoadYAML(configPath string, data interface{}) error {
	if err := ValidateConfigPath(configPath); err != nil {
		return err
	}

	file, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	if err := d.Decode(data); err != nil {
		return err
	}

	return nil
}

// NewConfig reads the configuration file at configPath.
func NewConfig(configPath string) (*Config, error) {
	config := &Config{}

	if err := LoadYAML(configPath, config); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadOrDefault reads the configuration file at configPath. When optional is set
// and the file does not exist, an empty configuration is returned instead.
func LoadOrDefault(configPath string, optional bool) (*Config, error) {
	cfg, err := NewConfig(configPath)
	if err == nil {
		return cfg, nil
	}
	if optional && errors.Is(err, os.ErrNotExist) {
		return &Config{}, nil
	}
	return nil, fmt.Errorf("failed to load config %q: %w", configPath, err)
}
