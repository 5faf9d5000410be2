// conf defines configuration file parsing for meshconf
package conf

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ConfigurationError struct {
	msg string
}

func (m *ConfigurationError) Error() string {
	return m.msg
}

type LogLevel string

const (
	ERROR   LogLevel = "error"
	WARNING LogLevel = "warning"
	INFO    LogLevel = "info"
	DEBUG   LogLevel = "debug"
)

const (
	DATABASE_ENV  = "MESHCONF_DATABASE"
	OUTPUT_ENV    = "MESHCONF_OUTPUT"
	LOG_LEVEL_ENV = "MESHCONF_LOG_LEVEL"
	STRICT_ENV    = "MESHCONF_STRICT"
)

// Configuration contains the defaults used by the meshconf tool. Command
// line flags take precedence over every value in here.
type Configuration struct {
	// Database is the path of the JSON peer registry
	Database string `yaml:"database" validate:"required"`
	// Output is the directory generated configurations are written to
	Output string `yaml:"output" validate:"required"`
	// LogLevel is the level of detail written to stderr
	LogLevel LogLevel `yaml:"logLevel" validate:"required,eq=error|eq=warning|eq=info|eq=debug"`
	// DefaultListenPort is the listen port given to new peers when none
	// is specified
	DefaultListenPort int `yaml:"defaultListenPort" validate:"gte=1,lte=65535"`
	// StrictDatabase refuses to operate on a registry that cannot be
	// parsed instead of treating it as empty
	StrictDatabase bool `yaml:"strictDatabase"`
	// ApiAddress is the address the HTTP API listens on
	ApiAddress string `yaml:"apiAddress" validate:"required,hostname_port"`
}

// DefaultConfiguration: the configuration used when no file is provided
func DefaultConfiguration() *Configuration {
	return &Configuration{
		Database:          "database.json",
		Output:            "output",
		LogLevel:          WARNING,
		DefaultListenPort: 51820,
		StrictDatabase:    false,
		ApiAddress:        "127.0.0.1:40000",
	}
}

// ValidateConfiguration: validates the configuration that is used.
func ValidateConfiguration(c *Configuration) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	err := validate.Struct(c)

	if err != nil {
		return &ConfigurationError{msg: fmt.Sprintf("invalid configuration: %s", err.Error())}
	}

	return nil
}

// ParseConfiguration parses the YAML file at filePath on top of the
// defaults. A missing file yields the defaults.
func ParseConfiguration(filePath string) (*Configuration, error) {
	conf := DefaultConfiguration()

	if filePath == "" {
		return conf, nil
	}

	yamlBytes, err := os.ReadFile(filePath)

	if errors.Is(err, fs.ErrNotExist) {
		return conf, nil
	}

	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(yamlBytes, conf)

	if err != nil {
		return nil, &ConfigurationError{msg: fmt.Sprintf("could not parse %s: %s", filePath, err.Error())}
	}

	return conf, ValidateConfiguration(conf)
}

// ApplyEnvironment loads envFile (if it exists) into the process
// environment and overrides the configuration with any MESHCONF_ variables
func ApplyEnvironment(conf *Configuration, envFile string) error {
	if envFile != "" {
		err := godotenv.Load(envFile)

		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return &ConfigurationError{msg: fmt.Sprintf("could not load %s: %s", envFile, err.Error())}
		}
	}

	if database, ok := os.LookupEnv(DATABASE_ENV); ok {
		conf.Database = database
	}

	if output, ok := os.LookupEnv(OUTPUT_ENV); ok {
		conf.Output = output
	}

	if level, ok := os.LookupEnv(LOG_LEVEL_ENV); ok {
		conf.LogLevel = LogLevel(level)
	}

	if strict, ok := os.LookupEnv(STRICT_ENV); ok {
		value, err := strconv.ParseBool(strict)

		if err != nil {
			return &ConfigurationError{msg: fmt.Sprintf("%s must be a boolean", STRICT_ENV)}
		}

		conf.StrictDatabase = value
	}

	return ValidateConfiguration(conf)
}
