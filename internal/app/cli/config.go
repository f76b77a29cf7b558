package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// envPrefix is the prefix of the environment variables for the defaults of the application.
const envPrefix = "CRAWLER"

// VerbosityLevel is the verbosity level of the application.
type VerbosityLevel uint

const (
	// VerbosityLevelSilent is the silent verbosity level.
	VerbosityLevelSilent VerbosityLevel = iota
	// VerbosityLevelError is the error verbosity level.
	VerbosityLevelError
	// VerbosityLevelDebug is the warning verbosity level.
	VerbosityLevelDebug
)

// Config is the configuration of the application.
type Config struct {
	OutWriter io.Writer // The stream that will receive the results
	ErrWriter io.Writer // The stream that will receive all the log messages and errors.

	Downloaders    int            // The number of workers for downloading pages.
	Extractors     int            // The number of workers for extracting links.
	PerHost        int            // The maximum number of concurrent downloads of the same host.
	Depth          int            // The depth of the traversal, 1 means only the seed is downloaded.
	Timeout        time.Duration  // The timeout of the http client of the crawler.
	PrettyOutput   bool           // Enable JSON prettifier.
	VerbosityLevel VerbosityLevel // The verbosity level of the tool.
}

// Defaults are the default values of the options of the application, they are read from the environment.
type Defaults struct {
	Downloaders int           `envconfig:"DOWNLOADERS" default:"4"`
	Extractors  int           `envconfig:"EXTRACTORS" default:"4"`
	PerHost     int           `envconfig:"PER_HOST" default:"3"`
	Depth       int           `envconfig:"DEPTH" default:"2"`
	Timeout     time.Duration `envconfig:"TIMEOUT" default:"30s"`
}

// LoadDefaults reads the defaults from the CRAWLER_* environment variables.
func LoadDefaults() (Defaults, error) {
	var d Defaults

	if err := envconfig.Process(envPrefix, &d); err != nil {
		return Defaults{}, fmt.Errorf("could not load defaults: %w", err)
	}

	return d, nil
}
