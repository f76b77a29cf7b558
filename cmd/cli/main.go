package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nhatthm/go-webcrawler/internal/app/cli"
)

const usage = `Crawl the web from seed urls and report the downloaded pages.

Usage:
  [app] [options] [seed1 seed2 ... seedN]

Options:
  -f, --file PATH/TO/FILE
                    Path to the input file that contains a list of seeds,
                    separated by '\n'.
                    This option is used if no seeds are provided.
  -d, --depth NUM
                    Depth of the traversal, 1 means only the seeds are
                    downloaded. Default to [defaultDepth].
  -p, --downloaders NUM
                    Number of workers for downloading pages.
                    Default to [defaultDownloaders].
  -e, --extractors NUM
                    Number of workers for extracting links.
                    Default to [defaultExtractors].
  --per-host NUM    Maximum number of concurrent downloads of the same host.
                    Default to [defaultPerHost].
  -t, --timeout TIMEOUT
                    Timeout for requesting an url, in the form "72h3m0.5s".
                    Default to [defaultTimeout].
  --no-pretty       Disable pretty output.
  -v, --verbose     Print out the error log messages.
  -vv               Print out the all log messages.
  -h, --help        Print out the help message.

Environment:
  CRAWLER_DEPTH, CRAWLER_DOWNLOADERS, CRAWLER_EXTRACTORS, CRAWLER_PER_HOST
  and CRAWLER_TIMEOUT override the defaults.

Examples:
  Crawl all the seeds in path/to/file.txt:
    [app] -p 24 -f path/to/file.txt

  Crawl 3 levels from the seeds in arguments:
    [app] -d 3 --per-host 2 example.com example.org

  Crawl all the seeds in stdin:
    echo -n "example.com" | [app] -vv

  Crawl with timeout:
    [app] -t 10s example.com

Note:
  - All seeds can be with or without scheme, but must have a hostname. If the
    scheme is missing, default to https.

Read more:
  - Time Duration format: https://golang.org/pkg/time/#ParseDuration
`

func main() {
	os.Exit(runMain())
}

func runMain() int {
	defaults, err := cli.LoadDefaults()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())

		return int(cli.CodeErrBadArgs)
	}

	var (
		argInputFile   string
		argNoPretty    bool
		argVerbose     bool
		argVeryVerbose bool
	)

	cfg := cli.Config{
		OutWriter: os.Stdout,
		ErrWriter: os.Stderr,
	}

	flag.StringVar(&argInputFile, "file", "", "")
	flag.StringVar(&argInputFile, "f", "", "")
	flag.IntVar(&cfg.Depth, "depth", defaults.Depth, "")
	flag.IntVar(&cfg.Depth, "d", defaults.Depth, "")
	flag.IntVar(&cfg.Downloaders, "downloaders", defaults.Downloaders, "")
	flag.IntVar(&cfg.Downloaders, "p", defaults.Downloaders, "")
	flag.IntVar(&cfg.Extractors, "extractors", defaults.Extractors, "")
	flag.IntVar(&cfg.Extractors, "e", defaults.Extractors, "")
	flag.IntVar(&cfg.PerHost, "per-host", defaults.PerHost, "")
	flag.DurationVar(&cfg.Timeout, "timeout", defaults.Timeout, "")
	flag.DurationVar(&cfg.Timeout, "t", defaults.Timeout, "")
	flag.BoolVar(&argNoPretty, "no-pretty", false, "")
	flag.BoolVar(&argVerbose, "verbose", false, "")
	flag.BoolVar(&argVerbose, "v", false, "")
	flag.BoolVar(&argVeryVerbose, "vv", false, "")

	flag.Usage = func() {
		r := strings.NewReplacer(
			`[app]`, filepath.Base(os.Args[0]),
			`[defaultDepth]`, strconv.Itoa(defaults.Depth),
			`[defaultDownloaders]`, strconv.Itoa(defaults.Downloaders),
			`[defaultExtractors]`, strconv.Itoa(defaults.Extractors),
			`[defaultPerHost]`, strconv.Itoa(defaults.PerHost),
			`[defaultTimeout]`, defaults.Timeout.String(),
		)

		fmt.Print(r.Replace(usage))
	}

	flag.Parse()

	cfg.PrettyOutput = !argNoPretty
	cfg.VerbosityLevel = cli.VerbosityLevelSilent

	if argVeryVerbose {
		cfg.VerbosityLevel = cli.VerbosityLevelDebug
	} else if argVerbose {
		cfg.VerbosityLevel = cli.VerbosityLevelError
	}

	return int(cli.Run(cfg, flag.Args(), argInputFile, pipeFromStdIn(os.Stdin)))
}

// Detect if stdin is piped from another process.
func pipeFromStdIn(in *os.File) io.ReadCloser {
	fi, err := in.Stat()
	if err != nil {
		// Just ignore because we do not know if it is a pipe or not.
		return nil
	}

	if (fi.Mode() & os.ModeNamedPipe) != 0 {
		return io.NopCloser(in)
	}

	return nil
}
