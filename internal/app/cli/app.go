package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/bool64/ctxd"

	"github.com/nhatthm/go-webcrawler/internal/crawler"
	"github.com/nhatthm/go-webcrawler/internal/downloader"
	"github.com/nhatthm/go-webcrawler/internal/footprint"
	"github.com/nhatthm/go-webcrawler/internal/logger"
)

const (
	// CodeOK indicates that the program exited with success.
	CodeOK = ExitCode(iota)
	// CodeErrOperationCanceled indicates that the program has been terminated and operation is canceled.
	CodeErrOperationCanceled
	// CodeErrNoInputSource indicates that the program has no input source.
	CodeErrNoInputSource
	// CodeErrOpenInputSource indicates that the program could not open input file.
	CodeErrOpenInputSource
	// CodeErrUnsupportedInputSource indicates that the program could not use the input source.
	CodeErrUnsupportedInputSource
	// CodeErrBadArgs indicates that the provided arguments are invalid.
	CodeErrBadArgs
	// CodeErrOutput indicates that the program could not write to output.
	CodeErrOutput
)

const (
	// Limitation for number of workers to avoid resource saturation.
	maxNumWorkers = 24
)

// ExitCode is the exit code of the program.
type ExitCode int

// seedResult is the result of the traversal from a seed.
type seedResult struct {
	Seed   string
	Depth  int
	Result crawler.Result
	Error  error
}

// Run runs the program to crawl the web from seeds.
//
// It will take only the first valid source as an input. The source types are:
// - []string: A list of URLs.
// - string: A file path that contains a list of URLs, one on each line.
// - io.ReadCloser: A reader that contains a list of URLs, one on each line.
// - io.Reader: A reader that contains a list of URLs, one on each line.
//
// The seeds are crawled one after another by the same crawler. The URLs can be with or without scheme, but must have a hostname. If the
// scheme is missing, default to https.
func Run(cfg Config, inputSources ...any) ExitCode {
	// Configure input source.
	inputSource, code, err := initInputSource(inputSources...)
	if err != nil {
		_, _ = fmt.Fprintln(cfg.ErrWriter, err.Error())

		return code
	}

	defer inputSource.Close() // nolint: errcheck

	if err := validateConfig(cfg); err != nil {
		_, _ = fmt.Fprintln(cfg.ErrWriter, err.Error())

		return CodeErrBadArgs
	}

	log := initLogger(cfg.VerbosityLevel, cfg.ErrWriter)

	c := initCrawler(cfg, log)
	defer c.Close()

	// Configure resultWriter.
	var writeResult resultWriter

	if cfg.VerbosityLevel > VerbosityLevelSilent {
		// When the verbosity level is not silent, the log messages will be printed to the output randomly.
		// And the application cannot guarantee the prettified output to human users because stdout and stderr are visualized on the same screen.
		// This is not a problem to machines because the log messages are sent to stderr which is another file descriptor.
		//
		// Therefore, we will buffer the output and send at once when all the seeds are processed.
		writeResult = bufferedJSONResultWriter(cfg.OutWriter, cfg.PrettyOutput, log)
	} else {
		// When the verbosity level is silent, there is no log messages to print. It would be great to see the progress of the program rather than waiting till
		// the end. Therefore, the program could print out the result as soon as it is ready.
		writeResult = unbufferedJSONResultWriter(cfg.OutWriter, cfg.ErrWriter, cfg.PrettyOutput)
	}

	publishSource := bufferedSourcePublisher(cfg.Downloaders, log)

	return doCrawl(c, cfg.Depth, publishSource, writeResult, inputSource, log)
}

// initLogger returns a new logger.
//
// If the verbosity level is silent, all the log messages will be discarded.
// Otherwise, the logger will write to the stderr writer.
//
// Then the verbosity level is
// - VerbosityLevelError, the log level will be set to logger.ErrorLevel.
// - VerbosityLevelDebug, the log level will be set to logger.DebugLevel.
func initLogger(level VerbosityLevel, errWriter io.Writer) ctxd.Logger {
	logCfg := logger.Config{
		Level: logger.ErrorLevel,
	}

	if level > VerbosityLevelSilent {
		logCfg.Output = errWriter
	}

	if level > VerbosityLevelError {
		logCfg.Level = logger.DebugLevel
	}

	return logger.New(logCfg)
}

// initInputSource returns the first valid input source.
//
// It accepts a list of input sources. The source types are:
// - []string: A list of URLs. If the list is empty, it is ignored.
// - string: A file path that contains a list of URLs, one on each line. If the path is empty, it is ignored.
// - io.ReadCloser: A reader that contains a list of URLs, one on each line.
// - io.Reader: A reader that contains a list of URLs, one on each line.
//
// The function returns an input source as an io.ReadCloser so that it can be streamed and closed by the caller.
//
// nolint: cyclop,goerr113 // Error will be printed out.
func initInputSource(sources ...any) (io.ReadCloser, ExitCode, error) {
	for _, source := range sources {
		switch s := source.(type) {
		case nil:
			continue

		case []string:
			if len(s) == 0 {
				continue
			}

			return io.NopCloser(strings.NewReader(strings.Join(s, "\n"))), CodeOK, nil

		case string:
			if len(s) == 0 {
				continue
			}

			f, err := os.Open(filepath.Clean(s))
			if err != nil {
				return nil, CodeErrOpenInputSource, fmt.Errorf("could not open input file: %w", err)
			}

			return f, CodeOK, nil

		case io.ReadCloser:
			return s, CodeOK, nil

		case io.Reader:
			return io.NopCloser(s), CodeOK, nil

		default:
			return nil, CodeErrUnsupportedInputSource, fmt.Errorf("unsupported input source: %T", s)
		}
	}

	return nil, CodeErrNoInputSource, errors.New("no input source")
}

// validateConfig checks the bounds of the options.
//
// nolint: goerr113 // Error will be printed out.
func validateConfig(cfg Config) error {
	switch {
	case cfg.Downloaders < 1:
		return errors.New(`number of downloaders must be greater than 0`)

	case cfg.Downloaders > maxNumWorkers:
		return fmt.Errorf(`maximum downloaders is %d`, maxNumWorkers)

	case cfg.Extractors < 1:
		return errors.New(`number of extractors must be greater than 0`)

	case cfg.Extractors > maxNumWorkers:
		return fmt.Errorf(`maximum extractors is %d`, maxNumWorkers)

	case cfg.PerHost < 1:
		return errors.New(`number of downloads per host must be greater than 0`)

	case cfg.Depth < 1:
		return errors.New(`depth must be greater than 0`)
	}

	return nil
}

// initCrawler initiates a new crawler.WebCrawler that downloads pages over http.
func initCrawler(cfg Config, log ctxd.Logger) *crawler.WebCrawler {
	d := downloader.NewHTTPDownloader(
		downloader.WithClientTimeout(cfg.Timeout),
		downloader.WithLogger(log),
	)

	return crawler.New(d,
		crawler.WithDownloaders(cfg.Downloaders),
		crawler.WithExtractors(cfg.Extractors),
		crawler.WithPerHostLimit(cfg.PerHost),
		crawler.WithLogger(log),
	)
}

// doCrawl crawls from the seeds of the input source and prints the result to the output writer.
//
// In case of SIGINT or SIGTERM, the running traversal will be stopped and the function will return CodeErrOperationCanceled.
// In case of output error, the function will return CodeErrOutput.
//
// The result will be channeled to the result writer for writing to the output.
func doCrawl(c *crawler.WebCrawler, depth int, publishSource sourcePublisher, writeResult resultWriter, source io.Reader, log ctxd.Logger) ExitCode {
	ctx, cancel := context.WithCancel(context.Background())

	go footprint.Track(ctx, log, footprint.DefaultInterval, crawlerStats(c))

	code := CodeOK
	codeMu := &sync.Mutex{}
	sigs := make(chan os.Signal, 1)

	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup

	wg.Add(2) // nolint: gomnd // WaitGroup is used to wait for goroutines to finish.

	go func() { // Watch for termination to cancel the context in order to stop the running traversal.
		defer wg.Done()
		defer signal.Stop(sigs)

		select {
		case <-sigs:
			codeMu.Lock()
			code = CodeErrOperationCanceled
			codeMu.Unlock()

			cancel()
		case <-ctx.Done():
			return
		}
	}()

	go func() {
		defer wg.Done()
		defer cancel()

		done := make(chan struct{})
		defer close(done)

		seedsCh := publishSource(ctx, source)
		wCode := writeResult(crawlSeeds(ctx, c, depth, seedsCh, done, log))

		codeMu.Lock()
		defer codeMu.Unlock()

		if wCode != CodeOK && code != CodeErrOperationCanceled {
			code = wCode
		}
	}()

	wg.Wait()

	return code
}

// crawlSeeds crawls from the seeds one after another and closes the result channel when all the seeds are processed.
//
// The seeds received after the context is canceled are skipped, the interrupted traversal is still reported. The crawling stops when the
// done channel is closed.
func crawlSeeds(ctx context.Context, c *crawler.WebCrawler, depth int, seeds <-chan string, done <-chan struct{}, log ctxd.Logger) <-chan seedResult {
	results := make(chan seedResult)

	go func() {
		defer close(results)

		for seed := range seeds {
			if ctx.Err() != nil {
				continue
			}

			result, err := c.Download(ctx, seed, depth)
			if err != nil {
				log.Error(ctx, "could not crawl seed", "seed", seed, "error", err)
			}

			select {
			case <-done:
				return

			case results <- seedResult{Seed: seed, Depth: depth, Result: result, Error: err}:
			}
		}

		log.Debug(ctx, "crawled all seeds")
	}()

	return results
}

// crawlerStats reports the pool statistics of the crawler for tracking.
func crawlerStats(c *crawler.WebCrawler) footprint.Probe {
	return func() []any {
		s := c.Stats()

		return []any{
			"crawler.downloaders.queued", s.Downloaders.Queued,
			"crawler.downloaders.running", s.Downloaders.Running,
			"crawler.extractors.queued", s.Extractors.Queued,
			"crawler.extractors.running", s.Extractors.Running,
		}
	}
}
