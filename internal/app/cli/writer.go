package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/bool64/ctxd"
)

const jsonIndent = "  "

// resultWriter is a function that writes the results of the traversals to a writer.
type resultWriter func(results <-chan seedResult) ExitCode

type crawlerReport struct {
	Seed       string            `json:"seed"`
	Depth      int               `json:"depth"`
	Downloaded []string          `json:"downloaded"`
	Errors     map[string]string `json:"errors"`
	Error      *string           `json:"error"`
}

// bufferedJSONResultWriter creates a new result writer that writes the results to memory and then the output at the end of the process.
//
// In case of error while writing to the output, the error will be logged and the process will stop with exit code CodeErrOutput.
func bufferedJSONResultWriter(out io.Writer, pretty bool, log ctxd.Logger) resultWriter {
	return func(results <-chan seedResult) (code ExitCode) {
		code = CodeOK
		ctx := context.Background()
		buf := make([]crawlerReport, 0)

		defer func() {
			enc := json.NewEncoder(out)

			if pretty {
				enc.SetIndent("", jsonIndent)
			}

			if err := enc.Encode(buf); err != nil {
				code = CodeErrOutput

				log.Error(ctx, "failed to encode report", "error", err)
			}
		}()

		for r := range results {
			log.Debug(ctx, "received result",
				"seed", r.Seed,
				"num_downloaded", len(r.Result.URLs),
				"num_errors", len(r.Result.Errors),
			)

			buf = append(buf, toCrawlerReport(r))
		}

		return code
	}
}

// unbufferedJSONResultWriter creates a new result writer that writes the results to output as soon as they are received.
//
// In case of error while writing to the output, the error will be printed to the error output and the process will stop with exit code CodeErrOutput.
func unbufferedJSONResultWriter(out, outErr io.Writer, pretty bool) resultWriter {
	return func(results <-chan seedResult) (code ExitCode) {
		writeErr := func(format string, args ...interface{}) {
			code = CodeErrOutput
			_, _ = fmt.Fprintf(outErr, format, args...)
		}

		buf := new(bytes.Buffer)
		enc := json.NewEncoder(buf)
		join := ""

		newL, startIndent, joinTmpl := "", "", ","

		if pretty {
			newL, startIndent = "\n", jsonIndent
			joinTmpl = ",\n" + startIndent

			enc.SetIndent(jsonIndent, jsonIndent)
		}

		if _, err := fmt.Fprint(out, "[", newL, startIndent); err != nil {
			writeErr("could not write [ to output: %s\n", err)

			return
		}

		defer func() {
			if code != CodeOK {
				return
			}

			if _, err := fmt.Fprint(out, newL, "]\n"); err != nil {
				writeErr("could not write ] to output: %s\n", err)
			}
		}()

		for result := range results {
			buf.Reset()

			if err := enc.Encode(toCrawlerReport(result)); err != nil { // This should not happen.
				writeErr("could not encode %q report: %s", result.Seed, err.Error())

				return
			}

			if _, err := fmt.Fprint(out, join, strings.Trim(buf.String(), "\r\n")); err != nil {
				writeErr("could not write %q report: %s", result.Seed, err.Error())

				return
			}

			join = joinTmpl
		}

		return CodeOK
	}
}

// toCrawlerReport converts a seedResult to crawlerReport for output.
func toCrawlerReport(r seedResult) crawlerReport {
	report := crawlerReport{
		Seed:       r.Seed,
		Depth:      r.Depth,
		Downloaded: r.Result.URLs,
		Errors:     make(map[string]string, len(r.Result.Errors)),
	}

	if report.Downloaded == nil {
		report.Downloaded = []string{}
	}

	for u, err := range r.Result.Errors {
		report.Errors[u] = err.Error()
	}

	if r.Error != nil {
		err := r.Error.Error()
		report.Error = &err
	}

	return report
}
