//go:build !testsignal

package cli_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nhatthm/httpmock"
	"github.com/stretchr/testify/assert"

	"github.com/nhatthm/go-webcrawler/internal/app/cli"
)

func Test_Run_Error_NoInputSource(t *testing.T) {
	t.Parallel()

	outBuf := new(safeBuffer)
	errBuf := new(safeBuffer)

	code := cli.Run(newConfig(outBuf, errBuf))

	expectedError := "no input source\n"

	assert.Empty(t, outBuf.String())
	assert.Equal(t, cli.CodeErrNoInputSource, code)
	assert.Equal(t, expectedError, errBuf.String())
}

func Test_Run_Error_BadArgs(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		scenario      string
		configure     func(cfg *cli.Config)
		expectedError string
	}{
		{
			scenario:      "negative downloaders",
			configure:     func(cfg *cli.Config) { cfg.Downloaders = -1 },
			expectedError: "number of downloaders must be greater than 0",
		},
		{
			scenario:      "zero downloaders",
			configure:     func(cfg *cli.Config) { cfg.Downloaders = 0 },
			expectedError: "number of downloaders must be greater than 0",
		},
		{
			scenario:      "too many downloaders",
			configure:     func(cfg *cli.Config) { cfg.Downloaders = 25 },
			expectedError: "maximum downloaders is 24",
		},
		{
			scenario:      "zero extractors",
			configure:     func(cfg *cli.Config) { cfg.Extractors = 0 },
			expectedError: "number of extractors must be greater than 0",
		},
		{
			scenario:      "too many extractors",
			configure:     func(cfg *cli.Config) { cfg.Extractors = 25 },
			expectedError: "maximum extractors is 24",
		},
		{
			scenario:      "zero per host",
			configure:     func(cfg *cli.Config) { cfg.PerHost = 0 },
			expectedError: "number of downloads per host must be greater than 0",
		},
		{
			scenario:      "zero depth",
			configure:     func(cfg *cli.Config) { cfg.Depth = 0 },
			expectedError: "depth must be greater than 0",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.scenario, func(t *testing.T) {
			t.Parallel()

			outBuf := new(safeBuffer)
			errBuf := new(safeBuffer)

			cfg := newConfig(outBuf, errBuf)
			tc.configure(&cfg)

			code := cli.Run(cfg, []string{"example.com"})

			assert.Empty(t, outBuf.String())
			assert.Equal(t, tc.expectedError, strings.Trim(errBuf.String(), "\n"))
			assert.Equal(t, cli.CodeErrBadArgs, code)
		})
	}
}

const (
	expectedPrettyReports = `[
  {
    "seed": "[server]/path1",
    "depth": 1,
    "downloaded": [
      "[server]/path1"
    ],
    "errors": {},
    "error": null
  },
  {
    "seed": "[server]/path2",
    "depth": 1,
    "downloaded": [
      "[server]/path2"
    ],
    "errors": {},
    "error": null
  }
]`
	expectedReports = `[{"seed":"[server]/path1","depth":1,"downloaded":["[server]/path1"],"errors":{},"error":null},{"seed":"[server]/path2","depth":1,"downloaded":["[server]/path2"],"errors":{},"error":null}]`
)

func Test_Run_BufferedOutput(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		scenario       string
		prettyOutput   bool
		expectedOutput string
	}{
		{
			scenario:       "pretty",
			prettyOutput:   true,
			expectedOutput: expectedPrettyReports,
		},
		{
			scenario:       "no pretty",
			prettyOutput:   false,
			expectedOutput: expectedReports,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.scenario, func(t *testing.T) {
			t.Parallel()

			send1stResp := make(chan struct{}, 1)
			send2ndResp := make(chan struct{}, 1)

			srv := httpmock.New(func(s *httpmock.Server) {
				s.ExpectGet("/path1").
					ReturnCode(httpmock.StatusOK).
					Run(func(r *http.Request) ([]byte, error) {
						defer close(send1stResp)

						return []byte(`<a href="/path1">Example</a>`), nil
					})

				s.ExpectGet("/path2").
					ReturnCode(httpmock.StatusOK).
					Run(func(r *http.Request) ([]byte, error) {
						<-send2ndResp

						return []byte(`<a href="/path2">Example</a>`), nil
					})
			})(t)

			outBuf := new(safeBuffer)
			errBuf := new(safeBuffer)

			var (
				code cli.ExitCode
				wg   sync.WaitGroup
			)

			wg.Add(1)

			go func() {
				defer wg.Done()

				cfg := newConfig(outBuf, errBuf)
				cfg.PrettyOutput = tc.prettyOutput
				cfg.VerbosityLevel = cli.VerbosityLevelError

				code = cli.Run(cfg, srvRequests(srv, 2))
			}()

			<-send1stResp

			assert.Empty(t, outBuf.String())
			assert.Empty(t, errBuf.String())

			close(send2ndResp)

			wg.Wait()

			expected := strings.ReplaceAll(tc.expectedOutput, "[server]", srv.URL()) + "\n"

			assert.Equal(t, expected, outBuf.String())
			assert.Empty(t, errBuf.String())
			assert.Equal(t, cli.CodeOK, code)
		})
	}
}

func Test_Run_BufferedOutput_Error(t *testing.T) {
	t.Parallel()

	srv := httpmock.New(func(s *httpmock.Server) {
		s.ExpectGet("/path1").
			ReturnCode(httpmock.StatusOK).
			Return(`<a href="/path1">Example</a>`)
	})(t)

	errBuf := new(safeBuffer)

	cfg := newConfig(writerFunc(func([]byte) (int, error) {
		return 0, errors.New("write error")
	}), errBuf)
	cfg.VerbosityLevel = cli.VerbosityLevelError

	code := cli.Run(cfg, srvRequests(srv, 1))

	expectedError := `failed to encode report	{"error": "write error"}`

	assert.Contains(t, errBuf.String(), expectedError)
	assert.Equal(t, cli.CodeErrOutput, code)
}

func Test_Run_UnbufferedOutput(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		scenario       string
		prettyOutput   bool
		expectedOutput string
	}{
		{
			scenario:       "pretty",
			prettyOutput:   true,
			expectedOutput: expectedPrettyReports,
		},
		{
			scenario:       "no pretty",
			prettyOutput:   false,
			expectedOutput: expectedReports,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.scenario, func(t *testing.T) {
			t.Parallel()

			send1stResp := make(chan struct{}, 1)
			send2ndResp := make(chan struct{}, 1)

			srv := httpmock.New(func(s *httpmock.Server) {
				s.ExpectGet("/path1").
					ReturnCode(httpmock.StatusOK).
					Run(func(r *http.Request) ([]byte, error) {
						defer close(send1stResp)

						return []byte(`<a href="/path1">Example</a>`), nil
					})

				s.ExpectGet("/path2").
					ReturnCode(httpmock.StatusOK).
					Run(func(r *http.Request) ([]byte, error) {
						<-send2ndResp

						return []byte(`<a href="/path2">Example</a>`), nil
					})
			})(t)

			outBuf := new(safeBuffer)
			errBuf := new(safeBuffer)

			var (
				code cli.ExitCode
				wg   sync.WaitGroup
			)

			wg.Add(1)

			go func() {
				defer wg.Done()

				cfg := newConfig(outBuf, errBuf)
				cfg.PrettyOutput = tc.prettyOutput

				code = cli.Run(cfg, srvRequests(srv, 2))
			}()

			<-send1stResp

			time.Sleep(50 * time.Millisecond)

			assert.NotEmpty(t, outBuf.String())
			assert.Empty(t, errBuf.String())

			close(send2ndResp)

			wg.Wait()

			expected := strings.ReplaceAll(tc.expectedOutput, "[server]", srv.URL())

			assert.Equal(t, expected, strings.Trim(outBuf.String(), "\n"))
			assert.Empty(t, errBuf.String())
			assert.Equal(t, cli.CodeOK, code)
		})
	}
}

func Test_Run_UnbufferedOutput_CouldNotWriteOpenBracket(t *testing.T) {
	t.Parallel()

	outBuf := new(safeBuffer)
	outW := writerFunc(func(p []byte) (int, error) {
		if bytes.Contains(p, []byte("[")) && !bytes.Contains(p, []byte("could not")) {
			return 0, errors.New("write error")
		}

		return outBuf.Write(p)
	})

	code := cli.Run(newConfig(outW, outW), strings.NewReader(""))

	expected := `could not write [ to output: write error`

	assert.Equal(t, expected, strings.Trim(outBuf.String(), "\n"))
	assert.Equal(t, cli.CodeErrOutput, code)
}

func Test_Run_UnbufferedOutput_CouldNotWriteCloseBracket(t *testing.T) {
	t.Parallel()

	outBuf := new(safeBuffer)
	outW := writerFunc(func(p []byte) (int, error) {
		if bytes.Contains(p, []byte("]")) && !bytes.Contains(p, []byte("could not")) {
			return 0, errors.New("write error")
		}

		return outBuf.Write(p)
	})

	code := cli.Run(newConfig(outW, outW), strings.NewReader(""))

	expected := `[could not write ] to output: write error`

	assert.Equal(t, expected, strings.Trim(outBuf.String(), "\n"))
	assert.Equal(t, cli.CodeErrOutput, code)
}

func Test_Run_UnbufferedOutput_CouldNotWriteResult(t *testing.T) {
	t.Parallel()

	srv := httpmock.New(func(s *httpmock.Server) {
		s.ExpectGet("/path1").
			ReturnCode(httpmock.StatusOK).
			Return(`<a href="/path1">Example</a>`)
	})(t)

	outBuf := new(safeBuffer)
	outW := writerFunc(func(p []byte) (int, error) {
		if !bytes.Equal(p, []byte("[")) && !bytes.Contains(p, []byte("could not")) {
			return 0, errors.New("write error")
		}

		return outBuf.Write(p)
	})

	code := cli.Run(newConfig(outW, outW), srvRequests(srv, 1))

	expected := fmt.Sprintf(`[could not write "%s/path1" report: write error`, srv.URL())

	assert.Equal(t, expected, strings.Trim(outBuf.String(), "\n"))
	assert.Equal(t, cli.CodeErrOutput, code)
}

func Test_Run_InputFile_ErrorNotFound(t *testing.T) {
	t.Parallel()

	outBuf := new(safeBuffer)
	errBuf := new(safeBuffer)

	code := cli.Run(newConfig(outBuf, errBuf), "file-not-found")

	expectedError := "could not open input file: open file-not-found: no such file or directory\n"

	assert.Empty(t, outBuf.String())
	assert.Equal(t, expectedError, errBuf.String())
	assert.Equal(t, cli.CodeErrOpenInputSource, code)
}

func Test_Run_InputFile_Success(t *testing.T) {
	t.Parallel()

	srv := httpmock.New(func(s *httpmock.Server) {
		s.ExpectGet("/path1").
			ReturnCode(httpmock.StatusOK).
			Return(`<a href="/path1">Example</a>`)
	})(t)

	inputFile := t.TempDir() + "/input.txt"

	// Blank lines are skipped.
	err := os.WriteFile(inputFile, []byte("\n"+srv.URL()+"/path1\n\n"), 0o644) // nolint: gosec
	if err != nil {
		t.Errorf("could not prepare input file: %v", err)

		return
	}

	outBuf := new(safeBuffer)
	errBuf := new(safeBuffer)

	code := cli.Run(newConfig(outBuf, errBuf), inputFile)

	expected := fmt.Sprintf(`[{"seed":"%s/path1","depth":1,"downloaded":["%s/path1"],"errors":{},"error":null}]`, srv.URL(), srv.URL())

	assert.Equal(t, expected, strings.Trim(outBuf.String(), "\n"))
	assert.Empty(t, errBuf.String())
	assert.Equal(t, cli.CodeOK, code)
}

func Test_Run_RequestError(t *testing.T) {
	t.Parallel()

	srv := httpmock.New(func(s *httpmock.Server) {
		s.ExpectGet("/path1").
			ReturnCode(httpmock.StatusForbidden)
	})(t)

	outBuf := new(safeBuffer)
	errBuf := new(safeBuffer)

	cfg := newConfig(outBuf, errBuf)
	cfg.VerbosityLevel = cli.VerbosityLevelError

	code := cli.Run(cfg, []string{srv.URL() + "/path1"})

	expected := fmt.Sprintf(`[{"seed":"%s/path1","depth":1,"downloaded":[],"errors":{"%s/path1":"could not download page: unexpected status code: 403"},"error":null}]`, srv.URL(), srv.URL())
	expectedError := `unexpected http status code	{"status_code": 403, `

	assert.Equal(t, expected, strings.Trim(outBuf.String(), "\n"))
	assert.Contains(t, errBuf.String(), expectedError)
	assert.Contains(t, errBuf.String(), `"http.timeout": "30s"}`)
	assert.Equal(t, cli.CodeOK, code)
}

func Test_Run_Depth(t *testing.T) {
	t.Parallel()

	srv := httpmock.New(func(s *httpmock.Server) {
		s.ExpectGet("/path1").
			ReturnHeader("Content-Type", "text/html").
			Return(`<a href="/path2">Path 2</a><a href="mailto:john@example.com">Mail</a><a href="/missing">Missing</a>`)

		s.ExpectGet("/path2").
			ReturnHeader("Content-Type", "text/plain").
			Run(func(r *http.Request) ([]byte, error) {
				return []byte("back to http://" + r.Host + "/path1"), nil
			})

		s.ExpectGet("/missing").
			ReturnCode(httpmock.StatusNotFound)
	})(t)

	outBuf := new(safeBuffer)
	errBuf := new(safeBuffer)

	cfg := newConfig(outBuf, errBuf)
	cfg.Depth = 3
	cfg.Downloaders = 2
	cfg.PerHost = 2

	code := cli.Run(cfg, []string{srv.URL() + "/path1"})

	expected := strings.ReplaceAll(`[{"seed":"[server]/path1","depth":3,"downloaded":["[server]/path1","[server]/path2"],"errors":{"[server]/missing":"could not download page: unexpected status code: 404"},"error":null}]`, "[server]", srv.URL())

	assert.Equal(t, expected, strings.Trim(outBuf.String(), "\n"))
	assert.Empty(t, errBuf.String())
	assert.Equal(t, cli.CodeOK, code)
}

func Test_Run_MultipleSources_Unsupported(t *testing.T) {
	t.Parallel()

	outBuf := new(safeBuffer)
	errBuf := new(safeBuffer)

	cfg := newConfig(outBuf, errBuf)
	cfg.VerbosityLevel = cli.VerbosityLevelDebug

	code := cli.Run(cfg,
		[]string{},           // This is ignored because it is empty.
		"",                   // This is ignored because it is empty.
		nil,                  // This is ignored because it is nil.
		(io.ReadCloser)(nil), // This is ignored because it is nil.
		(io.Reader)(nil),     // This is ignored because it is nil.
		2,                    // This is not a supported source.
	)

	expectedError := `unsupported input source: int`

	assert.Empty(t, outBuf.String())
	assert.Equal(t, expectedError, strings.Trim(errBuf.String(), "\n"))
	assert.Equal(t, cli.CodeErrUnsupportedInputSource, code)
}

func Test_Run_CouldNotReadFromSource(t *testing.T) {
	t.Parallel()

	outBuf := new(safeBuffer)
	errBuf := new(safeBuffer)

	cfg := newConfig(outBuf, errBuf)
	cfg.VerbosityLevel = cli.VerbosityLevelError

	code := cli.Run(cfg, readerFunc(func([]byte) (n int, err error) {
		return 0, errors.New("read error")
	}))

	expected := "[]\n"
	expectedError := `could not read input for publishing	{"error": "read error"}`

	assert.Equal(t, expected, outBuf.String())
	assert.Contains(t, errBuf.String(), expectedError)
	assert.Equal(t, cli.CodeOK, code)
}

func Test_Run_Debug(t *testing.T) {
	t.Parallel()

	srv := httpmock.New(func(s *httpmock.Server) {
		s.ExpectGet("/path1").
			ReturnCode(httpmock.StatusOK).
			Return(`<a href="/path1">Example</a>`)
	})(t)

	outBuf := new(safeBuffer)
	errBuf := new(safeBuffer)

	cfg := newConfig(outBuf, errBuf)
	cfg.VerbosityLevel = cli.VerbosityLevelDebug

	code := cli.Run(cfg, srvRequests(srv, 1))

	expected := fmt.Sprintf(`[{"seed":"%s/path1","depth":1,"downloaded":["%s/path1"],"errors":{},"error":null}]`, srv.URL(), srv.URL())

	assert.Equal(t, expected, strings.Trim(outBuf.String(), "\n"))
	assert.Equal(t, cli.CodeOK, code)

	expectedLogLines := []string{
		"started crawler worker",
		"started buffered publisher",
		"publishing seed",
		"started traversal",
		"started downloading",
		"send http request",
		"received http response",
		"read http response body",
		"finished downloading",
		"finished traversal",
		"received result",
		"crawled all seeds",
	}

	fullLog := errBuf.String()

	for _, msg := range expectedLogLines {
		assert.Contains(t, fullLog, "\tDEBUG\t", "missing debug logs")
		assert.Contains(t, fullLog, msg, "missing log line %q", msg)
	}

	assert.NotContains(t, fullLog, "\tERROR\t")
}
