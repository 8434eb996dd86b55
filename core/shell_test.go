package core

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/josephlewis42/pipesh/core/logger"
	"github.com/josephlewis42/pipesh/core/proc"
	"github.com/josephlewis42/pipesh/core/shell"
	"github.com/josephlewis42/pipesh/core/vos/vostest"
	"github.com/stretchr/testify/assert"
)

type fakeDispatcher struct {
	sh        *Shell
	initErr   error
	launchErr error

	launched []string
	states   []State
}

func (f *fakeDispatcher) Init() error {
	return f.initErr
}

func (f *fakeDispatcher) Launch(p *shell.Pipeline) error {
	f.launched = append(f.launched, p.String())
	f.states = append(f.states, f.sh.State())
	return f.launchErr
}

type testShell struct {
	*Shell
	os         *vostest.TestOS
	dispatcher *fakeDispatcher
	events     *bytes.Buffer
}

func newTestShell(input string) *testShell {
	tos := vostest.NewTestOS(nil)
	tos.MustMkdirAll("/tmp", "/home/user", "/etc")
	tos.MustWriteFile("/etc/motd", "hello", 0644)

	dispatcher := &fakeDispatcher{}
	sh := NewShell(tos, NewBoundedReader(strings.NewReader(input), tos.Stdout(), shell.DefaultLimits), dispatcher)
	dispatcher.sh = sh

	events := &bytes.Buffer{}
	sh.Events = logger.NewJsonLinesLogRecorder(events).NewSession()

	return &testShell{Shell: sh, os: tos, dispatcher: dispatcher, events: events}
}

func (ts *testShell) report(t *testing.T) *logger.Report {
	t.Helper()
	report := logger.NewReport()
	assert.Nil(t, logger.ReadJSONLinesLog(bytes.NewReader(ts.events.Bytes()), report.Update))
	return report
}

func (ts *testShell) cwd(t *testing.T) string {
	t.Helper()
	wd, err := ts.os.Getwd()
	assert.Nil(t, err)
	return wd
}

func TestShell_Run(t *testing.T) {
	ts := newTestShell("ls -l | wc\ncd /tmp\n\n  \t \nsort < in > out &\n")

	err := ts.Run()
	assert.True(t, errors.Is(err, ErrInputClosed), err)

	assert.Equal(t, []string{"ls -l | wc", "sort < in > out &"}, ts.dispatcher.launched)
	assert.Equal(t, []State{StateDispatching, StateDispatching}, ts.dispatcher.states)
	assert.Equal(t, StateIdle, ts.State())
	assert.Equal(t, "/tmp", ts.cwd(t))
	assert.Empty(t, ts.os.Errors())

	wantPrompts := "Shell: /$ Shell: /$ " + strings.Repeat("Shell: /tmp$ ", 4)
	assert.Equal(t, wantPrompts, ts.os.Output())

	report := ts.report(t)
	assert.Equal(t, 2, report.Pipelines.Count)
	assert.Equal(t, 1, report.Pipelines.Background)
	assert.Equal(t, 1, report.Builtins.Get("cd"))
}

func TestShell_RunLine_rejected(t *testing.T) {
	cases := map[string]struct {
		line   string
		errMsg string
		reason error
	}{
		"dangling-pipe": {
			line:   "| wc",
			errMsg: "malformed pipeline",
			reason: shell.ErrMalformedPipeline,
		},
		"missing-output": {
			line:   "ls >",
			errMsg: "malformed pipeline",
			reason: shell.ErrMalformedPipeline,
		},
		"too-many-tokens": {
			line:   strings.Repeat("a ", 33),
			errMsg: "too many sub commands",
			reason: shell.ErrTooManyTokens,
		},
		"token-too-long": {
			line:   strings.Repeat("a", 129),
			errMsg: "sub command is too long",
			reason: shell.ErrTokenTooLong,
		},
		"line-too-long": {
			line:   strings.Repeat("a ", 200),
			errMsg: "the command is too long",
			reason: shell.ErrLineTooLong,
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			ts := newTestShell("")

			assert.Nil(t, ts.RunLine(tc.line))
			assert.Empty(t, ts.dispatcher.launched)

			errs := ts.os.Errors()
			assert.Len(t, errs, 1)
			assert.True(t, strings.HasPrefix(errs[0], "pipesh: "), errs[0])
			assert.Contains(t, errs[0], tc.errMsg)

			assert.Equal(t, 1, ts.report(t).Rejections.Get(tc.reason.Error()))
		})
	}
}

func TestShell_Run_lineTooLong(t *testing.T) {
	ts := newTestShell(strings.Repeat("x", 300) + "\nls\n")

	assert.True(t, errors.Is(ts.Run(), ErrInputClosed))
	assert.Equal(t, []string{"ls"}, ts.dispatcher.launched)

	errs := ts.os.Errors()
	assert.Len(t, errs, 1)
	assert.Contains(t, errs[0], "the command is too long")
}

func TestShell_Run_fatal(t *testing.T) {
	t.Run("getwd", func(t *testing.T) {
		ts := newTestShell("ls\n")
		ts.os.GetwdErr = errors.New("stale handle")

		err := ts.Run()
		assert.True(t, errors.Is(err, ErrWorkingDirectory), err)
		assert.Empty(t, ts.dispatcher.launched)
	})

	t.Run("init", func(t *testing.T) {
		ts := newTestShell("ls\n")
		ts.dispatcher.initErr = proc.ErrUnknownReapPolicy

		err := ts.Run()
		assert.True(t, errors.Is(err, proc.ErrUnknownReapPolicy), err)
		assert.Empty(t, ts.dispatcher.launched)
		assert.Empty(t, ts.os.Output())
	})

	t.Run("launch", func(t *testing.T) {
		ts := newTestShell("ls\nwc\n")
		ts.dispatcher.launchErr = fmt.Errorf("%w: %q", proc.ErrUnknownReapPolicy, "never")

		err := ts.Run()
		assert.True(t, errors.Is(err, proc.ErrUnknownReapPolicy), err)
		assert.Equal(t, []string{"ls"}, ts.dispatcher.launched)
	})
}

func TestShell_RunLine_commandFailed(t *testing.T) {
	ts := newTestShell("")
	ts.dispatcher.launchErr = fmt.Errorf("%w: exit status 3", proc.ErrStageFailed)

	assert.Nil(t, ts.RunLine("false | true"))
	assert.Equal(t, []string{"pipesh: command failed: exit status 3"}, ts.os.Errors())
	assert.Equal(t, StateIdle, ts.State())

	report := ts.report(t)
	assert.Equal(t, 1, report.Failures.Get("false | true", "command failed: exit status 3"))
}

func TestCd(t *testing.T) {
	cases := map[string]struct {
		line    string
		wantDir string
		errMsg  string
	}{
		"no-path": {
			line:    "cd",
			wantDir: "/",
			errMsg:  "pipesh: cd: path is not given",
		},
		"absolute": {
			line:    "cd /tmp",
			wantDir: "/tmp",
		},
		"relative": {
			line:    "cd home/user",
			wantDir: "/home/user",
		},
		"missing": {
			line:    "cd /nonexistent",
			wantDir: "/",
			errMsg:  "/nonexistent",
		},
		"not-a-directory": {
			line:    "cd /etc/motd",
			wantDir: "/",
			errMsg:  "not a directory",
		},
		"extra-args-ignored": {
			line:    "cd /tmp /etc",
			wantDir: "/tmp",
		},
		"bad-flag": {
			line:    "cd -x /tmp",
			wantDir: "/",
			errMsg:  "usage: cd PATH",
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			ts := newTestShell("")

			assert.Nil(t, ts.RunLine(tc.line))
			assert.Equal(t, tc.wantDir, ts.cwd(t))
			assert.Empty(t, ts.dispatcher.launched)

			if tc.errMsg == "" {
				assert.Empty(t, ts.os.Errors())
			} else {
				assert.Contains(t, strings.Join(ts.os.Errors(), "\n"), tc.errMsg)
			}

			assert.Equal(t, 1, ts.report(t).Builtins.Get("cd"))
		})
	}
}

func TestCd_help(t *testing.T) {
	ts := newTestShell("")

	assert.Equal(t, 0, Cd(ts.Shell, []string{"cd", "--help"}))
	assert.Contains(t, ts.os.StderrBuf.String(), "Change the shell working directory.")
	assert.Equal(t, "/", ts.cwd(t))
}

func TestShell_Prompt(t *testing.T) {
	ts := newTestShell("")
	ts.PromptTemplate = `[\w] \w> `
	assert.Nil(t, ts.os.Chdir("/tmp"))

	prompt, err := ts.Prompt()
	assert.Nil(t, err)
	assert.Equal(t, "[/tmp] /tmp> ", prompt)

	ts.Color = true
	prompt, err = ts.Prompt()
	assert.Nil(t, err)
	assert.Contains(t, prompt, "\x1b[")
	assert.Contains(t, prompt, "[/tmp] /tmp> ")
}

func TestShell_PrintBanner(t *testing.T) {
	ts := newTestShell("")
	ts.PrintBanner()
	assert.Equal(t, "~ pipesh ~\n", ts.os.Output())
}

func TestBuiltinNames(t *testing.T) {
	assert.Equal(t, []string{"cd"}, BuiltinNames())
}

func ExampleState_String() {
	fmt.Println(StateIdle)
	fmt.Println(StateDispatching)
	// Output: idle
	// dispatching
}
