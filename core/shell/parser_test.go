package shell

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
)

func mustTokenize(t *testing.T, line string) Tokens {
	t.Helper()
	tokens, err := Tokenize(line, DefaultLimits)
	if err != nil {
		t.Fatal(err)
	}
	return tokens
}

func describe(p *Pipeline) []byte {
	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, "background: %v\n", p.Background)
	for i, stage := range p.Stages {
		fmt.Fprintf(buf, "stage %d: argv=%q input=%q output=%q\n", i, stage.Argv, stage.Input, stage.Output)
	}
	return buf.Bytes()
}

func TestBuildGolden(t *testing.T) {
	cases := map[string]string{
		"single":          "ls -l /tmp",
		"three-stages":    "a | b | c",
		"redirects":       "sort < in.txt > out.txt",
		"redirect-first":  "< in.txt grep foo | wc -l > count.txt",
		"mid-redirect":    "cat a > copy.txt | wc",
		"background":      "sleep 10 &",
		"ignore-after-bg": "sleep 1 & echo ignored",
	}

	g := goldie.New(
		t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithDiffEngine(goldie.ColoredDiff),
		goldie.WithTestNameForDir(true),
	)

	for tn, line := range cases {
		t.Run(tn, func(t *testing.T) {
			pipeline, err := Build(mustTokenize(t, line))
			if err != nil {
				t.Fatal(err)
			}

			g.Assert(t, tn, describe(pipeline))
		})
	}
}

func TestBuild_threeStages(t *testing.T) {
	pipeline, err := Build(mustTokenize(t, "a | b | c"))
	assert.Nil(t, err)
	assert.Len(t, pipeline.Stages, 3)

	middle := pipeline.Stages[1]
	assert.Equal(t, []string{"b"}, middle.Argv)
	assert.Empty(t, middle.Input, "middle input should come from the pipe")
	assert.Empty(t, middle.Output, "middle output should go to the pipe")
	assert.Equal(t, []string{"a", "b", "c"}, pipeline.Names())
}

func TestBuild_malformed(t *testing.T) {
	cases := map[string]string{
		"dangling-input":   "cat <",
		"dangling-output":  "echo hi >",
		"leading-pipe":     "| wc",
		"trailing-pipe":    "ls |",
		"double-pipe":      "ls | | wc",
		"lone-background":  "&",
		"pipe-background":  "ls | &",
		"operator-target":  "cat < | wc",
		"redirect-only":    "> out.txt",
		"output-to-output": "echo > > x",
	}

	for tn, line := range cases {
		t.Run(tn, func(t *testing.T) {
			pipeline, err := Build(mustTokenize(t, line))
			assert.Nil(t, pipeline)
			assert.True(t, errors.Is(err, ErrMalformedPipeline), "got %v", err)
		})
	}
}

func TestPipeline_String(t *testing.T) {
	line := "cat < in | sort -r > out &"
	pipeline, err := Build(mustTokenize(t, line))
	assert.Nil(t, err)
	assert.Equal(t, line, pipeline.String())
}
