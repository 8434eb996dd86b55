package vos_test

import (
	"io/fs"
	"testing"

	"github.com/josephlewis42/pipesh/core/vos"
	"github.com/josephlewis42/pipesh/core/vos/vostest"
	"github.com/stretchr/testify/assert"
)

func TestLookPath(t *testing.T) {
	testOS := vostest.NewTestOS(nil)
	testOS.Setenv("PATH", "/usr/local/bin:/noexec:/bin")
	testOS.MustMkdirAll("/bin", "/usr/local/bin", "/noexec", "/home/user")
	testOS.MustWriteFile("/bin/ls", "", 0755)
	testOS.MustWriteFile("/noexec/ls", "", 0644)
	testOS.MustWriteFile("/noexec/data", "", 0644)
	testOS.MustWriteFile("/home/user/run.sh", "", 0700)
	testOS.MustMkdirAll("/bin/adir")

	cases := map[string]struct {
		file     string
		expected string
		err      error
	}{
		"search":            {file: "ls", expected: "/bin/ls"},
		"missing":           {file: "nope", err: vos.ErrNotFound},
		"empty":             {file: "", err: vos.ErrNotFound},
		"not-executable":    {file: "data", err: fs.ErrPermission},
		"directory":         {file: "adir", err: fs.ErrPermission},
		"absolute":          {file: "/home/user/run.sh", expected: "/home/user/run.sh"},
		"absolute-missing":  {file: "/home/user/nope", err: vos.ErrNotFound},
		"absolute-no-perms": {file: "/noexec/ls", err: fs.ErrPermission},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			actual, err := vos.LookPath(testOS, tc.file)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestLookPath_emptyPathElement(t *testing.T) {
	testOS := vostest.NewTestOS(nil)
	testOS.Setenv("PATH", ":/bin")
	testOS.MustWriteFile("/tool", "", 0755)

	// "" in PATH is the working directory.
	actual, err := vos.LookPath(testOS, "tool")
	assert.Nil(t, err)
	assert.Equal(t, "tool", actual)
}
