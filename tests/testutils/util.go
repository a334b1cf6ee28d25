// Package testutils provides test infrastructure for sonority integration tests.
package testutils

import (
	"path/filepath"
	"runtime"

	"github.com/containerd/nerdctl/mod/tigron/test"
	"github.com/farcloser/agar/pkg/agar"
)

func testsDir() string {
	_, thisFile, _, _ := runtime.Caller(0) //nolint:dogsled // only the file path is needed

	return filepath.Dir(filepath.Dir(thisFile))
}

// Setup returns a test case bound to the sonority binary built under bin/.
func Setup() *test.Case {
	binaryPath := filepath.Join(filepath.Dir(testsDir()), "bin", "sonority")

	return agar.Setup(binaryPath)
}

// Fixture returns the absolute path of a request file under tests/testdata.
func Fixture(name string) string {
	return filepath.Join(testsDir(), "testdata", name)
}
