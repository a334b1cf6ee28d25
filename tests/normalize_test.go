package tests_test

import (
	"path/filepath"
	"testing"

	"github.com/containerd/nerdctl/mod/tigron/expect"
	"github.com/containerd/nerdctl/mod/tigron/test"

	"github.com/farcloser/sonority/tests/testutils"
)

func TestNormalizeCLI(t *testing.T) {
	testCase := testutils.Setup()

	testCase.SubTests = []*test.Case{
		{
			Description: "normalize without loudness fails",
			Command:     test.Command("normalize"),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "normalize rejects positional arguments",
			Command:     test.Command("normalize", "--lufs=-9", "extra"),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "loud master is turned down on every platform",
			Command:     test.Command("normalize", "--format", "json", "--lufs=-8", "--true-peak=-0.5"),
			Expected: test.Expects(expect.ExitCodeSuccess, nil, expect.All(
				expectContains("Spotify"),
				expectContains("YouTube"),
				expectContains("Apple Music"),
				expectContains("-6"),
			)),
		},
	}

	testCase.Run(t)
}

func TestInitConfigCLI(t *testing.T) {
	target := filepath.Join(t.TempDir(), "sonority.toml")

	testCase := testutils.Setup()
	testCase.NoParallel = true

	testCase.SubTests = []*test.Case{
		{
			NoParallel:  true,
			Description: "init-config writes the sample",
			Command:     test.Command("init-config", target),
			Expected:    test.Expects(expect.ExitCodeSuccess, nil, expectContains(target)),
		},
		{
			NoParallel:  true,
			Description: "init-config refuses to overwrite",
			Command:     test.Command("init-config", target),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			NoParallel:  true,
			Description: "init-config overwrites with force",
			Command:     test.Command("init-config", "--force", target),
			Expected:    test.Expects(expect.ExitCodeSuccess, nil, nil),
		},
		{
			NoParallel:  true,
			Description: "written sample loads as configuration",
			Command: test.Command("normalize", "--config", target, "--format", "json",
				"--lufs=-14", "--true-peak=-3"),
			Expected: test.Expects(expect.ExitCodeSuccess, nil, expectContains("Spotify")),
		},
	}

	testCase.Run(t)
}
