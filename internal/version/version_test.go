package version

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func fakeGit(exactMatch, describe string, exactErr, descErr error) func(...string) (string, error) {
	return func(args ...string) (string, error) {
		if len(args) == 0 {
			return "", fmt.Errorf("no args")
		}
		switch args[0] {
		case "rev-parse":
			return ".git", nil
		case "describe":
			for _, a := range args {
				if a == "--exact-match" {
					return exactMatch, exactErr
				}
			}
			return describe, descErr
		default:
			return "", fmt.Errorf("unexpected git subcommand %q", args[0])
		}
	}
}

func TestResolveVersion(t *testing.T) {
	t.Parallel()

	notARepo := func(...string) (string, error) {
		return "", fmt.Errorf("not a git repository")
	}

	tests := []struct {
		name string
		base string
		git  func(...string) (string, error)
		want string
	}{
		{name: "tagged release", base: "0.1.0", git: fakeGit("v0.1.0", "", nil, nil), want: "0.1.0"},
		{name: "commits after tag", base: "0.1.0", git: fakeGit("", "v0.1.0-3-gabcdef", fmt.Errorf("no tag"), nil), want: "0.1.0-3-gabcdef"},
		{name: "dirty tree", base: "0.1.0", git: fakeGit("", "v0.1.0-3-gabcdef-dirty", fmt.Errorf("no tag"), nil), want: "0.1.0-3-gabcdef-dirty"},
		{name: "no tags at all", base: "0.1.0", git: fakeGit("", "abcdef", fmt.Errorf("no tag"), nil), want: "0.1.0-abcdef"},
		{name: "not a repo", base: "0.1.0", git: notARepo, want: "0.1.0"},
		{name: "empty base", base: "", git: notARepo, want: "0.0.0"},
		{name: "describe fails", base: "0.1.0", git: fakeGit("", "", fmt.Errorf("no tag"), fmt.Errorf("describe failed")), want: "0.1.0"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, resolveVersion(tt.base, tt.git))
		})
	}
}
