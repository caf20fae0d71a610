package internal

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCutArgs(t *testing.T) {
	flags, command := CutArgs([]string{"--image", "api:v1", "--", "/bin/server", "--", "-v"})
	require.Equal(t, []string{"--image", "api:v1"}, flags)
	require.Equal(t, []string{"/bin/server", "--", "-v"}, command)

	flags, command = CutArgs([]string{"--image", "api:v1"})
	require.Equal(t, []string{"--image", "api:v1"}, flags)
	require.Nil(t, command)
}

func TestColorize(t *testing.T) {
	help := Colorize("!cyan Usage:\n  hangar deploy\n!plain Flags:")
	require.NotContains(t, help, "!")
	require.Contains(t, help, "Usage:")
	require.Contains(t, help, "\n  hangar deploy\nFlags:")
}

func TestIsWarning(t *testing.T) {
	require.True(t, IsWarning(Warning("nothing to commit")))
	require.True(t, IsWarning(fmt.Errorf("deploy: %w", Warning("nothing to commit"))))
	require.False(t, IsWarning(fmt.Errorf("boom")))
	require.False(t, IsWarning(nil))
}

func TestDebug(t *testing.T) {
	var stderr bytes.Buffer
	debug := false

	ctx := WithStderr(WithDebugFlag(context.Background(), &debug), &stderr)

	DebugTimer(ctx, "apply")()
	require.Empty(t, stderr.String())

	debug = true
	DebugTimer(ctx, "apply")()
	require.Contains(t, stderr.String(), "start: apply\n")
	require.Contains(t, stderr.String(), "done:  apply: ")
}
