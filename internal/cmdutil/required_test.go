package cmdutil

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoArgs(t *testing.T) {
	root := &cobra.Command{Use: "ctfdocker"}
	leaf := &cobra.Command{Use: "prune", Run: func(*cobra.Command, []string) {}}
	root.AddCommand(leaf)

	assert.NoError(t, NoArgs(leaf, nil))

	err := NoArgs(leaf, []string{"extra"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ctfdocker: 'ctfdocker prune' accepts no arguments")

	err = NoArgs(root, []string{"bogus"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command: ctfdocker bogus")
}

func TestExactArgs(t *testing.T) {
	cmd := &cobra.Command{Use: "run IMAGE"}

	assert.NoError(t, ExactArgs(1)(cmd, []string{"alpine"}))

	err := ExactArgs(1)(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires 1 argument")

	err = ExactArgs(2)(cmd, []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires 2 arguments")
}

func TestRequiresMaxArgs(t *testing.T) {
	cmd := &cobra.Command{Use: "prune [IMAGE]"}

	assert.NoError(t, RequiresMaxArgs(1)(cmd, nil))
	assert.NoError(t, RequiresMaxArgs(1)(cmd, []string{"alpine"}))
	assert.Error(t, RequiresMaxArgs(1)(cmd, []string{"a", "b"}))
}
