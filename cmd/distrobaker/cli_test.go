package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWireEvent_ToEvent(t *testing.T) {
	var wire wireEvent
	wire.Topic = "org.fedoraproject.prod.buildsys.tag"
	wire.Body.Name = "foo"
	wire.Body.Version = "1"
	wire.Body.Release = "2"
	wire.Body.Tag = "rpms-trigger"

	ev := wire.toEvent()

	assert.Equal(t, "org.fedoraproject.prod.buildsys.tag", ev.Topic)
	assert.Equal(t, "foo", ev.Name)
	assert.Equal(t, "1", ev.Version)
	assert.Equal(t, "2", ev.Release)
	assert.Equal(t, "rpms-trigger", ev.Tag)
}

func TestGetRootCommand_RegistersSubcommands(t *testing.T) {
	c := &CLI{}
	root := c.GetRootCommand()

	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}

	assert.ElementsMatch(t, []string{"sync-event", "sweep", "reload-config"}, names)
}

func TestSweepCommand_ParsesComponentsAndDryRun(t *testing.T) {
	c := &CLI{}
	cmd := c.sweepCommand()
	cmd.RunE = nil // avoid driving a nil engine

	require.NoError(t, cmd.ParseFlags([]string{"--components", "rpms/foo,modules/bar:1", "--dry-run"}))

	components, err := cmd.Flags().GetStringSlice("components")
	require.NoError(t, err)
	assert.Equal(t, []string{"rpms/foo", "modules/bar:1"}, components)

	dryRun, err := cmd.Flags().GetBool("dry-run")
	require.NoError(t, err)
	assert.True(t, dryRun)
}

func TestReloadConfigCommand_RequiresConfigFlag(t *testing.T) {
	c := &CLI{}
	cmd := c.reloadConfigCommand()
	cmd.RunE = func(cmd *cobra.Command, args []string) error { return nil }
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	assert.Error(t, err, "reload-config should fail without --config")
}
