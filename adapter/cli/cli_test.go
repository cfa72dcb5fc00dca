package cli_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/felixgeelhaar/homebase/adapter/cli"
	"github.com/felixgeelhaar/homebase/adapter/cli/clitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCommand(t *testing.T) {
	clitest.NewLocalApp(t)

	var out bytes.Buffer
	cmd := cli.HealthCmd
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())

	require.NoError(t, cmd.RunE(cmd, nil))

	assert.Contains(t, out.String(), "database")
	assert.Contains(t, out.String(), "outbox")
	assert.Contains(t, out.String(), "overall: healthy")
}

func TestHealthCommand_NotInitialized(t *testing.T) {
	cli.SetApp(nil)
	cmd := cli.HealthCmd
	cmd.SetContext(context.Background())

	assert.ErrorIs(t, cmd.RunE(cmd, nil), cli.ErrNotInitialized)
}

func TestVersionCommand(t *testing.T) {
	clitest.NewLocalApp(t)

	var out bytes.Buffer
	cmd := cli.VersionCmd
	cmd.SetOut(&out)

	require.NoError(t, cmd.RunE(cmd, nil))

	assert.Contains(t, out.String(), "homebase dev")
	assert.Contains(t, out.String(), "household: "+clitest.ContextID)
}
