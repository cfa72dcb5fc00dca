package item

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/felixgeelhaar/homebase/adapter/cli/clitest"
	"github.com/felixgeelhaar/homebase/internal/agenda/application/queries"
	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetFlags() {
	addType = "task"
	addDescription = ""
	addDuration = 0
	addPriority = ""
	addDue = ""
	addTags = nil
	addAssignee = ""
}

func TestAddCmd_CreatesItem(t *testing.T) {
	app := clitest.NewLocalApp(t)
	ctx := context.Background()
	resetFlags()

	var out bytes.Buffer
	addPriority = "high"
	addTags = []string{"inbox", "Inbox"}
	addAssignee = "mom"
	addDuration = 20
	addCmd.SetOut(&out)
	addCmd.SetContext(ctx)

	require.NoError(t, addCmd.RunE(addCmd, []string{"Buy", "groceries"}))
	assert.True(t, strings.HasPrefix(out.String(), "Added item "))

	view, err := app.GetSidebarHandler.Handle(ctx, queries.GetSidebarQuery{ContextID: app.ContextID})
	require.NoError(t, err)
	require.Len(t, view.Sidebar.Inbox, 1)

	entry := view.Sidebar.Inbox[0]
	assert.Equal(t, "Buy groceries", entry.Title)
	assert.Equal(t, domain.PriorityHigh, entry.Priority)
	assert.Equal(t, "mom", entry.AssignedTo)
	assert.Equal(t, 20, entry.EstimatedDurationMinutes)
	assert.Equal(t, []string{"inbox"}, entry.Tags)
}

func TestAddCmd_Validation(t *testing.T) {
	clitest.NewLocalApp(t)
	ctx := context.Background()

	resetFlags()
	addType = "chore"
	addCmd.SetContext(ctx)
	assert.ErrorIs(t, addCmd.RunE(addCmd, []string{"Dust"}), domain.ErrValidation)

	resetFlags()
	addDue = "next week"
	assert.ErrorIs(t, addCmd.RunE(addCmd, []string{"Dust"}), domain.ErrValidation)
}
