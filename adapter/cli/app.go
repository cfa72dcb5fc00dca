package cli

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/homebase/internal/agenda/application/commands"
	"github.com/felixgeelhaar/homebase/internal/agenda/application/queries"
	internalApp "github.com/felixgeelhaar/homebase/internal/app"
	"github.com/felixgeelhaar/homebase/pkg/observability"
)

// ErrNotInitialized is returned by commands run without a wired application.
var ErrNotInitialized = errors.New("homebase is not initialized; check DATABASE_URL or SQLITE_PATH")

// App holds the CLI application dependencies.
type App struct {
	// ContextID is the household every command acts on.
	ContextID string

	// Command Handlers
	ScheduleItemHandler   *commands.ScheduleItemHandler
	QuickScheduleHandler  *commands.QuickScheduleHandler
	DeferItemHandler      *commands.DeferItemHandler
	UnscheduleItemHandler *commands.UnscheduleItemHandler
	CreateItemHandler     *commands.CreateItemHandler
	CreateEventHandler    *commands.CreateEventHandler

	// Query Handlers
	GetDayAgendaHandler  *queries.GetDayAgendaHandler
	GetWeekAgendaHandler *queries.GetWeekAgendaHandler
	GetSidebarHandler    *queries.GetSidebarHandler

	Health *observability.HealthRegistry

	afterWrite func(ctx context.Context)
}

// NewApp creates a CLI application from a wired container.
func NewApp(c *internalApp.Container) *App {
	return &App{
		ContextID:             c.Config.ContextID,
		ScheduleItemHandler:   c.ScheduleItemHandler,
		QuickScheduleHandler:  c.QuickScheduleHandler,
		DeferItemHandler:      c.DeferItemHandler,
		UnscheduleItemHandler: c.UnscheduleItemHandler,
		CreateItemHandler:     c.CreateItemHandler,
		CreateEventHandler:    c.CreateEventHandler,
		GetDayAgendaHandler:   c.GetDayAgendaHandler,
		GetWeekAgendaHandler:  c.GetWeekAgendaHandler,
		GetSidebarHandler:     c.GetSidebarHandler,
		Health:                c.Health,
		afterWrite:            c.DrainOutbox,
	}
}

// AfterWrite relays the domain events a write left in the outbox.
func (a *App) AfterWrite(ctx context.Context) {
	if a.afterWrite != nil {
		a.afterWrite(ctx)
	}
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}

// RequireApp returns the global application or ErrNotInitialized.
func RequireApp() (*App, error) {
	if app == nil {
		return nil, ErrNotInitialized
	}
	return app, nil
}
