package app

import (
	"fmt"

	"github.com/felixgeelhaar/homebase/internal/agenda/domain"
	"github.com/felixgeelhaar/homebase/internal/agenda/infrastructure/persistence"
	"github.com/felixgeelhaar/homebase/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/homebase/internal/shared/infrastructure/outbox"
)

// Repositories are the stores backed by one agenda database.
type Repositories struct {
	Events domain.EventRepository
	Items  domain.ItemRepository
	Outbox outbox.Repository
}

// NewRepositories picks the implementations matching conn's driver.
func NewRepositories(conn database.Connection) (Repositories, error) {
	var repos Repositories
	switch driver := conn.Driver(); driver {
	case database.DriverPostgres:
		repos.Events = persistence.NewPostgresEventRepository(conn)
		repos.Items = persistence.NewPostgresItemRepository(conn)
	case database.DriverSQLite:
		repos.Events = persistence.NewSQLiteEventRepository(conn)
		repos.Items = persistence.NewSQLiteItemRepository(conn)
	default:
		return Repositories{}, fmt.Errorf("no agenda repositories for driver %q", driver)
	}

	ob, err := outbox.NewRepository(conn)
	if err != nil {
		return Repositories{}, err
	}
	repos.Outbox = ob
	return repos, nil
}
