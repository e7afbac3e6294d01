package app

import (
	"database/sql"
	"fmt"
	"log"

	"clientportal/internal/config"
	"clientportal/internal/db"
	"clientportal/internal/engine"
	"clientportal/internal/migrate"
)

// Workspace is an opened portal workspace: its database, migrated to the
// latest schema, the engine over it, and its portal.yml.
type Workspace struct {
	Path   string
	DB     *sql.DB
	Engine engine.Engine
	Config *config.Config
}

// Open prepares workspace for use. configPath overrides the workspace's
// portal.yml when non-empty.
func Open(workspace, configPath string, logger *log.Logger) (*Workspace, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.FromFile(configPath)
	} else {
		cfg, err = config.LoadOptional(workspace)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return nil, err
	}
	if err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Workspace{
		Path:   workspace,
		DB:     conn,
		Engine: engine.New(conn, logger),
		Config: cfg,
	}, nil
}

func (w *Workspace) Close() error {
	return w.DB.Close()
}
