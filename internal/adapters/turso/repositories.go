package turso

import (
	"database/sql"

	"github.com/emiliopalmerini/agentlab/internal/ports"
)

// Repositories holds all turso repository implementations as port interfaces.
type Repositories struct {
	Experiments ports.ExperimentRepository
	Battles     ports.BattleRepository
}

// NewRepositories creates all turso repository implementations from a database connection.
func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Experiments: NewExperimentRepository(db),
		Battles:     NewBattleRepository(db),
	}
}
