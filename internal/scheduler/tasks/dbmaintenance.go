// Package tasks wires concrete background jobs into the scheduler.
package tasks

import (
	"github.com/moviweb/moviweb/internal/database"
	"github.com/moviweb/moviweb/internal/scheduler"
)

const DBMaintenanceTaskID = "db-maintenance"

// RegisterDBMaintenanceTask registers the nightly database maintenance task.
// It checkpoints the WAL and refreshes query planner statistics while the
// service is quiet.
func RegisterDBMaintenanceTask(sched *scheduler.Scheduler, db *database.DB) error {
	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          DBMaintenanceTaskID,
		Name:        "Database Maintenance",
		Description: "Checkpoints the write-ahead log and runs ANALYZE",
		Cron:        "0 3 * * *",
		RunOnStart:  false,
		Func:        db.Maintain,
	})
}
