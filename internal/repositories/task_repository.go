package repositories

import (
	"database/sql"
	"fmt"
	"strings"

	"almoxarifado_backend/internal/models"
)

// TaskRepository stores imported schedule tasks. The schedule-diff import is
// the only writer; tasks are matched across imports by external id.
type TaskRepository interface {
	GetBySite(siteID int64) ([]models.Task, error)
	Insert(executor SQLExecutor, task *models.Task) error
	Update(executor SQLExecutor, task *models.Task) error
	Delete(executor SQLExecutor, taskIDs []int64) error
}

type taskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a new instance of TaskRepository.
func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) GetBySite(siteID int64) ([]models.Task, error) {
	rows, err := r.db.Query(
		`SELECT id, site_id, external_id, name, start_date, end_date
		   FROM schedule_tasks WHERE site_id = $1 ORDER BY start_date`, siteID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing tasks for site %d: %v", ErrDatabaseError, siteID, err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.SiteID, &t.ExternalID, &t.Name, &t.StartDate, &t.EndDate); err != nil {
			return nil, fmt.Errorf("%w: scanning task row: %v", ErrDatabaseError, err)
		}
		tasks = append(tasks, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating task rows: %v", ErrDatabaseError, err)
	}
	return tasks, nil
}

func (r *taskRepository) Insert(executor SQLExecutor, task *models.Task) error {
	query := `INSERT INTO schedule_tasks (site_id, external_id, name, start_date, end_date)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`
	err := executor.QueryRow(query,
		task.SiteID, task.ExternalID, task.Name, task.StartDate, task.EndDate,
	).Scan(&task.ID)
	if err != nil {
		return mapWriteError(err, "inserting schedule task")
	}
	return nil
}

func (r *taskRepository) Update(executor SQLExecutor, task *models.Task) error {
	_, err := executor.Exec(
		`UPDATE schedule_tasks SET name = $1, start_date = $2, end_date = $3 WHERE id = $4`,
		task.Name, task.StartDate, task.EndDate, task.ID)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("updating schedule task %d", task.ID))
	}
	return nil
}

func (r *taskRepository) Delete(executor SQLExecutor, taskIDs []int64) error {
	if len(taskIDs) == 0 {
		return nil
	}
	placeholders := make([]string, 0, len(taskIDs))
	args := make([]interface{}, 0, len(taskIDs))
	for i, id := range taskIDs {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, id)
	}
	_, err := executor.Exec(
		`DELETE FROM schedule_tasks WHERE id IN (`+strings.Join(placeholders, ", ")+`)`, args...)
	if err != nil {
		return fmt.Errorf("%w: deleting schedule tasks: %v", ErrDatabaseError, err)
	}
	return nil
}
