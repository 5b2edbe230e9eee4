package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"almoxarifado_backend/internal/models"
)

// TaskKitLinkRepository stores kit-to-task links. Uniqueness of
// (task_id, kit_id) is enforced by an existence check before insert; the
// generators key off these links.
type TaskKitLinkRepository interface {
	LinkExists(executor SQLExecutor, taskID, kitID int64) (bool, error)
	CreateLink(executor SQLExecutor, link *models.TaskKitLink) (int64, error)
	DeleteLink(executor SQLExecutor, linkID int64) error
	GetLinksByTask(taskID int64) ([]models.TaskKitLink, error)
	// GetUpcomingLinks returns every link whose task belongs to the site and
	// starts on or after the given day, with the task start date attached.
	GetUpcomingLinks(executor SQLExecutor, siteID int64, from time.Time) ([]models.TaskKitLink, error)
}

type taskKitLinkRepository struct {
	db     *sql.DB
	readDB *sql.DB
}

// NewTaskKitLinkRepository creates a new instance of TaskKitLinkRepository.
func NewTaskKitLinkRepository(db, readDB *sql.DB) TaskKitLinkRepository {
	return &taskKitLinkRepository{db: db, readDB: readDB}
}

func (r *taskKitLinkRepository) LinkExists(executor SQLExecutor, taskID, kitID int64) (bool, error) {
	var exists bool
	err := executor.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM task_kit_links WHERE task_id = $1 AND kit_id = $2)`,
		taskID, kitID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: checking link for task %d kit %d: %v",
			ErrDatabaseError, taskID, kitID, err)
	}
	return exists, nil
}

func (r *taskKitLinkRepository) CreateLink(executor SQLExecutor, link *models.TaskKitLink) (int64, error) {
	query := `INSERT INTO task_kit_links (task_id, kit_id, kit_count)
	          VALUES ($1, $2, $3)
	          RETURNING id`
	err := executor.QueryRow(query, link.TaskID, link.KitID, link.KitCount).Scan(&link.ID)
	if err != nil {
		return 0, mapWriteError(err, "creating task-kit link")
	}
	return link.ID, nil
}

func (r *taskKitLinkRepository) DeleteLink(executor SQLExecutor, linkID int64) error {
	result, err := executor.Exec(`DELETE FROM task_kit_links WHERE id = $1`, linkID)
	if err != nil {
		return fmt.Errorf("%w: deleting link %d: %v", ErrDatabaseError, linkID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: deleting link %d: %v", ErrDatabaseError, linkID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *taskKitLinkRepository) GetLinksByTask(taskID int64) ([]models.TaskKitLink, error) {
	rows, err := r.readDB.Query(
		`SELECT l.id, l.task_id, l.kit_id, l.kit_count, k.name
		   FROM task_kit_links l
		   JOIN kits k ON l.kit_id = k.id
		  WHERE l.task_id = $1`, taskID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing links for task %d: %v", ErrDatabaseError, taskID, err)
	}
	defer rows.Close()

	links := []models.TaskKitLink{}
	for rows.Next() {
		var link models.TaskKitLink
		if err := rows.Scan(&link.ID, &link.TaskID, &link.KitID, &link.KitCount, &link.KitName); err != nil {
			return nil, fmt.Errorf("%w: scanning link row: %v", ErrDatabaseError, err)
		}
		links = append(links, link)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating link rows: %v", ErrDatabaseError, err)
	}
	return links, nil
}

func (r *taskKitLinkRepository) GetUpcomingLinks(executor SQLExecutor, siteID int64, from time.Time) ([]models.TaskKitLink, error) {
	rows, err := executor.Query(
		`SELECT l.id, l.task_id, l.kit_id, l.kit_count, t.name, t.start_date
		   FROM task_kit_links l
		   JOIN schedule_tasks t ON l.task_id = t.id
		  WHERE t.site_id = $1 AND t.start_date >= $2
		  ORDER BY t.start_date`, siteID, from)
	if err != nil {
		return nil, fmt.Errorf("%w: listing upcoming links for site %d: %v", ErrDatabaseError, siteID, err)
	}
	defer rows.Close()

	links := []models.TaskKitLink{}
	for rows.Next() {
		var link models.TaskKitLink
		if err := rows.Scan(&link.ID, &link.TaskID, &link.KitID, &link.KitCount,
			&link.TaskName, &link.TaskStartDate); err != nil {
			return nil, fmt.Errorf("%w: scanning upcoming link: %v", ErrDatabaseError, err)
		}
		links = append(links, link)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating upcoming links: %v", ErrDatabaseError, err)
	}
	return links, nil
}
