package repositories

import (
	"database/sql"
	"fmt"

	"almoxarifado_backend/internal/models"
)

// AssemblyRepository stores kit assembly requests. The generator relies on
// ExistsForLink to stay idempotent, and UpdateStatus rows join back to the
// link for display fields.
type AssemblyRepository interface {
	ExistsForLink(executor SQLExecutor, linkID int64) (bool, error)
	Create(executor SQLExecutor, request *models.AssemblyRequest) (int64, error)
	UpdateStatus(requestID int64, status models.AssemblyStatus) error
	GetBySite(siteID int64) ([]models.AssemblyRequest, error)
}

type assemblyRepository struct {
	db     *sql.DB
	readDB *sql.DB
}

// NewAssemblyRepository creates a new instance of AssemblyRepository.
func NewAssemblyRepository(db, readDB *sql.DB) AssemblyRepository {
	return &assemblyRepository{db: db, readDB: readDB}
}

func (r *assemblyRepository) ExistsForLink(executor SQLExecutor, linkID int64) (bool, error) {
	var exists bool
	err := executor.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM assembly_requests WHERE task_kit_link_id = $1)`,
		linkID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: checking assembly request for link %d: %v",
			ErrDatabaseError, linkID, err)
	}
	return exists, nil
}

func (r *assemblyRepository) Create(executor SQLExecutor, request *models.AssemblyRequest) (int64, error) {
	query := `INSERT INTO assembly_requests (task_kit_link_id, planned_execution_date, status)
	          VALUES ($1, $2, $3)
	          RETURNING id`
	err := executor.QueryRow(query, request.TaskKitLinkID,
		request.PlannedExecutionDate, request.Status).Scan(&request.ID)
	if err != nil {
		return 0, mapWriteError(err, "creating assembly request")
	}
	return request.ID, nil
}

func (r *assemblyRepository) UpdateStatus(requestID int64, status models.AssemblyStatus) error {
	result, err := r.db.Exec(
		`UPDATE assembly_requests SET status = $1 WHERE id = $2`, status, requestID)
	if err != nil {
		return fmt.Errorf("%w: updating assembly request %d: %v", ErrDatabaseError, requestID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: updating assembly request %d: %v", ErrDatabaseError, requestID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *assemblyRepository) GetBySite(siteID int64) ([]models.AssemblyRequest, error) {
	rows, err := r.readDB.Query(
		`SELECT a.id, a.task_kit_link_id, a.planned_execution_date, a.status,
		        k.name, t.name, l.kit_count
		   FROM assembly_requests a
		   JOIN task_kit_links l ON a.task_kit_link_id = l.id
		   JOIN kits k ON l.kit_id = k.id
		   JOIN schedule_tasks t ON l.task_id = t.id
		  WHERE t.site_id = $1
		  ORDER BY a.planned_execution_date`, siteID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing assembly requests for site %d: %v",
			ErrDatabaseError, siteID, err)
	}
	defer rows.Close()

	requests := []models.AssemblyRequest{}
	for rows.Next() {
		var request models.AssemblyRequest
		if err := rows.Scan(&request.ID, &request.TaskKitLinkID, &request.PlannedExecutionDate,
			&request.Status, &request.KitName, &request.TaskName, &request.KitCount); err != nil {
			return nil, fmt.Errorf("%w: scanning assembly request: %v", ErrDatabaseError, err)
		}
		requests = append(requests, request)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating assembly requests: %v", ErrDatabaseError, err)
	}
	return requests, nil
}

// PurchaseNotificationRepository stores procurement warnings derived from
// linked kits and category lead times.
type PurchaseNotificationRepository interface {
	ExistsForLink(executor SQLExecutor, linkID int64) (bool, error)
	Create(executor SQLExecutor, notification *models.PurchaseNotification) (int64, error)
	UpdateStatus(notificationID int64, status models.PurchaseStatus) error
	GetBySite(siteID int64, status models.PurchaseStatus) ([]models.PurchaseNotification, error)
}

type purchaseNotificationRepository struct {
	db     *sql.DB
	readDB *sql.DB
}

// NewPurchaseNotificationRepository creates a new instance of PurchaseNotificationRepository.
func NewPurchaseNotificationRepository(db, readDB *sql.DB) PurchaseNotificationRepository {
	return &purchaseNotificationRepository{db: db, readDB: readDB}
}

func (r *purchaseNotificationRepository) ExistsForLink(executor SQLExecutor, linkID int64) (bool, error) {
	var exists bool
	err := executor.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM purchase_notifications WHERE task_kit_link_id = $1)`,
		linkID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: checking purchase notification for link %d: %v",
			ErrDatabaseError, linkID, err)
	}
	return exists, nil
}

func (r *purchaseNotificationRepository) Create(executor SQLExecutor, notification *models.PurchaseNotification) (int64, error) {
	query := `INSERT INTO purchase_notifications (task_kit_link_id, notify_date, need_date, status)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`
	err := executor.QueryRow(query, notification.TaskKitLinkID, notification.NotifyDate,
		notification.NeedDate, notification.Status).Scan(&notification.ID)
	if err != nil {
		return 0, mapWriteError(err, "creating purchase notification")
	}
	return notification.ID, nil
}

func (r *purchaseNotificationRepository) UpdateStatus(notificationID int64, status models.PurchaseStatus) error {
	result, err := r.db.Exec(
		`UPDATE purchase_notifications SET status = $1 WHERE id = $2`, status, notificationID)
	if err != nil {
		return fmt.Errorf("%w: updating purchase notification %d: %v",
			ErrDatabaseError, notificationID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: updating purchase notification %d: %v",
			ErrDatabaseError, notificationID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *purchaseNotificationRepository) GetBySite(siteID int64, status models.PurchaseStatus) ([]models.PurchaseNotification, error) {
	rows, err := r.readDB.Query(
		`SELECT n.id, n.task_kit_link_id, n.notify_date, n.need_date, n.status,
		        k.name, t.name
		   FROM purchase_notifications n
		   JOIN task_kit_links l ON n.task_kit_link_id = l.id
		   JOIN kits k ON l.kit_id = k.id
		   JOIN schedule_tasks t ON l.task_id = t.id
		  WHERE t.site_id = $1 AND n.status = $2
		  ORDER BY n.notify_date`, siteID, status)
	if err != nil {
		return nil, fmt.Errorf("%w: listing purchase notifications for site %d: %v",
			ErrDatabaseError, siteID, err)
	}
	defer rows.Close()

	notifications := []models.PurchaseNotification{}
	for rows.Next() {
		var notification models.PurchaseNotification
		if err := rows.Scan(&notification.ID, &notification.TaskKitLinkID,
			&notification.NotifyDate, &notification.NeedDate, &notification.Status,
			&notification.KitName, &notification.TaskName); err != nil {
			return nil, fmt.Errorf("%w: scanning purchase notification: %v", ErrDatabaseError, err)
		}
		notifications = append(notifications, notification)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating purchase notifications: %v", ErrDatabaseError, err)
	}
	return notifications, nil
}
