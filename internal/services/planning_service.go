package services

import (
	"errors"
	"fmt"
	"time"

	"almoxarifado_backend/internal/models"
	"almoxarifado_backend/internal/repositories"
)

var (
	ErrTaskNotFound        = errors.New("task not found")
	ErrLinkNotFound        = errors.New("task-kit link not found")
	ErrAlreadyLinked       = errors.New("kit already linked to this task")
	ErrInvalidKitCount     = errors.New("kit count must be at least 1")
	ErrRequestNotFound     = errors.New("assembly request not found")
	ErrNotificationMissing = errors.New("purchase notification not found")
	ErrInvalidStatusValue  = errors.New("unknown status value")
	ErrLeadTimeNotFound    = errors.New("lead time not found")
	ErrInvalidLeadTime     = errors.New("lead days must not be negative")
)

const (
	// How many days before a task starts its assembly request is opened,
	// when the caller does not say otherwise.
	DefaultAssemblyAheadDays = 2
	// Extra margin added on top of the longest category lead time when
	// computing a purchase notify date, when the caller does not say
	// otherwise.
	DefaultPurchaseSafetyMarginDays = 60
)

// LinkKitRequest ties one kit to one scheduled task.
type LinkKitRequest struct {
	TaskID   int64 `json:"task_id" binding:"required"`
	KitID    int64 `json:"kit_id" binding:"required"`
	KitCount int   `json:"kit_count" binding:"required"`
}

// TaskLinkRequest is one task entry of a batch link.
type TaskLinkRequest struct {
	TaskID   int64 `json:"task_id" binding:"required"`
	KitCount int   `json:"kit_count" binding:"required"`
}

// LinkOutcome is the per-task result of a batch link.
type LinkOutcome struct {
	TaskID  int64  `json:"task_id"`
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// PlanningService covers the schedule import, kit-task linkage and the two
// notification generators. The generators are idempotent: each decides per
// link whether its record already exists, so running them on every page load
// or on a timer creates nothing twice.
type PlanningService interface {
	// ImportSchedule reconciles the stored schedule with the imported rows,
	// matching on external id, and reports what changed by task name.
	// Removing a task cascades to its links and their notifications.
	ImportSchedule(siteID int64, rows []models.TaskImportRow) (*models.ScheduleDiff, error)
	GetTasks(siteID int64) ([]models.Task, error)

	LinkKit(req LinkKitRequest) (*models.TaskKitLink, error)
	// BatchLinkTasks links one kit to many tasks, continuing past per-task
	// failures and reporting each task's outcome.
	BatchLinkTasks(kitID int64, reqs []TaskLinkRequest) []LinkOutcome
	UnlinkKit(linkID int64) error
	GetLinksByTask(taskID int64) ([]models.TaskKitLink, error)

	// GenerateAssemblyRequests opens a Pendente assembly request for every
	// linked kit whose task starts within the next aheadDays and has no
	// request yet. Non-positive aheadDays means DefaultAssemblyAheadDays.
	// Returns how many were created.
	GenerateAssemblyRequests(siteID int64, aheadDays int) (int, error)
	UpdateAssemblyStatus(requestID int64, status models.AssemblyStatus) error
	GetAssemblyRequests(siteID int64) ([]models.AssemblyRequest, error)

	// GeneratePurchaseNotifications opens a Pendente notification for every
	// linked kit of a future task whose notify date has arrived. The notify
	// date is the task start minus the kit's longest category lead time minus
	// the safety margin; non-positive safetyMarginDays means
	// DefaultPurchaseSafetyMarginDays. Returns how many were created.
	GeneratePurchaseNotifications(siteID int64, safetyMarginDays int) (int, error)
	UpdatePurchaseStatus(notificationID int64, status models.PurchaseStatus) error
	GetPurchaseNotifications(siteID int64, status models.PurchaseStatus) ([]models.PurchaseNotification, error)

	UpsertLeadTime(leadTime *models.PurchaseLeadTime) error
	DeleteLeadTime(leadTimeID int64) error
	ListLeadTimes() ([]models.PurchaseLeadTime, error)
}

type planningService struct {
	taskRepo     repositories.TaskRepository
	linkRepo     repositories.TaskKitLinkRepository
	kitRepo      repositories.KitRepository
	assemblyRepo repositories.AssemblyRepository
	purchaseRepo repositories.PurchaseNotificationRepository
	leadTimeRepo repositories.LeadTimeRepository
	tx           repositories.TxRunner
	now          func() time.Time
}

// NewPlanningService creates a new instance of PlanningService.
func NewPlanningService(
	tr repositories.TaskRepository,
	lr repositories.TaskKitLinkRepository,
	kr repositories.KitRepository,
	ar repositories.AssemblyRepository,
	pr repositories.PurchaseNotificationRepository,
	ltr repositories.LeadTimeRepository,
	tx repositories.TxRunner,
) PlanningService {
	return &planningService{
		taskRepo:     tr,
		linkRepo:     lr,
		kitRepo:      kr,
		assemblyRepo: ar,
		purchaseRepo: pr,
		leadTimeRepo: ltr,
		tx:           tx,
		now:          time.Now,
	}
}

// today truncates the clock to a date, matching how task start dates are
// stored.
func (s *planningService) today() time.Time {
	year, month, day := s.now().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func (s *planningService) ImportSchedule(siteID int64, rows []models.TaskImportRow) (*models.ScheduleDiff, error) {
	existing, err := s.taskRepo.GetBySite(siteID)
	if err != nil {
		return nil, err
	}
	existingByExternal := make(map[int64]models.Task, len(existing))
	for _, task := range existing {
		existingByExternal[task.ExternalID] = task
	}

	diff := &models.ScheduleDiff{Added: []string{}, Removed: []string{}, Modified: []string{}}
	var toInsert []models.Task
	var toUpdate []models.Task
	seen := make(map[int64]bool, len(rows))

	for _, row := range rows {
		seen[row.ExternalID] = true
		current, ok := existingByExternal[row.ExternalID]
		if !ok {
			toInsert = append(toInsert, models.Task{
				SiteID:     siteID,
				ExternalID: row.ExternalID,
				Name:       row.Name,
				StartDate:  row.StartDate,
				EndDate:    row.EndDate,
			})
			diff.Added = append(diff.Added, row.Name)
			continue
		}
		if current.Name != row.Name || !current.StartDate.Equal(row.StartDate) {
			current.Name = row.Name
			current.StartDate = row.StartDate
			current.EndDate = row.EndDate
			toUpdate = append(toUpdate, current)
			diff.Modified = append(diff.Modified, row.Name)
		}
	}

	var toDelete []int64
	for _, task := range existing {
		if !seen[task.ExternalID] {
			toDelete = append(toDelete, task.ID)
			diff.Removed = append(diff.Removed, task.Name)
		}
	}

	err = s.tx.WithinTx(func(executor repositories.SQLExecutor) error {
		for i := range toInsert {
			if err := s.taskRepo.Insert(executor, &toInsert[i]); err != nil {
				return err
			}
		}
		for i := range toUpdate {
			if err := s.taskRepo.Update(executor, &toUpdate[i]); err != nil {
				return err
			}
		}
		return s.taskRepo.Delete(executor, toDelete)
	})
	if err != nil {
		return nil, err
	}
	return diff, nil
}

func (s *planningService) GetTasks(siteID int64) ([]models.Task, error) {
	return s.taskRepo.GetBySite(siteID)
}

func (s *planningService) LinkKit(req LinkKitRequest) (*models.TaskKitLink, error) {
	if req.KitCount < 1 {
		return nil, ErrInvalidKitCount
	}
	link := &models.TaskKitLink{TaskID: req.TaskID, KitID: req.KitID, KitCount: req.KitCount}
	err := s.tx.WithinTx(func(executor repositories.SQLExecutor) error {
		exists, err := s.linkRepo.LinkExists(executor, req.TaskID, req.KitID)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyLinked
		}
		_, err = s.linkRepo.CreateLink(executor, link)
		return err
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrAlreadyLinked
		}
		return nil, err
	}
	return link, nil
}

func (s *planningService) BatchLinkTasks(kitID int64, reqs []TaskLinkRequest) []LinkOutcome {
	outcomes := make([]LinkOutcome, 0, len(reqs))
	for _, req := range reqs {
		outcome := LinkOutcome{TaskID: req.TaskID, OK: true}
		if _, err := s.LinkKit(LinkKitRequest{TaskID: req.TaskID, KitID: kitID, KitCount: req.KitCount}); err != nil {
			outcome.OK = false
			switch {
			case errors.Is(err, ErrAlreadyLinked):
				outcome.Message = "already linked"
			case errors.Is(err, ErrInvalidKitCount):
				outcome.Message = "invalid kit count"
			default:
				outcome.Message = fmt.Sprintf("link failed: %v", err)
			}
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (s *planningService) UnlinkKit(linkID int64) error {
	err := s.tx.WithinTx(func(executor repositories.SQLExecutor) error {
		return s.linkRepo.DeleteLink(executor, linkID)
	})
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrLinkNotFound
	}
	return err
}

func (s *planningService) GetLinksByTask(taskID int64) ([]models.TaskKitLink, error) {
	return s.linkRepo.GetLinksByTask(taskID)
}

func (s *planningService) GenerateAssemblyRequests(siteID int64, aheadDays int) (int, error) {
	if aheadDays <= 0 {
		aheadDays = DefaultAssemblyAheadDays
	}
	today := s.today()
	limit := today.AddDate(0, 0, aheadDays)

	created := 0
	err := s.tx.WithinTx(func(executor repositories.SQLExecutor) error {
		links, err := s.linkRepo.GetUpcomingLinks(executor, siteID, today)
		if err != nil {
			return err
		}
		for _, link := range links {
			if link.TaskStartDate.After(limit) {
				continue
			}
			exists, err := s.assemblyRepo.ExistsForLink(executor, link.ID)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			request := &models.AssemblyRequest{
				TaskKitLinkID:        link.ID,
				PlannedExecutionDate: link.TaskStartDate,
				Status:               models.AssemblyPending,
			}
			if _, err := s.assemblyRepo.Create(executor, request); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

func (s *planningService) UpdateAssemblyStatus(requestID int64, status models.AssemblyStatus) error {
	if !status.Valid() {
		return ErrInvalidStatusValue
	}
	err := s.assemblyRepo.UpdateStatus(requestID, status)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrRequestNotFound
	}
	return err
}

func (s *planningService) GetAssemblyRequests(siteID int64) ([]models.AssemblyRequest, error) {
	return s.assemblyRepo.GetBySite(siteID)
}

// maxKitLeadDays returns the longest purchase lead time among the kit's
// material categories, or zero when none is configured.
func (s *planningService) maxKitLeadDays(executor repositories.SQLExecutor, kitID int64) (int, error) {
	categories, err := s.kitRepo.GetKitCategories(kitID)
	if err != nil {
		return 0, err
	}
	days, err := s.leadTimeRepo.GetDaysByCategory(executor, categories)
	if err != nil {
		return 0, err
	}
	maxDays := 0
	for _, d := range days {
		if d > maxDays {
			maxDays = d
		}
	}
	return maxDays, nil
}

func (s *planningService) GeneratePurchaseNotifications(siteID int64, safetyMarginDays int) (int, error) {
	if safetyMarginDays <= 0 {
		safetyMarginDays = DefaultPurchaseSafetyMarginDays
	}
	today := s.today()

	created := 0
	err := s.tx.WithinTx(func(executor repositories.SQLExecutor) error {
		links, err := s.linkRepo.GetUpcomingLinks(executor, siteID, today)
		if err != nil {
			return err
		}
		for _, link := range links {
			exists, err := s.purchaseRepo.ExistsForLink(executor, link.ID)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			leadDays, err := s.maxKitLeadDays(executor, link.KitID)
			if err != nil {
				return err
			}
			notifyDate := link.TaskStartDate.AddDate(0, 0, -(leadDays + safetyMarginDays))
			if notifyDate.After(today) {
				continue
			}
			notification := &models.PurchaseNotification{
				TaskKitLinkID: link.ID,
				NotifyDate:    notifyDate,
				NeedDate:      link.TaskStartDate,
				Status:        models.PurchasePending,
			}
			if _, err := s.purchaseRepo.Create(executor, notification); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

func (s *planningService) UpdatePurchaseStatus(notificationID int64, status models.PurchaseStatus) error {
	if !status.Valid() {
		return ErrInvalidStatusValue
	}
	err := s.purchaseRepo.UpdateStatus(notificationID, status)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrNotificationMissing
	}
	return err
}

func (s *planningService) GetPurchaseNotifications(siteID int64, status models.PurchaseStatus) ([]models.PurchaseNotification, error) {
	return s.purchaseRepo.GetBySite(siteID, status)
}

func (s *planningService) UpsertLeadTime(leadTime *models.PurchaseLeadTime) error {
	if leadTime.LeadDays < 0 {
		return ErrInvalidLeadTime
	}
	return s.leadTimeRepo.Upsert(leadTime)
}

func (s *planningService) DeleteLeadTime(leadTimeID int64) error {
	err := s.leadTimeRepo.Delete(leadTimeID)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrLeadTimeNotFound
	}
	return err
}

func (s *planningService) ListLeadTimes() ([]models.PurchaseLeadTime, error) {
	return s.leadTimeRepo.List()
}
