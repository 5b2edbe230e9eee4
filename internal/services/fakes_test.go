package services

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"almoxarifado_backend/internal/models"
	"almoxarifado_backend/internal/repositories"
)

// The fakes below satisfy the repository interfaces with in-memory state so
// service behavior can be tested without a database.

type fakeTxRunner struct {
	calls int
}

func (r *fakeTxRunner) WithinTx(fn func(executor repositories.SQLExecutor) error) error {
	r.calls++
	return fn(nil)
}

type stockKey struct {
	materialID int64
	siteID     int64
}

type fakeStockRepo struct {
	balances map[stockKey]decimal.Decimal
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{balances: map[stockKey]decimal.Decimal{}}
}

func (r *fakeStockRepo) GetBalance(materialID, siteID int64) (decimal.Decimal, error) {
	return r.balances[stockKey{materialID, siteID}], nil
}

func (r *fakeStockRepo) EnsureRow(_ repositories.SQLExecutor, materialID, siteID int64) error {
	key := stockKey{materialID, siteID}
	if _, ok := r.balances[key]; !ok {
		r.balances[key] = decimal.Zero
	}
	return nil
}

func (r *fakeStockRepo) ApplyDelta(_ repositories.SQLExecutor, materialID, siteID int64, delta decimal.Decimal) error {
	key := stockKey{materialID, siteID}
	// Mirrors the repository contract: the row must exist before an
	// additive update can land.
	if _, ok := r.balances[key]; !ok {
		return repositories.ErrNotFound
	}
	r.balances[key] = r.balances[key].Add(delta)
	return nil
}

type fakeMovementRepo struct {
	nextID  int64
	records map[int64]*models.MovementRecord
}

func newFakeMovementRepo() *fakeMovementRepo {
	return &fakeMovementRepo{nextID: 1, records: map[int64]*models.MovementRecord{}}
}

func (r *fakeMovementRepo) Create(_ repositories.SQLExecutor, m *models.MovementRecord) (int64, error) {
	m.ID = r.nextID
	m.CreatedAt = time.Now()
	r.nextID++
	clone := *m
	r.records[m.ID] = &clone
	return m.ID, nil
}

func (r *fakeMovementRepo) GetByID(movementID int64) (*models.MovementRecord, error) {
	record, ok := r.records[movementID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *record
	return &clone, nil
}

func (r *fakeMovementRepo) MarkReversed(_ repositories.SQLExecutor, movementID int64) error {
	record, ok := r.records[movementID]
	if !ok || record.Reversed {
		return repositories.ErrNotFound
	}
	record.Reversed = true
	return nil
}

func (r *fakeMovementRepo) GetHistory(siteID int64, filters models.HistoryFilters) ([]models.MovementRecord, error) {
	var out []models.MovementRecord
	for _, record := range r.records {
		if record.SiteID == siteID && !record.Reversed {
			out = append(out, *record)
		}
	}
	return out, nil
}

type fakeMaterialRepo struct {
	nextID    int64
	materials map[int64]*models.Material
	byCode    map[string]int64
}

func newFakeMaterialRepo() *fakeMaterialRepo {
	return &fakeMaterialRepo{nextID: 1, materials: map[int64]*models.Material{}, byCode: map[string]int64{}}
}

func (r *fakeMaterialRepo) addMaterial(code, description, category string) *models.Material {
	m := &models.Material{Code: code, Description: description, Category: category}
	_, _ = r.Create(nil, m)
	return m
}

func (r *fakeMaterialRepo) Create(_ repositories.SQLExecutor, m *models.Material) (int64, error) {
	if _, ok := r.byCode[m.Code]; ok {
		return 0, fmt.Errorf("%w: materials_code_key", repositories.ErrDuplicateKey)
	}
	m.ID = r.nextID
	r.nextID++
	clone := *m
	r.materials[m.ID] = &clone
	r.byCode[m.Code] = m.ID
	return m.ID, nil
}

func (r *fakeMaterialRepo) Update(_ repositories.SQLExecutor, m *models.Material) error {
	current, ok := r.materials[m.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	if other, ok := r.byCode[m.Code]; ok && other != m.ID {
		return fmt.Errorf("%w: materials_code_key", repositories.ErrDuplicateKey)
	}
	delete(r.byCode, current.Code)
	clone := *m
	r.materials[m.ID] = &clone
	r.byCode[m.Code] = m.ID
	return nil
}

func (r *fakeMaterialRepo) Delete(_ repositories.SQLExecutor, materialIDs []int64) (int64, error) {
	var deleted int64
	for _, id := range materialIDs {
		if current, ok := r.materials[id]; ok {
			delete(r.byCode, current.Code)
			delete(r.materials, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *fakeMaterialRepo) GetByID(materialID int64) (*models.Material, error) {
	m, ok := r.materials[materialID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *m
	return &clone, nil
}

func (r *fakeMaterialRepo) GetPage(siteID int64, filters repositories.MaterialFilters, page, pageSize int) ([]models.Material, int, error) {
	var out []models.Material
	for _, m := range r.materials {
		out = append(out, *m)
	}
	return out, len(out), nil
}

func (r *fakeMaterialRepo) ListCategories() ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, m := range r.materials {
		if m.Category != "" && !seen[m.Category] {
			seen[m.Category] = true
			out = append(out, m.Category)
		}
	}
	return out, nil
}

func (r *fakeMaterialRepo) ListUnits() ([]string, error) {
	return nil, nil
}

type fakeSiteRepo struct {
	sites map[int64]*models.Site
}

func newFakeSiteRepo(sites ...models.Site) *fakeSiteRepo {
	r := &fakeSiteRepo{sites: map[int64]*models.Site{}}
	for i := range sites {
		site := sites[i]
		r.sites[site.ID] = &site
	}
	return r
}

func (r *fakeSiteRepo) GetByID(siteID int64) (*models.Site, error) {
	site, ok := r.sites[siteID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *site
	return &clone, nil
}

func (r *fakeSiteRepo) ListOthers(currentSiteID int64) ([]models.Site, error) {
	var out []models.Site
	for _, site := range r.sites {
		if site.ID != currentSiteID {
			out = append(out, *site)
		}
	}
	return out, nil
}

type fakeTransferRepo struct {
	nextID    int64
	transfers map[int64]*models.PendingTransfer
	siteNames map[int64]string
	materials map[int64]string
}

func newFakeTransferRepo() *fakeTransferRepo {
	return &fakeTransferRepo{
		nextID:    1,
		transfers: map[int64]*models.PendingTransfer{},
		siteNames: map[int64]string{},
		materials: map[int64]string{},
	}
}

func (r *fakeTransferRepo) Create(_ repositories.SQLExecutor, t *models.PendingTransfer) (int64, error) {
	t.ID = r.nextID
	t.Status = models.StatusPending
	t.RequestedAt = time.Now()
	r.nextID++
	clone := *t
	r.transfers[t.ID] = &clone
	return t.ID, nil
}

func (r *fakeTransferRepo) GetByID(transferID int64) (*models.PendingTransfer, error) {
	t, ok := r.transfers[transferID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *fakeTransferRepo) MarkResolved(_ repositories.SQLExecutor, transferID int64, status models.TransferStatus, resolvedBy int64, resolvedAt time.Time) error {
	t, ok := r.transfers[transferID]
	if !ok || t.Status != models.StatusPending {
		return repositories.ErrNotFound
	}
	t.Status = status
	t.ResolvedAt = &resolvedAt
	t.ResolvedBy = &resolvedBy
	return nil
}

func (r *fakeTransferRepo) decorate(t models.PendingTransfer) models.PendingTransfer {
	t.OriginSiteName = r.siteNames[t.OriginSiteID]
	t.DestinationSiteName = r.siteNames[t.DestinationSiteID]
	t.MaterialDescription = r.materials[t.MaterialID]
	return t
}

func (r *fakeTransferRepo) GetPendingBySite(siteID int64, role repositories.TransferRole) ([]models.PendingTransfer, error) {
	var out []models.PendingTransfer
	for _, t := range r.transfers {
		if t.Status != models.StatusPending {
			continue
		}
		if (role == repositories.RoleSent && t.OriginSiteID == siteID) ||
			(role == repositories.RoleReceived && t.DestinationSiteID == siteID) {
			out = append(out, r.decorate(*t))
		}
	}
	return out, nil
}

func (r *fakeTransferRepo) GetResolvedHistory(siteID int64) ([]models.PendingTransfer, error) {
	var out []models.PendingTransfer
	for _, t := range r.transfers {
		if t.Status != models.StatusPending &&
			(t.OriginSiteID == siteID || t.DestinationSiteID == siteID) {
			out = append(out, r.decorate(*t))
		}
	}
	return out, nil
}

func (r *fakeTransferRepo) GetApprovedLoanRows(siteID int64) ([]models.PendingTransfer, error) {
	var out []models.PendingTransfer
	for _, t := range r.transfers {
		if t.Status != models.StatusApproved {
			continue
		}
		if t.Kind != models.KindLoan && t.Kind != models.KindLoanReturn {
			continue
		}
		if t.OriginSiteID == siteID || t.DestinationSiteID == siteID {
			out = append(out, r.decorate(*t))
		}
	}
	return out, nil
}

type fakeTaskRepo struct {
	nextID int64
	tasks  map[int64]*models.Task
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{nextID: 1, tasks: map[int64]*models.Task{}}
}

func (r *fakeTaskRepo) GetBySite(siteID int64) ([]models.Task, error) {
	var out []models.Task
	for _, t := range r.tasks {
		if t.SiteID == siteID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) Insert(_ repositories.SQLExecutor, task *models.Task) error {
	task.ID = r.nextID
	r.nextID++
	clone := *task
	r.tasks[task.ID] = &clone
	return nil
}

func (r *fakeTaskRepo) Update(_ repositories.SQLExecutor, task *models.Task) error {
	if _, ok := r.tasks[task.ID]; !ok {
		return repositories.ErrNotFound
	}
	clone := *task
	r.tasks[task.ID] = &clone
	return nil
}

func (r *fakeTaskRepo) Delete(_ repositories.SQLExecutor, taskIDs []int64) error {
	for _, id := range taskIDs {
		delete(r.tasks, id)
	}
	return nil
}

type fakeLinkRepo struct {
	nextID int64
	links  map[int64]*models.TaskKitLink
	tasks  *fakeTaskRepo
}

func newFakeLinkRepo(tasks *fakeTaskRepo) *fakeLinkRepo {
	return &fakeLinkRepo{nextID: 1, links: map[int64]*models.TaskKitLink{}, tasks: tasks}
}

func (r *fakeLinkRepo) LinkExists(_ repositories.SQLExecutor, taskID, kitID int64) (bool, error) {
	for _, link := range r.links {
		if link.TaskID == taskID && link.KitID == kitID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeLinkRepo) CreateLink(_ repositories.SQLExecutor, link *models.TaskKitLink) (int64, error) {
	link.ID = r.nextID
	r.nextID++
	clone := *link
	r.links[link.ID] = &clone
	return link.ID, nil
}

func (r *fakeLinkRepo) DeleteLink(_ repositories.SQLExecutor, linkID int64) error {
	if _, ok := r.links[linkID]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.links, linkID)
	return nil
}

func (r *fakeLinkRepo) GetLinksByTask(taskID int64) ([]models.TaskKitLink, error) {
	var out []models.TaskKitLink
	for _, link := range r.links {
		if link.TaskID == taskID {
			out = append(out, *link)
		}
	}
	return out, nil
}

func (r *fakeLinkRepo) GetUpcomingLinks(_ repositories.SQLExecutor, siteID int64, from time.Time) ([]models.TaskKitLink, error) {
	var out []models.TaskKitLink
	for _, link := range r.links {
		task, ok := r.tasks.tasks[link.TaskID]
		if !ok || task.SiteID != siteID || task.StartDate.Before(from) {
			continue
		}
		withTask := *link
		withTask.TaskName = task.Name
		withTask.TaskStartDate = task.StartDate
		out = append(out, withTask)
	}
	return out, nil
}

type fakeKitRepo struct {
	nextID     int64
	kits       map[int64]*models.Kit
	lines      map[int64][]models.KitLine
	categories map[int64][]string
}

func newFakeKitRepo() *fakeKitRepo {
	return &fakeKitRepo{
		nextID:     1,
		kits:       map[int64]*models.Kit{},
		lines:      map[int64][]models.KitLine{},
		categories: map[int64][]string{},
	}
}

func (r *fakeKitRepo) CreateKit(_ repositories.SQLExecutor, kit *models.Kit) (int64, error) {
	kit.ID = r.nextID
	r.nextID++
	clone := *kit
	r.kits[kit.ID] = &clone
	return kit.ID, nil
}

func (r *fakeKitRepo) UpdateKit(_ repositories.SQLExecutor, kit *models.Kit) error {
	if _, ok := r.kits[kit.ID]; !ok {
		return repositories.ErrNotFound
	}
	clone := *kit
	r.kits[kit.ID] = &clone
	return nil
}

func (r *fakeKitRepo) DeleteKit(_ repositories.SQLExecutor, kitID int64) error {
	if _, ok := r.kits[kitID]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.kits, kitID)
	delete(r.lines, kitID)
	return nil
}

func (r *fakeKitRepo) GetKitByID(kitID int64) (*models.Kit, error) {
	kit, ok := r.kits[kitID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *kit
	return &clone, nil
}

func (r *fakeKitRepo) GetKitsBySite(siteID int64) ([]models.Kit, error) {
	var out []models.Kit
	for _, kit := range r.kits {
		if kit.SiteID == siteID {
			out = append(out, *kit)
		}
	}
	return out, nil
}

func (r *fakeKitRepo) GetKitLines(kitID int64) ([]models.KitLine, error) {
	return r.lines[kitID], nil
}

func (r *fakeKitRepo) ReplaceLines(_ repositories.SQLExecutor, kitID int64, lines []models.KitLine) error {
	r.lines[kitID] = append([]models.KitLine(nil), lines...)
	return nil
}

func (r *fakeKitRepo) GetKitCategories(kitID int64) ([]string, error) {
	return r.categories[kitID], nil
}

type fakeAssemblyRepo struct {
	nextID   int64
	requests map[int64]*models.AssemblyRequest
}

func newFakeAssemblyRepo() *fakeAssemblyRepo {
	return &fakeAssemblyRepo{nextID: 1, requests: map[int64]*models.AssemblyRequest{}}
}

func (r *fakeAssemblyRepo) ExistsForLink(_ repositories.SQLExecutor, linkID int64) (bool, error) {
	for _, request := range r.requests {
		if request.TaskKitLinkID == linkID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAssemblyRepo) Create(_ repositories.SQLExecutor, request *models.AssemblyRequest) (int64, error) {
	request.ID = r.nextID
	r.nextID++
	clone := *request
	r.requests[request.ID] = &clone
	return request.ID, nil
}

func (r *fakeAssemblyRepo) UpdateStatus(requestID int64, status models.AssemblyStatus) error {
	request, ok := r.requests[requestID]
	if !ok {
		return repositories.ErrNotFound
	}
	request.Status = status
	return nil
}

func (r *fakeAssemblyRepo) GetBySite(siteID int64) ([]models.AssemblyRequest, error) {
	var out []models.AssemblyRequest
	for _, request := range r.requests {
		out = append(out, *request)
	}
	return out, nil
}

type fakePurchaseRepo struct {
	nextID        int64
	notifications map[int64]*models.PurchaseNotification
}

func newFakePurchaseRepo() *fakePurchaseRepo {
	return &fakePurchaseRepo{nextID: 1, notifications: map[int64]*models.PurchaseNotification{}}
}

func (r *fakePurchaseRepo) ExistsForLink(_ repositories.SQLExecutor, linkID int64) (bool, error) {
	for _, notification := range r.notifications {
		if notification.TaskKitLinkID == linkID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePurchaseRepo) Create(_ repositories.SQLExecutor, notification *models.PurchaseNotification) (int64, error) {
	notification.ID = r.nextID
	r.nextID++
	clone := *notification
	r.notifications[notification.ID] = &clone
	return notification.ID, nil
}

func (r *fakePurchaseRepo) UpdateStatus(notificationID int64, status models.PurchaseStatus) error {
	notification, ok := r.notifications[notificationID]
	if !ok {
		return repositories.ErrNotFound
	}
	notification.Status = status
	return nil
}

func (r *fakePurchaseRepo) GetBySite(siteID int64, status models.PurchaseStatus) ([]models.PurchaseNotification, error) {
	var out []models.PurchaseNotification
	for _, notification := range r.notifications {
		if notification.Status == status {
			out = append(out, *notification)
		}
	}
	return out, nil
}

type fakeLeadTimeRepo struct {
	nextID    int64
	leadTimes map[int64]*models.PurchaseLeadTime
}

func newFakeLeadTimeRepo() *fakeLeadTimeRepo {
	return &fakeLeadTimeRepo{nextID: 1, leadTimes: map[int64]*models.PurchaseLeadTime{}}
}

func (r *fakeLeadTimeRepo) Upsert(leadTime *models.PurchaseLeadTime) error {
	for _, current := range r.leadTimes {
		if current.Category == leadTime.Category {
			current.LeadDays = leadTime.LeadDays
			leadTime.ID = current.ID
			return nil
		}
	}
	leadTime.ID = r.nextID
	r.nextID++
	clone := *leadTime
	r.leadTimes[leadTime.ID] = &clone
	return nil
}

func (r *fakeLeadTimeRepo) Delete(leadTimeID int64) error {
	if _, ok := r.leadTimes[leadTimeID]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.leadTimes, leadTimeID)
	return nil
}

func (r *fakeLeadTimeRepo) List() ([]models.PurchaseLeadTime, error) {
	var out []models.PurchaseLeadTime
	for _, leadTime := range r.leadTimes {
		out = append(out, *leadTime)
	}
	return out, nil
}

func (r *fakeLeadTimeRepo) GetDaysByCategory(_ repositories.SQLExecutor, categories []string) (map[string]int, error) {
	out := map[string]int{}
	for _, category := range categories {
		for _, leadTime := range r.leadTimes {
			if leadTime.Category == category {
				out[category] = leadTime.LeadDays
			}
		}
	}
	return out, nil
}
