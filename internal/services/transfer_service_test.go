package services

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"almoxarifado_backend/internal/models"
	"almoxarifado_backend/internal/repositories"
)

const (
	siteA int64 = 1
	siteB int64 = 2
)

func newTransferServiceForTest() (*transferService, *fakeTransferRepo, *fakeMovementRepo, *fakeStockRepo, *fakeMaterialRepo) {
	transfers := newFakeTransferRepo()
	movements := newFakeMovementRepo()
	stock := newFakeStockRepo()
	materials := newFakeMaterialRepo()
	sites := newFakeSiteRepo(
		models.Site{ID: siteA, Name: "Obra Alfa"},
		models.Site{ID: siteB, Name: "Obra Beta"},
	)
	transfers.siteNames[siteA] = "Obra Alfa"
	transfers.siteNames[siteB] = "Obra Beta"

	svc := &transferService{
		transferRepo: transfers,
		movementRepo: movements,
		stockRepo:    stock,
		materialRepo: materials,
		siteRepo:     sites,
		tx:           &fakeTxRunner{},
		now:          func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) },
	}
	return svc, transfers, movements, stock, materials
}

func TestRequestTransferValidation(t *testing.T) {
	svc, _, _, _, materials := newTransferServiceForTest()
	cement := materials.addMaterial("MAT-001", "Cimento CP-II", "Cimento")

	cases := []struct {
		name string
		req  RequestTransferRequest
		want error
	}{
		{"direct kind", RequestTransferRequest{OriginSiteID: siteA, MaterialID: cement.ID,
			Quantity: decimal.NewFromInt(5), Kind: models.KindEntry}, ErrInvalidTransferKind},
		{"zero quantity", RequestTransferRequest{OriginSiteID: siteA, MaterialID: cement.ID,
			Quantity: decimal.Zero, Kind: models.KindTransfer}, ErrInvalidQuantity},
		{"same site", RequestTransferRequest{OriginSiteID: siteB, MaterialID: cement.ID,
			Quantity: decimal.NewFromInt(5), Kind: models.KindTransfer}, ErrSameSiteTransfer},
		{"unknown material", RequestTransferRequest{OriginSiteID: siteA, MaterialID: 999,
			Quantity: decimal.NewFromInt(5), Kind: models.KindTransfer}, ErrMaterialNotFound},
	}
	for _, tc := range cases {
		if _, err := svc.RequestTransfer(siteB, 7, tc.req); !errors.Is(err, tc.want) {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestApproveTransferSettlesBothSites(t *testing.T) {
	svc, _, movements, stock, materials := newTransferServiceForTest()
	cement := materials.addMaterial("MAT-001", "Cimento CP-II", "Cimento")
	stock.balances[stockKey{cement.ID, siteA}] = decimal.NewFromInt(100)

	notes := "urgente: frente de obra parada"
	transfer, err := svc.RequestTransfer(siteB, 7, RequestTransferRequest{
		OriginSiteID: siteA,
		MaterialID:   cement.ID,
		Quantity:     decimal.NewFromInt(30),
		Kind:         models.KindTransfer,
		Notes:        &notes,
	})
	if err != nil {
		t.Fatalf("RequestTransfer: %v", err)
	}

	// Requesting must not touch stock.
	if !stock.balances[stockKey{cement.ID, siteA}].Equal(decimal.NewFromInt(100)) {
		t.Fatal("pending request changed origin stock")
	}

	resolved, err := svc.ResolveTransfer(siteA, 9, transfer.ID, models.StatusApproved)
	if err != nil {
		t.Fatalf("ResolveTransfer: %v", err)
	}
	if resolved.Status != models.StatusApproved {
		t.Errorf("status = %s, want Aprovada", resolved.Status)
	}

	if got := stock.balances[stockKey{cement.ID, siteA}]; !got.Equal(decimal.NewFromInt(70)) {
		t.Errorf("origin balance = %s, want 70", got)
	}
	if got := stock.balances[stockKey{cement.ID, siteB}]; !got.Equal(decimal.NewFromInt(30)) {
		t.Errorf("destination balance = %s, want 30", got)
	}

	originHistory, _ := movements.GetHistory(siteA, models.HistoryFilters{})
	destinationHistory, _ := movements.GetHistory(siteB, models.HistoryFilters{})
	if len(originHistory) != 1 || len(destinationHistory) != 1 {
		t.Fatalf("settlement records: origin %d destination %d, want 1 each",
			len(originHistory), len(destinationHistory))
	}
	if originHistory[0].Kind != models.KindTransfer || destinationHistory[0].Kind != models.KindTransfer {
		t.Error("settlement records must carry the transfer kind")
	}
	if r := originHistory[0].Receiver; r == nil || *r != "Obra Destino ID: 2" {
		t.Errorf("origin receiver = %v, want counterpart reference", r)
	}
	if s := destinationHistory[0].Supplier; s == nil || *s != "Obra Origem ID: 1" {
		t.Errorf("destination supplier = %v, want counterpart reference", s)
	}
	for _, record := range []models.MovementRecord{originHistory[0], destinationHistory[0]} {
		if record.Notes == nil || *record.Notes != notes {
			t.Errorf("settlement notes = %v, want the transfer's notes", record.Notes)
		}
	}
}

func TestRefuseTransferLeavesStockUntouched(t *testing.T) {
	svc, _, movements, stock, materials := newTransferServiceForTest()
	cement := materials.addMaterial("MAT-001", "Cimento CP-II", "Cimento")
	stock.balances[stockKey{cement.ID, siteA}] = decimal.NewFromInt(100)

	transfer, err := svc.RequestTransfer(siteB, 7, RequestTransferRequest{
		OriginSiteID: siteA,
		MaterialID:   cement.ID,
		Quantity:     decimal.NewFromInt(30),
		Kind:         models.KindTransfer,
	})
	if err != nil {
		t.Fatalf("RequestTransfer: %v", err)
	}

	if _, err := svc.ResolveTransfer(siteA, 9, transfer.ID, models.StatusRefused); err != nil {
		t.Fatalf("ResolveTransfer: %v", err)
	}

	if got := stock.balances[stockKey{cement.ID, siteA}]; !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("origin balance = %s, want unchanged 100", got)
	}
	if got := stock.balances[stockKey{cement.ID, siteB}]; !got.IsZero() {
		t.Errorf("destination balance = %s, want 0", got)
	}
	history, _ := movements.GetHistory(siteA, models.HistoryFilters{})
	if len(history) != 0 {
		t.Errorf("refusal wrote %d movement records, want none", len(history))
	}
}

func TestResolveTransferTerminalStateIsFinal(t *testing.T) {
	svc, _, _, stock, materials := newTransferServiceForTest()
	cement := materials.addMaterial("MAT-001", "Cimento CP-II", "Cimento")
	stock.balances[stockKey{cement.ID, siteA}] = decimal.NewFromInt(100)

	transfer, err := svc.RequestTransfer(siteB, 7, RequestTransferRequest{
		OriginSiteID: siteA,
		MaterialID:   cement.ID,
		Quantity:     decimal.NewFromInt(30),
		Kind:         models.KindTransfer,
	})
	if err != nil {
		t.Fatalf("RequestTransfer: %v", err)
	}
	if _, err := svc.ResolveTransfer(siteA, 9, transfer.ID, models.StatusApproved); err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	for _, status := range []models.TransferStatus{models.StatusApproved, models.StatusRefused, models.StatusCancelled} {
		actingSite := siteA
		if status == models.StatusCancelled {
			actingSite = siteB
		}
		if _, err := svc.ResolveTransfer(actingSite, 9, transfer.ID, status); !errors.Is(err, ErrTransferResolved) {
			t.Errorf("re-resolve to %s: err = %v, want ErrTransferResolved", status, err)
		}
	}

	// Exactly one settlement happened.
	if got := stock.balances[stockKey{cement.ID, siteA}]; !got.Equal(decimal.NewFromInt(70)) {
		t.Errorf("origin balance = %s, want 70", got)
	}
}

func TestResolveTransferPartyRules(t *testing.T) {
	svc, _, _, _, materials := newTransferServiceForTest()
	cement := materials.addMaterial("MAT-001", "Cimento CP-II", "Cimento")

	transfer, err := svc.RequestTransfer(siteB, 7, RequestTransferRequest{
		OriginSiteID: siteA,
		MaterialID:   cement.ID,
		Quantity:     decimal.NewFromInt(5),
		Kind:         models.KindLoan,
	})
	if err != nil {
		t.Fatalf("RequestTransfer: %v", err)
	}

	if _, err := svc.ResolveTransfer(siteB, 7, transfer.ID, models.StatusApproved); !errors.Is(err, ErrApproveNotOriginSite) {
		t.Errorf("destination approving: err = %v, want ErrApproveNotOriginSite", err)
	}
	if _, err := svc.ResolveTransfer(siteA, 9, transfer.ID, models.StatusCancelled); !errors.Is(err, ErrCancelNotRequester) {
		t.Errorf("origin cancelling: err = %v, want ErrCancelNotRequester", err)
	}
	if _, err := svc.ResolveTransfer(99, 9, transfer.ID, models.StatusApproved); !errors.Is(err, ErrNotTransferParty) {
		t.Errorf("third site resolving: err = %v, want ErrNotTransferParty", err)
	}
	if _, err := svc.ResolveTransfer(siteA, 9, transfer.ID, models.StatusPending); !errors.Is(err, ErrInvalidResolution) {
		t.Errorf("resolving to Pendente: err = %v, want ErrInvalidResolution", err)
	}
}

func approveLoanRow(t *testing.T, svc *transferService, originSite, destinationSite, materialID int64, quantity int64, kind models.MovementKind) {
	t.Helper()
	transfer, err := svc.RequestTransfer(destinationSite, 7, RequestTransferRequest{
		OriginSiteID: originSite,
		MaterialID:   materialID,
		Quantity:     decimal.NewFromInt(quantity),
		Kind:         kind,
	})
	if err != nil {
		t.Fatalf("RequestTransfer: %v", err)
	}
	if _, err := svc.ResolveTransfer(originSite, 9, transfer.ID, models.StatusApproved); err != nil {
		t.Fatalf("ResolveTransfer: %v", err)
	}
}

func TestComputeLoanBalancesNetsReturns(t *testing.T) {
	svc, transfers, _, _, materials := newTransferServiceForTest()
	cement := materials.addMaterial("MAT-001", "Cimento CP-II", "Cimento")
	transfers.materials[cement.ID] = cement.Description

	// Alfa lends 10 bags to Beta; Beta returns 4.
	approveLoanRow(t, svc, siteA, siteB, cement.ID, 10, models.KindLoan)
	approveLoanRow(t, svc, siteB, siteA, cement.ID, 4, models.KindLoanReturn)

	balances, err := svc.ComputeLoanBalances(siteA)
	if err != nil {
		t.Fatalf("ComputeLoanBalances: %v", err)
	}
	if len(balances.Credits) != 1 || len(balances.Debts) != 0 {
		t.Fatalf("Alfa sees %d credits / %d debts, want 1 / 0", len(balances.Credits), len(balances.Debts))
	}
	credit := balances.Credits[0]
	if credit.SiteID != siteB {
		t.Errorf("counterpart = %d, want Beta", credit.SiteID)
	}
	if !credit.Quantity.Equal(decimal.NewFromInt(6)) {
		t.Errorf("outstanding = %s, want 6", credit.Quantity)
	}

	// Beta sees the same 6 as a debt back to Alfa.
	betaBalances, err := svc.ComputeLoanBalances(siteB)
	if err != nil {
		t.Fatalf("ComputeLoanBalances: %v", err)
	}
	if len(betaBalances.Credits) != 0 || len(betaBalances.Debts) != 1 {
		t.Fatalf("Beta sees %d credits / %d debts, want 0 / 1", len(betaBalances.Credits), len(betaBalances.Debts))
	}
	debt := betaBalances.Debts[0]
	if debt.SiteID != siteA {
		t.Errorf("debt counterpart = %d, want Alfa", debt.SiteID)
	}
	if !debt.Quantity.Equal(decimal.NewFromInt(6)) {
		t.Errorf("debt = %s, want 6", debt.Quantity)
	}
}

func TestComputeLoanBalancesFullyReturned(t *testing.T) {
	svc, transfers, _, _, materials := newTransferServiceForTest()
	cement := materials.addMaterial("MAT-001", "Cimento CP-II", "Cimento")
	transfers.materials[cement.ID] = cement.Description

	approveLoanRow(t, svc, siteA, siteB, cement.ID, 10, models.KindLoan)
	approveLoanRow(t, svc, siteB, siteA, cement.ID, 10, models.KindLoanReturn)

	balances, err := svc.ComputeLoanBalances(siteA)
	if err != nil {
		t.Fatalf("ComputeLoanBalances: %v", err)
	}
	if len(balances.Credits) != 0 || len(balances.Debts) != 0 {
		t.Errorf("got %d credits / %d debts, want none when fully returned", len(balances.Credits), len(balances.Debts))
	}
}

func TestComputeLoanBalancesIgnoresPendingAndRefused(t *testing.T) {
	svc, transfers, _, _, materials := newTransferServiceForTest()
	cement := materials.addMaterial("MAT-001", "Cimento CP-II", "Cimento")
	transfers.materials[cement.ID] = cement.Description

	// Pending loan, never resolved.
	if _, err := svc.RequestTransfer(siteB, 7, RequestTransferRequest{
		OriginSiteID: siteA,
		MaterialID:   cement.ID,
		Quantity:     decimal.NewFromInt(10),
		Kind:         models.KindLoan,
	}); err != nil {
		t.Fatalf("RequestTransfer: %v", err)
	}
	// Refused loan.
	refused, err := svc.RequestTransfer(siteB, 7, RequestTransferRequest{
		OriginSiteID: siteA,
		MaterialID:   cement.ID,
		Quantity:     decimal.NewFromInt(7),
		Kind:         models.KindLoan,
	})
	if err != nil {
		t.Fatalf("RequestTransfer: %v", err)
	}
	if _, err := svc.ResolveTransfer(siteA, 9, refused.ID, models.StatusRefused); err != nil {
		t.Fatalf("ResolveTransfer: %v", err)
	}

	balances, err := svc.ComputeLoanBalances(siteA)
	if err != nil {
		t.Fatalf("ComputeLoanBalances: %v", err)
	}
	if len(balances.Credits) != 0 || len(balances.Debts) != 0 {
		t.Errorf("got %d credits / %d debts, want none without approved rows", len(balances.Credits), len(balances.Debts))
	}
}

func TestGetPendingRoles(t *testing.T) {
	svc, _, _, _, materials := newTransferServiceForTest()
	cement := materials.addMaterial("MAT-001", "Cimento CP-II", "Cimento")

	if _, err := svc.RequestTransfer(siteB, 7, RequestTransferRequest{
		OriginSiteID: siteA,
		MaterialID:   cement.ID,
		Quantity:     decimal.NewFromInt(5),
		Kind:         models.KindTransfer,
	}); err != nil {
		t.Fatalf("RequestTransfer: %v", err)
	}

	sent, err := svc.GetPending(siteA, repositories.RoleSent)
	if err != nil {
		t.Fatalf("GetPending sent: %v", err)
	}
	if len(sent) != 1 {
		t.Errorf("origin sees %d sent rows, want 1", len(sent))
	}
	received, err := svc.GetPending(siteB, repositories.RoleReceived)
	if err != nil {
		t.Fatalf("GetPending received: %v", err)
	}
	if len(received) != 1 {
		t.Errorf("destination sees %d received rows, want 1", len(received))
	}
}
