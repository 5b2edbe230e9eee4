package services

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"almoxarifado_backend/internal/models"
)

func newKitServiceForTest() (*kitService, *fakeKitRepo) {
	kits := newFakeKitRepo()
	return &kitService{kitRepo: kits, tx: &fakeTxRunner{}}, kits
}

func TestCreateKitReplacesLines(t *testing.T) {
	svc, _ := newKitServiceForTest()

	kit := &models.Kit{
		SiteID: 1,
		Name:   "Kit Alvenaria",
		Lines: []models.KitLine{
			{MaterialID: 1, Quantity: decimal.NewFromInt(10)},
			{MaterialID: 2, Quantity: decimal.NewFromFloat(2.5)},
		},
	}
	if err := svc.CreateKit(kit); err != nil {
		t.Fatalf("CreateKit: %v", err)
	}

	stored, err := svc.GetKitByID(kit.ID)
	if err != nil {
		t.Fatalf("GetKitByID: %v", err)
	}
	if len(stored.Lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(stored.Lines))
	}

	// An update with a new line set discards the old one.
	kit.Lines = []models.KitLine{{MaterialID: 3, Quantity: decimal.NewFromInt(1)}}
	if err := svc.UpdateKit(kit); err != nil {
		t.Fatalf("UpdateKit: %v", err)
	}
	stored, _ = svc.GetKitByID(kit.ID)
	if len(stored.Lines) != 1 || stored.Lines[0].MaterialID != 3 {
		t.Errorf("lines after update = %+v, want single material 3", stored.Lines)
	}
}

func TestKitValidation(t *testing.T) {
	svc, _ := newKitServiceForTest()

	if err := svc.CreateKit(&models.Kit{SiteID: 1, Name: "   "}); !errors.Is(err, ErrEmptyKitName) {
		t.Errorf("blank name err = %v, want ErrEmptyKitName", err)
	}
	kit := &models.Kit{
		SiteID: 1,
		Name:   "Kit Estrutura",
		Lines:  []models.KitLine{{MaterialID: 1, Quantity: decimal.Zero}},
	}
	if err := svc.CreateKit(kit); !errors.Is(err, ErrInvalidKitLines) {
		t.Errorf("zero quantity err = %v, want ErrInvalidKitLines", err)
	}
}

func TestDeleteKitMissing(t *testing.T) {
	svc, _ := newKitServiceForTest()
	if err := svc.DeleteKit(99); !errors.Is(err, ErrKitNotFound) {
		t.Errorf("err = %v, want ErrKitNotFound", err)
	}
}
