package application

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ahamawy/fiveseptemberlaunch-sub000/internal/feeengine/domain"
)

func newTestImportService(ledger *stubLedgerRepo) *ImportService {
	return NewImportService(newTestExecutor(newStubEquationRepo()), ledger, nil, testLogger())
}

func TestImportPreviewComputesWithoutWriting(t *testing.T) {
	ledger := newStubLedgerRepo()
	svc := newTestImportService(ledger)

	preview, err := svc.Preview(context.Background(), []ImportRow{
		{DealID: "DEAL-1", GrossCapital: decimal.NewFromInt(100000), UnitPrice: decimal.NewFromInt(1000), Years: 1},
		{DealID: "DEAL-2", GrossCapital: decimal.NewFromInt(50000), UnitPrice: decimal.NewFromInt(500), Years: 1, TransactionID: "TXN-9"},
	})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if preview.BatchID == "" {
		t.Fatalf("batch id empty")
	}
	if len(preview.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(preview.Rows))
	}
	for i, rp := range preview.Rows {
		if rp.Error != "" {
			t.Fatalf("row %d error: %s", i, rp.Error)
		}
		if rp.Result == nil || len(rp.Records) == 0 {
			t.Fatalf("row %d missing result or records", i)
		}
	}
	if len(ledger.saved) != 0 || len(ledger.staged) != 0 {
		t.Fatalf("preview wrote to ledger")
	}
}

func TestImportPreviewCarriesRowDiscounts(t *testing.T) {
	svc := newTestImportService(newStubLedgerRepo())

	preview, err := svc.Preview(context.Background(), []ImportRow{
		{
			DealID:       "DEAL-1",
			GrossCapital: decimal.NewFromInt(50000),
			UnitPrice:    decimal.NewFromInt(1000),
			Years:        1,
			Discounts: []domain.DiscountInput{
				{Component: domain.ComponentAdmin, FixedAmount: decimal.NewFromInt(200)},
			},
		},
	})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	result := preview.Rows[0].Result
	if len(result.AppliedDiscounts) != 1 || result.AppliedDiscounts[0].Component != domain.ComponentAdmin {
		t.Fatalf("discounts = %+v", result.AppliedDiscounts)
	}
	mustDecimalEqual(t, "discount total", result.Final.TotalDiscounts, decimal.NewFromInt(200))
}

func TestImportPreviewRequiresRows(t *testing.T) {
	svc := newTestImportService(newStubLedgerRepo())
	if _, err := svc.Preview(context.Background(), nil); err == nil {
		t.Fatalf("empty preview accepted")
	}
}

func TestImportCommitSplitsPersistedAndStaged(t *testing.T) {
	ledger := newStubLedgerRepo()
	svc := newTestImportService(ledger)

	preview, err := svc.Preview(context.Background(), []ImportRow{
		{DealID: "DEAL-1", GrossCapital: decimal.NewFromInt(100000), UnitPrice: decimal.NewFromInt(1000), Years: 1, TransactionID: "TXN-1"},
		{DealID: "DEAL-2", GrossCapital: decimal.NewFromInt(100000), UnitPrice: decimal.NewFromInt(1000), Years: 1},
	})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}

	commit, err := svc.Commit(context.Background(), preview.BatchID)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if commit.Persisted != 1 || commit.Staged != 1 || commit.Skipped != 0 {
		t.Fatalf("commit = %+v", commit)
	}
	if len(ledger.saved) != 4 {
		t.Fatalf("persisted records = %d, want 4", len(ledger.saved))
	}
	staged := ledger.staged[preview.BatchID]
	if len(staged) != 4 {
		t.Fatalf("staged records = %d, want 4", len(staged))
	}
}

func TestImportCommitSkipsFailedRows(t *testing.T) {
	ledger := newStubLedgerRepo()
	eqRepo := newStubEquationRepo()
	badEq := &domain.DealEquation{
		Name: "BROKEN",
		Rules: []domain.EquationRule{
			{Component: domain.ComponentPremium, Kind: domain.RuleKind(99), Basis: domain.BasisGross, Precedence: 1},
		},
	}
	eqRepo.equations["DEAL-BAD"] = badEq
	svc := NewImportService(newTestExecutor(eqRepo), ledger, nil, testLogger())

	preview, err := svc.Preview(context.Background(), []ImportRow{
		{DealID: "DEAL-BAD", GrossCapital: decimal.NewFromInt(100000), UnitPrice: decimal.NewFromInt(1000), Years: 1},
		{DealID: "DEAL-OK", GrossCapital: decimal.NewFromInt(100000), UnitPrice: decimal.NewFromInt(1000), Years: 1, TransactionID: "TXN-1"},
	})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if preview.Rows[0].Error == "" {
		t.Fatalf("broken equation produced no row error")
	}
	if preview.Rows[1].Error != "" {
		t.Fatalf("healthy row carries error: %s", preview.Rows[1].Error)
	}

	commit, err := svc.Commit(context.Background(), preview.BatchID)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if commit.Skipped != 1 || commit.Persisted != 1 {
		t.Fatalf("commit = %+v", commit)
	}
}

func TestImportCommitIsOneShot(t *testing.T) {
	svc := newTestImportService(newStubLedgerRepo())

	preview, err := svc.Preview(context.Background(), []ImportRow{
		{DealID: "DEAL-1", GrossCapital: decimal.NewFromInt(100000), UnitPrice: decimal.NewFromInt(1000), Years: 1},
	})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if _, err := svc.Commit(context.Background(), preview.BatchID); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, err := svc.Commit(context.Background(), preview.BatchID); err == nil {
		t.Fatalf("double commit accepted")
	}
}

func TestImportCommitUnknownBatch(t *testing.T) {
	svc := newTestImportService(newStubLedgerRepo())
	if _, err := svc.Commit(context.Background(), "no-such-batch"); err == nil {
		t.Fatalf("unknown batch accepted")
	}
}
