package econ

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"hustle/internal/ledger"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *ledger.MemStore) {
	t.Helper()
	store := ledger.NewMemStore()
	return NewService(store, DefaultCatalog(), nil), store
}

func seed(t *testing.T, store *ledger.MemStore, mutate func(snap *ledger.Snapshot)) {
	t.Helper()
	ctx := context.Background()
	snap, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("seed load: %v", err)
	}
	mutate(snap)
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("seed save: %v", err)
	}
}

func snapshot(t *testing.T, store *ledger.MemStore) *ledger.Snapshot {
	t.Helper()
	snap, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return snap
}

func companyByName(t *testing.T, snap *ledger.Snapshot, name string) *ledger.Company {
	t.Helper()
	for _, c := range snap.Companies {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

func TestLazyAccountInit(t *testing.T) {
	svc, store := newTestService(t)
	out, err := svc.Balance(context.Background(), "alice", base)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if out.Balance != 0 {
		t.Fatalf("fresh balance = %d, want 0", out.Balance)
	}
	a := snapshot(t, store).Accounts["alice"]
	if a == nil {
		t.Fatalf("account not persisted")
	}
	if a.Energy != ledger.MaxEnergy {
		t.Fatalf("fresh energy = %d, want %d", a.Energy, ledger.MaxEnergy)
	}
	if !a.EnergyClock.Equal(base) {
		t.Fatalf("fresh clock = %v, want %v", a.EnergyClock, base)
	}
}

func TestRegenerationWholeTicksOnly(t *testing.T) {
	svc, store := newTestService(t)
	seed(t, store, func(snap *ledger.Snapshot) {
		snap.Accounts["alice"] = &ledger.Account{ID: "alice", Energy: 50, EnergyClock: base}
	})

	// 7 minutes is one whole tick plus 2 minutes of fractional progress.
	if _, err := svc.Balance(context.Background(), "alice", base.Add(7*time.Minute)); err != nil {
		t.Fatalf("balance: %v", err)
	}
	a := snapshot(t, store).Accounts["alice"]
	if a.Energy != 51 {
		t.Fatalf("energy = %d, want 51", a.Energy)
	}
	if want := base.Add(RegenInterval); !a.EnergyClock.Equal(want) {
		t.Fatalf("clock = %v, want %v (whole ticks only)", a.EnergyClock, want)
	}

	// 3 more minutes completes the second tick using the banked progress.
	if _, err := svc.Balance(context.Background(), "alice", base.Add(10*time.Minute)); err != nil {
		t.Fatalf("balance: %v", err)
	}
	a = snapshot(t, store).Accounts["alice"]
	if a.Energy != 52 {
		t.Fatalf("energy = %d, want 52", a.Energy)
	}
}

func TestRegenerationCapsAtMax(t *testing.T) {
	svc, store := newTestService(t)
	seed(t, store, func(snap *ledger.Snapshot) {
		snap.Accounts["alice"] = &ledger.Account{ID: "alice", Energy: 10, EnergyClock: base}
	})
	if _, err := svc.Balance(context.Background(), "alice", base.Add(48*time.Hour)); err != nil {
		t.Fatalf("balance: %v", err)
	}
	a := snapshot(t, store).Accounts["alice"]
	if a.Energy != ledger.MaxEnergy {
		t.Fatalf("energy = %d, want cap %d", a.Energy, ledger.MaxEnergy)
	}
}

func TestRegenerationIgnoresBackwardsClock(t *testing.T) {
	a := &ledger.Account{ID: "a", Energy: 40, EnergyClock: base}
	regenerate(a, base.Add(-time.Hour))
	if a.Energy != 40 || !a.EnergyClock.Equal(base) {
		t.Fatalf("backwards now mutated account: energy=%d clock=%v", a.Energy, a.EnergyClock)
	}
}

func TestApplyJobUnknown(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.ApplyJob(context.Background(), "alice", "Astronaut", base)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestApplyJobCanonicalizesName(t *testing.T) {
	svc, _ := newTestService(t)
	out, err := svc.ApplyJob(context.Background(), "alice", "  cAsHiEr ", base)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if out.Job != "Cashier" {
		t.Fatalf("job = %q, want canonical Cashier", out.Job)
	}
}

func TestWorkCatalogJob(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.ApplyJob(ctx, "alice", "Cashier", base); err != nil {
		t.Fatalf("apply: %v", err)
	}
	out, err := svc.Work(ctx, "alice", base)
	if err != nil {
		t.Fatalf("work: %v", err)
	}
	if out.Salary != 150 || out.Balance != 150 {
		t.Fatalf("salary=%d balance=%d, want 150/150", out.Salary, out.Balance)
	}
	if out.Energy != ledger.MaxEnergy-WorkEnergyCost {
		t.Fatalf("energy = %d, want %d", out.Energy, ledger.MaxEnergy-WorkEnergyCost)
	}
	if out.Source != PayoutCatalog {
		t.Fatalf("source = %s, want catalog", out.Source)
	}
}

func TestWorkRequiresJob(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Work(context.Background(), "alice", base)
	if !errors.Is(err, ErrPrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
}

func TestWorkCooldown(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.ApplyJob(ctx, "alice", "Cashier", base); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := svc.Work(ctx, "alice", base); err != nil {
		t.Fatalf("first work: %v", err)
	}
	if _, err := svc.Work(ctx, "alice", base.Add(WorkCooldown-time.Second)); !errors.Is(err, ErrPrecondition) {
		t.Fatalf("expected cooldown rejection, got %v", err)
	}
	if _, err := svc.Work(ctx, "alice", base.Add(WorkCooldown)); err != nil {
		t.Fatalf("work after cooldown: %v", err)
	}
}

func TestWorkInsufficientEnergy(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seed(t, store, func(snap *ledger.Snapshot) {
		snap.Accounts["alice"] = &ledger.Account{ID: "alice", Energy: 5, EnergyClock: base, Job: "Cashier"}
	})
	_, err := svc.Work(ctx, "alice", base)
	if !errors.Is(err, ErrPrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
	a := snapshot(t, store).Accounts["alice"]
	if a.Energy != 5 || a.Balance != 0 {
		t.Fatalf("failed work mutated account: energy=%d balance=%d", a.Energy, a.Balance)
	}
}

func TestWorkSkimsIntoCompanyTreasury(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seed(t, store, func(snap *ledger.Snapshot) {
		snap.Accounts["alice"] = &ledger.Account{ID: "alice", Energy: 100, EnergyClock: base, Job: "Cashier", CompanyID: "c1"}
		snap.Companies["c1"] = &ledger.Company{ID: "c1", Name: "Acme", OwnerID: "alice", Members: []string{"alice"}}
	})
	out, err := svc.Work(ctx, "alice", base)
	if err != nil {
		t.Fatalf("work: %v", err)
	}
	wantSkim := int64(150) * SkimBps / 10_000
	if out.Skim != wantSkim {
		t.Fatalf("skim = %d, want %d", out.Skim, wantSkim)
	}
	if out.Balance != 150 {
		t.Fatalf("balance = %d, want full salary 150", out.Balance)
	}
	c := companyByName(t, snapshot(t, store), "Acme")
	if c.Treasury != wantSkim {
		t.Fatalf("treasury = %d, want %d", c.Treasury, wantSkim)
	}
}

func TestWorkCompanyJobPaysFromTreasury(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seed(t, store, func(snap *ledger.Snapshot) {
		snap.Accounts["alice"] = &ledger.Account{ID: "alice", Energy: 100, EnergyClock: base, Job: "Cashier", CompanyID: "c1"}
		snap.Companies["c1"] = &ledger.Company{ID: "c1", Name: "cashier", OwnerID: "alice", Members: []string{"alice"}, Treasury: 1_000, Salary: 400}
	})
	out, err := svc.Work(ctx, "alice", base)
	if err != nil {
		t.Fatalf("work: %v", err)
	}
	if out.Source != PayoutCompany || out.Salary != 400 {
		t.Fatalf("source=%s salary=%d, want company/400", out.Source, out.Salary)
	}
	snap := snapshot(t, store)
	if c := companyByName(t, snap, "cashier"); c.Treasury != 600 {
		t.Fatalf("treasury = %d, want 600", c.Treasury)
	}
	if a := snap.Accounts["alice"]; a.Balance != 400 {
		t.Fatalf("balance = %d, want 400", a.Balance)
	}
}

func TestWorkCompanyTreasuryShortWastesTrip(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seed(t, store, func(snap *ledger.Snapshot) {
		snap.Accounts["alice"] = &ledger.Account{ID: "alice", Energy: 100, EnergyClock: base, Job: "Cashier", CompanyID: "c1"}
		snap.Companies["c1"] = &ledger.Company{ID: "c1", Name: "Cashier", OwnerID: "alice", Members: []string{"alice"}, Treasury: 10}
	})
	_, err := svc.Work(ctx, "alice", base)
	if !errors.Is(err, ErrPrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
	snap := snapshot(t, store)
	a := snap.Accounts["alice"]
	// The wasted-trip policy: energy and cooldown are spent, funds are not.
	if a.Energy != 100-WorkEnergyCost {
		t.Fatalf("energy = %d, want charged %d", a.Energy, 100-WorkEnergyCost)
	}
	if !a.LastWorkAt.Equal(base) {
		t.Fatalf("cooldown stamp = %v, want %v", a.LastWorkAt, base)
	}
	if a.Balance != 0 {
		t.Fatalf("balance = %d, want 0", a.Balance)
	}
	if c := companyByName(t, snap, "Cashier"); c.Treasury != 10 {
		t.Fatalf("treasury = %d, want untouched 10", c.Treasury)
	}
}

func TestCreateCompanyExactCost(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seed(t, store, func(snap *ledger.Snapshot) {
		snap.Accounts["alice"] = &ledger.Account{ID: "alice", Balance: 100_000, Energy: 100, EnergyClock: base}
	})
	out, err := svc.CreateCompany(ctx, "alice", "Acme", 100_000, base)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if out.Treasury != 0 || out.OwnerID != "alice" || len(out.Members) != 1 || out.Members[0] != "alice" {
		t.Fatalf("unexpected company view: %+v", out)
	}
	snap := snapshot(t, store)
	a := snap.Accounts["alice"]
	if a.Balance != 0 {
		t.Fatalf("balance = %d, want 0 after exact debit", a.Balance)
	}
	c := companyByName(t, snap, "Acme")
	if c == nil || a.CompanyID != c.ID {
		t.Fatalf("membership not recorded")
	}
}

func TestCreateCompanyNameConflictCaseInsensitive(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seed(t, store, func(snap *ledger.Snapshot) {
		snap.Accounts["alice"] = &ledger.Account{ID: "alice", Balance: 200_000, Energy: 100, EnergyClock: base}
		snap.Accounts["bob"] = &ledger.Account{ID: "bob", Balance: 200_000, Energy: 100, EnergyClock: base}
	})
	if _, err := svc.CreateCompany(ctx, "alice", "Acme", 100_000, base); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.CreateCompany(ctx, "bob", "ACME", 100_000, base)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if b := snapshot(t, store).Accounts["bob"]; b.Balance != 200_000 {
		t.Fatalf("failed create debited bob: balance = %d", b.Balance)
	}
}

func TestCreateCompanyInsufficientFunds(t *testing.T) {
	svc, store := newTestService(t)
	_, err := svc.CreateCompany(context.Background(), "alice", "Acme", 100_000, base)
	if !errors.Is(err, ErrPrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
	if len(snapshot(t, store).Companies) != 0 {
		t.Fatalf("company created despite failed debit")
	}
}

func TestCreateCompanyRejectsBadNames(t *testing.T) {
	svc, _ := newTestService(t)
	for _, name := range []string{"", "ab", "Acme Admin Corp", strings.Repeat("x", 40), "!!bang"} {
		if _, err := svc.CreateCompany(context.Background(), "alice", name, 0, base); !errors.Is(err, ErrValidation) {
			t.Fatalf("name %q: expected validation error, got %v", name, err)
		}
	}
}

func TestInviteAcceptFlow(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seed(t, store, func(snap *ledger.Snapshot) {
		snap.Accounts["alice"] = &ledger.Account{ID: "alice", Balance: 100_000, Energy: 100, EnergyClock: base}
	})
	if _, err := svc.CreateCompany(ctx, "alice", "Acme", 100_000, base); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Invite(ctx, "alice", "bob", base); err != nil {
		t.Fatalf("invite: %v", err)
	}
	if _, err := svc.Invite(ctx, "alice", "bob", base); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate invite: expected conflict, got %v", err)
	}
	out, err := svc.Accept(ctx, "bob", base)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if len(out.Members) != 2 || len(out.PendingInvites) != 0 {
		t.Fatalf("members=%v invites=%v after accept", out.Members, out.PendingInvites)
	}
	snap := snapshot(t, store)
	c := companyByName(t, snap, "Acme")
	if snap.Accounts["bob"].CompanyID != c.ID {
		t.Fatalf("bob's company reference not set")
	}
	if _, err := svc.Accept(ctx, "bob", base); !errors.Is(err, ErrConflict) {
		t.Fatalf("second accept: expected conflict, got %v", err)
	}
}

func TestInviteOnlyOwner(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seed(t, store, func(snap *ledger.Snapshot) {
		snap.Accounts["alice"] = &ledger.Account{ID: "alice", Balance: 100_000, Energy: 100, EnergyClock: base}
	})
	if _, err := svc.CreateCompany(ctx, "alice", "Acme", 100_000, base); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Invite(ctx, "alice", "bob", base); err != nil {
		t.Fatalf("invite: %v", err)
	}
	if _, err := svc.Accept(ctx, "bob", base); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := svc.Invite(ctx, "bob", "carol", base); !errors.Is(err, ErrPrecondition) {
		t.Fatalf("member invite: expected precondition error, got %v", err)
	}
}

func TestAcceptWithoutInvite(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Accept(context.Background(), "bob", base); !errors.Is(err, ErrPrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
}

func TestOwnerLeaveDisbands(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seed(t, store, func(snap *ledger.Snapshot) {
		snap.Accounts["alice"] = &ledger.Account{ID: "alice", Balance: 100_000, Energy: 100, EnergyClock: base}
	})
	if _, err := svc.CreateCompany(ctx, "alice", "Acme", 100_000, base); err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, id := range []string{"bob", "carol"} {
		if _, err := svc.Invite(ctx, "alice", id, base); err != nil {
			t.Fatalf("invite %s: %v", id, err)
		}
		if _, err := svc.Accept(ctx, id, base); err != nil {
			t.Fatalf("accept %s: %v", id, err)
		}
	}

	if err := svc.Leave(ctx, "alice", base); err != nil {
		t.Fatalf("owner leave: %v", err)
	}
	snap := snapshot(t, store)
	if len(snap.Companies) != 0 {
		t.Fatalf("company survived owner leave")
	}
	for _, id := range []string{"alice", "bob", "carol"} {
		if snap.Accounts[id].CompanyID != "" {
			t.Fatalf("%s still references the disbanded company", id)
		}
	}
}

func TestMemberLeaveKeepsCompany(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seed(t, store, func(snap *ledger.Snapshot) {
		snap.Accounts["alice"] = &ledger.Account{ID: "alice", Balance: 100_000, Energy: 100, EnergyClock: base}
	})
	if _, err := svc.CreateCompany(ctx, "alice", "Acme", 100_000, base); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Invite(ctx, "alice", "bob", base); err != nil {
		t.Fatalf("invite: %v", err)
	}
	if _, err := svc.Accept(ctx, "bob", base); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := svc.Leave(ctx, "bob", base); err != nil {
		t.Fatalf("member leave: %v", err)
	}
	snap := snapshot(t, store)
	c := companyByName(t, snap, "Acme")
	if c == nil || len(c.Members) != 1 || c.Members[0] != "alice" {
		t.Fatalf("company state after member leave: %+v", c)
	}
	if snap.Accounts["bob"].CompanyID != "" {
		t.Fatalf("bob still references the company")
	}
}

func TestDepositWithdrawConserveFunds(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seed(t, store, func(snap *ledger.Snapshot) {
		snap.Accounts["alice"] = &ledger.Account{ID: "alice", Balance: 150_000, Energy: 100, EnergyClock: base}
	})
	if _, err := svc.CreateCompany(ctx, "alice", "Acme", 100_000, base); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Deposit(ctx, "alice", 30_000, base); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	out, err := svc.Withdraw(ctx, "alice", 10_000, base)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if out.Treasury != 20_000 {
		t.Fatalf("treasury = %d, want 20000", out.Treasury)
	}
	if a := snapshot(t, store).Accounts["alice"]; a.Balance != 30_000 {
		t.Fatalf("balance = %d, want 30000", a.Balance)
	}
}

func TestWithdrawOverTreasuryRejected(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seed(t, store, func(snap *ledger.Snapshot) {
		snap.Accounts["alice"] = &ledger.Account{ID: "alice", Energy: 100, EnergyClock: base, CompanyID: "c1"}
		snap.Companies["c1"] = &ledger.Company{ID: "c1", Name: "Acme", OwnerID: "alice", Members: []string{"alice"}, Treasury: 500}
	})
	if _, err := svc.Withdraw(ctx, "alice", 501, base); !errors.Is(err, ErrPrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
	if c := companyByName(t, snapshot(t, store), "Acme"); c.Treasury != 500 {
		t.Fatalf("treasury = %d, want untouched 500", c.Treasury)
	}
}

func TestTreasuryAmountValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.Deposit(ctx, "alice", 0, base); !errors.Is(err, ErrValidation) {
		t.Fatalf("deposit 0: expected validation error, got %v", err)
	}
	if _, err := svc.Withdraw(ctx, "alice", -5, base); !errors.Is(err, ErrValidation) {
		t.Fatalf("withdraw -5: expected validation error, got %v", err)
	}
	if _, err := svc.SetSalary(ctx, "alice", 0, base); !errors.Is(err, ErrValidation) {
		t.Fatalf("salary 0: expected validation error, got %v", err)
	}
}

func TestSetSalaryOwnerOnly(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seed(t, store, func(snap *ledger.Snapshot) {
		snap.Accounts["alice"] = &ledger.Account{ID: "alice", Energy: 100, EnergyClock: base, CompanyID: "c1"}
		snap.Accounts["bob"] = &ledger.Account{ID: "bob", Energy: 100, EnergyClock: base, CompanyID: "c1"}
		snap.Companies["c1"] = &ledger.Company{ID: "c1", Name: "Acme", OwnerID: "alice", Members: []string{"alice", "bob"}}
	})
	if _, err := svc.SetSalary(ctx, "bob", 500, base); !errors.Is(err, ErrPrecondition) {
		t.Fatalf("member set-salary: expected precondition error, got %v", err)
	}
	out, err := svc.SetSalary(ctx, "alice", 500, base)
	if err != nil {
		t.Fatalf("owner set-salary: %v", err)
	}
	if out.Salary != 500 {
		t.Fatalf("salary = %d, want 500", out.Salary)
	}
}

func TestLeaderboards(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seed(t, store, func(snap *ledger.Snapshot) {
		snap.Accounts["alice"] = &ledger.Account{ID: "alice", Balance: 300, Energy: 100, EnergyClock: base, Job: "Cashier", CompanyID: "c1"}
		snap.Accounts["bob"] = &ledger.Account{ID: "bob", Balance: 900, Energy: 100, EnergyClock: base, CompanyID: "c2"}
		snap.Accounts["carol"] = &ledger.Account{ID: "carol", Balance: 900, Energy: 100, EnergyClock: base}
		snap.Companies["c1"] = &ledger.Company{ID: "c1", Name: "Acme", OwnerID: "alice", Members: []string{"alice"}, Treasury: 50}
		snap.Companies["c2"] = &ledger.Company{ID: "c2", Name: "Borg", OwnerID: "bob", Members: []string{"bob"}, Treasury: 800}
	})

	rows, err := svc.Leaderboard(ctx, 2)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(rows) != 2 || rows[0].AccountID != "bob" || rows[1].AccountID != "carol" {
		t.Fatalf("unexpected rows: %+v", rows)
	}

	crows, err := svc.CompanyLeaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("company leaderboard: %v", err)
	}
	if len(crows) != 2 || crows[0].Name != "Borg" || crows[0].Rank != 1 {
		t.Fatalf("unexpected company rows: %+v", crows)
	}
}

func TestStorageFailureSurfacesAsStorageError(t *testing.T) {
	svc, store := newTestService(t)
	store.FailSaves = true
	_, err := svc.Balance(context.Background(), "alice", base)
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}
