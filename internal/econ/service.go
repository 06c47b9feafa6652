// Package econ is the economy engine: accounts, energy regeneration, jobs
// and payouts, and the company registry. Every command runs its whole
// load -> validate -> mutate -> save cycle under one mutex, so cross-entity
// checks (name uniqueness, treasury moves) never race a stale snapshot.
package econ

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"hustle/internal/ledger"
)

type Service struct {
	store   ledger.Store
	catalog *Catalog
	log     *slog.Logger
	mu      sync.Mutex
}

func NewService(store ledger.Store, catalog *Catalog, logger *slog.Logger) *Service {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, catalog: catalog, log: logger}
}

// update runs one command against a fresh snapshot. The snapshot is saved
// whenever fn reports it dirty, even when fn also returns an error: that is
// what lets Work persist its wasted-trip charge.
func (s *Service) update(ctx context.Context, fn func(snap *ledger.Snapshot) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		s.log.Error("ledger load failed", "err", err)
		return errf(ErrStorage, "%v", err)
	}
	dirty, opErr := fn(snap)
	if dirty {
		if err := s.store.Save(ctx, snap); err != nil {
			s.log.Error("ledger save failed", "err", err)
			return errf(ErrStorage, "%v", err)
		}
	}
	return opErr
}

// ensureAccount lazily creates the account and applies energy regeneration,
// which every command does before reading or mutating account state.
func ensureAccount(snap *ledger.Snapshot, id string, now time.Time) *ledger.Account {
	a := snap.Accounts[id]
	if a == nil {
		a = &ledger.Account{ID: id, Energy: ledger.MaxEnergy, EnergyClock: now}
		snap.Accounts[id] = a
	}
	regenerate(a, now)
	return a
}

// regenerate is a pure function of the stored clock and now: whole elapsed
// intervals become energy, and the clock advances by exactly those intervals.
func regenerate(a *ledger.Account, now time.Time) {
	if a.EnergyClock.IsZero() {
		a.EnergyClock = now
		return
	}
	if !now.After(a.EnergyClock) {
		return
	}
	ticks := int64(now.Sub(a.EnergyClock) / RegenInterval)
	if ticks <= 0 {
		return
	}
	if ticks >= int64(ledger.MaxEnergy) || a.Energy+int(ticks) > ledger.MaxEnergy {
		a.Energy = ledger.MaxEnergy
	} else {
		a.Energy += int(ticks)
	}
	a.EnergyClock = a.EnergyClock.Add(time.Duration(ticks) * RegenInterval)
}

// energyWait estimates when the account will have at least need energy,
// counting from the stored clock so fractional tick progress is included.
func energyWait(a *ledger.Account, need int, now time.Time) time.Duration {
	deficit := need - a.Energy
	if deficit <= 0 {
		return 0
	}
	ready := a.EnergyClock.Add(time.Duration(deficit) * RegenInterval)
	wait := ready.Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}

func (s *Service) Balance(ctx context.Context, id string, now time.Time) (BalanceView, error) {
	var out BalanceView
	err := s.update(ctx, func(snap *ledger.Snapshot) (bool, error) {
		a := ensureAccount(snap, id, now)
		out = BalanceView{AccountID: a.ID, Balance: a.Balance}
		return true, nil
	})
	return out, err
}

func (s *Service) Profile(ctx context.Context, id string, now time.Time) (ProfileView, error) {
	var out ProfileView
	err := s.update(ctx, func(snap *ledger.Snapshot) (bool, error) {
		a := ensureAccount(snap, id, now)
		out = ProfileView{
			AccountID:  a.ID,
			Balance:    a.Balance,
			Energy:     a.Energy,
			MaxEnergy:  ledger.MaxEnergy,
			Job:        a.Job,
			LastWorkAt: a.LastWorkAt,
			Inventory:  append([]ledger.Item(nil), a.Inventory...),
		}
		if c := snap.Companies[a.CompanyID]; c != nil {
			out.Company = &CompanyRef{ID: c.ID, Name: c.Name}
		}
		return true, nil
	})
	return out, err
}

func (s *Service) Jobs() []Job {
	return s.catalog.Jobs()
}

func (s *Service) ApplyJob(ctx context.Context, id, jobName string, now time.Time) (ProfileView, error) {
	job, ok := s.catalog.Find(jobName)
	if !ok {
		return ProfileView{}, errf(ErrValidation, "unknown job %q", strings.TrimSpace(jobName))
	}
	var out ProfileView
	err := s.update(ctx, func(snap *ledger.Snapshot) (bool, error) {
		a := ensureAccount(snap, id, now)
		a.Job = job.Name
		out = ProfileView{AccountID: a.ID, Balance: a.Balance, Energy: a.Energy, MaxEnergy: ledger.MaxEnergy, Job: a.Job}
		return true, nil
	})
	return out, err
}

// Work pays one shift. The payout branch is resolved before anything is
// charged; once the cooldown and energy gates pass, the energy cost and the
// cooldown stamp are committed unconditionally. A company treasury that
// cannot cover the salary is the one documented exception to all-or-nothing:
// the trip is wasted, the charge stays.
func (s *Service) Work(ctx context.Context, id string, now time.Time) (WorkResult, error) {
	var out WorkResult
	err := s.update(ctx, func(snap *ledger.Snapshot) (bool, error) {
		a := ensureAccount(snap, id, now)
		if a.Job == "" {
			return true, errf(ErrPrecondition, "no job: apply for one first")
		}

		var company *ledger.Company
		if a.CompanyID != "" {
			if c := snap.Companies[a.CompanyID]; c != nil && strings.EqualFold(c.Name, a.Job) {
				company = c
			}
		}
		var salary int64
		if company != nil {
			salary = company.Salary
			if salary == 0 {
				salary = DefaultCompanySalary
			}
		} else {
			job, ok := s.catalog.Find(a.Job)
			if !ok {
				return true, errf(ErrPrecondition, "job %q is no longer offered", a.Job)
			}
			salary = job.Salary
		}

		if rem := CooldownRemaining(a.LastWorkAt, WorkCooldown, now); rem > 0 {
			return true, errf(ErrPrecondition, "worn out: work again in %s", rem.Round(time.Second))
		}
		if a.Energy < WorkEnergyCost {
			wait := energyWait(a, WorkEnergyCost, now)
			return true, errf(ErrPrecondition, "not enough energy (%d/%d needed), rested in about %s",
				a.Energy, WorkEnergyCost, wait.Round(time.Minute))
		}

		a.Energy -= WorkEnergyCost
		if now.After(a.LastWorkAt) {
			a.LastWorkAt = now
		}

		if company != nil {
			if company.Treasury < salary {
				return true, errf(ErrPrecondition,
					"%s cannot cover your %d salary; the trip still cost you", company.Name, salary)
			}
			company.Treasury -= salary
			a.Balance += salary
			out = WorkResult{Salary: salary, Source: PayoutCompany, Balance: a.Balance, Energy: a.Energy}
			return true, nil
		}

		a.Balance += salary
		var skim int64
		if c := snap.Companies[a.CompanyID]; c != nil {
			skim = salary * SkimBps / 10_000
			c.Treasury += skim
		}
		out = WorkResult{Salary: salary, Source: PayoutCatalog, Skim: skim, Balance: a.Balance, Energy: a.Energy}
		return true, nil
	})
	return out, err
}

func (s *Service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 {
		limit = 10
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, errf(ErrStorage, "%v", err)
	}
	accounts := make([]*ledger.Account, 0, len(snap.Accounts))
	for _, a := range snap.Accounts {
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].Balance != accounts[j].Balance {
			return accounts[i].Balance > accounts[j].Balance
		}
		return accounts[i].ID < accounts[j].ID
	})
	if len(accounts) > limit {
		accounts = accounts[:limit]
	}
	rows := make([]LeaderboardRow, 0, len(accounts))
	for i, a := range accounts {
		rows = append(rows, LeaderboardRow{Rank: i + 1, AccountID: a.ID, Balance: a.Balance, Job: a.Job})
	}
	return rows, nil
}
