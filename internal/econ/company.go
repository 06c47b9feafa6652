package econ

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"hustle/internal/ledger"
)

// CreateCompany debits cost and registers the company as one atomic unit:
// every check runs before the first field changes.
func (s *Service) CreateCompany(ctx context.Context, id, name string, cost int64, now time.Time) (CompanyView, error) {
	name = strings.TrimSpace(name)
	if err := validateCompanyName(name); err != nil {
		return CompanyView{}, err
	}
	if cost < 0 {
		return CompanyView{}, errf(ErrValidation, "cost must be >= 0")
	}
	var out CompanyView
	err := s.update(ctx, func(snap *ledger.Snapshot) (bool, error) {
		a := ensureAccount(snap, id, now)
		if a.CompanyID != "" {
			return true, errf(ErrPrecondition, "you already belong to a company")
		}
		for _, c := range snap.Companies {
			if strings.EqualFold(c.Name, name) {
				return true, errf(ErrConflict, "a company named %q already exists", c.Name)
			}
		}
		if a.Balance < cost {
			return true, errf(ErrPrecondition, "founding costs %d, you have %d", cost, a.Balance)
		}

		a.Balance -= cost
		c := &ledger.Company{
			ID:      uuid.NewString(),
			Name:    name,
			OwnerID: id,
			Members: []string{id},
		}
		snap.Companies[c.ID] = c
		a.CompanyID = c.ID
		out = companyView(c)
		return true, nil
	})
	return out, err
}

func (s *Service) Invite(ctx context.Context, ownerID, targetID string, now time.Time) (CompanyView, error) {
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return CompanyView{}, errf(ErrValidation, "target account id is required")
	}
	var out CompanyView
	err := s.update(ctx, func(snap *ledger.Snapshot) (bool, error) {
		owner := ensureAccount(snap, ownerID, now)
		c := snap.Companies[owner.CompanyID]
		if c == nil || c.OwnerID != ownerID {
			return true, errf(ErrPrecondition, "only the company owner can invite")
		}
		target := ensureAccount(snap, targetID, now)
		if target.CompanyID != "" {
			return true, errf(ErrConflict, "%s already belongs to a company", targetID)
		}
		if c.HasInvite(targetID) {
			return true, errf(ErrConflict, "%s is already invited", targetID)
		}
		c.PendingInvites = append(c.PendingInvites, targetID)
		out = companyView(c)
		return true, nil
	})
	return out, err
}

// Accept joins the inviting company. With invites from several companies the
// first by name wins, which keeps the scan deterministic.
func (s *Service) Accept(ctx context.Context, id string, now time.Time) (CompanyView, error) {
	var out CompanyView
	err := s.update(ctx, func(snap *ledger.Snapshot) (bool, error) {
		a := ensureAccount(snap, id, now)
		if a.CompanyID != "" {
			return true, errf(ErrConflict, "you already belong to a company")
		}
		var invited []*ledger.Company
		for _, c := range snap.Companies {
			if c.HasInvite(id) {
				invited = append(invited, c)
			}
		}
		if len(invited) == 0 {
			return true, errf(ErrPrecondition, "no pending invite")
		}
		sort.Slice(invited, func(i, j int) bool { return invited[i].Name < invited[j].Name })
		c := invited[0]

		invites := c.PendingInvites[:0]
		for _, inv := range c.PendingInvites {
			if inv != id {
				invites = append(invites, inv)
			}
		}
		c.PendingInvites = invites
		c.Members = append(c.Members, id)
		sort.Strings(c.Members)
		a.CompanyID = c.ID
		out = companyView(c)
		return true, nil
	})
	return out, err
}

// Leave removes the caller from their company. When the owner leaves, the
// company disbands: one cascade clears every member and drops the record.
func (s *Service) Leave(ctx context.Context, id string, now time.Time) error {
	return s.update(ctx, func(snap *ledger.Snapshot) (bool, error) {
		a := ensureAccount(snap, id, now)
		c := snap.Companies[a.CompanyID]
		if c == nil {
			return true, errf(ErrPrecondition, "you are not in a company")
		}
		if c.OwnerID == id {
			for _, m := range c.Members {
				if member := snap.Accounts[m]; member != nil {
					member.CompanyID = ""
				}
			}
			delete(snap.Companies, c.ID)
			return true, nil
		}
		members := c.Members[:0]
		for _, m := range c.Members {
			if m != id {
				members = append(members, m)
			}
		}
		c.Members = members
		a.CompanyID = ""
		return true, nil
	})
}

func (s *Service) Deposit(ctx context.Context, id string, amount int64, now time.Time) (CompanyView, error) {
	if amount <= 0 {
		return CompanyView{}, errf(ErrValidation, "amount must be > 0")
	}
	var out CompanyView
	err := s.update(ctx, func(snap *ledger.Snapshot) (bool, error) {
		a := ensureAccount(snap, id, now)
		c := snap.Companies[a.CompanyID]
		if c == nil {
			return true, errf(ErrPrecondition, "you are not in a company")
		}
		if a.Balance < amount {
			return true, errf(ErrPrecondition, "you only have %d", a.Balance)
		}
		a.Balance -= amount
		c.Treasury += amount
		out = companyView(c)
		return true, nil
	})
	return out, err
}

func (s *Service) Withdraw(ctx context.Context, id string, amount int64, now time.Time) (CompanyView, error) {
	if amount <= 0 {
		return CompanyView{}, errf(ErrValidation, "amount must be > 0")
	}
	var out CompanyView
	err := s.update(ctx, func(snap *ledger.Snapshot) (bool, error) {
		a := ensureAccount(snap, id, now)
		c := snap.Companies[a.CompanyID]
		if c == nil {
			return true, errf(ErrPrecondition, "you are not in a company")
		}
		if c.OwnerID != id {
			return true, errf(ErrPrecondition, "only the company owner can withdraw")
		}
		if c.Treasury < amount {
			return true, errf(ErrPrecondition, "treasury only holds %d", c.Treasury)
		}
		c.Treasury -= amount
		a.Balance += amount
		out = companyView(c)
		return true, nil
	})
	return out, err
}

func (s *Service) SetSalary(ctx context.Context, ownerID string, amount int64, now time.Time) (CompanyView, error) {
	if amount <= 0 {
		return CompanyView{}, errf(ErrValidation, "salary must be > 0")
	}
	var out CompanyView
	err := s.update(ctx, func(snap *ledger.Snapshot) (bool, error) {
		a := ensureAccount(snap, ownerID, now)
		c := snap.Companies[a.CompanyID]
		if c == nil {
			return true, errf(ErrPrecondition, "you are not in a company")
		}
		if c.OwnerID != ownerID {
			return true, errf(ErrPrecondition, "only the company owner can set the salary")
		}
		c.Salary = amount
		out = companyView(c)
		return true, nil
	})
	return out, err
}

func (s *Service) CompanyInfo(ctx context.Context, id string, now time.Time) (CompanyView, error) {
	var out CompanyView
	err := s.update(ctx, func(snap *ledger.Snapshot) (bool, error) {
		a := ensureAccount(snap, id, now)
		c := snap.Companies[a.CompanyID]
		if c == nil {
			return true, errf(ErrPrecondition, "you are not in a company")
		}
		out = companyView(c)
		return true, nil
	})
	return out, err
}

func (s *Service) CompanyLeaderboard(ctx context.Context, limit int) ([]CompanyLeaderboardRow, error) {
	if limit <= 0 {
		limit = 10
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, errf(ErrStorage, "%v", err)
	}
	companies := make([]*ledger.Company, 0, len(snap.Companies))
	for _, c := range snap.Companies {
		companies = append(companies, c)
	}
	sort.Slice(companies, func(i, j int) bool {
		if companies[i].Treasury != companies[j].Treasury {
			return companies[i].Treasury > companies[j].Treasury
		}
		return companies[i].Name < companies[j].Name
	})
	if len(companies) > limit {
		companies = companies[:limit]
	}
	rows := make([]CompanyLeaderboardRow, 0, len(companies))
	for i, c := range companies {
		rows = append(rows, CompanyLeaderboardRow{Rank: i + 1, Name: c.Name, Treasury: c.Treasury, Members: len(c.Members)})
	}
	return rows, nil
}

func companyView(c *ledger.Company) CompanyView {
	return CompanyView{
		ID:             c.ID,
		Name:           c.Name,
		OwnerID:        c.OwnerID,
		Members:        append([]string(nil), c.Members...),
		Treasury:       c.Treasury,
		PendingInvites: append([]string(nil), c.PendingInvites...),
		Salary:         c.Salary,
	}
}
