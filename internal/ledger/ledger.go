// Package ledger owns the persisted economy state: every account, every
// company, and nothing else. Engines mutate a Snapshot in memory and hand it
// back to a Store; the Store decides how the bytes hit disk.
package ledger

import (
	"context"
	"errors"
	"sort"
	"time"
)

const (
	MaxEnergy = 100

	// DocVersion is the on-disk document version. Records written before a
	// field existed are repaired once, at load time, never on access.
	DocVersion = 1
)

var ErrUnreadable = errors.New("ledger: primary and backup unreadable")

type Account struct {
	ID          string    `json:"id"`
	Balance     int64     `json:"balance"`
	Energy      int       `json:"energy"`
	EnergyClock time.Time `json:"energy_clock"`
	LastWorkAt  time.Time `json:"last_work_at"`
	Job         string    `json:"job,omitempty"`
	CompanyID   string    `json:"company_id,omitempty"`
	Inventory   []Item    `json:"inventory,omitempty"`
}

type Item struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	GrantedAt time.Time `json:"granted_at"`
}

type Company struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	OwnerID        string   `json:"owner_id"`
	Members        []string `json:"members"`
	Treasury       int64    `json:"treasury"`
	PendingInvites []string `json:"pending_invites,omitempty"`
	// Salary overrides the company-job payout; 0 means no override.
	Salary int64 `json:"salary,omitempty"`
}

func (c *Company) HasMember(id string) bool {
	for _, m := range c.Members {
		if m == id {
			return true
		}
	}
	return false
}

func (c *Company) HasInvite(id string) bool {
	for _, m := range c.PendingInvites {
		if m == id {
			return true
		}
	}
	return false
}

type Snapshot struct {
	Accounts  map[string]*Account
	Companies map[string]*Company
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		Accounts:  map[string]*Account{},
		Companies: map[string]*Company{},
	}
}

func (s *Snapshot) Clone() *Snapshot {
	out := NewSnapshot()
	for id, a := range s.Accounts {
		ac := *a
		ac.Inventory = append([]Item(nil), a.Inventory...)
		out.Accounts[id] = &ac
	}
	for id, c := range s.Companies {
		cc := *c
		cc.Members = append([]string(nil), c.Members...)
		cc.PendingInvites = append([]string(nil), c.PendingInvites...)
		out.Companies[id] = &cc
	}
	return out
}

// Store is the persistence seam. The engine never touches files directly,
// so tests can run the whole command surface against MemStore.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
}

// upgrade repairs records that predate a field or were damaged by an
// interrupted write, restoring the cross-entity invariants: energy within
// bounds, owners in their member lists, invites disjoint from members, no
// dangling company references and no empty companies.
func upgrade(s *Snapshot, now time.Time) {
	for id, c := range s.Companies {
		if c == nil {
			delete(s.Companies, id)
			continue
		}
		c.ID = id
		if c.OwnerID != "" && !c.HasMember(c.OwnerID) {
			c.Members = append(c.Members, c.OwnerID)
		}
		if len(c.Members) == 0 {
			delete(s.Companies, id)
			continue
		}
		if c.Treasury < 0 {
			c.Treasury = 0
		}
		invites := c.PendingInvites[:0]
		for _, inv := range c.PendingInvites {
			if !c.HasMember(inv) {
				invites = append(invites, inv)
			}
		}
		c.PendingInvites = invites
	}

	for id, a := range s.Accounts {
		if a == nil {
			delete(s.Accounts, id)
			continue
		}
		a.ID = id
		if a.Balance < 0 {
			a.Balance = 0
		}
		if a.Energy < 0 {
			a.Energy = 0
		}
		if a.Energy > MaxEnergy {
			a.Energy = MaxEnergy
		}
		if a.EnergyClock.IsZero() {
			a.Energy = MaxEnergy
			a.EnergyClock = now
		}
		if a.CompanyID != "" {
			c := s.Companies[a.CompanyID]
			if c == nil || !c.HasMember(id) {
				a.CompanyID = ""
			}
		}
	}

	// Membership entries pointing at accounts that claim a different
	// company (or none) lose; the account record is authoritative for its
	// own id. If the owner fell out, the first remaining member inherits.
	for cid, c := range s.Companies {
		members := c.Members[:0]
		for _, m := range c.Members {
			if a := s.Accounts[m]; a != nil && a.CompanyID != cid {
				continue
			}
			members = append(members, m)
		}
		c.Members = members
		sort.Strings(c.Members)
		if len(c.Members) == 0 {
			delete(s.Companies, cid)
			continue
		}
		if !c.HasMember(c.OwnerID) {
			c.OwnerID = c.Members[0]
		}
	}
}
