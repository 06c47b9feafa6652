package econ

import (
	"time"

	"hustle/internal/ledger"
)

type PayoutSource string

const (
	PayoutCatalog PayoutSource = "catalog"
	PayoutCompany PayoutSource = "company"
)

type BalanceView struct {
	AccountID string `json:"account_id"`
	Balance   int64  `json:"balance"`
}

type ProfileView struct {
	AccountID  string        `json:"account_id"`
	Balance    int64         `json:"balance"`
	Energy     int           `json:"energy"`
	MaxEnergy  int           `json:"max_energy"`
	Job        string        `json:"job,omitempty"`
	Company    *CompanyRef   `json:"company,omitempty"`
	LastWorkAt time.Time     `json:"last_work_at,omitempty"`
	Inventory  []ledger.Item `json:"inventory,omitempty"`
}

type CompanyRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type WorkResult struct {
	Salary  int64        `json:"salary"`
	Source  PayoutSource `json:"source"`
	Skim    int64        `json:"skim,omitempty"`
	Balance int64        `json:"balance"`
	Energy  int          `json:"energy"`
}

type CompanyView struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	OwnerID        string   `json:"owner_id"`
	Members        []string `json:"members"`
	Treasury       int64    `json:"treasury"`
	PendingInvites []string `json:"pending_invites,omitempty"`
	Salary         int64    `json:"salary,omitempty"`
}

type LeaderboardRow struct {
	Rank      int    `json:"rank"`
	AccountID string `json:"account_id"`
	Balance   int64  `json:"balance"`
	Job       string `json:"job,omitempty"`
}

type CompanyLeaderboardRow struct {
	Rank     int    `json:"rank"`
	Name     string `json:"name"`
	Treasury int64  `json:"treasury"`
	Members  int    `json:"members"`
}
