package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"hustle/internal/econ"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	warn    = color.New(color.FgYellow, color.Bold)
	neutral = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func formatMoney(v int64) string {
	raw := fmt.Sprintf("%d", v)
	var b strings.Builder
	for i, r := range raw {
		if i > 0 && (len(raw)-i)%3 == 0 && r != '-' {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return "$" + b.String()
}

func renderProfile(p econ.ProfileView) {
	accent.Printf("%s\n", p.AccountID)
	neutral.Printf("  Balance  %s\n", formatMoney(p.Balance))
	neutral.Printf("  Energy   %d/%d\n", p.Energy, p.MaxEnergy)
	job := p.Job
	if job == "" {
		job = "(none)"
	}
	neutral.Printf("  Job      %s\n", job)
	if p.Company != nil {
		neutral.Printf("  Company  %s\n", p.Company.Name)
	}
	if len(p.Inventory) > 0 {
		neutral.Printf("  Items    %d\n", len(p.Inventory))
	}
}

func renderJobs(jobs []econ.Job) {
	accent.Println("Job catalog")
	for _, j := range jobs {
		neutral.Printf("  %-14s %s per shift\n", j.Name, formatMoney(j.Salary))
	}
}

func renderWorkResult(out econ.WorkResult) {
	switch out.Source {
	case econ.PayoutCompany:
		printSuccess(fmt.Sprintf("Shift done. %s paid from the company treasury.", formatMoney(out.Salary)))
	default:
		printSuccess(fmt.Sprintf("Shift done. You earned %s.", formatMoney(out.Salary)))
		if out.Skim > 0 {
			printInfo(fmt.Sprintf("Your company skimmed %s into its treasury.", formatMoney(out.Skim)))
		}
	}
	neutral.Printf("  Balance %s, energy %d left\n", formatMoney(out.Balance), out.Energy)
}

func renderCompany(c econ.CompanyView) {
	accent.Printf("%s\n", c.Name)
	neutral.Printf("  Owner     %s\n", c.OwnerID)
	neutral.Printf("  Treasury  %s\n", formatMoney(c.Treasury))
	neutral.Printf("  Members   %s\n", strings.Join(c.Members, ", "))
	if len(c.PendingInvites) > 0 {
		neutral.Printf("  Invited   %s\n", strings.Join(c.PendingInvites, ", "))
	}
	if c.Salary > 0 {
		neutral.Printf("  Salary    %s per shift\n", formatMoney(c.Salary))
	}
}

func renderLeaderboard(rows []econ.LeaderboardRow) {
	if len(rows) == 0 {
		printWarn("No accounts yet.")
		return
	}
	accent.Println("Leaderboard")
	for _, row := range rows {
		job := row.Job
		if job == "" {
			job = "-"
		}
		neutral.Printf("  %2d. %-24s %12s  %s\n", row.Rank, row.AccountID, formatMoney(row.Balance), job)
	}
}

func renderCompanyLeaderboard(rows []econ.CompanyLeaderboardRow) {
	if len(rows) == 0 {
		printWarn("No companies yet.")
		return
	}
	accent.Println("Company leaderboard")
	for _, row := range rows {
		neutral.Printf("  %2d. %-24s %12s  %d members\n", row.Rank, row.Name, formatMoney(row.Treasury), row.Members)
	}
}
