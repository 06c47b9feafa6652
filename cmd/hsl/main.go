package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	cl "hustle/internal/cli"
	"hustle/internal/config"
)

func main() {
	cfg := config.LoadCLIFromEnv()
	apiBase := cfg.APIBaseURL

	root := &cobra.Command{
		Use:          "hsl",
		Short:        "Hustle economy CLI client",
		SilenceUsage: true,
	}

	root.AddCommand(
		newUseCmd(&apiBase),
		newLogoutCmd(),
		newBalanceCmd(&apiBase),
		newProfileCmd(&apiBase),
		newJobsCmd(&apiBase),
		newApplyCmd(&apiBase),
		newWorkCmd(&apiBase),
		newLeaderboardCmd(&apiBase),
		newCompanyCmd(&apiBase),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(apiBase *string) (*cl.Client, error) {
	session, err := cl.LoadSession()
	if err != nil {
		return nil, err
	}
	base := strings.TrimRight(strings.TrimSpace(*apiBase), "/")
	if session.APIBaseURL != "" {
		base = session.APIBaseURL
	}
	return cl.NewClient(base, session.AccountID), nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

func newUseCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "use <account-id>",
		Short: "Select the account the CLI acts as",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if id == "" {
				return fmt.Errorf("account id is required")
			}
			if err := cl.SaveSession(cl.Session{AccountID: id, APIBaseURL: *apiBase}); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Acting as %s.", id))
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the selected account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cl.ClearSession(); err != nil {
				return err
			}
			printInfo("Session cleared.")
			return nil
		},
	}
}

func newBalanceCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show your balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(apiBase)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := client.Balance(ctx)
			if err != nil {
				return err
			}
			printInfo(fmt.Sprintf("Balance: %s", formatMoney(out.Balance)))
			return nil
		},
	}
}

func newProfileCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(apiBase)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := client.Profile(ctx)
			if err != nil {
				return err
			}
			renderProfile(out)
			return nil
		},
	}
}

func newJobsCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "List the job catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(apiBase)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			jobs, err := client.Jobs(ctx)
			if err != nil {
				return err
			}
			renderJobs(jobs)
			return nil
		},
	}
}

func newApplyCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <job>",
		Short: "Apply for a catalog job",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(apiBase)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := client.ApplyJob(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("You are now a %s.", out.Job))
			return nil
		},
	}
}

func newWorkCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "work",
		Short: "Work a shift",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(apiBase)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := client.Work(ctx)
			if err != nil {
				return err
			}
			renderWorkResult(out)
			return nil
		},
	}
}

func newLeaderboardCmd(apiBase *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Richest accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(apiBase)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			rows, err := client.Leaderboard(ctx, limit)
			if err != nil {
				return err
			}
			renderLeaderboard(rows)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of rows")
	return cmd
}

func newCompanyCmd(apiBase *string) *cobra.Command {
	company := &cobra.Command{
		Use:   "company",
		Short: "Company commands",
	}

	company.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Found a company",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(apiBase)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := client.CreateCompany(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Founded %s.", out.Name))
			return nil
		},
	})

	company.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Show your company",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(apiBase)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := client.CompanyInfo(ctx)
			if err != nil {
				return err
			}
			renderCompany(out)
			return nil
		},
	})

	company.AddCommand(&cobra.Command{
		Use:   "invite <account-id>",
		Short: "Invite an account (owner only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(apiBase)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := client.Invite(ctx, args[0])
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Invited %s to %s.", args[0], out.Name))
			return nil
		},
	})

	company.AddCommand(&cobra.Command{
		Use:   "accept",
		Short: "Accept a pending invite",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(apiBase)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			out, err := client.Accept(ctx)
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Welcome to %s.", out.Name))
			return nil
		},
	})

	company.AddCommand(&cobra.Command{
		Use:   "leave",
		Short: "Leave your company (disbands it if you own it)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(apiBase)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			if err := client.LeaveCompany(ctx); err != nil {
				return err
			}
			printInfo("You left the company.")
			return nil
		},
	})

	company.AddCommand(newTreasuryCmd(apiBase, "deposit", "Move funds into the treasury",
		func(ctx context.Context, client *cl.Client, amount int64) error {
			out, err := client.Deposit(ctx, amount)
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Treasury now holds %s.", formatMoney(out.Treasury)))
			return nil
		}))

	company.AddCommand(newTreasuryCmd(apiBase, "withdraw", "Move treasury funds to your balance (owner only)",
		func(ctx context.Context, client *cl.Client, amount int64) error {
			out, err := client.Withdraw(ctx, amount)
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Treasury now holds %s.", formatMoney(out.Treasury)))
			return nil
		}))

	company.AddCommand(newTreasuryCmd(apiBase, "salary", "Set the company-job salary (owner only)",
		func(ctx context.Context, client *cl.Client, amount int64) error {
			out, err := client.SetSalary(ctx, amount)
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Company salary set to %s.", formatMoney(out.Salary)))
			return nil
		}))

	var limit int
	lb := &cobra.Command{
		Use:   "leaderboard",
		Short: "Richest company treasuries",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(apiBase)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			rows, err := client.CompanyLeaderboard(ctx, limit)
			if err != nil {
				return err
			}
			renderCompanyLeaderboard(rows)
			return nil
		},
	}
	lb.Flags().IntVar(&limit, "limit", 10, "number of rows")
	company.AddCommand(lb)

	return company
}

func newTreasuryCmd(apiBase *string, use, short string, run func(context.Context, *cl.Client, int64) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <amount>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil {
				return fmt.Errorf("amount must be a whole number")
			}
			client, err := newClient(apiBase)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()
			return run(ctx, client, amount)
		},
	}
}
