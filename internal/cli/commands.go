package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gdg-garage/mess-billing/internal/billing"
	"github.com/gdg-garage/mess-billing/internal/calendar"
	"github.com/gdg-garage/mess-billing/internal/models"
)

func newAutoMarkCmd(e *env) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "automark",
		Short: "Mark every member as having had the day's drinks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := result(e.svc.AutoMarkDrinks(cmd.Context(), calendar.Hints{ClientDate: date}))
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(e.out, res)
			}
			fmt.Fprintf(e.out, "Marked %d drink(s) on %s (%d drinks on the menu, day from %s)\n",
				res.MarkedCount, res.Day, res.Drinks, res.Source)
			if res.Warning != "" {
				fmt.Fprintf(e.out, "Warning: %s\n", res.Warning)
			}
			for _, f := range res.Failures {
				fmt.Fprintf(e.out, "Failed for %s (%d): %s\n", f.Name, f.UserID, f.Message)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Day to mark, e.g. 2025-03-09 (default: today)")
	return cmd
}

func newBillsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bills",
		Short: "Generate and inspect monthly bills",
	}
	cmd.AddCommand(newBillsGenerateCmd(e), newBillsListCmd(e))
	return cmd
}

func newBillsGenerateCmd(e *env) *cobra.Command {
	var (
		period string
		date   string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Recompute every member's bill for a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			run, err := result(e.svc.GenerateBills(cmd.Context(), calendar.ParsePeriod(period), calendar.Hints{ClientDate: date}))
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(e.out, run)
			}
			fmt.Fprintf(e.out, "Bills for %s (%s): %d created, %d updated, %d skipped\n",
				run.Period.Describe(), run.Window, run.Created, run.Updated, run.Skipped)
			for _, f := range run.Failures {
				fmt.Fprintf(e.out, "Failed for %s (%d): %s\n", f.Name, f.UserID, f.Message)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&period, "period", "current", "current or previous")
	cmd.Flags().StringVar(&date, "date", "", "Day the period is relative to (default: today)")
	return cmd
}

func newBillsListCmd(e *env) *cobra.Command {
	var (
		userID uint
		status string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bills, for one member or everyone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var bills []models.Bill
			if userID != 0 {
				ub, err := result(e.svc.ListBillsForUser(cmd.Context(), userID, billing.ParseStatus(status)))
				if err != nil {
					return err
				}
				bills = ub.Bills
			} else {
				all, err := result(e.svc.ListAllBills(cmd.Context()))
				if err != nil {
					return err
				}
				bills = all
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(e.out, bills)
			}

			tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tMEMBER\tMONTH\tAMOUNT\tPAID")
			for _, b := range bills {
				fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%t\n",
					b.ID, b.UserID, b.PeriodAnchor.UTC().Format("2006-01"), b.Amount.StringFixed(2), b.Paid)
			}
			s := billing.Summarize(bills)
			fmt.Fprintf(tw, "\t\tTOTAL\t%s\t%d unpaid\n", s.Total.StringFixed(2), s.UnpaidCount)
			return tw.Flush()
		},
	}
	cmd.Flags().UintVar(&userID, "user", 0, "Member ID (default: all members)")
	cmd.Flags().StringVar(&status, "status", "all", "all, paid or unpaid (with --user)")
	return cmd
}

func newUsersCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage members",
	}

	var (
		name  string
		email string
		admin bool
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a member without a Discord login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			role := models.RoleUser
			if admin {
				role = models.RoleAdmin
			}
			u, err := result(e.svc.AddMember(cmd.Context(), name, email, role))
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(e.out, u)
			}
			fmt.Fprintf(e.out, "Added %s (%d) as %s\n", u.FullName, u.ID, u.Role)
			return nil
		},
	}
	add.Flags().StringVar(&name, "name", "", "Full name")
	add.Flags().StringVar(&email, "email", "", "Email address")
	add.Flags().BoolVar(&admin, "admin", false, "Grant the Admin role")
	_ = add.MarkFlagRequired("name")

	list := &cobra.Command{
		Use:   "list",
		Short: "List members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			users, err := result(e.svc.Members(cmd.Context()))
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(e.out, users)
			}
			tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tROLE\tEMAIL")
			for _, u := range users {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, u.FullName, u.Role, u.Email)
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}

func newTokenCmd(e *env) *cobra.Command {
	var userID uint
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a session token for a member, for scripted API calls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(e.cfg.JWTSecret) == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}
			u, err := result(e.svc.Member(cmd.Context(), userID))
			if err != nil {
				return err
			}
			token, err := e.authHandler().GenerateToken(u.ID, u.Role)
			if err != nil {
				return err
			}
			fmt.Fprintln(e.out, token)
			return nil
		},
	}
	cmd.Flags().UintVar(&userID, "user", 0, "Member ID")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
