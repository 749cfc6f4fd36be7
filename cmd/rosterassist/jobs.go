package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"rosterassist/internal/export"

	"github.com/spf13/cobra"
)

var ownerCmd = &cobra.Command{
	Use:   "owner",
	Short: "Create the business owner account, or print it if it exists",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")

		s, err := open(nil)
		if err != nil {
			return err
		}
		defer s.Close()

		owner, err := s.Users.EnsureOwner(name, email)
		if err != nil {
			return err
		}
		fmt.Printf("Owner %s <%s> has id %d\n", owner.Name, owner.Email, owner.ID)
		return nil
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the dated roster of a template for one week",
	Long: `Generate creates the draft roster for the week starting on --week,
which must be a Monday. Overnight shifts end on the following day.

Example:
  rosterassist generate --as 1 --template 3 --week 2026-03-02`,
	RunE: func(cmd *cobra.Command, args []string) error {
		templateID, _ := cmd.Flags().GetUint("template")
		week, _ := cmd.Flags().GetString("week")

		s, err := open(nil)
		if err != nil {
			return err
		}
		defer s.Close()

		actor, err := s.actor(cmd)
		if err != nil {
			return err
		}
		weekStart, err := s.parseDate(week, "week")
		if err != nil {
			return err
		}

		roster, err := s.Generator.GenerateForOwner(actor, templateID, weekStart)
		if err != nil {
			return err
		}
		fmt.Printf("Generated roster %d %q with %d shifts\n", roster.ID, roster.Name, len(roster.Shifts))
		return nil
	},
}

var finalizeCmd = &cobra.Command{
	Use:   "finalize",
	Short: "Finalize a roster and queue the staff notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		rosterID, _ := cmd.Flags().GetUint("roster")

		s, err := open(nil)
		if err != nil {
			return err
		}
		defer s.Close()

		actor, err := s.actor(cmd)
		if err != nil {
			return err
		}

		finalized, err := s.Finalizer.Finalize(actor, rosterID)
		if err != nil {
			return err
		}
		if !finalized {
			fmt.Printf("Roster %d was already finalized\n", rosterID)
			return nil
		}
		fmt.Printf("Roster %d finalized\n", rosterID)
		return nil
	},
}

var wageReportCmd = &cobra.Command{
	Use:   "wage-report",
	Short: "Export worked hours and wages for a date range",
	Long: `Wage-report totals completed clock entries per staff member between
--from and --to, both inclusive, and writes them as CSV or XLSX.

Examples:
  rosterassist wage-report --as 1 --from 2026-03-01 --to 2026-03-31
  rosterassist wage-report --as 1 --from 2026-03-01 --to 2026-03-31 --format xlsx --out march.xlsx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")
		users, _ := cmd.Flags().GetString("users")

		format = strings.ToLower(format)
		if format != "csv" && format != "xlsx" {
			return fmt.Errorf("--format must be csv or xlsx")
		}
		userIDs, err := parseUserIDs(users)
		if err != nil {
			return err
		}

		s, err := open(nil)
		if err != nil {
			return err
		}
		defer s.Close()

		actor, err := s.actor(cmd)
		if err != nil {
			return err
		}
		start, err := s.parseDate(from, "from")
		if err != nil {
			return err
		}
		end, err := s.parseDate(to, "to")
		if err != nil {
			return err
		}

		rows, err := s.WageReport.Generate(actor, start, end, userIDs)
		if err != nil {
			return err
		}

		w := os.Stdout
		if out != "" && out != "-" {
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}

		if format == "xlsx" {
			return export.WriteWageReportXLSX(w, rows)
		}
		return export.WriteWageReportCSV(w, rows)
	},
}

var refreshAwardsCmd = &cobra.Command{
	Use:   "refresh-awards",
	Short: "Refresh every staff award rate from the award rate service",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := open(nil)
		if err != nil {
			return err
		}
		defer s.Close()

		refreshed, failed, err := s.Awards.RefreshAll(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Refreshed %d award rates, %d failed\n", refreshed, failed)
		return nil
	},
}

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Deliver pending notifications once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := open(nil)
		if err != nil {
			return err
		}
		defer s.Close()

		sent, failed, err := s.Dispatcher.RunOnce(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("Sent %d notifications, %d failed\n", sent, failed)
		return nil
	},
}

func init() {
	ownerCmd.Flags().String("name", "", "Owner name")
	ownerCmd.Flags().String("email", "", "Owner email")
	_ = ownerCmd.MarkFlagRequired("name")
	_ = ownerCmd.MarkFlagRequired("email")

	for _, cmd := range []*cobra.Command{generateCmd, finalizeCmd, wageReportCmd} {
		cmd.Flags().Uint("as", 0, "Id of the user the command acts for")
		_ = cmd.MarkFlagRequired("as")
	}

	generateCmd.Flags().Uint("template", 0, "Shift template id")
	generateCmd.Flags().String("week", "", "Monday the week starts on (YYYY-MM-DD)")
	_ = generateCmd.MarkFlagRequired("template")
	_ = generateCmd.MarkFlagRequired("week")

	finalizeCmd.Flags().Uint("roster", 0, "Dated roster id")
	_ = finalizeCmd.MarkFlagRequired("roster")

	wageReportCmd.Flags().String("from", "", "First day of the range (YYYY-MM-DD)")
	wageReportCmd.Flags().String("to", "", "Last day of the range (YYYY-MM-DD)")
	wageReportCmd.Flags().StringP("format", "f", "csv", "csv or xlsx")
	wageReportCmd.Flags().StringP("out", "o", "", "Output file (default stdout)")
	wageReportCmd.Flags().String("users", "", "Comma separated user ids to include")
	_ = wageReportCmd.MarkFlagRequired("from")
	_ = wageReportCmd.MarkFlagRequired("to")
}

func parseUserIDs(raw string) ([]uint, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("--users: %q is not a user id", part)
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}
