package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"chitfund/internal/config"
	"chitfund/internal/core"
	gsheet "chitfund/internal/sheets/google"
	"chitfund/internal/worker"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Open or create the ledger database and print its shape",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := a.settings
			fmt.Fprintf(cmd.OutOrStdout(), "Ledger ready at %s: %d members, %d months, %s per month, fund %s\n",
				a.dbPath, s.NumMembers, s.NumMonths, core.FormatRupees(s.MonthlyAmount), core.FormatRupees(s.TotalFund()))
			return nil
		},
	}
}

func newRecordCmd(a *app) *cobra.Command {
	var amount, date string
	cmd := &cobra.Command{
		Use:   "record <month> <member> <paid|partial|unpaid>",
		Short: "Record a member's payment status for a month",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := parseIntArg("month", args[0])
			if err != nil {
				return err
			}
			member, err := parseIntArg("member", args[1])
			if err != nil {
				return err
			}
			status, err := core.ParseStatus(args[2])
			if err != nil {
				return err
			}
			var value int64
			if amount != "" {
				if value, err = core.ParseAmount(amount); err != nil {
					return err
				}
			} else if status == core.StatusPartial {
				return fmt.Errorf("--amount is required for partial payments: %w", core.ErrInvalidArgument)
			}
			d, err := core.ParseDate(date)
			if err != nil {
				return err
			}

			rec, err := a.svc.RecordPayment(cmd.Context(), month, member, status, value, d)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Month %d member %d: %s %s on %s\n",
				rec.Month, rec.MemberID, rec.Status, core.FormatRupees(rec.Amount), rec.PaymentDate)
			return nil
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "Amount for partial payments.")
	cmd.Flags().StringVar(&date, "date", "", "Payment date (YYYY-MM-DD), defaults to today.")
	return cmd
}

func newMemberCmd(a *app) *cobra.Command {
	member := &cobra.Command{
		Use:   "member",
		Short: "Show or edit member profiles",
	}
	member.AddCommand(&cobra.Command{
		Use:   "set <id> <name|phone|address> <value>",
		Short: "Update one profile field",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIntArg("member", args[0])
			if err != nil {
				return err
			}
			field, err := core.ParseProfileField(args[1])
			if err != nil {
				return err
			}
			m, err := a.svc.UpdateMemberProfile(cmd.Context(), id, field, args[2])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\n", m.ID, m.Name, m.Phone, m.Address)
			return nil
		},
	})
	member.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Print one member profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIntArg("member", args[0])
			if err != nil {
				return err
			}
			m, err := a.svc.Member(id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\n", m.ID, m.Name, m.Phone, m.Address)
			return nil
		},
	})
	return member
}

func newTotalsCmd(a *app) *cobra.Command {
	var asOf int
	cmd := &cobra.Command{
		Use:   "totals",
		Short: "Print each member's total paid and outstanding balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if asOf == 0 {
				asOf = a.settings.MonthAt(time.Now())
			}
			totals, err := a.svc.Members(asOf)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintf(tw, "ID\tName\tPaid\tExpected (M%d)\tOutstanding\n", asOf)
			for _, t := range totals {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", t.ID, t.Name,
					core.FormatRupees(t.TotalPaid), core.FormatRupees(t.Expected), core.FormatRupees(t.Outstanding))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&asOf, "as-of", 0, "Month to compute expected amounts against, defaults to the current calendar month.")
	return cmd
}

func newSummaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print collections per month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "Month\tCollected\tPaid\tPartial\tUnpaid\tExpected")
			for _, s := range a.svc.MonthlySummary() {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n", s.Label,
					core.FormatRupees(s.Total), s.Paid, s.Partial, s.Unpaid, core.FormatRupees(s.Expected))
			}
			return tw.Flush()
		},
	}
}

func newSeriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "series <member>",
		Short: "Print a member's month by month history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIntArg("member", args[0])
			if err != nil {
				return err
			}
			series, err := a.svc.MemberSeries(id)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "Month\tAmount\tCumulative\tExpected")
			for _, p := range series {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Label,
					core.FormatRupees(p.Amount), core.FormatRupees(p.Cumulative), core.FormatRupees(p.Expected))
			}
			return tw.Flush()
		},
	}
}

func newExportCmd(a *app, cfg *config.Config) *cobra.Command {
	var spreadsheetID, sheetName string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the ledger to Google Sheets once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if spreadsheetID == "" {
				return fmt.Errorf("--spreadsheet or GOOGLE_SPREADSHEET_ID is required: %w", core.ErrInvalidArgument)
			}
			exporter, err := gsheet.New(cmd.Context(), spreadsheetID, sheetName)
			if err != nil {
				return err
			}
			w := worker.NewExportWorker(a.settings, a.repo, exporter, time.Minute)
			if err := w.ExportNow(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s/%s\n", spreadsheetID, sheetName)
			return nil
		},
	}
	cmd.Flags().StringVar(&spreadsheetID, "spreadsheet", cfg.GoogleSpreadsheetID, "Target spreadsheet ID.")
	cmd.Flags().StringVar(&sheetName, "sheet", cfg.GoogleSheetName, "Target sheet name.")
	return cmd
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func parseIntArg(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not a number: %w", name, s, core.ErrInvalidArgument)
	}
	return n, nil
}
