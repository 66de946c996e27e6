package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/patent-normalizer/internal/infrastructure/database/ledger"
	"github.com/turtacn/patent-normalizer/pkg/errors"
)

func newLedgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect and edit the archive ledger",
	}
	cmd.AddCommand(newLedgerListCmd(), newLedgerForgetCmd())
	return cmd
}

type ledgerEntries []ledger.Entry

func (l ledgerEntries) TableHeaders() []string {
	return []string{"Archive", "Status", "Records", "Parsed", "Failed", "Skipped", "Finished"}
}

func (l ledgerEntries) TableRows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, e := range l {
		rows = append(rows, []string{
			e.Archive,
			colorizeStatus(e.Status),
			strconv.Itoa(e.Records),
			strconv.Itoa(e.Parsed),
			strconv.Itoa(e.Failed),
			strconv.Itoa(e.Skipped),
			e.FinishedAt,
		})
	}
	return rows
}

// openLedger opens the ledger named by the configuration without connecting
// any other backend.
func openLedger(cmd *cobra.Command) (*ledger.Ledger, *CLIContext, error) {
	c, err := GetCLIContext(cmd)
	if err != nil {
		return nil, nil, err
	}
	if !c.Config.Ledger.Enabled {
		return nil, nil, errors.New(errors.ErrCodeFeatureDisabled, "ledger is disabled (ledger.enabled)")
	}
	l, err := ledger.Open(c.Config.Ledger, c.Logger)
	if err != nil {
		return nil, nil, err
	}
	return l, c, nil
}

func newLedgerListCmd() *cobra.Command {
	var (
		status string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ledger entries, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch status {
			case "", ledger.StatusRunning, ledger.StatusCompleted, ledger.StatusFailed:
			default:
				return errors.Newf(errors.ErrCodeValidation, "unknown status %q", status)
			}
			l, _, err := openLedger(cmd)
			if err != nil {
				return err
			}
			defer l.Close()
			entries, err := l.List(cmd.Context(), status, limit)
			if err != nil {
				return err
			}
			return PrintResult(cmd, ledgerEntries(entries))
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only entries with this status (running, completed, failed)")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries to list")
	return cmd
}

func newLedgerForgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget ARCHIVE...",
		Short: "Remove archives from the ledger so they are ingested again",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, _, err := openLedger(cmd)
			if err != nil {
				return err
			}
			defer l.Close()
			for _, a := range args {
				if err := l.Forget(cmd.Context(), a); err != nil {
					return err
				}
				cmd.Printf("forgot %s\n", ledger.Key(a))
			}
			return nil
		},
	}
}

//Personal.AI order the ending
