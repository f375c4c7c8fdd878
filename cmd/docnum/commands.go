package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	corenumerator "billing/internal/core/numerator"
	"billing/internal/infrastructure/config"
	"billing/internal/infrastructure/http/v1/dto"
	"billing/internal/infrastructure/numerator"
	"billing/internal/infrastructure/storage"
	"billing/pkg/logger"
)

var version = "0.1.0"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "docnum",
		Short: "Inspect and preview ORG/FY/SEQ document numbers",
		Long: `docnum answers numbering questions without going through the API:
which fiscal year a date falls in, which sequence a number carries and
which number the next document of a type would get.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "config file (default ./config.toml)")

	root.AddCommand(newFYCmd(), newParseCmd(), newFormatCmd(), newNextCmd())
	return root
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.LoadFile(path)
}

func parseDateArg(raw string, loc *time.Location) (time.Time, error) {
	if raw == "" {
		return time.Now().In(loc), nil
	}
	t, err := dto.ParseDate(raw)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

func newFYCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fy [date]",
		Short: "Print the fiscal-year label (April to March) of a date",
		Example: `  docnum fy 2026-02-01   # 2025-26
  docnum fy              # today in the business time zone`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tz, _ := cmd.Flags().GetString("tz")
			loc, err := time.LoadLocation(tz)
			if err != nil {
				return fmt.Errorf("time zone: %w", err)
			}
			raw := ""
			if len(args) == 1 {
				raw = args[0]
			}
			date, err := parseDateArg(raw, loc)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), corenumerator.FiscalYearLabel(date))
			return nil
		},
	}
	cmd.Flags().String("tz", "Asia/Kolkata", "business time zone used when no date is given")
	return cmd
}

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "parse <number> <prefix>",
		Short:   "Print the sequence value a number carries under a prefix",
		Example: `  docnum parse JMD/2025-26/007 JMD/2025-26/   # 7`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, ok := corenumerator.ParseSequence(args[0], args[1])
			if !ok {
				return fmt.Errorf("%q has no sequence under prefix %q", args[0], args[1])
			}
			fmt.Fprintln(cmd.OutOrStdout(), seq)
			return nil
		},
	}
}

func newFormatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "format <org> <date> <seq>",
		Short:   "Render a number from its parts",
		Example: `  docnum format JMD 2025-07-01 7 --width 3   # JMD/2025-26/007`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := dto.ParseDate(args[1])
			if err != nil {
				return err
			}
			var seq int64
			if _, err := fmt.Sscanf(args[2], "%d", &seq); err != nil || seq < 0 {
				return fmt.Errorf("sequence must be a non-negative integer, got %q", args[2])
			}
			width, _ := cmd.Flags().GetInt("width")
			style := corenumerator.Bare()
			if width > 0 {
				style = corenumerator.ZeroPadded(width)
			}
			prefix := corenumerator.Prefix(args[0], corenumerator.FiscalYearLabel(date))
			fmt.Fprintln(cmd.OutOrStdout(), style.Format(prefix, seq))
			return nil
		},
	}
	cmd.Flags().Int("width", 0, "zero-pad the sequence to this many digits")
	return cmd
}

func newNextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next <type>",
		Short: "Preview the next number of a document type from the configured database",
		Long: `Reads the configured database and prints the number the next document
of the given type (invoice, challan, estimate, certificate) would receive.
Nothing is reserved: a document created meanwhile may take the number.`,
		Example: `  docnum next challan
  docnum next invoice --date 2026-04-01
  docnum next invoice --number JMD/2025-26/12`,
		Args: cobra.ExactArgs(1),
		RunE: runNext,
	}
	cmd.Flags().String("date", "", "document date (YYYY-MM-DD), default today")
	cmd.Flags().String("number", "", "explicit number to check")
	return cmd
}

func runNext(cmd *cobra.Command, args []string) error {
	docType, err := corenumerator.ParseDocumentType(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	loc, err := cfg.Numbering.Location()
	if err != nil {
		return err
	}
	typeConfigs, err := cfg.Numbering.NumeratorConfigs()
	if err != nil {
		return err
	}

	rawDate, _ := cmd.Flags().GetString("date")
	date, err := parseDateArg(rawDate, loc)
	if err != nil {
		return err
	}
	explicit, _ := cmd.Flags().GetString("number")
	explicit = strings.TrimSpace(explicit)

	log, err := logger.New(logger.Config{
		Level:       "warn",
		Encoding:    "console",
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return err
	}

	ctx := logger.WithLogger(cmd.Context(), log)
	store, err := storage.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer store.Close()

	svc := numerator.New(store.Numbers, numerator.Options{
		Org:         cfg.Numbering.Org,
		Types:       typeConfigs,
		MaxAttempts: cfg.Numbering.MaxAttempts,
		Location:    loc,
	})

	number, err := svc.Allocate(ctx, corenumerator.Request{
		DocumentType: docType,
		AsOf:         date,
		Explicit:     explicit,
	})
	if errors.Is(err, corenumerator.ErrSequenceExhausted) {
		return fmt.Errorf("no free %s number found, try again: %w", docType, err)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, number)
	if explicit != "" && number != explicit {
		fmt.Fprintf(out, "(%s is taken)\n", explicit)
	}
	return nil
}
