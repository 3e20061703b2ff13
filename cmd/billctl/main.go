// Command billctl runs maintenance tasks against the billing database.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"gstbill/internal/billing"
	"gstbill/internal/config"
	"gstbill/internal/jobs"
	"gstbill/internal/models"
	"gstbill/internal/repositories"
	"gstbill/pkg/database"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:           "billctl",
	Short:         "Maintenance commands for the gstbill service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPool(cmd.Context(), func(_ *config.Config, pool *pgxpool.Pool) error {
			if err := database.Migrate(cmd.Context(), pool); err != nil {
				return err
			}
			log.Info().Msg("schema is up to date")
			return nil
		})
	},
}

var (
	exportIssuer string
	exportFrom   string
	exportTo     string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write an issuer's invoices for a date range to an xlsx file",
	Example: `  billctl export --issuer 3f0c... --from 2024-04-01 --to 2024-06-30
  billctl export --issuer 3f0c... --from 2024-04-01 --to 2024-06-30 --out q1.xlsx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		issuerID, err := uuid.Parse(exportIssuer)
		if err != nil {
			return fmt.Errorf("invalid --issuer: %w", err)
		}
		start, err := time.Parse("2006-01-02", exportFrom)
		if err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
		to, err := time.Parse("2006-01-02", exportTo)
		if err != nil {
			return fmt.Errorf("invalid --to: %w", err)
		}
		end := to.AddDate(0, 0, 1)
		if !end.After(start) {
			return fmt.Errorf("--to must not be before --from")
		}

		return withPool(cmd.Context(), func(_ *config.Config, pool *pgxpool.Pool) error {
			exporter := jobs.NewInvoiceExporter(repositories.NewReportRepo(pool))
			result, err := exporter.ExportInvoices(cmd.Context(), issuerID, start, end)
			if err != nil {
				return err
			}

			out := exportOut
			if out == "" {
				out = result.FileName
			}
			if err := os.WriteFile(out, result.Content, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			log.Info().Str("file", out).Int("invoices", result.RecordsExported).Msg("export written")
			return nil
		})
	},
}

var (
	reseedIssuer string
	reseedYear   int
)

// reseedCmd raises the numbering counters to the highest number already issued.
// Needed after importing documents created outside the service.
var reseedCmd = &cobra.Command{
	Use:   "reseed-sequences",
	Short: "Align numbering counters with the latest issued documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		issuerID, err := uuid.Parse(reseedIssuer)
		if err != nil {
			return fmt.Errorf("invalid --issuer: %w", err)
		}

		return withPool(cmd.Context(), func(cfg *config.Config, pool *pgxpool.Pool) error {
			policy, err := config.LoadBillingPolicy(cfg.BillingPolicyFile)
			if err != nil {
				return err
			}
			year := reseedYear
			if year == 0 {
				year = time.Now().Year()
			}
			counterYear := policy.SequenceYear(time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC))

			issuer, err := repositories.NewIssuerRepo(pool).GetByID(cmd.Context(), issuerID)
			if err != nil {
				return err
			}
			return reseedCounters(cmd.Context(), repositories.NewSequenceRepo(pool), issuer, year, counterYear)
		})
	},
}

// reseedCounters raises each document counter to the latest issued sequence so the
// next allocation follows it. counterYear is 0 when numbering never resets.
func reseedCounters(ctx context.Context, sequences repositories.SequenceRepository, issuer *models.Issuer, year, counterYear int) error {
	for _, docType := range []models.DocumentType{models.DocumentTypeInvoice, models.DocumentTypeQuotation, models.DocumentTypeChallan} {
		latest, err := sequences.FindLatestByIssuerAndType(ctx, issuer.ID, docType, counterYear)
		if err != nil {
			return err
		}
		if latest == "" {
			log.Info().Str("type", string(docType)).Msg("no documents, counter left unchanged")
			continue
		}
		next, err := billing.NextDocumentNumber(latest, billing.PrefixFor(docType), issuer.TaxID, year)
		if err != nil {
			return err
		}
		seq, err := billing.ParseSequence(latest)
		if err != nil {
			return err
		}
		if err := sequences.Seed(ctx, issuer.ID, docType, counterYear, seq); err != nil {
			return err
		}
		log.Info().Str("type", string(docType)).Str("latest", latest).Str("next", next).Int("counter", seq).Msg("sequence reseeded")
	}
	return nil
}

func withPool(ctx context.Context, fn func(cfg *config.Config, pool *pgxpool.Pool) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(cfg, pool)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	exportCmd.Flags().StringVar(&exportIssuer, "issuer", "", "Issuer ID")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "First day, YYYY-MM-DD")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "Last day (inclusive), YYYY-MM-DD")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default invoices_<from>_<to>.xlsx)")
	_ = exportCmd.MarkFlagRequired("issuer")
	_ = exportCmd.MarkFlagRequired("from")
	_ = exportCmd.MarkFlagRequired("to")

	reseedCmd.Flags().StringVar(&reseedIssuer, "issuer", "", "Issuer ID")
	reseedCmd.Flags().IntVar(&reseedYear, "year", 0, "Sequence year (default current year)")
	_ = reseedCmd.MarkFlagRequired("issuer")

	rootCmd.AddCommand(migrateCmd, exportCmd, reseedCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
