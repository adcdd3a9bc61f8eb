package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"service-meetings/internal/domain"
)

const oneShotTimeout = 2 * time.Minute

func parseKindFlag(value string) (domain.Kind, error) {
	for _, kind := range domain.Kinds() {
		if string(kind) == value {
			return kind, nil
		}
	}
	return "", fmt.Errorf("unknown kind %q", value)
}

func newImportCommand(logger *log.Logger) *cobra.Command {
	var (
		kindFlag        string
		modeFlag        string
		overwriteStatus bool
	)

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Merge a CSV batch into the stored records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKindFlag(kindFlag)
			if err != nil {
				return err
			}
			mode, err := domain.ParseMergeMode(modeFlag)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), oneShotTimeout)
			defer cancel()

			application, db, _, err := buildApp(logger)
			if err != nil {
				return err
			}
			if db != nil {
				defer db.Close()
			}
			svc := application.Service()
			if err := svc.Load(ctx); err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			added, updated, err := svc.Import(ctx, kind, f, domain.MergePolicy{
				Mode:            mode,
				OverwriteStatus: overwriteStatus,
			})
			if err != nil {
				return err
			}
			logger.Printf("import finished: %d added, %d updated", added, updated)
			return nil
		},
	}

	cmd.Flags().StringVar(&kindFlag, "kind", string(domain.KindMeeting), "record kind to import into")
	cmd.Flags().StringVar(&modeFlag, "mode", string(domain.UpdateAndAdd), "merge mode: add, update, or update_and_add")
	cmd.Flags().BoolVar(&overwriteStatus, "overwrite-status", false, "recompute status for every imported record")
	return cmd
}

func newExportCommand(logger *log.Logger) *cobra.Command {
	var kindFlag string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a timestamped CSV export of the stored records",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKindFlag(kindFlag)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), oneShotTimeout)
			defer cancel()

			application, db, _, err := buildApp(logger)
			if err != nil {
				return err
			}
			if db != nil {
				defer db.Close()
			}
			svc := application.Service()
			if err := svc.Load(ctx); err != nil {
				return err
			}

			path, err := svc.Export(kind)
			if err != nil {
				return err
			}
			logger.Printf("exported to %s", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&kindFlag, "kind", string(domain.KindMeeting), "record kind to export")
	return cmd
}

func newRefreshCommand(logger *log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Recompute time-derived statuses once and persist any changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), oneShotTimeout)
			defer cancel()

			application, db, _, err := buildApp(logger)
			if err != nil {
				return err
			}
			if db != nil {
				defer db.Close()
			}
			svc := application.Service()
			if err := svc.Load(ctx); err != nil {
				return err
			}

			changed, err := svc.RefreshStatuses(ctx)
			if err != nil {
				return err
			}
			logger.Printf("refresh finished: %d records changed", changed)
			return nil
		},
	}
}
