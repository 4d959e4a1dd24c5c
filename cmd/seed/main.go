package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"churchsite/internal/cache"
	"churchsite/internal/config"
	"churchsite/internal/db"
	"churchsite/internal/logger"
	"churchsite/internal/model"
	"churchsite/internal/repository"
	"churchsite/internal/service"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		file    string
		url     string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import church members into the members database",
		Long: `Seed reads a JSON array of member records and creates or updates
members by email. Records may come from a local file or a URL:

  [{"full_name": "Ruth Moab", "email": "ruth@example.com", "role": "member"}]

Invalid records are skipped and reported.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (file == "") == (url == "") {
				return errors.New("exactly one of --file or --url is required")
			}
			return run(cmd.Context(), file, url, timeout)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "path to a JSON file of member records")
	cmd.Flags().StringVarP(&url, "url", "u", "", "URL serving a JSON array of member records")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "timeout for fetching --url")
	return cmd
}

func run(ctx context.Context, file, url string, timeout time.Duration) error {
	cfg := config.Load()

	zl, err := logger.New(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = zl.Sync() }()

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	zl.Info("connected to database", zap.String("driver", cfg.DBDriver))

	if err := gormDB.AutoMigrate(&model.Member{}, &model.PrayerRequest{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	var records []service.MemberRecord
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("open %s: %w", file, err)
		}
		defer f.Close()
		records, err = service.DecodeMemberRecords(f)
		if err != nil {
			return err
		}
	} else {
		zl.Info("fetching member records", zap.String("url", url))
		records, err = service.FetchMemberRecords(ctx, &http.Client{Timeout: timeout}, url)
		if err != nil {
			return err
		}
	}
	zl.Info("read member records", zap.Int("count", len(records)))

	memberRepo := repository.NewMemberRepository(gormDB)
	res, err := service.ImportMembers(ctx, memberRepo, records)
	if err != nil {
		return err
	}

	// the server caches the directory listing in redis
	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer func() { _ = cacheClient.Close() }()
	service.NewMemberService(memberRepo, cacheClient, nil, zl).InvalidateDirectory(ctx)

	for _, email := range res.Skipped {
		zl.Warn("skipped invalid record", zap.String("email", email))
	}
	zl.Info("seed completed",
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("skipped", len(res.Skipped)),
	)
	return nil
}
