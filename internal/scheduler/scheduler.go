// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/brainswarm/brainswarm/internal/store"
	"github.com/brainswarm/brainswarm/internal/upload"
)

// DefaultOrphanAge is how old an unreferenced upload must be before it is swept.
// Younger files may belong to a post whose insert has not committed yet.
const DefaultOrphanAge = time.Hour

// Cleaner is implemented by in-memory state that needs periodic pruning,
// such as middleware.LoginProtection.
type Cleaner interface {
	Cleanup(maxEntries int)
}

// Config describes the jobs to run.
type Config struct {
	// SweepSchedule is a cron spec for the orphaned upload sweep. Empty disables it.
	SweepSchedule string
	// ImageDirs maps each post kind to its upload directory.
	ImageDirs map[store.PostKind]string
	// OrphanAge overrides DefaultOrphanAge.
	OrphanAge time.Duration
	// Cleaners are pruned every ten minutes.
	Cleaners []Cleaner
}

// Scheduler handles periodic jobs.
type Scheduler struct {
	db      *sql.DB
	uploads *upload.Store
	cfg     Config
	cron    *cron.Cron
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a new scheduler instance.
func New(db *sql.DB, uploads *upload.Store, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.OrphanAge <= 0 {
		cfg.OrphanAge = DefaultOrphanAge
	}
	return &Scheduler{
		db:      db,
		uploads: uploads,
		cfg:     cfg,
		cron:    cron.New(),
		logger:  logger,
		now:     time.Now,
	}
}

// Start registers the jobs and starts the cron runner.
func (s *Scheduler) Start() error {
	if s.cfg.SweepSchedule != "" {
		_, err := s.cron.AddFunc(s.cfg.SweepSchedule, func() {
			n, err := s.SweepOrphanedUploads(context.Background())
			if err != nil {
				s.logger.Error("failed to sweep orphaned uploads", "error", err)
				return
			}
			if n > 0 {
				s.logger.Info("swept orphaned uploads", "removed", n)
			}
		})
		if err != nil {
			return fmt.Errorf("adding sweep job %q: %w", s.cfg.SweepSchedule, err)
		}
	}

	if len(s.cfg.Cleaners) > 0 {
		if _, err := s.cron.AddFunc("@every 10m", s.runCleaners); err != nil {
			return fmt.Errorf("adding cleanup job: %w", err)
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runCleaners() {
	for _, c := range s.cfg.Cleaners {
		c.Cleanup(10000)
	}
}

// SweepOrphanedUploads removes post images that no row references and that
// are older than the orphan age. It returns the number of files removed.
func (s *Scheduler) SweepOrphanedUploads(ctx context.Context) (int, error) {
	queries := store.New(s.db)
	cutoff := s.now().Add(-s.cfg.OrphanAge)
	removed := 0

	for kind, dir := range s.cfg.ImageDirs {
		images, err := queries.ListPostImages(ctx, kind)
		if err != nil {
			return removed, fmt.Errorf("listing %s images: %w", kind, err)
		}
		referenced := make(map[string]bool, len(images))
		for _, name := range images {
			referenced[name] = true
		}

		entries, err := os.ReadDir(filepath.Join(s.uploads.Root(), dir))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("reading %s: %w", dir, err)
		}

		for _, e := range entries {
			if e.IsDir() || referenced[e.Name()] {
				continue
			}
			info, err := e.Info()
			if err != nil || info.ModTime().After(cutoff) {
				continue
			}
			if err := s.uploads.Remove(dir, e.Name()); err != nil {
				s.logger.Warn("failed to remove orphaned upload", "dir", dir, "file", e.Name(), "error", err)
				continue
			}
			removed++
		}
	}

	return removed, nil
}
