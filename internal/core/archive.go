package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	blobcore "rulecore/internal/blob/core"
	"rulecore/pkg/domain"
)

// ErrNoArchiveStore is returned when archive operations run without a blob
// store configured.
var ErrNoArchiveStore = errors.New("no archive store configured")

// RuleSetArchive is the immutable compliance snapshot written to blob
// storage: every rule of a sector, active or not, plus the global rules its
// evaluation consults.
type RuleSetArchive struct {
	ID          string    `json:"id"`
	SectorID    string    `json:"sector_id"`
	ArchivedAt  time.Time `json:"archived_at"`
	SectorRules []Rule    `json:"sector_rules"`
	GlobalRules []Rule    `json:"global_rules"`
}

// WithArchiveStore installs the blob store receiving rule-set archives.
func WithArchiveStore(store blobcore.Store) ServiceOption {
	return func(s *Service) { s.archive = store }
}

func archiveKey(sectorID, archiveID string) string {
	return fmt.Sprintf("archives/%s/%s.json", sectorID, archiveID)
}

// ArchiveRuleSet snapshots the sector's full rule set into the blob store
// and returns the stored blob's info. Archives are create-only, so a written
// snapshot can never be altered afterwards.
func (s *Service) ArchiveRuleSet(ctx context.Context, sectorID string) (blobcore.Info, error) {
	if sectorID == "" {
		return blobcore.Info{}, domain.NewValidationError("sector_id", "sector id is required")
	}
	if s.archive == nil {
		return blobcore.Info{}, ErrNoArchiveStore
	}
	var info blobcore.Info
	err := s.instrument(ctx, "archive_rule_set", func(ctx context.Context) error {
		archive := RuleSetArchive{
			ID:         uuid.NewString(),
			SectorID:   sectorID,
			ArchivedAt: s.nowFn(),
		}
		sector := domain.SectorScope(sectorID)
		global := domain.GlobalScope()
		if err := s.store.View(ctx, func(view TransactionView) error {
			archive.SectorRules = view.ListRules(Filter{Scope: &sector})
			archive.GlobalRules = view.ListRules(Filter{Scope: &global})
			return nil
		}); err != nil {
			return err
		}
		payload, err := json.MarshalIndent(archive, "", "  ")
		if err != nil {
			return err
		}
		info, err = s.archive.Put(ctx, archiveKey(sectorID, archive.ID), bytes.NewReader(payload), blobcore.PutOptions{
			ContentType: "application/json",
			Metadata: map[string]string{
				"sector_id":   sectorID,
				"archived_at": archive.ArchivedAt.Format(time.RFC3339),
			},
		})
		if err != nil {
			return domain.UnavailableError{Dependency: "archive store", Err: err}
		}
		return nil
	})
	if err != nil {
		return blobcore.Info{}, err
	}
	s.logger.Info("rule set archived", "sector_id", sectorID, "key", info.Key)
	return info, nil
}

// ListArchives returns the sector's stored archives, key-sorted.
func (s *Service) ListArchives(ctx context.Context, sectorID string) ([]blobcore.Info, error) {
	if s.archive == nil {
		return nil, ErrNoArchiveStore
	}
	var infos []blobcore.Info
	err := s.instrument(ctx, "list_archives", func(ctx context.Context) error {
		var err error
		infos, err = s.archive.List(ctx, fmt.Sprintf("archives/%s/", sectorID))
		if err != nil {
			return domain.UnavailableError{Dependency: "archive store", Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return infos, nil
}

// GetArchive loads and decodes a stored archive by blob key.
func (s *Service) GetArchive(ctx context.Context, key string) (RuleSetArchive, error) {
	if s.archive == nil {
		return RuleSetArchive{}, ErrNoArchiveStore
	}
	var archive RuleSetArchive
	err := s.instrument(ctx, "get_archive", func(ctx context.Context) error {
		_, rc, err := s.archive.Get(ctx, key)
		if err != nil {
			return domain.NotFoundError{Entity: "archive", ID: key}
		}
		defer func() { _ = rc.Close() }()
		payload, err := io.ReadAll(rc)
		if err != nil {
			return domain.UnavailableError{Dependency: "archive store", Err: err}
		}
		return json.Unmarshal(payload, &archive)
	})
	if err != nil {
		return RuleSetArchive{}, err
	}
	return archive, nil
}
