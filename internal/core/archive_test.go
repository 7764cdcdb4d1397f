package core

import (
	"context"
	"errors"
	"testing"
	"time"

	blobmemory "rulecore/internal/infra/blob/memory"
)

func TestArchiveRuleSetRoundTrip(t *testing.T) {
	blob := blobmemory.New()
	svc := newTestService(t, WithArchiveStore(blob), WithClock(func() time.Time {
		return time.Date(2026, time.April, 1, 8, 0, 0, 0, time.UTC)
	}))
	ctx := context.Background()

	sectorRule, err := svc.CreateRule(ctx, sectorCalcRule("s1", "sector rule", RigidityMandatory))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	global := laborRule("global labor")
	if _, err := svc.CreateRule(ctx, global); err != nil {
		t.Fatalf("create global: %v", err)
	}

	info, err := svc.ArchiveRuleSet(ctx, "s1")
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if info.Key == "" || info.Size == 0 {
		t.Fatalf("incomplete archive info: %+v", info)
	}
	if info.Metadata["sector_id"] != "s1" {
		t.Fatalf("sector metadata missing: %+v", info)
	}

	archives, err := svc.ListArchives(ctx, "s1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(archives) != 1 || archives[0].Key != info.Key {
		t.Fatalf("listing wrong: %+v", archives)
	}

	archive, err := svc.GetArchive(ctx, info.Key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if archive.SectorID != "s1" || len(archive.SectorRules) != 1 || len(archive.GlobalRules) != 1 {
		t.Fatalf("archive content wrong: %+v", archive)
	}
	if archive.SectorRules[0].ID != sectorRule.ID {
		t.Fatalf("sector rule missing from archive")
	}
}

func TestArchiveIsImmutablePerID(t *testing.T) {
	blob := blobmemory.New()
	svc := newTestService(t, WithArchiveStore(blob))
	ctx := context.Background()
	if _, err := svc.CreateRule(ctx, sectorCalcRule("s1", "r", RigidityMandatory)); err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := svc.ArchiveRuleSet(ctx, "s1")
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	second, err := svc.ArchiveRuleSet(ctx, "s1")
	if err != nil {
		t.Fatalf("second archive: %v", err)
	}
	if first.Key == second.Key {
		t.Fatalf("each archive must get its own key")
	}
	archives, _ := svc.ListArchives(ctx, "s1")
	if len(archives) != 2 {
		t.Fatalf("expected 2 archives, got %d", len(archives))
	}
}

func TestArchiveOperationsRequireStore(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if _, err := svc.ArchiveRuleSet(ctx, "s1"); !errors.Is(err, ErrNoArchiveStore) {
		t.Fatalf("expected ErrNoArchiveStore, got %v", err)
	}
	if _, err := svc.ListArchives(ctx, "s1"); !errors.Is(err, ErrNoArchiveStore) {
		t.Fatalf("expected ErrNoArchiveStore, got %v", err)
	}
	if _, err := svc.GetArchive(ctx, "k"); !errors.Is(err, ErrNoArchiveStore) {
		t.Fatalf("expected ErrNoArchiveStore, got %v", err)
	}
}

func TestGetArchiveUnknownKey(t *testing.T) {
	svc := newTestService(t, WithArchiveStore(blobmemory.New()))
	if _, err := svc.GetArchive(context.Background(), "archives/s1/ghost.json"); !isNotFound(err) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}
