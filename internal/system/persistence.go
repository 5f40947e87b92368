package system

import (
	"context"
	"fmt"
	"time"

	"github.com/l1jgo/devkit/internal/core/ecs"
	"github.com/l1jgo/devkit/internal/persist"
	"go.uber.org/zap"
)

// SnapshotSaver stores a captured world snapshot.
type SnapshotSaver interface {
	Save(ctx context.Context, snap *persist.Snapshot) error
}

// PersistenceSystem periodically captures the world and hands the snapshot to
// a SnapshotSaver. Phase Output, so the capture sees the frame's final state;
// entities killed this frame are not captured.
type PersistenceSystem struct {
	*ecs.BaseSystem
	saver     SnapshotSaver
	log       *zap.Logger
	frame     int64
	tickCount int
	interval  int // snapshot every N frames, 0 = only on SaveNow
	saved     int
}

func NewPersistenceSystem(saver SnapshotSaver, log *zap.Logger, intervalFrames int) *PersistenceSystem {
	return &PersistenceSystem{
		BaseSystem: ecs.NewBaseSystem(ecs.PhaseOutput, ecs.Filter{}),
		saver:      saver,
		log:        log,
		interval:   intervalFrames,
	}
}

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.frame++
	if s.interval <= 0 {
		return
	}
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	if err := s.SaveNow(); err != nil {
		s.log.Error("periodic snapshot failed", zap.Int64("frame", s.frame), zap.Error(err))
	}
}

// SaveNow captures and saves the world immediately. Called on shutdown so the
// final state is never lost.
func (s *PersistenceSystem) SaveNow() error {
	if s.World() == nil {
		return fmt.Errorf("persistence system is not attached to a world")
	}
	snap, err := persist.Capture(s.World(), s.frame)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.saver.Save(ctx, snap); err != nil {
		return err
	}
	s.saved++
	s.log.Info("world snapshot saved",
		zap.Int64("frame", s.frame),
		zap.Int("entities", len(snap.Entities)),
		zap.Int("enabled", s.Len()),
	)
	return nil
}

// Frame returns the number of frames this system has seen.
func (s *PersistenceSystem) Frame() int64 { return s.frame }

// Saved returns how many snapshots were saved successfully.
func (s *PersistenceSystem) Saved() int { return s.saved }
