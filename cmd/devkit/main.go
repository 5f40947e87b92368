package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/l1jgo/devkit/internal/config"
	"github.com/l1jgo/devkit/internal/core/ecs"
	"github.com/l1jgo/devkit/internal/core/event"
	"github.com/l1jgo/devkit/internal/persist"
	"github.com/l1jgo/devkit/internal/prefab"
	"github.com/l1jgo/devkit/internal/scripting"
	"github.com/l1jgo/devkit/internal/system"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

type runOptions struct {
	configPath string
	frames     int
	profile    string
	restore    bool
}

func newRootCmd() *cobra.Command {
	opts := &runOptions{configPath: "config/devkit.toml"}
	if p := os.Getenv("DEVKIT_CONFIG"); p != "" {
		opts.configPath = p
	}

	root := &cobra.Command{
		Use:           "devkit",
		Short:         "Entity-component runtime with prefabs, Lua scripting and world snapshots",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", opts.configPath, "path to the TOML config file")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Spawn the configured scene and run the frame loop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
	runCmd.Flags().IntVar(&opts.frames, "frames", -1, "stop after N frames (overrides world.max_frames)")
	runCmd.Flags().StringVar(&opts.profile, "profile", "", "write a cpu or mem profile to the working directory")
	runCmd.Flags().BoolVar(&opts.restore, "restore", false, "restore the latest database snapshot instead of spawning the scene")

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the config, prefab file and scripts without running",
		RunE: func(_ *cobra.Command, _ []string) error {
			return check(opts)
		},
	}

	root.AddCommand(runCmd, checkCmd)
	return root
}

// check loads everything run would load and reports what it found.
func check(opts *runOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	printBanner(opts.configPath)

	printSection("prefabs")
	lib, err := prefab.LoadLibrary(cfg.Prefabs.Path)
	if err != nil {
		return fmt.Errorf("load prefabs: %w", err)
	}
	printStat("prefabs", lib.Count())
	if _, ok := lib.Scene(cfg.Prefabs.Scene); cfg.Prefabs.Scene != "" && !ok {
		return fmt.Errorf("scene %q not found in %s", cfg.Prefabs.Scene, cfg.Prefabs.Path)
	}
	printStat("registered components", len(ecs.Components().Names()))

	printSection("scripts")
	eng, err := scripting.NewEngine(cfg.Scripting.Dir, zap.NewNop())
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	eng.Close()
	printOK(fmt.Sprintf("scripts in %s compiled", cfg.Scripting.Dir))
	fmt.Println()
	return nil
}

func run(ctx context.Context, opts *runOptions) error {
	// 1. Load config
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	maxFrames := cfg.World.MaxFrames
	if opts.frames >= 0 {
		maxFrames = opts.frames
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging, zapcore.Lock(os.Stderr))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	switch opts.profile {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		return fmt.Errorf("unknown profile mode %q (want cpu or mem)", opts.profile)
	}

	printBanner(opts.configPath)

	// 3. Load prefabs and scripts
	printSection("data")
	lib, err := prefab.LoadLibrary(cfg.Prefabs.Path)
	if err != nil {
		return fmt.Errorf("load prefabs: %w", err)
	}
	printStat("prefabs", lib.Count())

	eng, err := scripting.NewEngine(cfg.Scripting.Dir, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer eng.Close()
	printOK("lua engine ready")
	fmt.Println()

	// 4. Create the world and its systems
	bus := event.NewBus()
	w := ecs.NewWorld(
		ecs.WithCapacity(cfg.World.InitialCapacity),
		ecs.WithLogger(log),
		ecs.WithEventBus(bus),
	)
	defer w.Close()
	eng.SetSpawner(w, lib)

	var destroyed int
	event.Subscribe(bus, func(ecs.EntityDestroyed) { destroyed++ })

	lifetimeSys := system.NewLifetimeSystem(log)
	scriptSys := scripting.NewScriptSystem(eng, log)
	for _, s := range []ecs.System{
		system.NewMovementSystem(),
		scriptSys,
		lifetimeSys,
		system.NewCleanupSystem(cfg.World.BoundsRadius),
	} {
		if err := w.AddSystem(s); err != nil {
			return err
		}
	}

	// 5. Optional snapshot database
	var (
		persistSys *system.PersistenceSystem
		repo       *persist.SnapshotRepo
	)
	restored := false
	if cfg.Database.Enabled {
		printSection("database")
		dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(dbCtx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("postgres connected")

		version, err := persist.RunMigrations(dbCtx, db.Pool, log)
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printStat("schema version", int(version))

		repo = persist.NewSnapshotRepo(db)
		if opts.restore {
			snap, err := repo.Latest(dbCtx)
			if err != nil {
				return fmt.Errorf("load snapshot: %w", err)
			}
			if snap != nil {
				ents, err := persist.Restore(w, snap)
				if err != nil {
					return fmt.Errorf("restore snapshot %d: %w", snap.ID, err)
				}
				printStat(fmt.Sprintf("restored from snapshot %d", snap.ID), len(ents))
				restored = true
			} else {
				log.Warn("no snapshot to restore, spawning scene instead")
			}
		}

		persistSys = system.NewPersistenceSystem(repo, log, cfg.Database.SnapshotEvery)
		if err := w.AddSystem(persistSys); err != nil {
			return err
		}
		fmt.Println()
	}

	// 6. Spawn the starting scene
	if !restored && cfg.Prefabs.Scene != "" {
		ents, err := lib.SpawnScene(w, cfg.Prefabs.Scene)
		if err != nil {
			return fmt.Errorf("spawn scene: %w", err)
		}
		printStat(fmt.Sprintf("scene %q entities", cfg.Prefabs.Scene), len(ents))
	}

	// 7. Run the frame loop until interrupted or out of frames
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	runCtx, cancel := context.WithCancel(sigCtx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	reloads := make(chan *prefab.Library, 1)
	if cfg.Prefabs.Watch {
		g.Go(func() error {
			return prefab.Watch(gctx, cfg.Prefabs.Path, log, func(l *prefab.Library) {
				select {
				case <-reloads:
				default:
				}
				reloads <- l
			})
		})
	}

	printSection("running")
	printReady(fmt.Sprintf("frame loop started (frame: %s)", cfg.World.FrameRate))
	fmt.Println()

	var frames int
	g.Go(func() error {
		defer cancel()
		ticker := time.NewTicker(cfg.World.FrameRate)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case l := <-reloads:
				lib = l
				eng.SetSpawner(w, lib)
			case <-ticker.C:
				w.Update(cfg.World.FrameRate)
				frames++
				if maxFrames > 0 && frames >= maxFrames {
					log.Info("frame limit reached", zap.Int("frames", frames))
					return nil
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		return err
	}
	if sigCtx.Err() != nil {
		log.Info("shutdown signal received")
	}

	// 8. Final snapshot
	if persistSys != nil {
		if err := persistSys.SaveNow(); err != nil {
			log.Error("final snapshot failed", zap.Error(err))
		} else if cfg.Database.SnapshotKeep > 0 {
			pruneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if n, err := repo.Prune(pruneCtx, cfg.Database.SnapshotKeep); err != nil {
				log.Warn("prune snapshots", zap.Error(err))
			} else if n > 0 {
				log.Info("old snapshots pruned", zap.Int64("deleted", n))
			}
		}
	}

	log.Info("devkit stopped",
		zap.Int("frames", frames),
		zap.Int("entities", w.Len()),
		zap.Int("destroyed", destroyed),
		zap.Int("expired", lifetimeSys.Expired()),
		zap.Int("script_errors", scriptSys.Errors()),
	)
	return nil
}
