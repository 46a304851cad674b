package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/khoahotran/pictures/adapters/media_storage"
	"github.com/khoahotran/pictures/adapters/metadata"
	"github.com/khoahotran/pictures/adapters/persistence"
	backupUC "github.com/khoahotran/pictures/internal/application/usecase/backup"
	mediaUC "github.com/khoahotran/pictures/internal/application/usecase/media"
	tagUC "github.com/khoahotran/pictures/internal/application/usecase/tag"
	trashUC "github.com/khoahotran/pictures/internal/application/usecase/trash"
	"github.com/khoahotran/pictures/internal/config"
	"github.com/khoahotran/pictures/pkg/logger"
)

const usage = `mediactl manages a pictures library file directly. Stop the server first.

Usage:
  mediactl import [-album ID] [-tags a,b] [-workers N] <dir>
  mediactl stats
  mediactl purge
  mediactl backup [-out FILE]

Global flags (before the command):
  -db PATH   library file, overrides store.path
  -v         log to stderr`

type app struct {
	cfg   config.Config
	log   logger.Logger
	store *persistence.Store
	repos persistence.Repositories
}

func main() {
	global := flag.NewFlagSet("mediactl", flag.ExitOnError)
	dbPath := global.String("db", "", "library file, overrides store.path")
	verbose := global.Bool("v", false, "log to stderr")
	global.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	_ = global.Parse(os.Args[1:])

	args := global.Args()
	if len(args) == 0 {
		global.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		fatalf("cannot load config: %v", err)
	}
	if *dbPath != "" {
		cfg.Store.Path = *dbPath
	}

	log := logger.NewNopLogger()
	if *verbose {
		log = logger.NewZapLogger(cfg.App.Env)
	}
	defer log.Sync()

	store := persistence.NewBoltStore(cfg, log)
	defer store.Close()
	if err := store.Ready(ctx); err != nil {
		fatalf("cannot open library %s: %v", cfg.Store.Path, err)
	}
	a := &app{cfg: cfg, log: log, store: store, repos: persistence.NewRepositories(store, log)}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "import":
		err = a.runImport(ctx, rest)
	case "stats":
		err = a.runStats(ctx)
	case "purge":
		err = a.runPurge(ctx)
	case "backup":
		err = a.runBackup(ctx, rest)
	default:
		global.Usage()
		os.Exit(2)
	}
	if err != nil {
		fatalf("%s: %v", cmd, err)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "mediactl: "+format+"\n", args...)
	os.Exit(1)
}

func (a *app) runImport(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("import", flag.ExitOnError)
	albumID := fset.Int64("album", 0, "album id to put every file into")
	tags := fset.String("tags", "", "comma separated tags for every file")
	workers := fset.Int("workers", runtime.NumCPU(), "parallel file readers")
	_ = fset.Parse(args)
	if fset.NArg() != 1 {
		return fmt.Errorf("expected exactly one directory")
	}
	root := fset.Arg(0)

	library := mediaUC.NewLibraryUseCase(a.repos.Media, a.repos.Trash, nil, a.log)
	tagUseCase := tagUC.NewTagUseCase(a.repos.Tags, nil, a.log)
	importer := mediaUC.NewImportUseCase(library, metadata.NewExtractor(a.log), tagUseCase, a.log)

	opts := mediaUC.ImportOptions{Tags: splitTags(*tags)}
	if *albumID > 0 {
		if _, err := a.repos.Albums.FindByID(ctx, *albumID); err != nil {
			return err
		}
		opts.AlbumID = albumID
	}
	if len(opts.Tags) > 0 {
		if err := tagUseCase.Ensure(ctx, opts.Tags); err != nil {
			a.log.Warn("Could not register import tags", zap.Error(err))
		}
	}

	start := time.Now()
	paths := make(chan string, 100)
	files := make(chan mediaUC.ImportFile, 100)
	var wg sync.WaitGroup

	// Discovery
	go func() {
		defer close(paths)
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				a.log.Warn("Skipping unreadable path", zap.String("path", path), zap.Error(err))
				return nil
			}
			if d.IsDir() || !looksLikeMedia(path) {
				return nil
			}
			select {
			case paths <- path:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()

	// Readers
	if *workers < 1 {
		*workers = 1
	}
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range paths {
				f, err := readImportFile(path)
				if err != nil {
					fmt.Fprintf(os.Stderr, "skip %s: %v\n", path, err)
					continue
				}
				files <- f
			}
		}()
	}
	go func() {
		wg.Wait()
		close(files)
	}()

	// Single writer; the store serializes writes anyway.
	var imported, rejected int
	var bytes int64
	for f := range files {
		if ctx.Err() != nil {
			continue
		}
		item, err := importer.ImportOne(ctx, f, opts)
		if err != nil {
			rejected++
			fmt.Fprintf(os.Stderr, "reject %s: %v\n", f.Name, err)
			continue
		}
		imported++
		bytes += item.Size
	}

	fmt.Printf("Imported %d files (%s), rejected %d, in %s\n",
		imported, humanize.IBytes(uint64(bytes)), rejected, time.Since(start).Round(time.Millisecond))
	return ctx.Err()
}

func readImportFile(path string) (mediaUC.ImportFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return mediaUC.ImportFile{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return mediaUC.ImportFile{}, err
	}
	modified := info.ModTime()
	return mediaUC.ImportFile{
		Name:         filepath.Base(path),
		Data:         data,
		DeclaredMIME: mime.TypeByExtension(strings.ToLower(filepath.Ext(path))),
		LastModified: &modified,
	}, nil
}

func looksLikeMedia(path string) bool {
	declared := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = declared[:i]
	}
	return strings.HasPrefix(declared, "image/") || strings.HasPrefix(declared, "video/")
}

func splitTags(raw string) []string {
	var out []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (a *app) runStats(ctx context.Context) error {
	stats, err := a.repos.Media.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Items:  %d (%s)\n", stats.TotalItems, humanize.IBytes(uint64(stats.TotalSize)))
	fmt.Printf("Images: %d (%s)\n", stats.ImageCount, humanize.IBytes(uint64(stats.ImageSize)))
	fmt.Printf("Videos: %d (%s)\n", stats.VideoCount, humanize.IBytes(uint64(stats.VideoSize)))
	return nil
}

func (a *app) runPurge(ctx context.Context) error {
	uc := trashUC.NewTrashUseCase(a.repos.Trash, a.store.Retention(), nil, a.log)
	n, err := uc.PurgeExpired(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Purged %d expired trash entries\n", n)
	return nil
}

func (a *app) runBackup(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("backup", flag.ExitOnError)
	out := fset.String("out", "", "write the snapshot to this file instead of uploading")
	_ = fset.Parse(args)

	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		n, err := backupUC.NewBackupUseCase(a.cfg, a.store, nil, a.log).WriteTo(ctx, f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %s to %s\n", humanize.IBytes(uint64(n)), *out)
		return nil
	}

	uploader, err := media_storage.NewUploader(ctx, a.cfg, a.log)
	if err != nil {
		return err
	}
	res, err := backupUC.NewBackupUseCase(a.cfg, a.store, uploader, a.log).Execute(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Uploaded %s to %s\n", humanize.IBytes(uint64(res.Bytes)), res.URL)
	return nil
}
