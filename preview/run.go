// Package preview implements render command: it loads markdown sources the
// way previewer host does, renders them for requested width and writes dumps
// of the results.
package preview

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"mdql/archive"
	"mdql/common"
	"mdql/config"
	"mdql/dump"
	"mdql/render"
	"mdql/state"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("preview")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) > 0 {
		if dst, err = filepath.Abs(dst); err != nil {
			return err
		}
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.Width = env.Cfg.Preview.Width
	if cmd.IsSet("width") {
		env.Width = cmd.Float("width")
	}
	if cmd.IsSet("tier") {
		tier, err := common.ParseWidthTier(cmd.String("tier"))
		if err != nil {
			log.Warn("Unknown width tier requested, selecting by width", zap.Error(err))
		} else {
			env.Tier = &tier
		}
	}
	env.Format = env.Cfg.Preview.Format
	if cmd.IsSet("format") {
		env.Format = cmd.String("format")
	}
	env.Overwrite = cmd.Bool("overwrite")

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst), zap.String("format", env.Format))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, log)
}

// process renders markdown file, zip archive or markdown entries under a path
// inside archive. Empty dst means standard output, existing directory gets
// files named after sources.
func process(ctx context.Context, src, dst string, log *zap.Logger) error {
	fi, err := os.Stat(src)
	if err == nil {
		if !fi.Mode().IsRegular() {
			return fmt.Errorf("source is not a regular file (%s)", src)
		}
		zipped, err := archive.IsArchive(src)
		if err != nil {
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if zipped {
			return processArchive(ctx, src, "", dst, log)
		}
		return processFile(ctx, src, dst, log)
	}

	arc, prefix, ok := archive.Split(src)
	if !ok {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return processArchive(ctx, arc, prefix, dst, log)
}

func processFile(ctx context.Context, src, dst string, log *zap.Logger) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("unable to open source: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("unable to stat source: %w", err)
	}
	state.EnvFromContext(ctx).Rpt.Store("source/"+config.CleanFileName(filepath.Base(src)), src)
	return renderSource(ctx, f, fi.Size(), src, dst, log)
}

// processArchive renders every markdown entry under prefix, stopping at the
// first failure.
func processArchive(ctx context.Context, arc, prefix, dst string, log *zap.Logger) error {
	count := 0
	err := archive.Walk(arc, prefix, func(a string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		count++

		r, err := f.Open()
		if err != nil {
			return fmt.Errorf("unable to open %s in archive %s: %w", f.Name, a, err)
		}
		defer r.Close()

		log.Debug("Rendering file from archive", zap.String("archive", a), zap.String("file", f.Name))
		return renderSource(ctx, r, int64(f.UncompressedSize64), f.Name, dst, log)
	})
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("no markdown files found in archive (%s) under %q", arc, prefix)
	}
	state.EnvFromContext(ctx).Rpt.Store("source/"+config.CleanFileName(filepath.Base(arc)), arc)
	return nil
}

// renderSource renders one markdown source and writes its dump.
func renderSource(ctx context.Context, r io.Reader, size int64, name, dst string, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	text, err := Load(r, size, env.Cfg.Preview.MaxFileSize, log)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tier := env.SelectTier()
	doc := render.Render(text, render.Options{
		Tier:           tier,
		AvailableWidth: render.ContentWidth(env.Width, tier, &env.Cfg.Layout),
		Layout:         &env.Cfg.Layout,
		Log:            log.Named("render"),
	})
	if err := doc.Err(); err != nil {
		log.Warn("Document rendered with degradations", zap.String("source", name), zap.Error(err))
	}

	data, err := dump.Encode(env.Format, doc)
	if err != nil {
		return err
	}
	env.Rpt.StoreData("dump/"+dumpName(name, env.Format), data)

	if len(dst) == 0 {
		return write(os.Stdout, data)
	}

	out := outputPath(name, dst, env.Format)
	if _, err := os.Stat(out); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", out)
		}
		log.Warn("Overwriting existing file", zap.String("file", out))
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}
	log.Debug("Dump written", zap.String("file", out), zap.Int("bytes", len(data)))
	return nil
}

func write(w io.Writer, data []byte) error {
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}
	return nil
}

var formatExt = map[string]string{
	"tree": ".tree.txt",
	"json": ".json",
	"xml":  ".xml",
	"text": ".txt",
}

func dumpName(src, format string) string {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	return config.CleanFileName(base) + formatExt[format]
}

// outputPath places dump into dst when it is a directory, otherwise dst is
// the file name.
func outputPath(src, dst, format string) string {
	if fi, err := os.Stat(dst); err == nil && fi.IsDir() {
		return filepath.Join(dst, dumpName(src, format))
	}
	return dst
}
