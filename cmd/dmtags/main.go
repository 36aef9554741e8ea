package main

import (
	"flag"
	"fmt"
	"image"
	"io"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/gatan-dm/dm"
	"github.com/wippyai/gatan-dm/dump"
	"github.com/wippyai/gatan-dm/errors"
	"github.com/wippyai/gatan-dm/pixels"
)

const thumbnailSuffix = ".tn.png"

type options struct {
	cfg         config
	file        string
	get         string
	prefix      string
	thumb       string
	info        bool
	renderImage bool
	compress    bool
	interactive bool
	verbose     bool
	styled      bool
}

func main() {
	var (
		format      = flag.String("format", "text", "Output format: text, yaml or json")
		info        = flag.Bool("info", false, "Print experiment info and image summary")
		get         = flag.String("get", "", "Print the value of one tag path")
		prefix      = flag.String("prefix", "", "Only print tags whose path starts with prefix")
		dumpDir     = flag.String("dump", "", "Write a tag dump file to this directory")
		compress    = flag.Bool("zstd", false, "Compress the tag dump with zstd")
		charsetName = flag.String("charset", "utf-8", "Charset of the tag dump")
		thumb       = flag.String("thumb", "", "Write the embedded thumbnail as PNG to this path")
		tn          = flag.Bool("tn", false, "Write the embedded thumbnail to <file>.tn.png")
		image       = flag.Int("image", 1, "Image list index used by -info; with -thumb, render that image instead")
		interactive = flag.Bool("i", false, "Interactive tag browser")
		configPath  = flag.String("config", "", "YAML config file")
		verbose     = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: dmtags [flags] <file.dm3|file.dm4>")
		fmt.Fprintln(os.Stderr, "       dmtags -info <file>")
		fmt.Fprintln(os.Stderr, "       dmtags -i <file>  (interactive mode)")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Flags given explicitly win over the config file.
	render := false
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "format":
			cfg.Format = *format
		case "dump":
			cfg.DumpDir = *dumpDir
		case "charset":
			cfg.Charset = *charsetName
		case "image":
			cfg.Image = *image
			render = true
		}
	})
	if err := cfg.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *tn && *thumb == "" {
		*thumb = thumbnailPath(flag.Arg(0))
	}

	opts := options{
		cfg:         cfg,
		file:        flag.Arg(0),
		get:         *get,
		prefix:      *prefix,
		thumb:       *thumb,
		info:        *info,
		renderImage: render,
		compress:    *compress,
		interactive: *interactive,
		verbose:     *verbose,
		styled:      term.IsTerminal(int(os.Stdout.Fd())),
	}

	if opts.interactive && !(opts.styled && term.IsTerminal(int(os.Stdin.Fd()))) {
		fmt.Fprintln(os.Stderr, "Error: -i needs an interactive terminal")
		os.Exit(1)
	}

	if err := run(opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options, stdout io.Writer) (err error) {
	log, err := newLogger(opts.cfg.LogLevel, opts.verbose)
	if err != nil {
		return errors.Wrap(errors.PhaseCLI, errors.KindInvalidInput, err, "logger")
	}
	defer func() { _ = log.Sync() }()
	dm.SetLogger(log)
	pixels.SetLogger(log)

	f, err := dm.OpenWithOptions(opts.file, opts.cfg.parseOptions(log))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	log.Debug("opened",
		zap.String("file", opts.file),
		zap.Stringer("version", f.Header.Version),
		zap.Int("tags", f.Tags.Len()),
		zap.Uint64("digest", f.Tags.Digest()))

	if opts.interactive {
		return runInteractive(f)
	}

	if opts.cfg.DumpDir != "" {
		path, err := dump.ToFile(opts.cfg.DumpDir, opts.file, f.Tags, dump.Options{
			Charset:  opts.cfg.Charset,
			Compress: opts.compress,
		})
		if err != nil {
			return err
		}
		log.Info("wrote tag dump", zap.String("path", path))
	}

	if opts.thumb != "" {
		if err := writeThumbnail(f, opts, log); err != nil {
			return err
		}
	}

	switch {
	case opts.get != "":
		v, ok := f.Tags.Get(opts.get)
		if !ok {
			return errors.NotFound(errors.PhaseCLI, "tag", opts.get)
		}
		_, err = fmt.Fprintln(stdout, v)
		return err
	case opts.info:
		return writeInfo(stdout, f, opts.cfg.infoFields(), opts.cfg.Image, opts.styled)
	case opts.cfg.DumpDir != "" || opts.thumb != "":
		// Side outputs only.
		return nil
	}

	entries := filtered(f.Tags, opts.prefix)
	switch opts.cfg.Format {
	case "yaml":
		return writeYAML(stdout, entries)
	case "json":
		return writeJSON(stdout, entries)
	default:
		return writeText(stdout, f, entries)
	}
}

// thumbnailPath returns the default thumbnail location next to file.
func thumbnailPath(file string) string {
	return file + thumbnailSuffix
}

// writeThumbnail writes the embedded preview, or a contrast-stretched
// render of the configured image when renderImage is set.
func writeThumbnail(f *dm.File, opts options, log *zap.Logger) (err error) {
	ra := f.ReaderAt()
	if ra == nil {
		return errors.Unsupported(errors.PhaseCLI, "source does not support random access")
	}

	var g *image.Gray
	if opts.renderImage {
		g, err = renderImage(f, ra, opts.cfg.Image)
	} else {
		g, err = pixels.EmbeddedThumbnail(f.Tags, ra)
	}
	if err != nil {
		return err
	}

	out, err := os.Create(opts.thumb)
	if err != nil {
		return errors.Wrap(errors.PhaseCLI, errors.KindIO, err, "create "+opts.thumb)
	}
	defer func() {
		err = multierr.Append(err, out.Close())
	}()

	if err := pixels.WritePNG(out, g); err != nil {
		return err
	}
	log.Info("wrote thumbnail",
		zap.String("path", opts.thumb),
		zap.Bool("embedded", !opts.renderImage),
		zap.Int("width", g.Bounds().Dx()),
		zap.Int("height", g.Bounds().Dy()))
	return nil
}

func renderImage(f *dm.File, ra io.ReaderAt, index int) (*image.Gray, error) {
	img, err := pixels.Describe(f.Tags, index)
	if err != nil {
		return nil, err
	}
	frame, err := pixels.Read(ra, img)
	if err != nil {
		return nil, err
	}

	var low, high float64
	if lo, hi, err := pixels.ContrastLimits(f.Tags); err == nil {
		low, high = float64(lo), float64(hi)
	}
	return pixels.Thumbnail(frame, low, high)
}
