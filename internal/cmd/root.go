package cmd

import (
	"fmt"
	"io"
	"log/slog"
	nethttp "net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	sah "github.com/meigma/sah/core"
	"github.com/meigma/sah/core/cache/lru"
	sahhttp "github.com/meigma/sah/core/http"
	"github.com/meigma/sah/internal/version"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	headerPath   string
	dataPath     string
	dataURL      string
	dataHeaders  []string
	dataTimeout  time.Duration
	dataSizeTTL  time.Duration
	dataIfMatch  bool
	charset      string
	strict       bool
	logLevel     string
	cacheEntries int
}

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "sah",
		Short: "Inspect and extract SAH/SAF game archives",
		Long: `sah reads two-file game archives: a header (data.sah) holding the
folder tree and a data blob (data.saf) holding file contents.

Paths are slash-separated and matched case-insensitively.`,
		Version:       version.GetFullVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.headerPath, "header", "H", sah.DefaultHeaderName, "path to the header file")
	flags.StringVarP(&opts.dataPath, "data", "D", sah.DefaultDataName, "path to the data file")
	flags.StringVar(&opts.dataURL, "data-url", "", "read the data file over HTTP range requests instead of --data")
	flags.StringArrayVar(&opts.dataHeaders, "data-header", nil, "extra request header for --data-url as 'Key: Value' (repeatable)")
	flags.DurationVar(&opts.dataTimeout, "data-timeout", 30*time.Second, "timeout for each --data-url request")
	flags.DurationVar(&opts.dataSizeTTL, "data-size-ttl", 0, "reuse the remote data size for this long instead of checking before every read")
	flags.BoolVar(&opts.dataIfMatch, "data-if-match", true, "fail reads if the remote data changes between size check and read")
	flags.StringVar(&opts.charset, "charset", "", "IANA charset of names in the header, e.g. windows-1252 (default UTF-8)")
	flags.BoolVar(&opts.strict, "strict", false, "require every path segment to match")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	flags.IntVar(&opts.cacheEntries, "cache-entries", 0, "keep up to N file contents in memory (0 disables)")

	groupInspect := "inspect"
	groupFilesystem := "filesystem"
	rootCmd.AddGroup(&cobra.Group{ID: groupInspect, Title: "Inspection"})
	rootCmd.AddGroup(&cobra.Group{ID: groupFilesystem, Title: "Filesystem Operations"})

	infoCmd := newInfoCmd(opts)
	lsCmd := newLsCmd(opts)
	catCmd := newCatCmd(opts)
	extractCmd := newExtractCmd(opts)
	mountCmd := newMountCmd(opts)

	infoCmd.GroupID = groupInspect
	lsCmd.GroupID = groupInspect
	catCmd.GroupID = groupInspect
	extractCmd.GroupID = groupFilesystem
	mountCmd.GroupID = groupFilesystem

	rootCmd.AddCommand(infoCmd, lsCmd, catCmd, extractCmd, mountCmd)
	return rootCmd
}

// logger builds a text logger on the command's stderr.
func (o *rootOptions) logger(cmd *cobra.Command) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(o.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", o.logLevel, err)
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})), nil
}

// nameEncoding looks up --charset. UTF-8 and an empty value mean the
// default lossy UTF-8 decoding.
func (o *rootOptions) nameEncoding() (encoding.Encoding, error) {
	name := strings.TrimSpace(o.charset)
	if name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown --charset %q: %w", o.charset, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported --charset %q", o.charset)
	}
	return enc, nil
}

// openArchive opens the archive named by the persistent flags. The returned
// closer releases the data file and must be called when done.
func (o *rootOptions) openArchive(cmd *cobra.Command) (*sah.Archive, io.Closer, error) {
	logger, err := o.logger(cmd)
	if err != nil {
		return nil, nil, err
	}
	enc, err := o.nameEncoding()
	if err != nil {
		return nil, nil, err
	}

	archiveOpts := []sah.Option{
		sah.WithLogger(logger),
		sah.WithStrictPaths(o.strict),
		sah.WithNameEncoding(enc),
	}
	if o.cacheEntries > 0 {
		c, err := lru.New(o.cacheEntries)
		if err != nil {
			return nil, nil, fmt.Errorf("create cache: %w", err)
		}
		archiveOpts = append(archiveOpts, sah.WithCache(c))
	}

	if o.dataURL == "" {
		af, err := sah.Open(o.headerPath, o.dataPath, archiveOpts...)
		if err != nil {
			return nil, nil, err
		}
		return af.Archive, af, nil
	}

	sourceOpts, err := o.httpSourceOptions()
	if err != nil {
		return nil, nil, err
	}
	src, err := sahhttp.NewSource(o.dataURL, sourceOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("open data url: %w", err)
	}
	headerFile, err := os.Open(o.headerPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open header file: %w", err)
	}
	defer headerFile.Close()
	archive, err := sah.New(headerFile, src, archiveOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("decode %s: %w", o.headerPath, err)
	}
	return archive, noClose{}, nil
}

// httpSourceOptions builds the remote data source options from flags.
func (o *rootOptions) httpSourceOptions() ([]sahhttp.Option, error) {
	opts := []sahhttp.Option{
		sahhttp.WithClient(&nethttp.Client{Timeout: o.dataTimeout}),
		sahhttp.WithSizeTTL(o.dataSizeTTL),
		sahhttp.WithConditionalReads(o.dataIfMatch),
	}
	for _, h := range o.dataHeaders {
		key, value, ok := strings.Cut(h, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --data-header %q: want 'Key: Value'", h)
		}
		opts = append(opts, sahhttp.WithHeader(key, strings.TrimSpace(value)))
	}
	return opts, nil
}

// noClose is the closer for archives that hold no open files.
type noClose struct{}

func (noClose) Close() error { return nil }
