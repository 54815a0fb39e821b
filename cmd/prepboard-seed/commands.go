package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"prepboard/internal/bootstrap"
	"prepboard/internal/common/storage"
	"prepboard/internal/progress/repository"
	"prepboard/internal/seed"
	"prepboard/pkg/utils/logger"

	"github.com/spf13/cobra"
)

type options struct {
	configPath  string
	dir         string
	bucket      string
	prefix      string
	driver      string
	dsn         string
	schema      bool
	concurrency int
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:   "prepboard-seed",
		Short: "Load company problem lists into the prepboard catalog",
		Long: `Reads one CSV file per company, either from a local directory (--dir)
or from a MinIO bucket prefix (--bucket/--prefix), and inserts any problems
that are not in the catalog yet.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), cmd, opts, out)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "Path to config file")
	flags.StringVar(&opts.dir, "dir", "", "Directory holding company CSV files")
	flags.StringVar(&opts.bucket, "bucket", "", "MinIO bucket holding company CSV files")
	flags.StringVar(&opts.prefix, "prefix", "", "Object key prefix inside the bucket")
	rootCmd.Flags().StringVar(&opts.driver, "driver", "", "Database driver (mysql or sqlite)")
	rootCmd.Flags().StringVar(&opts.dsn, "dsn", "", "Database DSN or SQLite file path")
	rootCmd.Flags().BoolVar(&opts.schema, "schema", false, "Create tables if they do not exist")
	rootCmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "Files fetched and parsed in parallel")

	rootCmd.AddCommand(newUploadCmd(opts, out))
	return rootCmd
}

func newUploadCmd(opts *options, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "upload",
		Short: "Copy the CSV files of --dir into --bucket under --prefix",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.dir == "" {
				return fmt.Errorf("--dir is required")
			}
			cfg, err := loadAppConfig(opts.configPath, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			if opts.bucket != "" {
				cfg.MinIO.Bucket = opts.bucket
			}
			if opts.prefix != "" {
				cfg.MinIO.Prefix = opts.prefix
			}
			if err := initLogger(cfg); err != nil {
				return err
			}
			defer func() {
				_ = logger.Sync()
			}()

			objStorage, err := storage.NewMinIOStorage(cfg.MinIO)
			if err != nil {
				return err
			}
			n, err := seed.Upload(cmd.Context(), seed.DirSource{Dir: opts.dir}, objStorage, cfg.MinIO.Bucket, cfg.MinIO.Prefix)
			fmt.Fprintf(out, "uploaded %d file(s) to %s/%s\n", n, cfg.MinIO.Bucket, cfg.MinIO.Prefix)
			return err
		},
	}
}

func runSeed(ctx context.Context, cmd *cobra.Command, opts *options, out io.Writer) error {
	if (opts.dir == "") == (opts.bucket == "") {
		return fmt.Errorf("exactly one of --dir or --bucket is required")
	}

	cfg, err := loadAppConfig(opts.configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	if err := cfg.applyOptions(opts); err != nil {
		return err
	}
	if err := initLogger(cfg); err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	deps, err := bootstrap.Init(ctx, cfg.Database, &cfg.Redis)
	if err != nil {
		return err
	}
	defer func() {
		_ = deps.Close()
	}()

	source, err := buildSource(cfg, opts)
	if err != nil {
		return err
	}

	catalog := repository.NewCatalogRepository(deps.Provider, deps.CacheOrNil())
	seeder := seed.NewSeeder(deps.Provider, repository.NewCatalogWriter(deps.Provider), catalog, cfg.Concurrency)
	summary, runErr := seeder.Run(ctx, source)
	printSummary(out, summary)
	return runErr
}

func buildSource(cfg *AppConfig, opts *options) (seed.Source, error) {
	if opts.dir != "" {
		return seed.DirSource{Dir: opts.dir}, nil
	}
	objStorage, err := storage.NewMinIOStorage(cfg.MinIO)
	if err != nil {
		return nil, err
	}
	return seed.BucketSource{Storage: objStorage, Bucket: cfg.MinIO.Bucket, Prefix: cfg.MinIO.Prefix}, nil
}

func initLogger(cfg *AppConfig) error {
	if err := logger.Init(cfg.Logger); err != nil {
		return fmt.Errorf("init logger failed: %w", err)
	}
	return nil
}

func printSummary(out io.Writer, summary seed.Summary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tCOMPANY\tPARSED\tINSERTED\tSKIPPED\tERROR")
	for _, file := range summary.Files {
		skipped := 0
		for _, n := range file.Skipped {
			skipped += n
		}
		errText := "-"
		if file.Err != nil {
			errText = file.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n", file.Key, file.Company, file.Parsed, file.Inserted, skipped, errText)
	}
	_ = w.Flush()
	fmt.Fprintf(out, "%d file(s), %d inserted, %d failed in %s\n",
		len(summary.Files), summary.Inserted, summary.Failed, summary.Duration.Round(time.Millisecond))
}
