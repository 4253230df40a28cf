// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/poiesic/vsloader"
	"github.com/poiesic/vsloader/config"
	"github.com/urfave/cli/v2"
)

const configKey = "config"

// newService builds the service for a command. Tests replace it.
var newService = func(c *cli.Context, cfg *config.Config) (*vsloader.Service, error) {
	return vsloader.NewService(c.Context, cfg, vsloader.WithProgress(c.App.ErrWriter))
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	indexFlag := &cli.StringFlag{
		Name:    "index",
		Aliases: []string{"i"},
		Usage:   "Index name (defaults to OPENSEARCH_INDEX_NAME)",
	}
	fileFlag := &cli.StringFlag{
		Name:    "file",
		Aliases: []string{"f"},
		Usage:   "Source file name (defaults to S3_LOADER_FILE_NAME)",
	}

	return &cli.App{
		Name:  "vsloader",
		Usage: "Load tabular data into vector stores",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error); overrides LOG_LEVEL",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Environment file to load before reading settings",
				Value: ".env",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "load",
				Usage:  "Load a file into an index unless the index already exists",
				Action: loadCommand,
				Flags:  []cli.Flag{indexFlag, fileFlag},
			},
			{
				Name:   "reload",
				Usage:  "Delete an index and load a file into a new one",
				Action: loadCommand,
				Flags:  []cli.Flag{indexFlag, fileFlag},
			},
			{
				Name:   "exists",
				Usage:  "Report whether an index exists",
				Action: existsCommand,
				Flags:  []cli.Flag{indexFlag},
			},
			{
				Name:   "delete",
				Usage:  "Delete an index",
				Action: deleteCommand,
				Flags:  []cli.Flag{indexFlag},
			},
			{
				Name:      "search",
				Usage:     "Run a similarity search against an index",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					indexFlag,
					&cli.IntFlag{
						Name:    "k",
						Aliases: []string{"n"},
						Usage:   "Number of results",
						Value:   4,
					},
				},
			},
			{
				Name:   "status",
				Usage:  "List recorded load runs",
				Action: statusCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "index",
						Aliases: []string{"i"},
						Usage:   "Only show runs for this index",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum runs to show (0 for all)",
						Value: 10,
					},
				},
			},
			{
				Name:   "jobs",
				Usage:  "Load the main and skills indexes concurrently",
				Action: jobsCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "recreate",
						Usage: "Delete and reload existing indexes",
					},
				},
			},
		},
	}
}

// setup loads configuration and installs the default logger.
func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return err
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if err := setupLogger(c, cfg); err != nil {
		return err
	}
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]interface{}{}
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

func setupLogger(c *cli.Context, cfg *config.Config) error {
	level, err := cfg.Level()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return nil
}

func configFrom(c *cli.Context) (*config.Config, error) {
	cfg, ok := c.App.Metadata[configKey].(*config.Config)
	if !ok {
		return nil, errors.New("configuration not loaded")
	}
	return cfg, nil
}

// openService returns the service and the index selected by --index.
func openService(c *cli.Context) (*vsloader.Service, string, error) {
	cfg, err := configFrom(c)
	if err != nil {
		return nil, "", err
	}
	index := cfg.OpenSearch.IndexName
	if c.IsSet("index") {
		index = c.String("index")
	}
	svc, err := newService(c, cfg)
	if err != nil {
		return nil, "", err
	}
	return svc, index, nil
}

func loadCommand(c *cli.Context) error {
	svc, index, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	file := svc.Config().SourceFile()
	if c.IsSet("file") {
		file = c.String("file")
	}
	if file == "" {
		return errors.New("source file is required: set --file or S3_LOADER_FILE_NAME")
	}

	job := vsloader.Job{SourceFile: file, IndexName: index, Recreate: c.Command.Name == "reload"}
	result, err := svc.Run(c.Context, job)
	if err != nil {
		return err
	}
	if result.Skipped {
		fmt.Fprintf(c.App.Writer, "Index %s already exists, nothing loaded\n", index)
		return nil
	}
	fmt.Fprintf(c.App.Writer, "Loaded %s into %s: %d documents, %d stored in %d batches\n",
		file, index, result.Documents, result.Stored.Documents, result.Stored.Batches)
	return nil
}

func existsCommand(c *cli.Context) error {
	svc, index, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	client, err := svc.NewClient(c.Context, index)
	if err != nil {
		return err
	}
	defer client.Close()

	exists, err := client.Exists(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s: %t\n", index, exists)
	return nil
}

func deleteCommand(c *cli.Context) error {
	svc, index, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	client, err := svc.NewClient(c.Context, index)
	if err != nil {
		return err
	}
	defer client.Close()

	if _, err := client.Delete(c.Context); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Deleted %s\n", index)
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if query == "" {
		return errors.New("query is required")
	}
	svc, index, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	client, err := svc.NewClient(c.Context, index)
	if err != nil {
		return err
	}
	defer client.Close()

	docs, err := client.Search(c.Context, query, c.Int("k"))
	if err != nil {
		return err
	}
	for i, doc := range docs {
		fmt.Fprintf(c.App.Writer, "%d. [%.4f] %s\n", i+1, doc.Score, doc.PageContent)
	}
	return nil
}

func statusCommand(c *cli.Context) error {
	cfg, err := configFrom(c)
	if err != nil {
		return err
	}
	if cfg.LedgerPath == "" {
		return errors.New("no run ledger: set LEDGER_PATH")
	}
	svc, err := newService(c, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	runs, err := svc.Runs().ListRuns(c.Context, c.String("index"), c.Int("limit"))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tINDEX\tSOURCE\tMODE\tSTATE\tSTORED\tDURATION\tERROR")
	for _, run := range runs {
		state := run.State.String()
		if run.Skipped {
			state = "skipped"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d/%d\t%s\t%s\n",
			run.StartedAt.Local().Format(time.DateTime), run.Index, run.Source, run.Mode,
			state, run.DocsStored, run.Chunks, run.Duration().Round(time.Millisecond), run.Error)
	}
	return w.Flush()
}

func jobsCommand(c *cli.Context) error {
	cfg, err := configFrom(c)
	if err != nil {
		return err
	}
	svc, err := newService(c, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	results, err := svc.RunJobs(c.Context, svc.DefaultJobs(c.Bool("recreate")))
	for _, r := range results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(c.App.Writer, "%s: failed: %v\n", r.Job.IndexName, r.Err)
		case r.Result.Skipped:
			fmt.Fprintf(c.App.Writer, "%s: exists, skipped\n", r.Job.IndexName)
		default:
			fmt.Fprintf(c.App.Writer, "%s: %d documents stored\n", r.Job.IndexName, r.Result.Stored.Documents)
		}
	}
	return err
}
