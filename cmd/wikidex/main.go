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
	"compress/bzip2"
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/wikidex"
	"github.com/poiesic/wikidex/ai"
	"github.com/poiesic/wikidex/config"
	"github.com/poiesic/wikidex/core"
	"github.com/poiesic/wikidex/dump"
	"github.com/poiesic/wikidex/ingest"
	"github.com/poiesic/wikidex/storage"
	"github.com/poiesic/wikidex/storage/sqlite"
)

func main() {
	app := &cli.App{
		Name:  "wikidex",
		Usage: "Wiki dump ingestion and semantic search",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "import",
				Usage:  "Parse a wiki dump and import its articles into the corpus",
				Action: importCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "dump",
						Aliases:  []string{"f"},
						Usage:    "Path to the dump file (.xml or .xml.bz2)",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "db",
						Aliases: []string{"d"},
						Usage:   "Path to the corpus database",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of parallel import workers",
					},
					&cli.IntFlag{
						Name:  "sub-batch-size",
						Usage: "Articles committed per transaction",
					},
				},
			},
			{
				Name:   "index",
				Usage:  "Embed dump articles and build the vector index",
				Action: indexCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "dump",
						Aliases:  []string{"f"},
						Usage:    "Path to the dump file (.xml or .xml.bz2)",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "db",
						Aliases: []string{"d"},
						Usage:   "Path to the corpus database",
					},
					&cli.StringFlag{
						Name:  "vectors",
						Usage: "Path to the vector index directory",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search the corpus",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "db",
						Aliases: []string{"d"},
						Usage:   "Path to the corpus database",
					},
					&cli.StringFlag{
						Name:  "vectors",
						Usage: "Path to the vector index directory",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"k"},
						Usage:   "Maximum number of results",
						Value:   10,
					},
					&cli.BoolFlag{
						Name:  "lexical",
						Usage: "Use full-text search instead of the vector index",
					},
				},
			},
			{
				Name:   "categories",
				Usage:  "List categories, or the articles in one category",
				Action: categoriesCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "db",
						Aliases: []string{"d"},
						Usage:   "Path to the corpus database",
					},
					&cli.StringFlag{
						Name:  "category",
						Usage: "Show the articles in this category",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if db := c.String("db"); db != "" {
		cfg.Corpus.Path = db
	}
	if vectors := c.String("vectors"); c.IsSet("vectors") && vectors != "" {
		cfg.Vectors.Path = vectors
	}
	if host := c.String("embedding-host"); host != "" {
		cfg.Embedding.Host = host
	}
	if model := c.String("embedding-model"); model != "" {
		cfg.Embedding.Model = model
	}
	if c.IsSet("workers") {
		cfg.Import.Workers = c.Int("workers")
	}
	if c.IsSet("sub-batch-size") {
		cfg.Import.SubBatchSize = c.Int("sub-batch-size")
	}
	return cfg, nil
}

// parseDump drains the dump file into memory, transparently decompressing
// bzip2 dumps by extension.
func parseDump(ctx context.Context, path string) ([]*core.Article, core.DumpInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.DumpInfo{}, err
	}
	defer f.Close()

	var reader io.Reader = f
	if strings.HasSuffix(path, ".bz2") {
		reader = bzip2.NewReader(f)
	}

	spinner := getSpinner("parsing dump")
	defer spinner.Finish()

	parser := dump.NewParser(reader)
	var articles []*core.Article
	_, err = parser.ParseArticles(ctx, func(article *core.Article) error {
		articles = append(articles, article)
		spinner.Add(1)
		return nil
	})
	if err != nil {
		return nil, core.DumpInfo{}, fmt.Errorf("parsing dump: %w", err)
	}

	return articles, parser.Info(), nil
}

func importCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	articles, info, err := parseDump(ctx, c.String("dump"))
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Dump: %s (generator %s, lang %s)\n",
		c.String("dump"), info.Generator, info.Lang)
	fmt.Fprintf(os.Stderr, "Articles: %d\n", len(articles))

	factory := func(ctx context.Context) (storage.CorpusWriter, error) {
		store, err := sqlite.Open(cfg.Corpus.Path)
		if err != nil {
			return nil, err
		}
		return sqlite.NewWriter(store), nil
	}

	bar := getProgressBar(len(articles), "importing")
	coordinator, err := ingest.NewCoordinator(factory,
		ingest.WithWorkers(cfg.Import.Workers),
		ingest.WithSubBatchSize(cfg.Import.SubBatchSize),
		ingest.WithProgress(func(imported int) {
			bar.Set(imported)
		}),
	)
	if err != nil {
		return err
	}
	defer coordinator.Release()

	imported, err := coordinator.ImportAll(ctx, articles)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	bar.Finish()

	fmt.Fprintln(os.Stderr)
	color.Green("Imported %d articles into %s", imported, cfg.Corpus.Path)
	return nil
}

func indexCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	articles, _, err := parseDump(ctx, c.String("dump"))
	if err != nil {
		return err
	}

	corpus, err := openCorpus(cfg)
	if err != nil {
		return err
	}
	defer corpus.Close()

	searcher, err := corpus.NewSearcher()
	if err != nil {
		return err
	}

	indexed, err := searcher.IndexAll(ctx, articles)
	if err != nil {
		return fmt.Errorf("indexing failed after %d articles: %w", indexed, err)
	}

	color.Green("Indexed %d articles into %s", indexed, cfg.Vectors.Path)
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	query := strings.Join(c.Args().Slice(), " ")
	if query == "" {
		return fmt.Errorf("a query is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	corpus, err := openCorpus(cfg)
	if err != nil {
		return err
	}
	defer corpus.Close()

	searcher, err := corpus.NewSearcher()
	if err != nil {
		return err
	}

	limit := c.Int("limit")

	if c.Bool("lexical") {
		hits, err := searcher.Lexical(ctx, query, limit)
		if err != nil {
			return err
		}
		for _, article := range hits {
			fmt.Printf("%s\n    %s\n", color.CyanString(article.Title), snippet(article.Content))
		}
		return nil
	}

	results, err := searcher.Search(ctx, query, limit)
	if err != nil {
		return err
	}
	for _, result := range results {
		fmt.Printf("%s  %s\n    %s\n",
			color.CyanString(result.Article.Title),
			color.YellowString("%.3f", result.Score),
			snippet(result.Article.Content))
	}
	return nil
}

func categoriesCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	store, err := sqlite.Open(cfg.Corpus.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	reader := sqlite.NewReader(store)

	if category := c.String("category"); category != "" {
		titles, err := reader.ArticlesInCategory(ctx, category)
		if err != nil {
			return err
		}
		for _, title := range titles {
			fmt.Println(title)
		}
		return nil
	}

	categories, err := reader.ListCategories(ctx)
	if err != nil {
		return err
	}
	for _, category := range categories {
		fmt.Println(category)
	}
	return nil
}

func openCorpus(cfg *config.Config) (*wikidex.Corpus, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(cfg.Embedding.Host),
		ai.WithModel(cfg.Embedding.Model),
	)
	return wikidex.OpenCorpus(cfg.Corpus.Path, cfg.Vectors.Path,
		wikidex.WithAIConfig(aiConfig),
		wikidex.WithVectorSection(cfg.Vectors.Section),
	)
}

func snippet(content string) string {
	content = strings.ReplaceAll(content, "\n", " ")
	if len(content) > 120 {
		content = content[:120] + "..."
	}
	return content
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("articles"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
	)
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
