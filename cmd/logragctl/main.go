// Command logragctl indexes log files into a lograg server and asks questions about them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/lograg/internal/version"
	"github.com/kailas-cloud/lograg/pkg/client"
)

const usage = `usage: logragctl [global flags] <command> [flags] [args]

commands:
  index  <file>...   index log files (document id = file name)
  ask    <question>  ask a question about the indexed logs
  search <question>  show matching chunks without an answer
  delete <id>        delete one document
  stats              show tenant statistics
  clear              delete everything the tenant indexed
  health             show server health
  version            print the client version

global flags:
`

var (
	bold  = color.New(color.Bold).SprintFunc()
	green = color.New(color.FgGreen, color.Bold).SprintFunc()
	cyan  = color.New(color.FgCyan).SprintFunc()
	red   = color.New(color.FgRed, color.Bold).SprintFunc()
	faint = color.New(color.Faint).SprintFunc()
)

func main() {
	_ = godotenv.Load()

	global := flag.NewFlagSet("logragctl", flag.ExitOnError)
	url := global.String("url", envOr("LOGRAG_URL", "http://localhost:8080"), "server URL")
	apiKey := global.String("api-key", os.Getenv("LOGRAG_API_KEY"), "API key")
	project := global.String("project", os.Getenv("LOGRAG_PROJECT"), "project id")
	user := global.String("user", os.Getenv("LOGRAG_USER"), "user id")
	timeout := global.Duration("timeout", 2*time.Minute, "request timeout")
	global.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		global.PrintDefaults()
	}
	_ = global.Parse(os.Args[1:])

	if global.NArg() == 0 {
		global.Usage()
		os.Exit(2)
	}

	c, err := client.New(*url,
		client.WithAPIKey(*apiKey),
		client.WithTenant(*project, *user),
	)
	if err != nil {
		fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	cmd, args := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "version":
		fmt.Println("logragctl " + version.String())
	case "index":
		err = runIndex(ctx, c, args)
	case "ask":
		err = runAsk(ctx, c, args)
	case "search":
		err = runSearch(ctx, c, args)
	case "delete":
		err = runDelete(ctx, c, args)
	case "stats":
		err = runStats(ctx, c)
	case "clear":
		err = runClear(ctx, c, args)
	case "health":
		err = runHealth(ctx, c)
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		fatal(err)
	}
}

func runIndex(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	format := fs.String("format", "", "log format: standard, jsonl, access, syslog, unknown (default: detect)")
	dryRun := fs.Bool("dry-run", false, "chunk only, store nothing")
	workers := fs.Int("workers", 4, "files uploaded concurrently")
	_ = fs.Parse(args)

	files := fs.Args()
	if len(files) == 0 {
		return errors.New("index: no files given")
	}

	var (
		mu     sync.Mutex
		failed int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(*workers)
	for _, path := range files {
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err == nil {
				var ack client.IndexAck
				ack, err = c.Index(gctx, filepath.Base(path), string(data), *format, *dryRun)
				if err == nil {
					mu.Lock()
					fmt.Printf("%s %s: %d chunks (%s), replaced %d\n",
						green("✓"), bold(ack.DocumentID), ack.Chunks, ack.Format, ack.Replaced)
					mu.Unlock()
					return nil
				}
			}
			mu.Lock()
			failed++
			fmt.Fprintf(os.Stderr, "%s %s: %v\n", red("✗"), path, err)
			mu.Unlock()
			// one bad file doesn't stop the others
			return nil
		})
	}
	_ = g.Wait()

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

func queryFlags(name string, args []string) func() client.Query {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	mode := fs.String("mode", "", "retrieval mode: vector, hybrid")
	maxChunks := fs.Int("max-chunks", 0, "maximum chunks to retrieve")
	threshold := fs.Float64("threshold", -1, "similarity threshold in [0,1]")
	level := fs.String("level", "", "only chunks with this level")
	source := fs.String("source", "", "only chunks from this source")
	since := fs.Duration("since", 0, "only chunks newer than this")
	_ = fs.Parse(args)

	return func() client.Query {
		q := client.Query{Question: strings.Join(fs.Args(), " "), Mode: *mode}
		if *maxChunks > 0 {
			q.MaxChunks = maxChunks
		}
		if *threshold >= 0 {
			q.SimilarityThreshold = threshold
		}
		if *level != "" || *source != "" || *since > 0 {
			q.Filters = &client.Filters{Level: *level, Source: *source}
			if *since > 0 {
				from := time.Now().Add(-*since).UTC()
				q.Filters.From = &from
			}
		}
		return q
	}
}

func runAsk(ctx context.Context, c *client.Client, args []string) error {
	build := queryFlags("ask", args)
	ans, err := c.Ask(ctx, build())
	if err != nil {
		return err
	}

	if ans.Partial() {
		fmt.Printf("%s %s\n\n", red("No answer:"), ans.FailureReason)
	} else {
		fmt.Println(ans.Answer)
		fmt.Println()
	}
	fmt.Println(faint(fmt.Sprintf("confidence %.2f  model %s  tokens %d  %dms",
		ans.Confidence, ans.ModelUsed, ans.TokensUsed, ans.LatencyMs)))
	printSources(ans.Sources)
	return nil
}

func runSearch(ctx context.Context, c *client.Client, args []string) error {
	build := queryFlags("search", args)
	res, err := c.Search(ctx, build(), 0)
	if err != nil {
		return err
	}
	if len(res) == 0 {
		fmt.Println("no matching chunks")
		return nil
	}
	for _, s := range res {
		fmt.Println(cyan(sourceHeader(s)))
		fmt.Println(s.Content)
		fmt.Println()
	}
	return nil
}

func printSources(sources []client.Source) {
	if len(sources) == 0 {
		return
	}
	fmt.Println(bold("Sources:"))
	for _, s := range sources {
		fmt.Println("  " + cyan(sourceHeader(s)))
	}
}

func sourceHeader(s client.Source) string {
	h := fmt.Sprintf("%s:%d-%d  sim %.3f", s.DocumentID, s.StartLine, s.EndLine, s.Similarity)
	if s.RerankScore != nil {
		h += fmt.Sprintf("  rerank %.3f", *s.RerankScore)
	}
	if s.Level != "" {
		h += "  " + s.Level
	}
	return h
}

func runDelete(ctx context.Context, c *client.Client, args []string) error {
	if len(args) != 1 {
		return errors.New("delete: expected one document id")
	}
	n, err := c.Delete(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s deleted %d records of %s\n", green("✓"), n, bold(args[0]))
	return nil
}

func runStats(ctx context.Context, c *client.Client) error {
	st, err := c.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s %d\n%s %d\n", bold("documents:"), st.DocumentCount, bold("records:  "), st.RecordCount)
	if st.Oldest != nil && st.Newest != nil {
		fmt.Printf("%s %s .. %s\n", bold("range:    "),
			st.Oldest.Format(time.RFC3339), st.Newest.Format(time.RFC3339))
	}
	return nil
}

func runClear(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	yes := fs.Bool("yes", false, "confirm")
	_ = fs.Parse(args)
	if !*yes {
		return errors.New("clear: pass -yes to delete everything the tenant indexed")
	}
	n, err := c.Clear(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s deleted %d records\n", green("✓"), n)
	return nil
}

func runHealth(ctx context.Context, c *client.Client) error {
	h, err := c.Health(ctx)
	if err != nil {
		return err
	}
	status := green(h.Status)
	if h.Status != "ok" {
		status = red(h.Status)
	}
	fmt.Printf("%s %s\n", bold("status:"), status)
	for name, v := range h.Checks {
		fmt.Printf("  %-10s %s\n", name, v)
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", red("error:"), err)
	os.Exit(1)
}
