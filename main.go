package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/pandadocs/rag-assistant/config"
	"github.com/pandadocs/rag-assistant/embeddings"
	"github.com/pandadocs/rag-assistant/ingestion"
	"github.com/pandadocs/rag-assistant/rag"
	"github.com/pandadocs/rag-assistant/store"
	"github.com/pandadocs/rag-assistant/tui"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, cfgPath, err := config.LoadDefault()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	logger.Printf("using config %s", cfgPath)

	switch os.Args[1] {
	case "build":
		buildCmd(cfg, logger, os.Args[2:])
	case "ask":
		askCmd(cfg, logger, os.Args[2:])
	case "chat":
		chatCmd(cfg, logger, os.Args[2:])
	case "clear":
		clearCmd(cfg, logger, os.Args[2:])
	default:
		logger.Printf("unknown command: %s", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func buildCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("build", flag.ExitOnError)
	docsDir := flags.String("dir", cfg.DocsDir, "path to the documentation tree to index")
	yes := flags.Bool("yes", false, "skip the cost confirmation prompt")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse build flags: %v", err)
	}

	if cfg.APIKey() == "" {
		logger.Fatalf("%s is not set; configure the embedding service credential before building", config.APIKeyEnv)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	splitter := ingestion.NewSplitter(cfg.Chunking.Size, cfg.Chunking.Overlap)
	svc := ingestion.NewService(splitter, logger)

	chunks, err := svc.IngestDirectory(*docsDir)
	if err != nil {
		logger.Fatalf("load documents: %v", err)
	}
	if len(chunks) == 0 {
		logger.Fatalf("no documents produced any chunks under %s; nothing to index", *docsDir)
	}

	fmt.Printf("Chunks to embed: %d\n", len(chunks))
	fmt.Printf("Estimated tokens: %d (model %s)\n", ingestion.EstimateTokens(chunks), cfg.Embedding.Model)

	if !*yes && !confirm("Start embedding? This will incur API cost") {
		logger.Println("build aborted")
		return
	}

	embedder, err := embeddings.NewEmbedder(cfg, logger)
	if err != nil {
		logger.Fatalf("embedder setup: %v", err)
	}

	gateway, err := store.Create(ctx, cfg, embedder, logger)
	if err != nil {
		logger.Fatalf("open vector store: %v", err)
	}
	defer gateway.Close()

	if err := gateway.Build(ctx, chunks); err != nil {
		logger.Fatalf("build failed: %v", err)
	}
	logger.Printf("index build complete: %d chunks in collection %q", len(chunks), cfg.Collection)
}

func askCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("ask", flag.ExitOnError)
	question := flags.String("question", "", "question to ask the assistant")
	k := flags.Int("k", cfg.RetrievalK, "number of context chunks to retrieve (1-10)")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse ask flags: %v", err)
	}

	if strings.TrimSpace(*question) == "" {
		fmt.Print("Enter your question: ")
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			*question = scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			logger.Fatalf("read question: %v", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	engine := newEngine(ctx, cfg, logger)
	if err := engine.Configure(cfg.LLM.Model, cfg.LLM.BaseURL, *k); err != nil {
		logger.Fatalf("configure engine: %v", err)
	}

	answer, err := engine.Answer(ctx, *question)
	if err != nil {
		logger.Fatalf("answer failed: %v", err)
	}
	fmt.Println(answer)
}

func chatCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("chat", flag.ExitOnError)
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse chat flags: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	engine := newEngine(ctx, cfg, logger)
	if err := engine.Configure(cfg.LLM.Model, cfg.LLM.BaseURL, cfg.RetrievalK); err != nil {
		logger.Fatalf("configure engine: %v", err)
	}

	pool := rag.NewPool(engine)
	program := tea.NewProgram(tui.New(pool, cfg.Theme), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		logger.Fatalf("run assistant shell: %v", err)
	}
	pool.Wait()
}

func clearCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("clear", flag.ExitOnError)
	confirmed := flags.Bool("confirm", false, "skip confirmation prompt")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse clear flags: %v", err)
	}

	if !*confirmed && !confirm(fmt.Sprintf("This will permanently delete collection %q. Continue", cfg.Collection)) {
		logger.Println("clear aborted")
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	gateway, err := store.Open(ctx, cfg, nil, logger)
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			logger.Println("no persisted collection found; nothing to clear")
			return
		}
		logger.Fatalf("open vector store: %v", err)
	}
	defer gateway.Close()

	if err := gateway.Drop(ctx); err != nil {
		logger.Fatalf("clear collection: %v", err)
	}
	logger.Printf("collection %q cleared", cfg.Collection)
}

// newEngine wires the query-phase pipeline. An unreadable store degrades
// the engine to context-free answers instead of aborting.
func newEngine(ctx context.Context, cfg config.Config, logger *log.Logger) *rag.Engine {
	var retriever rag.Retriever

	embedder, err := embeddings.NewEmbedder(cfg, logger)
	if err != nil {
		logger.Printf("embedder unavailable (%v); answers will not use documentation context", err)
	} else {
		gateway, err := store.Open(ctx, cfg, embedder, logger)
		if err != nil {
			logger.Printf("vector store unavailable (%v); answers will not use documentation context", err)
		} else {
			retriever = gateway
		}
	}

	return rag.NewEngine(retriever, cfg.LLM.Provider, nil, logger)
}

func confirm(prompt string) bool {
	fmt.Printf("%s? [y/N]: ", prompt)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}

func printUsage() {
	fmt.Println("Usage: rag-assistant <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  build   Index the documentation tree into the local vector store")
	fmt.Println("  ask     Ask a single question against the indexed documentation")
	fmt.Println("  chat    Open the interactive assistant shell")
	fmt.Println("  clear   Remove the persisted collection")
}
