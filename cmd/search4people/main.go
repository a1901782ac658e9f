package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/kataras/golog"

	"github.com/smallnest/search4people/flow"
	"github.com/smallnest/search4people/llm"
	"github.com/smallnest/search4people/log"
	"github.com/smallnest/search4people/server"
	"github.com/smallnest/search4people/store"
	"github.com/smallnest/search4people/store/memory"
	"github.com/smallnest/search4people/store/redis"
	"github.com/smallnest/search4people/store/sqlite"
	"github.com/smallnest/search4people/tools"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	candidateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	promptStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	reportStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func main() {
	_ = godotenv.Load()

	serve := flag.Bool("serve", false, "Run the HTTP server")
	firstName := flag.String("first-name", "", "First name to search for")
	lastName := flag.String("last-name", "", "Last name to search for")
	surname := flag.String("surname", "", "Middle or family name to search for")
	phone := flag.String("phone", "", "Phone number to search for")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	logger := log.NewGologLogger(golog.Default)
	if *verbose {
		logger.SetLevel(log.LogLevelDebug)
	} else {
		logger.SetLevel(log.LogLevelWarn)
	}
	log.SetDefaultLogger(logger)

	cfg := server.ConfigFromEnv()
	client := llm.NewFromEnv()
	engine := flow.New(
		tools.NewDuckDuckGoSearch(),
		tools.NewPageFetcher(),
		client,
		flow.WithLogger(logger),
		flow.WithMaxResults(cfg.MaxResults),
	)

	if *serve {
		runServer(cfg, engine, logger)
		return
	}

	inputs := map[string]string{}
	if *firstName != "" {
		inputs["first_name"] = *firstName
	}
	if *lastName != "" {
		inputs["last_name"] = *lastName
	}
	if *surname != "" {
		inputs["surname"] = *surname
	}
	if *phone != "" {
		inputs["phone"] = *phone
	}
	if len(inputs) == 0 {
		fmt.Println("Usage: search4people -first-name \"Jane\" -last-name \"Doe\" [-surname ...] [-phone ...]")
		fmt.Println("       search4people -serve")
		os.Exit(1)
	}

	fmt.Println(titleStyle.Render("Search4People"))
	fmt.Printf("Provider: %s (%s)\n\n", client.Provider(), client.Model())

	runInteractive(engine, inputs)
}

// runInteractive drives the workflow from the terminal, pausing to ask about
// each offered candidate until the run ends.
func runInteractive(engine *flow.Engine, inputs map[string]string) {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	state, report, err := engine.Run(ctx, inputs, nil, "")
	if err != nil {
		fmt.Println(errorStyle.Render("workflow failed: " + err.Error()))
		os.Exit(1)
	}

	for state.AwaitingUser {
		candidate := state.CurrentCandidate()
		if candidate == nil {
			break
		}
		fmt.Println(candidateStyle.Render(fmt.Sprintf("Candidate %d of %d", state.CurrentIndex+1, len(state.Candidates))))
		fmt.Printf("  Title:   %s\n", candidate.Title)
		fmt.Printf("  URL:     %s\n", candidate.URL)
		if candidate.Snippet != "" {
			fmt.Printf("  Snippet: %s\n", candidate.Snippet)
		}
		fmt.Print(promptStyle.Render("Is this the right person? [yes/no] "))

		line, readErr := reader.ReadString('\n')
		if readErr != nil {
			fmt.Println()
			return
		}
		decision := strings.TrimSpace(line)

		state, report, err = engine.Run(ctx, nil, state, decision)
		if err != nil {
			fmt.Println(errorStyle.Render("workflow failed: " + err.Error()))
			os.Exit(1)
		}
	}

	fmt.Println()
	if report != "" {
		fmt.Println(titleStyle.Render("Report"))
		fmt.Println(reportStyle.Render(report))
	}
	if state.Summary != "" {
		fmt.Println("Summary:", state.Summary)
	}
}

func runServer(cfg server.Config, engine *flow.Engine, logger log.Logger) {
	st, err := openStore(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("failed to open store: "+err.Error()))
		os.Exit(1)
	}
	defer st.Close()

	runner := server.NewRunner(st, engine, logger)
	srv := server.New(st, runner, logger)

	fmt.Println(titleStyle.Render("Search4People server"))
	fmt.Printf("Listening on %s (store: %s)\n", cfg.Addr, cfg.StoreBackend)
	if err := http.ListenAndServe(cfg.Addr, srv.Routes()); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

func openStore(cfg server.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case "memory":
		return memory.NewMemoryPersonStore(), nil
	case "redis":
		return redis.NewRedisPersonStore(redis.Options{Addr: cfg.RedisAddr})
	default:
		return sqlite.NewSqlitePersonStore(sqlite.Options{Path: cfg.SqlitePath})
	}
}
