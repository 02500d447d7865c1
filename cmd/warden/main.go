// Command warden is a local AI SOC analyst. It answers a single free-text
// query from the arguments, or serves line-oriented queries over TCP with
// -listen.
package main

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dimiro1/banner"

	"github.com/wardenhq/warden/analyst"
	"github.com/wardenhq/warden/config"
	"github.com/wardenhq/warden/intel"
	"github.com/wardenhq/warden/llm"
	"github.com/wardenhq/warden/logging"
	"github.com/wardenhq/warden/tools"
)

const version = "dev"

func main() {
	configPath := flag.String("config", "", "path to warden.yaml (optional)")
	listen := flag.String("listen", "", "serve queries over TCP on this address instead of answering once")
	flag.Parse()

	if err := run(*configPath, *listen, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "warden:", err)
		os.Exit(1)
	}
}

func run(configPath, listen string, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.Init(cfg.LogLevel)

	printBanner()

	registry := tools.NewRegistry()
	abuseClient := intel.NewAbuseIPDBClient(intel.AbuseIPDBConfig{
		APIKey:  cfg.Intel.AbuseIPDBKey,
		Timeout: cfg.Intel.Timeout(),
	})
	foxClient := intel.NewThreatFoxClient(intel.ThreatFoxConfig{
		APIKey:  cfg.Intel.ThreatFoxKey,
		Timeout: cfg.Intel.Timeout(),
	})
	for _, tool := range []tools.Tool{
		tools.NewIPReputationTool(abuseClient),
		tools.NewThreatFoxTool(foxClient),
		tools.NewAdvisoryTool(0),
	} {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}

	provider := llm.NewLiteLLMProvider(llm.ProviderConfig{
		BaseURL:     cfg.Model.BaseURL,
		APIKey:      cfg.Model.APIKey,
		Model:       cfg.Model.Name,
		Temperature: cfg.Model.Temperature,
		MaxTokens:   cfg.Model.MaxTokens,
		Timeout:     cfg.Model.Timeout(),
	})
	defer provider.Close()

	executor := tools.NewExecutor(registry, &tools.ExecutorConfig{Timeout: cfg.Intel.Timeout()})
	warden := analyst.New(provider, registry, executor, analyst.Config{
		MaxTurns:           cfg.Analyst.MaxTurns,
		MaxCorrections:     cfg.Analyst.MaxCorrections,
		UnavailableRetries: cfg.Analyst.UnavailableRetries,
	}, logging.Component(logger, "analyst"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if listen != "" {
		return serve(ctx, listen, warden, logging.Component(logger, "server"))
	}

	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return fmt.Errorf("no query given; pass a question or use -listen")
	}

	report, err := warden.Analyze(ctx, query)
	if err != nil {
		return err
	}
	fmt.Println(report.Advisory)
	return nil
}

// serve answers newline-delimited queries over TCP, one connection at a
// time per goroutine. Each line is one independent request.
func serve(ctx context.Context, addr string, warden *analyst.Analyst, logger *slog.Logger) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	defer listener.Close()
	logger.Info("listening", slog.String("addr", addr))

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		go handleConn(ctx, conn, warden, logger)
	}
}

func handleConn(ctx context.Context, conn net.Conn, warden *analyst.Analyst, logger *slog.Logger) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024)
	for scanner.Scan() {
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if strings.EqualFold(query, "exit") || strings.EqualFold(query, "quit") {
			return
		}

		report, err := warden.Analyze(ctx, query)
		if err != nil {
			logger.Error("request failed", slog.Any("error", err))
			fmt.Fprintln(conn, "analysis failed; see server logs")
			continue
		}
		fmt.Fprintln(conn, report.Advisory)
	}
}

func printBanner() {
	tpl := "{{ .Title \"WARDEN\" \"\" 0 }}\nVersion: " + version + "\n"
	banner.Init(os.Stdout, true, true, bytes.NewBufferString(tpl))
}
