// Command listmodels prints the Gemini models that can serve generateContent,
// to help pick llm.model.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/yanqian/ai-travelguide/internal/infra/config"
	"github.com/yanqian/ai-travelguide/internal/infra/llm/gemini"
	"github.com/yanqian/ai-travelguide/pkg/logger"
)

func main() {
	// stdout carries the table
	log := logger.NewWithWriter(os.Stderr, os.Getenv("LOG_LEVEL"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Error("list models failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if strings.TrimSpace(cfg.LLM.APIKey) == "" {
		return errors.New("set GOOGLE_API_KEY (or llm.apiKey) to list models")
	}

	client, err := gemini.NewClient(ctx, gemini.Options{APIKey: cfg.LLM.APIKey, Model: cfg.LLM.Model}, nil)
	if err != nil {
		return fmt.Errorf("create gemini client: %w", err)
	}
	defer client.Close()

	models, err := client.ListModels(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDISPLAY NAME\tINPUT\tOUTPUT")
	for _, m := range models {
		marker := ""
		if m.Name == cfg.LLM.Model {
			marker = " (configured)"
		}
		fmt.Fprintf(w, "%s%s\t%s\t%d\t%d\n", m.Name, marker, m.DisplayName, m.InputTokenLimit, m.OutputTokenLimit)
	}
	return w.Flush()
}
