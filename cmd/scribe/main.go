// Package main provides the Scribe command line runner. It explores a
// product site, composes a documentation draft and synchronizes the draft
// into a remote collaborative document, optionally as reviewable
// suggestions.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	appconfig "github.com/entrhq/scribe/pkg/config"
	"github.com/entrhq/scribe/pkg/docs"
	"github.com/entrhq/scribe/pkg/runner"
	"github.com/entrhq/scribe/pkg/sync"
	"github.com/entrhq/scribe/pkg/writer"
)

const (
	version      = "0.1.0"
	defaultModel = "gpt-4o"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	ProfileFile string
	DocumentID  string
	DocsURL     string
	DocsToken   string
	Accept      bool
	Reject      bool
	Clear       bool
	ShowVersion bool
}

func main() {
	config := parseFlags()

	if config.ShowVersion {
		fmt.Printf("Scribe v%s\n", version)
		return
	}

	// Create context with signal handling
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\nShutting down gracefully...")
		cancel()
	}()

	if err := run(ctx, config); err != nil {
		cancel()
		log.Printf("Run failed: %v", err)
		os.Exit(1)
	}
	cancel()
}

// parseFlags parses command line flags
func parseFlags() *CLIConfig {
	config := &CLIConfig{}

	flag.StringVar(&config.APIKey, "api-key", "", "OpenAI API key (defaults to OPENAI_API_KEY)")
	flag.StringVar(&config.BaseURL, "base-url", "", "OpenAI API base URL (defaults to OPENAI_BASE_URL)")
	flag.StringVar(&config.Model, "model", "", "LLM model to use")
	flag.StringVar(&config.ProfileFile, "profile", "", "Path to run profile (YAML)")
	flag.StringVar(&config.DocumentID, "document", "", "Target document id (overrides profile and config)")
	flag.StringVar(&config.DocsURL, "docs-url", "", "Document service base URL")
	flag.StringVar(&config.DocsToken, "docs-token", os.Getenv("SCRIBE_DOCS_TOKEN"), "Document service bearer token")
	flag.BoolVar(&config.Accept, "accept", false, "Accept all pending suggestions and exit")
	flag.BoolVar(&config.Reject, "reject", false, "Reject all pending suggestions and exit")
	flag.BoolVar(&config.Clear, "clear", false, "Clear review highlights and exit")
	flag.BoolVar(&config.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Scribe - Autonomous Product Documentation Writer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: scribe [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Run a full documentation cycle\n")
		fmt.Fprintf(os.Stderr, "  scribe -profile scribe.yaml\n\n")
		fmt.Fprintf(os.Stderr, "  # Accept all pending suggestions\n")
		fmt.Fprintf(os.Stderr, "  scribe -accept -document 1A2b3C\n\n")
		fmt.Fprintf(os.Stderr, "  # Clear review highlights\n")
		fmt.Fprintf(os.Stderr, "  scribe -clear -document 1A2b3C\n\n")
	}

	flag.Parse()
	return config
}

// run dispatches to the requested mode
func run(ctx context.Context, cliConfig *CLIConfig) error {
	if err := appconfig.Initialize(""); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	if cliConfig.Accept || cliConfig.Reject || cliConfig.Clear {
		return runLifecycle(ctx, cliConfig)
	}
	return runCycle(ctx, cliConfig)
}

// runCycle executes one full explore-compose-sync cycle
func runCycle(ctx context.Context, cliConfig *CLIConfig) error {
	if cliConfig.ProfileFile == "" {
		return fmt.Errorf("a run profile is required (use -profile)")
	}

	profile, err := runner.LoadProfile(cliConfig.ProfileFile)
	if err != nil {
		return err
	}
	if cliConfig.DocumentID != "" {
		profile.Document.ID = cliConfig.DocumentID
	}

	service, err := buildService(cliConfig, profile.Document.BaseURL)
	if err != nil {
		return err
	}

	model := cliConfig.Model
	if model == "" {
		model = profile.Model.Name
	}
	provider, err := appconfig.BuildProvider(model, cliConfig.BaseURL, cliConfig.APIKey, defaultModel)
	if err != nil {
		return err
	}

	composer := writer.New(provider, writer.Options{
		ProductName:   profile.Product.Name,
		Audience:      profile.Product.Audience,
		ContextBudget: profile.Model.ContextBudget,
	})

	siteExplorer := runner.NewSiteExplorer(profile.IsHeadless())
	defer siteExplorer.Shutdown()

	r, err := runner.New(profile, service, siteExplorer, composer)
	if err != nil {
		return err
	}
	defer r.Close()

	report, err := r.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Explored %d pages, draft %d bytes\n", report.Pages, report.DraftBytes)
	fmt.Printf("Applied changes: +%d ~%d -%d (similarity %.2f)\n",
		report.Added, report.Modified, report.Deleted, report.Similarity)
	return nil
}

// runLifecycle resolves pending suggestions or clears highlights
func runLifecycle(ctx context.Context, cliConfig *CLIConfig) error {
	documentID := cliConfig.DocumentID
	if documentID == "" {
		documentID = appconfig.GetDocs().GetDocumentID()
	}
	if documentID == "" {
		return fmt.Errorf("a document id is required (use -document)")
	}

	service, err := buildService(cliConfig, "")
	if err != nil {
		return err
	}

	syncer := sync.New(service, sync.Options{})
	defer syncer.Close()

	switch {
	case cliConfig.Accept:
		count, err := syncer.AcceptSuggestions(ctx, documentID)
		if err != nil {
			return err
		}
		fmt.Printf("Accepted %d suggestions\n", count)
	case cliConfig.Reject:
		count, err := syncer.RejectSuggestions(ctx, documentID)
		if err != nil {
			return err
		}
		fmt.Printf("Rejected %d suggestions\n", count)
	case cliConfig.Clear:
		if err := syncer.ClearHighlights(ctx, documentID); err != nil {
			return err
		}
		fmt.Println("Cleared highlights")
	}
	return nil
}

// buildService builds the document service client, resolving the base URL
// and token from flags first, then the config file.
func buildService(cliConfig *CLIConfig, profileURL string) (docs.Service, error) {
	docsConfig := appconfig.GetDocs()

	baseURL := cliConfig.DocsURL
	if baseURL == "" {
		baseURL = profileURL
	}
	if baseURL == "" {
		baseURL = docsConfig.GetBaseURL()
	}
	if baseURL == "" {
		return nil, fmt.Errorf("document service URL is required. Use -docs-url or configure it in ~/.scribe/config.json")
	}

	token := cliConfig.DocsToken
	if token == "" {
		token = docsConfig.GetToken()
	}
	if token == "" {
		return nil, fmt.Errorf("document service token is required. Set SCRIBE_DOCS_TOKEN, use -docs-token, or configure it in ~/.scribe/config.json")
	}

	client, err := docs.NewClient(baseURL, docs.StaticToken(token))
	if err != nil {
		return nil, err
	}
	return client, nil
}
