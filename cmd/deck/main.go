package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tendant/simple-deck/pkg/simpledeck"
	"github.com/tendant/simple-deck/pkg/simpledeck/config"
	"github.com/tendant/simple-deck/pkg/simpledeck/gateway"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("Error:"), simpledeck.ReasonOf(err))
		os.Exit(1)
	}
}

func NewRootCommand() *cobra.Command {
	var apiURL string
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "deck",
		Short: "Browse, preview and manage stored presentations",
		Long: `deck is a client for a presentation document service.

It lists, uploads, downloads and deletes PowerPoint files, and previews them
either by retrieving the file or through a web viewer service.

Settings are read from DECK_* environment variables and a .env file.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "document service URL (default $DECK_API_URL or "+gateway.DefaultBaseURL+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewUploadCommand())
	rootCmd.AddCommand(NewDownloadCommand())
	rootCmd.AddCommand(NewDeleteCommand())
	rootCmd.AddCommand(NewPreviewCommand())
	rootCmd.AddCommand(NewViewerURLCommand())

	return rootCmd
}

// app holds what every subcommand needs
type app struct {
	cfg     *config.ClientConfig
	logger  *slog.Logger
	gateway *gateway.Client
	verbose bool
}

// newAppFromFlags builds the client from flags and environment variables
func newAppFromFlags(cmd *cobra.Command, opts ...gateway.Option) (*app, error) {
	apiURL, _ := cmd.Flags().GetString("api")
	verbose, _ := cmd.Flags().GetBool("verbose")

	clientOpts := []config.ClientOption{config.WithClientEnv("DECK_"), config.WithAPIURL(apiURL)}
	if verbose {
		clientOpts = append(clientOpts, config.WithLogLevel("debug"))
	}
	cfg, err := config.LoadClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := cfg.Log.NewLogger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	gw, err := cfg.BuildGateway(logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		gateway: gw,
		verbose: verbose,
	}, nil
}

func (a *app) newCatalog(opts ...simpledeck.CatalogOption) (*simpledeck.Catalog, error) {
	return simpledeck.NewCatalog(a.gateway, append([]simpledeck.CatalogOption{
		simpledeck.WithCatalogLogger(a.logger),
	}, opts...)...)
}

// lookup refreshes the catalog and finds a document by id
func (a *app) lookup(cmd *cobra.Command, catalog *simpledeck.Catalog, id string) (simpledeck.Document, error) {
	if err := catalog.Refresh(cmd.Context()); err != nil {
		return simpledeck.Document{}, err
	}
	doc, ok := catalog.Lookup(id)
	if !ok {
		return simpledeck.Document{}, fmt.Errorf("%w: %s", simpledeck.ErrNotFound, id)
	}
	return doc, nil
}
