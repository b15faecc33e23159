// Command campaign generates and inspects venue ad campaigns from the shell.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"autocamper/internal/ads"
	"autocamper/internal/app"
	"autocamper/internal/config"
	"autocamper/internal/events"
	"autocamper/internal/listings"
	"autocamper/internal/logging"
	"autocamper/internal/storage"
)

// Services are the dependencies a command runs against.
type Services struct {
	Store   storage.Store
	Builder *ads.Builder
	Venues  listings.ListingFetcher
}

// App holds the command's IO and the way it connects to its services.
type App struct {
	Out     io.Writer
	Err     io.Writer
	Connect func(ctx context.Context) (*Services, error)
}

// DefaultApp connects using the environment, like the API server does.
func DefaultApp() *App {
	return &App{
		Out:     os.Stdout,
		Err:     os.Stderr,
		Connect: connectFromEnv,
	}
}

func connectFromEnv(ctx context.Context) (*Services, error) {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := logging.New(cfg.AppEnv).Level(zerolog.WarnLevel)

	store, err := storage.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect store: %w", err)
	}
	model, err := app.NewLLM(ctx, cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("language model unavailable: using heuristic ad copy")
	}
	return &Services{
		Store:   store,
		Builder: app.NewBuilder(ctx, cfg, model, store, events.Discard{}, logger),
		Venues:  listings.NewFetcher(cfg.Listing.BaseURL, app.ListingLayout(cfg), nil),
	}, nil
}

func main() {
	if err := run(DefaultApp(), os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

func run(a *App, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(a.Out)
	cmd.SetErr(a.Err)
	return cmd.ExecuteContext(ctx)
}

func newRootCmd(a *App) *cobra.Command {
	root := &cobra.Command{
		Use:          "campaign",
		Short:        "Generate and inspect venue ad campaigns",
		SilenceUsage: true,
	}
	root.AddCommand(newCreateCmd(a), newListCmd(a), newShowCmd(a))
	return root
}

func newCreateCmd(a *App) *cobra.Command {
	var (
		venue  string
		trend  string
		budget int64
		tags   []string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Generate ad copy for a venue and create its campaign",
		Long: `Generate ad copy for a venue and create the search campaign.

Without Google Ads credentials the campaign is stored as a draft.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			venue = strings.TrimSpace(venue)
			if !listings.ValidID(venue) {
				return errors.New("--venue must be a numeric venue id")
			}
			if budget <= 0 {
				return errors.New("--budget must be positive")
			}
			svc, err := a.Connect(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Store.Close()

			in := ads.CampaignInput{
				VenueID:   venue,
				Tags:      tags,
				Theme:     strings.TrimSpace(trend),
				BudgetYen: budget,
			}
			if svc.Venues != nil {
				if listing, err := svc.Venues.Fetch(cmd.Context(), venue); err == nil {
					in.Title = listing.Title
					if len(in.Tags) == 0 {
						in.Tags = listing.Tags
					}
				} else {
					fmt.Fprintf(a.Err, "warning: venue lookup failed: %v\n", err)
				}
			}

			campaign, err := svc.Builder.Create(cmd.Context(), in)
			if campaign.ID != "" {
				printCampaign(a.Out, campaign)
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&venue, "venue", "v", "", "Venue id (required)")
	cmd.Flags().StringVarP(&trend, "trend", "t", "", "Theme to steer the ad copy")
	cmd.Flags().Int64VarP(&budget, "budget", "b", ads.DefaultBudgetYen, "Daily budget in yen")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Venue tags, comma separated (defaults to the venue page)")
	_ = cmd.MarkFlagRequired("venue")
	return cmd
}

func newListCmd(a *App) *cobra.Command {
	var venue string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent campaigns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.Connect(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Store.Close()

			campaigns, err := svc.Store.ListCampaigns(cmd.Context(), strings.TrimSpace(venue))
			if err != nil {
				return fmt.Errorf("list campaigns: %w", err)
			}
			tw := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tVENUE\tSTATUS\tBUDGET\tTHEME\tCREATED")
			for _, c := range campaigns {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
					c.ID, c.VenueID, c.Status, c.BudgetYen, c.Theme, c.CreatedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&venue, "venue", "v", "", "Only campaigns for this venue id")
	return cmd
}

func newShowCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <campaign-id>",
		Short: "Show a campaign with its copy and created resources",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.Connect(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Store.Close()

			campaign, err := svc.Store.GetCampaign(cmd.Context(), args[0])
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("campaign %s not found", args[0])
			}
			if err != nil {
				return fmt.Errorf("get campaign: %w", err)
			}
			printCampaign(a.Out, campaign)
			return nil
		},
	}
}

func printCampaign(w io.Writer, c storage.Campaign) {
	fmt.Fprintf(w, "Campaign %s (%s)\n", c.ID, c.Status)
	fmt.Fprintf(w, "  venue:  %s\n", c.VenueID)
	if c.Theme != "" {
		fmt.Fprintf(w, "  theme:  %s\n", c.Theme)
	}
	fmt.Fprintf(w, "  budget: %d yen/day\n", c.BudgetYen)
	if c.Error != "" {
		fmt.Fprintf(w, "  error:  %s\n", c.Error)
	}
	printList(w, "Headlines", c.Headlines)
	printList(w, "Descriptions", c.Descriptions)
	printList(w, "Keywords", c.Keywords)
	if len(c.Resources) > 0 {
		fmt.Fprintln(w, "Resources:")
		for _, r := range c.Resources {
			fmt.Fprintf(w, "  %-10s %s\n", r.Step, r.Name)
		}
	}
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}
