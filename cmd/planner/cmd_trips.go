package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wayfarer-ai/planner-client/internal/transport"
)

var (
	flagFromDate string
	flagToDate   string
	flagStatus   string
	flagSkip     int
	flagLimit    int
)

func init() {
	rootCmd.AddCommand(tripsCmd, itineraryCmd, historyCmd)
	tripsCmd.AddCommand(tripsListCmd, tripsItinerariesCmd)

	for _, cmd := range []*cobra.Command{tripsListCmd, tripsItinerariesCmd} {
		cmd.Flags().StringVar(&flagFromDate, "from", "", "start of date range (YYYY-MM-DD)")
		cmd.Flags().StringVar(&flagToDate, "to", "", "end of date range (YYYY-MM-DD)")
		cmd.Flags().IntVar(&flagSkip, "skip", 0, "results to skip")
		cmd.Flags().IntVar(&flagLimit, "limit", 20, "max results (1-100)")
	}
	tripsListCmd.Flags().StringVar(&flagStatus, "status", "", "filter by status: planning, finalized, cancelled")
}

var tripsCmd = &cobra.Command{
	Use:   "trips",
	Short: "Browse your trips and itinerary versions",
}

var tripsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your trips, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, client, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()
		userID, err := requireUserID(cfg)
		if err != nil {
			return err
		}

		page, err := client.ListTrips(cmd.Context(), userID, transport.ListOptions{
			FromDate: flagFromDate,
			ToDate:   flagToDate,
			Status:   flagStatus,
			Skip:     flagSkip,
			Limit:    flagLimit,
		})
		if err != nil {
			return fmt.Errorf("list trips: %w", err)
		}

		if len(page.Trips) == 0 {
			fmt.Println("No trips found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tDESTINATION\tCREATED")
		for _, trip := range page.Trips {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				trip.ID, trip.Title, trip.Status,
				trip.TripConstraints.Destination,
				trip.CreatedAt.Format("2006-01-02"))
		}
		w.Flush()
		fmt.Printf("%d of %d (skip %d)\n", len(page.Trips), page.Total, page.Skip)
		return nil
	},
}

var tripsItinerariesCmd = &cobra.Command{
	Use:   "itineraries",
	Short: "List your itinerary versions across all trips, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, client, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()
		userID, err := requireUserID(cfg)
		if err != nil {
			return err
		}

		page, err := client.ListItineraries(cmd.Context(), userID, transport.ListOptions{
			FromDate: flagFromDate,
			ToDate:   flagToDate,
			Skip:     flagSkip,
			Limit:    flagLimit,
		})
		if err != nil {
			return fmt.Errorf("list itineraries: %w", err)
		}

		if len(page.Itineraries) == 0 {
			fmt.Println("No itineraries found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TRIP\tVERSION\tBY\tSUMMARY\tCREATED")
		for _, v := range page.Itineraries {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
				v.TripID, v.VersionNumber, v.CreatedBy, v.ChangeSummary,
				v.CreatedAt.Format("2006-01-02"))
		}
		w.Flush()
		fmt.Printf("%d of %d (skip %d)\n", len(page.Itineraries), page.Total, page.Skip)
		return nil
	},
}

var itineraryCmd = &cobra.Command{
	Use:   "itinerary <trip-id>",
	Short: "Show the latest itinerary version for a trip",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, client, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		version, err := client.LatestItinerary(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("fetch itinerary: %w", err)
		}

		fmt.Printf("Version %d (%s) - %s\n", version.VersionNumber, version.CreatedBy, version.ChangeSummary)
		printItinerary(version.Itinerary)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <trip-id>",
	Short: "Show the archived conversation for a trip",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, client, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		conv, err := client.Conversation(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("fetch conversation: %w", err)
		}

		for _, msg := range conv.Messages {
			fmt.Printf("[%s] %s: %s\n", msg.Timestamp.Format("15:04"), msg.Role, msg.Content)
		}
		return nil
	},
}
