package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wayfarer-ai/planner-client/internal/model"
	"github.com/wayfarer-ai/planner-client/internal/session"
)

func init() {
	rootCmd.AddCommand(chatCmd)
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive planning conversation",
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

		sess := session.New(userID, client, log)
		ctx := cmd.Context()

		fmt.Println("Tell me about the trip you want to plan.")
		fmt.Println("Commands: /approve, /dismiss, /refresh, /quit")

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())

			switch line {
			case "":
				continue
			case "/quit":
				return nil
			case "/dismiss":
				sess.DismissDraft()
				fmt.Println("Draft dismissed.")
				continue
			case "/refresh":
				if err := sess.RefreshItinerary(ctx); err != nil {
					fmt.Println("Itinerary not available yet.")
					continue
				}
				printFinalized(sess)
				continue
			}

			var env *model.ChatEnvelope
			if line == "/approve" {
				env, err = sess.Approve(ctx)
			} else {
				env, err = sess.SendTurn(ctx, line)
			}
			if err != nil {
				if errors.Is(err, session.ErrTurnInFlight) || errors.Is(err, session.ErrEmptyMessage) {
					continue
				}
				fmt.Println(turnFailureReply(sess, err))
				continue
			}

			fmt.Println(env.Message)
			printStatus(sess, env)
		}
		return scanner.Err()
	},
}

// turnFailureReply picks what to show after a failed turn. Transport failures
// already appended an in-thread agent message; a thread mismatch drops the
// response without appending, so the error itself is shown instead.
func turnFailureReply(sess *session.Session, err error) string {
	if errors.Is(err, session.ErrThreadMismatch) {
		return "Error: " + err.Error()
	}
	msgs := sess.Messages()
	return msgs[len(msgs)-1].Content
}

func printStatus(sess *session.Session, env *model.ChatEnvelope) {
	switch env.Status {
	case model.StatusClarifying:
		if len(env.Clarifying.SlotsCollected) > 0 {
			fmt.Print("So far: ")
			var parts []string
			for key, raw := range env.Clarifying.SlotsCollected {
				parts = append(parts, fmt.Sprintf("%s=%s", key, raw))
			}
			fmt.Println(strings.Join(parts, ", "))
		}
	case model.StatusReviewing:
		if draft := sess.Draft(); draft != nil {
			printItinerary(*draft)
			fmt.Println("Reply 'approve' (or /approve) to finalize, or describe what to change.")
		}
	case model.StatusComplete:
		sess.WaitForFetch()
		printFinalized(sess)
	}
}

func printFinalized(sess *session.Session) {
	version := sess.Finalized()
	if version == nil {
		fmt.Println("Itinerary not available yet. Use /refresh to try again.")
		return
	}
	fmt.Printf("Finalized itinerary (version %d, %s):\n", version.VersionNumber, version.ChangeSummary)
	printItinerary(version.Itinerary)
	if trip := sess.Trip(); trip != nil {
		fmt.Printf("Trip %s: %s [%s]\n", trip.ID, trip.Title, trip.Status)
	}
}

func printItinerary(it model.Itinerary) {
	if it.Title != "" {
		fmt.Println(it.Title)
	}
	for _, day := range it.Days {
		fmt.Printf("  Day %d (%s)\n", day.DayNumber, day.Date)
		for _, act := range day.Activities {
			fmt.Printf("    %s  %s - %s (%.2f %s)\n",
				act.Time, act.Title, act.Location.Name, act.CostEstimate, it.Currency)
		}
	}
	fmt.Printf("  Estimated total: %.2f %s\n", it.TotalCostEstimate, it.Currency)
}
