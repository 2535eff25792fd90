package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/atinyakov/donorlink/internal/client/donations"
	"github.com/atinyakov/donorlink/internal/models"
)

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List your donations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g := a.guard()
			if _, ok := a.authorized(cmd.Context(), g); !ok {
				return nil
			}
			list, err := a.tracker(g).History(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(a.out, "No donations yet.")
				return nil
			}
			fmt.Fprintf(a.out, "%-36s  %-10s  %-8s  %-5s  %-10s  %s\n", "ID", "DATE", "TYPE", "UNITS", "STATUS", "HOSPITAL")
			for _, d := range list {
				fmt.Fprintf(a.out, "%-36s  %-10s  %-8s  %-5d  %-10s  %s\n",
					d.ID, d.CreatedAt.Format("2006-01-02"), d.Type, d.Units, d.Status, d.Hospital)
			}
			return nil
		},
	}
}

func newTrackCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "track <donation-id>",
		Short: "Show the current status of a donation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g := a.guard()
			if _, ok := a.authorized(cmd.Context(), g); !ok {
				return nil
			}
			st, err := a.client.TrackDonation(cmd.Context(), args[0])
			if err != nil {
				g.HandleAuthError(err)
				return err
			}
			fmt.Fprintf(a.out, "Donation %s: %s\n", args[0], st.Status)
			return nil
		},
	}
}

func newWatchCmd(a *app) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch <donation-id>",
		Short: "Follow a donation until it completes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g := a.guard()
			if _, ok := a.authorized(cmd.Context(), g); !ok {
				return nil
			}
			final, err := a.tracker(g).Watch(cmd.Context(), args[0], interval, func(s models.DonationStatus) {
				fmt.Fprintf(a.out, "%s  %s\n", time.Now().Format(time.TimeOnly), s)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Donation finished: %s\n", final)
			return nil
		},
	}
	cmd.Flags().DurationVarP(&interval, "interval", "i", donations.DefaultInterval, "polling interval")
	return cmd
}
