package main

import (
	"strings"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   `run "<instruction>"`,
	Short: "Resolve, preview and confirm a single instruction",
	Example: `  sellerctl run "lower all used listings by 10%"
  sellerctl run --yes "set listing 1234 to $45"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(a)

		sess := a.Sessions.Create()
		defer a.Sessions.Close(sess.ID)

		c := &console{out: cmd.OutOrStdout(), registry: a.Registry, session: sess, assumeYes: assumeYes}
		return c.handle(ctx, strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
