package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive session",
	Long: `Starts a session that reads one instruction per line.
Type "history" to list the commands executed in this session and "exit" to quit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(a)

		sess := a.Sessions.Create()
		defer a.Sessions.Close(sess.ID)

		out := cmd.OutOrStdout()
		c := &console{out: out, registry: a.Registry, session: sess, assumeYes: assumeYes}
		fmt.Fprintln(out, `Describe what you want to change. "history" shows this session, "exit" quits.`)

		for ctx.Err() == nil {
			p := promptui.Prompt{Label: "sellerctl"}
			line, err := p.Run()
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			if err != nil {
				return err
			}

			switch text := strings.TrimSpace(line); text {
			case "":
			case "exit", "quit":
				return nil
			case "history":
				renderHistory(out, sess.Audit())
			default:
				if err := c.handle(ctx, text); err != nil {
					a.Logger.Warn("command failed", zap.Error(err))
					fmt.Fprintf(out, "Error: %v\n", err)
				}
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
}
