package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/docentchat/docent/cmd/docent/internal/repl"
	"github.com/docentchat/docent/pkg/engine"
	"github.com/spf13/cobra"
)

func chatCmd() *cobra.Command {
	var oneShot string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := setup()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := engine.LoadConfig(flagConfig)
			if err != nil {
				return err
			}

			e, err := engine.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer func() {
				if err := e.Close(); err != nil {
					log.Warn("backend teardown failed", "error", err)
				}
			}()

			session, err := e.NewSession()
			if err != nil {
				return err
			}

			if oneShot != "" {
				answer, err := session.Send(ctx, oneShot)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), answer)
				return nil
			}

			opts := repl.Options{
				Session:  session,
				Mentions: mentionCandidates(ctx, e),
				Commands: commandCandidates(ctx, e),
				Backends: e.Backends(),
			}

			return repl.Run(ctx, opts)
		},
	}

	cmd.Flags().StringVarP(&oneShot, "message", "m", "", "send a single message and print the answer")

	return cmd
}

// mentionCandidates collects identifiers for @-completion by reading every
// static JSON resource that looks like an ID list.
func mentionCandidates(ctx context.Context, e *engine.Engine) []string {
	var ids []string
	for _, entry := range e.Catalog().Resources(ctx) {
		if entry.Resource.IsTemplate || entry.Resource.MIMEType != "application/json" {
			continue
		}

		text, err := entry.Owner.Backend.ReadResource(ctx, entry.Resource.URI)
		if err != nil {
			continue
		}

		var list []string
		if err := json.Unmarshal([]byte(text), &list); err != nil {
			continue
		}
		ids = append(ids, list...)
	}
	return ids
}

// commandCandidates collects /command completions from the prompt catalog.
func commandCandidates(ctx context.Context, e *engine.Engine) []repl.Command {
	var cmds []repl.Command
	for _, entry := range e.Catalog().Prompts(ctx) {
		var args []string
		for _, a := range entry.Prompt.Arguments {
			args = append(args, "<"+a.Name+">")
		}
		usage := "/" + entry.Prompt.Name
		if len(args) > 0 {
			usage += " " + strings.Join(args, " ")
		}
		cmds = append(cmds, repl.Command{Name: entry.Prompt.Name, Usage: usage})
	}
	return cmds
}
