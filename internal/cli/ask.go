package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewAskCommand creates the ask command.
func NewAskCommand(rootOpts *RootOptions) *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Answer one question",
		Long: `Answer one question and exit.

The words are joined with spaces, so quoting is optional:

  queryops ask weather in Paris
  queryops ask "100 usd to eur"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, rootOpts, strings.Join(args, " "), noCache)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the answer cache")

	return cmd
}

func runAsk(cmd *cobra.Command, rootOpts *RootOptions, question string, noCache bool) error {
	cfg, err := rootOpts.loadConfig()
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Disabled = true
	}

	ctx := cmd.Context()
	app, err := NewApp(ctx, cfg, rootOpts.app)
	if err != nil {
		return WrapExitError(ExitFailure, "start", err)
	}
	defer func() { _ = app.Close(context.WithoutCancel(ctx)) }()

	res := app.Resolver.ResolveDetailed(ctx, question)
	return rootOpts.printer(cmd).value(res, res.Answer)
}

// NewChatCommand creates the interactive chat command.
func NewChatCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Answer questions read line by line from stdin",
		Long: `Answer questions read line by line from stdin until EOF, "exit" or "quit".

Blank lines are skipped. In text mode a "> " prompt is printed before each
question.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, rootOpts)
		},
	}

	return cmd
}

func runChat(cmd *cobra.Command, rootOpts *RootOptions) error {
	cfg, err := rootOpts.loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	app, err := NewApp(ctx, cfg, rootOpts.app)
	if err != nil {
		return WrapExitError(ExitFailure, "start", err)
	}
	defer func() { _ = app.Close(context.WithoutCancel(ctx)) }()

	out := rootOpts.printer(cmd)
	prompt := func() {
		if !out.json() {
			fmt.Fprint(out.w, "> ")
		}
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	prompt()
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			prompt()
			continue
		case "exit", "quit":
			return nil
		}

		res := app.Resolver.ResolveDetailed(ctx, line)
		if err := out.value(res, res.Answer); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		prompt()
	}
	return scanner.Err()
}
