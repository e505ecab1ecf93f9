package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nulpointcorp/agentkit/internal/app"
	"github.com/nulpointcorp/agentkit/internal/chat"
	"github.com/nulpointcorp/agentkit/internal/history"
)

const replHelp = "Commands: /clear, /history, /save <file>, /load <file>, /exit"

func newChatCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Send a message in a conversation, or start an interactive session",
		Long: "With a message, sends it with the loaded history and prints the reply.\n" +
			"Without one, starts an interactive session. " + replHelp + ".",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context) error {
				return c.chat(ctx, cmd, args)
			})
		},
	}
	addCompletionFlags(cmd)
	cmd.Flags().String("history-in", "", "Load the conversation from this JSON file first")
	cmd.Flags().String("history-out", "", "Save the conversation to this JSON file afterwards")
	return cmd
}

func (c *cli) chat(ctx context.Context, cmd *cobra.Command, args []string) error {
	historyIn, _ := cmd.Flags().GetString("history-in")
	historyOut, _ := cmd.Flags().GetString("history-out")
	if historyIn == "" && historyOut == "" && c.cfg.HistoryFile != "" {
		historyIn, historyOut = c.cfg.HistoryFile, c.cfg.HistoryFile
	}

	h := history.New()
	if historyIn != "" {
		err := h.Load(historyIn)
		// A configured session file that does not exist yet starts empty.
		if err != nil && !(historyIn == c.cfg.HistoryFile && errors.Is(err, fs.ErrNotExist)) {
			return err
		}
	}

	client, err := c.app.NewChat(app.ChatOptions{History: h})
	if err != nil {
		return err
	}

	if len(args) > 0 {
		reply, err := client.Chat(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, reply)
	} else if err := c.repl(ctx, client); err != nil {
		return err
	}

	if historyOut != "" {
		return h.Export(historyOut)
	}
	return nil
}

// repl reads one message per line until EOF or /exit.
func (c *cli) repl(ctx context.Context, client *chat.Client) error {
	sc := bufio.NewScanner(c.in)
	sc.Buffer(make([]byte, 64*1024), 1<<20)

	fmt.Fprintf(c.out, "Chatting via %s. %s\n", client.Provider(), replHelp)
	for {
		fmt.Fprint(c.out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(c.out)
			break
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			done, err := c.replCommand(client.History(), line)
			if err != nil {
				fmt.Fprintln(c.out, "error:", err)
			}
			if done {
				return nil
			}
			continue
		}

		reply, err := client.Chat(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintln(c.out, "error:", err)
			continue
		}
		fmt.Fprintln(c.out, reply)
	}
	return sc.Err()
}

// replCommand handles one slash command. done reports whether the session ends.
func (c *cli) replCommand(h *history.History, line string) (done bool, err error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/exit", "/quit":
		return true, nil

	case "/clear":
		h.Clear()
		fmt.Fprintln(c.out, "history cleared")

	case "/history":
		for _, e := range h.Snapshot() {
			fmt.Fprintf(c.out, "[%s] %s\n", e.Role, e.Content)
		}

	case "/save", "/load":
		if len(fields) != 2 {
			return false, fmt.Errorf("usage: %s <file>", fields[0])
		}
		if fields[0] == "/save" {
			if err := h.Export(fields[1]); err != nil {
				return false, err
			}
			fmt.Fprintf(c.out, "saved %d messages to %s\n", h.Len(), fields[1])
			return false, nil
		}
		if err := h.Load(fields[1]); err != nil {
			return false, err
		}
		fmt.Fprintf(c.out, "loaded %d messages from %s\n", h.Len(), fields[1])

	default:
		return false, fmt.Errorf("unknown command %s; %s", fields[0], replHelp)
	}
	return false, nil
}
