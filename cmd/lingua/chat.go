package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/satriahrh/lingua/usecase"
)

// ChatCmd talks to the configured engine from the terminal. With text
// arguments it runs one turn; otherwise it reads one turn per stdin line.
type ChatCmd struct {
	UserID       string `short:"u" long:"user" default:"cli" description:"user id owning the conversation"`
	Conversation string `short:"c" long:"conversation" description:"conversation id to continue"`
	Language     string `short:"l" long:"language" description:"language code of the input"`
	Image        string `short:"i" long:"image" description:"png or jpeg file attached to the first turn"`
	Args         struct {
		Text []string `positional-arg-name:"text"`
	} `positional-args:"yes"`
}

func (c *ChatCmd) Execute(_ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())
	go a.jobs.Run(ctx)

	req := usecase.TurnRequest{
		UserID:         c.UserID,
		ConversationID: c.Conversation,
		Language:       c.Language,
	}
	if c.Image != "" {
		data, err := os.ReadFile(c.Image)
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
		}
		req.Image = &usecase.Upload{Filename: filepath.Base(c.Image), Data: data}
	}

	if len(c.Args.Text) > 0 {
		req.Text = strings.Join(c.Args.Text, " ")
		_, err := runChatTurn(ctx, a.chat, req, os.Stdout)
		return err
	}

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Fprint(os.Stdout, "> ")
	for scanner.Scan() {
		req.Text = strings.TrimSpace(scanner.Text())
		if req.Text == "" && req.Image == nil {
			fmt.Fprint(os.Stdout, "> ")
			continue
		}
		resp, err := runChatTurn(ctx, a.chat, req, os.Stdout)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
		} else {
			req.ConversationID = resp.ConversationID
			req.Image = nil
		}
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(os.Stdout, "> ")
	}
	return scanner.Err()
}

type chatTurner interface {
	Turn(ctx context.Context, req usecase.TurnRequest) (*usecase.TurnResponse, error)
}

// runChatTurn runs one turn and prints the reply with its dialogue state
func runChatTurn(ctx context.Context, chat chatTurner, req usecase.TurnRequest, out io.Writer) (*usecase.TurnResponse, error) {
	resp, err := chat.Turn(ctx, req)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "%s\n  [%s", resp.Response, resp.State)
	if resp.ImageTaskID != "" {
		fmt.Fprintf(out, " task=%s", resp.ImageTaskID)
	}
	if resp.ImageURL != "" {
		fmt.Fprintf(out, " image=%s", resp.ImageURL)
	}
	fmt.Fprintf(out, " conversation=%s]\n", resp.ConversationID)
	return resp, nil
}
