package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aisha-chat/aisha-go/internal/client"
)

var (
	chatPersona  string
	chatLanguage string
	chatReset    bool
	chatImage    string
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send a message, or start an interactive session",
	Long: `Send a single message and print the reply, or start an interactive
chat session when no message is given.

Examples:
  aisha chat "kya haal hai?"
  aisha chat --persona gojo "teach me something"
  aisha chat --image cat.jpg "who is this?"
  aisha chat --reset "let's start over"
  aisha chat`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatPersona, "persona", "p", "", "persona to talk to (default: default)")
	chatCmd.Flags().StringVar(&chatLanguage, "language", "", "reply language (en, hi, hinglish)")
	chatCmd.Flags().BoolVar(&chatReset, "reset", false, "clear the persona's conversation history first")
	chatCmd.Flags().StringVarP(&chatImage, "image", "i", "", "image file to send with the message")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	opts := client.ChatOptions{
		Persona:  chatPersona,
		Language: chatLanguage,
		Reset:    chatReset,
	}

	if len(args) == 1 {
		message := args[0]
		var reply *client.ChatReply
		var err error
		if chatImage != "" {
			reply, err = api.ChatImage(ctx, chatImage, message, opts)
		} else {
			reply, err = api.Chat(ctx, message, opts)
		}
		if err != nil {
			return err
		}
		printReply(reply)
		return nil
	}

	if chatImage != "" {
		return fmt.Errorf("--image requires a message argument")
	}
	return runInteractive(ctx, opts)
}

func runInteractive(ctx context.Context, opts client.ChatOptions) error {
	theme := defaultTheme
	fmt.Println(theme.hintStyle().Render("Interactive chat. Type /quit to leave, /reset to wipe memory."))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			opts.Reset = true
			line = "hi"
		}

		reply, err := api.Chat(ctx, line, opts)
		// Only the first message of a session carries the reset flag.
		opts.Reset = false
		if err != nil {
			fmt.Println(theme.errorStyle().Render("Error: " + err.Error()))
			continue
		}
		printReply(reply)
	}
}

func printReply(reply *client.ChatReply) {
	theme := defaultTheme
	name := theme.speakerStyle().Render(reply.DisplayName + ":")
	fmt.Printf("%s %s\n", name, theme.replyStyle().Render(reply.Reply))
	if reply.Degraded {
		fmt.Println(theme.hintStyle().Render("(answered by the fallback model)"))
	}
}
