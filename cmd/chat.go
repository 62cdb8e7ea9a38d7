package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"docchat/internal/client"
	"docchat/internal/stream"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat against a running server",
	Long: `Start an interactive chat session against a running docchat server.
Replies are streamed as they arrive. Type /clear to start over and /exit to quit.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	flags := chatCmd.Flags()
	flags.String("server", "http://localhost:8080", "server base URL")
	flags.String("role", "", "role id (default: the user's default role)")
	flags.String("model", "", "model name override")
	flags.Float64("temperature", 0, "sampling temperature (0-2)")
	flags.Float64("top-p", 0, "nucleus sampling (0-1)")
	flags.Int("max-tokens", 0, "max tokens to generate (1-8192)")
	flags.String("token", "", "JWT for servers with auth enabled")
	flags.String("user", "", "user id sent as X-User-ID when auth is disabled")
}

func runChat(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	serverURL, _ := flags.GetString("server")
	token, _ := flags.GetString("token")
	userID, _ := flags.GetString("user")

	var opts []client.Option
	if token != "" {
		opts = append(opts, client.WithToken(token))
	}
	if userID != "" {
		opts = append(opts, client.WithUserID(userID))
	}
	session := client.NewSession(client.New(serverURL, opts...))

	session.Params.RoleID, _ = flags.GetString("role")
	session.Params.Model, _ = flags.GetString("model")
	// 只发送显式指定的参数
	if flags.Changed("temperature") {
		v, _ := flags.GetFloat64("temperature")
		session.Params.Temperature = &v
	}
	if flags.Changed("top-p") {
		v, _ := flags.GetFloat64("top-p")
		session.Params.TopP = &v
	}
	if flags.Changed("max-tokens") {
		v, _ := flags.GetInt("max-tokens")
		session.Params.MaxTokens = &v
	}

	return chatLoop(cmd.Context(), session, cmd.InOrStdin(), cmd.OutOrStdout())
}

func chatLoop(ctx context.Context, session *client.Session, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	fmt.Fprintln(out, "docchat chat. /clear 清空对话, /exit 退出")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/clear":
			if err := session.Clear(); err != nil {
				fmt.Fprintln(out, err)
			} else {
				fmt.Fprintln(out, "(对话已清空)")
			}
			continue
		}

		// Ctrl-C 只中断当前回复
		turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
		printed := 0
		outcome, err := session.Submit(turnCtx, line, func(m *stream.Message) {
			content := m.Content()
			if len(content) > printed {
				fmt.Fprint(out, content[printed:])
				printed = len(content)
			}
		})
		stop()

		if err != nil {
			if errors.Is(err, client.ErrBusy) {
				fmt.Fprintln(out, err)
				continue
			}
			return err
		}
		fmt.Fprintln(out)
		if outcome.Usage != nil {
			fmt.Fprintf(out, "[tokens: prompt %d, completion %d, total %d]\n",
				outcome.Usage.PromptTokens, outcome.Usage.CompletionTokens, outcome.Usage.TotalTokens)
		}
	}
}
