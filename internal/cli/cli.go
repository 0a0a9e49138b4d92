package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/wangyuhao/assistant/internal/service/ai"
	"github.com/wangyuhao/assistant/internal/service/conversation"
)

const (
	userPrompt      = "你："
	assistantPrefix = "AI助手："
	farewell        = "AI助手：期待下次与你相见！"
	separator       = "------------------------------"
)

// Run drives the terminal conversation until an exit command or the end of
// the input stream. Fragments are printed as they arrive.
func Run(ctx context.Context, svc *conversation.Service, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(out, userPrompt)
		if !scanner.Scan() {
			// Input closed counts as a goodbye.
			fmt.Fprintln(out)
			fmt.Fprintln(out, farewell)
			return shutdown(ctx, svc)
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if conversation.IsExitCommand(input) {
			fmt.Fprintln(out, farewell)
			return shutdown(ctx, svc)
		}

		fmt.Fprint(out, assistantPrefix)
		_, err := svc.HandleTurn(ctx, input, func(fragment string) {
			fmt.Fprint(out, fragment)
		})
		if err != nil {
			fmt.Fprintln(out, FailureText(err))
		} else {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, separator)
	}
}

func shutdown(ctx context.Context, svc *conversation.Service) error {
	if err := svc.Shutdown(ctx); err != nil {
		log.Printf("[cli] failed to save session %q: %v", svc.Session(), err)
		return err
	}
	return nil
}

// FailureText renders a gateway failure as user-facing text. The wording is
// presentation only; the decision not to persist the turn is driven by the
// typed error, never by this text.
func FailureText(err error) string {
	switch {
	case errors.Is(err, ai.ErrNetwork):
		return fmt.Sprintf("哎呀，网络错误！无法连接到模型服务。错误详情：%v", err)
	default:
		return fmt.Sprintf("发生未知错误：%v", err)
	}
}
