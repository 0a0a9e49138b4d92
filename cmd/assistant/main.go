package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/wangyuhao/assistant/internal/cli"
	"github.com/wangyuhao/assistant/internal/config"
	"github.com/wangyuhao/assistant/internal/handler"
	"github.com/wangyuhao/assistant/internal/memory"
	"github.com/wangyuhao/assistant/internal/memory/postgres"
	"github.com/wangyuhao/assistant/internal/service/ai"
	"github.com/wangyuhao/assistant/internal/service/conversation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		log.Fatalf("assistant: %v", err)
	}
}

func newRootCommand() *cobra.Command {
	var (
		modeFlag    string
		sessionFlag string
		webFlag     bool
	)

	root := &cobra.Command{
		Use:   "assistant [context-file]",
		Short: "支持多种记忆模式与文件注入的 AI 助手",
		Long: "一个由大模型驱动的命令行 AI 助手。\n\n" +
			"记忆模式：no（无记忆）、short（会话内记忆）、long（按会话名持久化）。\n" +
			"传入文件路径时，助手会先阅读文件内容再回答问题。",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file
			if err := godotenv.Load(); err != nil {
				log.Printf("warning: failed to load .env file: %v", err)
				log.Println("continuing with system environment variables only")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if !cfg.AI.Enabled() {
				return errors.New("模型凭证未配置：请在 .env 中设置 ARK_API_KEY 与 ARK_MODEL")
			}

			ctx := cmd.Context()
			gateway, err := ai.NewService(ctx, cfg.AI)
			if err != nil {
				return fmt.Errorf("failed to initialize model gateway: %w", err)
			}

			if webFlag {
				store, err := persistentStore(ctx, cfg.Memory)
				if err != nil {
					return err
				}
				router := handler.NewRouter(store, gateway)
				return runServer(ctx, cfg.Server, router)
			}

			mode, err := memory.ParseMode(modeFlag)
			if err != nil {
				return err
			}

			var store memory.Store = memory.NullStore{}
			if mode.Persistent() {
				store, err = persistentStore(ctx, cfg.Memory)
				if err != nil {
					return err
				}
			}

			svc := conversation.New(gateway, store, mode, sessionFlag)

			fmt.Println("🚀 正在启动命令行 AI 助手...")
			fmt.Printf("🧠 记忆模式: %s\n", mode)
			fmt.Printf("🗂 会话名称: %s\n", svc.Session())

			if len(args) == 1 {
				injectContextFile(svc, args[0])
			}

			restored, err := svc.Restore(ctx)
			switch {
			case memory.IsCorrupt(err):
				log.Printf("warning: session %q unreadable, starting fresh: %v", svc.Session(), err)
			case err != nil:
				return fmt.Errorf("failed to restore session: %w", err)
			case mode.Persistent() && restored > 0:
				fmt.Printf("🗄 已加载会话 '%s' 的历史消息，共 %d 条。\n", svc.Session(), restored)
			case mode.Persistent():
				fmt.Printf("🗄 会话 '%s' 暂无历史，将从头开始。\n", svc.Session())
			default:
				fmt.Println("AI助手：你好！一个新的旅程开始了。")
			}

			return cli.Run(ctx, svc, os.Stdin, os.Stdout)
		},
	}

	root.Flags().StringVarP(&modeFlag, "mode", "m", "short", "记忆模式: no、short 或 long")
	root.Flags().StringVar(&sessionFlag, "session", "default", "会话名称，用于区分不同主题的长期记忆")
	root.Flags().BoolVar(&webFlag, "web", false, "启动 Web 前端而不是命令行界面")

	return root
}

// persistentStore picks the long-memory backend: Postgres when a DSN is
// configured, JSON files otherwise.
func persistentStore(ctx context.Context, cfg config.MemoryConfig) (memory.Store, error) {
	if cfg.DSN != "" {
		store, err := postgres.New(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres memory store: %w", err)
		}
		return store, nil
	}

	store, err := memory.NewFileStore(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to open file memory store: %w", err)
	}
	return store, nil
}

// injectContextFile reads the optional context document. Failures degrade:
// the conversation starts without injected context.
func injectContextFile(svc *conversation.Service, path string) {
	info, err := os.Stat(path)
	if err != nil {
		log.Printf("warning: cannot read context file %q: %v", path, err)
		return
	}
	if info.IsDir() {
		log.Printf("warning: %q is a directory, skipping context injection", path)
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("warning: cannot read context file %q: %v", path, err)
		return
	}

	svc.SetContextDocument(string(data))
	fmt.Printf("📎 已加载文件 '%s'。现在您可以基于该文件提问了。\n", info.Name())
}

func runServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) error {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("assistant web frontend listening on %s", serverCfg.Addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
