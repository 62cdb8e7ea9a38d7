package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"docchat/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  `Start the docchat API server with the specified configuration.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()

	// Server flags
	flags.StringP("host", "H", "0.0.0.0", "server host")
	flags.IntP("port", "p", 8080, "server port")
	flags.String("mode", "release", "server mode (debug/release/test)")

	// AI flags
	flags.String("ai-provider", "dashscope", "AI provider (openai/azure/ark/dashscope)")
	flags.String("ai-model", "qwen-max", "AI model name")
	flags.String("ai-api-key", "", "AI API key (recommend using env: DOCCHAT_AI_API_KEY)")

	// Backend flags
	flags.String("mongo-uri", "", "MongoDB URI, empty runs with in-memory repositories")
	flags.String("redis-addr", "", "Redis address for status cache and role store")
	flags.String("storage-path", "./data/uploads", "local directory for uploaded documents")
	flags.String("queue", "memory", "document processing queue (memory/nats)")
	flags.Bool("auth", false, "require JWT bearer tokens on /api/v1")

	// Log flags
	flags.String("log-level", "info", "log level (trace/debug/info/warn/error/fatal)")
	flags.String("log-format", "console", "log format (json/console)")

	// Bind flags to viper
	_ = viper.BindPFlag("server.host", flags.Lookup("host"))
	_ = viper.BindPFlag("server.port", flags.Lookup("port"))
	_ = viper.BindPFlag("server.mode", flags.Lookup("mode"))
	_ = viper.BindPFlag("ai.provider", flags.Lookup("ai-provider"))
	_ = viper.BindPFlag("ai.model", flags.Lookup("ai-model"))
	_ = viper.BindPFlag("ai.api_key", flags.Lookup("ai-api-key"))
	_ = viper.BindPFlag("mongo.uri", flags.Lookup("mongo-uri"))
	_ = viper.BindPFlag("redis.addr", flags.Lookup("redis-addr"))
	_ = viper.BindPFlag("storage.local.base_path", flags.Lookup("storage-path"))
	_ = viper.BindPFlag("queue.type", flags.Lookup("queue"))
	_ = viper.BindPFlag("auth.enabled", flags.Lookup("auth"))
	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", flags.Lookup("log-format"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	// Validate config
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// SIGINT/SIGTERM 取消 ctx，Run 随后优雅关闭
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server.BuildInfo.Version = Version
	server.BuildInfo.Commit = Commit

	// Create server
	srv, err := server.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	go func() {
		<-ctx.Done()
		log.Info().Msg("received shutdown signal")
	}()

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info().
		Str("addr", addr).
		Str("mode", cfg.Server.Mode).
		Str("version", Version).
		Bool("mongo", cfg.Mongo.URI != "").
		Str("queue", cfg.Queue.Type).
		Bool("auth", cfg.Auth.Enabled).
		Msg("starting server")

	return srv.Run(ctx, addr)
}
