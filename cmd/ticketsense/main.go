package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/ticketsense/ai"
	"github.com/hrygo/ticketsense/ai/core/embedding"
	"github.com/hrygo/ticketsense/ai/core/llm"
	"github.com/hrygo/ticketsense/ai/core/retrieval"
	"github.com/hrygo/ticketsense/ai/metrics"
	"github.com/hrygo/ticketsense/ai/observability/logging"
	"github.com/hrygo/ticketsense/ai/sentiment"
	"github.com/hrygo/ticketsense/ai/services/ticket"
	"github.com/hrygo/ticketsense/ai/summary"
	"github.com/hrygo/ticketsense/ai/vector"
	"github.com/hrygo/ticketsense/internal/profile"
	"github.com/hrygo/ticketsense/internal/version"
	"github.com/hrygo/ticketsense/server"
)

var (
	rootCmd = &cobra.Command{
		Use:   "ticketsense",
		Short: `Summarizes customer support tickets and finds similar ones by sentiment and context.`,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			// Systemd units carry their own environment.
			if !isRunningAsSystemdService() {
				_ = godotenv.Load()
			}
			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			instanceProfile := &profile.Profile{
				Mode:    viper.GetString("mode"),
				Addr:    viper.GetString("addr"),
				Port:    viper.GetInt("port"),
				Version: version.String(),
			}
			if err := instanceProfile.FromEnv(); err != nil {
				return err
			}
			if err := instanceProfile.Validate(); err != nil {
				return err
			}

			format := logging.FormatText
			if !instanceProfile.IsDev() {
				format = logging.FormatJSON
			}
			logging.Setup(logging.Config{Level: instanceProfile.Pipeline.LogLevel, Format: format})

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			exporter := metrics.NewPrometheusExporter(metrics.DefaultConfig())
			tickets, err := newTicketService(ctx, instanceProfile, exporter)
			if err != nil {
				slog.Error("failed to build ticket pipeline", "error", err)
				return err
			}

			s, err := server.NewServer(ctx, instanceProfile, tickets, exporter)
			if err != nil {
				slog.Error("failed to create server", "error", err)
				return err
			}

			c := make(chan os.Signal, 1)
			signal.Notify(c, terminationSignals...)

			if err := s.Start(ctx); err != nil {
				slog.Error("failed to start server", "error", err)
				return err
			}

			printGreetings(instanceProfile)

			go func() {
				<-c
				s.Shutdown(ctx)
				cancel()
			}()

			<-ctx.Done()
			return nil
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(version.StringFull())
		},
	}
)

// newTicketService assembles the pipeline: LLM and embedding clients, the in-memory
// index, the summarizer, classifier and retrieval engine.
func newTicketService(ctx context.Context, p *profile.Profile, exporter *metrics.PrometheusExporter) (*ticket.Service, error) {
	aiConfig, err := ai.NewConfigFromProfile(p)
	if err != nil {
		return nil, err
	}
	if err := aiConfig.Validate(); err != nil {
		return nil, err
	}

	aiConfig.LLM.Observer = exporter.ObserveLLMCall
	aiConfig.Sentiment.OnCacheLookup = func(hit bool) {
		if hit {
			exporter.RecordCacheHit("sentiment")
		} else {
			exporter.RecordCacheMiss("sentiment")
		}
	}

	llmService, err := llm.NewService(&aiConfig.LLM)
	if err != nil {
		return nil, err
	}
	slog.Info("LLM service initialized", "provider", aiConfig.LLM.Provider, "model", aiConfig.LLM.Model)

	// Best effort: a failed warmup only costs first-request latency.
	go func() {
		warmupCtx, warmupCancel := context.WithTimeout(ctx, 10*time.Second)
		defer warmupCancel()
		llmService.Warmup(warmupCtx)
	}()

	embedder, err := embedding.NewProvider(&aiConfig.Embedding)
	if err != nil {
		return nil, err
	}
	if err := embedder.Validate(ctx); err != nil {
		return nil, err
	}
	slog.Info("Embedding provider initialized",
		"provider", aiConfig.Embedding.Provider,
		"model", embedder.Model(),
		"dimensions", embedder.Dimensions(),
	)

	index, err := vector.NewMemoryStore()
	if err != nil {
		return nil, err
	}

	summarizer, err := summary.NewSummarizer(llmService, embedder, index, aiConfig.Summary)
	if err != nil {
		return nil, err
	}
	classifier := sentiment.NewClassifier(llmService, aiConfig.Sentiment)
	engine, err := retrieval.NewEngine(classifier, embedder, index, aiConfig.Retrieval)
	if err != nil {
		return nil, err
	}

	return ticket.NewService(summarizer, classifier, engine, index, exporter)
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("port", 8081)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8081, "port of server")

	for _, key := range []string{"mode", "addr", "port"} {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("ticketsense")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	rootCmd.AddCommand(versionCmd)
}

func printGreetings(profile *profile.Profile) {
	fmt.Printf("TicketSense %s started successfully!\n", profile.Version)

	if profile.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
	}
	fmt.Printf("Mode: %s\n", profile.Mode)
	fmt.Printf("LLM: %s (%s)\n", profile.LLMProvider, profile.LLMModel)
	fmt.Printf("Embeddings: %s (%s)\n", profile.EmbeddingProvider, profile.EmbeddingModel)

	if len(profile.Addr) == 0 {
		fmt.Printf("Server running on port %d\n", profile.Port)
		fmt.Printf("Try: curl -X POST http://localhost:%d/summarize -d '{\"text\":\"...\"}' -H 'Content-Type: application/json'\n", profile.Port)
	} else {
		fmt.Printf("Server running on %s:%d\n", profile.Addr, profile.Port)
	}
	fmt.Println()
}

// isRunningAsSystemdService detects if the process is running under systemd
func isRunningAsSystemdService() bool {
	return os.Getenv("INVOCATION_ID") != "" || os.Getenv("WATCHDOG_USEC") != ""
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
