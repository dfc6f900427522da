package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kurobyte/agentos/internal/config"
	"github.com/kurobyte/agentos/internal/logger"
	"github.com/kurobyte/agentos/internal/observability"
	"github.com/kurobyte/agentos/pkg/coretools"
	"github.com/kurobyte/agentos/pkg/kernel"
	"github.com/kurobyte/agentos/pkg/model"
)

var (
	runAgents int
	runSteps  int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Assemble the kernel and drive a sample workload",
	Long: `Run assembles the kernel from configuration, registers the core
capabilities, and drives a set of sample agents through the scheduler. Each
agent records its progress in working memory via the syscall path, so the
run exercises registry, gate, dispatcher, scheduler, and memory together.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runKernel(cmd.Context())
	},
}

func init() {
	runCmd.Flags().IntVar(&runAgents, "agents", 2, "number of sample agents")
	runCmd.Flags().IntVar(&runSteps, "steps", 3, "units of work per agent")
	rootCmd.AddCommand(runCmd)
}

func runKernel(ctx context.Context) error {
	cfg, err := config.NewLoader(cfgFile).Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	lg, err := logger.New(logger.Config{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Console: cfg.Logging.Console,
		Pretty:  cfg.Logging.Pretty,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer lg.Close()

	if err := observability.InitAuditLogger(cfg.Audit.File); err != nil {
		return fmt.Errorf("failed to initialize audit log: %w", err)
	}
	defer observability.GetAuditLogger().Close()

	opts := kernel.Options{
		Strategy: kernel.Strategy(cfg.Scheduler.Strategy),
		BaseDir:  cfg.Storage.BaseDir,
	}

	if cfg.Memory.Backend == "sqlite" {
		factory, closeDB, err := kernel.NewSQLiteStoreFactory(cfg.Memory.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open memory store: %w", err)
		}
		defer closeDB()
		opts.MemoryFactory = factory
	}

	if cfg.Model.Provider != "" {
		client, err := model.New(model.Config{
			Provider:    cfg.Model.Provider,
			APIKey:      cfg.Model.APIKey,
			Model:       cfg.Model.Model,
			MaxTokens:   cfg.Model.MaxTokens,
			Temperature: cfg.Model.Temperature,
		})
		if err != nil {
			return fmt.Errorf("failed to create model client: %w", err)
		}
		opts.Model = client
	}

	k, err := kernel.New(opts)
	if err != nil {
		return fmt.Errorf("failed to assemble kernel: %w", err)
	}

	if err := coretools.Register(k.Registry, coretools.Options{
		Memory: k.Memory,
		Vault:  k.Vault,
	}); err != nil {
		return fmt.Errorf("failed to register core capabilities: %w", err)
	}

	for i := 0; i < runAgents; i++ {
		agentID := fmt.Sprintf("agent-%d", i+1)
		k.Gate.Grant(agentID, "memory.remember")
		if err := k.Scheduler.RegisterTask(agentID, sampleStream(k.Dispatcher, agentID, runSteps), 0); err != nil {
			return fmt.Errorf("failed to register task: %w", err)
		}
	}

	log.Info().
		Int("agents", runAgents).
		Str("strategy", cfg.Scheduler.Strategy).
		Msg("Driving scheduler")

	return k.Scheduler.Run(ctx, func(result kernel.StepResult) error {
		fmt.Printf("%s -> %v\n", result.AgentID, result.Value)
		return nil
	})
}

// sampleStream yields one remembered note per step through the syscall path
func sampleStream(dispatcher *kernel.Dispatcher, agentID string, steps int) kernel.TaskStream {
	i := 0
	return kernel.TaskFunc(func(ctx context.Context) (interface{}, error) {
		if i >= steps {
			return nil, kernel.ErrTaskDone
		}
		i++
		note := fmt.Sprintf("step %d of %d", i, steps)
		if _, err := dispatcher.InvokeCapability(ctx, agentID, "memory.remember", map[string]interface{}{
			"agent_id": agentID,
			"text":     note,
		}); err != nil {
			return nil, err
		}
		return note, nil
	})
}
