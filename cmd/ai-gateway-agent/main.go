// Command ai-gateway-agent runs the AI Gateway inspection core behind a
// minimal reference transport. The inspection logic lives in gateway/*;
// this binary only wires it to a socket so it is runnable end to end.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/looplj/ai-gateway-agent/gateway/config"
	"github.com/looplj/ai-gateway-agent/gateway/pipeline"
	"github.com/looplj/ai-gateway-agent/internal/build"
	"github.com/looplj/ai-gateway-agent/internal/log"
	"github.com/looplj/ai-gateway-agent/internal/tracing"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version", "--version", "-v":
			fmt.Println(build.GetBuildInfo())
			return
		case "help", "--help", "-h":
			printHelp()
			return
		}
	}

	bootCfg, err := LoadBootConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load boot config:", err)
		os.Exit(1)
	}

	setupLogging(bootCfg)

	orchestrator := pipeline.New(config.Default())
	server := New(bootCfg, orchestrator)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, server); err != nil {
		log.Error(context.Background(), "ai-gateway-agent exited with error", log.Cause(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, server *Server) error {
	errCh := make(chan error, 1)

	go func() {
		errCh <- server.Run(ctx)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}

		return <-errCh
	}
}

func setupLogging(cfg BootConfig) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Debug {
		zapCfg = zap.NewDevelopmentConfig()
	}

	zapLogger, err := zapCfg.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		os.Exit(1)
	}

	log.SetDefault(log.New(zapLogger))
	tracing.SetupLogger(log.Default())
}

func printHelp() {
	fmt.Println("AI Gateway Inspection Agent")
	fmt.Println("")
	fmt.Println("Usage:")
	fmt.Println("  ai-gateway-agent [--network unix|tcp] [--address ADDR] [--config FILE] [--debug]")
	fmt.Println("  ai-gateway-agent version")
	fmt.Println("  ai-gateway-agent help")
}
