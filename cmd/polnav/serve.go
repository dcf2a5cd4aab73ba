package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/polnav/polnav/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the assessment agent over HTTP and MCP (stdio)",
	RunE: func(cmd *cobra.Command, args []string) error {
		mock, _ := cmd.Flags().GetBool("mock")
		token, _ := cmd.Flags().GetString("token")
		withMCP, _ := cmd.Flags().GetBool("mcp")

		cfg, err := loadConfig(mock)
		if err != nil {
			return err
		}
		setupLogging(cfg)

		a, cleanup, err := buildAgent(cfg, false)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
		srv := &http.Server{
			Addr:    addr,
			Handler: api.NewHandler(api.Deps{Runner: a, Token: token}),
		}

		printStatus("Model", "%s", cfg.Upstage.ChatModel)
		printStatus("Data dir", "%s", cfg.Storage.DataDir)
		if cfg.Mock {
			printWarning("mock mode: responses are canned, no API calls are made")
		}

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			printStep("polnav listening on %s", addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		})

		if withMCP {
			g.Go(func() error {
				stdioSrv := server.NewStdioServer(api.NewMCPServer(api.MCPDeps{Runner: a}))
				printStep("MCP server listening (stdio transport)")
				err := stdioSrv.Listen(gctx, os.Stdin, os.Stdout)
				if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
					return fmt.Errorf("mcp server error: %w", err)
				}
				return nil
			})
		}

		g.Go(func() error {
			<-gctx.Done()
			printStep("shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		if err := g.Wait(); err != nil {
			return err
		}
		printSuccess("polnav stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().Bool("mock", false, "run offline with canned model responses")
	serveCmd.Flags().String("token", "", "bearer token required on /v1 endpoints (empty disables auth)")
	serveCmd.Flags().Bool("mcp", true, "also expose the agent as an MCP stdio server")
}
