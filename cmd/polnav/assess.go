package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/polnav/polnav/internal/agent"
	"github.com/polnav/polnav/internal/config"
	"github.com/polnav/polnav/internal/plan"
	"github.com/polnav/polnav/internal/policy"
	"github.com/polnav/polnav/internal/profile"
	"github.com/polnav/polnav/internal/storage"
	"github.com/polnav/polnav/internal/upstage"
)

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Run one eligibility assessment",
	Long: `Run one eligibility assessment.

Examples:
  polnav assess --profile "나이: 29세 / 거주지: 수도권"
  polnav assess --profile "대학생이고 서울에 살아요" --pdf ./policy.pdf
  polnav assess --profile "나이: 29세" --mock --no-input`,
	RunE: func(cmd *cobra.Command, args []string) error {
		prof, _ := cmd.Flags().GetString("profile")
		pdfPath, _ := cmd.Flags().GetString("pdf")
		noInput, _ := cmd.Flags().GetBool("no-input")
		mock, _ := cmd.Flags().GetBool("mock")
		localParse, _ := cmd.Flags().GetBool("local-parse")

		if strings.TrimSpace(prof) == "" {
			return fmt.Errorf("--profile is required")
		}

		cfg, err := loadConfig(mock)
		if err != nil {
			return err
		}
		setupLogging(cfg)

		a, cleanup, err := buildAgent(cfg, localParse)
		if err != nil {
			return err
		}
		defer cleanup()

		var prompter agent.Prompter
		if !noInput {
			prompter = &stdinPrompter{in: bufio.NewReader(os.Stdin), out: os.Stderr}
		}

		res, err := a.Run(cmd.Context(), agent.RunRequest{
			Profile:      prof,
			DocumentPath: pdfPath,
			Prompter:     prompter,
		})
		if err != nil {
			return err
		}

		fmt.Println(res.Output)

		facts := profile.ExtractFacts(res.Profile)
		printStatus("Profile", "%s", res.Profile)
		if facts.Location != "" {
			printStatus("Region", "%s", facts.Location)
		}
		return nil
	},
}

func init() {
	assessCmd.Flags().String("profile", "", "user profile, e.g. \"나이: 29세 / 거주지: 수도권\"")
	assessCmd.Flags().String("pdf", "", "path to a policy PDF (omit to use the built-in sample)")
	assessCmd.Flags().Bool("no-input", false, "never ask clarifying questions")
	assessCmd.Flags().Bool("mock", false, "run offline with canned model responses")
	assessCmd.Flags().Bool("local-parse", false, "parse PDFs locally instead of the document digitization API")
}

// loadConfig loads config, honoring a --mock flag before validation so mock
// runs never demand an API key.
func loadConfig(mock bool) (config.Config, error) {
	if mock {
		os.Setenv("POLNAV_MOCK", "true")
	}
	return config.Load()
}

// buildAgent composes the agent's collaborators from config. The returned
// cleanup closes the parse cache when one was opened.
func buildAgent(cfg config.Config, localParse bool) (*agent.Agent, func(), error) {
	cleanup := func() {}

	if cfg.Mock {
		m := upstage.NewMock()
		return agent.New(agent.Deps{Completer: m, Parser: m, Extractor: m}), cleanup, nil
	}

	client := upstage.NewClient(cfg.Upstage.APIKey, cfg.Upstage.BaseURL, cfg.Upstage.ChatModel)

	var parser agent.DocumentParser = client
	if localParse {
		parser = &policy.LocalParser{}
	} else {
		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("opening parse cache: %w", err)
		}
		cleanup = func() {
			if err := store.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "warning: closing parse cache: %v\n", err)
			}
		}
		parser = storage.NewCachingParser(store, client)
	}

	return agent.New(agent.Deps{Completer: client, Parser: parser, Extractor: client}), cleanup, nil
}

// stdinPrompter asks clarifying questions on stderr and reads answers from a
// line-buffered reader. EOF means "no more answers": the current and later
// questions are skipped.
type stdinPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func (p *stdinPrompter) Ask(q plan.Question) (string, error) {
	fmt.Fprintln(p.out, colorize(colorCyan, "? "+q.Text()))
	fmt.Fprint(p.out, "> ")

	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Print the built-in sample policy text",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(policy.SampleText())
		return nil
	},
}
