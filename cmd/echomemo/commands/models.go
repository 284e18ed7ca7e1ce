package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haivivi/echomemo/pkg/assistant"
	"github.com/haivivi/echomemo/pkg/cli"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the Gemini models that can generate content",
	Long: `List the Gemini models available to ai.api_key that support content
generation. Any listed name can be used as ai.model.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if p := strings.ToLower(cfg.AI.Provider); p != "" && p != "gemini" {
			return fmt.Errorf("models lists Gemini models; ai.provider is %q", p)
		}
		if cfg.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key is not set (GEMINI_API_KEY)")
		}
		g, err := assistant.NewGemini(cmd.Context(), assistant.Config{
			APIKey:  cfg.AI.APIKey,
			Timeout: cfg.AI.Timeout.D(),
		})
		if err != nil {
			return err
		}
		models, err := g.ListModels(cmd.Context())
		if err != nil {
			return err
		}
		return cli.Output(modelList(models), outputOptions(cmd))
	},
}

type modelList []assistant.ModelInfo

func (l modelList) Header() []string { return []string{"NAME", "DISPLAY NAME", "INPUT", "OUTPUT"} }

func (l modelList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, m := range l {
		rows = append(rows, []string{m.Name, m.DisplayName, strconv.Itoa(m.InputTokens), strconv.Itoa(m.OutputTokens)})
	}
	return rows
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
