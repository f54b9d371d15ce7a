package cli

import (
	"fmt"
	"io"
	"os"

	"draft_worker/core/service/triage"
	"draft_worker/pkg/logger"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	classifySubject  string
	classifyBody     string
	classifyBodyFile string
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Preview how a message would be classified and drafted",
	Long: `Classify a subject and body, then print the flags, resolved type, fingerprint
and template caption as YAML. Nothing is read from or written to Google.

Use --body-file - to read the body from stdin.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		body := classifyBody
		if classifyBodyFile != "" {
			data, err := readBodyFile(cmd.InOrStdin(), classifyBodyFile)
			if err != nil {
				return err
			}
			body = string(data)
		}
		if classifySubject == "" && body == "" {
			return fmt.Errorf("--subject or a body is required")
		}

		svc := triage.NewService(triage.Deps{}, triage.Config{}, logger.Default())
		preview := svc.Preview(classifySubject, body)

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(preview); err != nil {
			return fmt.Errorf("encoding preview: %w", err)
		}
		return enc.Close()
	},
}

func init() {
	classifyCmd.Flags().StringVarP(&classifySubject, "subject", "s", "", "message subject, tags included")
	classifyCmd.Flags().StringVarP(&classifyBody, "body", "b", "", "message body")
	classifyCmd.Flags().StringVar(&classifyBodyFile, "body-file", "", "read the body from a file (- for stdin)")
	rootCmd.AddCommand(classifyCmd)
}

func readBodyFile(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return data, nil
}
