package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Beastly713/lsbkit/pkg/imageio"
	"github.com/Beastly713/lsbkit/pkg/pipeline"
	"github.com/Beastly713/lsbkit/pkg/stego"
)

var (
	extractPassword string
	extractOutput   string
	extractLayout   string
	extractSealed   bool
)

var extractCmd = &cobra.Command{
	Use:   "extract [image]",
	Short: "Read a hidden message from an image",
	Long: `Extract reads the message hidden by 'lsbkit hide'.

Without --sealed a wrong password is not detected: the command prints
garbled text instead of failing.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		layout, err := layoutOption(extractLayout)
		if err != nil {
			return err
		}

		carrier, _, err := imageio.Load(args[0])
		if err != nil {
			return err
		}

		password, err := readPassword(cmd, extractPassword)
		if err != nil {
			return err
		}
		defer password.Destroy()

		message, err := extractMessage(carrier, password.Bytes(), extractSealed, layout)
		if err != nil {
			return err
		}
		logger.Debug("message extracted", "path", args[0], "sealed", extractSealed, "chars", len([]rune(message)))

		if extractOutput != "" {
			if err := os.WriteFile(extractOutput, []byte(message), 0600); err != nil {
				return fmt.Errorf("failed to write message: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Message written to %s\n", extractOutput)
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), message)
		return nil
	},
}

func extractMessage(carrier *stego.PixelBuffer, password []byte, sealed bool, layout stego.Option) (string, error) {
	if !sealed {
		return stego.Extract(carrier, string(password), layout)
	}
	cfg, err := sealedConfig()
	if err != nil {
		return "", err
	}
	return pipeline.Extract(carrier, password, cfg, layout)
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVarP(&extractPassword, "password", "p", "", "Password (default: $"+passwordEnv+" or prompt)")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "Write the message to a file instead of stdout")
	extractCmd.Flags().StringVar(&extractLayout, "layout", "", "Payload layout: rgb or sequential")
	extractCmd.Flags().BoolVar(&extractSealed, "sealed", false, "Read a message written with 'hide --sealed'")
}
