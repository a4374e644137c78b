package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Beastly713/lsbkit/pkg/crypto/keystream"
	"github.com/Beastly713/lsbkit/pkg/imageio"
	"github.com/Beastly713/lsbkit/pkg/pipeline"
	"github.com/Beastly713/lsbkit/pkg/stego"
)

// defaultOutputName is used when -o is not given.
const defaultOutputName = "hidden-message"

var (
	hideMessage     string
	hideMessageFile string
	hidePassword    string
	hideOutput      string
	hideFormat      string
	hideLayout      string
	hideSealed      bool
)

var hideCmd = &cobra.Command{
	Use:   "hide [image]",
	Short: "Hide a message inside an image",
	Long: `Hide a password protected message in the least significant bits of
an image. The result is always written in a lossless format.

Example:
  lsbkit hide cat.png -m "meet at noon" -p swordfish

  This writes hidden-message.png next to cat.png.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputPath := args[0]

		// 1. Resolve the message
		message, err := readMessage(cmd)
		if err != nil {
			return err
		}

		// 2. Resolve the output
		outFormat, outPath, err := resolveOutput(inputPath)
		if err != nil {
			return err
		}
		level, err := imageio.ParsePNGCompression(settings.PNGCompression)
		if err != nil {
			return err
		}
		layout, err := layoutOption(hideLayout)
		if err != nil {
			return err
		}

		// 3. Load the carrier
		carrier, inFormat, err := imageio.Load(inputPath)
		if err != nil {
			return err
		}
		logger.Debug("carrier loaded",
			"path", inputPath,
			"format", inFormat,
			"width", carrier.Width,
			"height", carrier.Height,
			"capacity_bits", stego.CapacityOf(carrier).Bits)

		password, err := readPassword(cmd, hidePassword)
		if err != nil {
			return err
		}
		defer password.Destroy()

		// 4. Embed
		var out *stego.PixelBuffer
		if hideSealed {
			sealedCfg, err := sealedConfig()
			if err != nil {
				return err
			}
			out, err = pipeline.Hide(carrier, message, password.Bytes(), sealedCfg, layout)
			if err != nil {
				return err
			}
		} else {
			if !keystream.Latin1(message) || !keystream.Latin1(password.String()) {
				logger.Warn("message or password has characters outside Latin-1; they will not survive extraction, use --sealed to keep them")
			}
			out, err = stego.Hide(carrier, message, password.String(), layout)
			if err != nil {
				return err
			}
		}

		// 5. Write
		if err := imageio.Save(outPath, out, outFormat, imageio.WithPNGCompression(level)); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Message hidden in %s\n", outPath)
		return nil
	},
}

func readMessage(cmd *cobra.Command) (string, error) {
	if hideMessage != "" && hideMessageFile != "" {
		return "", errors.New("use either --message or --message-file, not both")
	}
	if hideMessageFile == "" {
		if hideMessage == "" {
			return "", stego.ErrMessageRequired
		}
		return hideMessage, nil
	}

	var (
		data []byte
		err  error
	)
	if hideMessageFile == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(hideMessageFile)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read message: %w", err)
	}
	// Drop the newline that editors and echo leave at the end of the file.
	message := string(data)
	if strings.HasSuffix(message, "\r\n") {
		message = strings.TrimSuffix(message, "\r\n")
	} else {
		message = strings.TrimSuffix(message, "\n")
	}
	if message == "" {
		return "", stego.ErrMessageRequired
	}
	return message, nil
}

// resolveOutput picks the output format and path. An explicit --format wins,
// then the extension of -o, then the configured default.
func resolveOutput(inputPath string) (imageio.Format, string, error) {
	name := settings.OutputFormat
	if hideFormat != "" {
		name = hideFormat
	} else if hideOutput != "" {
		if f, err := imageio.FormatFromPath(hideOutput); err == nil {
			name = string(f)
		}
	}

	f, err := imageio.ParseFormat(name)
	if err != nil {
		return "", "", err
	}
	if !f.Lossless() {
		return "", "", fmt.Errorf("%w: %s, choose png, bmp or tiff", imageio.ErrLossyFormat, f)
	}

	path := hideOutput
	if path == "" {
		path = filepath.Join(filepath.Dir(inputPath), defaultOutputName+f.Ext())
	}
	return f, path, nil
}

func init() {
	rootCmd.AddCommand(hideCmd)

	hideCmd.Flags().StringVarP(&hideMessage, "message", "m", "", "Message to hide")
	hideCmd.Flags().StringVar(&hideMessageFile, "message-file", "", "Read the message from a file ('-' for stdin); one trailing newline is dropped")
	hideCmd.Flags().StringVarP(&hidePassword, "password", "p", "", "Password (default: $"+passwordEnv+" or prompt)")
	hideCmd.Flags().StringVarP(&hideOutput, "output", "o", "", "Output image (default: hidden-message.png next to the input)")
	hideCmd.Flags().StringVar(&hideFormat, "format", "", "Output format: png, bmp or tiff")
	hideCmd.Flags().StringVar(&hideLayout, "layout", "", "Payload layout: rgb or sequential")
	hideCmd.Flags().BoolVar(&hideSealed, "sealed", false, "Compress, encrypt and add parity so UTF-8 survives and a wrong password is detected")
}
