package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Beastly713/lsbkit/pkg/imageio"
	"github.com/Beastly713/lsbkit/pkg/stego"
)

var capacityCmd = &cobra.Command{
	Use:   "capacity [image]",
	Short: "Show how much text an image can hold",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		carrier, f, err := imageio.Load(args[0])
		if err != nil {
			return err
		}

		c := stego.CapacityOf(carrier)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Image:      %dx%d %s\n", carrier.Width, carrier.Height, f)
		fmt.Fprintf(out, "Capacity:   %d bits\n", c.Bits)
		fmt.Fprintf(out, "Characters: %d\n", c.Chars)
		if !f.Lossless() {
			fmt.Fprintf(out, "Note: %s is lossy; the result will be saved as %s\n", f, settings.OutputFormat)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(capacityCmd)
}
