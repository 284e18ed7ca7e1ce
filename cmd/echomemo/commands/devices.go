package commands

import (
	"github.com/spf13/cobra"

	"github.com/haivivi/echomemo/pkg/audio/portaudio"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio devices",
	Long: `List the PortAudio devices. Use the index in audio.input_device and
audio.output_device; -1 selects the system default.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := portaudio.Initialize(); err != nil {
			return err
		}
		defer portaudio.Terminate()
		return portaudio.FprintDevices(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
