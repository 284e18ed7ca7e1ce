package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/echomemo/pkg/cli"
	"github.com/haivivi/echomemo/pkg/gpio"
)

var checkDuration time.Duration

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the knob, buttons and screen",
	Long: `Print the pin assignment and current line levels, show a test screen,
then print every decoded knob and button event for --duration.

Turn the knob both ways and press both buttons: each detent should print
exactly one rotary_delta, each press and release one event.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		logs := cli.NewLogWriter(50)
		logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

		screen, err := openDisplay(cfg, out)
		if err != nil {
			cli.PrintWarning(out, "display unavailable: %v", err)
		} else {
			defer screen.Close()
			if err := screen.ShowLines("EchoMemo", "Hardware check", "Turn and press"); err != nil {
				cli.PrintWarning(out, "display: %v", err)
			} else {
				cli.PrintSuccess(out, "display %s ready (address 0x%02X)", cfg.Display.Driver, cfg.Display.Address)
			}
		}

		pins := gpio.Pins(cfg.Hardware.Pins)
		lines, err := gpio.Open(pins)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		n, err := gpio.CheckWiring(ctx, out, pins, *lines, gpio.Config{
			Debounce:        cfg.Hardware.Debounce.D(),
			EncoderDebounce: cfg.Hardware.EncoderDebounce.D(),
			Logger:          logger,
		}, checkDuration)
		fmt.Fprintf(out, "\n%d event(s)\n", n)
		if verbose {
			for _, l := range logs.Lines() {
				fmt.Fprintln(out, "  "+l)
			}
		}
		return err
	},
}

func init() {
	checkCmd.Flags().DurationVarP(&checkDuration, "duration", "d", 30*time.Second, "how long to watch for events")
	rootCmd.AddCommand(checkCmd)
}
