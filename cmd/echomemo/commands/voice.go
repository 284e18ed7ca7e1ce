package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var voiceCmd = &cobra.Command{
	Use:   "voice",
	Short: "Voice-clone service tools",
}

var voiceUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a reference recording and print its URL",
	Long: `Upload a WAV recording of the voice to clone. The printed URL can be
used as voice.persona_voice (or PERSONA_VOICE_ID).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Voice.APIKey == "" {
			return fmt.Errorf("voice.api_key is not set (MIX_VOICE_API_KEY)")
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		url, err := newVoiceClient(cfg).Upload(cmd.Context(), f, filepath.Base(args[0]))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), url)
		return nil
	},
}

func init() {
	voiceCmd.AddCommand(voiceUploadCmd)
	rootCmd.AddCommand(voiceCmd)
}
