package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"genna-quiz-service/internal/config"
	"genna-quiz-service/internal/music"
	"genna-quiz-service/internal/storage"
	"genna-quiz-service/internal/ui/controller"
)

// terminalClientID scopes the terminal player's local storage.
const terminalClientID = "terminal"

// muteArgs silence ffplay; other players ignore or reject them.
var muteArgs = []string{"-volume", "0"}

// NewPlayCmd runs the quiz in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	var logFile string
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play the Genna quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), *configPath, logFile)
		},
	}
	cmd.Flags().StringVar(&logFile, "log-file", "genna-play.log", "where to write logs while the UI owns the terminal")
	return cmd
}

func runPlay(ctx context.Context, configPath, logFile string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	f, err := tea.LogToFile(logFile, "genna")
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	var output *music.ExecOutput
	st, err := buildStack(ctx, cfg, func() music.Output {
		output = music.NewExecOutput(cfg.Music.PlayerCommand, muteArgs)
		return output
	})
	if err != nil {
		return err
	}
	defer st.Close()

	player := st.music.Player(terminalClientID)
	if output != nil {
		output.OnEnded(func() { player.Ended() })
	}

	model := controller.New(controller.Services{
		Auth:        st.auth,
		Quiz:        st.quiz,
		Leaderboard: st.leaderboard,
		Content:     st.content,
		Music:       player,
	}, storage.ForClient(st.kv, terminalClientID))

	_, err = tea.NewProgram(model, tea.WithContext(ctx)).Run()
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("run terminal client: %w", err)
	}
	return nil
}
