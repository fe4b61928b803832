package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MeKo-Tech/contourbg/internal/host/term"
	"github.com/MeKo-Tech/contourbg/internal/typewriter"
	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var termCmd = &cobra.Command{
	Use:   "term",
	Short: "Run the live background in the terminal",
	Long: `Run the background in the terminal using half-block cells.

Keys: j/k or arrows scroll, Space/b page, g/G top/bottom, mouse wheel
scrolls, e toggles the "more" section, l switches the hero language,
q or Esc quits.`,
	RunE: runTerm,
}

func init() {
	rootCmd.AddCommand(termCmd)

	termCmd.Flags().Float64("pixel-scale", 8, "Virtual CSS pixels per half-block pixel")
	termCmd.Flags().Float64("screens", 5, "Page height in viewport heights")
	termCmd.Flags().Float64("more", 2, "Viewport heights added by the \"more\" section")
	termCmd.Flags().String("lang", "cn", "Initial hero language (cn, en)")
	termCmd.Flags().Int("fps", 30, "Frames per second")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"term.pixel_scale", "pixel-scale"},
		{"term.screens", "screens"},
		{"term.more", "more"},
		{"term.lang", "lang"},
		{"term.fps", "fps"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, termCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runTerm(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	lang, err := typewriter.ParseLanguage(viper.GetString("term.lang"))
	if err != nil {
		return err
	}
	p, err := loadProfile()
	if err != nil {
		return err
	}
	seed := resolveSeed()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to init terminal: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()
	screen.HideCursor()

	h, err := term.New(screen, term.Config{
		Profile:    p,
		Rand:       newRand(seed),
		PixelScale: viper.GetFloat64("term.pixel_scale"),
		Screens:    viper.GetFloat64("term.screens"),
		Expanded:   viper.GetFloat64("term.more"),
		Language:   lang,
		FPS:        viper.GetInt("term.fps"),
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return h.Run(ctx)
}
