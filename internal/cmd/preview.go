package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/contourbg/internal/host/window"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show the live background in a window (requires -tags ebiten)",
	Long: `Open a window running the background live. Scroll with the mouse wheel,
arrow keys, Space/PageUp/PageDown and Home/End; E toggles the extra "more"
section so the page grows; Q or Esc quits.`,
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().String("size", "1280x720", "Initial window size WIDTHxHEIGHT")
	previewCmd.Flags().Float64("screens", 5, "Page height in viewport heights")
	previewCmd.Flags().Float64("more", 2, "Viewport heights added by the \"more\" section")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"preview.size", "size"},
		{"preview.screens", "screens"},
		{"preview.more", "more"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, previewCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runPreview(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}
	if !window.Available {
		return window.ErrHeadless
	}

	width, height, err := parseSize(viper.GetString("preview.size"))
	if err != nil {
		return err
	}
	p, err := loadProfile()
	if err != nil {
		return err
	}
	seed := resolveSeed()

	logger.Info("Opening preview window", "profile", p.Name, "seed", seed, "size", fmt.Sprintf("%dx%d", width, height))
	return window.Run(window.Config{
		Profile:  p,
		Rand:     newRand(seed),
		Width:    width,
		Height:   height,
		Screens:  viper.GetFloat64("preview.screens"),
		Expanded: viper.GetFloat64("preview.more"),
		Title:    "contourbg: " + p.Name,
		Logger:   logger,
	})
}
