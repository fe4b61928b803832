package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/MeKo-Tech/contourbg/internal/export"
	"github.com/MeKo-Tech/contourbg/internal/render"
	"github.com/MeKo-Tech/contourbg/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render a scripted scroll from top to bottom as a frame sequence",
	Long: `Scroll a simulated page from the top to the bottom over --frames frames and
write one PNG per frame, optionally followed by an animated GIF. Frames are
captured sequentially and rendered in parallel.`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().Int("frames", 60, "Number of frames")
	exportCmd.Flags().String("size", "960x540", "Viewport size WIDTHxHEIGHT in CSS pixels")
	exportCmd.Flags().Float64("scale", 1, "Device pixel ratio")
	exportCmd.Flags().Float64("content", 0, "Page height in pixels (default: --screens viewport heights)")
	exportCmd.Flags().Float64("screens", 5, "Page height in viewport heights when --content is unset")
	exportCmd.Flags().Float32("soften", 0, "Gaussian blur sigma applied to every frame (0 = off)")
	exportCmd.Flags().IntP("workers", "w", 0, "Number of parallel workers (default: number of CPUs)")
	exportCmd.Flags().Bool("progress", true, "Show progress bar")
	exportCmd.Flags().Bool("allow-failures", false, "Exit successfully even if some frames fail")
	exportCmd.Flags().Bool("gif", false, "Also write an animated GIF of the sequence")
	exportCmd.Flags().Int("gif-delay", 4, "GIF frame delay in 1/100 s")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"export.frames", "frames"},
		{"export.size", "size"},
		{"export.scale", "scale"},
		{"export.content", "content"},
		{"export.screens", "screens"},
		{"export.soften", "soften"},
		{"export.workers", "workers"},
		{"export.progress", "progress"},
		{"export.allow_failures", "allow-failures"},
		{"export.gif", "gif"},
		{"export.gif_delay", "gif-delay"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, exportCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runExport(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	frames := viper.GetInt("export.frames")
	if frames < 1 {
		return fmt.Errorf("--frames must be >= 1, got %d", frames)
	}
	width, height, err := parseSize(viper.GetString("export.size"))
	if err != nil {
		return err
	}
	workers := viper.GetInt("export.workers")
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	outputDir := viper.GetString("output-dir")
	withGIF := viper.GetBool("export.gif")

	p, err := loadProfile()
	if err != nil {
		return err
	}
	seed := resolveSeed()

	vp := render.Viewport{Width: float64(width), Height: float64(height)}
	session, err := render.NewSession(p, vp, newRand(seed))
	if err != nil {
		return err
	}
	session.SetContentHeight(contentHeight(viper.GetFloat64("export.content"), viper.GetFloat64("export.screens"), vp.Height))

	opts := export.Options{
		OutputDir: outputDir,
		Soften:    float32(viper.GetFloat64("export.soften")),
		Logger:    logger,
	}
	if withGIF {
		opts.Frames = frames
	}
	writer, err := export.NewWriter(opts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received interrupt signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	tasks := export.Plan(session, frames)

	logger.Info("Starting export",
		"profile", p.Name,
		"seed", seed,
		"frames", frames,
		"size", fmt.Sprintf("%dx%d", width, height),
		"extent", session.Tracker().Target(),
		"workers", workers,
		"output_dir", outputDir,
	)

	progress := worker.NewProgress(len(tasks), viper.GetBool("export.progress"))
	pool, err := worker.New(worker.Config{
		Workers:    workers,
		Renderer:   session.Renderer(),
		Scale:      viper.GetFloat64("export.scale"),
		Sink:       writer,
		OnProgress: progress.Callback(),
	})
	if err != nil {
		return err
	}

	results := pool.Run(ctx, tasks)
	progress.Done()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("export cancelled: %w", err)
	}

	var failedCount int
	for _, r := range results {
		if r.Err != nil {
			failedCount++
			logger.Error("Frame failed", "index", r.Task.Index, "scroll", r.Task.Frame.ScrollOffset, "error", r.Err)
		}
	}

	logger.Info(progress.Summary())

	if failedCount > 0 {
		if !viper.GetBool("export.allow_failures") {
			return fmt.Errorf("%d frames failed to render", failedCount)
		}
		logger.Warn("Some frames failed, continuing due to --allow-failures", "failed_count", failedCount)
		if withGIF {
			logger.Warn("Skipping GIF because of missing frames")
		}
		return nil
	}

	if withGIF {
		gifPath := filepath.Join(outputDir, "scroll.gif")
		if err := writer.WriteGIF(gifPath, viper.GetInt("export.gif_delay"), results); err != nil {
			return err
		}
		logger.Info("GIF written", "path", gifPath)
	}
	return nil
}
