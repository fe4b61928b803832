package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/MeKo-Tech/contourbg/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve rendered frames, altimeter readings and an optional demo page",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().String("demo-dir", "", "Directory with static demo files served under /demo/ (e.g. the WASM build)")
	serveCmd.Flags().Int("max-concurrent-renders", runtime.NumCPU(), "Max concurrent frame renders (default: number of CPUs)")
	serveCmd.Flags().Duration("render-timeout", 10*time.Second, "Timeout per frame request, including time spent queued")
	serveCmd.Flags().String("cache-control", "no-store", "Cache-Control header for served frames")
	serveCmd.Flags().Int("max-width", 3840, "Largest accepted frame width in device pixels")
	serveCmd.Flags().Int("max-height", 2160, "Largest accepted frame height in device pixels")
	serveCmd.Flags().Float32("soften", 0, "Gaussian blur sigma applied to every frame (0 = off)")

	mustBind := func(key string, name string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}

	mustBind("serve.addr", "addr")
	mustBind("serve.demo_dir", "demo-dir")
	mustBind("serve.max_concurrent_renders", "max-concurrent-renders")
	mustBind("serve.render_timeout", "render-timeout")
	mustBind("serve.cache_control", "cache-control")
	mustBind("serve.max_width", "max-width")
	mustBind("serve.max_height", "max-height")
	mustBind("serve.soften", "soften")
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	addr := viper.GetString("serve.addr")
	demoDir := viper.GetString("serve.demo_dir")
	maxConc := viper.GetInt("serve.max_concurrent_renders")

	p, err := loadProfile()
	if err != nil {
		return err
	}
	seed := resolveSeed()

	frames, err := server.NewFrames(server.FramesConfig{
		Profile:       p,
		Seed:          seed,
		CacheControl:  viper.GetString("serve.cache_control"),
		MaxWidth:      viper.GetInt("serve.max_width"),
		MaxHeight:     viper.GetInt("serve.max_height"),
		Soften:        float32(viper.GetFloat64("serve.soften")),
		MaxConcurrent: maxConc,
		RenderTimeout: viper.GetDuration("serve.render_timeout"),
	}, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{Addr: addr, Handler: newServeMux(frames, demoDir), ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("frame server listening",
		"addr", addr,
		"profile", p.Name,
		"seed", seed,
		"demo_dir", demoDir,
		"max_concurrent_renders", maxConc,
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newServeMux(frames *server.Frames, demoDir string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	mux.Handle("/frame.png", withCORS(frames.FrameHandler()))
	mux.Handle("/altimeter", withCORS(frames.AltimeterHandler()))
	mux.Handle("/status", withCORS(frames.StatusHandler()))

	if demoDir != "" {
		fs := http.FileServer(http.Dir(demoDir))
		mux.Handle("/demo/", http.StripPrefix("/demo/", fs))
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/" {
				http.NotFound(w, r)
				return
			}
			http.Redirect(w, r, "/demo/", http.StatusFound)
		})
	}
	return mux
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
