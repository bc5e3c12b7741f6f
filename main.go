package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"cameo/catalog"
	"cameo/config"
	"cameo/serve"
	"cameo/util"
	"cameo/video"
	"cameo/video/cv"
	"cameo/video/session"
	"cameo/video/sink"
	"cameo/video/source"
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "syntax: %s [flags]\n", os.Args[0])
		pflag.PrintDefaults()
	}
	configPath := pflag.String("config", "", "JSON config file, reloaded when it changes.")
	device := pflag.String("device", "", "Camera index or video file; overrides the config.")
	port := pflag.Int("port", -1, "Port for the web frontend; 0 disables it. Overrides the config.")
	logLevel := pflag.String("log-level", "info", "Log level.")
	pflag.Parse()

	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("Bad log level: %v", err)
	}
	log.SetLevel(level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *configPath != "" {
		if err := config.Load(ctx, *configPath); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	cfg := config.Get()
	if *device != "" || *port >= 0 {
		c := *cfg
		if *device != "" {
			c.Device = *device
		}
		if *port >= 0 {
			c.HTTPPort = *port
		}
		cfg = &c
		config.Set(cfg)
	}

	fs, err := video.NewFilesystem(video.FilesystemOptions{
		BasePath:    cfg.OutputDir,
		SnapshotExt: cfg.SnapshotExt,
		VideoExt:    cfg.VideoExt,
		MaxSize:     cfg.MaxCaptureSize,
	})
	if err != nil {
		log.Fatalf("Failed to create filesystem: %v", err)
	}

	var encoders session.EncoderFactory = cv.VideoWriterFactory{}
	if cfg.Encoder == config.EncoderFFmpeg {
		ffmpegp, err := util.LocateFFmpeg()
		if err != nil {
			log.Fatalf("Unable to locate ffmpeg binary: %v. "+
				"Either ensure the ffmpeg binary is in $PATH, or set the FFMPEG environment variable.", err)
		}
		log.Infof("Located ffmpeg binary, %v", ffmpegp)
		encoders = sink.FFmpegFactory{Path: ffmpegp}
	}
	if cfg.NormalizeFPS {
		encoders = sink.NormalizedFactory{EncoderFactory: encoders}
	}

	capture, err := source.OpenCapture(cfg.Device)
	if err != nil {
		log.Fatalf("Failed to open device: %v", err)
	}

	window := cv.NewWindow(cfg.WindowName)
	defer window.Close()

	mjpegServer := sink.NewMJPEGServer(cv.Encode)
	stream := mjpegServer.NewStream("default")
	defer stream.Close()

	metaws := serve.NewMetaUpdater()
	defer metaws.Close()
	fs.Listeners = append(fs.Listeners, metaws)

	listeners := []session.Listener{fs, metaws}
	if cfg.CatalogDSN != "" {
		cat, err := catalog.Open(cfg.CatalogDSN)
		if err != nil {
			log.Fatalf("Failed to open catalog: %v", err)
		}
		defer cat.Close()
		listeners = append(listeners, cat)
	}

	preview := sink.Tee{window, stream}
	sess := session.New(capture, session.Options{
		Preview:       preview,
		MirrorPreview: cfg.MirrorPreview,
		Images:        &sink.ImageFile{Encode: cv.Encode},
		Encoders:      encoders,
		Listeners:     listeners,
		Metrics:       session.NewMetrics(prometheus.DefaultRegisterer),
	})
	defer func() {
		if err := sess.Close(); err != nil {
			log.Errorf("Error closing session: %v", err)
		}
	}()

	control := serve.NewControlServer()
	if cfg.HTTPPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/mjpeg", mjpegServer)
		mux.Handle("/captures", &serve.MetaServer{FS: fs})
		mux.Handle("/capture", &serve.FileServer{FS: fs})
		mux.Handle("/delete", &serve.DeleteServer{FS: fs})
		mux.Handle("/control", control)
		mux.Handle("/events", metaws)
		mux.Handle("/metrics", promhttp.Handler())
		mux.Handle("/debug/pprof/", http.DefaultServeMux)

		h := handlers.CombinedLoggingHandler(log.StandardLogger().WriterLevel(log.DebugLevel), mux)
		h = handlers.CORS(handlers.AllowedMethods([]string{"GET", "POST"}))(h)
		go func() {
			log.Infof("Hosting web frontend on port %d", cfg.HTTPPort)
			log.Error(http.ListenAndServe(fmt.Sprintf(":%d", cfg.HTTPPort), h))
		}()
	}

	quit := util.NewEvent()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Infof("Caught signal %v", sig)
		quit.Notify()
	}()

	app := &app{
		session:  sess,
		window:   window,
		preview:  preview,
		fs:       fs,
		commands: control.Commands,
		quit:     quit,
	}
	app.run()
}
