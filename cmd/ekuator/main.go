package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/agunghasbi/be-ekuator/config"
	"github.com/agunghasbi/be-ekuator/internal/adminapi"
	"github.com/agunghasbi/be-ekuator/internal/app"
	"github.com/agunghasbi/be-ekuator/internal/webserver"
)

var (
	conffile = flag.String("c", "", "config yaml file")
	initdb   = flag.Bool("initdb", false, "drop and recreate all tables, then exit")
	showconf = flag.Bool("showconf", false, "print the effective config and exit")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(*conffile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *showconf {
		fmt.Printf("%+v\n", *cfg)
		return
	}
	if err := cfg.InitDirs(); err != nil {
		fmt.Fprintf(os.Stderr, "init dirs: %v\n", err)
		os.Exit(1)
	}

	application := app.NewApplication(cfg)
	if err := application.Init(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "init application: %v\n", err)
		os.Exit(1)
	}
	defer application.Release()

	if *initdb {
		application.InitDb()
		zap.S().Info("database initialized")
		return
	}

	webserver.Init(application)
	adminapi.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(webserver.Listen)
	g.Go(func() error {
		<-gctx.Done()
		zap.S().Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return webserver.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zap.L().Error("server stopped", zap.Error(err))
		return
	}
	zap.S().Info("Server stopped")
}
