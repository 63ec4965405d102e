package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shop-sim-viewer/src/catalog"
	"shop-sim-viewer/src/config"
	pb "shop-sim-viewer/src/grpc_control"
	"shop-sim-viewer/src/logger"
	"shop-sim-viewer/src/network"
	"shop-sim-viewer/src/render"
	"shop-sim-viewer/src/server"
	"shop-sim-viewer/src/session"
	"shop-sim-viewer/src/simapi"
	"shop-sim-viewer/src/storage"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

// -----------------------------------------------------------------------------

func main() {
	// 1. Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Parse()

	// 2. Load config
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// 3. Setup Logger
	appLogger := logger.NewLogger(conf.MConfig, conf.Name)

	// 4. Simulation API client
	networkManager := network.NewAsyncNetworkManager(conf.MConfig, logger.NewLogger(conf.MConfig, "NetworkManager"))
	api := simapi.NewClient(conf.API.BaseURL, networkManager, logger.NewLogger(conf.MConfig, "SimulationAPI"))

	// 5. Storage and branch catalog
	db, err := storage.Open(conf.MConfig)
	if err != nil {
		appLogger.Critical("Failed to init db: %v", err)
	}

	branches := catalog.NewBranchCatalog(
		api,
		db,
		time.Duration(conf.Catalog.CacheTTLSeconds)*time.Second,
		logger.NewLogger(conf.MConfig, "BranchCatalog"),
	)

	// 6. Sessions
	manager := session.NewManager(conf.MConfig, api, logger.NewLogger(conf.MConfig, "SessionManager"))
	manager.Maps = branches
	manager.Invoices = branches

	// 7. Viewer
	renderer, err := render.NewMapRenderer(conf.Viewer.CellSize, logger.NewLogger(conf.MConfig, "MapRenderer"))
	if err != nil {
		appLogger.Critical("Failed to build renderer: %v", err)
	}
	srv := server.NewViewerServer(conf.MConfig, manager, branches, renderer, logger.NewLogger(conf.MConfig, "ViewerServer"))
	manager.Observer = srv

	// 8. gRPC Control Server
	var grpcServer *grpc.Server
	var lis net.Listener
	if conf.GrpcPort != 0 {
		lis, err = net.Listen("tcp", fmt.Sprintf("%s:%d", conf.GrpcHost, conf.GrpcPort))
		if err != nil {
			appLogger.Critical("failed to listen for gRPC: %v", err)
		}
		grpcServer = grpc.NewServer()
		pb.RegisterSimulationControlServer(grpcServer, pb.NewControlService(conf, *configPath, manager, logger.NewLogger(conf.MConfig, "ControlService")))
	}

	// 9. Run until a signal or a server failure
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	if grpcServer != nil {
		g.Go(func() error {
			appLogger.Info("Starting gRPC Control Server on %s", lis.Addr())
			if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("grpc: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down...")
		if grpcServer != nil {
			grpcServer.GracefulStop()
		}
		manager.Stop()
		return srv.Stop()
	})

	err = g.Wait()
	if cerr := db.Close(); cerr != nil {
		appLogger.Warning("Closing db: %v", cerr)
	}
	if err != nil {
		appLogger.Error("Stopped with error: %v", err)
		os.Exit(1)
	}
	appLogger.Info("Shutdown complete.")
}
