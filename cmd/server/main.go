package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/sgc-erp/be-hr-approvals/internal/client"
	"github.com/sgc-erp/be-hr-approvals/internal/config"
	"github.com/sgc-erp/be-hr-approvals/internal/database"
	"github.com/sgc-erp/be-hr-approvals/internal/handler"
	"github.com/sgc-erp/be-hr-approvals/internal/logger"
	"github.com/sgc-erp/be-hr-approvals/internal/middleware"
	"github.com/sgc-erp/be-hr-approvals/internal/natsclient"
	"github.com/sgc-erp/be-hr-approvals/internal/repository"
	"github.com/sgc-erp/be-hr-approvals/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:       cfg.Service.LogLevel,
		Environment: cfg.Service.Environment,
		ServiceName: cfg.Service.Name,
		Version:     cfg.Service.Version,
	})

	log.Info().
		Str("service", cfg.Service.Name).
		Str("version", cfg.Service.Version).
		Str("environment", cfg.Service.Environment).
		Msg("Starting HR Approvals Service")

	if cfg.Approval.AllowUnverifiedApprover {
		log.Warn().Msg("approver identity check is DISABLED (approval.allow_unverified_approver); never enable this in production")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := database.New(ctx, database.Config{
		Host:        cfg.Database.Host,
		Port:        cfg.Database.Port,
		User:        cfg.Database.User,
		Password:    cfg.Database.Password,
		Database:    cfg.Database.Database,
		SSLMode:     cfg.Database.SSLMode,
		MaxConns:    cfg.Database.MaxConns,
		MinConns:    cfg.Database.MinConns,
		MaxConnTime: cfg.Database.MaxConnTime,
		MaxIdleTime: cfg.Database.MaxIdleTime,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("Database connection established")

	// Initialize NATS for outbound notifications
	nats, err := natsclient.Connect(natsclient.Config{
		URL:  cfg.NATS.URL,
		Name: cfg.Service.Name,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to NATS")
	}
	defer nats.Close()
	log.Info().Str("url", cfg.NATS.URL).Msg("NATS connection established")

	// Initialize repositories
	workflowRepo := repository.NewApprovalWorkflowRepository(db)
	levelsRepo := repository.NewApprovalLevelsRepository(db)
	auditRepo := repository.NewApprovalAuditRepository(db)
	notifyLogRepo := repository.NewNotificationLogRepository(db)
	candidateRepo := repository.NewCandidateRepository(db)
	onboardingRepo := repository.NewOnboardingRepository(db)
	chainRepo := repository.NewApproverChainRepository(db)

	// Initialize collaborators and the workflow service
	publisher := client.NewNotificationPublisher(nats, cfg.NATS.SubjectPrefix, log.Logger)

	approvalService := service.NewApprovalWorkflowService(
		workflowRepo,
		levelsRepo,
		auditRepo,
		notifyLogRepo,
		candidateRepo,
		onboardingRepo,
		chainRepo,
		publisher,
		service.Config{
			PublicBaseURL:           cfg.Approval.PublicBaseURL,
			AllowUnverifiedApprover: cfg.Approval.AllowUnverifiedApprover,
		},
		log,
	)

	// Setup HTTP routes
	httpHandler := handler.NewHTTPHandler(approvalService, log)
	publicHandler := handler.NewPublicHandler(approvalService, log)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Internal approval routes
	mux.HandleFunc("POST /api/v1/approvals", httpHandler.CreateWorkflow)
	mux.HandleFunc("GET /api/v1/approvals", httpHandler.ListWorkflows)
	mux.HandleFunc("GET /api/v1/approvals/pending", httpHandler.PendingForUser)
	mux.HandleFunc("GET /api/v1/approvals/{id}", httpHandler.GetWorkflow)
	mux.HandleFunc("GET /api/v1/approvals/{id}/history", httpHandler.GetHistory)
	mux.HandleFunc("GET /api/v1/approvals/{id}/notifications", httpHandler.GetNotifications)
	mux.HandleFunc("POST /api/v1/approvals/{id}/approve", httpHandler.Approve)
	mux.HandleFunc("POST /api/v1/approvals/{id}/reject", httpHandler.Reject)
	mux.HandleFunc("POST /api/v1/approvals/{id}/remind", httpHandler.Remind)
	mux.HandleFunc("DELETE /api/v1/approvals/{id}", httpHandler.Cancel)

	// Approver chain routes
	mux.HandleFunc("POST /api/v1/approver-chains", httpHandler.CreateApproverChain)
	mux.HandleFunc("GET /api/v1/approver-chains", httpHandler.ListApproverChains)

	// Public routes reached via emailed approval links
	mux.HandleFunc("GET /api/v1/public/approvals/{id}", publicHandler.GetWorkflow)
	mux.HandleFunc("POST /api/v1/public/approvals/{id}/approve", publicHandler.Approve)
	mux.HandleFunc("POST /api/v1/public/approvals/{id}/reject", publicHandler.Reject)

	// Apply middleware
	var h http.Handler = mux
	h = middleware.Identity(h)
	h = middleware.RequestID(h)
	h = middleware.Logger(&log.Logger)(h)
	h = middleware.Recovery(&log.Logger)(h)
	h = middleware.CORS([]string{"*"})(h)
	h = middleware.Timeout(cfg.Server.RequestTimeout)(h)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	// Start gRPC server (health service only, used by platform probes)
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthServer.SetServingStatus(cfg.Service.Name, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	grpcListener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRPCPort))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create gRPC listener")
	}

	go func() {
		log.Info().Int("port", cfg.Server.GRPCPort).Msg("Starting gRPC health server")
		if err := grpcServer.Serve(grpcListener); err != nil {
			log.Error().Err(err).Msg("gRPC server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	healthServer.SetServingStatus(cfg.Service.Name, healthpb.HealthCheckResponse_NOT_SERVING)
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	grpcServer.GracefulStop()

	log.Info().Msg("Server stopped")
}
