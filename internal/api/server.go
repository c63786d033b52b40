// Package api exposes the intake HTTP surface: deal and checklist reads,
// artifact enqueueing, and manual classification overrides.
package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/gmsas95/dealintake/internal/artifact"
	"github.com/gmsas95/dealintake/internal/checklist"
	"github.com/gmsas95/dealintake/internal/classify"
	"github.com/gmsas95/dealintake/internal/config"
	"github.com/gmsas95/dealintake/internal/store"
)

// Server handles the HTTP API.
type Server struct {
	app        *fiber.App
	config     *config.Config
	store      *store.Store
	queue      *artifact.Queue
	reconciler *checklist.Reconciler
	logger     *zap.Logger
}

// New creates the API server.
func New(cfg *config.Config, s *store.Store, queue *artifact.Queue, reconciler *checklist.Reconciler, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	})

	srv := &Server{
		app:        app,
		config:     cfg,
		store:      s,
		queue:      queue,
		reconciler: reconciler,
		logger:     logger,
	}
	srv.setupRoutes()
	return srv
}

func (s *Server) setupRoutes() {
	s.app.Use(recover.New())
	s.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(s.config.Security.AllowOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	s.app.Get("/api/health", s.handleHealth)

	api := s.app.Group("/api")
	api.Post("/auth/login", s.handleLogin)

	protected := api.Use(s.authMiddleware())

	// Deals
	protected.Post("/deals", s.handleCreateDeal)
	protected.Get("/deals/:id", s.handleGetDeal)
	protected.Get("/deals/:id/checklist", s.handleGetChecklist)
	protected.Get("/deals/:id/readiness", s.handleGetReadiness)
	protected.Get("/deals/:id/documents", s.handleListDocuments)
	protected.Get("/deals/:id/facts", s.handleGetDealFacts)
	protected.Get("/deals/:id/ledger", s.handleGetLedger)

	// Artifacts
	protected.Post("/artifacts", s.handleEnqueue)
	protected.Get("/artifacts/:id", s.handleGetArtifact)

	// Documents
	protected.Get("/documents/:id", s.handleGetDocument)
	protected.Get("/documents/:id/facts", s.handleGetDocumentFacts)
	protected.Post("/documents/:id/override", s.handleManualOverride)
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start starts the server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Address, s.config.Server.Port)
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.app.ShutdownWithContext(ctx)
}

// ==================== Handlers ====================

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"version":   "0.1.0",
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req struct {
		ClientID string `json:"client_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}
	if req.ClientID == "" {
		req.ClientID = "default"
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": req.ClientID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	})
	tokenString, err := token.SignedString([]byte(s.config.Security.JWTSecret))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to generate token"})
	}

	return c.JSON(fiber.Map{"token": tokenString})
}

func (s *Server) handleCreateDeal(c *fiber.Ctx) error {
	var req struct {
		BankID       string `json:"bank_id"`
		BorrowerName string `json:"borrower_name"`
		EntityType   string `json:"entity_type"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}
	if req.BankID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "bank_id is required"})
	}

	deal := &store.Deal{
		BankID:       req.BankID,
		BorrowerName: req.BorrowerName,
		EntityType:   req.EntityType,
	}
	if err := s.store.CreateDeal(deal); err != nil {
		s.logger.Error("Failed to create deal", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to create deal"})
	}
	if err := checklist.Seed(s.store, deal.ID); err != nil {
		s.logger.Error("Failed to seed checklist", zap.String("deal_id", deal.ID), zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to seed checklist"})
	}

	return c.Status(201).JSON(deal)
}

func (s *Server) handleGetDeal(c *fiber.Ctx) error {
	deal, err := s.store.GetDeal(c.Params("id"))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "deal not found"})
	}
	return c.JSON(deal)
}

func (s *Server) handleGetChecklist(c *fiber.Ctx) error {
	items, err := s.store.GetChecklistItems(c.Params("id"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to get checklist"})
	}
	return c.JSON(items)
}

func (s *Server) handleGetReadiness(c *fiber.Ctx) error {
	dealID := c.Params("id")
	ready, err := s.reconciler.RecomputeReadiness(dealID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to recompute readiness"})
	}

	items, err := s.store.GetChecklistItems(dealID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to get checklist"})
	}
	var open []string
	for _, item := range items {
		if !item.Required {
			continue
		}
		switch item.Status {
		case store.ChecklistReceived, store.ChecklistSatisfied, store.ChecklistWaived:
		default:
			open = append(open, item.Key)
		}
	}

	return c.JSON(fiber.Map{
		"deal_id":    dealID,
		"ready":      ready,
		"open_items": open,
	})
}

func (s *Server) handleListDocuments(c *fiber.Ctx) error {
	docs, err := s.store.ListDocuments(c.Params("id"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to list documents"})
	}
	return c.JSON(docs)
}

func (s *Server) handleGetDealFacts(c *fiber.Ctx) error {
	facts, err := s.store.GetDealFacts(c.Params("id"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to get facts"})
	}
	return c.JSON(facts)
}

func (s *Server) handleGetLedger(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	events, err := s.store.ListLedgerEvents(c.Params("id"), limit)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to get ledger"})
	}
	return c.JSON(events)
}

func (s *Server) handleEnqueue(c *fiber.Ctx) error {
	var req struct {
		DealID      string `json:"deal_id"`
		BankID      string `json:"bank_id"`
		SourceTable string `json:"source_table"`
		SourceID    string `json:"source_id"`
		Filename    string `json:"filename"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}
	if req.DealID == "" || req.SourceTable == "" || req.SourceID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "deal_id, source_table, and source_id are required"})
	}
	if _, err := s.store.GetDeal(req.DealID); err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "deal not found"})
	}

	res, err := s.queue.Enqueue(req.DealID, req.BankID, req.SourceTable, req.SourceID, req.Filename)
	if err != nil {
		s.logger.Error("Failed to enqueue artifact", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to enqueue"})
	}

	status := 201
	if res.AlreadyQueued {
		status = 200
	}
	return c.Status(status).JSON(fiber.Map{
		"ok":             true,
		"artifact_id":    res.Artifact.ID,
		"already_queued": res.AlreadyQueued,
	})
}

func (s *Server) handleGetArtifact(c *fiber.Ctx) error {
	a, err := s.store.GetArtifact(c.Params("id"))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "artifact not found"})
	}
	return c.JSON(a)
}

func (s *Server) handleGetDocument(c *fiber.Ctx) error {
	doc, err := s.store.GetDocument(c.Params("id"))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "document not found"})
	}
	return c.JSON(doc)
}

func (s *Server) handleGetDocumentFacts(c *fiber.Ctx) error {
	facts, err := s.store.GetFacts(c.Params("id"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to get facts"})
	}
	return c.JSON(facts)
}

// handleManualOverride pins a document's classification. The override
// invalidates automated facts and wins over any in-flight pipeline run.
func (s *Server) handleManualOverride(c *fiber.Ctx) error {
	var req struct {
		DocType      string `json:"doc_type"`
		ChecklistKey string `json:"checklist_key"`
		TaxYear      int    `json:"tax_year"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}
	if req.DocType == "" {
		return c.Status(400).JSON(fiber.Map{"error": "doc_type is required"})
	}
	docType := classify.ParseDocType(req.DocType)

	doc, err := s.store.GetDocument(c.Params("id"))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "document not found"})
	}

	doc.DocType = string(docType)
	doc.DocTypeConfidence = 1.0
	doc.Tier = "manual"
	doc.MatchSource = store.MatchSourceManual
	if req.TaxYear > 0 {
		doc.TaxYear = req.TaxYear
	}
	if req.ChecklistKey != "" {
		doc.ChecklistKey = req.ChecklistKey
	} else if keys := checklist.KeysFor(docType, doc.TaxYear); len(keys) > 0 {
		doc.ChecklistKey = keys[0]
	}

	if err := s.store.UpdateDocument(doc); err != nil {
		s.logger.Error("Failed to apply override", zap.String("document_id", doc.ID), zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to apply override"})
	}

	// Automated facts no longer describe the document's true type.
	if err := s.store.DeleteFacts(doc.ID); err != nil {
		s.logger.Error("Failed to clear facts after override", zap.String("document_id", doc.ID), zap.Error(err))
	}

	if err := s.reconciler.Reconcile(doc.DealID); err != nil {
		s.logger.Error("Reconcile after override failed", zap.String("deal_id", doc.DealID), zap.Error(err))
	}
	if _, err := s.reconciler.RecomputeReadiness(doc.DealID); err != nil {
		s.logger.Error("Readiness after override failed", zap.String("deal_id", doc.DealID), zap.Error(err))
	}

	return c.JSON(doc)
}
