package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "modeler-service/docs" // generated swagger docs
	"modeler-service/internal/coverage"
	"modeler-service/internal/database"
	"modeler-service/internal/handlers"
	"modeler-service/internal/ontology"
	"modeler-service/internal/scheduler"
	"modeler-service/internal/services"
)

// getEnv reads an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// loadOntology returns the embedded reference ontology unless a seed file is
// configured.
func loadOntology() *ontology.Ontology {
	if path := os.Getenv("ONTOLOGY_SEED_PATH"); path != "" {
		ont, err := ontology.LoadFile(path)
		if err != nil {
			log.Fatalf("Failed to load ontology seed from %s: %v", path, err)
		}
		log.Printf("Loaded ontology seed from %s", path)
		return ont
	}
	return ontology.Default()
}

// @title Modeler Service API
// @version 1.0
// @description Deterministic matching and model-quality engine for logical data modeling: mapping planning, relationship inference and MECE coverage analysis.
// @BasePath /api/v1
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	database.ConnectDatabase()

	ont := loadOntology()
	coverageHandler := handlers.NewCoverageHandler(coverage.NewAnalyzer(ont))

	router := gin.Default()

	v1 := router.Group("/api/v1")
	{
		v1.POST("/domains", handlers.CreateDomain)
		v1.GET("/domains", handlers.ListDomains)
		v1.GET("/domains/:id", handlers.GetDomain)
		v1.DELETE("/domains/:id", handlers.DeleteDomain)

		v1.POST("/domains/:id/entities", handlers.CreateEntity)
		v1.GET("/domains/:id/entities", handlers.ListEntities)
		v1.GET("/entities/:id", handlers.GetEntity)
		v1.PUT("/entities/:id", handlers.UpdateEntity)
		v1.DELETE("/entities/:id", handlers.DeleteEntity)

		v1.POST("/entities/:id/attributes", handlers.CreateAttribute)
		v1.GET("/entities/:id/attributes", handlers.ListAttributes)
		v1.PUT("/attributes/:id", handlers.UpdateAttribute)
		v1.DELETE("/attributes/:id", handlers.DeleteAttribute)

		v1.POST("/domains/:id/sources", handlers.CreateSourceTable)
		v1.GET("/domains/:id/sources", handlers.ListSourceTables)
		v1.GET("/sources/:id", handlers.GetSourceTable)
		v1.DELETE("/sources/:id", handlers.DeleteSourceTable)

		v1.POST("/relationships", handlers.CreateRelationship)
		v1.GET("/domains/:id/relationships", handlers.ListRelationships)
		v1.DELETE("/relationships/:id", handlers.DeleteRelationship)
		v1.POST("/relationships/infer", handlers.InferRelationships)
		v1.POST("/relationships/:id/approve", handlers.ApproveRelationship)
		v1.POST("/relationships/:id/reject", handlers.RejectRelationship)

		v1.POST("/mappings/autoplan", handlers.AutoplanMappings)
		v1.GET("/entities/:id/mappings", handlers.ListMappings)
		v1.PATCH("/mappings/:id", handlers.UpdateMappingStatus)

		v1.POST("/coverage/analyze", coverageHandler.AnalyzeModel)
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Periodic inference refresh is opt-in via INFERENCE_REFRESH_CRON.
	if cronSpec := os.Getenv("INFERENCE_REFRESH_CRON"); cronSpec != "" {
		inferenceScheduler := scheduler.NewService(cronSpec, services.NewRelationshipInferenceService(database.GetDB()))
		if err := inferenceScheduler.Start(); err != nil {
			log.Fatalf("Failed to start inference scheduler: %v", err)
		}

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-quit
			log.Println("Shutting down inference scheduler...")
			inferenceScheduler.Stop()
			os.Exit(0)
		}()
	}

	port := getEnv("SERVER_PORT", "8090")
	log.Printf("Starting server on :%s...", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
