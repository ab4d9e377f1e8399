package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"scoresheet_server/controllers"
	"scoresheet_server/routes"
	"scoresheet_server/services"
	"scoresheet_server/socket"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/gorilla/mux"
)

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	godotenv.Load()

	// Live match store (Redis)
	log.Println("Connecting to Redis...")
	redisPool := services.NewRedisPool(getenv("REDIS_URL", "localhost:6379"))
	liveStore := &services.RedisService{Pool: redisPool}

	// Durable result store (DynamoDB)
	log.Println("Initializing DynamoDB client...")
	dynamoClient := services.InitializeDynamoDBClient()
	resultStore := &services.ResultService{Dynamo: &services.DynamoService{Client: dynamoClient}}

	// Session credentials
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	ttl, err := time.ParseDuration(getenv("MATCH_TOKEN_TTL", "2h"))
	if err != nil {
		log.Fatalf("Invalid MATCH_TOKEN_TTL: %v", err)
	}
	tokens := services.NewTokenService(secret, ttl)

	// Initialize Services
	archiveService := &services.ArchiveService{Live: liveStore, Results: resultStore}
	matchService := &services.MatchService{Live: liveStore, Results: resultStore}
	reservationService := &services.ReservationService{Live: liveStore, Tokens: tokens}
	playService := &services.PlayService{Live: liveStore, Archive: archiveService}

	// Set up the server port
	port := getenv("PORT", "8080")
	log.Printf("Using server port: %s\n", port)

	// Initialize the router
	r := mux.NewRouter()

	// Register a welcome route
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "Welcome to the Scoresheet Server")
	}).Methods("GET")

	// Register a health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}).Methods("GET")

	// Register routes
	controller := controllers.NewMatchController(matchService, reservationService)
	routes.RegisterMatchRoutes(r, controller, controllers.AuthMiddleware(tokens))

	// Live match channel
	socketServer := socket.NewSocketServer(reservationService, playService)
	go func() {
		if err := socketServer.Serve(); err != nil {
			log.Fatalf("Socket server error: %v", err)
		}
	}()
	defer socketServer.Close()
	r.Handle("/socket.io/", socketServer)

	// Add CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{getenv("FRONTEND_ORIGIN", "*")},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	// Start the HTTP server
	log.Printf("Starting server on port %s...\n", port)
	log.Fatal(http.ListenAndServe(":"+port, corsHandler))
}
