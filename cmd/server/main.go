package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/zaidku/DentalCad-Pro/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using defaults")
	}

	srv := server.NewServer()
	r := srv.SetupRouter()

	port := os.Getenv("PORT")
	if port == "" {
		port = fmt.Sprintf("%d", srv.Config.Server.Port)
	}

	log.Printf("Starting modeling service on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
