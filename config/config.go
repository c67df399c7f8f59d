package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type Config struct {
	MongoClient   *mongo.Client
	DBName        string
	JWTSecret     string
	Port          string
	LockBhandaras bool // ENABLE_BHANDARA_LOCK: past-dated bhandaras become read-only
	ReportEmail   string
}

// Load reads environment variables and connects to MongoDB.
func Load() (*Config, error) {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		return nil, fmt.Errorf("MONGODB_URI is not set")
	}

	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "bhandara_tracker"
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("could not connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("could not ping mongodb: %w", err)
	}

	return &Config{
		MongoClient:   client,
		DBName:        dbName,
		JWTSecret:     secret,
		Port:          port,
		LockBhandaras: os.Getenv("ENABLE_BHANDARA_LOCK") == "true",
		ReportEmail:   os.Getenv("REPORT_EMAIL"),
	}, nil
}

// Collection is a shorthand for a collection in the configured database.
func (c *Config) Collection(name string) *mongo.Collection {
	return c.MongoClient.Database(c.DBName).Collection(name)
}
