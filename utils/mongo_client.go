package utils

import (
	"context"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"kapsul/logger"
)

// MongoClient is the process-wide MongoDB client, set by InitMongoClient.
var MongoClient *mongo.Client

// InitMongoClient connects the process-wide client. Pool sizing comes
// from the caller so the config package stays the single source of
// database settings.
func InitMongoClient(uri string, maxPoolSize, minPoolSize uint64, maxConnIdleTime time.Duration, retryWrites bool) {
	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(maxPoolSize).
		SetMinPoolSize(minPoolSize).
		SetMaxConnIdleTime(maxConnIdleTime).
		SetRetryWrites(retryWrites)

	client, err := mongo.Connect(context.Background(), clientOptions)
	if err != nil {
		logger.L.Fatal("failed to connect to MongoDB", logger.Error(err))
	}

	MongoClient = client
}

// DatabaseName returns the Mongo database the service operates on.
func DatabaseName() string {
	if os.Getenv("GO_ENV") == "test" {
		return "kapsul_test"
	}
	return GetEnvAsString("MONGO_DB", "kapsul")
}
