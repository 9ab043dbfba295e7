package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"learnhub-backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Database struct {
	PG    *gorm.DB
	Mongo *mongo.Database
}

func ConnectDB(cfg *Config) *Database {
	// 1. PostgreSQL Connection
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)
	pgDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL:", err)
	}

	// 2. MongoDB Connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	clientOptions := options.Client().ApplyURI(cfg.MongoURI)
	mongoClient, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}

	mongoDB := mongoClient.Database(cfg.MongoDBName)

	if err := ensureIndexes(ctx, mongoDB); err != nil {
		log.Fatal("Failed to create MongoDB indexes:", err)
	}

	log.Println("Connected to PostgreSQL and MongoDB successfully!")

	return &Database{
		PG:    pgDB,
		Mongo: mongoDB,
	}
}

func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&domain.User{},
		&domain.Payment{},
	)
	if err != nil {
		return err
	}
	log.Println("Database migration completed!")
	return nil
}

// ensureIndexes backs the uniqueness invariants the reconciliation core
// relies on: one course per slug, one enrollment per (student, course).
func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)

	_, err := db.Collection("courses").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("enrollments").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "student_id", Value: 1}, {Key: "course_slug", Value: 1}},
			Options: unique,
		},
		{
			Keys: bson.D{{Key: "transaction_ref", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("student_profiles").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("notes").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "student_id", Value: 1}, {Key: "course_slug", Value: 1}, {Key: "lesson_id", Value: 1}},
		Options: unique,
	})
	return err
}
