// Command reconcile-artifacts walks every supplier's assignment ledger and
// prints, one JSON object per line, each assignment whose QR artifacts are
// missing from the bucket.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/boozebuddy/backend/database"
	"github.com/boozebuddy/backend/models"
	awspkg "github.com/boozebuddy/backend/pkg/aws"
	"github.com/boozebuddy/backend/repository"
	"github.com/boozebuddy/backend/services"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	var mongoURI, dbName, bucket, store, table, only string
	flag.StringVar(&mongoURI, "mongo", os.Getenv("MONGO_DB_URL"), "MongoDB URI")
	flag.StringVar(&dbName, "db", os.Getenv("MONGO_DB_NAME"), "MongoDB database name")
	flag.StringVar(&bucket, "bucket", os.Getenv("AWS_S3_BUCKET"), "S3 bucket holding the artifacts")
	flag.StringVar(&store, "store", "mongo", "product document store: mongo or dynamodb")
	flag.StringVar(&table, "table", os.Getenv("DDB_TABLE_PRODUCTS"), "DynamoDB products table")
	flag.StringVar(&only, "supplier", "", "only check the supplier with this slug")
	flag.Parse()

	if mongoURI == "" || dbName == "" {
		log.Fatal("MONGO_DB_URL and MONGO_DB_NAME must be set or provided via flags")
	}
	if bucket == "" {
		bucket = "booze-buddy"
	}
	if table == "" {
		table = "Products"
	}

	ctx := context.Background()
	m, err := database.Connect(ctx, mongoURI, dbName)
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer m.Close(ctx)

	settings := awspkg.SettingsFromEnv()
	awsCfg, err := awspkg.LoadAWSConfig(ctx, settings)
	if err != nil {
		log.Fatalf("aws config: %v", err)
	}

	var products repository.ProductRepo = repository.NewProductRepository(m.DB)
	if store == "dynamodb" {
		products = repository.NewDynamoAdapter(dynamodb.NewFromConfig(awsCfg), table)
	}
	blobs := awspkg.NewS3BlobStore(awspkg.NewS3Client(awsCfg, settings.S3Endpoint), bucket)
	reconciler := services.NewReconciler(products, blobs)

	filter := bson.M{"role": models.RoleSupplier}
	if only != "" {
		filter["slug"] = only
	}
	batchSize := int32(200)
	cur, err := m.DB.Collection("users").Find(ctx, filter, &options.FindOptions{BatchSize: &batchSize})
	if err != nil {
		log.Fatalf("mongo find: %v", err)
	}
	defer cur.Close(ctx)

	enc := json.NewEncoder(os.Stdout)
	var suppliers, missing int
	for cur.Next(ctx) {
		var supplier models.User
		if err := cur.Decode(&supplier); err != nil {
			log.Printf("decode error: %v", err)
			continue
		}
		suppliers++
		found, err := reconciler.CheckSupplier(ctx, &supplier)
		if err != nil {
			log.Printf("supplier %s: %v", supplier.Slug, err)
			continue
		}
		for _, a := range found {
			if err := enc.Encode(a); err != nil {
				log.Fatalf("write: %v", err)
			}
		}
		missing += len(found)
	}
	if err := cur.Err(); err != nil {
		log.Fatalf("cursor error: %v", err)
	}
	fmt.Fprintf(os.Stderr, "Reconcile complete. suppliers=%d missing=%d\n", suppliers, missing)
}
