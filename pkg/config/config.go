package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port           string `envconfig:"PORT" default:"8080"`
	MongoDBURL     string `envconfig:"MONGODB_URL" required:"true"`
	DBName         string `envconfig:"DB_NAME" required:"true"`
	ProductsColl   string `envconfig:"PRODUCTS_COLLECTION" default:"products"`
	ResultsPerPage int    `envconfig:"RESULTS_PER_PAGE" default:"10"`
	AllowOrigins   string `envconfig:"ALLOW_ORIGINS" default:"http://localhost:5173"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`

	AWSRegion      string `envconfig:"AWS_REGION" default:"ap-south-1"`
	ImageBucket    string `envconfig:"IMAGE_BUCKET" default:"product-images"`
	ImageBaseURL   string `envconfig:"IMAGE_BASE_URL" default:""`
	ImageAccessKey string `envconfig:"IMAGE_ACCESS_KEY" default:""`
	ImageSecretKey string `envconfig:"IMAGE_SECRET_KEY" default:""`

	KafkaBrokers string `envconfig:"KAFKA_BROKERS" default:""`
	KafkaTopic   string `envconfig:"KAFKA_TOPIC" default:"product-events"`
}

func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
