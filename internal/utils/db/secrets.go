package db

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// retrieveCredentials prefers plain env credentials; falls back to the
// Secrets Manager secret named by secretID.
func retrieveCredentials(secretID string) (string, string, error) {
	username := os.Getenv("DB_USERNAME")
	password := os.Getenv("DB_PASSWORD")
	if username != "" && password != "" {
		return username, password, nil
	}

	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		return "", "", fmt.Errorf("load aws config: %w", err)
	}
	secrets := secretsmanager.NewFromConfig(cfg)

	input := &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(secretID),
		VersionStage: aws.String("AWSCURRENT"), // VersionStage defaults to AWSCURRENT if unspecified
	}

	result, err := secrets.GetSecretValue(context.TODO(), input)
	if err != nil {
		return "", "", fmt.Errorf("get secret value: %w", err)
	}

	var secret Credentials
	if err := json.Unmarshal([]byte(*result.SecretString), &secret); err != nil {
		return "", "", fmt.Errorf("parse secret: %w", err)
	}

	return secret.Username, secret.Password, nil
}
