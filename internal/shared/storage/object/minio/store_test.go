package minio

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/minio/minio-go/v7"
)

func TestNewRequiresEndpointAndBucket(t *testing.T) {
	if _, err := New(context.Background(), Options{Bucket: "documents"}); err == nil {
		t.Fatalf("expected error without endpoint")
	}
	if _, err := New(context.Background(), Options{Endpoint: "localhost:9000"}); err == nil {
		t.Fatalf("expected error without bucket")
	}
}

func TestIsNotFound(t *testing.T) {
	missing := minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}
	if !isNotFound(fmt.Errorf("wrapped: %w", missing)) {
		t.Fatalf("expected NoSuchKey to be not found")
	}
	if isNotFound(errors.New("connection reset")) {
		t.Fatalf("plain errors are not not-found")
	}
}
