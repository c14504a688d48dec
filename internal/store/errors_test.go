package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestConstraintViolations(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})
	foreignKey := fmt.Errorf("insert: %w", &pq.Error{Code: "23503"})

	if !isUniqueViolation(unique) || isUniqueViolation(foreignKey) {
		t.Fatalf("unique violation misclassified")
	}
	if !isForeignKeyViolation(foreignKey) || isForeignKeyViolation(unique) {
		t.Fatalf("foreign key violation misclassified")
	}
	if isForeignKeyViolation(nil) || isForeignKeyViolation(errors.New("connection reset")) {
		t.Fatalf("plain errors are not constraint violations")
	}
}
