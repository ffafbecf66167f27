package domain

import (
	"errors"
	"testing"
)

func TestErrorCategories(t *testing.T) {
	tests := []struct {
		err        error
		validation bool
		notFound   bool
		conflict   bool
	}{
		{err: ErrItemsRequired, validation: true},
		{err: ErrTotalMismatch, validation: true},
		{err: ErrCustomerNotFound, validation: true, notFound: true},
		{err: ErrProductNotFound, validation: true, notFound: true},
		{err: ErrOrderNotFound, notFound: true},
		{err: ErrInsufficientStock, conflict: true},
		{err: InsufficientStockError("M-1", "black", 1, 3), conflict: true},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if IsValidation(tt.err) != tt.validation {
				t.Errorf("IsValidation = %v, want %v", !tt.validation, tt.validation)
			}
			if IsNotFound(tt.err) != tt.notFound {
				t.Errorf("IsNotFound = %v, want %v", !tt.notFound, tt.notFound)
			}
			if IsConflict(tt.err) != tt.conflict {
				t.Errorf("IsConflict = %v, want %v", !tt.conflict, tt.conflict)
			}
			if IsStorage(tt.err) {
				t.Errorf("domain error must not be a storage error")
			}
		})
	}
}

func TestStorageErrorWrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := StorageError("insert order", cause)

	if !IsStorage(err) {
		t.Fatal("expected storage category")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected original cause to be preserved")
	}
	if IsValidation(err) || IsConflict(err) {
		t.Fatal("storage error must not carry other categories")
	}
}

func TestInsufficientStockErrorMatchesSentinel(t *testing.T) {
	err := InsufficientStockError("M-7", "red", 2, 5)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatal("expected ErrInsufficientStock in chain")
	}
}
