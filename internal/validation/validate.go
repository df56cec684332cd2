package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/caybokotze/bulk-blob-storage-deletion/errors"
)

const (
	minContainerNameLength = 3
	maxContainerNameLength = 63
	maxObjectKeyLength     = 1024
)

// reservedContainers are Azure system containers that break the naming rules.
var reservedContainers = map[string]bool{
	"$root": true,
	"$logs": true,
	"$web":  true,
}

// ValidateContainerName checks a container (or bucket) name against the rules
// shared by Azure Blob Storage and S3: 3-63 characters of lowercase letters,
// digits, hyphens and dots, starting and ending with a letter or digit, and no
// consecutive hyphens or dots.
func ValidateContainerName(name string) error {
	if name == "" {
		return errors.NewError("validateContainerName", errors.ErrInvalidContainerName).
			WithMessage("container name cannot be empty")
	}

	if reservedContainers[name] {
		return nil
	}

	if len(name) < minContainerNameLength || len(name) > maxContainerNameLength {
		return errors.NewError("validateContainerName", errors.ErrInvalidContainerName).
			WithContainer(name).
			WithMessage(fmt.Sprintf("container name must be between %d and %d characters long",
				minContainerNameLength, maxContainerNameLength))
	}

	for _, char := range name {
		if !isValidContainerChar(char) {
			return errors.NewError("validateContainerName", errors.ErrInvalidContainerName).
				WithContainer(name).
				WithMessage("container name can only contain lowercase letters, numbers, dots, and hyphens")
		}
	}

	if !isAlnum(rune(name[0])) || !isAlnum(rune(name[len(name)-1])) {
		return errors.NewError("validateContainerName", errors.ErrInvalidContainerName).
			WithContainer(name).
			WithMessage("container name must start and end with a letter or number")
	}

	if strings.Contains(name, "--") || strings.Contains(name, "..") {
		return errors.NewError("validateContainerName", errors.ErrInvalidContainerName).
			WithContainer(name).
			WithMessage("container name cannot contain consecutive hyphens or dots")
	}

	return nil
}

// ValidateObjectKey checks that an object identifier can be sent to a store.
func ValidateObjectKey(key string) error {
	if key == "" {
		return errors.NewError("validateObjectKey", errors.ErrInvalidObjectKey).
			WithMessage("object key cannot be empty")
	}

	if len(key) > maxObjectKeyLength {
		return errors.NewError("validateObjectKey", errors.ErrInvalidObjectKey).
			WithKey(key).
			WithMessage(fmt.Sprintf("object key cannot exceed %d characters", maxObjectKeyLength))
	}

	for _, char := range key {
		if unicode.IsControl(char) {
			return errors.NewError("validateObjectKey", errors.ErrInvalidObjectKey).
				WithKey(key).
				WithMessage("object key cannot contain control characters")
		}
	}

	return nil
}

// ValidateConcurrencyLimit checks the deletion concurrency cap.
func ValidateConcurrencyLimit(limit int) error {
	if limit < 1 {
		return errors.NewError("validateConcurrencyLimit", errors.ErrInvalidInput).
			WithMessage(fmt.Sprintf("thread count limit must be at least 1, got %d", limit))
	}
	return nil
}

func isValidContainerChar(char rune) bool {
	return isAlnum(char) || char == '-' || char == '.'
}

func isAlnum(char rune) bool {
	return (char >= 'a' && char <= 'z') || (char >= '0' && char <= '9')
}
