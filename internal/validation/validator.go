package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/blog-engagement-engine/internal/apperror"
	"github.com/blog-engagement-engine/internal/models"
	"github.com/google/uuid"
)

const (
	maxRefLength      = 255
	maxCategoryLength = 100
	maxTagLength      = 50
)

var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Limits are the configurable bounds checked by the validator
type Limits struct {
	TitleMaxLength  int
	MaxCommentWords int
}

// Validator provides validation methods
type Validator struct {
	limits Limits
}

// NewValidator creates a new validator instance
func NewValidator(limits Limits) *Validator {
	return &Validator{limits: limits}
}

// ValidateNewPost validates a post creation request
func (v *Validator) ValidateNewPost(post *models.NewPost) []ValidationError {
	var errors []ValidationError

	errors = append(errors, v.checkTitle(post.Title)...)

	if strings.TrimSpace(post.Body) == "" {
		errors = append(errors, ValidationError{Field: "body", Message: "body is required"})
	}

	errors = append(errors, checkRef("author_id", post.AuthorID)...)

	if post.Status != "" && !post.Status.Valid() {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: "invalid status, must be one of: draft, published",
			Value:   post.Status,
		})
	}

	errors = append(errors, checkCategory(post.Category)...)
	errors = append(errors, checkTags(post.Tags)...)

	return errors
}

// ValidatePostUpdate validates the fields present in a partial update
func (v *Validator) ValidatePostUpdate(update *models.PostUpdate) []ValidationError {
	var errors []ValidationError

	if update.Title != nil {
		errors = append(errors, v.checkTitle(*update.Title)...)
	}
	if update.Body != nil && strings.TrimSpace(*update.Body) == "" {
		errors = append(errors, ValidationError{Field: "body", Message: "body must not be blank"})
	}
	if update.Status != nil && !update.Status.Valid() {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: "invalid status, must be one of: draft, published",
			Value:   *update.Status,
		})
	}
	if update.Category != nil {
		errors = append(errors, checkCategory(*update.Category)...)
	}
	if update.Tags != nil {
		errors = append(errors, checkTags(*update.Tags)...)
	}

	return errors
}

// ValidateComment validates a new comment
func (v *Validator) ValidateComment(comment *models.NewComment) []ValidationError {
	var errors []ValidationError

	errors = append(errors, checkRef("author_id", comment.AuthorID)...)

	if strings.TrimSpace(comment.Body) == "" {
		errors = append(errors, ValidationError{Field: "body", Message: "body is required"})
	} else {
		wordCount := len(strings.Fields(comment.Body))
		if wordCount > v.limits.MaxCommentWords {
			errors = append(errors, ValidationError{
				Field:   "body",
				Message: fmt.Sprintf("body exceeds maximum of %d words (has %d)", v.limits.MaxCommentWords, wordCount),
			})
		}
	}

	return errors
}

// Err folds validation errors into a single engine error naming the first
// offending field, or nil when there are none.
func Err(errors []ValidationError) error {
	if len(errors) == 0 {
		return nil
	}
	first := errors[0]
	msg := first.Message
	if len(errors) > 1 {
		msg = fmt.Sprintf("%s (and %d more)", msg, len(errors)-1)
	}
	return apperror.Validation(first.Field, msg)
}

// IsValidID checks if a string is a valid UUID
func IsValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// IsValidSlug checks if a string is kebab-case
func IsValidSlug(s string) bool {
	return slugRegex.MatchString(s)
}

func (v *Validator) checkTitle(title string) []ValidationError {
	if strings.TrimSpace(title) == "" {
		return []ValidationError{{Field: "title", Message: "title is required"}}
	}
	if n := utf8.RuneCountInString(title); n > v.limits.TitleMaxLength {
		return []ValidationError{{
			Field:   "title",
			Message: fmt.Sprintf("title exceeds maximum of %d characters (has %d)", v.limits.TitleMaxLength, n),
		}}
	}
	return nil
}

func checkRef(field, ref string) []ValidationError {
	if strings.TrimSpace(ref) == "" {
		return []ValidationError{{Field: field, Message: field + " is required"}}
	}
	if len(ref) > maxRefLength {
		return []ValidationError{{Field: field, Message: fmt.Sprintf("%s exceeds %d bytes", field, maxRefLength)}}
	}
	return nil
}

func checkCategory(category string) []ValidationError {
	if utf8.RuneCountInString(category) > maxCategoryLength {
		return []ValidationError{{Field: "category", Message: fmt.Sprintf("category exceeds %d characters", maxCategoryLength), Value: category}}
	}
	return nil
}

func checkTags(tags []string) []ValidationError {
	for _, tag := range tags {
		if utf8.RuneCountInString(strings.TrimSpace(tag)) > maxTagLength {
			return []ValidationError{{Field: "tags", Message: fmt.Sprintf("tag exceeds %d characters", maxTagLength), Value: tag}}
		}
	}
	return nil
}
