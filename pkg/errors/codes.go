// Error code registry for the FigureLens recognition engine.
package errors

import "fmt"

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

// ─────────────────────────────────────────────────────────────────────────────
// Common codes (COMMON_*)
// ─────────────────────────────────────────────────────────────────────────────

const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeTimeout            ErrorCode = "COMMON_005"
	ErrCodeValidation         ErrorCode = "COMMON_006"
	ErrCodeSerialization      ErrorCode = "COMMON_007"
	ErrCodeDatabaseError      ErrorCode = "COMMON_008"
	ErrCodeCacheError         ErrorCode = "COMMON_009"
	ErrCodeExternalService    ErrorCode = "COMMON_010"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_011"
	ErrCodeNotImplemented     ErrorCode = "COMMON_012"
)

// Aliases kept short for call-site readability.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeUnknown      = ErrorCode("UNKNOWN")
	CodeOK           = ErrorCode("OK")
)

// ─────────────────────────────────────────────────────────────────────────────
// Image / feature-extraction codes (IMG_*)
// ─────────────────────────────────────────────────────────────────────────────

const (
	// ErrCodeInvalidImage marks input bytes that cannot be decoded as an image.
	ErrCodeInvalidImage ErrorCode = "IMG_001"

	// ErrCodeExtractionFailed marks a required sub-feature extraction that
	// failed after its fallback was exhausted.
	ErrCodeExtractionFailed ErrorCode = "IMG_002"

	// ErrCodeVectorDimMismatch marks feature vectors of unequal length being
	// compared. This is a hard error, never a silent zero score.
	ErrCodeVectorDimMismatch ErrorCode = "IMG_003"
)

// ─────────────────────────────────────────────────────────────────────────────
// Text analysis codes (TXT_*)
// ─────────────────────────────────────────────────────────────────────────────

const (
	ErrCodeSynonymTableInvalid ErrorCode = "TXT_001"
)

// ─────────────────────────────────────────────────────────────────────────────
// Matching codes (MATCH_*)
// ─────────────────────────────────────────────────────────────────────────────

const (
	// ErrCodeEmptyCatalog marks a match attempt against a catalog snapshot
	// with no entries. A precondition failure, not a bug.
	ErrCodeEmptyCatalog ErrorCode = "MATCH_001"

	// ErrCodeNoMatchFound marks a non-empty catalog where nothing cleared the
	// caller's quality floor.
	ErrCodeNoMatchFound ErrorCode = "MATCH_002"

	ErrCodeInvalidWeights ErrorCode = "MATCH_003"
	ErrCodeVectorIndex    ErrorCode = "MATCH_004"
)

// ─────────────────────────────────────────────────────────────────────────────
// Recognition pipeline codes (REC_*)
// ─────────────────────────────────────────────────────────────────────────────

const (
	// ErrCodePoorImageQuality marks an image below the minimum usable
	// dimensions for recognition.
	ErrCodePoorImageQuality ErrorCode = "REC_001"

	// ErrCodeCancelled marks a recognition session aborted by the caller or
	// superseded by a newer request.
	ErrCodeCancelled ErrorCode = "REC_002"

	ErrCodeCatalogProvider ErrorCode = "REC_003"
)

// ─────────────────────────────────────────────────────────────────────────────
// Introspection
// ─────────────────────────────────────────────────────────────────────────────

// String returns the raw code string.
func (c ErrorCode) String() string { return string(c) }

// IsValid reports whether c is a registered FigureLens code.
func (c ErrorCode) IsValid() bool {
	_, ok := codeMessages[c]
	return ok
}

// DefaultMessage returns the canonical human-readable message for the code,
// used when a call site does not supply its own.
func (c ErrorCode) DefaultMessage() string {
	if msg, ok := codeMessages[c]; ok {
		return msg
	}
	return fmt.Sprintf("unknown error code %s", string(c))
}

var codeMessages = map[ErrorCode]string{
	ErrCodeInternal:           "internal error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "not found",
	ErrCodeConflict:           "conflict",
	ErrCodeTimeout:            "operation timed out",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeInvalidImage:      "image cannot be decoded",
	ErrCodeExtractionFailed:  "feature extraction failed",
	ErrCodeVectorDimMismatch: "feature vectors have different dimensions",

	ErrCodeSynonymTableInvalid: "synonym table is invalid",

	ErrCodeEmptyCatalog:   "catalog is empty",
	ErrCodeNoMatchFound:   "no match found above the quality floor",
	ErrCodeInvalidWeights: "similarity weights are invalid",
	ErrCodeVectorIndex:    "vector index error",

	ErrCodePoorImageQuality: "image too small for recognition",
	ErrCodeCancelled:        "recognition cancelled",
	ErrCodeCatalogProvider:  "catalog provider error",
}
