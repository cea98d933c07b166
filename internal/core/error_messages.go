package core

// # Error Codes Reference
//
// User-facing errors carry a code that can be quoted to support.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large             Patterns: "file too large", "request body too large"
//	FILE002 - Invalid CSV                Patterns: "invalid csv"
//	FILE003 - Invalid workbook           Patterns: "invalid workbook"
//	FILE004 - No file selected           Patterns: "no file provided"
//	FILE005 - Empty file                 Patterns: "empty file"
//	FILE006 - Unsupported format         Patterns: "unsupported file format"
//	FILE007 - Too many files             Patterns: "too many files"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Missing column              Patterns: "missing required column"
//	VAL002 - Invalid separator           Patterns: "invalid separator"
//
// # Unlock Errors (UNL001-UNL099)
//
//	UNL001 - No password                 Patterns: "no password provided"
//	UNL002 - Wrong password              Patterns: "wrong password"
//	UNL003 - Not protected               Patterns: "not password protected"
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - System busy                 Patterns: "too many concurrent jobs"
//	RUN002 - Run expired                 Patterns: "run not found"
//	RUN003 - Nothing to download         Patterns: "no invalid numbers"
//	RUN004 - Request cancelled           Patterns: "context canceled"
//	RUN005 - Request timeout             Patterns: "context deadline exceeded"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests          Patterns: "rate limit"
//
// # Default (ERR000)
//
// Fallback when no pattern matches. Check the logs for the technical error.
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// File errors
	{"file too large", UserMessage{"The upload exceeds the maximum size", "Split the file into smaller parts", "FILE001"}},
	{"request body too large", UserMessage{"The upload exceeds the maximum size", "Split the file into smaller parts", "FILE001"}},
	{"invalid csv", UserMessage{"The file is not a valid CSV", "Check quoting and save the file as UTF-8 CSV", "FILE002"}},
	{"invalid workbook", UserMessage{"The file is not a readable Excel workbook", "Re-save the file as .xlsx and try again", "FILE003"}},
	{"no file provided", UserMessage{"No file was selected", "Choose a file before submitting", "FILE004"}},
	{"empty file", UserMessage{"The uploaded file is empty", "Upload a file with a header row and data rows", "FILE005"}},
	{"unsupported file format", UserMessage{"This file type is not supported", "Upload an .xlsx or .csv file", "FILE006"}},
	{"too many files", UserMessage{"Too many files in one batch", "Submit the workbooks in smaller batches", "FILE007"}},

	// Validation errors
	{"missing required column", UserMessage{"The file needs an ID column and a Numbers column", "Put identifiers in the first column and numbers in the second", "VAL001"}},
	{"invalid separator", UserMessage{"The separator is not usable", "Use a short separator such as , or ;", "VAL002"}},

	// Unlock errors
	{"no password provided", UserMessage{"No password was entered", "Enter the workbook password", "UNL001"}},
	{"wrong password", UserMessage{"The password did not open the workbook", "Check the password and try again", "UNL002"}},
	{"not password protected", UserMessage{"The workbook is not password protected", "Only encrypted workbooks need unlocking", "UNL003"}},

	// Run errors
	{"too many concurrent jobs", UserMessage{"The system is busy processing other files", "Wait a moment and try again", "RUN001"}},
	{"run not found", UserMessage{"These results are no longer available", "Upload the file again to regenerate them", "RUN002"}},
	{"no invalid numbers", UserMessage{"There are no invalid numbers to download", "", "RUN003"}},
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "RUN004"}},
	{"context deadline exceeded", UserMessage{"Request timed out", "Try a smaller file or try again later", "RUN005"}},

	// Rate limiting
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, the ERR000 fallback is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	if msg.Action == "" {
		return fmt.Sprintf("%s (Code: %s)", msg.Message, msg.Code)
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
