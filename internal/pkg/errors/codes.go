package errors

import (
	"fmt"
	"net/http"
)

// Code represents an error code with HTTP status and message
type Code struct {
	Code    int    // Business error code
	Status  int    // HTTP status code
	Message string // Error message
}

// Error codes for different modules
const (
	// Success
	Success = 0

	// Common errors (1000-1999)
	ErrInternalServer  = 1000
	ErrInvalidParams   = 1001
	ErrNotFound        = 1002
	ErrUnauthorized    = 1003
	ErrForbidden       = 1004
	ErrConflict        = 1005
	ErrTooManyRequests = 1006
	ErrBadRequest      = 1007
	ErrServiceUnavail  = 1008

	// File errors (2000-2999)
	ErrFileNotFound      = 2000
	ErrFileUnauthorized  = 2001
	ErrFileNameExists    = 2002
	ErrFileInTrash       = 2003
	ErrFileNotInTrash    = 2004
	ErrFolderCycle       = 2005
	ErrFolderNoDownload  = 2006
	ErrQuotaExceeded     = 2007
	ErrHashMismatch      = 2008

	// Upload session errors (3000-3999)
	ErrSessionNotFound   = 3000
	ErrSessionNotActive  = 3001
	ErrSessionIncomplete = 3002
	ErrChunkOutOfRange   = 3003

	// Version errors (4000-4999)
	ErrVersionNotFound  = 4000
	ErrVersionForFolder = 4001

	// Storage errors (5000-5999)
	ErrContentNotFound  = 5000
	ErrStorageBackend   = 5001
	ErrDeliveryFailed   = 5002
)

// codeMap maps error codes to their details
var codeMap = map[int]Code{
	Success: {Success, http.StatusOK, "Success"},

	// Common errors
	ErrInternalServer:  {ErrInternalServer, http.StatusInternalServerError, "Internal server error"},
	ErrInvalidParams:   {ErrInvalidParams, http.StatusBadRequest, "Invalid parameters"},
	ErrNotFound:        {ErrNotFound, http.StatusNotFound, "Resource not found"},
	ErrUnauthorized:    {ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	ErrForbidden:       {ErrForbidden, http.StatusForbidden, "Forbidden"},
	ErrConflict:        {ErrConflict, http.StatusConflict, "Resource conflict"},
	ErrTooManyRequests: {ErrTooManyRequests, http.StatusTooManyRequests, "Too many requests"},
	ErrBadRequest:      {ErrBadRequest, http.StatusBadRequest, "Bad request"},
	ErrServiceUnavail:  {ErrServiceUnavail, http.StatusServiceUnavailable, "Service unavailable"},

	// File errors
	ErrFileNotFound:     {ErrFileNotFound, http.StatusNotFound, "File not found"},
	ErrFileUnauthorized: {ErrFileUnauthorized, http.StatusForbidden, "No permission for this file"},
	ErrFileNameExists:   {ErrFileNameExists, http.StatusConflict, "A file with this name already exists"},
	ErrFileInTrash:      {ErrFileInTrash, http.StatusConflict, "File is already in trash"},
	ErrFileNotInTrash:   {ErrFileNotInTrash, http.StatusConflict, "File is not in trash"},
	ErrFolderCycle:      {ErrFolderCycle, http.StatusBadRequest, "Cannot move a folder into its own subtree"},
	ErrFolderNoDownload: {ErrFolderNoDownload, http.StatusBadRequest, "Folders cannot be downloaded"},
	ErrQuotaExceeded:    {ErrQuotaExceeded, http.StatusForbidden, "Storage quota exceeded"},
	ErrHashMismatch:     {ErrHashMismatch, http.StatusBadRequest, "Content hash does not match uploaded data"},

	// Upload session errors
	ErrSessionNotFound:   {ErrSessionNotFound, http.StatusNotFound, "Upload session not found"},
	ErrSessionNotActive:  {ErrSessionNotActive, http.StatusConflict, "Upload session is completed or cancelled"},
	ErrSessionIncomplete: {ErrSessionIncomplete, http.StatusConflict, "Not all chunks have been uploaded"},
	ErrChunkOutOfRange:   {ErrChunkOutOfRange, http.StatusBadRequest, "Chunk index out of range"},

	// Version errors
	ErrVersionNotFound:  {ErrVersionNotFound, http.StatusNotFound, "File version not found"},
	ErrVersionForFolder: {ErrVersionForFolder, http.StatusBadRequest, "Folders do not support versioning"},

	// Storage errors
	ErrContentNotFound: {ErrContentNotFound, http.StatusNotFound, "Stored content not found"},
	ErrStorageBackend:  {ErrStorageBackend, http.StatusInternalServerError, "Storage backend operation failed"},
	ErrDeliveryFailed:  {ErrDeliveryFailed, http.StatusInternalServerError, "Event delivery failed"},
}

// GetCode returns the Code for a given error code
func GetCode(code int) Code {
	if c, ok := codeMap[code]; ok {
		return c
	}
	return codeMap[ErrInternalServer]
}

// GetHTTPStatus returns HTTP status for a given error code
func GetHTTPStatus(code int) int {
	return GetCode(code).Status
}

// GetMessage returns the message for a given error code
func GetMessage(code int) string {
	return GetCode(code).Message
}

// IsSuccess checks if the code represents success
func IsSuccess(code int) bool {
	return code == Success
}

// FormatError formats an error message with code
func FormatError(code int, details ...string) string {
	msg := GetMessage(code)
	if len(details) > 0 && details[0] != "" {
		return fmt.Sprintf("%s: %s", msg, details[0])
	}
	return msg
}
