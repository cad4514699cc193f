package errors

// ErrorCode identifies an application error category in API responses.
type ErrorCode int32

const (
	ErrorCode_HTTP_OK ErrorCode = 0

	ErrorCode_INTERNAL          ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT  ErrorCode = 1001
	ErrorCode_NOT_FOUND         ErrorCode = 1002
	ErrorCode_ALREADY_EXISTS    ErrorCode = 1003
	ErrorCode_PERMISSION_DENIED ErrorCode = 1004
	ErrorCode_INVALID_PAYLOAD   ErrorCode = 1005

	ErrorCode_SESSION_NOT_FOUND     ErrorCode = 2000
	ErrorCode_SESSION_INVALID_STATE ErrorCode = 2001
	ErrorCode_MISSING_AUDIO         ErrorCode = 2002
	ErrorCode_MISSING_TRANSCRIPT    ErrorCode = 2003
	ErrorCode_PROCESSING_FAILED     ErrorCode = 2004

	ErrorCode_TRANSCRIPTION_FAILED   ErrorCode = 3000
	ErrorCode_ANALYSIS_FAILED        ErrorCode = 3001
	ErrorCode_PROVIDER_UNAVAILABLE   ErrorCode = 3002
	ErrorCode_PROVIDER_QUOTA_EXCEEDED ErrorCode = 3003

	ErrorCode_DICTATION_NOT_FOUND     ErrorCode = 4000
	ErrorCode_DICTATION_INVALID_STATE ErrorCode = 4001

	ErrorCode_INTEGRATION_STORAGE_FAILED ErrorCode = 5000
	ErrorCode_INTEGRATION_CACHE_FAILED   ErrorCode = 5001
	ErrorCode_DB_QUERY_FAILED            ErrorCode = 5002
)

var codeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:                    "OK",
	ErrorCode_INTERNAL:                   "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:           "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                  "NOT_FOUND",
	ErrorCode_ALREADY_EXISTS:             "ALREADY_EXISTS",
	ErrorCode_PERMISSION_DENIED:          "PERMISSION_DENIED",
	ErrorCode_INVALID_PAYLOAD:            "INVALID_PAYLOAD",
	ErrorCode_SESSION_NOT_FOUND:          "SESSION_NOT_FOUND",
	ErrorCode_SESSION_INVALID_STATE:      "SESSION_INVALID_STATE",
	ErrorCode_MISSING_AUDIO:              "MISSING_AUDIO",
	ErrorCode_MISSING_TRANSCRIPT:         "MISSING_TRANSCRIPT",
	ErrorCode_PROCESSING_FAILED:          "PROCESSING_FAILED",
	ErrorCode_TRANSCRIPTION_FAILED:       "TRANSCRIPTION_FAILED",
	ErrorCode_ANALYSIS_FAILED:            "ANALYSIS_FAILED",
	ErrorCode_PROVIDER_UNAVAILABLE:       "PROVIDER_UNAVAILABLE",
	ErrorCode_PROVIDER_QUOTA_EXCEEDED:    "PROVIDER_QUOTA_EXCEEDED",
	ErrorCode_DICTATION_NOT_FOUND:        "DICTATION_NOT_FOUND",
	ErrorCode_DICTATION_INVALID_STATE:    "DICTATION_INVALID_STATE",
	ErrorCode_INTEGRATION_STORAGE_FAILED: "INTEGRATION_STORAGE_FAILED",
	ErrorCode_INTEGRATION_CACHE_FAILED:   "INTEGRATION_CACHE_FAILED",
	ErrorCode_DB_QUERY_FAILED:            "DB_QUERY_FAILED",
}

// String returns the symbolic name of the error code.
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
