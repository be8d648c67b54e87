package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Scanner-specific error codes
const (
	// Exchange source errors
	CodeSourceInitFailed    Code = "SOURCE_INIT_FAILED"
	CodeSourceUnavailable   Code = "SOURCE_UNAVAILABLE"
	CodeMarketsLoadFailed   Code = "MARKETS_LOAD_FAILED"
	CodeUnsupportedMarket   Code = "UNSUPPORTED_MARKET"
	CodeTickerFetchFailed   Code = "TICKER_FETCH_FAILED"
	CodeExchangeAPIError    Code = "EXCHANGE_API_ERROR"
	CodeExchangeRateLimited Code = "EXCHANGE_RATE_LIMITED"
	CodeMalformedTicker     Code = "MALFORMED_TICKER"
	CodeNoActiveSources     Code = "NO_ACTIVE_SOURCES"

	// Arbitrage scan errors
	CodeScanFailed           Code = "SCAN_FAILED"
	CodeInvalidInvestment    Code = "INVALID_INVESTMENT"
	CodeSpreadBelowThreshold Code = "SPREAD_BELOW_THRESHOLD"

	// Cache errors
	CodeCacheUnavailable Code = "CACHE_UNAVAILABLE"
	CodeCacheMiss        Code = "CACHE_MISS"
	CodeCacheEncoding    Code = "CACHE_ENCODING"

	// Circuit breaker errors
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
