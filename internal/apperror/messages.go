package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// Exchange source errors
	CodeSourceInitFailed:    "Failed to initialize exchange source",
	CodeSourceUnavailable:   "Exchange source unavailable",
	CodeMarketsLoadFailed:   "Failed to load exchange markets",
	CodeUnsupportedMarket:   "Market not available on this exchange",
	CodeTickerFetchFailed:   "Failed to fetch ticker",
	CodeExchangeAPIError:    "Exchange API error",
	CodeExchangeRateLimited: "Exchange rate limit exceeded",
	CodeMalformedTicker:     "Malformed ticker response",
	CodeNoActiveSources:     "No exchange sources available",

	// Arbitrage scan errors
	CodeScanFailed:           "Failed to compute arbitrage opportunities",
	CodeInvalidInvestment:    "Invalid investment amount",
	CodeSpreadBelowThreshold: "Spread below profitability threshold",

	// Cache errors
	CodeCacheUnavailable: "Cache backend unavailable",
	CodeCacheMiss:        "Cache miss",
	CodeCacheEncoding:    "Failed to encode cache payload",

	// Circuit breaker errors
	CodeCircuitOpen: "Circuit breaker is open",
}
