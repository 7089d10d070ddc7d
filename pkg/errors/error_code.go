package errors

// ErrorCode identifies a category of error in the engine.
type ErrorCode int

// Error codes are grouped into ranges by concern:
// 1-99: General errors
// 100-199: Validation and configuration errors
// 200-299: Data and datasource errors
// 300-399: Statistics errors
// 400-499: Condition errors
// 500-599: Capital and position errors
// 600-699: Order and matching errors
// 700-799: Engine and results errors
const (
	// General errors (1-99)
	ErrCodeUnknown  ErrorCode = 1
	ErrCodeInternal ErrorCode = 2

	// Validation and configuration errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidWindow        ErrorCode = 102
	ErrCodeInvalidSpan          ErrorCode = 103
	ErrCodeInvalidCapital       ErrorCode = 104
	ErrCodeInvalidCondition     ErrorCode = 105
	ErrCodeInvalidStrategy      ErrorCode = 106
	ErrCodeInvalidOrder         ErrorCode = 107

	// Data and datasource errors (200-299)
	ErrCodeDataNotFound    ErrorCode = 200
	ErrCodeDataMisaligned  ErrorCode = 201
	ErrCodeSymbolNotFound  ErrorCode = 202
	ErrCodeDataParseFailed ErrorCode = 203
	ErrCodeDataOutOfOrder  ErrorCode = 204

	// Statistics errors (300-399)
	ErrCodeStatisticsNotReady ErrorCode = 300

	// Condition errors (400-499)
	ErrCodeConditionNotFound ErrorCode = 400

	// Capital and position errors (500-599)
	ErrCodeInsufficientAvailable ErrorCode = 500
	ErrCodeInsufficientFrozen    ErrorCode = 501
	ErrCodeNegativeAmount        ErrorCode = 502
	ErrCodePositionOverflow      ErrorCode = 503
	ErrCodePositionUnderflow     ErrorCode = 504

	// Order and matching errors (600-699)
	ErrCodeDuplicatePendingBuy ErrorCode = 600
	ErrCodeOrderNotPending     ErrorCode = 601
	ErrCodeUnknownOrderSide    ErrorCode = 602

	// Engine and results errors (700-799)
	ErrCodeEngineNotInitialized  ErrorCode = 700
	ErrCodeEngineMissingParts    ErrorCode = 701
	ErrCodeConservationViolated  ErrorCode = 702
	ErrCodeStrategyNotRegistered ErrorCode = 703
	ErrCodeStrategyExists        ErrorCode = 704
	ErrCodeResultsWriteFailed    ErrorCode = 705
)
