package contracts

import (
	"errors"
	"fmt"
)

// ErrInsufficientData marks a (stock, date) with fewer bars than the
// indicator warm-up window. Callers skip the stock for that date; it is never
// fatal for the run.
var ErrInsufficientData = errors.New("insufficient bar history")

// MissingValuationError reports a stock without a configured intrinsic value.
// The stock emits no buy/sell signals until one is configured; the run
// continues.
type MissingValuationError struct {
	Code string
}

func (e *MissingValuationError) Error() string {
	return fmt.Sprintf("no intrinsic value configured for %s", e.Code)
}

// ConfigurationError reports an invalid or missing configuration value.
// Fatal at startup.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConstraintViolationError reports a trade that would corrupt ledger state:
// a sell beyond held shares, a buy beyond available cash, or a non-lot share
// count. The sizer must clip before the ledger is asked to apply a trade, so
// reaching this error is fatal.
type ConstraintViolationError struct {
	Code    string
	Side    Side
	Message string
}

func (e *ConstraintViolationError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Side, e.Code, e.Message)
}
