package timing

import (
	"fmt"

	"github.com/robfig/cron/v3"

	rxerrors "github.com/vnykmshr/rxflow/pkg/common/errors"
)

// ParseCron parses a cron expression with an optional seconds field.
// Standard five-field expressions, six-field expressions with seconds and
// descriptors ("@daily", "@every 1h30m") are accepted.
func ParseCron(expr string) (cron.Schedule, error) {
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return nil, rxerrors.NewValidationError("timing", "cron expression", expr,
			fmt.Sprintf("cannot be parsed: %v", err)).
			WithHint("use \"sec min hour dom month dow\", \"min hour dom month dow\" or a descriptor like @hourly")
	}
	return schedule, nil
}
