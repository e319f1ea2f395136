package types

import (
	"time"
)

// Timeouts contains timeouts for the single render request
type Timeouts struct {
	Render  time.Duration `mapstructure:"render"`
	Connect time.Duration `mapstructure:"connect"`
}
