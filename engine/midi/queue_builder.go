package midi

import "log/slog"

// DefaultCapacity is the default size of each mailbox.
const DefaultCapacity = 256

type queueConfig struct {
	inputs  int
	outputs int
	logger  *slog.Logger
}

// QueueBuilderOption is a functional option for configuring a Queue via NewQueue.
type QueueBuilderOption func(*queueConfig)

// WithCapacity sets the input and output mailbox sizes. Values below 1 are ignored.
//
// Parameters:
//   - inputs: the input mailbox size
//   - outputs: the output mailbox size
//
// Returns:
//   - QueueBuilderOption: a function that applies the sizes
func WithCapacity(inputs, outputs int) QueueBuilderOption {
	return func(c *queueConfig) {
		if inputs > 0 {
			c.inputs = inputs
		}
		if outputs > 0 {
			c.outputs = outputs
		}
	}
}

// WithLogger sets the logger used for drop and write warnings. A nil logger is ignored.
func WithLogger(logger *slog.Logger) QueueBuilderOption {
	return func(c *queueConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}
