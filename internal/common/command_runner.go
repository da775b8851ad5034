package common

import (
	"context"
	"io"

	"jobpilot/internal/errors"
)

// OperationFunc is one service call whose result is printed
type OperationFunc[Output any] func(context.Context) (Output, error)

// RunCommand runs operation and writes its result in the configured format
// to cmdConfig.OutputFile or stdout.
func RunCommand[Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	stdout io.Writer,
	operation OperationFunc[Output],
) error {
	outputHandler := NewOutputHandler(logger, stdout)

	// fail before the call if the output cannot be written
	if err := outputHandler.fileProcessor.ValidateOutputFile(cmdConfig.OutputFile); err != nil {
		return err
	}

	result, err := operation(ctx)
	if err != nil {
		return err
	}

	return outputHandler.HandleOutput(result, cmdConfig)
}
