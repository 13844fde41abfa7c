/*
Package runner drives a product configuration from a terminal or any other
line-oriented stream.

The runner starts a flow through the configurator, shows each page with an
IOHandler, and turns what the user types into submit, back, cancel or retry
commands. Rejected answers and page load failures are reported and the same
page is asked again.

# Handlers

  - TextHandler: numbered options, one prompt per number input, free text.
    "b" goes back, "q" cancels, "r" retries; on text pages prefix them with ":".
  - JSONHandler: JSON Lines, one view per line out and one command per line in.

# Usage

	interrupts := runner.NewInterrupts()
	defer interrupts.Stop()

	r := runner.NewRunner(
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
		runner.WithInterrupts(interrupts),
	)
	product, err := r.Run(ctx, app, "casement-window")
*/
package runner
