package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/reliant/configurator/internal/presentation/tui"
	"github.com/reliant/configurator/pkg/domain"
	"github.com/reliant/configurator/pkg/runner"
)

// RunOptions controls an interactive session.
type RunOptions struct {
	ProductID string
	CartID    string
	JSON      bool
	In        io.Reader
	Out       io.Writer
}

// RunSession configures one product over the terminal (or NDJSON in JSON mode).
// Interruption, cancellation and end of input return nil with no product.
func RunSession(ctx context.Context, app *App, opts RunOptions) (*domain.ConfiguredProduct, error) {
	in := bufio.NewReader(opts.In)

	if opts.ProductID == "" {
		if opts.JSON {
			return nil, errors.New("a product id is required in JSON mode")
		}
		products, err := app.Products(ctx)
		if err != nil {
			return nil, err
		}
		id, err := chooseProduct(in, opts.Out, products)
		if err != nil {
			return nil, handleExecutionError(err)
		}
		opts.ProductID = id
	}

	var handler runner.IOHandler
	if opts.JSON {
		handler = runner.NewJSONHandler(in, opts.Out)
	} else {
		tui.PrintBanner(opts.Out)
		handler = runner.NewTextHandler(in, opts.Out,
			runner.WithTextHandlerRenderer(tui.NewRenderer(80)),
		)
	}

	interrupts := runner.NewInterrupts()
	defer interrupts.Stop()

	r := runner.NewRunner(
		runner.WithLogger(app.Logger),
		runner.WithInputHandler(handler),
		runner.WithCartID(opts.CartID),
		runner.WithInterrupts(interrupts),
	)
	result, err := r.Run(ctx, app.Configurator, opts.ProductID)
	if err != nil {
		if !opts.JSON && errors.Is(err, runner.ErrInterrupted) {
			printSystemMessage(opts.Out, "Interrupted.")
		}
		return nil, handleExecutionError(err)
	}
	if !opts.JSON {
		printSystemMessage(opts.Out, "Added %s to the cart.", result.Product.Name)
	}
	return result, nil
}

func chooseProduct(in *bufio.Reader, w io.Writer, products []domain.Product) (string, error) {
	if len(products) == 0 {
		return "", errors.New("the catalog has no products")
	}
	if len(products) == 1 {
		return products[0].ID, nil
	}
	fmt.Fprintln(w, "Products:")
	for i, p := range products {
		fmt.Fprintf(w, "  %d) %s\n", i+1, p.Name)
	}
	for {
		fmt.Fprint(w, "Choose a product: ")
		line, err := in.ReadString('\n')
		choice := strings.TrimSpace(line)
		if choice != "" {
			if n, convErr := strconv.Atoi(choice); convErr == nil && n >= 1 && n <= len(products) {
				return products[n-1].ID, nil
			}
			for _, p := range products {
				if p.ID == choice {
					return p.ID, nil
				}
			}
			fmt.Fprintf(w, "! Unknown product %q\n", choice)
		}
		if err != nil {
			return "", err
		}
	}
}

func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

func handleExecutionError(err error) error {
	switch {
	case err == nil,
		errors.Is(err, runner.ErrCancelled),
		errors.Is(err, runner.ErrInterrupted),
		errors.Is(err, context.Canceled),
		errors.Is(err, io.EOF):
		return nil
	}
	return err
}
