/*
Package dsl provides a fluent builder for product catalogs.

It lets tests and embedded setups describe pages and products in Go instead of
YAML files or a remote collection.

Example usage:

	b := dsl.New()

	b.Product("window", "Casement Window").Starts("frame")

	b.Selection("frame", "Frame material").
		Option("oak", "Oak").Then("finish").
		Option("upvc", "uPVC").
		Next("size")

	b.Text("finish", "Oak finish")

	b.Number("size", "Opening size").
		Input("width", "Width (mm)").Range(300, 2400).Required()

	catalog, err := b.Build()
*/
package dsl
