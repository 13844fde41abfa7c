// Package cart collects configured products and turns them into quotations.
package cart
