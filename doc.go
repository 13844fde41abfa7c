/*
Package configurator drives product configuration flows for made-to-order products
such as windows and doors.

A product is configured by walking a tree of pages. Each page asks for one answer: a
selection, one or more numbers, or free text. A page lists the pages that follow it,
and a chosen selection can open a nested run of pages that is walked first, before the
flow rejoins the parent's continuation. The flow completes when every run of pages is
exhausted, producing a ConfiguredProduct that is added to the customer's cart.

# Architecture

The engine (internal/runtime) is a pure state machine over flow snapshots. Pages are
fetched through ports.PageStore before any transition is committed, so a failed fetch
leaves the flow untouched and can be retried. Snapshots are persisted between requests
through ports.FlowStore, and transitions for one session are serialized by
session.Manager.

Adapters provide page stores (memory, YAML file, Loam, PocketBase), flow and cart
stores (memory, JSON files, Redis), quotation stores (memory, Postgres, PocketBase) and
transports (HTTP, MCP, terminal).

# Usage

	catalog, err := file.Load("catalog.yaml")
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := configurator.New(configurator.WithCatalog(catalog))
	if err != nil {
		log.Fatal(err)
	}

	view, err := cfg.Start(ctx, "", "casement-window")
	// render view, collect an answer...
	view, err = cfg.Submit(ctx, view.SessionID, form.Answer{SelectionID: "oak"})
*/
package configurator
