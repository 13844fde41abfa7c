/*
Package ports defines the driven ports (interfaces) of the configurator.

These interfaces decouple the flow engine and the cart from external implementations,
allowing the same core to run against PocketBase, Redis, Postgres, Loam or plain memory.

# Key Interfaces

  - PageStore: Loads Page definitions by id (the only collaborator of the flow engine).
  - ProductCatalog: Lists the configurable products.
  - FlowStore / CartStore: Persist session snapshots and carts between requests.
  - QuotationStore: Persists customers, quotations and quotation items.
  - DistributedLocker: Coordinates session access across replicas.
  - Predictor: Talks to the external AI model service.
*/
package ports
