/*
Package domain contains the core domain models of the product configurator.

It defines the server-side page tree a customer walks through, the branch stack the
flow engine keeps while walking it, and the artifacts a finished walk produces. This
package is kept pure and free of I/O or persistence concerns.

# Key Entities

  - Page: A server-defined step of a product flow (SELECTION, NUMBER or TEXT).
  - Branch: A linear run of pages being traversed, possibly spawned by a selection.
  - Flow: The runtime snapshot of one configuration session (stack, finished steps, current page).
  - Step: One answered page.
  - ConfiguredProduct: The finished artifact handed to the cart.
*/
package domain
