/*
Package ports defines the driven ports (interfaces) of the warp client core.

These interfaces decouple the session logic from concrete transports, storage
backends and user-facing notification sinks.

# Key Interfaces

  - Transport / Dialer: a duplex envelope stream to the engine (websocket, JSON lines, in-memory pipe).
  - DraftStore: keeps the last unsaved layout of a workflow.
  - Notifier: surfaces non-blocking, dismissible messages to the user.
  - Confirmer: asks the user a yes/no question before destructive operations.

Adapters verify themselves with RunTransportContract and RunDraftStoreContract.
*/
package ports
