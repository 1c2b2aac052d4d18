/*
Package ports defines the driven ports (interfaces) for the stepform engine.

These interfaces decouple the core logic from external implementations, allowing
sessions to be persisted in various backends and definitions to come from
various sources.

# Key Interfaces

  - DefinitionLoader: Responsible for loading form definitions (e.g., from Loam or Memory).
  - SessionStore: Responsible for persisting and loading session snapshots.
  - DistributedLocker: Provides distributed locking for handling concurrent session access.
*/
package ports
