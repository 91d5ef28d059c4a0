/*
Package ports defines the driven ports (interfaces) of the record generator.

These interfaces decouple validation from persistence, so the same generator
works against memory, files, Redis, SQL databases or a Loam vault.

# Key Interfaces

  - RecordStore: Persists and retrieves validated records by ID.
  - DistributedLocker: Serializes concurrent writes to the same record.

RunRecordStoreContract is a shared test suite every RecordStore adapter runs.
*/
package ports
