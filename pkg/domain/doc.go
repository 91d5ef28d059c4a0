/*
Package domain contains the entities shared by the generator, its stores and
its adapters.

It is kept pure and free of I/O so that every storage backend and transport
can depend on it without pulling in the others.

# Key Entities

  - Record: A schema-shaped document, a map of field names to values.
  - LifecycleHooks: Callbacks fired around validation and writes.
  - ValidationEvent / WriteEvent: The payloads handed to those callbacks.
*/
package domain
