/*
Package crudgen generates validated create, read, update and delete operations
for schema-shaped records.

A schema maps field names to compact definition strings (see package schema):

	users := schema.Schema{
		"name":    "string:64",
		"email":   "string:-1:email",
		"born":    "_date",
	}

A Generator binds a schema to any ports.RecordStore (memory, file, Redis,
SQLite, Postgres or a Loam vault). Every write is validated first; invalid
records never reach the store.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/crudgen"
		"github.com/aretw0/crudgen/pkg/adapters/memory"
		"github.com/aretw0/crudgen/pkg/domain"
		"github.com/aretw0/crudgen/pkg/schema"
	)

	func main() {
		gen, err := crudgen.New(memory.NewStore(), schema.Schema{
			"name":  "string:64",
			"email": "string:-1:email",
		})
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		id, err := gen.Insert(ctx, domain.Record{"name": "Ada", "email": "ada@example.com"})
		if err != nil {
			log.Fatal(err) // a *schema.ValidationError for bad input
		}

		rec, _ := gen.Find(ctx, id)
		log.Println(rec["name"])
	}

# Special properties

The third token of a definition names a special property. Generators ship
with "email" and "uuid" checks; WithSpecialProperty registers more. Tags
without a registered check are accepted.

# Observability

WithLogger injects a slog.Logger and WithLifecycleHooks receives an event for
every validation and write, which is how package observability exports
Prometheus metrics.
*/
package crudgen
