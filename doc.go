/*
Package stepform is an engine for multi-step terminal forms.

A form is a sequence of steps, each showing a set of controls (text, single
and multi select, boolean and group). Controls depend on one another through
a dependency graph: one control can show, hide, enable, disable or compute
another. The engine keeps every value consistent after each edit, guards
navigation between steps and renders each state as a frame of drawing
instructions, sending only what changed since the last frame.

# Concept

The engine owns the values and the rules; the host ("runner") owns the I/O.
The same form can be driven by a terminal, an HTTP client, a WebSocket or an
AI agent over MCP, and its sessions can be persisted and resumed.

# Usage

Forms are declared in YAML, JSON or HCL files, in a Loam repository of
Markdown step documents, or in Go with package dsl.

	package main

	import (
		"context"
		"log"
		"os"

		"github.com/aretw0/stepform"
		"github.com/aretw0/stepform/pkg/runner"
	)

	func main() {
		eng, err := stepform.New("./signup.yaml")
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		f, err := eng.NewForm(ctx, "")
		if err != nil {
			log.Fatal(err)
		}

		r := runner.NewRunner(
			runner.WithInputHandler(runner.NewTextHandler(os.Stdout, runner.WithStdin())),
		)
		res, err := r.Run(ctx, runner.NewSession(f))
		if err != nil {
			log.Fatal(err)
		}
		if res != nil {
			log.Println(res.Text())
		}
	}
*/
package stepform
