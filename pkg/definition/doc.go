// Package definition holds the declarative form format: DTOs, loaders for
// YAML, JSON and HCL files, a structural validator and the compiler that
// turns a Definition into an immutable form.Blueprint.
//
// A YAML definition looks like:
//
//	name: signup
//	steps:
//	  - id: account
//	    controls:
//	      - name: plan
//	        kind: select
//	        options: [free, pro]
//	      - name: card
//	        kind: text
//	        required: true
//	        visible_if: plan == "pro"
//	  - id: billing
//	    skip_if: plan != "pro"
//	    controls: [...]
package definition
