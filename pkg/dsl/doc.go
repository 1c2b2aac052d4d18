/*
Package dsl provides a Go DSL for building stepform definitions programmatically.

It is the type-safe alternative to YAML or HCL files: useful for forms
generated at runtime, for tests, and for IDE completion. The builder
produces a definition.Definition, so everything the file formats accept
(rules, built-in conditions, explicit edges) is available.

Example usage:

	b := dsl.New("signup")

	account := b.Step("account").Title("Account")
	account.Text("username").Required().Lowercase().Pattern(`^[a-z]+$`)
	account.Select("plan", "free", "pro").Default("free")

	billing := b.Step("billing").SkipIf(`plan != "pro"`)
	billing.Text("card").Required().ShowWhen("plan", "pro")

	bp, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}
	f := bp.NewForm(ctx)
*/
package dsl
