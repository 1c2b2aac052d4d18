package stepform_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/stepform"
	"github.com/aretw0/stepform/pkg/dsl"
)

// ExampleNew_blueprints builds a form in Go and fills it programmatically.
func ExampleNew_blueprints() {
	b := dsl.New("newsletter")
	who := b.Step("who")
	who.Text("email").Required().Lowercase()
	who.Bool("weekly")
	topics := b.Step("topics").SkipIf("weekly == false")
	topics.MultiSelect("topics", "go", "rust", "zig").Selected(1, 2)

	bp, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}
	eng, err := stepform.New("", stepform.WithBlueprints(bp))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	f, err := eng.NewForm(ctx, "")
	if err != nil {
		log.Fatal(err)
	}
	if err := f.EditPath(ctx, "email", "Ada@Example.com"); err != nil {
		log.Fatal(err)
	}
	if err := f.EditPath(ctx, "weekly", false); err != nil {
		log.Fatal(err)
	}
	if err := f.Advance(ctx); err != nil {
		log.Fatal(err)
	}
	fmt.Println("phase:", f.Phase())

	res, err := f.Submit(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("email:", res.ByPath()["email"])
	// Output:
	// phase: all_steps_complete
	// email: ada@example.com
}
