package stepform_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/stepform"
	"github.com/aretw0/stepform/pkg/adapters/memory"
	"github.com/aretw0/stepform/pkg/domain"
	"github.com/aretw0/stepform/pkg/render"
	"github.com/aretw0/stepform/pkg/runner"
)

// ExampleEngine_NewForm drives a form one event at a time, the way a
// stateless host does, and prints each frame.
func ExampleEngine_NewForm() {
	loader := memory.NewLoader(map[string]string{
		"contact": `{
			"steps": [{
				"id": "contact",
				"title": "Contact",
				"controls": [
					{"name": "subscribe", "label": "Subscribe", "kind": "bool", "default": false},
					{"name": "email", "label": "Email", "kind": "text", "placeholder": "you@example.com",
					 "visible_when": {"control": "subscribe", "equals": true}}
				]
			}]
		}`,
	})
	eng, err := stepform.New("", stepform.WithLoader(loader))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	f, err := eng.NewForm(ctx, "contact")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Print(render.Text(runner.Render(f).Frame))

	resp, err := runner.HandleAndRender(ctx, f, domain.Event{Type: domain.EventSelectionChange, Control: "subscribe", Value: true})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Print(render.Text(resp.Frame))
	// Output:
	// [1/1] Contact
	// > Subscribe: No
	// [1/1] Contact
	// > Subscribe: Yes
	//   Email: <you@example.com>
}
