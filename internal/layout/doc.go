// Package layout reads layout documents and turns them into bound
// component trees.
//
// A layout names a root component, its children, literal field values,
// binding expressions per field and named state overrides. Documents are
// written in YAML or HCL; both decode into the same Document model:
//
//	version: "1"
//	options:
//	  default_resource_table: strings
//	resources:
//	  - table: strings
//	    entries: {greeting: Hello}
//	root:
//	  type: Panel
//	  id: main
//	  fields: {Title: Settings}
//	  children:
//	    - type: Label
//	      id: heading
//	      bind: {Text: "{@greeting}, {Title}"}
//	      states:
//	        Hover: {Visible: "false"}
//
// The HCL form of the same root is
//
//	component "Panel" "main" {
//	  fields = { Title = "Settings" }
//	  component "Label" "heading" {
//	    bind = { Text = "{@greeting}, {Title}" }
//	    state "Hover" {
//	      values = { Visible = "false" }
//	    }
//	  }
//	}
//
// Component types are created through a Factory, so the set of types a
// layout may use is decided by the program embedding the engine.
package layout
