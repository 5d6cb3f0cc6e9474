// Package binding is the change-propagation core.
//
// An Engine owns, per component, the field locations created for it: a
// Location pairs a root component with a resolved fieldpath.Plan and keeps
// the observers registered on it. Writing a location converts the value,
// assigns it, and when the value actually changed notifies its observers,
// then every location of the same root whose path runs through it, then
// records a deferred change for the component's ChangeHandler.
//
// Every external write starts a new Pass. A location is written at most
// once per pass, which is what makes two-way bindings and other cycles
// terminate.
//
// Bindings are built from expressions:
//
//	Text      = "Title"                    single, two-way
//	Text      = "{$Title}"                 single, one-way
//	Text      = "{#Count} of {Total}"      format
//	Text      = "{Price:%.2f} EUR"         format with a fmt verb
//	Visible   = "!Collapsed"               negated
//	Text      = "{@Greeting}"              resource from the default table
//	Text      = "{@theme/Accent}"          resource from a named table
//	Text      = "=Concat(First, Last)"     transform
//	Enabled   = "^Editable:true"           parent-scope search with default
//
// Modifiers are # (this component), ! (negate), $ (one-way), @ (resource)
// and ^ (search layout ancestors). Sources are looked up on the logical
// parent unless # or ^ say otherwise.
//
// A StateLayer attached to a component applies named sets of literal
// overrides and can always go back to the Default state, whose values are
// captured from the live fields the first time the component leaves it.
package binding
