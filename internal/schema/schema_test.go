package schema_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldbind/internal/component"
	"fieldbind/internal/schema"
)

type Style struct {
	Color string
	Size  float64
}

type Inner struct {
	Depth int
}

type Card struct {
	component.Base
	Inner

	Title   string
	Style   *Style
	Body    *Card
	Caption component.Alias `bind:",map=Body.Title"`
	Hidden  int             `bind:"-"`
	Renamed bool            `bind:"Visible"`

	width  int
	clicks int
}

func (c *Card) Width() int     { return c.width }
func (c *Card) SetWidth(w int) { c.width = w }
func (c *Card) Clicks() int    { return c.clicks }

func (c *Card) Shout(s string) string { return strings.ToUpper(s) }

func lookup(t *testing.T) *schema.Type {
	t.Helper()

	st, err := schema.NewRegistry().Of(&Card{})
	require.NoError(t, err)

	return st
}

func TestMembers(t *testing.T) {
	t.Parallel()

	st := lookup(t)
	assert.Equal(t, "Card", st.Name)
	assert.Equal(t, []string{"Body", "Caption", "Clicks", "Depth", "Style", "Title", "Visible", "Width"}, st.Names())

	body, ok := st.Field("Body")
	require.True(t, ok)
	assert.True(t, body.IsComponent)

	style, _ := st.Field("Style")
	assert.False(t, style.IsComponent)

	caption, _ := st.Field("Caption")
	assert.Equal(t, schema.MemberAlias, caption.Kind)
	assert.Equal(t, "Body.Title", caption.MapTo)

	clicks, _ := st.Field("Clicks")
	assert.Equal(t, schema.MemberProperty, clicks.Kind)
	assert.True(t, clicks.ReadOnly)

	width, _ := st.Field("Width")
	assert.False(t, width.ReadOnly)

	_, ok = st.Field("Hidden")
	assert.False(t, ok)
	_, ok = st.Field("ID")
	assert.False(t, ok)
}

func TestAccessors(t *testing.T) {
	t.Parallel()

	st := lookup(t)
	c := &Card{}
	owner := reflect.ValueOf(c)

	title, _ := st.Field("Title")
	require.NoError(t, title.Set(owner, reflect.ValueOf("hello")))
	assert.Equal(t, "hello", c.Title)

	v, err := title.Get(owner)
	require.NoError(t, err)
	assert.Equal(t, "hello", v.Interface())

	depth, _ := st.Field("Depth")
	require.NoError(t, depth.Set(owner, reflect.ValueOf(3)))
	assert.Equal(t, 3, c.Depth)

	width, _ := st.Field("Width")
	require.NoError(t, width.Set(owner, reflect.ValueOf(120)))
	assert.Equal(t, 120, c.Width())

	clicks, _ := st.Field("Clicks")
	require.Error(t, clicks.Set(owner, reflect.ValueOf(1)))
}

func TestMethodLookupIgnoresCase(t *testing.T) {
	t.Parallel()

	st := lookup(t)
	c := &Card{}

	m, ok := st.Method(reflect.ValueOf(c), "shout")
	require.True(t, ok)

	out := m.Call([]reflect.Value{reflect.ValueOf("hi")})
	assert.Equal(t, "HI", out[0].Interface())

	_, ok = st.Method(reflect.ValueOf(c), "parent")
	assert.False(t, ok)
	assert.Contains(t, st.MethodNames(), "Shout")
}

func TestRegistryCachesAndRejects(t *testing.T) {
	t.Parallel()

	r := schema.NewRegistry()

	a, err := r.Lookup(reflect.TypeFor[*Card]())
	require.NoError(t, err)

	b, err := r.Lookup(reflect.TypeFor[Card]())
	require.NoError(t, err)
	assert.Same(t, a, b)

	_, err = r.Lookup(reflect.TypeFor[int]())
	require.Error(t, err)
}

type badAlias struct {
	component.Base
	Broken component.Alias
}

func TestAliasNeedsTarget(t *testing.T) {
	t.Parallel()

	_, err := schema.NewRegistry().Of(&badAlias{})
	require.ErrorContains(t, err, "alias without map= target")
}
