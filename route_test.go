package staticgen_test

import (
	"context"
	"testing"

	"github.com/fwojciec/staticgen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoute_Validate(t *testing.T) {
	t.Parallel()

	t.Run("accepts a well-formed route", func(t *testing.T) {
		t.Parallel()

		r := &staticgen.Route{Name: "blog-detail", URLPattern: "/blog/{slug}/"}
		require.NoError(t, r.Validate())
	})

	t.Run("rejects missing name", func(t *testing.T) {
		t.Parallel()

		r := &staticgen.Route{URLPattern: "/blog/"}
		err := r.Validate()
		require.Error(t, err)
		assert.Equal(t, staticgen.EROUTE, staticgen.ErrorCode(err))
	})

	t.Run("rejects pattern without leading slash", func(t *testing.T) {
		t.Parallel()

		r := &staticgen.Route{Name: "blog", URLPattern: "blog/"}
		err := r.Validate()
		require.Error(t, err)
		assert.Equal(t, staticgen.EROUTE, staticgen.ErrorCode(err))
	})

	t.Run("rejects unbalanced placeholder", func(t *testing.T) {
		t.Parallel()

		r := &staticgen.Route{Name: "blog", URLPattern: "/blog/{slug/"}
		err := r.Validate()
		require.Error(t, err)
		assert.Equal(t, staticgen.EROUTE, staticgen.ErrorCode(err))
	})

	t.Run("rejects empty placeholder", func(t *testing.T) {
		t.Parallel()

		r := &staticgen.Route{Name: "blog", URLPattern: "/blog/{}/"}
		err := r.Validate()
		require.Error(t, err)
		assert.Equal(t, staticgen.EROUTE, staticgen.ErrorCode(err))
	})
}

func TestRoute_Placeholders(t *testing.T) {
	t.Parallel()

	t.Run("returns names in order of appearance", func(t *testing.T) {
		t.Parallel()

		r := &staticgen.Route{Name: "archive", URLPattern: "/blog/{year}/{month}/{slug}/"}
		names, err := r.Placeholders()
		require.NoError(t, err)
		assert.Equal(t, []string{"year", "month", "slug"}, names)
	})

	t.Run("returns nil for a static pattern", func(t *testing.T) {
		t.Parallel()

		r := &staticgen.Route{Name: "home", URLPattern: "/"}
		names, err := r.Placeholders()
		require.NoError(t, err)
		assert.Empty(t, names)
	})
}

func TestRoute_ResolveURL(t *testing.T) {
	t.Parallel()

	t.Run("substitutes every placeholder", func(t *testing.T) {
		t.Parallel()

		r := &staticgen.Route{Name: "blog-detail", URLPattern: "/blog/{slug}/"}
		url, err := r.ResolveURL(staticgen.ArgSet{"slug": "hello-world"})
		require.NoError(t, err)
		assert.Equal(t, "/blog/hello-world/", url)
	})

	t.Run("returns EARGS when a placeholder is missing", func(t *testing.T) {
		t.Parallel()

		r := &staticgen.Route{Name: "blog-detail", URLPattern: "/blog/{slug}/"}
		_, err := r.ResolveURL(staticgen.ArgSet{"id": "7"})
		require.Error(t, err)
		assert.Equal(t, staticgen.EARGS, staticgen.ErrorCode(err))
	})
}

func TestRoute_ResolveFilename(t *testing.T) {
	t.Parallel()

	t.Run("empty override yields empty string", func(t *testing.T) {
		t.Parallel()

		r := &staticgen.Route{Name: "home", URLPattern: "/"}
		name, err := r.ResolveFilename(nil)
		require.NoError(t, err)
		assert.Empty(t, name)
	})

	t.Run("substitutes placeholders into the override", func(t *testing.T) {
		t.Parallel()

		r := &staticgen.Route{
			Name:       "feed",
			URLPattern: "/feeds/{name}/",
			Filename:   "feeds/{name}.xml",
		}
		name, err := r.ResolveFilename(staticgen.ArgSet{"name": "blog"})
		require.NoError(t, err)
		assert.Equal(t, "feeds/blog.xml", name)
	})
}

func TestRoute_AcceptsStatus(t *testing.T) {
	t.Parallel()

	t.Run("defaults to 200 only", func(t *testing.T) {
		t.Parallel()

		r := &staticgen.Route{Name: "home", URLPattern: "/"}
		assert.True(t, r.AcceptsStatus(200))
		assert.False(t, r.AcceptsStatus(404))
	})

	t.Run("honors explicit status codes", func(t *testing.T) {
		t.Parallel()

		r := &staticgen.Route{Name: "not-found", URLPattern: "/404.html", StatusCodes: []int{404}}
		assert.True(t, r.AcceptsStatus(404))
		assert.False(t, r.AcceptsStatus(200))
	})
}

func TestArgSet_Key(t *testing.T) {
	t.Parallel()

	t.Run("is independent of insertion order", func(t *testing.T) {
		t.Parallel()

		a := staticgen.ArgSet{"year": "2024", "slug": "hello"}
		b := staticgen.ArgSet{"slug": "hello", "year": "2024"}
		assert.Equal(t, a.Key(), b.Key())
		assert.Equal(t, "slug=hello&year=2024", a.Key())
	})

	t.Run("empty set yields empty key", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, staticgen.ArgSet{}.Key())
	})
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	t.Run("rejects duplicate names", func(t *testing.T) {
		t.Parallel()

		reg := staticgen.NewRegistry()
		require.NoError(t, reg.Register(&staticgen.Route{Name: "home", URLPattern: "/"}))

		err := reg.Register(&staticgen.Route{Name: "home", URLPattern: "/other/"})
		require.Error(t, err)
		assert.Equal(t, staticgen.ECONFLICT, staticgen.ErrorCode(err))
	})

	t.Run("preserves registration order and omits skipped routes", func(t *testing.T) {
		t.Parallel()

		reg := staticgen.NewRegistry()
		require.NoError(t, reg.Register(&staticgen.Route{Name: "home", URLPattern: "/"}))
		require.NoError(t, reg.Register(&staticgen.Route{Name: "draft", URLPattern: "/draft/", Skip: true}))
		require.NoError(t, reg.Register(&staticgen.Route{Name: "about", URLPattern: "/about/"}))

		routes := reg.Routes()
		require.Len(t, routes, 2)
		assert.Equal(t, "home", routes[0].Name)
		assert.Equal(t, "about", routes[1].Name)
	})

	t.Run("lookup returns ENOTFOUND for unknown route", func(t *testing.T) {
		t.Parallel()

		reg := staticgen.NewRegistry()
		_, err := reg.Lookup("missing")
		require.Error(t, err)
		assert.Equal(t, staticgen.ENOTFOUND, staticgen.ErrorCode(err))
	})
}

func TestLiteralArgs(t *testing.T) {
	t.Parallel()

	sets, err := staticgen.LiteralArgs(
		staticgen.ArgSet{"slug": "a"},
		staticgen.ArgSet{"slug": "b"},
	)(context.Background())
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, "a", sets[0]["slug"])
	assert.Equal(t, "b", sets[1]["slug"])
}
