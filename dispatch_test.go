package relay_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaykit/relay"
)

// tracer returns a Wrap middleware that records its before and after
// phases into trace.
func tracer(trace *[]string, name string) relay.Middleware {
	return relay.Wrap(func(_ *relay.Request, _ *relay.Context, next relay.Next) (*relay.Response, error) {
		*trace = append(*trace, "before "+name)
		res, err := next()
		if err != nil {
			return nil, err
		}
		*trace = append(*trace, "after "+name)
		return res, nil
	})
}

func TestDispatch_Ordering(t *testing.T) {
	t.Parallel()

	t.Run("after_phases_unwind_in_reverse", func(t *testing.T) {
		t.Parallel()

		var trace []string
		r := relay.New()
		r.Use(tracer(&trace, "1"), tracer(&trace, "2"), tracer(&trace, "3"))
		r.Route("/x").Get(func(_ *relay.Request, _ *relay.Context) (*relay.Response, error) {
			trace = append(trace, "handler")
			return relay.Text(http.StatusOK, "ok"), nil
		})

		dispatch(t, r, http.MethodGet, "http://example.com/x")
		assert.Equal(t, []string{
			"before 1", "before 2", "before 3",
			"handler",
			"after 3", "after 2", "after 1",
		}, trace)
	})

	t.Run("function_middleware_cannot_observe_response", func(t *testing.T) {
		t.Parallel()

		var ran []string
		r := relay.New()
		r.Use(relay.Func(func(*relay.Request, *relay.Context) (*relay.Response, error) {
			ran = append(ran, "fn")
			return nil, nil
		}))
		r.Route("/x").Get(func(_ *relay.Request, _ *relay.Context) (*relay.Response, error) {
			ran = append(ran, "handler")
			return relay.Text(http.StatusOK, "ok"), nil
		})

		res := dispatch(t, r, http.MethodGet, "http://example.com/x")
		assert.Equal(t, []string{"fn", "handler"}, ran)
		assert.Equal(t, "ok", string(res.Body))
	})
}

func TestDispatch_ShortCircuit(t *testing.T) {
	t.Parallel()

	t.Run("function_middleware_response_halts_chain", func(t *testing.T) {
		t.Parallel()

		var ran []string
		r := relay.New()
		r.Use(relay.Func(func(*relay.Request, *relay.Context) (*relay.Response, error) {
			ran = append(ran, "auth")
			return relay.Text(http.StatusUnauthorized, "unauthorized"), nil
		}))
		r.Use(relay.Wrap(func(_ *relay.Request, _ *relay.Context, next relay.Next) (*relay.Response, error) {
			ran = append(ran, "cors")
			res, err := next()
			if res != nil {
				res.Header.Set("Access-Control-Allow-Origin", "*")
			}
			return res, err
		}))
		r.Route("/x").Get(func(_ *relay.Request, _ *relay.Context) (*relay.Response, error) {
			ran = append(ran, "handler")
			return relay.Text(http.StatusOK, "ok"), nil
		})

		res := dispatch(t, r, http.MethodGet, "http://example.com/x")
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
		assert.Equal(t, []string{"auth"}, ran)
		assert.Empty(t, res.Header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("enclosing_wrap_still_sees_short_circuit_response", func(t *testing.T) {
		t.Parallel()

		r := relay.New()
		r.Use(relay.Wrap(func(_ *relay.Request, _ *relay.Context, next relay.Next) (*relay.Response, error) {
			res, err := next()
			if err != nil {
				return nil, err
			}
			res.Header.Set("X-Outer", "1")
			return res, nil
		}))
		r.Use(relay.Func(func(*relay.Request, *relay.Context) (*relay.Response, error) {
			return relay.Text(http.StatusTeapot, "stop"), nil
		}))

		res := dispatch(t, r, http.MethodGet, "http://example.com/x")
		assert.Equal(t, http.StatusTeapot, res.StatusCode)
		assert.Equal(t, "1", res.Header.Get("X-Outer"))
	})

	t.Run("wrap_short_circuits_without_delegating", func(t *testing.T) {
		t.Parallel()

		var handlerRan bool
		r := relay.New()
		r.Use(relay.Wrap(func(_ *relay.Request, _ *relay.Context, _ relay.Next) (*relay.Response, error) {
			return relay.Text(http.StatusForbidden, "denied"), nil
		}))
		r.Route("/x").Get(func(_ *relay.Request, _ *relay.Context) (*relay.Response, error) {
			handlerRan = true
			return relay.Text(http.StatusOK, "ok"), nil
		})

		res := dispatch(t, r, http.MethodGet, "http://example.com/x")
		assert.Equal(t, http.StatusForbidden, res.StatusCode)
		assert.False(t, handlerRan)
	})

	t.Run("wrap_passthrough_without_delegating", func(t *testing.T) {
		t.Parallel()

		r := relay.New()
		r.Use(relay.Wrap(func(_ *relay.Request, _ *relay.Context, _ relay.Next) (*relay.Response, error) {
			// Opt out of wrapping entirely.
			return nil, nil
		}))
		r.Route("/x").Get(textHandler("ok"))

		res := dispatch(t, r, http.MethodGet, "http://example.com/x")
		assert.Equal(t, "ok", string(res.Body))
	})

	t.Run("wrap_returning_nil_after_delegating_yields_downstream_response", func(t *testing.T) {
		t.Parallel()

		r := relay.New()
		r.Use(relay.Wrap(func(_ *relay.Request, _ *relay.Context, next relay.Next) (*relay.Response, error) {
			if _, err := next(); err != nil {
				return nil, err
			}
			return nil, nil
		}))
		r.Route("/x").Get(textHandler("ok"))

		res := dispatch(t, r, http.MethodGet, "http://example.com/x")
		assert.Equal(t, "ok", string(res.Body))
	})
}

func TestDispatch_PrefixScoping(t *testing.T) {
	t.Parallel()

	t.Run("prefix_matches_at_segment_boundary", func(t *testing.T) {
		t.Parallel()

		var paths []string
		r := relay.New()
		r.UseAt("/admin", relay.Func(func(req *relay.Request, _ *relay.Context) (*relay.Response, error) {
			paths = append(paths, req.Path())
			return nil, nil
		}))
		r.Route("/admin").Get(textHandler("a"))
		r.Route("/admin/users").Get(textHandler("b"))
		r.Route("/administrator").Get(textHandler("c"))

		dispatch(t, r, http.MethodGet, "http://example.com/admin")
		dispatch(t, r, http.MethodGet, "http://example.com/admin/users")
		dispatch(t, r, http.MethodGet, "http://example.com/administrator")

		assert.Equal(t, []string{"/admin", "/admin/users"}, paths)
	})

	t.Run("skipped_entry_does_not_break_ordering", func(t *testing.T) {
		t.Parallel()

		var trace []string
		r := relay.New()
		r.Use(tracer(&trace, "outer"))
		r.UseAt("/other", tracer(&trace, "scoped"))
		r.Use(tracer(&trace, "inner"))
		r.Route("/x").Get(textHandler("ok"))

		dispatch(t, r, http.MethodGet, "http://example.com/x")
		assert.Equal(t, []string{"before outer", "before inner", "after inner", "after outer"}, trace)
	})
}

func TestDispatch_Redirects(t *testing.T) {
	t.Parallel()

	// rewriting returns middleware that rewrites the URL before delegating.
	rewriting := func(to string) relay.Middleware {
		return relay.Wrap(func(req *relay.Request, _ *relay.Context, next relay.Next) (*relay.Response, error) {
			req.URL = to
			return next()
		})
	}

	t.Run("get_rewrite_synthesizes_302", func(t *testing.T) {
		t.Parallel()

		var handlerRan bool
		r := relay.New()
		r.Use(rewriting("http://example.com/new-path"))
		r.Route("/new-path").Get(func(_ *relay.Request, _ *relay.Context) (*relay.Response, error) {
			handlerRan = true
			return relay.Text(http.StatusOK, "new"), nil
		})

		res := dispatch(t, r, http.MethodGet, "http://example.com/old-path")
		assert.Equal(t, http.StatusFound, res.StatusCode)
		assert.Equal(t, "http://example.com/new-path", res.Header.Get("Location"))
		assert.False(t, handlerRan, "rewritten target handler must not be invoked")
	})

	t.Run("non_get_rewrite_synthesizes_307", func(t *testing.T) {
		t.Parallel()

		r := relay.New()
		r.Use(rewriting("http://example.com/new-path"))

		res := dispatch(t, r, http.MethodPost, "http://example.com/old-path")
		assert.Equal(t, http.StatusTemporaryRedirect, res.StatusCode)
		assert.Equal(t, "http://example.com/new-path", res.Header.Get("Location"))
	})

	t.Run("scheme_upgrade_synthesizes_301", func(t *testing.T) {
		t.Parallel()

		r := relay.New()
		r.Use(rewriting("https://example.com/old-path"))

		res := dispatch(t, r, http.MethodGet, "http://example.com/old-path")
		assert.Equal(t, http.StatusMovedPermanently, res.StatusCode)
		assert.Equal(t, "https://example.com/old-path", res.Header.Get("Location"))
	})

	t.Run("query_string_is_preserved_verbatim", func(t *testing.T) {
		t.Parallel()

		r := relay.New()
		r.Use(rewriting("http://example.com/new?a=1&b=2"))

		res := dispatch(t, r, http.MethodGet, "http://example.com/old?a=1&b=2")
		assert.Equal(t, http.StatusFound, res.StatusCode)
		assert.Equal(t, "http://example.com/new?a=1&b=2", res.Header.Get("Location"))
	})

	t.Run("redirect_flows_through_pending_after_phases", func(t *testing.T) {
		t.Parallel()

		r := relay.New()
		r.Use(relay.Wrap(func(_ *relay.Request, _ *relay.Context, next relay.Next) (*relay.Response, error) {
			res, err := next()
			if err != nil {
				return nil, err
			}
			res.Header.Set("X-Decorated", "yes")
			return res, nil
		}))
		r.Use(rewriting("http://example.com/new"))

		res := dispatch(t, r, http.MethodGet, "http://example.com/old")
		assert.Equal(t, http.StatusFound, res.StatusCode)
		assert.Equal(t, "yes", res.Header.Get("X-Decorated"))
	})

	t.Run("cross_origin_rewrite_is_fatal", func(t *testing.T) {
		t.Parallel()

		r := relay.New()
		r.Use(rewriting("https://evil.com/old-path"))

		res, err := r.Dispatch(context.Background(), relay.NewRequest(http.MethodGet, "http://example.com/old-path"))
		require.Error(t, err)
		assert.ErrorIs(t, err, relay.ErrOriginViolation)
		assert.Contains(t, err.Error(), "origin")
		assert.Nil(t, res)
	})

	t.Run("different_port_is_a_different_origin", func(t *testing.T) {
		t.Parallel()

		r := relay.New()
		r.Use(rewriting("http://example.com:8443/old-path"))

		_, err := r.Dispatch(context.Background(), relay.NewRequest(http.MethodGet, "http://example.com/old-path"))
		assert.ErrorIs(t, err, relay.ErrOriginViolation)
	})

	t.Run("malformed_rewritten_url_is_fatal", func(t *testing.T) {
		t.Parallel()

		r := relay.New()
		r.Use(rewriting("/relative/only"))

		_, err := r.Dispatch(context.Background(), relay.NewRequest(http.MethodGet, "http://example.com/old-path"))
		assert.ErrorIs(t, err, relay.ErrMalformedURL)
	})

	t.Run("rewrite_is_visible_downstream", func(t *testing.T) {
		t.Parallel()

		var seen string
		r := relay.New()
		r.Use(relay.Wrap(func(req *relay.Request, _ *relay.Context, next relay.Next) (*relay.Response, error) {
			req.URL = "http://example.com/new"
			return next()
		}))
		r.Use(relay.Func(func(req *relay.Request, _ *relay.Context) (*relay.Response, error) {
			seen = req.Path()
			return nil, nil
		}))

		dispatch(t, r, http.MethodGet, "http://example.com/old")
		assert.Equal(t, "/new", seen)
	})
}

func TestDispatch_Errors(t *testing.T) {
	t.Parallel()

	t.Run("handler_error_propagates_unmodified", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		r := relay.New()
		r.Route("/x").Get(func(_ *relay.Request, _ *relay.Context) (*relay.Response, error) {
			return nil, boom
		})

		res, err := r.Dispatch(context.Background(), relay.NewRequest(http.MethodGet, "http://example.com/x"))
		assert.Nil(t, res)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("wrap_observes_downstream_error_at_delegation_point", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		r := relay.New()
		r.Use(relay.Wrap(func(_ *relay.Request, _ *relay.Context, next relay.Next) (*relay.Response, error) {
			res, err := next()
			if err != nil {
				// Convert the failure into an ordinary response, stopping
				// further propagation.
				return relay.Text(http.StatusBadGateway, err.Error()), nil
			}
			return res, nil
		}))
		r.Route("/x").Get(func(_ *relay.Request, _ *relay.Context) (*relay.Response, error) {
			return nil, boom
		})

		res := dispatch(t, r, http.MethodGet, "http://example.com/x")
		assert.Equal(t, http.StatusBadGateway, res.StatusCode)
		assert.Equal(t, "boom", string(res.Body))
	})

	t.Run("uncaught_error_skips_remaining_after_phases", func(t *testing.T) {
		t.Parallel()

		var trace []string
		boom := errors.New("boom")
		r := relay.New()
		r.Use(tracer(&trace, "outer"))
		r.Route("/x").Get(func(_ *relay.Request, _ *relay.Context) (*relay.Response, error) {
			return nil, boom
		})

		_, err := r.Dispatch(context.Background(), relay.NewRequest(http.MethodGet, "http://example.com/x"))
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, []string{"before outer"}, trace)
	})

	t.Run("function_middleware_error_propagates", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		r := relay.New()
		r.Use(relay.Func(func(*relay.Request, *relay.Context) (*relay.Response, error) {
			return nil, boom
		}))
		r.Route("/x").Get(textHandler("ok"))

		_, err := r.Dispatch(context.Background(), relay.NewRequest(http.MethodGet, "http://example.com/x"))
		assert.ErrorIs(t, err, boom)
	})

	t.Run("nil_request_is_rejected", func(t *testing.T) {
		t.Parallel()

		r := relay.New()
		_, err := r.Dispatch(context.Background(), nil)
		assert.ErrorIs(t, err, relay.ErrNilRequest)
	})

	t.Run("malformed_original_url_is_rejected", func(t *testing.T) {
		t.Parallel()

		r := relay.New()
		_, err := r.Dispatch(context.Background(), relay.NewRequest(http.MethodGet, "/no-origin"))
		assert.ErrorIs(t, err, relay.ErrMalformedURL)
	})

	t.Run("double_delegation_panics", func(t *testing.T) {
		t.Parallel()

		r := relay.New()
		r.Use(relay.Wrap(func(_ *relay.Request, _ *relay.Context, next relay.Next) (*relay.Response, error) {
			if _, err := next(); err != nil {
				return nil, err
			}
			return next()
		}))
		r.Route("/x").Get(textHandler("ok"))

		assert.Panics(t, func() {
			_, _ = r.Dispatch(context.Background(), relay.NewRequest(http.MethodGet, "http://example.com/x"))
		})
	})
}

func TestDispatch_Fallback(t *testing.T) {
	t.Parallel()

	t.Run("unmatched_route_returns_404_not_found", func(t *testing.T) {
		t.Parallel()

		r := relay.New()
		res := dispatch(t, r, http.MethodGet, "http://example.com/missing")
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
		assert.Equal(t, "Not Found", string(res.Body))
	})

	t.Run("middleware_runs_even_without_matching_route", func(t *testing.T) {
		t.Parallel()

		var trace []string
		r := relay.New()
		r.Use(tracer(&trace, "mw"))

		res := dispatch(t, r, http.MethodGet, "http://example.com/missing")
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
		assert.Equal(t, []string{"before mw", "after mw"}, trace)
	})
}

func TestDispatch_Idempotence(t *testing.T) {
	t.Parallel()

	r := relay.New()
	r.Use(relay.Wrap(func(_ *relay.Request, _ *relay.Context, next relay.Next) (*relay.Response, error) {
		res, err := next()
		if err != nil {
			return nil, err
		}
		res.Header.Set("X-Stamp", "fixed")
		return res, nil
	}))
	r.Route("/x").Get(textHandler("stable"))

	first := dispatch(t, r, http.MethodGet, "http://example.com/x")
	second := dispatch(t, r, http.MethodGet, "http://example.com/x")
	assert.Equal(t, first, second)
}

func TestDispatch_ContextSharing(t *testing.T) {
	t.Parallel()

	t.Run("bag_is_shared_across_middleware_and_mounted_handler", func(t *testing.T) {
		t.Parallel()

		type userKey struct{}

		sub := relay.New()
		sub.Route("/me").Get(func(_ *relay.Request, c *relay.Context) (*relay.Response, error) {
			v, ok := c.Get(userKey{})
			require.True(t, ok)
			return relay.Text(http.StatusOK, v.(string)), nil
		})

		r := relay.New()
		r.Use(relay.Func(func(_ *relay.Request, c *relay.Context) (*relay.Response, error) {
			c.Set(userKey{}, "alice")
			return nil, nil
		}))
		r.Mount("/api", sub)

		res := dispatch(t, r, http.MethodGet, "http://example.com/api/me")
		assert.Equal(t, "alice", string(res.Body))
	})

	t.Run("each_dispatch_gets_a_fresh_bag", func(t *testing.T) {
		t.Parallel()

		type countKey struct{}

		r := relay.New()
		r.Route("/x").Get(func(_ *relay.Request, c *relay.Context) (*relay.Response, error) {
			_, ok := c.Get(countKey{})
			require.False(t, ok, "bag must start empty")
			c.Set(countKey{}, 1)
			return relay.Text(http.StatusOK, "ok"), nil
		})

		dispatch(t, r, http.MethodGet, "http://example.com/x")
		dispatch(t, r, http.MethodGet, "http://example.com/x")
	})
}
