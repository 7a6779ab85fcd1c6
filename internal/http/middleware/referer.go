package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"chunkvault/internal/apperr"
)

// RefererGuard allows a request only when its Referer header starts with one
// of the configured origins. Matching is a plain prefix test on the raw
// header, not a URL parse.
type RefererGuard struct {
	prefixes []string
}

// NewRefererGuard copies prefixes, dropping empty entries. A guard with no
// prefixes denies everything.
func NewRefererGuard(prefixes []string) *RefererGuard {
	g := &RefererGuard{}
	for _, p := range prefixes {
		if p = strings.TrimSpace(p); p != "" {
			g.prefixes = append(g.prefixes, p)
		}
	}
	return g
}

// Check returns an apperr.KindAccessDenied error unless referer is allowed.
func (g *RefererGuard) Check(referer string) error {
	if referer != "" {
		for _, p := range g.prefixes {
			if strings.HasPrefix(referer, p) {
				return nil
			}
		}
	}
	return apperr.E("middleware.RefererGuard", apperr.KindAccessDenied, "hotlinking not allowed")
}

// Handler rejects disallowed requests before the route handler runs. The
// error is left to the app's ErrorHandler.
func (g *RefererGuard) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := g.Check(c.Get(fiber.HeaderReferer)); err != nil {
			return err
		}
		return c.Next()
	}
}
