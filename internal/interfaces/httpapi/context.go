package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/riskibarqy/team-schedule/internal/usecase"
)

const accessCodeHeader = "X-Access-Code"

type contextKey string

const accessContextKey contextKey = "team_access"

func withAccess(ctx context.Context, access usecase.Access) context.Context {
	return context.WithValue(ctx, accessContextKey, access)
}

func accessFromContext(ctx context.Context) (usecase.Access, bool) {
	access, ok := ctx.Value(accessContextKey).(usecase.Access)
	return access, ok
}

// accessFromRequest pairs the {teamID} path value with the X-Access-Code header.
func accessFromRequest(r *http.Request) usecase.Access {
	return usecase.Access{
		TeamID:     strings.TrimSpace(r.PathValue("teamID")),
		AccessCode: r.Header.Get(accessCodeHeader),
	}
}
