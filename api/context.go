package api

import (
	"context"

	"github.com/rpupo63/portfolio-backend/models"
)

type keyType string

const sessionKey keyType = "session"

// ctxWithSession adds the verified admin session to the context
func ctxWithSession(ctx context.Context, session *models.Session) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

// ctxGetSession retrieves the admin session, if the request was authenticated
func ctxGetSession(ctx context.Context) (*models.Session, bool) {
	session, ok := ctx.Value(sessionKey).(*models.Session)
	return session, ok && session != nil
}
