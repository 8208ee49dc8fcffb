package ws

import (
	"errors"
	"net/http"

	"pulse/internal/models"
)

var errMissingUserID = errors.New("missing user_id")

// QueryIdentityResolver reads the caller's identity from upgrade query
// parameters. Meant for deployments where a fronting proxy has already
// authenticated the request and rewrites the parameters.
type QueryIdentityResolver struct{}

func (QueryIdentityResolver) Resolve(r *http.Request) (models.Identity, error) {
	q := r.URL.Query()
	userID := q.Get("user_id")
	if userID == "" {
		return models.Identity{}, errMissingUserID
	}

	identity := models.Identity{
		UserID:      userID,
		Username:    q.Get("username"),
		DisplayName: q.Get("display_name"),
		AccentColor: q.Get("accent_color"),
	}
	if identity.Username == "" {
		identity.Username = userID
	}
	if identity.DisplayName == "" {
		identity.DisplayName = identity.Username
	}
	return identity, nil
}
