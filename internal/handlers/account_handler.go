package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	"autobahn/internal/credstore"
	"autobahn/internal/logging"
	"autobahn/internal/models"
)

// GatewayAuthHeader carries the upstream gateway's JWT on login.
const GatewayAuthHeader = "X-Zt-Authorization"

type AccountHandler struct {
	store         *credstore.Store
	defaultGroups []string
}

func NewAccountHandler(store *credstore.Store, defaultGroups []string) *AccountHandler {
	return &AccountHandler{store: store, defaultGroups: defaultGroups}
}

// GenerateAuthToken derives the app-local token for a username.
func GenerateAuthToken(username string) string {
	sum := sha256.Sum256([]byte(username))
	return hex.EncodeToString(sum[:])
}

type accountResponseData struct {
	User models.Account `json:"user"`
}

// Login resolves the gateway JWT into a local account. The gateway has
// already authenticated the user, so the JWT is decoded without
// signature verification, matching the trust model of the previous
// backend.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	raw := r.Header.Get(GatewayAuthHeader)
	if raw == "" {
		writeError(w, r, http.StatusBadRequest, 400,
			"JWT validation failed",
			"no "+GatewayAuthHeader+" header present")
		return
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		writeError(w, r, http.StatusBadRequest, 400,
			"JWT validation failed", err.Error())
		return
	}

	name, _ := claims["name"].(string)
	username, _ := claims["username"].(string)
	if username == "" {
		writeError(w, r, http.StatusBadRequest, 400,
			"JWT validation failed", "jwt carries no username claim")
		return
	}

	token := GenerateAuthToken(username)
	user, err := h.store.AddOrUpdate(token, username, h.defaultGroups, name)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, 500,
			"failed to persist user", err.Error())
		return
	}

	logging.L.Infow("gateway login", "username", username)
	writeSuccess(w, r, accountResponseData{User: models.Account{
		Name:     user.Name,
		Username: user.Username,
		Token:    user.Token,
		Groups:   user.Groups,
	}})
}
